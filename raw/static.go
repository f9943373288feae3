package raw

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
)

// StaticSize is the length of the encoded entry form of a Static: one id byte
// followed by the 8 byte payload.
const StaticSize = 9

// Static is a fixed-width tagged value that lives in registers and stack cells.
// References are Static values whose payload is the location they point at.
type Static struct {
	Type TypeID
	Data [8]byte
}

func fromUint(id uint8, v uint64) Static {
	s := Static{Type: TypeOf(id)}
	binary.LittleEndian.PutUint64(s.Data[:], v)
	return s
}

func Int(v int64) Static { return fromUint(IDInt, uint64(v)) }

func Float(v float32) Static {
	s := Static{Type: TypeOf(IDFloat)}
	binary.LittleEndian.PutUint32(s.Data[:], math.Float32bits(v))
	return s
}

func Double(v float64) Static { return fromUint(IDDouble, math.Float64bits(v)) }

func Byte(v uint8) Static {
	s := Static{Type: TypeOf(IDByte)}
	s.Data[0] = v
	return s
}

func Bool(v bool) Static {
	s := Static{Type: TypeOf(IDBool)}
	if v {
		s.Data[0] = 1
	}
	return s
}

func Char(v rune) Static {
	s := Static{Type: TypeOf(IDChar)}
	binary.LittleEndian.PutUint32(s.Data[:], uint32(v))
	return s
}

func Void() Static { return Static{Type: TypeOf(IDVoid)} }

func Null() Static { return Static{Type: TypeOf(IDNull)} }

// HeapRef points at a heap location.
func HeapRef(loc int) Static { return fromUint(IDHeapReference, uint64(loc)) }

// StackRef points at an absolute stack cell.
func StackRef(loc int) Static { return fromUint(IDStackReference, uint64(loc)) }

// Function carries the identity hash of a function.
func Function(hash uint64) Static { return fromUint(IDFunction, hash) }

// ClassRef points at the heap location of a class instance.
func ClassRef(loc int) Static { return fromUint(IDClass, uint64(loc)) }

// StaticArrayRef points at the header cell of a stack-resident array.
func StaticArrayRef(loc int) Static { return fromUint(IDStaticArray, uint64(loc)) }

// FromParts builds a Static from a raw id and payload, as read from an
// encoded immediate operand.
func FromParts(id uint8, size int, data [8]byte) Static {
	return Static{Type: TypeID{ID: id, Size: size}, Data: data}
}

func (s Static) must(id uint8) {
	if s.Type.ID != id {
		panic(fmt.Sprintf("raw: %s value read as %s", s.Type, TypeName(id)))
	}
}

// AsInt returns the integer payload. It panics if s is not an int.
func (s Static) AsInt() int64 {
	s.must(IDInt)
	return int64(binary.LittleEndian.Uint64(s.Data[:]))
}

// AsFloat returns the float payload. It panics if s is not a float.
func (s Static) AsFloat() float32 {
	s.must(IDFloat)
	return math.Float32frombits(binary.LittleEndian.Uint32(s.Data[:]))
}

// AsDouble returns the double payload. It panics if s is not a double.
func (s Static) AsDouble() float64 {
	s.must(IDDouble)
	return math.Float64frombits(binary.LittleEndian.Uint64(s.Data[:]))
}

// AsByte returns the byte payload. It panics if s is not a byte.
func (s Static) AsByte() uint8 {
	s.must(IDByte)
	return s.Data[0]
}

// AsBool returns the bool payload. It panics if s is not a bool.
func (s Static) AsBool() bool {
	s.must(IDBool)
	return s.Data[0] == 1
}

// AsChar returns the char payload. It panics if s is not a char.
func (s Static) AsChar() rune {
	s.must(IDChar)
	return rune(binary.LittleEndian.Uint32(s.Data[:]))
}

// AsLocation returns the payload of a location-carrying value: references,
// class and static array pointers, and function hashes. It panics otherwise.
func (s Static) AsLocation() int {
	switch s.Type.ID {
	case IDHeapReference, IDStackReference, IDClass, IDStaticArray, IDFunction:
		return int(binary.LittleEndian.Uint64(s.Data[:]))
	}
	panic(fmt.Sprintf("raw: %s value read as location", s.Type))
}

// Uint returns the payload interpreted as an unsigned little-endian integer,
// regardless of the tag.
func (s Static) Uint() uint64 {
	return binary.LittleEndian.Uint64(s.Data[:])
}

// Equal compares tag ids and payload bytes.
func (s Static) Equal(o Static) bool {
	return s.Type.Equal(o.Type) && s.Data == o.Data
}

// Bytes returns the 9 byte entry form [id][8 data].
func (s Static) Bytes() []byte {
	b := make([]byte, StaticSize)
	b[0] = s.Type.ID
	copy(b[1:], s.Data[:])
	return b
}

// StaticFromBytes decodes the entry form produced by Bytes.
func StaticFromBytes(b []byte) (Static, error) {
	if len(b) != StaticSize {
		return Static{}, &EntryLengthError{Expected: StaticSize, Got: len(b)}
	}
	if !ValidID(b[0]) {
		return Static{}, fmt.Errorf("raw: invalid type id %d", b[0])
	}
	s := Static{Type: TypeOf(b[0])}
	copy(s.Data[:], b[1:])
	return s, nil
}

// Text renders the payload without its tag.
func (s Static) Text() string {
	switch s.Type.ID {
	case IDInt:
		return strconv.FormatInt(s.AsInt(), 10)
	case IDFloat:
		return strconv.FormatFloat(float64(s.AsFloat()), 'g', -1, 32)
	case IDDouble:
		return strconv.FormatFloat(s.AsDouble(), 'g', -1, 64)
	case IDByte:
		return strconv.Itoa(int(s.AsByte()))
	case IDBool:
		return strconv.FormatBool(s.AsBool())
	case IDChar:
		return string(s.AsChar())
	case IDVoid:
		return "void"
	case IDNull:
		return "null"
	}
	return strconv.FormatUint(s.Uint(), 10)
}

func (s Static) String() string {
	if s.Type.IsVoid() || s.Type.IsNull() {
		return s.Type.String()
	}
	return s.Type.String() + "(" + s.Text() + ")"
}
