package raw

import (
	"encoding/binary"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Dynamic is a heap-resident value with a variable length payload.
type Dynamic struct {
	Type TypeID
	Data []byte
}

// String encodes s as a heap string, one UTF-32LE code unit per character.
func String(s string) Dynamic {
	data := make([]byte, 0, 4*utf8.RuneCountInString(s))
	for _, r := range s {
		data = binary.LittleEndian.AppendUint32(data, uint32(r))
	}
	return Dynamic{Type: TypeID{ID: IDString, Size: len(data)}, Data: data}
}

// StringFromChars builds a heap string from code points.
func StringFromChars(chars []rune) Dynamic {
	data := make([]byte, 0, 4*len(chars))
	for _, r := range chars {
		data = binary.LittleEndian.AppendUint32(data, uint32(r))
	}
	return Dynamic{Type: TypeID{ID: IDString, Size: len(data)}, Data: data}
}

// FromStatic lifts a stack value onto the heap.
func FromStatic(s Static) Dynamic {
	data := make([]byte, s.Type.Size)
	copy(data, s.Data[:])
	return Dynamic{Type: s.Type, Data: data}
}

// ToStatic narrows a heap value back to a stack value. It fails for types
// that are not stack storable.
func (d Dynamic) ToStatic() (Static, bool) {
	if !d.Type.IsStackStorable() || len(d.Data) > 8 {
		return Static{}, false
	}
	s := Static{Type: TypeOf(d.Type.ID)}
	copy(s.Data[:], d.Data)
	return s, true
}

// Clone returns a deep copy.
func (d Dynamic) Clone() Dynamic {
	data := make([]byte, len(d.Data))
	copy(data, d.Data)
	return Dynamic{Type: d.Type, Data: data}
}

// Chars decodes a heap string into code points. It panics if d is not a string.
func (d Dynamic) Chars() []rune {
	if !d.Type.IsString() {
		panic(fmt.Sprintf("raw: %s value read as string", d.Type))
	}
	chars := make([]rune, 0, len(d.Data)/4)
	for i := 0; i+4 <= len(d.Data); i += 4 {
		chars = append(chars, rune(binary.LittleEndian.Uint32(d.Data[i:])))
	}
	return chars
}

// AsString decodes a heap string. It panics if d is not a string.
func (d Dynamic) AsString() string {
	var b strings.Builder
	for _, r := range d.Chars() {
		if !utf8.ValidRune(r) {
			r = utf8.RuneError
		}
		b.WriteRune(r)
	}
	return b.String()
}

// AppendChar appends one code point to a heap string.
func (d *Dynamic) AppendChar(r rune) {
	d.Data = binary.LittleEndian.AppendUint32(d.Data, uint32(r))
	d.Type.Size = len(d.Data)
}

func (d Dynamic) String() string {
	switch d.Type.ID {
	case IDString:
		return fmt.Sprintf("string(%q)", d.AsString())
	case IDArray:
		return fmt.Sprintf("array(%d bytes)", len(d.Data))
	}
	if s, ok := d.ToStatic(); ok {
		return s.String()
	}
	return fmt.Sprintf("%s(%x)", d.Type, d.Data)
}
