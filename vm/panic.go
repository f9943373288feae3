package vm

import (
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/wippyai/ellie-vm/raw"
)

// PanicKind is the closed set of reasons a thread can panic.
type PanicKind uint8

const (
	IntegerOverflow PanicKind = iota + 1
	ByteOverflow
	PlatformOverflow
	FloatOverflow
	DoubleOverflow
	UnmergebleTypes
	UncomparableTypes
	StackOverflow
	BrokenStackTree
	UnexpectedType
	NullReference
	OutOfInstructions
	RuntimeError
	InvalidRegisterAccess
	IndexAccessViolation
	IndexOutOfBounds
	CannotIndexWithNegative
	ParemeterMemoryAccessViolation
	MemoryAccessViolation
	ImmediateUseViolation
	InvalidType
	IllegalAddressingValue
	CannotConvertToType
	CallToUnknown
	MissingModule
	MissingTrace
	ReferenceError
	WrongEntryLength
	ArraySizeCorruption
)

var panicKindNames = [...]string{
	IntegerOverflow:                "IntegerOverflow",
	ByteOverflow:                   "ByteOverflow",
	PlatformOverflow:               "PlatformOverflow",
	FloatOverflow:                  "FloatOverflow",
	DoubleOverflow:                 "DoubleOverflow",
	UnmergebleTypes:                "UnmergebleTypes",
	UncomparableTypes:              "UncomparableTypes",
	StackOverflow:                  "StackOverflow",
	BrokenStackTree:                "BrokenStackTree",
	UnexpectedType:                 "UnexpectedType",
	NullReference:                  "NullReference",
	OutOfInstructions:              "OutOfInstructions",
	RuntimeError:                   "RuntimeError",
	InvalidRegisterAccess:          "InvalidRegisterAccess",
	IndexAccessViolation:           "IndexAccessViolation",
	IndexOutOfBounds:               "IndexOutOfBounds",
	CannotIndexWithNegative:        "CannotIndexWithNegative",
	ParemeterMemoryAccessViolation: "ParemeterMemoryAccessViolation",
	MemoryAccessViolation:          "MemoryAccessViolation",
	ImmediateUseViolation:          "ImmediateUseViolation",
	InvalidType:                    "InvalidType",
	IllegalAddressingValue:         "IllegalAddressingValue",
	CannotConvertToType:            "CannotConvertToType",
	CallToUnknown:                  "CallToUnknown",
	MissingModule:                  "MissingModule",
	MissingTrace:                   "MissingTrace",
	ReferenceError:                 "ReferenceError",
	WrongEntryLength:               "WrongEntryLength",
	ArraySizeCorruption:            "ArraySizeCorruption",
}

func (k PanicKind) String() string {
	if int(k) < len(panicKindNames) && panicKindNames[k] != "" {
		return panicKindNames[k]
	}
	return fmt.Sprintf("PanicKind(%d)", uint8(k))
}

// PanicReason describes a thread panic. Only the fields relevant to Kind are
// set:
//
//	UnmergebleTypes, UncomparableTypes    TypeA, TypeB (operand type ids)
//	CannotConvertToType                   TypeA (from), TypeB (to)
//	UnexpectedType, ImmediateUseViolation,
//	InvalidType, InvalidRegisterAccess,
//	IndexAccessViolation, BrokenStackTree TypeA
//	NullReference, ParemeterMemory...     Location
//	MemoryAccessViolation                 Location (offset), FramePos
//	IndexOutOfBounds                      Index, Len
//	CannotIndexWithNegative               Index
//	WrongEntryLength                      Expected, Got
//	ReferenceError                        Location, Depth
//	StackOverflow                         Depth
//	CallToUnknown, MissingModule,
//	MissingTrace                          Hash, Name
//	RuntimeError                          Message
type PanicReason struct {
	Message  string    `cbor:"message,omitempty"`
	Name     string    `cbor:"name,omitempty"`
	Hash     uint64    `cbor:"hash,omitempty"`
	Location int       `cbor:"location,omitempty"`
	FramePos int       `cbor:"frame_pos,omitempty"`
	Index    int       `cbor:"index,omitempty"`
	Len      int       `cbor:"len,omitempty"`
	Expected int       `cbor:"expected,omitempty"`
	Got      int       `cbor:"got,omitempty"`
	Depth    int       `cbor:"depth,omitempty"`
	Kind     PanicKind `cbor:"kind"`
	TypeA    uint8     `cbor:"type_a,omitempty"`
	TypeB    uint8     `cbor:"type_b,omitempty"`
}

func (r PanicReason) String() string {
	switch r.Kind {
	case UnmergebleTypes, UncomparableTypes, CannotConvertToType:
		return fmt.Sprintf("%s(%s, %s)", r.Kind, raw.TypeName(r.TypeA), raw.TypeName(r.TypeB))
	case UnexpectedType, ImmediateUseViolation, InvalidType, InvalidRegisterAccess, IndexAccessViolation, BrokenStackTree:
		return fmt.Sprintf("%s(%s)", r.Kind, raw.TypeName(r.TypeA))
	case NullReference, ParemeterMemoryAccessViolation:
		return fmt.Sprintf("%s(%d)", r.Kind, r.Location)
	case MemoryAccessViolation:
		return fmt.Sprintf("%s(%d, %d)", r.Kind, r.Location, r.FramePos)
	case IndexOutOfBounds:
		return fmt.Sprintf("%s(%d, %d)", r.Kind, r.Index, r.Len)
	case CannotIndexWithNegative:
		return fmt.Sprintf("%s(%d)", r.Kind, r.Index)
	case WrongEntryLength:
		return fmt.Sprintf("%s(%d, %d)", r.Kind, r.Expected, r.Got)
	case ReferenceError:
		return fmt.Sprintf("%s(%d, depth %d)", r.Kind, r.Location, r.Depth)
	case StackOverflow:
		if r.Depth > 0 {
			return fmt.Sprintf("%s(depth %d)", r.Kind, r.Depth)
		}
	case CallToUnknown, MissingModule, MissingTrace:
		if r.Name != "" {
			return fmt.Sprintf("%s(%s, %d)", r.Kind, r.Name, r.Hash)
		}
		return fmt.Sprintf("%s(%d)", r.Kind, r.Hash)
	case RuntimeError:
		return fmt.Sprintf("%s(%q)", r.Kind, r.Message)
	}
	return r.Kind.String()
}

func reason(kind PanicKind) PanicReason { return PanicReason{Kind: kind} }

func typePair(kind PanicKind, a, b raw.TypeID) PanicReason {
	return PanicReason{Kind: kind, TypeA: a.ID, TypeB: b.ID}
}

func typeOf(kind PanicKind, t raw.TypeID) PanicReason {
	return PanicReason{Kind: kind, TypeA: t.ID}
}

func nullReference(loc int) PanicReason {
	return PanicReason{Kind: NullReference, Location: loc}
}

func memoryAccessViolation(offset, framePos int) PanicReason {
	return PanicReason{Kind: MemoryAccessViolation, Location: offset, FramePos: framePos}
}

func indexOutOfBounds(index, length int) PanicReason {
	return PanicReason{Kind: IndexOutOfBounds, Index: index, Len: length}
}

func wrongEntryLength(expected, got int) PanicReason {
	return PanicReason{Kind: WrongEntryLength, Expected: expected, Got: got}
}

func cannotConvert(from raw.TypeID, to uint8) PanicReason {
	return PanicReason{Kind: CannotConvertToType, TypeA: from.ID, TypeB: to}
}

// ExecuterPanic is returned by an executer that cannot complete its
// instruction. CodeLocation names the VM source position that raised it.
type ExecuterPanic struct {
	CodeLocation string
	Reason       PanicReason
}

func (e *ExecuterPanic) Error() string {
	return fmt.Sprintf("vm panic: %s at %s", e.Reason, e.CodeLocation)
}

// Is matches another ExecuterPanic with the same reason kind.
func (e *ExecuterPanic) Is(target error) bool {
	t, ok := target.(*ExecuterPanic)
	return ok && t.Reason.Kind == e.Reason.Kind
}

// raise builds an ExecuterPanic located at its caller.
func raise(r PanicReason) error {
	return &ExecuterPanic{Reason: r, CodeLocation: codeLocation(2)}
}

func codeLocation(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "unknown"
	}
	return fmt.Sprintf("%s/%s:%d", filepath.Base(filepath.Dir(file)), filepath.Base(file), line)
}
