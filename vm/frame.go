package vm

import (
	"fmt"

	"github.com/wippyai/ellie-vm/raw"
)

// Register names one of the five frame registers.
type Register uint8

const (
	RegA Register = iota
	RegB
	RegC
	RegX
	RegY
)

func (r Register) String() string {
	if r <= RegY {
		return string("ABCXY"[r])
	}
	return fmt.Sprintf("Register(%d)", uint8(r))
}

// RegisterFromLetter maps 'A'..'Y' to a Register.
func RegisterFromLetter(b byte) (Register, bool) {
	switch b {
	case 'A':
		return RegA, true
	case 'B':
		return RegB, true
	case 'C':
		return RegC, true
	case 'X':
		return RegX, true
	case 'Y':
		return RegY, true
	}
	return 0, false
}

// Registers is the register file of a frame. A is the accumulator, B and C
// are operands, X carries arguments into a callee and Y carries results back.
type Registers struct {
	A raw.Static `cbor:"a"`
	B raw.Static `cbor:"b"`
	C raw.Static `cbor:"c"`
	X raw.Static `cbor:"x"`
	Y raw.Static `cbor:"y"`
}

// VoidRegisters returns a register file with every register void.
func VoidRegisters() Registers {
	v := raw.Void()
	return Registers{A: v, B: v, C: v, X: v, Y: v}
}

// Get returns the value of r.
func (rs *Registers) Get(r Register) raw.Static {
	switch r {
	case RegA:
		return rs.A
	case RegB:
		return rs.B
	case RegC:
		return rs.C
	case RegX:
		return rs.X
	default:
		return rs.Y
	}
}

// Set stores v into r.
func (rs *Registers) Set(r Register, v raw.Static) {
	switch r {
	case RegA:
		rs.A = v
	case RegB:
		rs.B = v
	case RegC:
		rs.C = v
	case RegX:
		rs.X = v
	default:
		rs.Y = v
	}
}

// Frame is one activation record.
type Frame struct {
	Caller    *uint64   `cbor:"caller,omitempty"`
	Registers Registers `cbor:"registers"`
	ID        uint64    `cbor:"id"`
	Pos       int       `cbor:"pos"`
	FramePos  int       `cbor:"frame_pos"`
	StackLen  int       `cbor:"stack_len"`
}

// GetPos returns the absolute stack cell of the executing instruction.
func (f *Frame) GetPos() int {
	return f.FramePos + f.Pos
}

// Abs translates a frame-relative offset into an absolute stack index.
func (f *Frame) Abs(offset int) int {
	return f.FramePos + offset
}

func (f Frame) String() string {
	caller := "-"
	if f.Caller != nil {
		caller = fmt.Sprint(*f.Caller)
	}
	return fmt.Sprintf("frame %d pos=%d frame_pos=%d len=%d caller=%s", f.ID, f.Pos, f.FramePos, f.StackLen, caller)
}
