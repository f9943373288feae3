package program

import (
	"fmt"

	"github.com/wippyai/ellie-vm/errors"
	"github.com/wippyai/ellie-vm/raw"
)

// Instruction is one decoded entry of the instruction stream. The addressing
// mode is always the one the opcode table assigns to OpCode.
type Instruction struct {
	Operand  Operand
	OpCode   byte
	Mnemonic Mnemonic
	Mode     AddressingMode
}

// New builds an instruction, resolving its op_code from the opcode table.
func New(m Mnemonic, mode AddressingMode, operand Operand) (Instruction, error) {
	op, ok := OpCodeFor(m, mode)
	if !ok {
		return Instruction{}, errors.New(errors.PhaseEncode, errors.KindIllegalAddressing).
			Value(mode).
			Detail("%s does not accept %s addressing", m, mode).
			Build()
	}
	return Instruction{OpCode: op, Mnemonic: m, Mode: mode, Operand: operand}, nil
}

// MustNew is like New but panics on an illegal pairing. It is meant for
// statically known instruction sequences.
func MustNew(m Mnemonic, mode AddressingMode, operand Operand) Instruction {
	ins, err := New(m, mode, operand)
	if err != nil {
		panic(err)
	}
	return ins
}

// Imp builds an implicit-mode instruction.
func Imp(m Mnemonic) Instruction { return MustNew(m, Implicit, Operand{}) }

// Imm builds an immediate-mode instruction.
func Imm(m Mnemonic, v raw.Static) Instruction {
	return MustNew(m, Immediate, Operand{Immediate: v})
}

// Abs builds an absolute-mode instruction addressing a frame-relative cell.
func Abs(m Mnemonic, ptr int) Instruction {
	return MustNew(m, Absolute, Operand{Pointer: ptr})
}

// AbsIndex builds an absolute-index instruction: array cell ptr, index cell idx.
func AbsIndex(m Mnemonic, ptr, idx int) Instruction {
	return MustNew(m, AbsoluteIndex, Operand{Pointer: ptr, Index: idx})
}

// AbsProperty builds an absolute-property instruction: object cell ptr, property idx.
func AbsProperty(m Mnemonic, ptr, idx int) Instruction {
	return MustNew(m, AbsoluteProperty, Operand{Pointer: ptr, Index: idx})
}

// AbsStatic builds an absolute-static instruction addressing an instruction index.
func AbsStatic(m Mnemonic, ptr int) Instruction {
	return MustNew(m, AbsoluteStatic, Operand{Pointer: ptr})
}

// Ind builds an indirect-mode instruction reading from register reg
// (one of 'A', 'B', 'C', 'X', 'Y').
func Ind(m Mnemonic, reg byte) Instruction {
	var mode AddressingMode
	switch reg {
	case 'A':
		mode = IndirectA
	case 'B':
		mode = IndirectB
	case 'C':
		mode = IndirectC
	case 'X':
		mode = IndirectX
	case 'Y':
		mode = IndirectY
	default:
		panic(fmt.Sprintf("program: no register %q", reg))
	}
	return MustNew(m, mode, Operand{})
}

// Args returns the encoded operand bytes that follow the op_code.
func (i Instruction) Args(arch raw.Arch) []byte {
	w := arch.PtrWidth()
	buf := make([]byte, i.Mode.OperandSize(arch))
	switch i.Mode {
	case Immediate:
		buf[0] = i.Operand.Immediate.Type.ID
		arch.PutUint(buf[1:], uint64(i.Operand.Immediate.Type.Size))
		copy(buf[1+w:], i.Operand.Immediate.Data[:])
	case Absolute, AbsoluteStatic:
		arch.PutUint(buf, uint64(i.Operand.Pointer))
	case AbsoluteIndex, AbsoluteProperty:
		arch.PutUint(buf, uint64(i.Operand.Pointer))
		arch.PutUint(buf[w:], uint64(i.Operand.Index))
	}
	return buf
}

func (i Instruction) String() string {
	operand := formatOperand(i.Mode, i.Operand)
	if operand == "" {
		return i.Mnemonic.String()
	}
	return i.Mnemonic.String() + " " + operand
}
