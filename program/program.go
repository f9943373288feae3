package program

import (
	"github.com/wippyai/ellie-vm/errors"
	"github.com/wippyai/ellie-vm/raw"
)

// Main locates the entry function inside the instruction stream.
type Main struct {
	Start  int
	Length int
	Hash   uint64
}

// Program is a decoded, immutable instruction stream.
type Program struct {
	Main         *Main
	Instructions []Instruction
	Arch         raw.Arch
}

// Len returns the number of instructions.
func (p *Program) Len() int {
	return len(p.Instructions)
}

// At returns the instruction at index i and whether it exists.
func (p *Program) At(i int) (Instruction, bool) {
	if i < 0 || i >= len(p.Instructions) {
		return Instruction{}, false
	}
	return p.Instructions[i], true
}

// ImmediateAt returns the immediate operand of instruction i, if it has one.
func (p *Program) ImmediateAt(i int) (raw.Static, bool) {
	ins, ok := p.At(i)
	if !ok || ins.Mode != Immediate {
		return raw.Static{}, false
	}
	return ins.Operand.Immediate, true
}

// GenerateMainFromFunction scans for an FN instruction whose int immediate
// equals hash and builds a main descriptor from it. The length is taken from
// the immediate of the STA instruction that must follow every FN.
func (p *Program) GenerateMainFromFunction(hash uint64) (Main, error) {
	for i, ins := range p.Instructions {
		if ins.Mnemonic != FN {
			continue
		}
		if ins.Mode != Immediate {
			return Main{}, errors.MainDiscovery(errors.MainWrongAddressing, hash, "FN without immediate operand")
		}
		imm := ins.Operand.Immediate
		if !imm.Type.IsInt() {
			return Main{}, errors.MainDiscovery(errors.MainWrongImmediate, hash, "FN immediate is "+imm.Type.String())
		}
		if uint64(imm.AsInt()) != hash {
			continue
		}
		next, ok := p.At(i + 1)
		if !ok || next.Mnemonic != STA {
			return Main{}, errors.MainDiscovery(errors.MainWrongAddressing, hash, "FN is not followed by STA")
		}
		if next.Mode != Immediate {
			return Main{}, errors.MainDiscovery(errors.MainWrongImmediate, hash, "length STA has no immediate")
		}
		length := next.Operand.Immediate
		if !length.Type.IsInt() {
			return Main{}, errors.MainDiscovery(errors.MainWrongImmediate, hash, "length immediate is "+length.Type.String())
		}
		return Main{Start: i, Length: int(length.AsInt()), Hash: hash}, nil
	}
	return Main{}, errors.MainDiscovery(errors.MainNotFound, hash, "no FN carries this hash")
}
