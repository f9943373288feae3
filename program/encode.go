package program

import (
	"github.com/wippyai/ellie-vm/program/internal/binary"
)

// Encode serializes the program to the binary module format.
func (p *Program) Encode() []byte {
	w := binary.NewWriter()
	w.Byte(byte(p.Arch))

	width := p.Arch.PtrWidth()
	if p.Main != nil {
		w.Byte(1)
		w.WriteUint(uint64(p.Main.Start), width)
		w.WriteUint(uint64(p.Main.Length), width)
		w.WriteUint(p.Main.Hash, width)
	} else {
		w.Byte(0)
	}

	for _, ins := range p.Instructions {
		w.Byte(ins.OpCode)
		w.WriteBytes(ins.Args(p.Arch))
	}
	return w.Bytes()
}
