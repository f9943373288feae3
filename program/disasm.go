package program

import (
	"io"
	"strconv"
	"strings"
)

// Disassemble writes the human readable listing of p. Debug headers are
// included when info is non-nil.
func (p *Program) Disassemble(w io.Writer, info *DebugInfo) error {
	_, err := io.WriteString(w, p.Disassembly(info))
	return err
}

// Disassembly returns the listing produced by Disassemble.
func (p *Program) Disassembly(info *DebugInfo) string {
	var b strings.Builder

	b.WriteString(".arch " + p.Arch.String() + "\n")
	if p.Main != nil {
		b.WriteString(".main " + strconv.Itoa(p.Main.Start) + ": " + strconv.Itoa(p.Main.Length) +
			" @ " + strconv.FormatUint(p.Main.Hash, 10) + "\n")
	}
	b.WriteString(".locals")

	b.WriteString("\n.debugHeader")
	if info != nil {
		for _, h := range info.Headers {
			span := strconv.Itoa(h.Start)
			if h.End != h.Start+1 {
				span += "~" + strconv.Itoa(h.End)
			}
			b.WriteString("\n" + h.Module + ":" + h.Name + " = " + span + " : " + strconv.FormatUint(h.Hash, 10))
		}
	}

	b.WriteString("\n.instructions")
	for i, ins := range p.Instructions {
		b.WriteString("\n" + strconv.Itoa(i) + ": " + ins.String() + " = " + strconv.Itoa(int(ins.OpCode)) + " : ")
		b.WriteString(formatBytes(ins.Args(p.Arch)))
	}
	return b.String()
}

func formatBytes(data []byte) string {
	parts := make([]string, len(data))
	for i, c := range data {
		parts[i] = strconv.Itoa(int(c))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
