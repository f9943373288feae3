package program

import (
	"bytes"
	"fmt"
	"io"

	"github.com/wippyai/ellie-vm/errors"
	"github.com/wippyai/ellie-vm/program/internal/binary"
	"github.com/wippyai/ellie-vm/raw"
)

type decodeConfig struct {
	requireMain bool
}

// DecodeOption configures Decode.
type DecodeOption func(*decodeConfig)

// WithRequireMain makes a missing main descriptor a decode error.
func WithRequireMain(require bool) DecodeOption {
	return func(c *decodeConfig) {
		c.requireMain = require
	}
}

// Decode parses a binary module.
func Decode(data []byte, opts ...DecodeOption) (*Program, error) {
	return DecodeReader(bytes.NewReader(data), opts...)
}

// DecodeReader parses a binary module from r, reading until r is exhausted.
func DecodeReader(r io.ByteReader, opts ...DecodeOption) (*Program, error) {
	var cfg decodeConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	br := binary.NewReader(r)
	p := &Program{}

	archByte, err := br.ReadByte()
	if err != nil {
		return nil, truncated(br, "architecture", err)
	}
	arch, ok := raw.ArchFromByte(archByte)
	if !ok {
		return nil, errors.Decode(errors.DecodeIllegalAddressing, br.Position()-1,
			fmt.Sprintf("unknown architecture %d", archByte), nil)
	}
	p.Arch = arch

	hasMain, err := br.ReadByte()
	if err != nil {
		return nil, truncated(br, "main flag", err)
	}
	if hasMain != 0 {
		w := arch.PtrWidth()
		var fields [3]uint64
		for i := range fields {
			if fields[i], err = br.ReadUint(w); err != nil {
				return nil, truncated(br, "main descriptor", err)
			}
		}
		p.Main = &Main{Start: int(fields[0]), Length: int(fields[1]), Hash: fields[2]}
	} else if cfg.requireMain {
		return nil, errors.Decode(errors.DecodeMissingMain, br.Position()-1, "main descriptor required", nil)
	}

	for {
		start := br.Position()
		op, err := br.ReadByte()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, truncated(br, "op_code", err)
		}
		ins, err := decodeInstruction(br, arch, op)
		if err != nil {
			return nil, fmt.Errorf("instruction %d at byte %d: %w", len(p.Instructions), start, err)
		}
		p.Instructions = append(p.Instructions, ins)
	}

	return p, nil
}

func decodeInstruction(br *binary.Reader, arch raw.Arch, op byte) (Instruction, error) {
	info, ok := Lookup(op)
	if !ok {
		return Instruction{}, errors.Decode(errors.DecodeIllegalOpCode, br.Position()-1,
			fmt.Sprintf("op_code %d is not in the instruction table", op), nil)
	}
	ins := Instruction{OpCode: op, Mnemonic: info.Mnemonic, Mode: info.Mode}
	w := arch.PtrWidth()

	switch info.Mode {
	case Immediate:
		id, err := br.ReadByte()
		if err != nil {
			return Instruction{}, truncated(br, "immediate type", err)
		}
		size, err := br.ReadUint(w)
		if err != nil {
			return Instruction{}, truncated(br, "immediate size", err)
		}
		if size > 8 {
			return Instruction{}, errors.Decode(errors.DecodeIllegalAddressing, br.Position(),
				fmt.Sprintf("immediate size %d exceeds inline payload", size), nil)
		}
		payload, err := br.ReadBytes(8)
		if err != nil {
			return Instruction{}, truncated(br, "immediate payload", err)
		}
		var data [8]byte
		copy(data[:], payload)
		ins.Operand.Immediate = raw.FromParts(id, int(size), data)
	case Absolute, AbsoluteStatic:
		ptr, err := br.ReadUint(w)
		if err != nil {
			return Instruction{}, truncated(br, "absolute operand", err)
		}
		ins.Operand.Pointer = int(ptr)
	case AbsoluteIndex, AbsoluteProperty:
		ptr, err := br.ReadUint(w)
		if err != nil {
			return Instruction{}, truncated(br, "pointer operand", err)
		}
		idx, err := br.ReadUint(w)
		if err != nil {
			return Instruction{}, truncated(br, "index operand", err)
		}
		ins.Operand.Pointer = int(ptr)
		ins.Operand.Index = int(idx)
	}
	return ins, nil
}

func truncated(br *binary.Reader, what string, cause error) error {
	return errors.Decode(errors.DecodeTruncated, br.Position(), "stream ends inside "+what, cause)
}
