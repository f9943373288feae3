package vm

import (
	"github.com/wippyai/ellie-vm/program"
	"github.com/wippyai/ellie-vm/raw"
)

// loadExecuter implements LDA, LDB, LDC, LDX and LDY.
type loadExecuter struct {
	reg Register
}

func (e loadExecuter) Execute(ctx *Context) (Result, error) {
	f := ctx.Frame
	op := ctx.Operand
	var v raw.Static

	switch ctx.Mode {
	case program.Immediate:
		v = op.Immediate
		if !v.Type.IsStackStorable() {
			return resultContinue, raise(typeOf(ImmediateUseViolation, v.Type))
		}

	case program.Absolute:
		cell, ok := ctx.get(f.Abs(op.Pointer))
		if !ok {
			return resultContinue, raise(memoryAccessViolation(op.Pointer, f.FramePos))
		}
		if cell.Type.IsVoid() {
			return resultContinue, raise(nullReference(f.Abs(op.Pointer)))
		}
		v = cell

	case program.AbsoluteIndex:
		c, err := ctx.container(op.Pointer, false)
		if err != nil {
			return resultContinue, err
		}
		i, err := ctx.index(op.Index)
		if err != nil {
			return resultContinue, err
		}
		if v, err = ctx.loadElement(c, i); err != nil {
			return resultContinue, err
		}

	case program.AbsoluteProperty:
		c, err := ctx.container(op.Pointer, true)
		if err != nil {
			return resultContinue, err
		}
		if v, err = ctx.loadElement(c, op.Index); err != nil {
			return resultContinue, err
		}

	case program.AbsoluteStatic:
		imm, ok := ctx.Program.ImmediateAt(op.Pointer)
		if !ok {
			return resultContinue, raise(reason(IllegalAddressingValue))
		}
		if !imm.Type.IsStackStorable() {
			return resultContinue, raise(typeOf(ImmediateUseViolation, imm.Type))
		}
		v = imm

	default:
		src, ok := RegisterFromLetter(ctx.Mode.Register())
		if !ok {
			return resultContinue, raise(reason(IllegalAddressingValue))
		}
		v = f.Registers.Get(src)
	}

	f.Registers.Set(e.reg, v)
	return resultContinue, nil
}

// storeExecuter implements STA, STB, STC, STX and STY.
type storeExecuter struct {
	reg Register
}

func (e storeExecuter) Execute(ctx *Context) (Result, error) {
	f := ctx.Frame
	op := ctx.Operand
	v := f.Registers.Get(e.reg)

	switch ctx.Mode {
	case program.Implicit:
		return resultContinue, ctx.set(f.GetPos(), v)

	case program.Immediate:
		if !op.Immediate.Type.IsStackStorable() {
			return resultContinue, raise(typeOf(ImmediateUseViolation, op.Immediate.Type))
		}
		return resultContinue, ctx.set(f.GetPos(), op.Immediate)

	case program.Absolute:
		return resultContinue, ctx.set(f.Abs(op.Pointer), v)

	case program.AbsoluteIndex:
		i, err := ctx.index(op.Index)
		if err != nil {
			return resultContinue, err
		}
		c, err := ctx.container(op.Pointer, false)
		if err != nil {
			return resultContinue, err
		}
		return resultContinue, ctx.storeElement(c, i, v)

	case program.AbsoluteProperty:
		c, err := ctx.container(op.Pointer, true)
		if err != nil {
			return resultContinue, err
		}
		return resultContinue, ctx.storeElement(c, op.Index, v)
	}
	return resultContinue, raise(reason(IllegalAddressingValue))
}
