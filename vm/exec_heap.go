package vm

import (
	"github.com/wippyai/ellie-vm/program"
	"github.com/wippyai/ellie-vm/raw"
)

// heapTarget returns the heap value addressed by frame offset off. A cell
// holding a heap reference redirects to the referenced location; otherwise
// the absolute cell index itself is the heap key.
func (ctx *Context) heapTarget(off int) (*raw.Dynamic, int, error) {
	loc := ctx.Frame.Abs(off)
	if cell, ok := ctx.get(loc); ok && cell.Type.IsHeapReference() {
		loc = cell.AsLocation()
	}
	d, ok := ctx.Heap.GetMut(loc)
	if !ok {
		return nil, loc, raise(nullReference(loc))
	}
	return d, loc, nil
}

// below returns the cell just under the current one, where PUSH and SPUS
// expect their operand.
func (ctx *Context) below() (raw.Static, error) {
	pos := ctx.Frame.GetPos() - 1
	v, ok := ctx.get(pos)
	if !ok {
		return raw.Static{}, raise(nullReference(pos))
	}
	return v, nil
}

func execPUSH(ctx *Context) (Result, error) {
	if ctx.Mode != program.Absolute {
		return resultContinue, raise(reason(IllegalAddressingValue))
	}
	v, err := ctx.below()
	if err != nil {
		return resultContinue, err
	}
	d, _, err := ctx.heapTarget(ctx.Operand.Pointer)
	if err != nil {
		return resultContinue, err
	}
	if !d.Type.IsArray() {
		return resultContinue, raise(typeOf(InvalidRegisterAccess, d.Type))
	}
	if err := d.Append(ctx.Arch, v.Bytes()); err != nil {
		return resultContinue, arrayError(err)
	}
	return resultContinue, nil
}

func execSPUS(ctx *Context) (Result, error) {
	if ctx.Mode != program.Absolute {
		return resultContinue, raise(reason(IllegalAddressingValue))
	}
	d, _, err := ctx.heapTarget(ctx.Operand.Pointer)
	if err != nil {
		return resultContinue, err
	}
	if !d.Type.IsString() {
		return resultContinue, raise(typeOf(InvalidRegisterAccess, d.Type))
	}
	v, err := ctx.below()
	if err != nil {
		return resultContinue, err
	}
	if !v.Type.IsChar() {
		return resultContinue, raise(PanicReason{Kind: InvalidType, TypeA: raw.IDChar})
	}
	d.AppendChar(v.AsChar())
	return resultContinue, nil
}

// execLEN stores the length of the string or array at its operand in A.
func execLEN(ctx *Context) (Result, error) {
	if ctx.Mode != program.Absolute {
		return resultContinue, raise(reason(IllegalAddressingValue))
	}
	off := ctx.Operand.Pointer
	cell, ok := ctx.get(ctx.Frame.Abs(off))
	if !ok {
		return resultContinue, raise(nullReference(ctx.Frame.Abs(off)))
	}
	if cell.Type.IsStaticArray() {
		c, err := ctx.container(off, false)
		if err != nil {
			return resultContinue, err
		}
		ctx.Frame.Registers.A = raw.Int(int64(c.length))
		return resultContinue, nil
	}
	v, err := ctx.resolve(cell)
	if err != nil {
		return resultContinue, err
	}
	var n int
	switch t := v.typ(); {
	case t.IsString():
		n = len(v.heap.Data) / 4
	case t.IsArray():
		if n, err = v.heap.ArrayLen(ctx.Arch); err != nil {
			return resultContinue, arrayError(err)
		}
	default:
		return resultContinue, raise(typeOf(UnexpectedType, t))
	}
	ctx.Frame.Registers.A = raw.Int(int64(n))
	return resultContinue, nil
}

// allocate stores d under the current cell's heap key and points both the
// cell and A at it.
func (ctx *Context) allocate(d raw.Dynamic) error {
	pos := ctx.Frame.GetPos()
	ctx.Heap.Set(pos, d)
	ref := raw.HeapRef(pos)
	if err := ctx.set(pos, ref); err != nil {
		return err
	}
	ctx.Frame.Registers.A = ref
	return nil
}

func execARR(ctx *Context) (Result, error) {
	if ctx.Mode != program.Implicit {
		return resultContinue, raise(reason(IllegalAddressingValue))
	}
	return resultContinue, ctx.allocate(raw.NewArray(ctx.Arch))
}

func execSTR(ctx *Context) (Result, error) {
	if ctx.Mode != program.Implicit {
		return resultContinue, raise(reason(IllegalAddressingValue))
	}
	return resultContinue, ctx.allocate(raw.String(""))
}

// execSAR lays out a static array of n null entries starting at the
// current cell.
func execSAR(ctx *Context) (Result, error) {
	imm := ctx.Operand.Immediate
	if ctx.Mode != program.Immediate || !imm.Type.IsInt() || imm.AsInt() < 0 {
		return resultContinue, raise(reason(IllegalAddressingValue))
	}
	n := int(imm.AsInt())
	pos := ctx.Frame.GetPos()
	ref := raw.StaticArrayRef(pos)
	if err := ctx.set(pos, ref); err != nil {
		return resultContinue, err
	}
	if err := ctx.set(pos+1, raw.Int(int64(n))); err != nil {
		return resultContinue, err
	}
	for i := 0; i < n; i++ {
		if err := ctx.set(pos+2+i, raw.Null()); err != nil {
			return resultContinue, err
		}
	}
	ctx.Frame.Registers.A = ref
	return resultContinue, nil
}

// execPOPS removes the last entry of the array at its operand into A.
func execPOPS(ctx *Context) (Result, error) {
	if ctx.Mode != program.Absolute {
		return resultContinue, raise(reason(IllegalAddressingValue))
	}
	d, _, err := ctx.heapTarget(ctx.Operand.Pointer)
	if err != nil {
		return resultContinue, err
	}
	if !d.Type.IsArray() {
		return resultContinue, raise(typeOf(InvalidRegisterAccess, d.Type))
	}
	entry, err := d.Pop(ctx.Arch)
	if err != nil {
		return resultContinue, arrayError(err)
	}
	v, err := raw.StaticFromBytes(entry)
	if err != nil {
		return resultContinue, arrayError(err)
	}
	ctx.Frame.Registers.A = v
	return resultContinue, nil
}

// execCO copies the value at its operand. Heap values are cloned under the
// current cell's heap key; A receives the copy or a reference to it.
func execCO(ctx *Context) (Result, error) {
	if ctx.Mode != program.Absolute {
		return resultContinue, raise(reason(IllegalAddressingValue))
	}
	off := ctx.Operand.Pointer
	cell, ok := ctx.get(ctx.Frame.Abs(off))
	if !ok {
		return resultContinue, raise(nullReference(ctx.Frame.Abs(off)))
	}
	v, err := ctx.resolve(cell)
	if err != nil {
		return resultContinue, err
	}
	if !v.isHeap {
		ctx.Frame.Registers.A = v.static
		return resultContinue, nil
	}
	ctx.Frame.Registers.A = ctx.putHeap(v.heap.Clone())
	return resultContinue, nil
}

// execDEA releases a stack cell by overwriting it with void.
func execDEA(ctx *Context) (Result, error) {
	if ctx.Mode != program.Absolute {
		return resultContinue, raise(reason(IllegalAddressingValue))
	}
	return resultContinue, ctx.set(ctx.Frame.Abs(ctx.Operand.Pointer), raw.Void())
}
