package vm

import (
	"github.com/wippyai/ellie-vm/memory"
	"github.com/wippyai/ellie-vm/native"
	"github.com/wippyai/ellie-vm/program"
	"github.com/wippyai/ellie-vm/raw"
)

func execJMP(ctx *Context) (Result, error) {
	if ctx.Mode != program.Absolute {
		return resultContinue, raise(reason(IllegalAddressingValue))
	}
	ctx.Frame.Pos = ctx.Operand.Pointer
	return resultJump, nil
}

// execJMPA jumps when A holds bool true and falls through on false.
func execJMPA(ctx *Context) (Result, error) {
	if ctx.Mode != program.Absolute {
		return resultContinue, raise(reason(IllegalAddressingValue))
	}
	a := ctx.Frame.Registers.A
	if !a.Type.IsBool() {
		return resultContinue, raise(typeOf(UnexpectedType, a.Type))
	}
	if !a.AsBool() {
		return resultContinue, nil
	}
	ctx.Frame.Pos = ctx.Operand.Pointer
	return resultJump, nil
}

// execCALL reads the callee's hash and escape position from the two
// immediates at the call target.
func execCALL(ctx *Context) (Result, error) {
	if ctx.Mode != program.Absolute {
		return resultContinue, raise(reason(IllegalAddressingValue))
	}
	start := ctx.Operand.Pointer
	hash, ok := ctx.immediateAt(start)
	if !ok {
		return resultContinue, raise(reason(IllegalAddressingValue))
	}
	escape, ok := ctx.immediateAt(start + 1)
	if !ok || int(escape) < start {
		return resultContinue, raise(reason(IllegalAddressingValue))
	}
	return Result{
		Kind: CallFunction,
		Function: FunctionDescriptor{
			Hash:      uint64(hash),
			StackLen:  int(escape) - start,
			EscapePos: int(escape),
			Pos:       start,
		},
	}, nil
}

func execRET(ctx *Context) (Result, error) {
	if ctx.Mode != program.Implicit {
		return resultContinue, raise(reason(IllegalAddressingValue))
	}
	return resultDrop, nil
}

// execFN is the function prologue. Every FN is followed by two immediates:
// the end point of the body and the parameter count. A frame that is not
// running this function skips the body. Otherwise the parameters are copied
// from the caller's frame, starting at the caller-relative offset held in X,
// into the cells following the prologue.
func execFN(ctx *Context) (Result, error) {
	if ctx.Mode != program.Immediate || !ctx.Operand.Immediate.Type.IsInt() {
		return resultContinue, raise(reason(IllegalAddressingValue))
	}
	f := ctx.Frame
	hash := uint64(ctx.Operand.Immediate.AsInt())
	if err := ctx.set(f.GetPos(), raw.Function(hash)); err != nil {
		return resultContinue, err
	}
	end, ok := ctx.immediateAt(f.Pos + 1)
	if !ok {
		return resultContinue, raise(reason(IllegalAddressingValue))
	}
	count, ok := ctx.immediateAt(f.Pos + 2)
	if !ok || count < 0 {
		return resultContinue, raise(reason(IllegalAddressingValue))
	}

	if hash != f.ID {
		f.Pos = int(end) + 1
		return resultJump, nil
	}

	if count > 0 {
		x := f.Registers.X
		if !x.Type.IsInt() {
			return resultContinue, raise(reason(IllegalAddressingValue))
		}
		from := int(x.AsInt()) + f.FramePos - f.StackLen
		for i := 0; i < int(count); i++ {
			src, dst := from+i, f.GetPos()+3+i
			v, ok := ctx.get(src)
			if !ok || v.Type.IsVoid() {
				return resultContinue, raise(nullReference(src))
			}
			if v.Type.IsHeapReference() {
				d, ok := ctx.Heap.Get(v.AsLocation())
				if !ok {
					return resultContinue, raise(nullReference(src))
				}
				ctx.Heap.Set(dst, d.Clone())
				v = raw.HeapRef(dst)
			}
			if err := ctx.set(dst, v); err != nil {
				return resultContinue, err
			}
		}
	}
	f.Pos += 3 + int(count)
	return resultJump, nil
}

// execCALLN reads the native hash, return heap position and parameter count
// from the three immediates at its operand and collects the parameters from
// the cells directly below the current one.
func execCALLN(ctx *Context) (Result, error) {
	if ctx.Mode != program.Absolute {
		return resultContinue, raise(reason(IllegalAddressingValue))
	}
	start := ctx.Operand.Pointer
	hash, ok1 := ctx.immediateAt(start)
	ret, ok2 := ctx.immediateAt(start + 1)
	n, ok3 := ctx.immediateAt(start + 2)
	if !ok1 || !ok2 || !ok3 || n < 0 {
		return resultContinue, raise(reason(IllegalAddressingValue))
	}

	base := ctx.Frame.GetPos() - int(n)
	params := make([]native.Param, 0, n)
	for i := 0; i < int(n); i++ {
		cell, ok := ctx.get(base + i)
		if !ok {
			return resultContinue, raise(nullReference(base + i))
		}
		if _, isRef := memory.KindOf(cell); !isRef {
			params = append(params, native.StaticParam(cell))
			continue
		}
		v, err := ctx.resolve(cell)
		if err != nil {
			return resultContinue, err
		}
		if v.isHeap {
			params = append(params, native.DynamicParam(v.heap.Clone()))
		} else {
			params = append(params, native.StaticParam(v.static))
		}
	}
	return Result{
		Kind: CallNativeFunction,
		Native: native.Call{
			Hash:               uint64(hash),
			Params:             params,
			ReturnHeapPosition: int(ret),
		},
	}, nil
}

// execBRK does nothing; the thread reports it as a breakpoint.
func execBRK(ctx *Context) (Result, error) {
	if ctx.Mode != program.Implicit {
		return resultContinue, raise(reason(IllegalAddressingValue))
	}
	return resultContinue, nil
}
