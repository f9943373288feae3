package vm

import (
	"math"
	"strconv"

	"github.com/wippyai/ellie-vm/program"
	"github.com/wippyai/ellie-vm/raw"
)

type arithOp struct {
	ints   func(a, b int64) (int64, bool)
	floats func(a, b float64) float64
	concat bool
}

var (
	opAdd = arithOp{ints: addInt, floats: func(a, b float64) float64 { return a + b }, concat: true}
	opSub = arithOp{ints: subInt, floats: func(a, b float64) float64 { return a - b }}
	opMul = arithOp{ints: mulInt, floats: func(a, b float64) float64 { return a * b }}
	opDiv = arithOp{ints: divInt, floats: func(a, b float64) float64 { return a / b }}
	opMod = arithOp{ints: modInt, floats: math.Mod}
	opExp = arithOp{ints: powInt, floats: math.Pow}
)

// arithExecuter implements ADD, SUB, MUL, EXP, DIV and MOD on the resolved B
// and C registers, writing A. Only same-typed numeric pairs are computed;
// ADD additionally concatenates strings, int/string pairs and arrays.
type arithExecuter struct {
	op arithOp
}

func (e arithExecuter) Execute(ctx *Context) (Result, error) {
	if ctx.Mode != program.Implicit {
		return resultContinue, raise(reason(IllegalAddressingValue))
	}
	b, c, err := ctx.operands()
	if err != nil {
		return resultContinue, err
	}
	regs := &ctx.Frame.Registers
	bt, ct := b.typ(), c.typ()

	switch {
	case bt.IsInt() && ct.IsInt():
		r, ok := e.op.ints(b.static.AsInt(), c.static.AsInt())
		if !ok {
			return resultContinue, raise(reason(IntegerOverflow))
		}
		regs.A = raw.Int(r)

	case bt.IsFloat() && ct.IsFloat():
		r := float32(e.op.floats(float64(b.static.AsFloat()), float64(c.static.AsFloat())))
		if !finite(float64(r)) {
			return resultContinue, raise(reason(FloatOverflow))
		}
		regs.A = raw.Float(r)

	case bt.IsDouble() && ct.IsDouble():
		r := e.op.floats(b.static.AsDouble(), c.static.AsDouble())
		if !finite(r) {
			return resultContinue, raise(reason(DoubleOverflow))
		}
		regs.A = raw.Double(r)

	case bt.IsByte() && ct.IsByte():
		r, ok := e.op.ints(int64(b.static.AsByte()), int64(c.static.AsByte()))
		if !ok || r < 0 || r > math.MaxUint8 {
			return resultContinue, raise(reason(ByteOverflow))
		}
		regs.A = raw.Byte(uint8(r))

	case e.op.concat:
		v, err := ctx.concat(b, c)
		if err != nil {
			return resultContinue, err
		}
		regs.A = v

	default:
		return resultContinue, raise(typePair(UnmergebleTypes, bt, ct))
	}
	return resultContinue, nil
}

// concat materializes b+c on the heap at the current cell's key.
func (ctx *Context) concat(b, c value) (raw.Static, error) {
	bt, ct := b.typ(), c.typ()
	switch {
	case bt.IsString() && ct.IsString():
		return ctx.putHeap(raw.StringFromChars(append(b.heap.Chars(), c.heap.Chars()...))), nil
	case bt.IsInt() && ct.IsString():
		return ctx.putHeap(raw.String(strconv.FormatInt(b.static.AsInt(), 10) + c.heap.AsString())), nil
	case bt.IsString() && ct.IsInt():
		return ctx.putHeap(raw.String(b.heap.AsString() + strconv.FormatInt(c.static.AsInt(), 10))), nil
	case bt.IsArray() && ct.IsArray():
		joined, err := raw.Concat(ctx.Arch, b.heap, c.heap)
		if err != nil {
			return raw.Static{}, arrayError(err)
		}
		return ctx.putHeap(joined), nil
	}
	return raw.Static{}, raise(typePair(UnmergebleTypes, bt, ct))
}

func finite(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}

func addInt(a, b int64) (int64, bool) {
	r := a + b
	return r, (a >= 0) != (b >= 0) || (r >= 0) == (a >= 0)
}

func subInt(a, b int64) (int64, bool) {
	r := a - b
	return r, (a >= 0) == (b >= 0) || (r >= 0) == (a >= 0)
}

func mulInt(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, false
	}
	r := a * b
	return r, r/b == a
}

func divInt(a, b int64) (int64, bool) {
	if b == 0 || (a == math.MinInt64 && b == -1) {
		return 0, false
	}
	return a / b, true
}

func modInt(a, b int64) (int64, bool) {
	if b == 0 {
		return 0, false
	}
	if b == -1 {
		return 0, true
	}
	return a % b, true
}

func powInt(base, exp int64) (int64, bool) {
	if exp < 0 {
		return 0, false
	}
	result := int64(1)
	for exp > 0 {
		var ok bool
		if exp&1 == 1 {
			if result, ok = mulInt(result, base); !ok {
				return 0, false
			}
		}
		exp >>= 1
		if exp > 0 {
			if base, ok = mulInt(base, base); !ok {
				return 0, false
			}
		}
	}
	return result, true
}
