package vm

import (
	"bytes"
	"math"

	"github.com/wippyai/ellie-vm/program"
	"github.com/wippyai/ellie-vm/raw"
)

// compareExecuter implements EQ, NE, GT, LT, GQ and LQ.
//
// Numbers compare within their family: int and byte together, float and
// double together. Chars compare by code point. Bools, strings, null, void
// and functions support only EQ and NE. Null equals null and void equals
// void; any other pairing with null or void is uncomparable.
type compareExecuter struct {
	m program.Mnemonic
}

func (e compareExecuter) Execute(ctx *Context) (Result, error) {
	if ctx.Mode != program.Implicit {
		return resultContinue, raise(reason(IllegalAddressingValue))
	}
	b, c, err := ctx.operands()
	if err != nil {
		return resultContinue, err
	}
	bt, ct := b.typ(), c.typ()
	equality := e.m == program.EQ || e.m == program.NE

	var cmp int
	switch {
	case isIntegral(bt) && isIntegral(ct):
		cmp = compareOrdered(integral(b.static), integral(c.static))
	case isFloating(bt) && isFloating(ct):
		x, y := floating(b.static), floating(c.static)
		if math.IsNaN(x) || math.IsNaN(y) {
			// NaN is unordered: only NE holds
			ctx.Frame.Registers.A = raw.Bool(e.m == program.NE)
			return resultContinue, nil
		}
		cmp = compareOrdered(x, y)
	case bt.IsChar() && ct.IsChar():
		cmp = compareOrdered(b.static.AsChar(), c.static.AsChar())
	case equality && nullish(bt) && bt.Equal(ct):
		cmp = 0
	case equality && bt.IsBool() && ct.IsBool(),
		equality && bt.IsFunction() && ct.IsFunction():
		cmp = 1
		if b.static.Equal(c.static) {
			cmp = 0
		}
	case equality && bt.IsString() && ct.IsString():
		cmp = bytes.Compare(b.heap.Data, c.heap.Data)
	default:
		return resultContinue, raise(typePair(UncomparableTypes, bt, ct))
	}

	var r bool
	switch e.m {
	case program.EQ:
		r = cmp == 0
	case program.NE:
		r = cmp != 0
	case program.GT:
		r = cmp > 0
	case program.LT:
		r = cmp < 0
	case program.GQ:
		r = cmp >= 0
	case program.LQ:
		r = cmp <= 0
	}
	ctx.Frame.Registers.A = raw.Bool(r)
	return resultContinue, nil
}

// logicExecuter implements AND and OR on bool operands.
type logicExecuter struct {
	and bool
}

func (e logicExecuter) Execute(ctx *Context) (Result, error) {
	if ctx.Mode != program.Implicit {
		return resultContinue, raise(reason(IllegalAddressingValue))
	}
	b, c, err := ctx.operands()
	if err != nil {
		return resultContinue, err
	}
	if !b.typ().IsBool() || !c.typ().IsBool() {
		return resultContinue, raise(typePair(UncomparableTypes, b.typ(), c.typ()))
	}
	x, y := b.static.AsBool(), c.static.AsBool()
	if e.and {
		ctx.Frame.Registers.A = raw.Bool(x && y)
	} else {
		ctx.Frame.Registers.A = raw.Bool(x || y)
	}
	return resultContinue, nil
}

type ordered interface {
	~int64 | ~float64 | ~int32
}

func compareOrdered[T ordered](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func isIntegral(t raw.TypeID) bool { return t.IsInt() || t.IsByte() }

func isFloating(t raw.TypeID) bool { return t.IsFloat() || t.IsDouble() }

func nullish(t raw.TypeID) bool { return t.IsNull() || t.IsVoid() }

func integral(v raw.Static) int64 {
	if v.Type.IsByte() {
		return int64(v.AsByte())
	}
	return v.AsInt()
}

func floating(v raw.Static) float64 {
	if v.Type.IsFloat() {
		return float64(v.AsFloat())
	}
	return v.AsDouble()
}
