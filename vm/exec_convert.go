package vm

import (
	"math"
	"strconv"
	"strings"

	"github.com/wippyai/ellie-vm/program"
	"github.com/wippyai/ellie-vm/raw"
)

// convertExecuter implements the A2x family: A is resolved and replaced by
// its conversion to the target type. A2O converts to bool.
type convertExecuter struct {
	to uint8
}

func (e convertExecuter) Execute(ctx *Context) (Result, error) {
	if ctx.Mode != program.Implicit {
		return resultContinue, raise(reason(IllegalAddressingValue))
	}
	v, err := ctx.resolve(ctx.Frame.Registers.A)
	if err != nil {
		return resultContinue, err
	}

	var out raw.Static
	switch e.to {
	case raw.IDInt:
		out, err = toInt(v)
	case raw.IDFloat:
		out, err = toFloat(v)
	case raw.IDDouble:
		out, err = toDouble(v)
	case raw.IDByte:
		out, err = toByte(v)
	case raw.IDChar:
		out, err = toChar(v)
	case raw.IDBool:
		out, err = toBool(v)
	case raw.IDString:
		var s raw.Dynamic
		if s, err = toString(v); err == nil {
			out = ctx.putHeap(s)
		}
	}
	if err != nil {
		return resultContinue, err
	}
	ctx.Frame.Registers.A = out
	return resultContinue, nil
}

func toInt(v value) (raw.Static, error) {
	t := v.typ()
	switch {
	case t.IsInt():
		return v.static, nil
	case t.IsFloat(), t.IsDouble():
		f := floating(v.static)
		if !finite(f) || f >= math.MaxInt64 || f < math.MinInt64 {
			return raw.Static{}, raise(reason(IntegerOverflow))
		}
		return raw.Int(int64(f)), nil
	case t.IsByte():
		return raw.Int(int64(v.static.AsByte())), nil
	case t.IsBool():
		if v.static.AsBool() {
			return raw.Int(1), nil
		}
		return raw.Int(0), nil
	case t.IsString():
		n, err := strconv.ParseInt(strings.TrimSpace(v.heap.AsString()), 10, 64)
		if err != nil {
			return raw.Static{}, raise(cannotConvert(t, raw.IDInt))
		}
		return raw.Int(n), nil
	}
	return raw.Static{}, raise(cannotConvert(t, raw.IDInt))
}

func toFloat(v value) (raw.Static, error) {
	t := v.typ()
	var f float64
	switch {
	case t.IsInt():
		f = float64(v.static.AsInt())
	case t.IsFloat():
		return v.static, nil
	case t.IsDouble():
		f = v.static.AsDouble()
	case t.IsByte():
		f = float64(v.static.AsByte())
	default:
		return raw.Static{}, raise(cannotConvert(t, raw.IDFloat))
	}
	r := float32(f)
	if !finite(float64(r)) {
		return raw.Static{}, raise(reason(FloatOverflow))
	}
	return raw.Float(r), nil
}

func toDouble(v value) (raw.Static, error) {
	t := v.typ()
	switch {
	case t.IsInt():
		return raw.Double(float64(v.static.AsInt())), nil
	case t.IsFloat():
		return raw.Double(float64(v.static.AsFloat())), nil
	case t.IsDouble():
		return v.static, nil
	case t.IsByte():
		return raw.Double(float64(v.static.AsByte())), nil
	}
	return raw.Static{}, raise(cannotConvert(t, raw.IDDouble))
}

// toByte accepts values in [0, 255).
func toByte(v value) (raw.Static, error) {
	t := v.typ()
	var n int64
	switch {
	case t.IsByte():
		return v.static, nil
	case t.IsInt():
		n = v.static.AsInt()
	case t.IsFloat(), t.IsDouble():
		f := floating(v.static)
		if !finite(f) {
			return raw.Static{}, raise(reason(IntegerOverflow))
		}
		f = math.Trunc(f)
		if f < 0 || f >= math.MaxUint8 {
			return raw.Static{}, raise(reason(IntegerOverflow))
		}
		n = int64(f)
	case t.IsBool():
		if v.static.AsBool() {
			n = 1
		}
	default:
		return raw.Static{}, raise(cannotConvert(t, raw.IDByte))
	}
	if n < 0 || n >= math.MaxUint8 {
		return raw.Static{}, raise(reason(IntegerOverflow))
	}
	return raw.Byte(uint8(n)), nil
}

func toChar(v value) (raw.Static, error) {
	t := v.typ()
	switch {
	case t.IsChar():
		return v.static, nil
	case t.IsString():
		chars := v.heap.Chars()
		if len(chars) == 0 {
			return raw.Char(0), nil
		}
		return raw.Char(chars[0]), nil
	}
	return raw.Static{}, raise(cannotConvert(t, raw.IDChar))
}

func toBool(v value) (raw.Static, error) {
	t := v.typ()
	switch {
	case t.IsBool():
		return v.static, nil
	case t.IsInt():
		return raw.Bool(v.static.AsInt() > 0), nil
	case t.IsFloat(), t.IsDouble():
		return raw.Bool(floating(v.static) > 0), nil
	case t.IsByte():
		return raw.Bool(v.static.AsByte() != 0), nil
	case t.IsChar():
		return raw.Bool(v.static.AsChar() != 0), nil
	case t.IsString():
		return raw.Bool(len(v.heap.Data) > 0), nil
	case t.IsVoid(), t.IsNull():
		return raw.Bool(false), nil
	}
	return raw.Static{}, raise(cannotConvert(t, raw.IDBool))
}

func toString(v value) (raw.Dynamic, error) {
	t := v.typ()
	switch {
	case t.IsString():
		return v.heap.Clone(), nil
	case t.IsInt():
		return raw.String(strconv.FormatInt(v.static.AsInt(), 10)), nil
	case t.IsFloat():
		return raw.String(strconv.FormatFloat(float64(v.static.AsFloat()), 'f', -1, 32)), nil
	case t.IsDouble():
		return raw.String(strconv.FormatFloat(v.static.AsDouble(), 'f', -1, 64)), nil
	case t.IsByte(), t.IsBool(), t.IsChar():
		return raw.String(v.static.Text()), nil
	}
	return raw.Dynamic{}, raise(cannotConvert(t, raw.IDString))
}
