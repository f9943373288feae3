package native

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/wippyai/ellie-vm/errors"
	"github.com/wippyai/ellie-vm/raw"
)

var (
	threadInfoType = reflect.TypeOf(ThreadInfo{})
	paramType      = reflect.TypeOf(Param{})
	staticType     = reflect.TypeOf(raw.Static{})
	dynamicType    = reflect.TypeOf(raw.Dynamic{})
	answerType     = reflect.TypeOf(Answer{})
	errorType      = reflect.TypeOf((*error)(nil)).Elem()
)

type decoder func(p Param) (reflect.Value, bool)

type encoder func(v reflect.Value) Answer

// Adapt turns a plain Go function into a Func.
//
// Parameters map from Ellie values by Go kind: int and int64 take int, int32
// (rune) takes char, float32 takes float, float64 takes double, uint8 takes
// byte, bool takes bool and string takes a heap string. raw.Static,
// raw.Dynamic and Param receive the value untouched. An optional leading
// ThreadInfo parameter receives the caller's identity. Results map the same
// way in reverse; a trailing error result becomes a RuntimeError answer.
func Adapt(fn any) (Func, error) {
	switch f := fn.(type) {
	case Func:
		return f, nil
	case func(ThreadInfo, []Param) Answer:
		return f, nil
	}

	rv := reflect.ValueOf(fn)
	if !rv.IsValid() || rv.Kind() != reflect.Func {
		return nil, errors.New(errors.PhaseNative, errors.KindTypeMismatch).
			Type(fmt.Sprintf("%T", fn)).
			Detail("handler must be a function").
			Build()
	}
	rt := rv.Type()
	if rt.IsVariadic() {
		return nil, errors.Unsupported(errors.PhaseNative, "variadic native function")
	}

	first := 0
	withInfo := rt.NumIn() > 0 && rt.In(0) == threadInfoType
	if withInfo {
		first = 1
	}
	decoders := make([]decoder, 0, rt.NumIn()-first)
	for i := first; i < rt.NumIn(); i++ {
		d, ok := decoderFor(rt.In(i))
		if !ok {
			return nil, errors.Unsupported(errors.PhaseNative, "parameter type "+rt.In(i).String())
		}
		decoders = append(decoders, d)
	}

	var enc encoder
	withErr := false
	switch rt.NumOut() {
	case 0:
	case 1:
		if rt.Out(0) == errorType {
			withErr = true
			break
		}
		e, ok := encoderFor(rt.Out(0))
		if !ok {
			return nil, errors.Unsupported(errors.PhaseNative, "result type "+rt.Out(0).String())
		}
		enc = e
	case 2:
		if rt.Out(1) != errorType {
			return nil, errors.Unsupported(errors.PhaseNative, "second result must be error")
		}
		e, ok := encoderFor(rt.Out(0))
		if !ok {
			return nil, errors.Unsupported(errors.PhaseNative, "result type "+rt.Out(0).String())
		}
		enc, withErr = e, true
	default:
		return nil, errors.Unsupported(errors.PhaseNative, "more than two results")
	}

	return func(info ThreadInfo, params []Param) Answer {
		if len(params) != len(decoders) {
			return RuntimeError("Signature mismatch expected %d argument(s)", len(decoders))
		}
		args := make([]reflect.Value, 0, rt.NumIn())
		if withInfo {
			args = append(args, reflect.ValueOf(info))
		}
		for i, d := range decoders {
			v, ok := d(params[i])
			if !ok {
				path := []string{"argument " + strconv.Itoa(i)}
				return RuntimeError("Signature mismatch %v", errors.TypeMismatch(errors.PhaseNative, path, rt.In(i+first).String(), params[i].Type().String()))
			}
			args = append(args, v)
		}

		out := rv.Call(args)
		if withErr {
			if err, _ := out[len(out)-1].Interface().(error); err != nil {
				return RuntimeError(err.Error())
			}
		}
		if enc == nil {
			return OkStatic(raw.Void())
		}
		return enc(out[0])
	}, nil
}

func staticOf(p Param, id uint8) (raw.Static, bool) {
	if p.IsDynamic || p.Static.Type.ID != id {
		return raw.Static{}, false
	}
	return p.Static, true
}

func decoderFor(t reflect.Type) (decoder, bool) {
	switch t {
	case paramType:
		return func(p Param) (reflect.Value, bool) { return reflect.ValueOf(p), true }, true
	case staticType:
		return func(p Param) (reflect.Value, bool) {
			return reflect.ValueOf(p.Static), !p.IsDynamic
		}, true
	case dynamicType:
		return func(p Param) (reflect.Value, bool) {
			return reflect.ValueOf(p.Dynamic), p.IsDynamic
		}, true
	}

	scalar := func(id uint8, get func(raw.Static) any) decoder {
		return func(p Param) (reflect.Value, bool) {
			s, ok := staticOf(p, id)
			if !ok {
				return reflect.Value{}, false
			}
			return reflect.ValueOf(get(s)).Convert(t), true
		}
	}

	switch t.Kind() {
	case reflect.Int, reflect.Int64:
		return scalar(raw.IDInt, func(s raw.Static) any { return s.AsInt() }), true
	case reflect.Int32:
		return scalar(raw.IDChar, func(s raw.Static) any { return s.AsChar() }), true
	case reflect.Float32:
		return scalar(raw.IDFloat, func(s raw.Static) any { return s.AsFloat() }), true
	case reflect.Float64:
		return scalar(raw.IDDouble, func(s raw.Static) any { return s.AsDouble() }), true
	case reflect.Uint8:
		return scalar(raw.IDByte, func(s raw.Static) any { return s.AsByte() }), true
	case reflect.Bool:
		return scalar(raw.IDBool, func(s raw.Static) any { return s.AsBool() }), true
	case reflect.String:
		return func(p Param) (reflect.Value, bool) {
			if !p.IsDynamic || !p.Dynamic.Type.IsString() {
				return reflect.Value{}, false
			}
			return reflect.ValueOf(p.Dynamic.AsString()).Convert(t), true
		}, true
	}
	return nil, false
}

func encoderFor(t reflect.Type) (encoder, bool) {
	switch t {
	case answerType:
		return func(v reflect.Value) Answer { return v.Interface().(Answer) }, true
	case staticType:
		return func(v reflect.Value) Answer { return OkStatic(v.Interface().(raw.Static)) }, true
	case dynamicType:
		return func(v reflect.Value) Answer { return OkDynamic(v.Interface().(raw.Dynamic)) }, true
	}

	switch t.Kind() {
	case reflect.Int, reflect.Int64, reflect.Int8, reflect.Int16:
		return func(v reflect.Value) Answer { return OkStatic(raw.Int(v.Int())) }, true
	case reflect.Int32:
		return func(v reflect.Value) Answer { return OkStatic(raw.Char(rune(v.Int()))) }, true
	case reflect.Float32:
		return func(v reflect.Value) Answer { return OkStatic(raw.Float(float32(v.Float()))) }, true
	case reflect.Float64:
		return func(v reflect.Value) Answer { return OkStatic(raw.Double(v.Float())) }, true
	case reflect.Uint8:
		return func(v reflect.Value) Answer { return OkStatic(raw.Byte(uint8(v.Uint()))) }, true
	case reflect.Bool:
		return func(v reflect.Value) Answer { return OkStatic(raw.Bool(v.Bool())) }, true
	case reflect.String:
		return func(v reflect.Value) Answer { return OkDynamic(raw.String(v.String())) }, true
	}
	return nil, false
}
