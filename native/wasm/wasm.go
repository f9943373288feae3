// Package wasm hosts native Ellie functions inside core WebAssembly modules.
//
// Only numeric exports are bound. Ellie values map onto wasm value types as
// follows:
//
//	int     i64
//	double  f64
//	float   f32
//	byte    i32 (zero extended)
//	bool    i32 (0 or 1)
//	char    i32
//
// An i32 result becomes an Ellie int. A function without results answers void.
package wasm

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/ellie-vm/errors"
	"github.com/wippyai/ellie-vm/native"
	"github.com/wippyai/ellie-vm/raw"
)

// Load compiles and instantiates wasmBytes in rt and returns a native module
// called name. hashes maps export names to the call site hashes they answer;
// exports missing from hashes are not bound. The instance is closed with the
// module.
//
// ctx covers compilation and instantiation only. Bound functions are called
// with context.Background, so they stay usable after ctx is done.
func Load(ctx context.Context, rt wazero.Runtime, name string, wasmBytes []byte, hashes map[string]uint64) (*native.Module, error) {
	compiled, err := rt.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, errors.Load(fmt.Sprintf("compile wasm module %s", name), err)
	}

	defs := compiled.ExportedFunctions()
	exports := make([]string, 0, len(hashes))
	for export := range hashes {
		def, ok := defs[export]
		if !ok {
			_ = compiled.Close(ctx)
			return nil, errors.NotFound(errors.PhaseNative, "wasm export", export)
		}
		if err := checkSignature(def); err != nil {
			_ = compiled.Close(ctx)
			return nil, errors.Registration(name, export, err)
		}
		exports = append(exports, export)
	}
	sort.Strings(exports)

	inst, err := rt.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName(""))
	if err != nil {
		_ = compiled.Close(ctx)
		return nil, errors.Instantiation(name, err)
	}

	m := native.NewModule(name, 0)
	b := &binding{module: name}
	for _, export := range exports {
		fn := inst.ExportedFunction(export)
		m.Register(export, hashes[export], b.function(export, fn))
	}
	m.OnClose(func() error {
		err := inst.Close(context.Background())
		if cerr := compiled.Close(context.Background()); err == nil {
			err = cerr
		}
		return err
	})

	native.Logger().Debug("wasm module loaded",
		zap.String("module", name),
		zap.Strings("functions", exports))
	return m, nil
}

func checkSignature(def api.FunctionDefinition) error {
	for _, t := range def.ParamTypes() {
		if !numeric(t) {
			return fmt.Errorf("parameter type %s is not supported", api.ValueTypeName(t))
		}
	}
	results := def.ResultTypes()
	if len(results) > 1 {
		return fmt.Errorf("%d results, at most one is supported", len(results))
	}
	if len(results) == 1 && !numeric(results[0]) {
		return fmt.Errorf("result type %s is not supported", api.ValueTypeName(results[0]))
	}
	return nil
}

func numeric(t api.ValueType) bool {
	switch t {
	case api.ValueTypeI32, api.ValueTypeI64, api.ValueTypeF32, api.ValueTypeF64:
		return true
	}
	return false
}

// binding serializes calls into one module instance.
type binding struct {
	module string
	mu     sync.Mutex
}

func (b *binding) function(name string, fn api.Function) native.Func {
	def := fn.Definition()
	params, results := def.ParamTypes(), def.ResultTypes()

	return func(_ native.ThreadInfo, args []native.Param) native.Answer {
		if len(args) != len(params) {
			return native.RuntimeError("Signature mismatch expected %d argument(s)", len(params))
		}
		stack := make([]uint64, len(params))
		for i, t := range params {
			v, err := encode(t, args[i])
			if err != nil {
				return native.RuntimeError("%s: argument %d: %v", name, i, err)
			}
			stack[i] = v
		}

		b.mu.Lock()
		out, err := fn.Call(context.Background(), stack...)
		b.mu.Unlock()
		if err != nil {
			native.Logger().Debug("wasm call failed",
				zap.String("module", b.module),
				zap.String("function", name),
				zap.Error(err))
			return native.RuntimeError("%s: %v", name, err)
		}
		if len(results) == 0 {
			return native.OkStatic(raw.Void())
		}
		return native.OkStatic(decode(results[0], out[0]))
	}
}

func encode(t api.ValueType, p native.Param) (uint64, error) {
	if p.IsDynamic {
		return 0, errors.TypeMismatch(errors.PhaseNative, nil, api.ValueTypeName(t), p.Dynamic.Type.String())
	}
	v := p.Static
	switch t {
	case api.ValueTypeI64:
		if v.Type.IsInt() {
			return api.EncodeI64(v.AsInt()), nil
		}
	case api.ValueTypeF64:
		if v.Type.IsDouble() {
			return api.EncodeF64(v.AsDouble()), nil
		}
	case api.ValueTypeF32:
		if v.Type.IsFloat() {
			return api.EncodeF32(v.AsFloat()), nil
		}
	case api.ValueTypeI32:
		switch {
		case v.Type.IsByte():
			return api.EncodeU32(uint32(v.AsByte())), nil
		case v.Type.IsBool():
			if v.AsBool() {
				return 1, nil
			}
			return 0, nil
		case v.Type.IsChar():
			return api.EncodeI32(v.AsChar()), nil
		case v.Type.IsInt():
			if v.AsInt() < math.MinInt32 || v.AsInt() > math.MaxInt32 {
				return 0, errors.Overflow(errors.PhaseNative, nil, v.AsInt(), api.ValueTypeName(t))
			}
			return api.EncodeI32(int32(v.AsInt())), nil
		}
	}
	return 0, errors.TypeMismatch(errors.PhaseNative, nil, api.ValueTypeName(t), v.Type.String())
}

func decode(t api.ValueType, v uint64) raw.Static {
	switch t {
	case api.ValueTypeI64:
		return raw.Int(int64(v))
	case api.ValueTypeF64:
		return raw.Double(api.DecodeF64(v))
	case api.ValueTypeF32:
		return raw.Float(api.DecodeF32(v))
	}
	return raw.Int(int64(api.DecodeI32(v)))
}
