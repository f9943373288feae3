package wasm

import (
	"context"
	"strings"
	"testing"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/ellie-vm/errors"
	"github.com/wippyai/ellie-vm/native"
	"github.com/wippyai/ellie-vm/raw"
)

// addWasm exports add(i64, i64) -> i64.
var addWasm = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	0x01, 0x07, 0x01, 0x60, 0x02, 0x7e, 0x7e, 0x01, 0x7e,
	0x03, 0x02, 0x01, 0x00,
	0x07, 0x07, 0x01, 0x03, 0x61, 0x64, 0x64, 0x00, 0x00,
	0x0a, 0x09, 0x01, 0x07, 0x00, 0x20, 0x00, 0x20, 0x01, 0x7c, 0x0b,
}

func newRuntime(t *testing.T) (context.Context, wazero.Runtime) {
	t.Helper()
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	t.Cleanup(func() { _ = rt.Close(ctx) })
	return ctx, rt
}

func TestLoad(t *testing.T) {
	ctx, rt := newRuntime(t)
	m, err := Load(ctx, rt, "math", addWasm, map[string]uint64{"add": 77})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	fn, ok := m.Emitter(77)
	if !ok || fn.Name != "add" {
		t.Fatalf("Emitter(77) = %v, %v", fn, ok)
	}

	tests := []struct {
		name   string
		params []native.Param
		want   raw.Static
		fails  bool
	}{
		{"ints", []native.Param{native.StaticParam(raw.Int(40)), native.StaticParam(raw.Int(2))}, raw.Int(42), false},
		{"negative", []native.Param{native.StaticParam(raw.Int(-5)), native.StaticParam(raw.Int(2))}, raw.Int(-3), false},
		{"double", []native.Param{native.StaticParam(raw.Double(1)), native.StaticParam(raw.Int(2))}, raw.Static{}, true},
		{"string", []native.Param{native.DynamicParam(raw.String("x")), native.StaticParam(raw.Int(2))}, raw.Static{}, true},
		{"arity", []native.Param{native.StaticParam(raw.Int(1))}, raw.Static{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			answer := fn.Call(native.ThreadInfo{}, tt.params)
			if tt.fails {
				if answer.Kind != native.AnswerError {
					t.Errorf("answer = %s, want runtime error", answer)
				}
				return
			}
			if answer.Kind != native.AnswerStatic || !answer.Static.Equal(tt.want) {
				t.Errorf("answer = %s, want %s", answer, tt.want)
			}
		})
	}

	mm := native.NewModuleManager()
	if err := mm.Register(m); err != nil {
		t.Fatal(err)
	}
	if err := mm.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestLoad_Errors(t *testing.T) {
	ctx, rt := newRuntime(t)

	_, err := Load(ctx, rt, "math", addWasm, map[string]uint64{"sub": 1})
	if !errors.Is(err, &errors.Error{Phase: errors.PhaseNative, Kind: errors.KindNotFound}) {
		t.Errorf("missing export: %v", err)
	}

	_, err = Load(ctx, rt, "math", []byte{0x00, 0x61, 0x73}, nil)
	if !errors.Is(err, &errors.Error{Phase: errors.PhaseLoad, Kind: errors.KindInvalidData}) {
		t.Errorf("bad module: %v", err)
	}

	m, err := Load(ctx, rt, "math", addWasm, nil)
	if err != nil {
		t.Fatalf("Load without hashes: %v", err)
	}
	if len(m.Functions()) != 0 {
		t.Errorf("functions = %d, want none bound", len(m.Functions()))
	}
}

func TestEncodeI32(t *testing.T) {
	tests := []struct {
		v    raw.Static
		want raw.Static
	}{
		{raw.Byte(200), raw.Int(200)},
		{raw.Bool(true), raw.Int(1)},
		{raw.Char('a'), raw.Int(97)},
		{raw.Int(-7), raw.Int(-7)},
	}
	for _, tt := range tests {
		t.Run(tt.v.String(), func(t *testing.T) {
			enc, err := encode(api.ValueTypeI32, native.StaticParam(tt.v))
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			if got := decode(api.ValueTypeI32, enc); !got.Equal(tt.want) {
				t.Errorf("decode(encode(%s)) = %s, want %s", tt.v, got, tt.want)
			}
		})
	}

	_, err := encode(api.ValueTypeI32, native.StaticParam(raw.Int(1<<40)))
	if !errors.Is(err, &errors.Error{Phase: errors.PhaseNative, Kind: errors.KindOverflow}) {
		t.Errorf("int beyond i32: %v, want overflow", err)
	}
}

func TestEncode_TypeMismatch(t *testing.T) {
	tests := []struct {
		name string
		t    api.ValueType
		p    native.Param
		want string
	}{
		{"double as i64", api.ValueTypeI64, native.StaticParam(raw.Double(1)), "type double - expected i64"},
		{"int as f64", api.ValueTypeF64, native.StaticParam(raw.Int(1)), "type int - expected f64"},
		{"string as i32", api.ValueTypeI32, native.DynamicParam(raw.String("x")), "type string - expected i32"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := encode(tt.t, tt.p)
			var e *errors.Error
			if !errors.As(err, &e) || e.Kind != errors.KindTypeMismatch {
				t.Fatalf("encode = %v, want type mismatch", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want %q", err, tt.want)
			}
		})
	}
}

func TestLoad_CallAfterContextDone(t *testing.T) {
	rt := wazero.NewRuntimeWithConfig(context.Background(), wazero.NewRuntimeConfig().WithCloseOnContextDone(true))
	t.Cleanup(func() { _ = rt.Close(context.Background()) })

	ctx, cancel := context.WithCancel(context.Background())
	m, err := Load(ctx, rt, "math", addWasm, map[string]uint64{"add": 77})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cancel()

	fn, _ := m.Emitter(77)
	answer := fn.Call(native.ThreadInfo{}, []native.Param{native.StaticParam(raw.Int(1)), native.StaticParam(raw.Int(2))})
	if answer.Kind != native.AnswerStatic || !answer.Static.Equal(raw.Int(3)) {
		t.Errorf("answer after cancel = %s, want 3", answer)
	}

	mm := native.NewModuleManager()
	if err := mm.Register(m); err != nil {
		t.Fatal(err)
	}
	if err := mm.Close(); err != nil {
		t.Errorf("Close after cancel: %v", err)
	}
}
