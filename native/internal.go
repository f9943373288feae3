package native

import (
	"github.com/wippyai/ellie-vm/memory"
	"github.com/wippyai/ellie-vm/raw"
)

// Env gives internal functions access to the calling thread's memory.
type Env struct {
	Isolate *memory.Isolate
	Arch    raw.Arch
}

// InternalFunc is a built-in function that needs the caller's memory.
type InternalFunc func(env Env, info ThreadInfo, params []Param) Answer

var internals = map[string]InternalFunc{
	"array_len":  arrayLen,
	"string_len": stringLen,
	"char_code":  charCode,
}

// Internal returns the built-in function with the given name.
func Internal(name string) (InternalFunc, bool) {
	fn, ok := internals[name]
	return fn, ok
}

func arrayLen(env Env, _ ThreadInfo, params []Param) Answer {
	if len(params) != 1 {
		return RuntimeError("Signature mismatch expected 1 argument(s)")
	}
	p := params[0]
	if p.IsDynamic {
		if !p.Dynamic.Type.IsArray() {
			return RuntimeError("Signature mismatch expected an array")
		}
		n, err := p.Dynamic.ArrayLen(env.Arch)
		if err != nil {
			return RuntimeError("Memory corruption occurred (array_len): %v", err)
		}
		return OkStatic(raw.Int(int64(n)))
	}
	if !p.Static.Type.IsStaticArray() {
		return RuntimeError("Signature mismatch expected an array")
	}
	size, ok := env.Isolate.Stack.Get(p.Static.AsLocation() + 1)
	if !ok || !size.Type.IsInt() {
		return RuntimeError("Memory corruption occurred (array_len)")
	}
	return OkStatic(raw.Int(size.AsInt()))
}

func stringLen(_ Env, _ ThreadInfo, params []Param) Answer {
	if len(params) != 1 {
		return RuntimeError("Signature mismatch expected 1 argument(s)")
	}
	p := params[0]
	if !p.IsDynamic || !p.Dynamic.Type.IsString() {
		return RuntimeError("Signature mismatch expected a string")
	}
	return OkStatic(raw.Int(int64(len(p.Dynamic.Data) / 4)))
}

func charCode(_ Env, _ ThreadInfo, params []Param) Answer {
	if len(params) != 1 {
		return RuntimeError("Signature mismatch expected 1 argument(s)")
	}
	p := params[0]
	if p.IsDynamic || !p.Static.Type.IsChar() {
		return RuntimeError("Signature mismatch expected a char")
	}
	return OkStatic(raw.Int(int64(p.Static.AsChar())))
}
