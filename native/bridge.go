package native

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/wippyai/ellie-vm/memory"
	"github.com/wippyai/ellie-vm/raw"
)

// ResolveKind classifies a failed native lookup.
type ResolveKind uint8

const (
	MissingTrace ResolveKind = iota
	MissingModule
	CallToUnknown
)

func (k ResolveKind) String() string {
	switch k {
	case MissingTrace:
		return "missing trace"
	case MissingModule:
		return "missing module"
	}
	return "call to unknown"
}

// ResolveError reports a CALLN that no function answers.
type ResolveError struct {
	Name string
	Hash uint64
	Kind ResolveKind
}

func (e *ResolveError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("native: %s for hash %d", e.Kind, e.Hash)
	}
	return fmt.Sprintf("native: %s for %q (hash %d)", e.Kind, e.Name, e.Hash)
}

// Bridge resolves native calls against the internal table and the host
// module manager.
type Bridge struct {
	Modules *ModuleManager
	Trace   Trace
	Arch    raw.Arch
}

// NewBridge creates a bridge. Nil arguments are replaced with empty tables.
func NewBridge(modules *ModuleManager, trace Trace, arch raw.Arch) *Bridge {
	if modules == nil {
		modules = NewModuleManager()
	}
	if trace == nil {
		trace = make(Trace)
	}
	return &Bridge{Modules: modules, Trace: trace, Arch: arch}
}

// Resolve answers call. The call site hash is first named through the trace;
// internal functions are matched by that name, host functions by the owning
// module and then by hash. A call site missing from the trace still resolves
// when a module registered an emitter under its hash.
func (b *Bridge) Resolve(iso *memory.Isolate, info ThreadInfo, call Call) (Answer, error) {
	entry, traced := b.Trace.Lookup(call.Hash)
	if !traced {
		m, ok := b.Modules.ModuleByFunctionHash(call.Hash)
		if !ok {
			return Answer{}, &ResolveError{Kind: MissingTrace, Hash: call.Hash}
		}
		fn, _ := m.Emitter(call.Hash)
		return b.invoke(m.Name, fn, info, call), nil
	}

	if internal, ok := Internal(entry.Name); ok {
		Logger().Debug("internal call", zap.String("function", entry.Name), zap.Int("params", len(call.Params)))
		return internal(Env{Isolate: iso, Arch: b.Arch}, info, call.Params), nil
	}

	m, ok := b.Modules.ModuleOf(entry.Name)
	if !ok {
		return Answer{}, &ResolveError{Kind: MissingModule, Name: entry.Name, Hash: call.Hash}
	}
	fn, ok := m.Emitter(call.Hash)
	if !ok {
		return Answer{}, &ResolveError{Kind: CallToUnknown, Name: entry.Name, Hash: call.Hash}
	}
	return b.invoke(m.Name, fn, info, call), nil
}

func (b *Bridge) invoke(module string, fn *Function, info ThreadInfo, call Call) Answer {
	Logger().Debug("native call",
		zap.String("module", module),
		zap.String("function", fn.Name),
		zap.Uint64("hash", call.Hash),
		zap.Uint64("thread", info.ID))
	return fn.Call(info, call.Params)
}
