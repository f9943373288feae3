package vm

import (
	"github.com/wippyai/ellie-vm/memory"
	"github.com/wippyai/ellie-vm/native"
	"github.com/wippyai/ellie-vm/program"
)

// DefaultMaxCallDepth bounds the number of live frames of a thread.
const DefaultMaxCallDepth = 4096

// Config holds the resource limits applied to every thread of a VM.
// Zero values select the defaults.
type Config struct {
	StackSize         int
	MaxCallDepth      int
	MaxReferenceDepth int
}

// DefaultConfig returns the limits used when none are given.
func DefaultConfig() Config {
	return Config{
		StackSize:         memory.DefaultStackSize,
		MaxCallDepth:      DefaultMaxCallDepth,
		MaxReferenceDepth: memory.DefaultReferenceDepth,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.StackSize <= 0 {
		c.StackSize = d.StackSize
	}
	if c.MaxCallDepth <= 0 {
		c.MaxCallDepth = d.MaxCallDepth
	}
	if c.MaxReferenceDepth <= 0 {
		c.MaxReferenceDepth = d.MaxReferenceDepth
	}
	return c
}

// VM binds a decoded program to its native modules. It is immutable after
// New and may create any number of threads.
type VM struct {
	Program *program.Program
	Modules *native.ModuleManager
	Trace   native.Trace
	Config  Config
	bridge  *native.Bridge
	table   *Table
}

// Option configures a VM.
type Option func(*VM)

// WithModules sets the module manager native calls are resolved against.
func WithModules(mm *native.ModuleManager) Option {
	return func(v *VM) { v.Modules = mm }
}

// WithTrace sets the call site trace used to name native calls.
func WithTrace(t native.Trace) Option {
	return func(v *VM) { v.Trace = t }
}

// WithConfig sets the thread resource limits.
func WithConfig(c Config) Option {
	return func(v *VM) { v.Config = c }
}

// WithTable replaces the dispatch table.
func WithTable(t *Table) Option {
	return func(v *VM) { v.table = t }
}

// New creates a VM for prog.
func New(prog *program.Program, opts ...Option) *VM {
	v := &VM{Program: prog}
	for _, opt := range opts {
		opt(v)
	}
	v.Config = v.Config.withDefaults()
	if v.Modules == nil {
		v.Modules = native.NewModuleManager()
	}
	if v.Trace == nil {
		v.Trace = make(native.Trace)
	}
	if v.table == nil {
		v.table = DefaultTable()
	}
	v.bridge = native.NewBridge(v.Modules, v.Trace, prog.Arch)
	return v
}

// NewThread creates a thread with a fresh isolate and an empty call stack.
func (v *VM) NewThread(id uint64) *Thread {
	return &Thread{
		ID:      id,
		vm:      v,
		isolate: memory.NewIsolate(v.Config.StackSize),
	}
}
