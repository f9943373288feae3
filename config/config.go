// Package config handles ellievm.toml configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/ellie-vm/errors"
	"github.com/wippyai/ellie-vm/memory"
	"github.com/wippyai/ellie-vm/native"
	"github.com/wippyai/ellie-vm/vm"
)

// Config is an ellievm.toml file.
type Config struct {
	Log    Log    `toml:"log"`
	Native Native `toml:"native"`
	VM     VM     `toml:"vm"`

	// Dir is the directory relative native paths are resolved against.
	Dir string `toml:"-"`
}

// VM holds thread limits and loading options.
type VM struct {
	StackSize         int  `toml:"stack_size"`
	MaxCallDepth      int  `toml:"max_call_depth"`
	MaxReferenceDepth int  `toml:"max_reference_depth"`
	RequireMain       bool `toml:"require_main"`
}

// Log configures the zap logger.
type Log struct {
	Level       string `toml:"level"`
	Development bool   `toml:"development"`
}

// Native lists native modules and call site names.
type Native struct {
	Wasm  []WasmModule `toml:"wasm"`
	Trace []TraceEntry `toml:"trace"`
}

// WasmModule binds the exports of a core wasm file to an Ellie module.
// An empty Functions list binds every export named in the trace.
type WasmModule struct {
	Module    string   `toml:"module"`
	Path      string   `toml:"path"`
	Functions []string `toml:"functions"`
}

// TraceEntry names a native call site hash.
type TraceEntry struct {
	Name   string `toml:"name"`
	Module string `toml:"module"`
	Hash   uint64 `toml:"hash"`
}

// Default returns the configuration used without a file.
func Default() *Config {
	return &Config{
		VM: VM{
			StackSize:         memory.DefaultStackSize,
			MaxCallDepth:      vm.DefaultMaxCallDepth,
			MaxReferenceDepth: memory.DefaultReferenceDepth,
			RequireMain:       true,
		},
		Log: Log{Level: "info"},
		Dir: ".",
	}
}

// Load reads and validates the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindNotFound, err, "read "+path)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if c.Dir, err = filepath.Abs(filepath.Dir(path)); err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "resolve "+path)
	}
	return c, nil
}

// Parse decodes and validates TOML data. Keys absent from data keep their
// defaults.
func Parse(data []byte) (*Config, error) {
	c := Default()
	md, err := toml.Decode(string(data), c)
	if err != nil {
		return nil, errors.ParseFailed(errors.PhaseConfig, "ellievm.toml", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Detail("unknown key %s", undecoded[0]).
			Build()
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) applyDefaults() {
	d := Default()
	if c.VM.StackSize == 0 {
		c.VM.StackSize = d.VM.StackSize
	}
	if c.VM.MaxCallDepth == 0 {
		c.VM.MaxCallDepth = d.VM.MaxCallDepth
	}
	if c.VM.MaxReferenceDepth == 0 {
		c.VM.MaxReferenceDepth = d.VM.MaxReferenceDepth
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
}

// Validate reports every invalid field.
func (c *Config) Validate() error {
	var err error
	invalid := func(path, format string, args ...any) {
		err = multierr.Append(err, errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Path(path).
			Detail(format, args...).
			Build())
	}

	if c.VM.StackSize < 0 {
		invalid("vm.stack_size", "must not be negative, got %d", c.VM.StackSize)
	}
	if c.VM.MaxCallDepth < 0 {
		invalid("vm.max_call_depth", "must not be negative, got %d", c.VM.MaxCallDepth)
	}
	if c.VM.MaxReferenceDepth < 0 {
		invalid("vm.max_reference_depth", "must not be negative, got %d", c.VM.MaxReferenceDepth)
	}
	if _, lerr := zapcore.ParseLevel(c.Log.Level); lerr != nil {
		err = multierr.Append(err, errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Path("log.level").
			Value(c.Log.Level).
			Cause(lerr).
			Detail("unknown level").
			Build())
	}

	modules := make(map[string]bool)
	for i, w := range c.Native.Wasm {
		at := fmt.Sprintf("native.wasm[%d]", i)
		if w.Module == "" {
			invalid(at+".module", "is required")
		} else if modules[w.Module] {
			invalid(at+".module", "duplicate module %q", w.Module)
		}
		modules[w.Module] = true
		if w.Path == "" {
			invalid(at+".path", "is required")
		}
	}

	hashes := make(map[uint64]bool)
	for i, t := range c.Native.Trace {
		at := fmt.Sprintf("native.trace[%d]", i)
		if t.Name == "" {
			invalid(at+".name", "is required")
		}
		if t.Hash == 0 {
			invalid(at+".hash", "is required")
		} else if hashes[t.Hash] {
			invalid(at+".hash", "duplicate hash %d", t.Hash)
		}
		hashes[t.Hash] = true
	}
	return err
}

// VMConfig returns the thread limits for vm.New.
func (c *Config) VMConfig() vm.Config {
	return vm.Config{
		StackSize:         c.VM.StackSize,
		MaxCallDepth:      c.VM.MaxCallDepth,
		MaxReferenceDepth: c.VM.MaxReferenceDepth,
	}
}

// Trace returns the configured call site names.
func (c *Config) Trace() native.Trace {
	t := make(native.Trace, len(c.Native.Trace))
	for _, e := range c.Native.Trace {
		t.Add(native.TraceEntry{Name: e.Name, Module: e.Module, Hash: e.Hash})
	}
	return t
}

// WasmHashes maps the exports of w to call site hashes found in trace.
// Listed functions missing from trace are an error.
func (w WasmModule) WasmHashes(trace native.Trace) (map[string]uint64, error) {
	byName := make(map[string]uint64)
	for _, e := range trace.Entries() {
		if e.Module == "" || e.Module == w.Module {
			byName[e.Name] = e.Hash
		}
	}
	if len(w.Functions) == 0 {
		return byName, nil
	}
	out := make(map[string]uint64, len(w.Functions))
	for _, fn := range w.Functions {
		h, ok := byName[fn]
		if !ok {
			return nil, errors.NotFound(errors.PhaseConfig, "call site hash for function", w.Module+"::"+fn)
		}
		out[fn] = h
	}
	return out, nil
}

// ResolvePath returns w.Path relative to the config directory.
func (c *Config) ResolvePath(p string) string {
	if filepath.IsAbs(p) || c.Dir == "" {
		return p
	}
	return filepath.Join(c.Dir, p)
}

// Logger builds the zap logger described by the log section.
func (c *Config) Logger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, errors.ParseFailed(errors.PhaseConfig, "log.level", err)
	}
	zc := zap.NewProductionConfig()
	if c.Log.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
