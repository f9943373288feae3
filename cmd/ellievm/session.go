package main

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/tetratelabs/wazero"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/ellie-vm/config"
	"github.com/wippyai/ellie-vm/native"
	"github.com/wippyai/ellie-vm/native/wasm"
	"github.com/wippyai/ellie-vm/program"
	"github.com/wippyai/ellie-vm/vm"
)

type sessionOptions struct {
	configPath    string
	debugInfoPath string
	programPath   string
	mainHash      uint64
	hasMain       bool
}

// session is a loaded program with its native modules, ready to spawn threads.
type session struct {
	cfg     *config.Config
	prog    *program.Program
	info    *program.DebugInfo
	vm      *vm.VM
	rt      wazero.Runtime
	modules *native.ModuleManager
	log     *zap.Logger
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func loadDebugInfo(path string) (*program.DebugInfo, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read debug info: %w", err)
	}
	info, err := program.ParseDebugInfo(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse debug info: %w", err)
	}
	return info, nil
}

func loadProgram(path string, requireMain bool) (*program.Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read program: %w", err)
	}
	prog, err := program.Decode(data, program.WithRequireMain(requireMain))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return prog, nil
}

// mergeTrace combines the call site names from the debug sidecar with the
// configured ones. Configured entries win.
func mergeTrace(cfg *config.Config, info *program.DebugInfo) native.Trace {
	trace := native.TraceFromDebugInfo(info)
	for _, e := range cfg.Trace().Entries() {
		trace.Add(e)
	}
	return trace
}

func openSession(ctx context.Context, opts sessionOptions) (*session, error) {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}
	log, err := cfg.Logger()
	if err != nil {
		return nil, err
	}
	vm.SetLogger(log.Named("vm"))
	native.SetLogger(log.Named("native"))

	info, err := loadDebugInfo(opts.debugInfoPath)
	if err != nil {
		return nil, err
	}
	prog, err := loadProgram(opts.programPath, cfg.VM.RequireMain && !opts.hasMain)
	if err != nil {
		return nil, err
	}
	if opts.hasMain {
		m, err := prog.GenerateMainFromFunction(opts.mainHash)
		if err != nil {
			return nil, fmt.Errorf("main %d: %w", opts.mainHash, err)
		}
		prog.Main = &m
	}

	s := &session{
		cfg:     cfg,
		prog:    prog,
		info:    info,
		log:     log,
		modules: native.NewModuleManager(),
		rt:      wazero.NewRuntime(ctx),
	}
	trace := mergeTrace(cfg, info)
	if err := s.loadWasm(ctx, trace); err != nil {
		_ = s.Close(ctx)
		return nil, err
	}

	s.vm = vm.New(prog,
		vm.WithModules(s.modules),
		vm.WithTrace(trace),
		vm.WithConfig(cfg.VMConfig()),
	)
	log.Debug("session ready",
		zap.String("program", opts.programPath),
		zap.Stringer("arch", prog.Arch),
		zap.Int("instructions", prog.Len()),
		zap.Int("modules", len(s.modules.Modules())))
	return s, nil
}

func (s *session) loadWasm(ctx context.Context, trace native.Trace) error {
	for _, w := range s.cfg.Native.Wasm {
		hashes, err := w.WasmHashes(trace)
		if err != nil {
			return err
		}
		path := s.cfg.ResolvePath(w.Path)
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read wasm module %s: %w", w.Module, err)
		}
		mod, err := wasm.Load(ctx, s.rt, w.Module, data, hashes)
		if err != nil {
			return err
		}
		if err := s.modules.Register(mod); err != nil {
			return err
		}
		s.log.Info("loaded wasm module",
			zap.String("module", w.Module),
			zap.String("path", path),
			zap.Int("functions", len(mod.Functions())))
	}
	return nil
}

// Close releases native modules and the wasm runtime.
func (s *session) Close(ctx context.Context) error {
	err := s.modules.Close()
	err = multierr.Append(err, s.rt.Close(ctx))
	_ = s.log.Sync()
	return err
}
