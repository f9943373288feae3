// Package ellie is the bytecode virtual machine of the Ellie language.
//
// The VM runs programs produced by the Ellie assembler. A program is a flat
// instruction stream; each instruction owns the stack cell at its own index
// relative to the running frame, so instruction positions double as memory
// addresses.
//
// # Architecture Overview
//
// The module is organized into several packages with distinct responsibilities:
//
//	ellie/               Root package, documentation only
//	├── raw/             Static and dynamic values, type ids, array layout
//	├── program/         Op code table, binary decoder/encoder, disassembler, debug info
//	├── memory/          Stack and heap memory, isolates, reference resolution
//	├── vm/              Executers, frames, threads, panics and exit snapshots
//	├── native/          Native function bridge, module manager, host registry
//	│   └── wasm/        Native modules backed by core WebAssembly (wazero)
//	├── config/          ellievm.toml loading and validation
//	├── errors/          Structured error types for debugging
//	└── cmd/ellievm/     run, disasm and debug front ends
//
// # Quick Start
//
// Decode a program and run its main function:
//
//	prog, err := program.Decode(data, program.WithRequireMain(true))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	machine := vm.New(prog)
//	th := machine.NewThread(1)
//	if err := th.CallMain(); err != nil {
//	    log.Fatal(err)
//	}
//
//	exit := th.Run()
//	fmt.Println(exit.Render(nil))
//
// # Native Functions
//
// CALLN instructions are answered by the native bridge. The bridge tries
// internal functions first, then the module named by the call site trace,
// then any module that pinned the call site hash:
//
//	registry := native.NewHostRegistry()
//	registry.RegisterFunc("math", "add", 0x2a, func(a, b int64) int64 {
//	    return a + b
//	})
//
//	modules := native.NewModuleManager()
//	if err := registry.Bind(modules, trace); err != nil {
//	    log.Fatal(err)
//	}
//	machine := vm.New(prog, vm.WithModules(modules), vm.WithTrace(trace))
//
// # Thread Safety
//
// A VM is immutable after New and may spawn threads from several goroutines.
// A Thread is NOT thread-safe and should be driven by a single goroutine.
//
// # Memory Model
//
// Heap entries are keyed by the stack cell of the instruction that allocated
// them and are never reclaimed while a thread runs. A thread's memory is
// released with the thread.
package ellie
