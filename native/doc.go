// Package native connects CALLN call sites to functions provided by the host.
//
// A call site is identified by a hash. The Trace maps that hash to a function
// name; the name then selects either a built-in internal function or the
// host module that registered it, and the hash selects the emitter inside that
// module.
//
// Host functions can be written against the raw calling convention (Func) or
// as plain Go functions registered through a HostRegistry, which adapts
// parameters and results by reflection:
//
//	reg := native.NewHostRegistry()
//	reg.RegisterFunc("math", "add", 77, func(a, b int64) int64 { return a + b })
//	mods, err := reg.Modules(trace)
package native
