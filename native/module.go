package native

import (
	"sort"
	"sync"

	"go.uber.org/multierr"

	"github.com/wippyai/ellie-vm/errors"
)

// Function is one native function exported by a module.
type Function struct {
	Call Func
	Name string
	Hash uint64
}

// Module groups native functions under a module name.
type Module struct {
	byHash  map[uint64]*Function
	byName  map[string]*Function
	closers []func() error
	Name    string
	Hash    uint64
}

// NewModule creates an empty module.
func NewModule(name string, hash uint64) *Module {
	return &Module{
		Name:   name,
		Hash:   hash,
		byHash: make(map[uint64]*Function),
		byName: make(map[string]*Function),
	}
}

// Register adds a function. A later registration with the same hash or name
// replaces the earlier one.
func (m *Module) Register(name string, hash uint64, fn Func) {
	if old, ok := m.byName[name]; ok {
		delete(m.byHash, old.Hash)
	}
	f := &Function{Name: name, Hash: hash, Call: fn}
	m.byHash[hash] = f
	m.byName[name] = f
}

// Emitter returns the function registered under hash.
func (m *Module) Emitter(hash uint64) (*Function, bool) {
	f, ok := m.byHash[hash]
	return f, ok
}

// Function returns the function registered under name.
func (m *Module) Function(name string) (*Function, bool) {
	f, ok := m.byName[name]
	return f, ok
}

// Functions returns the registered functions ordered by name.
func (m *Module) Functions() []*Function {
	out := make([]*Function, 0, len(m.byName))
	for _, f := range m.byName {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// OnClose registers a release hook run by ModuleManager.Close.
func (m *Module) OnClose(fn func() error) {
	m.closers = append(m.closers, fn)
}

// ModuleManager is the host-supplied table of native modules.
type ModuleManager struct {
	modules map[string]*Module
	order   []string
	mu      sync.RWMutex
}

// NewModuleManager creates an empty manager.
func NewModuleManager() *ModuleManager {
	return &ModuleManager{modules: make(map[string]*Module)}
}

// Register adds a module. Module names must be unique.
func (mm *ModuleManager) Register(m *Module) error {
	if m == nil || m.Name == "" {
		return errors.InvalidInput(errors.PhaseNative, "module name cannot be empty")
	}
	mm.mu.Lock()
	defer mm.mu.Unlock()
	if _, dup := mm.modules[m.Name]; dup {
		return errors.New(errors.PhaseNative, errors.KindRegistration).
			Path(m.Name).
			Detail("module already registered").
			Build()
	}
	mm.modules[m.Name] = m
	mm.order = append(mm.order, m.Name)
	return nil
}

// Module returns the module registered under name.
func (mm *ModuleManager) Module(name string) (*Module, bool) {
	mm.mu.RLock()
	defer mm.mu.RUnlock()
	m, ok := mm.modules[name]
	return m, ok
}

// ModuleOf returns the first registered module exporting a function named fn.
func (mm *ModuleManager) ModuleOf(fn string) (*Module, bool) {
	mm.mu.RLock()
	defer mm.mu.RUnlock()
	for _, name := range mm.order {
		m := mm.modules[name]
		if _, ok := m.byName[fn]; ok {
			return m, true
		}
	}
	return nil, false
}

// ModuleByFunctionHash returns the first module with an emitter for hash.
func (mm *ModuleManager) ModuleByFunctionHash(hash uint64) (*Module, bool) {
	mm.mu.RLock()
	defer mm.mu.RUnlock()
	for _, name := range mm.order {
		m := mm.modules[name]
		if _, ok := m.byHash[hash]; ok {
			return m, true
		}
	}
	return nil, false
}

// Modules returns the registered modules in registration order.
func (mm *ModuleManager) Modules() []*Module {
	mm.mu.RLock()
	defer mm.mu.RUnlock()
	out := make([]*Module, 0, len(mm.order))
	for _, name := range mm.order {
		out = append(out, mm.modules[name])
	}
	return out
}

// Close runs every module's release hooks and reports all failures.
func (mm *ModuleManager) Close() error {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	var err error
	for i := len(mm.order) - 1; i >= 0; i-- {
		m := mm.modules[mm.order[i]]
		for _, c := range m.closers {
			err = multierr.Append(err, c())
		}
		m.closers = nil
	}
	return err
}
