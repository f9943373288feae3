package native

import (
	"reflect"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/wippyai/ellie-vm/errors"
)

// Host is the interface for struct-based host modules.
// All exported methods (except Namespace and Hashes) are registered as native
// functions under their snake_case name.
type Host interface {
	// Namespace returns the Ellie module name the functions belong to.
	Namespace() string
}

// HashedHost pins call site hashes for its functions. Functions without a
// pinned hash are looked up in the trace when modules are built.
type HashedHost interface {
	Host
	Hashes() map[string]uint64
}

// ExplicitRegistrar allows hosts to provide exact function names when the
// automatic PascalCase-to-snake_case conversion doesn't apply.
type ExplicitRegistrar interface {
	Register() map[string]any
}

type HostRegistry struct {
	funcs map[string]map[string]*HostFunc
	mu    sync.RWMutex
}

type HostFunc struct {
	Handler any
	Hash    uint64
}

func NewHostRegistry() *HostRegistry {
	return &HostRegistry{
		funcs: make(map[string]map[string]*HostFunc),
	}
}

func (r *HostRegistry) RegisterHost(h Host) error {
	ns := h.Namespace()
	if ns == "" {
		return errors.InvalidInput(errors.PhaseNative, "namespace cannot be empty")
	}

	hashes := map[string]uint64{}
	if hh, ok := h.(HashedHost); ok {
		hashes = hh.Hashes()
	}

	handlers := map[string]any{}
	if er, ok := h.(ExplicitRegistrar); ok {
		handlers = er.Register()
	} else {
		rv := reflect.ValueOf(h)
		rt := rv.Type()
		for i := 0; i < rt.NumMethod(); i++ {
			method := rt.Method(i)
			if !method.IsExported() || method.Name == "Namespace" || method.Name == "Hashes" {
				continue
			}
			handlers[toSnakeCase(method.Name)] = rv.Method(i).Interface()
		}
	}

	for name, handler := range handlers {
		if _, err := Adapt(handler); err != nil {
			return errors.Registration(ns, name, err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.funcs[ns] == nil {
		r.funcs[ns] = make(map[string]*HostFunc)
	}
	for name, handler := range handlers {
		r.funcs[ns][name] = &HostFunc{Handler: handler, Hash: hashes[name]}
	}
	return nil
}

// RegisterFunc registers a single function. A zero hash defers to the trace.
func (r *HostRegistry) RegisterFunc(module, name string, hash uint64, fn any) error {
	if module == "" {
		return errors.InvalidInput(errors.PhaseNative, "namespace cannot be empty")
	}
	if name == "" {
		return errors.InvalidInput(errors.PhaseNative, "function name cannot be empty")
	}
	if _, err := Adapt(fn); err != nil {
		return errors.Registration(module, name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.funcs[module] == nil {
		r.funcs[module] = make(map[string]*HostFunc)
	}
	r.funcs[module][name] = &HostFunc{Handler: fn, Hash: hash}
	return nil
}

// Modules builds one Module per namespace. Hashes not pinned at registration
// are taken from trace entries with a matching module and name, or a matching
// name when the entry has no module.
func (r *HostRegistry) Modules(trace Trace) ([]*Module, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.funcs))
	for ns := range r.funcs {
		names = append(names, ns)
	}
	sort.Strings(names)

	byName := make(map[string][]TraceEntry)
	for _, e := range trace.Entries() {
		byName[e.Name] = append(byName[e.Name], e)
	}

	mods := make([]*Module, 0, len(names))
	for _, ns := range names {
		m := NewModule(ns, 0)
		for name, hf := range r.funcs[ns] {
			hash := hf.Hash
			if hash == 0 {
				for _, e := range byName[name] {
					if e.Module == ns || e.Module == "" {
						hash = e.Hash
						break
					}
				}
			}
			if hash == 0 {
				return nil, errors.New(errors.PhaseNative, errors.KindNotFound).
					Path(ns, name).
					Detail("no call site hash for function").
					Build()
			}
			fn, err := Adapt(hf.Handler)
			if err != nil {
				return nil, errors.Registration(ns, name, err)
			}
			m.Register(name, hash, fn)
		}
		mods = append(mods, m)
	}
	return mods, nil
}

// Bind registers every module built from r with mm.
func (r *HostRegistry) Bind(mm *ModuleManager, trace Trace) error {
	mods, err := r.Modules(trace)
	if err != nil {
		return err
	}
	for _, m := range mods {
		if err := mm.Register(m); err != nil {
			return err
		}
	}
	return nil
}

// toSnakeCase converts PascalCase to snake_case.
// Handles acronyms: ParseHTTPURL -> parse_http_url
func toSnakeCase(s string) string {
	if len(s) == 0 {
		return ""
	}

	runes := []rune(s)
	var result strings.Builder

	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if unicode.IsUpper(r) {
			acronymEnd := i + 1
			for acronymEnd < len(runes) && unicode.IsUpper(runes[acronymEnd]) {
				acronymEnd++
			}

			if acronymEnd > i+1 {
				// Last uppercase before lowercase starts next word, not part of acronym
				if acronymEnd < len(runes) && unicode.IsLower(runes[acronymEnd]) {
					acronymEnd--
				}
			}

			if i > 0 {
				result.WriteByte('_')
			}

			for j := i; j < acronymEnd; j++ {
				result.WriteRune(unicode.ToLower(runes[j]))
			}
			i = acronymEnd - 1
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}
