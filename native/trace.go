package native

import (
	"sort"

	"github.com/wippyai/ellie-vm/program"
)

// TraceEntry names the function behind a call site hash.
type TraceEntry struct {
	Name   string
	Module string
	Hash   uint64
}

// Trace maps call site hashes to the functions they invoke.
type Trace map[uint64]TraceEntry

// Add records e under its hash.
func (t Trace) Add(e TraceEntry) {
	t[e.Hash] = e
}

// Lookup returns the entry for hash.
func (t Trace) Lookup(hash uint64) (TraceEntry, bool) {
	e, ok := t[hash]
	return e, ok
}

// Entries returns all entries ordered by hash.
func (t Trace) Entries() []TraceEntry {
	out := make([]TraceEntry, 0, len(t))
	for _, e := range t {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Hash < out[j].Hash })
	return out
}

// TraceFromDebugInfo builds a trace from the headers of a debug sidecar.
// Headers with a zero hash are skipped.
func TraceFromDebugInfo(info *program.DebugInfo) Trace {
	t := make(Trace)
	if info == nil {
		return t
	}
	for _, h := range info.Headers {
		if h.Hash == 0 {
			continue
		}
		t.Add(TraceEntry{Name: h.Name, Module: h.Module, Hash: h.Hash})
	}
	return t
}
