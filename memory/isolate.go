package memory

import (
	"fmt"

	"github.com/wippyai/ellie-vm/raw"
)

// DefaultReferenceDepth bounds reference chains followed by Resolve.
const DefaultReferenceDepth = 1024

// Isolate is the heap and stack memory pair owned by one thread.
type Isolate struct {
	Heap  *HeapMemory
	Stack *StackMemory
}

// NewIsolate creates an Isolate with the given stack cell limit.
func NewIsolate(stackSize int) *Isolate {
	return &Isolate{
		Heap:  NewHeapMemory(),
		Stack: NewStackMemory(stackSize),
	}
}

// RefKind names the memory a reference points into.
type RefKind uint8

const (
	RefStack RefKind = iota
	RefHeap
)

func (k RefKind) String() string {
	if k == RefHeap {
		return "heap"
	}
	return "stack"
}

// KindOf returns the memory a reference value points into.
func KindOf(ref raw.Static) (RefKind, bool) {
	switch {
	case ref.Type.IsStackReference():
		return RefStack, true
	case ref.Type.IsHeapReference():
		return RefHeap, true
	}
	return 0, false
}

// Resolved is the terminal value of a reference chain and where it was found.
// Static is set for stack cells and for heap values that fit a stack cell;
// Heap is set whenever Kind is RefHeap.
type Resolved struct {
	Heap     raw.Dynamic
	Static   raw.Static
	Kind     RefKind
	Location int
	IsStatic bool
}

// NullError reports a reference to an absent cell or heap slot.
type NullError struct {
	Kind     RefKind
	Location int
}

func (e *NullError) Error() string {
	return fmt.Sprintf("memory: null %s reference %d", e.Kind, e.Location)
}

// ReferenceError reports a reference chain longer than the allowed depth.
type ReferenceError struct {
	Kind     RefKind
	Location int
	Depth    int
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("memory: reference chain through %s %d exceeds depth %d", e.Kind, e.Location, e.Depth)
}

// Resolve follows stack and heap references starting at (kind, loc) until it
// reaches a value that is not itself a reference. The walk is iterative and
// stops with a ReferenceError after maxDepth hops.
func (iso *Isolate) Resolve(kind RefKind, loc, maxDepth int) (Resolved, error) {
	if maxDepth <= 0 {
		maxDepth = DefaultReferenceDepth
	}
	for depth := 0; depth < maxDepth; depth++ {
		var next raw.Static
		switch kind {
		case RefStack:
			v, ok := iso.Stack.Get(loc)
			if !ok {
				return Resolved{}, &NullError{Kind: kind, Location: loc}
			}
			if !v.Type.IsReference() {
				return Resolved{Kind: kind, Location: loc, Static: v, IsStatic: true}, nil
			}
			next = v
		case RefHeap:
			d, ok := iso.Heap.Get(loc)
			if !ok {
				return Resolved{}, &NullError{Kind: kind, Location: loc}
			}
			s, narrow := d.ToStatic()
			if !narrow || !s.Type.IsReference() {
				return Resolved{Kind: kind, Location: loc, Heap: d, Static: s, IsStatic: narrow}, nil
			}
			next = s
		}
		kind, _ = KindOf(next)
		loc = next.AsLocation()
	}
	return Resolved{}, &ReferenceError{Kind: kind, Location: loc, Depth: maxDepth}
}

// ResolveValue resolves v if it is a reference and returns v unchanged otherwise.
func (iso *Isolate) ResolveValue(v raw.Static, maxDepth int) (Resolved, error) {
	kind, ok := KindOf(v)
	if !ok {
		return Resolved{Static: v, IsStatic: true, Location: -1}, nil
	}
	return iso.Resolve(kind, v.AsLocation(), maxDepth)
}
