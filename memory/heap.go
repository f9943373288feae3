package memory

import (
	"sort"

	"github.com/wippyai/ellie-vm/raw"
)

// HeapMemory maps caller-chosen locations to heap values.
type HeapMemory struct {
	values map[int]*raw.Dynamic
}

// NewHeapMemory creates an empty heap.
func NewHeapMemory() *HeapMemory {
	return &HeapMemory{values: make(map[int]*raw.Dynamic)}
}

// Get returns the value at loc. The payload is shared with the heap; use
// Clone before keeping it.
func (h *HeapMemory) Get(loc int) (raw.Dynamic, bool) {
	v, ok := h.values[loc]
	if !ok {
		return raw.Dynamic{}, false
	}
	return *v, true
}

// GetMut returns the stored value for in-place updates.
func (h *HeapMemory) GetMut(loc int) (*raw.Dynamic, bool) {
	v, ok := h.values[loc]
	return v, ok
}

// Set stores v at loc, replacing any previous value.
func (h *HeapMemory) Set(loc int, v raw.Dynamic) {
	h.values[loc] = &v
}

// Delete removes the value at loc.
func (h *HeapMemory) Delete(loc int) {
	delete(h.values, loc)
}

// Len returns the number of live heap values.
func (h *HeapMemory) Len() int {
	return len(h.values)
}

// Keys returns the occupied locations in ascending order.
func (h *HeapMemory) Keys() []int {
	keys := make([]int, 0, len(h.values))
	for k := range h.values {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
