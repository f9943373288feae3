package memory

import (
	"fmt"

	"github.com/wippyai/ellie-vm/raw"
)

// DefaultStackSize is the cell limit used when none is configured.
const DefaultStackSize = 64 * 1024

// LimitError reports a write past the configured stack size.
type LimitError struct {
	Index int
	Limit int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("memory: stack index %d beyond limit %d", e.Index, e.Limit)
}

type cell struct {
	value raw.Static
	set   bool
}

// StackMemory holds stack cells. Cells that were never written are absent,
// which is distinct from a cell holding void.
type StackMemory struct {
	cells []cell
	limit int
}

// NewStackMemory creates stack memory that grows on demand up to limit cells.
func NewStackMemory(limit int) *StackMemory {
	if limit <= 0 {
		limit = DefaultStackSize
	}
	return &StackMemory{limit: limit}
}

// Get returns the value at absolute index i.
func (s *StackMemory) Get(i int) (raw.Static, bool) {
	if i < 0 || i >= len(s.cells) || !s.cells[i].set {
		return raw.Static{}, false
	}
	return s.cells[i].value, true
}

// GetMut returns a pointer to the value at i for in-place updates.
func (s *StackMemory) GetMut(i int) (*raw.Static, bool) {
	if i < 0 || i >= len(s.cells) || !s.cells[i].set {
		return nil, false
	}
	return &s.cells[i].value, true
}

// Set stores v at absolute index i.
func (s *StackMemory) Set(i int, v raw.Static) error {
	if i < 0 || i >= s.limit {
		return &LimitError{Index: i, Limit: s.limit}
	}
	if i >= len(s.cells) {
		grow := i + 1
		if c := 2 * len(s.cells); c > grow {
			grow = min(c, s.limit)
		}
		cells := make([]cell, grow)
		copy(cells, s.cells)
		s.cells = cells
	}
	s.cells[i] = cell{value: v, set: true}
	return nil
}

// Delete makes cell i absent again.
func (s *StackMemory) Delete(i int) {
	if i >= 0 && i < len(s.cells) {
		s.cells[i] = cell{}
	}
}

// Len returns one past the highest index ever allocated.
func (s *StackMemory) Len() int {
	return len(s.cells)
}

// Limit returns the configured cell limit.
func (s *StackMemory) Limit() int {
	return s.limit
}

// Each calls fn for every present cell in index order until fn returns false.
func (s *StackMemory) Each(fn func(i int, v raw.Static) bool) {
	for i, c := range s.cells {
		if c.set && !fn(i, c.value) {
			return
		}
	}
}
