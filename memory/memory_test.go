package memory

import (
	"errors"
	"testing"

	"github.com/wippyai/ellie-vm/raw"
)

func TestStackMemory_SetGet(t *testing.T) {
	s := NewStackMemory(16)

	if _, ok := s.Get(3); ok {
		t.Fatal("unwritten cell should be absent")
	}
	if err := s.Set(3, raw.Int(7)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, ok := s.Get(3)
	if !ok || !v.Equal(raw.Int(7)) {
		t.Fatalf("Get(3) = %v, %v", v, ok)
	}
	if _, ok := s.Get(2); ok {
		t.Error("cell below a written cell should stay absent")
	}
	if s.Len() < 4 {
		t.Errorf("Len() = %d, want >= 4", s.Len())
	}

	if err := s.Set(3, raw.Void()); err != nil {
		t.Fatal(err)
	}
	v, ok = s.Get(3)
	if !ok || !v.Type.IsVoid() {
		t.Errorf("void cell should be present, got %v %v", v, ok)
	}

	s.Delete(3)
	if _, ok := s.Get(3); ok {
		t.Error("deleted cell should be absent")
	}
}

func TestStackMemory_Limit(t *testing.T) {
	s := NewStackMemory(4)
	err := s.Set(4, raw.Int(1))
	var le *LimitError
	if !errors.As(err, &le) {
		t.Fatalf("expected LimitError, got %v", err)
	}
	if le.Index != 4 || le.Limit != 4 {
		t.Errorf("LimitError = %+v", le)
	}
	if err := s.Set(-1, raw.Int(1)); err == nil {
		t.Error("negative index should fail")
	}
	if err := s.Set(3, raw.Int(1)); err != nil {
		t.Errorf("last cell should be writable: %v", err)
	}
}

func TestStackMemory_GetMut(t *testing.T) {
	s := NewStackMemory(8)
	_ = s.Set(0, raw.Int(1))
	p, ok := s.GetMut(0)
	if !ok {
		t.Fatal("GetMut missed present cell")
	}
	*p = raw.Int(9)
	if v, _ := s.Get(0); v.AsInt() != 9 {
		t.Errorf("update not visible: %v", v)
	}
}

func TestStackMemory_Each(t *testing.T) {
	s := NewStackMemory(32)
	_ = s.Set(1, raw.Int(1))
	_ = s.Set(5, raw.Int(5))
	_ = s.Set(9, raw.Int(9))

	var seen []int
	s.Each(func(i int, v raw.Static) bool {
		seen = append(seen, i)
		return i < 5
	})
	if len(seen) != 2 || seen[0] != 1 || seen[1] != 5 {
		t.Errorf("Each visited %v", seen)
	}
}

func TestHeapMemory(t *testing.T) {
	h := NewHeapMemory()
	h.Set(10, raw.String("ab"))
	h.Set(2, raw.FromStatic(raw.Int(4)))

	d, ok := h.Get(10)
	if !ok || d.AsString() != "ab" {
		t.Fatalf("Get(10) = %v, %v", d, ok)
	}

	p, _ := h.GetMut(10)
	p.AppendChar('c')
	if d, _ := h.Get(10); d.AsString() != "abc" {
		t.Errorf("after AppendChar = %q", d.AsString())
	}

	keys := h.Keys()
	if len(keys) != 2 || keys[0] != 2 || keys[1] != 10 {
		t.Errorf("Keys() = %v", keys)
	}

	h.Delete(2)
	if _, ok := h.Get(2); ok || h.Len() != 1 {
		t.Error("Delete did not remove value")
	}
}

func TestIsolate_Resolve(t *testing.T) {
	iso := NewIsolate(64)
	iso.Heap.Set(20, raw.String("hi"))
	_ = iso.Stack.Set(5, raw.HeapRef(20))
	_ = iso.Stack.Set(6, raw.StackRef(5))
	_ = iso.Stack.Set(7, raw.Int(3))

	tests := []struct {
		name     string
		kind     RefKind
		loc      int
		wantKind RefKind
		wantLoc  int
		static   bool
	}{
		{"plain stack value", RefStack, 7, RefStack, 7, true},
		{"stack to heap", RefStack, 5, RefHeap, 20, false},
		{"stack to stack to heap", RefStack, 6, RefHeap, 20, false},
		{"heap direct", RefHeap, 20, RefHeap, 20, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := iso.Resolve(tt.kind, tt.loc, 0)
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if r.Kind != tt.wantKind || r.Location != tt.wantLoc || r.IsStatic != tt.static {
				t.Errorf("Resolve = %+v", r)
			}
		})
	}

	r, _ := iso.Resolve(RefStack, 6, 0)
	if r.Heap.AsString() != "hi" {
		t.Errorf("resolved string = %q", r.Heap.AsString())
	}
}

func TestIsolate_ResolveHeapStatic(t *testing.T) {
	iso := NewIsolate(64)
	iso.Heap.Set(4, raw.FromStatic(raw.Int(11)))
	iso.Heap.Set(3, raw.FromStatic(raw.HeapRef(4)))

	r, err := iso.Resolve(RefHeap, 3, 0)
	if err != nil {
		t.Fatal(err)
	}
	if r.Location != 4 || !r.IsStatic || r.Static.AsInt() != 11 {
		t.Errorf("Resolve = %+v", r)
	}
}

func TestIsolate_ResolveErrors(t *testing.T) {
	iso := NewIsolate(64)
	_ = iso.Stack.Set(0, raw.StackRef(1))
	_ = iso.Stack.Set(1, raw.StackRef(0))
	_ = iso.Stack.Set(2, raw.HeapRef(99))

	_, err := iso.Resolve(RefStack, 0, 8)
	var re *ReferenceError
	if !errors.As(err, &re) {
		t.Fatalf("cycle: expected ReferenceError, got %v", err)
	}
	if re.Depth != 8 {
		t.Errorf("Depth = %d", re.Depth)
	}

	_, err = iso.Resolve(RefStack, 2, 0)
	var ne *NullError
	if !errors.As(err, &ne) {
		t.Fatalf("dangling: expected NullError, got %v", err)
	}
	if ne.Kind != RefHeap || ne.Location != 99 {
		t.Errorf("NullError = %+v", ne)
	}

	_, err = iso.Resolve(RefStack, 40, 0)
	if !errors.As(err, &ne) || ne.Kind != RefStack {
		t.Errorf("absent stack cell: %v", err)
	}
}

func TestIsolate_ResolveValue(t *testing.T) {
	iso := NewIsolate(8)
	r, err := iso.ResolveValue(raw.Bool(true), 0)
	if err != nil || !r.IsStatic || !r.Static.AsBool() {
		t.Errorf("non-reference should pass through: %+v %v", r, err)
	}
	_ = iso.Stack.Set(1, raw.Char('x'))
	r, err = iso.ResolveValue(raw.StackRef(1), 0)
	if err != nil || r.Static.AsChar() != 'x' {
		t.Errorf("ResolveValue = %+v %v", r, err)
	}
}
