package vm

import (
	"github.com/wippyai/ellie-vm/memory"
	"github.com/wippyai/ellie-vm/raw"
)

// Static arrays live directly in stack memory: the reference cell holds the
// absolute index of a header cell, the next cell holds the int length and
// the entries follow.
//
//	[loc]   staticArray(loc)
//	[loc+1] int(n)
//	[loc+2] entry 0 ... [loc+1+n] entry n-1

type containerKind uint8

const (
	heapArray containerKind = iota
	staticArray
)

type container struct {
	kind     containerKind
	location int
	length   int
}

// index reads an array index from the cell at frame offset off.
func (ctx *Context) index(off int) (int, error) {
	abs := ctx.Frame.Abs(off)
	v, ok := ctx.get(abs)
	if !ok {
		return 0, raise(nullReference(abs))
	}
	if !v.Type.IsInt() {
		return 0, raise(typeOf(UnexpectedType, v.Type))
	}
	i := v.AsInt()
	if i < 0 {
		return 0, raise(PanicReason{Kind: CannotIndexWithNegative, Index: int(i)})
	}
	return int(i), nil
}

// container locates the array addressed by the cell at frame offset off.
// Property access also accepts class instances, which share the array layout.
func (ctx *Context) container(off int, property bool) (container, error) {
	abs := ctx.Frame.Abs(off)
	cell, ok := ctx.get(abs)
	if !ok {
		return container{}, raise(nullReference(abs))
	}
	limit := ctx.MaxReferenceDepth
	if limit <= 0 {
		limit = memory.DefaultReferenceDepth
	}
	for depth := 0; cell.Type.IsStackReference(); depth++ {
		if depth >= limit {
			return container{}, raise(PanicReason{Kind: ReferenceError, Location: abs, Depth: depth})
		}
		abs = cell.AsLocation()
		if cell, ok = ctx.get(abs); !ok {
			return container{}, raise(nullReference(abs))
		}
	}

	switch {
	case cell.Type.IsHeapReference(), property && cell.Type.IsClass():
		loc := cell.AsLocation()
		d, ok := ctx.Heap.Get(loc)
		if !ok {
			return container{}, raise(nullReference(loc))
		}
		if !d.Type.IsArray() {
			return container{}, raise(typeOf(UnexpectedType, d.Type))
		}
		n, err := d.ArrayLen(ctx.Arch)
		if err != nil {
			return container{}, arrayError(err)
		}
		return container{kind: heapArray, location: loc, length: n}, nil

	case cell.Type.IsStaticArray():
		loc := cell.AsLocation()
		size, ok := ctx.get(loc + 1)
		if !ok {
			return container{}, raise(nullReference(loc + 1))
		}
		if !size.Type.IsInt() || size.AsInt() < 0 {
			return container{}, raise(reason(ArraySizeCorruption))
		}
		return container{kind: staticArray, location: loc, length: int(size.AsInt())}, nil
	}
	return container{}, raise(typeOf(UnexpectedType, cell.Type))
}

func (ctx *Context) loadElement(c container, i int) (raw.Static, error) {
	if i >= c.length {
		return raw.Static{}, raise(indexOutOfBounds(i, c.length))
	}
	if c.kind == staticArray {
		entry := c.location + 2 + i
		v, ok := ctx.get(entry)
		if !ok {
			return raw.Static{}, raise(nullReference(entry))
		}
		return v, nil
	}
	d, _ := ctx.Heap.Get(c.location)
	v, err := d.EntryStatic(ctx.Arch, i)
	if err != nil {
		return raw.Static{}, arrayError(err)
	}
	return v, nil
}

func (ctx *Context) storeElement(c container, i int, v raw.Static) error {
	if c.kind == staticArray {
		if i >= c.length {
			return raise(indexOutOfBounds(i, c.length))
		}
		return ctx.set(c.location+2+i, v)
	}
	d, _ := ctx.Heap.GetMut(c.location)
	if err := d.SetEntry(ctx.Arch, i, v.Bytes()); err != nil {
		return arrayError(err)
	}
	return nil
}
