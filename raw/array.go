package raw

import (
	"errors"
	"fmt"
)

// ErrArrayCorrupt is returned when an array payload does not match its entry size.
var ErrArrayCorrupt = errors.New("raw: array size corruption")

// EntryLengthError reports a value whose encoded length differs from the
// array's fixed entry size.
type EntryLengthError struct {
	Expected int
	Got      int
}

func (e *EntryLengthError) Error() string {
	return fmt.Sprintf("raw: entry length %d, array expects %d", e.Got, e.Expected)
}

// IndexError reports an index past the end of an array.
type IndexError struct {
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("raw: index %d out of bounds (length %d)", e.Index, e.Len)
}

// NewArray allocates an empty heap array. Its entry size is fixed by the
// first Append.
func NewArray(arch Arch) Dynamic {
	data := make([]byte, arch.PtrWidth())
	return Dynamic{Type: TypeID{ID: IDArray, Size: len(data)}, Data: data}
}

// ArrayOf builds a heap array holding the given stack values.
func ArrayOf(arch Arch, entries ...Static) Dynamic {
	d := NewArray(arch)
	for _, e := range entries {
		// cannot fail: every entry has StaticSize bytes
		_ = d.Append(arch, e.Bytes())
	}
	return d
}

func (d Dynamic) header(arch Arch) (entrySize int, payload []byte, err error) {
	if !d.Type.IsArray() {
		return 0, nil, fmt.Errorf("raw: %s value read as array", d.Type)
	}
	w := arch.PtrWidth()
	if len(d.Data) < w {
		return 0, nil, ErrArrayCorrupt
	}
	entrySize = int(arch.Uint(d.Data))
	payload = d.Data[w:]
	if entrySize == 0 {
		if len(payload) != 0 {
			return 0, nil, ErrArrayCorrupt
		}
		return 0, payload, nil
	}
	if len(payload)%entrySize != 0 {
		return 0, nil, ErrArrayCorrupt
	}
	return entrySize, payload, nil
}

// EntrySize returns the fixed entry width, or 0 for an array that has never
// been written.
func (d Dynamic) EntrySize(arch Arch) (int, error) {
	size, _, err := d.header(arch)
	return size, err
}

// ArrayLen returns the number of entries.
func (d Dynamic) ArrayLen(arch Arch) (int, error) {
	size, payload, err := d.header(arch)
	if err != nil || size == 0 {
		return 0, err
	}
	return len(payload) / size, nil
}

// Entry returns a copy of entry i.
func (d Dynamic) Entry(arch Arch, i int) ([]byte, error) {
	size, payload, err := d.header(arch)
	if err != nil {
		return nil, err
	}
	n := 0
	if size > 0 {
		n = len(payload) / size
	}
	if i < 0 || i >= n {
		return nil, &IndexError{Index: i, Len: n}
	}
	out := make([]byte, size)
	copy(out, payload[i*size:])
	return out, nil
}

// EntryStatic decodes entry i as a stack value.
func (d Dynamic) EntryStatic(arch Arch, i int) (Static, error) {
	b, err := d.Entry(arch, i)
	if err != nil {
		return Static{}, err
	}
	return StaticFromBytes(b)
}

// SetEntry overwrites entry i in place. The entry width never changes; an
// array without entries has no index to write.
func (d *Dynamic) SetEntry(arch Arch, i int, value []byte) error {
	size, payload, err := d.header(arch)
	if err != nil {
		return err
	}
	if size == 0 {
		return &IndexError{Index: i, Len: 0}
	}
	if size != len(value) {
		return &EntryLengthError{Expected: size, Got: len(value)}
	}
	n := len(payload) / size
	if i < 0 || i >= n {
		return &IndexError{Index: i, Len: n}
	}
	copy(payload[i*size:], value)
	return nil
}

// Append adds an entry. The first append fixes the entry width.
func (d *Dynamic) Append(arch Arch, value []byte) error {
	size, _, err := d.header(arch)
	if err != nil {
		return err
	}
	if size == 0 {
		if len(value) == 0 {
			return &EntryLengthError{Expected: StaticSize, Got: 0}
		}
		arch.PutUint(d.Data, uint64(len(value)))
		size = len(value)
	}
	if size != len(value) {
		return &EntryLengthError{Expected: size, Got: len(value)}
	}
	d.Data = append(d.Data, value...)
	d.Type.Size = len(d.Data)
	return nil
}

// Pop removes and returns the last entry.
func (d *Dynamic) Pop(arch Arch) ([]byte, error) {
	size, payload, err := d.header(arch)
	if err != nil {
		return nil, err
	}
	if size == 0 || len(payload) == 0 {
		return nil, &IndexError{Index: 0, Len: 0}
	}
	cut := len(d.Data) - size
	out := make([]byte, size)
	copy(out, d.Data[cut:])
	d.Data = d.Data[:cut]
	d.Type.Size = len(d.Data)
	return out, nil
}

// Concat joins two arrays with the same entry width into a new array.
func Concat(arch Arch, a, b Dynamic) (Dynamic, error) {
	sa, pa, err := a.header(arch)
	if err != nil {
		return Dynamic{}, err
	}
	sb, pb, err := b.header(arch)
	if err != nil {
		return Dynamic{}, err
	}
	switch {
	case sa == 0:
		return b.Clone(), nil
	case sb == 0:
		return a.Clone(), nil
	case sa != sb:
		return Dynamic{}, &EntryLengthError{Expected: sa, Got: sb}
	}
	out := NewArray(arch)
	arch.PutUint(out.Data, uint64(sa))
	out.Data = append(out.Data, pa...)
	out.Data = append(out.Data, pb...)
	out.Type.Size = len(out.Data)
	return out, nil
}
