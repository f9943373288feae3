package raw

import "strconv"

// Arch is the target pointer width a program was assembled for.
type Arch uint8

const (
	Arch16 Arch = 16
	Arch32 Arch = 32
	Arch64 Arch = 64
)

// ArchFromByte maps the architecture byte of a binary module to an Arch.
func ArchFromByte(b byte) (Arch, bool) {
	switch Arch(b) {
	case Arch16, Arch32, Arch64:
		return Arch(b), true
	}
	return 0, false
}

// PtrWidth returns the number of bytes used for pointer-width fields.
func (a Arch) PtrWidth() int {
	switch a {
	case Arch16:
		return 2
	case Arch32:
		return 4
	default:
		return 8
	}
}

// MaxUint is the largest value representable in a pointer-width field.
func (a Arch) MaxUint() uint64 {
	if a == Arch64 || a == 0 {
		return ^uint64(0)
	}
	return 1<<(uint(a.PtrWidth())*8) - 1
}

// PutUint writes v into b using the architecture's pointer width (little-endian).
// b must be at least PtrWidth bytes long.
func (a Arch) PutUint(b []byte, v uint64) {
	for i := 0; i < a.PtrWidth(); i++ {
		b[i] = byte(v >> (8 * i))
	}
}

// Uint reads a pointer-width little-endian value from b.
func (a Arch) Uint(b []byte) uint64 {
	var v uint64
	for i := 0; i < a.PtrWidth(); i++ {
		v |= uint64(b[i]) << (8 * i)
	}
	return v
}

func (a Arch) String() string {
	return strconv.Itoa(int(a))
}
