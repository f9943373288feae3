package binary

import (
	"bytes"
)

// Writer provides buffered writing utilities for program encoding.
type Writer struct {
	buf *bytes.Buffer
}

// NewWriter creates a new Writer.
func NewWriter() *Writer {
	return &Writer{buf: &bytes.Buffer{}}
}

// Bytes returns the written bytes.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// Len returns the number of bytes written.
func (w *Writer) Len() int {
	return w.buf.Len()
}

// Byte writes a single byte.
func (w *Writer) Byte(b byte) {
	w.buf.WriteByte(b)
}

// WriteBytes writes a byte slice.
func (w *Writer) WriteBytes(data []byte) {
	w.buf.Write(data)
}

// WriteUint writes v as a little-endian integer of width bytes, truncating
// higher bytes.
func (w *Writer) WriteUint(v uint64, width int) {
	for i := 0; i < width; i++ {
		w.buf.WriteByte(byte(v >> (8 * i)))
	}
}
