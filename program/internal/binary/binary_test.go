package binary

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestReaderReadByte(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03}
	r := NewReader(bytes.NewReader(data))

	for i, want := range data {
		if r.Position() != i {
			t.Errorf("position before read %d: got %d, want %d", i, r.Position(), i)
		}
		b, err := r.ReadByte()
		if err != nil {
			t.Fatalf("ReadByte %d: %v", i, err)
		}
		if b != want {
			t.Errorf("ReadByte %d: got 0x%02x, want 0x%02x", i, b, want)
		}
	}

	if r.Position() != 3 {
		t.Errorf("final position: got %d, want 3", r.Position())
	}

	_, err := r.ReadByte()
	if !errors.Is(err, io.EOF) {
		t.Errorf("expected EOF, got %v", err)
	}
}

func TestReaderReadBytes(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04, 0x05}
	r := NewReader(bytes.NewReader(data))

	got, err := r.ReadBytes(3)
	if err != nil {
		t.Fatalf("ReadBytes: %v", err)
	}
	if !bytes.Equal(got, []byte{0x01, 0x02, 0x03}) {
		t.Errorf("ReadBytes: got %v, want [1 2 3]", got)
	}
	if r.Position() != 3 {
		t.Errorf("position: got %d, want 3", r.Position())
	}

	_, err = r.ReadBytes(10)
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("expected ErrUnexpectedEOF, got %v", err)
	}
}

func TestReaderReadUint(t *testing.T) {
	tests := []struct {
		encoded []byte
		width   int
		want    uint64
	}{
		{[]byte{0x2a}, 1, 42},
		{[]byte{0x34, 0x12}, 2, 0x1234},
		{[]byte{0x78, 0x56, 0x34, 0x12}, 4, 0x12345678},
		{[]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}, 8, ^uint64(0)},
	}

	for _, tt := range tests {
		r := NewReader(bytes.NewReader(tt.encoded))
		got, err := r.ReadUint(tt.width)
		if err != nil {
			t.Errorf("ReadUint(%v): %v", tt.encoded, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ReadUint(%v) = %#x, want %#x", tt.encoded, got, tt.want)
		}
	}

	r := NewReader(bytes.NewReader([]byte{1}))
	if _, err := r.ReadUint(9); err == nil {
		t.Error("width 9 should be rejected")
	}
}

func TestWriterRoundTrip(t *testing.T) {
	for _, width := range []int{1, 2, 4, 8} {
		w := NewWriter()
		w.Byte(0xaa)
		w.WriteUint(0x0102030405060708, width)
		w.WriteBytes([]byte{9, 9})

		if w.Len() != 1+width+2 {
			t.Errorf("width %d: Len = %d", width, w.Len())
		}

		r := NewReader(bytes.NewReader(w.Bytes()))
		b, _ := r.ReadByte()
		if b != 0xaa {
			t.Errorf("width %d: lead byte = %#x", width, b)
		}
		v, err := r.ReadUint(width)
		if err != nil {
			t.Fatal(err)
		}
		mask := ^uint64(0)
		if width < 8 {
			mask = 1<<(8*uint(width)) - 1
		}
		if v != 0x0102030405060708&mask {
			t.Errorf("width %d: value = %#x", width, v)
		}
	}
}
