package vm

import (
	"errors"
	"strings"
	"testing"

	"github.com/wippyai/ellie-vm/raw"
)

func TestRegisters(t *testing.T) {
	rs := VoidRegisters()
	for i, letter := range []byte("ABCXY") {
		r, ok := RegisterFromLetter(letter)
		if !ok || r != Register(i) || r.String() != string(letter) {
			t.Errorf("RegisterFromLetter(%c) = %v, %v", letter, r, ok)
		}
		if !rs.Get(r).Type.IsVoid() {
			t.Errorf("%s not void", r)
		}
		rs.Set(r, raw.Int(int64(i)))
	}
	if rs.A.AsInt() != 0 || rs.B.AsInt() != 1 || rs.C.AsInt() != 2 || rs.X.AsInt() != 3 || rs.Y.AsInt() != 4 {
		t.Errorf("registers = %+v", rs)
	}
	if _, ok := RegisterFromLetter('Z'); ok {
		t.Error("Z is not a register")
	}
}

func TestFrame_Positions(t *testing.T) {
	caller := uint64(3)
	f := Frame{ID: 9, Pos: 4, FramePos: 10, StackLen: 6, Caller: &caller}
	if f.GetPos() != 14 {
		t.Errorf("GetPos() = %d, want 14", f.GetPos())
	}
	if f.Abs(2) != 12 {
		t.Errorf("Abs(2) = %d, want 12", f.Abs(2))
	}
	if s := f.String(); !strings.Contains(s, "frame 9") || !strings.Contains(s, "caller=3") {
		t.Errorf("String() = %q", s)
	}
}

func TestPanicReason_String(t *testing.T) {
	tests := []struct {
		reason PanicReason
		want   string
	}{
		{reason(IntegerOverflow), "IntegerOverflow"},
		{typePair(UnmergebleTypes, raw.TypeOf(raw.IDInt), raw.TypeOf(raw.IDBool)), "UnmergebleTypes(int, bool)"},
		{cannotConvert(raw.TypeOf(raw.IDString), raw.IDInt), "CannotConvertToType(string, int)"},
		{indexOutOfBounds(3, 2), "IndexOutOfBounds(3, 2)"},
		{wrongEntryLength(9, 3), "WrongEntryLength(9, 3)"},
		{nullReference(12), "NullReference(12)"},
		{memoryAccessViolation(4, 16), "MemoryAccessViolation(4, 16)"},
		{PanicReason{Kind: MissingModule, Name: "add", Hash: 7}, "MissingModule(add, 7)"},
		{PanicReason{Kind: RuntimeError, Message: "boom"}, `RuntimeError("boom")`},
		{PanicReason{Kind: PanicKind(200)}, "PanicKind(200)"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.reason.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExecuterPanic(t *testing.T) {
	err := raise(reason(ByteOverflow))
	var ep *ExecuterPanic
	if !errors.As(err, &ep) {
		t.Fatalf("raise returned %T", err)
	}
	if !strings.HasPrefix(ep.CodeLocation, "vm/frame_test.go:") {
		t.Errorf("CodeLocation = %q", ep.CodeLocation)
	}
	if !errors.Is(err, &ExecuterPanic{Reason: reason(ByteOverflow)}) {
		t.Error("Is should match on kind")
	}
	if errors.Is(err, &ExecuterPanic{Reason: reason(IntegerOverflow)}) {
		t.Error("Is should not match another kind")
	}
}
