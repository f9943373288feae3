package vm

import (
	"fmt"
	"strings"

	"github.com/fxamacker/cbor/v2"

	"github.com/wippyai/ellie-vm/errors"
	"github.com/wippyai/ellie-vm/program"
)

var exitEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("vm: failed to create CBOR enc mode: %v", err))
	}
	exitEncMode = em
}

// MarshalExit encodes a thread exit as canonical CBOR.
func MarshalExit(e *ThreadExit) ([]byte, error) {
	return exitEncMode.Marshal(e)
}

// UnmarshalExit decodes a thread exit written by MarshalExit.
func UnmarshalExit(data []byte) (*ThreadExit, error) {
	var e ThreadExit
	if err := cbor.Unmarshal(data, &e); err != nil {
		return nil, errors.ParseFailed(errors.PhaseRuntime, "thread exit snapshot", err)
	}
	return &e, nil
}

// Render formats the exit for humans. With debug info, stack trace frames
// are named after the function whose body contains their pos.
func (e *ThreadExit) Render(info *program.DebugInfo) string {
	var b strings.Builder
	if e.Panic == nil {
		b.WriteString("thread exited gracefully")
		if e.LastFrame != nil {
			fmt.Fprintf(&b, "\n  A: %s\n  Y: %s", e.LastFrame.Registers.A, e.LastFrame.Registers.Y)
		}
		return b.String()
	}

	p := e.Panic
	fmt.Fprintf(&b, "thread panicked: %s\n  raised at %s", p.Reason, p.CodeLocation)
	for i := len(p.StackTrace) - 1; i >= 0; i-- {
		f := p.StackTrace[i]
		b.WriteString("\n    at ")
		b.WriteString(FrameName(f, info))
	}
	return b.String()
}

// FrameName labels f with the debug header covering its pos, falling back to
// the frame hash.
func FrameName(f Frame, info *program.DebugInfo) string {
	if info != nil {
		if h, ok := info.HeaderAt(f.Pos); ok {
			return fmt.Sprintf("%s:%s (%d:%d) pos %d", h.Module, h.Name, h.RangeStart.Line, h.RangeStart.Column, f.Pos)
		}
		if h, ok := info.HeaderByHash(f.ID); ok {
			return fmt.Sprintf("%s:%s (%d:%d) pos %d", h.Module, h.Name, h.RangeStart.Line, h.RangeStart.Column, f.Pos)
		}
	}
	return fmt.Sprintf("<%d> pos %d", f.ID, f.Pos)
}
