package native

import (
	"fmt"

	"github.com/wippyai/ellie-vm/raw"
)

// Param is one argument passed to a native function. Stack values arrive as
// Static; strings and arrays resolved from the heap arrive as Dynamic.
type Param struct {
	Dynamic   raw.Dynamic
	Static    raw.Static
	IsDynamic bool
}

// StaticParam wraps a stack value.
func StaticParam(v raw.Static) Param { return Param{Static: v} }

// DynamicParam wraps a heap value.
func DynamicParam(v raw.Dynamic) Param { return Param{Dynamic: v, IsDynamic: true} }

// Type returns the tag of the wrapped value.
func (p Param) Type() raw.TypeID {
	if p.IsDynamic {
		return p.Dynamic.Type
	}
	return p.Static.Type
}

func (p Param) String() string {
	if p.IsDynamic {
		return p.Dynamic.String()
	}
	return p.Static.String()
}

// AnswerKind discriminates Answer.
type AnswerKind uint8

const (
	AnswerStatic AnswerKind = iota
	AnswerDynamic
	AnswerError
)

// Answer is the result of a native function.
type Answer struct {
	Dynamic raw.Dynamic
	Message string
	Static  raw.Static
	Kind    AnswerKind
}

// OkStatic answers with a value that is written straight into register Y.
func OkStatic(v raw.Static) Answer { return Answer{Kind: AnswerStatic, Static: v} }

// OkDynamic answers with a heap value. The caller stores it at the call's
// return heap position and leaves a heap reference in Y.
func OkDynamic(v raw.Dynamic) Answer { return Answer{Kind: AnswerDynamic, Dynamic: v} }

// RuntimeError answers with a fatal error that panics the calling thread.
func RuntimeError(format string, args ...any) Answer {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	return Answer{Kind: AnswerError, Message: msg}
}

func (a Answer) String() string {
	switch a.Kind {
	case AnswerDynamic:
		return "ok " + a.Dynamic.String()
	case AnswerError:
		return "runtime error: " + a.Message
	}
	return "ok " + a.Static.String()
}

// ThreadInfo identifies the thread and frame that issued a native call.
type ThreadInfo struct {
	StackCaller *uint64
	ID          uint64
	StackID     uint64
	FramePos    int
}

// Func is the raw native calling convention.
type Func func(info ThreadInfo, params []Param) Answer

// Call is a pending native invocation produced by CALLN.
type Call struct {
	Params             []Param
	Hash               uint64
	ReturnHeapPosition int
}
