package vm

import "github.com/wippyai/ellie-vm/native"

// ResultKind tells the run loop how to continue after an instruction.
type ResultKind uint8

const (
	Continue ResultKind = iota
	Jump
	DropStack
	CallFunction
	CallNativeFunction
)

func (k ResultKind) String() string {
	switch k {
	case Continue:
		return "continue"
	case Jump:
		return "jump"
	case DropStack:
		return "drop_stack"
	case CallFunction:
		return "call_function"
	case CallNativeFunction:
		return "call_native_function"
	}
	return "unknown"
}

// FunctionDescriptor locates a bytecode function to call.
type FunctionDescriptor struct {
	Hash      uint64
	StackLen  int
	EscapePos int
	Pos       int
}

// Result is what an executer yields.
type Result struct {
	Native   native.Call
	Function FunctionDescriptor
	Kind     ResultKind
}

var (
	resultContinue = Result{Kind: Continue}
	resultJump     = Result{Kind: Jump}
	resultDrop     = Result{Kind: DropStack}
)
