package vm

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/wippyai/ellie-vm/errors"
	"github.com/wippyai/ellie-vm/memory"
	"github.com/wippyai/ellie-vm/native"
	"github.com/wippyai/ellie-vm/program"
	"github.com/wippyai/ellie-vm/raw"
)

// ThreadPanic is a fatal thread failure with the call stack at the time it
// was raised.
type ThreadPanic struct {
	CodeLocation string      `cbor:"code_location"`
	StackTrace   []Frame     `cbor:"stack_trace"`
	Reason       PanicReason `cbor:"reason"`
}

// ThreadExit is the terminal state of a thread. Exactly one of Graceful and
// Panic is set.
type ThreadExit struct {
	Panic     *ThreadPanic `cbor:"panic,omitempty"`
	LastFrame *Frame       `cbor:"last_frame,omitempty"`
	Graceful  bool         `cbor:"graceful"`
}

func (e *ThreadExit) String() string {
	if e.Panic != nil {
		return fmt.Sprintf("panic: %s at %s", e.Panic.Reason, e.Panic.CodeLocation)
	}
	return "exit gracefully"
}

// StepInfo reports what one Step did.
type StepInfo struct {
	Exit        *ThreadExit
	Instruction program.Instruction
	Result      Result
	Pos         int
	Breakpoint  bool
}

// Thread runs bytecode on its own call stack and isolate. A thread is not
// safe for concurrent use; separate threads share nothing but the VM.
type Thread struct {
	vm      *VM
	isolate *memory.Isolate
	exit    *ThreadExit
	ctx     Context
	frames  []Frame
	ID      uint64
}

// Isolate returns the thread's memory.
func (t *Thread) Isolate() *memory.Isolate { return t.isolate }

// Frames returns a copy of the call stack, innermost frame last.
func (t *Thread) Frames() []Frame {
	out := make([]Frame, len(t.frames))
	copy(out, t.frames)
	return out
}

// Current returns the innermost frame, or nil if the call stack is empty.
func (t *Thread) Current() *Frame {
	if len(t.frames) == 0 {
		return nil
	}
	return &t.frames[len(t.frames)-1]
}

// Exit returns the thread's exit once it has finished.
func (t *Thread) Exit() *ThreadExit { return t.exit }

// CallMain pushes the frame of the program's main function.
func (t *Thread) CallMain() error {
	m := t.vm.Program.Main
	if m == nil {
		return errors.New(errors.PhaseRuntime, errors.KindMissingMain).
			Detail("program has no main descriptor").
			Build()
	}
	t.Push(Frame{
		ID:        m.Hash,
		Pos:       m.Start,
		StackLen:  m.Length,
		Registers: VoidRegisters(),
	})
	return nil
}

// Call pushes a frame for desc on top of the current one, as CALL does.
// With an empty call stack the frame starts at stack cell zero.
func (t *Thread) Call(desc FunctionDescriptor) error {
	f := Frame{
		ID:        desc.Hash,
		Pos:       desc.Pos,
		StackLen:  desc.StackLen,
		Registers: VoidRegisters(),
	}
	if cur := t.Current(); cur != nil {
		if len(t.frames) >= t.vm.Config.MaxCallDepth {
			return raise(PanicReason{Kind: StackOverflow, Depth: len(t.frames)})
		}
		id := cur.ID
		f.Caller = &id
		f.FramePos = cur.FramePos + desc.StackLen
		f.Registers.X = cur.Registers.X
	}
	t.Push(f)
	return nil
}

// Push places f on top of the call stack as is.
func (t *Thread) Push(f Frame) {
	t.frames = append(t.frames, f)
	Logger().Debug("push frame",
		zap.Uint64("thread", t.ID),
		zap.Uint64("hash", f.ID),
		zap.Int("pos", f.Pos),
		zap.Int("frame_pos", f.FramePos))
}

// Run steps the thread until it exits.
func (t *Thread) Run() ThreadExit {
	for {
		info := t.Step()
		if info.Exit != nil {
			return *info.Exit
		}
	}
}

// Step executes the instruction at the current frame's pos and applies its
// result to the call stack.
func (t *Thread) Step() StepInfo {
	if t.exit != nil {
		return StepInfo{Exit: t.exit}
	}
	cur := t.Current()
	if cur == nil {
		return StepInfo{Exit: t.finish(&ThreadExit{Graceful: true})}
	}

	prog := t.vm.Program
	info := StepInfo{Pos: cur.Pos}
	inst, ok := prog.At(cur.Pos)
	if !ok {
		info.Exit = t.fail(reason(OutOfInstructions), codeLocation(1))
		return info
	}
	info.Instruction = inst
	info.Breakpoint = inst.Mnemonic == program.BRK

	exec := t.vm.table[inst.OpCode]
	if exec == nil {
		info.Exit = t.fail(PanicReason{Kind: RuntimeError, Message: fmt.Sprintf("no executer for op_code %d", inst.OpCode)}, codeLocation(1))
		return info
	}

	t.ctx = Context{
		Heap:              t.isolate.Heap,
		Stack:             t.isolate.Stack,
		Isolate:           t.isolate,
		Program:           prog,
		Frame:             cur,
		Operand:           inst.Operand,
		MaxReferenceDepth: t.vm.Config.MaxReferenceDepth,
		Mode:              inst.Mode,
		Arch:              prog.Arch,
	}
	res, err := exec.Execute(&t.ctx)
	info.Result = res
	if err != nil {
		var ep *ExecuterPanic
		if errors.As(err, &ep) {
			info.Exit = t.fail(ep.Reason, ep.CodeLocation)
		} else {
			info.Exit = t.fail(PanicReason{Kind: RuntimeError, Message: err.Error()}, codeLocation(1))
		}
		return info
	}

	switch res.Kind {
	case Continue:
		cur.Pos++
	case Jump:
	case DropStack:
		info.Exit = t.drop()
	case CallFunction:
		cur.Pos++
		if err := t.Call(res.Function); err != nil {
			cur.Pos--
			var ep *ExecuterPanic
			errors.As(err, &ep)
			info.Exit = t.fail(ep.Reason, ep.CodeLocation)
		}
	case CallNativeFunction:
		info.Exit = t.callNative(cur, res.Native)
	}
	return info
}

func (t *Thread) drop() *ThreadExit {
	last := t.frames[len(t.frames)-1]
	t.frames = t.frames[:len(t.frames)-1]
	Logger().Debug("drop frame",
		zap.Uint64("thread", t.ID),
		zap.Uint64("hash", last.ID),
		zap.Int("frame_pos", last.FramePos))
	if len(t.frames) == 0 {
		return t.finish(&ThreadExit{Graceful: true, LastFrame: &last})
	}
	if last.Caller != nil {
		t.Current().Registers.Y = last.Registers.Y
	}
	return nil
}

func (t *Thread) callNative(cur *Frame, call native.Call) *ThreadExit {
	info := native.ThreadInfo{
		ID:          t.ID,
		StackID:     cur.ID,
		StackCaller: cur.Caller,
		FramePos:    cur.FramePos,
	}
	answer, err := t.vm.bridge.Resolve(t.isolate, info, call)
	if err != nil {
		var re *native.ResolveError
		if !errors.As(err, &re) {
			return t.fail(PanicReason{Kind: RuntimeError, Message: err.Error()}, codeLocation(1))
		}
		r := PanicReason{Kind: CallToUnknown, Name: re.Name, Hash: re.Hash}
		switch re.Kind {
		case native.MissingTrace:
			r.Kind = MissingTrace
		case native.MissingModule:
			r.Kind = MissingModule
		}
		return t.fail(r, codeLocation(1))
	}

	switch answer.Kind {
	case native.AnswerStatic:
		cur.Registers.Y = answer.Static
	case native.AnswerDynamic:
		t.isolate.Heap.Set(call.ReturnHeapPosition, answer.Dynamic)
		cur.Registers.Y = raw.HeapRef(call.ReturnHeapPosition)
	default:
		return t.fail(PanicReason{Kind: RuntimeError, Message: answer.Message}, codeLocation(1))
	}
	cur.Pos++
	return nil
}

func (t *Thread) fail(r PanicReason, location string) *ThreadExit {
	exit := &ThreadExit{Panic: &ThreadPanic{
		Reason:       r,
		StackTrace:   t.Frames(),
		CodeLocation: location,
	}}
	Logger().Warn("thread panic",
		zap.Uint64("thread", t.ID),
		zap.Stringer("reason", r),
		zap.String("code_location", location),
		zap.Int("frames", len(t.frames)))
	return t.finish(exit)
}

func (t *Thread) finish(exit *ThreadExit) *ThreadExit {
	t.exit = exit
	return exit
}
