package vm

import (
	"reflect"
	"strings"
	"testing"

	"github.com/wippyai/ellie-vm/errors"
	"github.com/wippyai/ellie-vm/native"
	"github.com/wippyai/ellie-vm/program"
	"github.com/wippyai/ellie-vm/raw"
)

func newProgram(ins ...program.Instruction) *program.Program {
	return &program.Program{Arch: raw.Arch64, Instructions: ins}
}

// newThread returns a thread whose single frame starts at instruction 0.
func newThread(ins ...program.Instruction) *Thread {
	th := New(newProgram(ins...)).NewThread(1)
	th.Push(Frame{ID: 1, StackLen: len(ins), Registers: VoidRegisters()})
	return th
}

func graceful(t *testing.T, exit ThreadExit) *Frame {
	t.Helper()
	if exit.Panic != nil {
		t.Fatalf("unexpected panic: %s", exit.String())
	}
	if !exit.Graceful || exit.LastFrame == nil {
		t.Fatalf("exit = %+v, want graceful with last frame", exit)
	}
	return exit.LastFrame
}

func panicked(t *testing.T, exit ThreadExit, kind PanicKind) PanicReason {
	t.Helper()
	if exit.Panic == nil {
		t.Fatalf("thread exited gracefully, want %s", kind)
	}
	if exit.Panic.Reason.Kind != kind {
		t.Fatalf("panic = %s, want %s", exit.Panic.Reason, kind)
	}
	return exit.Panic.Reason
}

func TestThread_EndToEnd(t *testing.T) {
	th := newThread(
		program.Imm(program.LDA, raw.Int(2)),
		program.Abs(program.STA, 0),
		program.Imm(program.LDA, raw.Int(3)),
		program.Abs(program.STA, 1),
		program.Abs(program.LDB, 0),
		program.Abs(program.LDC, 1),
		program.Imp(program.ADD),
		program.Imp(program.RET),
	)
	last := graceful(t, th.Run())
	if !last.Registers.A.Equal(raw.Int(5)) {
		t.Errorf("A = %s, want int(5)", last.Registers.A)
	}
	if len(th.Frames()) != 0 {
		t.Errorf("frames left: %d", len(th.Frames()))
	}
}

func TestThread_OutOfInstructions(t *testing.T) {
	th := newThread(program.Imm(program.LDA, raw.Int(1)))
	panicked(t, th.Run(), OutOfInstructions)

	// the exit is sticky
	if info := th.Step(); info.Exit == nil || info.Exit.Panic == nil {
		t.Error("Step after exit should report the same exit")
	}
}

func TestThread_EmptyCallStack(t *testing.T) {
	th := New(newProgram(program.Imp(program.RET))).NewThread(1)
	exit := th.Run()
	if !exit.Graceful || exit.LastFrame != nil {
		t.Errorf("exit = %+v, want graceful without frame", exit)
	}
}

// callProgram calls the function at 3, which answers 42 in Y.
func callProgram() []program.Instruction {
	return []program.Instruction{
		program.Abs(program.CALL, 3),
		program.Ind(program.LDA, 'Y'),
		program.Imp(program.RET),
		program.Imm(program.FN, raw.Int(7)),
		program.Imm(program.STA, raw.Int(7)),
		program.Imm(program.STA, raw.Int(0)),
		program.Imm(program.LDY, raw.Int(42)),
		program.Imp(program.RET),
		program.Imm(program.LDA, raw.Int(9)),
		program.Imp(program.RET),
	}
}

func TestThread_CallReturn(t *testing.T) {
	th := newThread(callProgram()...)

	info := th.Step()
	if info.Result.Kind != CallFunction {
		t.Fatalf("result = %s, want call_function", info.Result.Kind)
	}
	frames := th.Frames()
	if len(frames) != 2 {
		t.Fatalf("frames = %d, want 2", len(frames))
	}
	if frames[0].Pos != 1 {
		t.Errorf("caller pos = %d, want 1", frames[0].Pos)
	}
	callee := frames[1]
	if callee.ID != 7 || callee.Pos != 3 || callee.StackLen != 4 || callee.FramePos != 4 {
		t.Errorf("callee = %s", callee)
	}
	if callee.Caller == nil || *callee.Caller != 1 {
		t.Errorf("callee caller = %v, want 1", callee.Caller)
	}

	for len(th.Frames()) == 2 {
		if info := th.Step(); info.Exit != nil {
			t.Fatalf("unexpected exit: %s", info.Exit)
		}
	}
	caller := th.Current()
	if caller.Pos != 1 {
		t.Errorf("caller pos after return = %d, want 1", caller.Pos)
	}
	if !caller.Registers.Y.Equal(raw.Int(42)) {
		t.Errorf("caller Y = %s, want int(42)", caller.Registers.Y)
	}

	last := graceful(t, th.Run())
	if !last.Registers.A.Equal(raw.Int(42)) {
		t.Errorf("A = %s, want int(42)", last.Registers.A)
	}
}

func TestThread_CallMain(t *testing.T) {
	tests := []struct {
		name string
		main program.Main
		want raw.Static
		reg  Register
	}{
		{"runs body", program.Main{Start: 3, Length: 4, Hash: 7}, raw.Int(42), RegY},
		{"skips foreign body", program.Main{Start: 3, Length: 4, Hash: 1}, raw.Int(9), RegA},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog := newProgram(callProgram()...)
			m := tt.main
			prog.Main = &m
			th := New(prog).NewThread(1)
			if err := th.CallMain(); err != nil {
				t.Fatalf("CallMain: %v", err)
			}
			last := graceful(t, th.Run())
			if got := last.Registers.Get(tt.reg); !got.Equal(tt.want) {
				t.Errorf("%s = %s, want %s", tt.reg, got, tt.want)
			}
		})
	}
}

func TestThread_CallMainMissing(t *testing.T) {
	th := New(newProgram(program.Imp(program.RET))).NewThread(1)
	err := th.CallMain()
	if !errors.Is(err, &errors.Error{Phase: errors.PhaseRuntime, Kind: errors.KindMissingMain}) {
		t.Errorf("CallMain() = %v, want missing main", err)
	}
}

func TestThread_FunctionParameters(t *testing.T) {
	placeholder := program.Imm(program.STA, raw.Int(0))
	th := newThread(
		program.Imm(program.LDA, raw.Int(20)),
		program.Abs(program.STA, 10),
		program.Imm(program.LDA, raw.Int(22)),
		program.Abs(program.STA, 11),
		program.Imm(program.LDX, raw.Int(10)),
		program.Abs(program.CALL, 8),
		program.Ind(program.LDA, 'Y'),
		program.Imp(program.RET),
		program.Imm(program.FN, raw.Int(5)),
		program.Imm(program.STA, raw.Int(17)),
		program.Imm(program.STA, raw.Int(2)),
		placeholder,
		placeholder,
		program.Abs(program.LDB, 11),
		program.Abs(program.LDC, 12),
		program.Imp(program.ADD),
		program.Ind(program.LDY, 'A'),
		program.Imp(program.RET),
	)
	last := graceful(t, th.Run())
	if !last.Registers.A.Equal(raw.Int(42)) {
		t.Errorf("A = %s, want int(42)", last.Registers.A)
	}
	// callee frame starts at 9, FN sits at offset 8
	if v, _ := th.Isolate().Stack.Get(17); !v.Equal(raw.Function(5)) {
		t.Errorf("FN cell = %s, want function(5)", v)
	}
}

func TestThread_StackOverflow(t *testing.T) {
	prog := newProgram(
		program.Abs(program.CALL, 1),
		program.Imm(program.FN, raw.Int(5)),
		program.Imm(program.STA, raw.Int(4)),
		program.Imm(program.STA, raw.Int(0)),
		program.Abs(program.CALL, 1),
	)
	th := New(prog, WithConfig(Config{MaxCallDepth: 8})).NewThread(1)
	th.Push(Frame{ID: 1, Registers: VoidRegisters()})
	r := panicked(t, th.Run(), StackOverflow)
	if r.Depth != 8 {
		t.Errorf("depth = %d, want 8", r.Depth)
	}
	if n := len(th.Exit().Panic.StackTrace); n != 8 {
		t.Errorf("stack trace has %d frames, want 8", n)
	}
}

func TestThread_Breakpoint(t *testing.T) {
	th := newThread(program.Imp(program.BRK), program.Imp(program.RET))
	info := th.Step()
	if !info.Breakpoint || info.Exit != nil {
		t.Errorf("step = %+v, want breakpoint", info)
	}
	if th.Current().Pos != 1 {
		t.Errorf("pos = %d, want 1", th.Current().Pos)
	}
	graceful(t, th.Run())
}

// nativeProgram passes int(40) and int(2) to the native function traced
// under hash and returns Y in A.
func nativeProgram(hash int64) []program.Instruction {
	return []program.Instruction{
		program.Imm(program.LDA, raw.Int(40)),
		program.Imp(program.STA),
		program.Imm(program.STA, raw.Int(2)),
		program.Abs(program.CALLN, 6),
		program.Ind(program.LDA, 'Y'),
		program.Imp(program.RET),
		program.Imm(program.STA, raw.Int(hash)),
		program.Imm(program.STA, raw.Int(100)),
		program.Imm(program.STA, raw.Int(2)),
	}
}

func nativeVM(ins []program.Instruction) *VM {
	m := native.NewModule("math", 1)
	m.Register("add", 77, func(_ native.ThreadInfo, params []native.Param) native.Answer {
		var sum int64
		for _, p := range params {
			sum += p.Static.AsInt()
		}
		return native.OkStatic(raw.Int(sum))
	})
	m.Register("greet", 78, func(native.ThreadInfo, []native.Param) native.Answer {
		return native.OkDynamic(raw.String("hi"))
	})
	m.Register("fail", 79, func(native.ThreadInfo, []native.Param) native.Answer {
		return native.RuntimeError("division by %s", "zero")
	})
	mm := native.NewModuleManager()
	if err := mm.Register(m); err != nil {
		panic(err)
	}
	trace := make(native.Trace)
	trace.Add(native.TraceEntry{Name: "add", Module: "math", Hash: 77})
	trace.Add(native.TraceEntry{Name: "greet", Module: "math", Hash: 78})
	trace.Add(native.TraceEntry{Name: "fail", Module: "math", Hash: 79})
	trace.Add(native.TraceEntry{Name: "nowhere", Module: "gone", Hash: 80})
	return New(newProgram(ins...), WithModules(mm), WithTrace(trace))
}

func TestThread_NativeCall(t *testing.T) {
	t.Run("static answer", func(t *testing.T) {
		th := nativeVM(nativeProgram(77)).NewThread(1)
		th.Push(Frame{ID: 1, Registers: VoidRegisters()})
		last := graceful(t, th.Run())
		if !last.Registers.A.Equal(raw.Int(42)) {
			t.Errorf("A = %s, want int(42)", last.Registers.A)
		}
	})

	t.Run("dynamic answer", func(t *testing.T) {
		th := nativeVM(nativeProgram(78)).NewThread(1)
		th.Push(Frame{ID: 1, Registers: VoidRegisters()})
		last := graceful(t, th.Run())
		if !last.Registers.A.Equal(raw.HeapRef(100)) {
			t.Errorf("A = %s, want heapReference(100)", last.Registers.A)
		}
		d, ok := th.Isolate().Heap.Get(100)
		if !ok || d.AsString() != "hi" {
			t.Errorf("heap[100] = %v, %v", d, ok)
		}
	})

	tests := []struct {
		name string
		hash int64
		kind PanicKind
	}{
		{"runtime error", 79, RuntimeError},
		{"missing module", 80, MissingModule},
		{"missing trace", 81, MissingTrace},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			th := nativeVM(nativeProgram(tt.hash)).NewThread(1)
			th.Push(Frame{ID: 1, Registers: VoidRegisters()})
			r := panicked(t, th.Run(), tt.kind)
			if tt.kind == RuntimeError && r.Message != "division by zero" {
				t.Errorf("message = %q", r.Message)
			}
		})
	}
}

func TestThread_NativeCallToUnknown(t *testing.T) {
	v := nativeVM(nativeProgram(90))
	v.Trace.Add(native.TraceEntry{Name: "add", Module: "math", Hash: 90})
	th := v.NewThread(1)
	th.Push(Frame{ID: 1, Registers: VoidRegisters()})
	r := panicked(t, th.Run(), CallToUnknown)
	if r.Name != "add" || r.Hash != 90 {
		t.Errorf("reason = %+v", r)
	}
}

func TestThread_InternalArrayLen(t *testing.T) {
	th := New(newProgram(
		program.Imm(program.STA, raw.HeapRef(50)),
		program.Abs(program.CALLN, 4),
		program.Ind(program.LDA, 'Y'),
		program.Imp(program.RET),
		program.Imm(program.STA, raw.Int(3)),
		program.Imm(program.STA, raw.Int(100)),
		program.Imm(program.STA, raw.Int(1)),
	), WithTrace(native.Trace{3: {Name: "array_len", Hash: 3}})).NewThread(1)
	th.Isolate().Heap.Set(50, raw.ArrayOf(raw.Arch64, raw.Int(1), raw.Int(2), raw.Int(3)))
	th.Push(Frame{ID: 1, Registers: VoidRegisters()})
	last := graceful(t, th.Run())
	if !last.Registers.A.Equal(raw.Int(3)) {
		t.Errorf("A = %s, want int(3)", last.Registers.A)
	}
}

func TestExitSnapshot(t *testing.T) {
	th := newThread(callProgram()[:7]...)
	exit := th.Run()
	panicked(t, exit, OutOfInstructions)

	data, err := MarshalExit(&exit)
	if err != nil {
		t.Fatalf("MarshalExit: %v", err)
	}
	again, err := MarshalExit(&exit)
	if err != nil || string(again) != string(data) {
		t.Error("canonical encoding should be deterministic")
	}
	back, err := UnmarshalExit(data)
	if err != nil {
		t.Fatalf("UnmarshalExit: %v", err)
	}
	if !reflect.DeepEqual(*back, exit) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", *back, exit)
	}

	if _, err := UnmarshalExit([]byte{0xff}); !errors.Is(err, &errors.Error{Phase: errors.PhaseRuntime, Kind: errors.KindInvalidData}) {
		t.Errorf("UnmarshalExit(garbage) = %v", err)
	}
}

func TestExitRender(t *testing.T) {
	th := newThread(callProgram()[:7]...)
	exit := th.Run()

	info := &program.DebugInfo{Headers: []program.DebugHeader{
		{Module: "main", Name: "helper", Start: 3, End: 7, Hash: 7, RangeStart: program.Position{Line: 4, Column: 1}},
	}}
	out := exit.Render(info)
	for _, want := range []string{"OutOfInstructions", "main:helper (4:1)", "<1> pos 1"} {
		if !strings.Contains(out, want) {
			t.Errorf("Render() missing %q:\n%s", want, out)
		}
	}

	ok := newThread(program.Imm(program.LDA, raw.Int(5)), program.Imp(program.RET)).Run()
	if out := ok.Render(nil); !strings.Contains(out, "gracefully") || !strings.Contains(out, "int(5)") {
		t.Errorf("Render() = %q", out)
	}
}
