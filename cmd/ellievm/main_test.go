package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/wippyai/ellie-vm/config"
	"github.com/wippyai/ellie-vm/program"
	"github.com/wippyai/ellie-vm/raw"
	"github.com/wippyai/ellie-vm/vm"
)

func TestMainFlag(t *testing.T) {
	tests := []struct {
		in      string
		want    uint64
		wantErr bool
	}{
		{"42", 42, false},
		{"0x10", 16, false},
		{"18446744073709551615", 18446744073709551615, false},
		{"-1", 0, true},
		{"main", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var m mainFlag
			err := m.Set(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Set(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if tt.wantErr {
				if m.set {
					t.Error("flag marked set after error")
				}
				return
			}
			if !m.set || m.hash != tt.want {
				t.Errorf("Set(%q) = %d (set %v), want %d", tt.in, m.hash, m.set, tt.want)
			}
		})
	}
}

func TestMergeTrace(t *testing.T) {
	cfg := config.Default()
	cfg.Native.Trace = []config.TraceEntry{
		{Name: "print", Module: "io", Hash: 7},
		{Name: "add", Module: "math", Hash: 9},
	}
	info := &program.DebugInfo{Headers: []program.DebugHeader{
		{Module: "main", Name: "helper", Hash: 3},
		{Module: "main", Name: "old_print", Hash: 7},
		{Module: "main", Name: "anonymous"},
	}}

	trace := mergeTrace(cfg, info)
	if len(trace) != 3 {
		t.Fatalf("len(trace) = %d, want 3", len(trace))
	}
	if e, _ := trace.Lookup(7); e.Name != "print" || e.Module != "io" {
		t.Errorf("hash 7 = %+v, want configured io::print", e)
	}
	if e, ok := trace.Lookup(3); !ok || e.Name != "helper" {
		t.Errorf("hash 3 = %+v, %v", e, ok)
	}

	if got := mergeTrace(cfg, nil); len(got) != 2 {
		t.Errorf("without debug info len = %d, want 2", len(got))
	}
}

func panicExit() *vm.ThreadExit {
	caller := uint64(1)
	return &vm.ThreadExit{Panic: &vm.ThreadPanic{
		CodeLocation: "vm/exec_flow.go:10",
		Reason:       vm.PanicReason{Kind: vm.OutOfInstructions},
		StackTrace: []vm.Frame{
			{ID: 1, Pos: 2, Registers: vm.VoidRegisters()},
			{ID: 7, Pos: 5, FramePos: 3, StackLen: 3, Caller: &caller, Registers: vm.VoidRegisters()},
		},
	}}
}

func TestExitReport(t *testing.T) {
	info := &program.DebugInfo{Headers: []program.DebugHeader{
		{Module: "main", Name: "helper", Start: 4, End: 8, Hash: 7, RangeStart: program.Position{Line: 4, Column: 1}},
	}}

	var buf bytes.Buffer
	if err := writeJSON(&buf, newExitReport(panicExit(), info)); err != nil {
		t.Fatal(err)
	}

	var got struct {
		Graceful bool `json:"graceful"`
		Panic    struct {
			Kind       string `json:"kind"`
			StackTrace []struct {
				Name      string            `json:"name"`
				Caller    *uint64           `json:"caller"`
				Registers map[string]string `json:"registers"`
			} `json:"stack_trace"`
		} `json:"panic"`
	}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v\n%s", err, buf.String())
	}
	if got.Graceful {
		t.Error("graceful = true")
	}
	if got.Panic.Kind != "OutOfInstructions" {
		t.Errorf("kind = %q", got.Panic.Kind)
	}
	if len(got.Panic.StackTrace) != 2 {
		t.Fatalf("stack trace has %d frames", len(got.Panic.StackTrace))
	}
	if got.Panic.StackTrace[0].Caller != nil {
		t.Error("outer frame has a caller")
	}
	if name := got.Panic.StackTrace[1].Name; !strings.HasPrefix(name, "main:helper (4:1)") {
		t.Errorf("inner frame name = %q", name)
	}
	if a := got.Panic.StackTrace[1].Registers["A"]; a != "void" {
		t.Errorf("A = %q, want void", a)
	}
}

func TestExitReport_Graceful(t *testing.T) {
	last := vm.Frame{ID: 1, Registers: vm.VoidRegisters()}
	last.Registers.A = raw.Int(5)
	rep := newExitReport(&vm.ThreadExit{Graceful: true, LastFrame: &last}, nil)
	if !rep.Graceful || rep.Panic != nil {
		t.Fatalf("report = %+v", rep)
	}
	if rep.LastFrame == nil || rep.LastFrame.Registers["A"] != raw.Int(5).String() {
		t.Errorf("last frame = %+v", rep.LastFrame)
	}
}

func TestRenderExit_Plain(t *testing.T) {
	exit := panicExit()
	if got, want := renderExit(exit, nil, false), exit.Render(nil); got != want {
		t.Errorf("plain render = %q, want %q", got, want)
	}
}

func TestFormatBreakpoints(t *testing.T) {
	got := formatBreakpoints(map[int]bool{12: true, 3: true, 7: true})
	if got != "3, 7, 12" {
		t.Errorf("formatBreakpoints = %q", got)
	}
}
