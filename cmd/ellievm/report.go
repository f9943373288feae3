package main

import (
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/wippyai/ellie-vm/program"
	"github.com/wippyai/ellie-vm/vm"
)

var (
	okStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#90EE90"))
	panicStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B"))
	traceStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
)

func stdoutIsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// renderExit formats exit for a human. Styling is applied only when stdout
// is a terminal.
func renderExit(exit *vm.ThreadExit, info *program.DebugInfo, styled bool) string {
	text := exit.Render(info)
	if !styled {
		return text
	}
	head, rest, _ := strings.Cut(text, "\n")
	if exit.Panic != nil {
		head = panicStyle.Render(head)
		if rest != "" {
			rest = traceStyle.Render(rest)
		}
	} else {
		head = okStyle.Render(head)
	}
	if rest == "" {
		return head
	}
	return head + "\n" + rest
}

type exitReport struct {
	Panic     *panicReport `json:"panic,omitempty"`
	LastFrame *frameReport `json:"last_frame,omitempty"`
	Graceful  bool         `json:"graceful"`
}

type panicReport struct {
	Kind         string        `json:"kind"`
	Reason       string        `json:"reason"`
	CodeLocation string        `json:"code_location"`
	StackTrace   []frameReport `json:"stack_trace"`
}

type frameReport struct {
	Caller    *uint64           `json:"caller,omitempty"`
	Registers map[string]string `json:"registers"`
	Name      string            `json:"name"`
	ID        uint64            `json:"id"`
	Pos       int               `json:"pos"`
	FramePos  int               `json:"frame_pos"`
	StackLen  int               `json:"stack_len"`
}

func newFrameReport(f vm.Frame, info *program.DebugInfo) frameReport {
	r := f.Registers
	return frameReport{
		Caller: f.Caller,
		Registers: map[string]string{
			"A": r.A.String(),
			"B": r.B.String(),
			"C": r.C.String(),
			"X": r.X.String(),
			"Y": r.Y.String(),
		},
		Name:     vm.FrameName(f, info),
		ID:       f.ID,
		Pos:      f.Pos,
		FramePos: f.FramePos,
		StackLen: f.StackLen,
	}
}

func newExitReport(exit *vm.ThreadExit, info *program.DebugInfo) exitReport {
	rep := exitReport{Graceful: exit.Graceful}
	if exit.LastFrame != nil {
		f := newFrameReport(*exit.LastFrame, info)
		rep.LastFrame = &f
	}
	if p := exit.Panic; p != nil {
		pr := &panicReport{
			Kind:         p.Reason.Kind.String(),
			Reason:       p.Reason.String(),
			CodeLocation: p.CodeLocation,
			StackTrace:   make([]frameReport, 0, len(p.StackTrace)),
		}
		for _, f := range p.StackTrace {
			pr.StackTrace = append(pr.StackTrace, newFrameReport(f, info))
		}
		rep.Panic = pr
	}
	return rep
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
