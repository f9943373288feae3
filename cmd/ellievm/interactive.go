package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/ellie-vm/raw"
	"github.com/wippyai/ellie-vm/vm"
)

// maxContinueSteps bounds one continue so a program without breakpoints
// cannot hang the debugger.
const maxContinueSteps = 1 << 20

const maxShownCells = 10

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	headingStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#87CEEB"))

	currentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	breakStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type keyMap struct {
	Step       key.Binding
	Continue   key.Binding
	Breakpoint key.Binding
	Restart    key.Binding
	Up         key.Binding
	Down       key.Binding
	Help       key.Binding
	Quit       key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Step, k.Continue, k.Breakpoint, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Step, k.Continue, k.Restart},
		{k.Breakpoint, k.Up, k.Down},
		{k.Help, k.Quit},
	}
}

var keys = keyMap{
	Step: key.NewBinding(
		key.WithKeys("s", "n"),
		key.WithHelp("s", "step"),
	),
	Continue: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "continue"),
	),
	Breakpoint: key.NewBinding(
		key.WithKeys("b"),
		key.WithHelp("b", "toggle breakpoint"),
	),
	Restart: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "restart"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "scroll up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "scroll down"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "more"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

type modelState int

const (
	stateStepping modelState = iota
	stateInputBreakpoint
)

type interactiveModel struct {
	err         error
	session     *session
	thread      *vm.Thread
	breakpoints map[int]bool
	filename    string
	status      string
	lines       []string
	input       textinput.Model
	code        viewport.Model
	help        help.Model
	steps       int
	state       modelState
}

func newInteractiveModel(filename string, s *session) *interactiveModel {
	ti := textinput.New()
	ti.Prompt = "breakpoint pos: "
	ti.Placeholder = "instruction index"
	ti.Width = 20

	m := &interactiveModel{
		session:     s,
		filename:    filename,
		breakpoints: make(map[int]bool),
		lines:       listing(s.prog),
		input:       ti,
		code:        viewport.New(60, 20),
		help:        help.New(),
		state:       stateStepping,
	}
	m.restart()
	return m
}

func (m *interactiveModel) restart() {
	m.thread = m.session.vm.NewThread(1)
	m.err = m.thread.CallMain()
	m.steps = 0
	m.status = "ready"
	m.refreshCode()
}

func (m *interactiveModel) Init() tea.Cmd {
	return nil
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		m.code.Width = max(msg.Width/2, 30)
		m.code.Height = max(msg.Height-10, 5)
		m.refreshCode()
		return m, nil

	case tea.KeyMsg:
		if m.state == stateInputBreakpoint {
			return m.updateInput(msg)
		}
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Step):
			m.step()
		case key.Matches(msg, keys.Continue):
			m.continueRun()
		case key.Matches(msg, keys.Breakpoint):
			m.state = stateInputBreakpoint
			m.input.SetValue("")
			return m, m.input.Focus()
		case key.Matches(msg, keys.Restart):
			m.restart()
		case key.Matches(msg, keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, keys.Up):
			m.code.LineUp(1)
		case key.Matches(msg, keys.Down):
			m.code.LineDown(1)
		}
		return m, nil
	}
	return m, nil
}

func (m *interactiveModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.state = stateStepping
		m.input.Blur()
		return m, nil
	case "enter":
		m.state = stateStepping
		m.input.Blur()
		m.toggleBreakpoint(strings.TrimSpace(m.input.Value()))
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *interactiveModel) toggleBreakpoint(text string) {
	pos, err := strconv.Atoi(text)
	if err != nil || pos < 0 || pos >= len(m.lines) {
		m.status = fmt.Sprintf("no instruction at %q", text)
		return
	}
	if m.breakpoints[pos] {
		delete(m.breakpoints, pos)
		m.status = fmt.Sprintf("breakpoint %d removed", pos)
	} else {
		m.breakpoints[pos] = true
		m.status = fmt.Sprintf("breakpoint %d set", pos)
	}
	m.refreshCode()
}

func (m *interactiveModel) step() {
	if m.thread.Exit() != nil {
		m.status = "thread has exited; r to restart"
		return
	}
	info := m.thread.Step()
	m.steps++
	m.status = fmt.Sprintf("%d: %s -> %s", info.Pos, info.Instruction, info.Result.Kind)
	m.refreshCode()
}

// continueRun steps until the thread exits, executes BRK, or reaches a
// breakpoint.
func (m *interactiveModel) continueRun() {
	if m.thread.Exit() != nil {
		m.status = "thread has exited; r to restart"
		return
	}
	for i := 0; i < maxContinueSteps; i++ {
		info := m.thread.Step()
		m.steps++
		if info.Exit != nil {
			m.status = "thread exited"
			break
		}
		if info.Breakpoint {
			m.status = fmt.Sprintf("BRK at %d", info.Pos)
			break
		}
		if cur := m.thread.Current(); cur != nil && m.breakpoints[cur.Pos] {
			m.status = fmt.Sprintf("breakpoint %d", cur.Pos)
			break
		}
		if i == maxContinueSteps-1 {
			m.status = fmt.Sprintf("paused after %d steps", maxContinueSteps)
		}
	}
	m.refreshCode()
}

func (m *interactiveModel) refreshCode() {
	pos := -1
	if cur := m.thread.Current(); cur != nil {
		pos = cur.Pos
	}
	var b strings.Builder
	for i, line := range m.lines {
		marker := "  "
		if m.breakpoints[i] {
			marker = breakStyle.Render("● ")
		}
		text := fmt.Sprintf("%4d  %s", i, line)
		if i == pos {
			text = currentStyle.Render(text)
		}
		b.WriteString(marker + text + "\n")
	}
	m.code.SetContent(b.String())
	if pos >= 0 {
		m.code.SetYOffset(max(pos-m.code.Height/2, 0))
	}
}

func (m *interactiveModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Ellie Debugger"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString(fmt.Sprintf("  steps: %d", m.steps))
	b.WriteString("\n\n")

	left := panelStyle.Render(m.code.View())
	right := panelStyle.Render(m.stateView())
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, right))
	b.WriteString("\n")

	if exit := m.thread.Exit(); exit != nil {
		style := resultStyle
		if exit.Panic != nil {
			style = errorStyle
		}
		b.WriteString(style.Render(exit.Render(m.session.info)))
	} else {
		b.WriteString(m.status)
	}
	b.WriteString("\n")

	if m.state == stateInputBreakpoint {
		b.WriteString(m.input.View())
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("enter toggle • esc cancel"))
		return b.String()
	}
	b.WriteString(m.help.View(keys))
	return b.String()
}

func (m *interactiveModel) stateView() string {
	var b strings.Builder
	cur := m.thread.Current()

	b.WriteString(headingStyle.Render("Registers"))
	b.WriteString("\n")
	if cur == nil {
		b.WriteString("  (no frame)\n")
	} else {
		for r := vm.RegA; r <= vm.RegY; r++ {
			fmt.Fprintf(&b, "  %s  %s\n", r, valueStyle.Render(cur.Registers.Get(r).String()))
		}
	}

	b.WriteString("\n")
	b.WriteString(headingStyle.Render("Frames"))
	b.WriteString("\n")
	frames := m.thread.Frames()
	for i := len(frames) - 1; i >= 0; i-- {
		fmt.Fprintf(&b, "  %s\n", vm.FrameName(frames[i], m.session.info))
	}

	if cur != nil {
		b.WriteString("\n")
		b.WriteString(headingStyle.Render("Cells"))
		b.WriteString("\n")
		b.WriteString(m.cellsView(cur))
	}

	if len(m.breakpoints) > 0 {
		b.WriteString("\n")
		b.WriteString(headingStyle.Render("Breakpoints"))
		b.WriteString("\n  ")
		b.WriteString(formatBreakpoints(m.breakpoints))
		b.WriteString("\n")
	}
	return b.String()
}

// cellsView lists the set stack cells of the current frame and what heap
// references among them point to.
func (m *interactiveModel) cellsView(cur *vm.Frame) string {
	iso := m.thread.Isolate()
	var b strings.Builder
	shown := 0
	iso.Stack.Each(func(i int, v raw.Static) bool {
		if i < cur.FramePos {
			return true
		}
		if shown == maxShownCells {
			b.WriteString("  ...\n")
			return false
		}
		shown++
		line := fmt.Sprintf("  [%d] %s", i, v)
		if v.Type.IsHeapReference() {
			if d, ok := iso.Heap.Get(v.AsLocation()); ok {
				line += " -> " + d.String()
			}
		}
		b.WriteString(line + "\n")
		return true
	})
	if shown == 0 {
		b.WriteString("  (empty)\n")
	}
	return b.String()
}

func formatBreakpoints(bps map[int]bool) string {
	pos := make([]int, 0, len(bps))
	for p := range bps {
		pos = append(pos, p)
	}
	sort.Ints(pos)
	parts := make([]string, len(pos))
	for i, p := range pos {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ", ")
}

func runInteractive(filename string, s *session) error {
	p := tea.NewProgram(newInteractiveModel(filename, s), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
