package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/jsonabi/engine"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	onStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FAFAFA")).
		Background(lipgloss.Color("#7D56F4")).
		Padding(0, 1)

	offStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			Padding(0, 1)

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type focusArea int

const (
	focusEditor focusArea = iota
	focusPointer
)

type interactiveModel struct {
	err     error
	proc    processor
	opts    options
	output  string
	editor  textarea.Model
	pointer textinput.Model
	focus   focusArea
	height  int
}

type resultMsg struct {
	err    error
	output string
}

func newInteractiveModel(o options, proc processor) *interactiveModel {
	ed := textarea.New()
	ed.Placeholder = `{"paste": "JSON here"}`
	ed.ShowLineNumbers = true
	ed.SetWidth(80)
	ed.SetHeight(10)
	ed.Focus()

	ptr := textinput.New()
	ptr.Prompt = "pointer: "
	ptr.Placeholder = "/path/0 (empty for the whole document)"
	ptr.Width = 60
	ptr.SetValue(o.pointer)

	return &interactiveModel{
		proc:    proc,
		opts:    o,
		editor:  ed,
		pointer: ptr,
		height:  24,
	}
}

func (m *interactiveModel) Init() tea.Cmd {
	return textarea.Blink
}

func (m *interactiveModel) evaluate() tea.Msg {
	o := m.opts
	o.pointer = strings.TrimSpace(m.pointer.Value())
	o.validate = false

	out, err := m.proc.process([]byte(m.editor.Value()), o)
	if err != nil {
		return resultMsg{err: err}
	}
	return resultMsg{output: string(out)}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit

		case "ctrl+s":
			return m, m.evaluate

		case "tab":
			if m.focus == focusEditor {
				m.focus = focusPointer
				m.editor.Blur()
				return m, m.pointer.Focus()
			}
			m.focus = focusEditor
			m.pointer.Blur()
			return m, m.editor.Focus()

		case "alt+p":
			m.opts.pretty = !m.opts.pretty
			return m, m.evaluate
		case "alt+n":
			m.opts.rawNumber = !m.opts.rawNumber
			return m, m.evaluate
		case "alt+r":
			m.opts.raw = !m.opts.raw
			return m, m.evaluate
		case "alt+l":
			m.opts.lossy = !m.opts.lossy
			return m, m.evaluate
		}

	case tea.WindowSizeMsg:
		m.height = msg.Height
		m.editor.SetWidth(max(msg.Width-2, 20))
		m.editor.SetHeight(max(msg.Height/2-4, 3))
		m.pointer.Width = max(msg.Width-len(m.pointer.Prompt)-2, 10)
		return m, nil

	case resultMsg:
		m.output = msg.output
		m.err = msg.err
		return m, nil
	}

	var cmd tea.Cmd
	if m.focus == focusEditor {
		m.editor, cmd = m.editor.Update(msg)
	} else {
		m.pointer, cmd = m.pointer.Update(msg)
	}
	return m, cmd
}

func toggle(label string, on bool) string {
	if on {
		return onStyle.Render(label)
	}
	return offStyle.Render(label)
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("jsonabi"))
	if m.opts.wasm {
		b.WriteString(" via wasm loopback")
	}
	b.WriteString("\n\n")

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		toggle("pretty", m.opts.pretty),
		toggle("raw-number", m.opts.rawNumber),
		toggle("raw", m.opts.raw),
		toggle("lossy", m.opts.lossy),
	))
	b.WriteString("\n\n")

	b.WriteString(m.editor.View())
	b.WriteString("\n")
	b.WriteString(m.pointer.View())
	b.WriteString("\n\n")

	switch {
	case m.err != nil:
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	case m.output != "":
		b.WriteString(resultStyle.Render(clip(m.output, max(m.height/2-6, 3))))
	}
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("ctrl+s run • tab switch field • alt+p/n/r/l toggle flags • esc quit"))

	return b.String()
}

// clip keeps the first n lines of s.
func clip(s string, n int) string {
	lines := strings.SplitN(s, "\n", n+1)
	if len(lines) <= n {
		return s
	}
	return strings.Join(lines[:n], "\n") + "\n…"
}

func runInteractive(o options, cfg *engine.Config) error {
	proc, err := newProcessor(o, cfg)
	if err != nil {
		return err
	}
	defer proc.close()

	p := tea.NewProgram(newInteractiveModel(o, proc), tea.WithAltScreen())
	_, err = p.Run()
	return err
}
