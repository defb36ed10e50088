// Package tui renders live sync progress with bubbletea. The engine worker
// publishes reporter events into the program's message loop; rendering never
// happens on the worker goroutine.
package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/marcus/trigtrack/internal/sync"
)

var (
	msgStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	doneStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// Reporter event messages.
type (
	maxMsg      int64
	progressMsg int64
	textMsg     string
	stepMsg     struct{ i, n int }
	syncedMsg   struct {
		code sync.Code
		msg  string
	}
)

// ProgramReporter bridges engine reporter calls into a bubbletea program.
// tea.Program.Send is safe to call from the engine's worker goroutine.
type ProgramReporter struct {
	p *tea.Program
}

func (r *ProgramReporter) SetMax(n int64)      { r.p.Send(maxMsg(n)) }
func (r *ProgramReporter) Progress(n int64)    { r.p.Send(progressMsg(n)) }
func (r *ProgramReporter) Message(text string) { r.p.Send(textMsg(text)) }
func (r *ProgramReporter) StepCount(i, n int)  { r.p.Send(stepMsg{i, n}) }
func (r *ProgramReporter) Synced(code sync.Code, msg string) {
	r.p.Send(syncedMsg{code: code, msg: msg})
}

type model struct {
	spinner  spinner.Model
	bar      progress.Model
	max      int64
	current  int64
	message  string
	step     string
	done     bool
	code     sync.Code
	finalMsg string
}

func newModel() model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return model{
		spinner: s,
		bar:     progress.New(progress.WithDefaultGradient()),
	}
}

func (m model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case maxMsg:
		m.max = int64(msg)
		m.current = 0
		return m, nil
	case progressMsg:
		m.current = int64(msg)
		return m, nil
	case textMsg:
		m.message = string(msg)
		return m, nil
	case stepMsg:
		m.step = fmt.Sprintf("photo %d of %d", msg.i, msg.n)
		return m, nil
	case syncedMsg:
		m.done = true
		m.code = msg.code
		m.finalMsg = msg.msg
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		// No interactive cancel mid-run; the engine only checks between
		// items anyway. Ctrl-C still kills the program.
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m model) View() string {
	if m.done {
		switch m.code {
		case sync.Success, sync.NoRows:
			return doneStyle.Render("✓ sync complete") + "\n"
		case sync.Cancelled:
			return failStyle.Render("sync cancelled") + "\n"
		default:
			return failStyle.Render("✗ sync failed: "+m.finalMsg) + "\n"
		}
	}

	var percent float64
	if m.max > 0 {
		percent = float64(m.current) / float64(m.max)
	}
	view := fmt.Sprintf("%s syncing  %s", m.spinner.View(), m.bar.ViewAs(percent))
	if m.step != "" {
		view += "\n  " + msgStyle.Render(m.step)
	}
	if m.message != "" {
		view += "\n  " + msgStyle.Render(m.message)
	}
	return view + "\n"
}

// RunSync drives a sync run with a live progress display. start is invoked on
// its own goroutine with the reporter wired to this program; it must call
// Synced exactly once.
func RunSync(start func(rep sync.Reporter)) (sync.Code, string, error) {
	p := tea.NewProgram(newModel())

	go start(&ProgramReporter{p: p})

	final, err := p.Run()
	if err != nil {
		return sync.Error, "", fmt.Errorf("progress ui: %w", err)
	}

	m := final.(model)
	return m.code, m.finalMsg, nil
}
