package ui

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/matthewriabinin/blog/pkg/page"
	"github.com/matthewriabinin/blog/pkg/scheduler"
	"github.com/matthewriabinin/blog/pkg/vdom"
)

// flushInterval is how often the preview drives the scheduler
const flushInterval = 50 * time.Millisecond

// KeyMap defines the preview's keyboard shortcuts
type KeyMap struct {
	Quit key.Binding
}

var DefaultKeyMap = KeyMap{
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c", "q", "esc"),
		key.WithHelp("q", "quit"),
	),
}

// Transition is one observed phase change
type Transition struct {
	Phase page.Phase
	At    time.Duration
}

type mountedMsg struct{ err error }
type tickMsg time.Time

// Preview mounts one page composer on a scheduler and shows it moving
// through its phases, flushing the scheduler as it goes
type Preview struct {
	ctx     context.Context
	path    string
	pattern string
	page    page.Page
	sched   *scheduler.Scheduler
	patches *atomic.Int64

	spinner spinner.Model
	keys    KeyMap
	start   time.Time
	now     func() time.Time

	transitions []Transition
	flushes     int
	done        bool
	quitting    bool
	err         error
}

// NewPreview creates the model. The page must have been built with sched.
func NewPreview(ctx context.Context, path, pattern string, p page.Page, sched *scheduler.Scheduler) *Preview {
	patches := new(atomic.Int64)
	sched.SetPatchApplier(func(ps []vdom.Patch) {
		patches.Add(int64(len(ps)))
	})

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = titleStyle

	return &Preview{
		ctx:         ctx,
		path:        path,
		pattern:     pattern,
		page:        p,
		sched:       sched,
		patches:     patches,
		spinner:     s,
		keys:        DefaultKeyMap,
		now:         time.Now,
		transitions: []Transition{{Phase: p.Phase()}},
	}
}

// Init implements tea.Model
func (m *Preview) Init() tea.Cmd {
	m.start = m.now()
	return tea.Batch(m.spinner.Tick, m.mount())
}

func (m *Preview) mount() tea.Cmd {
	return func() tea.Msg {
		return mountedMsg{err: m.page.Mount(m.ctx)}
	}
}

func tick() tea.Cmd {
	return tea.Tick(flushInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model
func (m *Preview) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.quitting = true
			m.page.Unmount()
			return m, tea.Quit
		}

	case mountedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.observe()
		return m, tick()

	case tickMsg:
		m.sched.Flush()
		m.flushes++
		m.observe()
		if m.page.Phase().Settled() {
			m.done = true
			m.page.Unmount()
			return m, tea.Quit
		}
		return m, tick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// observe records the page's phase when it differs from the last one seen
func (m *Preview) observe() {
	phase := m.page.Phase()
	if last := m.transitions[len(m.transitions)-1]; last.Phase == phase {
		return
	}
	m.transitions = append(m.transitions, Transition{Phase: phase, At: m.now().Sub(m.start)})
}

// View implements tea.Model
func (m *Preview) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("preview "+m.path) + " " + mutedStyle.Render("→ "+m.pattern))
	b.WriteString("\n\n")

	for i, t := range m.transitions {
		marker := "  "
		if i == len(m.transitions)-1 && !t.Phase.Settled() && m.err == nil && !m.quitting {
			marker = m.spinner.View()
		}
		line := fmt.Sprintf("%s %-8s %s", marker, t.Phase, mutedStyle.Render(t.At.Round(time.Millisecond).String()))
		switch t.Phase {
		case page.PhaseLoaded:
			line = successStyle.Render(line)
		case page.PhaseFailed:
			line = errorStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(fmt.Sprintf("flushes %d  patches %d", m.flushes, m.Patches())))
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render("error: "+m.err.Error()) + "\n")
	}
	if !m.done && m.err == nil && !m.quitting {
		b.WriteString(mutedStyle.Render(m.keys.Quit.Help().Key+" "+m.keys.Quit.Help().Desc) + "\n")
	}
	return b.String()
}

// Transitions returns the phases seen so far
func (m *Preview) Transitions() []Transition {
	return append([]Transition(nil), m.transitions...)
}

// Patches returns the number of patches the scheduler produced
func (m *Preview) Patches() int64 {
	return m.patches.Load()
}

// Done reports whether the page settled
func (m *Preview) Done() bool { return m.done }

// Err returns the mount error, if any
func (m *Preview) Err() error { return m.err }

// RunPreview runs the preview until the page settles or the user quits
func RunPreview(m *Preview, opts ...tea.ProgramOption) (*Preview, error) {
	final, err := tea.NewProgram(m, opts...).Run()
	if err != nil {
		return m, fmt.Errorf("TUI error: %w", err)
	}
	return final.(*Preview), nil
}
