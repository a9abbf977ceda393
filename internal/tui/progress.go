// Package tui is the interactive Monte Carlo progress view.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/astroprop/internal/montecarlo"
	"github.com/san-kum/astroprop/internal/viz"
)

const (
	barWidth   = 40
	sparkWidth = 40
	tickEvery  = 100 * time.Millisecond
)

// RunMsg reports one finished run.
type RunMsg montecarlo.Run

// DoneMsg ends the view with the coordinator's outcome.
type DoneMsg struct {
	Batch *montecarlo.Batch
	Err   error
}

type tickMsg time.Time

// Model tracks a Monte Carlo batch as runs complete.
type Model struct {
	title    string
	total    int
	done     int
	failed   int
	radii    []float64
	lastErr  error
	started  time.Time
	frame    int
	finished bool
	cancel   context.CancelFunc

	Batch *montecarlo.Batch
	Err   error
}

// NewModel expects total runs. cancel is invoked when the user quits early
// and may be nil.
func NewModel(title string, total int, cancel context.CancelFunc) Model {
	return Model{title: title, total: total, cancel: cancel, started: time.Now()}
}

func (m Model) Init() tea.Cmd { return tick() }

func tick() tea.Cmd {
	return tea.Tick(tickEvery, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if m.cancel != nil {
				m.cancel()
			}
			if m.finished {
				return m, tea.Quit
			}
		}
	case tickMsg:
		if m.finished {
			return m, nil
		}
		m.frame++
		return m, tick()
	case RunMsg:
		m.done++
		run := montecarlo.Run(msg)
		if run.Succeeded() {
			m.radii = append(m.radii, floats.Norm(run.Result.Final().State[:3], 2))
		} else {
			m.failed++
			m.lastErr = run.Err
		}
	case DoneMsg:
		m.finished = true
		m.Batch, m.Err = msg.Batch, msg.Err
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder
	status := viz.Spinner(m.frame)
	if m.finished {
		status = viz.StatusOK.Render("✓")
		if m.Err != nil {
			status = viz.StatusFailed.Render("✗")
		}
	}
	b.WriteString(fmt.Sprintf("%s %s\n\n", status, viz.Title.Render(m.title)))

	frac := 0.0
	if m.total > 0 {
		frac = float64(m.done) / float64(m.total)
	}
	b.WriteString(fmt.Sprintf("%s %d/%d\n", viz.ProgressBar(frac, barWidth), m.done, m.total))

	elapsed := time.Since(m.started).Round(100 * time.Millisecond)
	b.WriteString(viz.Metric("elapsed", "%s", elapsed))
	if m.done > 0 && !m.finished {
		eta := time.Duration(float64(time.Since(m.started)) / frac * (1 - frac)).Round(time.Second)
		b.WriteString("  " + viz.Metric("eta", "%s", eta))
	}
	b.WriteString("\n")

	failed := viz.StatusOK.Render("0")
	if m.failed > 0 {
		failed = viz.StatusWarn.Render(fmt.Sprint(m.failed))
	}
	b.WriteString(viz.MetricLabel.Render("failed ") + failed + "\n")

	if len(m.radii) > 0 {
		b.WriteString(viz.MetricLabel.Render("final radius ") + viz.Sparkline(m.radii, sparkWidth) + "\n")
	}
	if m.lastErr != nil {
		b.WriteString(viz.Subtle.Render("last error: "+m.lastErr.Error()) + "\n")
	}
	if m.Err != nil {
		b.WriteString(viz.StatusFailed.Render(m.Err.Error()) + "\n")
	}
	if !m.finished {
		b.WriteString("\n" + viz.KeyHint.Render("q to stop dispatching") + "\n")
	}
	return viz.Panel.Render(b.String()) + "\n"
}

// Done reports how many runs have finished and how many of those failed.
func (m Model) Done() (done, failed int) { return m.done, m.failed }

// Run shows the progress view while run executes. run receives a callback
// to report each finished run and a context the view cancels on quit.
func Run(ctx context.Context, title string, total int, run func(ctx context.Context, onRun func(montecarlo.Run)) (*montecarlo.Batch, error)) (*montecarlo.Batch, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewModel(title, total, cancel))
	go func() {
		batch, err := run(ctx, func(r montecarlo.Run) { p.Send(RunMsg(r)) })
		p.Send(DoneMsg{Batch: batch, Err: err})
	}()

	final, err := p.Run()
	if err != nil {
		return nil, err
	}
	m := final.(Model)
	return m.Batch, m.Err
}
