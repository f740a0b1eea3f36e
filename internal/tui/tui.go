package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"refengine/internal/recursor"
	"refengine/internal/state"
	"refengine/internal/steplog"
)

// MaxSteps is the number of recent steps listed in the live view.
const MaxSteps = 8

// Model is the Bubble Tea model for the live run view.
type Model struct {
	cfg    recursor.Config
	styles Styles
	bar    progress.Model
	help   help.Model
	keys   keyMap

	seed    state.State
	steps   []recursor.StepEvent // most recent MaxSteps
	records []steplog.Record
	tension float64
	result  *recursor.Result
	err     error

	started   bool
	done      bool
	showChart bool

	width  int
	cancel context.CancelFunc
}

var _ tea.Model = (*Model)(nil)

type keyMap struct {
	Quit  key.Binding
	Chart key.Binding
}

func (k keyMap) ShortHelp() []key.Binding  { return []key.Binding{k.Chart, k.Quit} }
func (k keyMap) FullHelp() [][]key.Binding { return [][]key.Binding{k.ShortHelp()} }

func defaultKeys() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Chart: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "toggle chart"),
		),
	}
}

// Message types forwarded from the run goroutine
type (
	runStartMsg struct{ Start recursor.RunStart }
	stepMsg     struct{ Step recursor.StepEvent }
	runEndMsg   struct{ Result *recursor.Result }
	runErrorMsg struct{ Err error }
)

// Observer implements recursor.Observer and forwards events to the view.
// A positive Delay paces the run after each step so it can be followed.
type Observer struct {
	recursor.NoopObserver
	program *tea.Program
	Delay   time.Duration
}

var _ recursor.Observer = (*Observer)(nil)

// OnRunStart is called when the run begins.
func (o *Observer) OnRunStart(_ context.Context, start recursor.RunStart) {
	if o.program != nil {
		o.program.Send(runStartMsg{Start: start})
	}
}

// OnStep is called after each iteration.
func (o *Observer) OnStep(ctx context.Context, step recursor.StepEvent) {
	if o.program != nil {
		o.program.Send(stepMsg{Step: step})
	}
	if o.Delay <= 0 {
		return
	}
	timer := time.NewTimer(o.Delay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// OnRunEnd is called when the run halts.
func (o *Observer) OnRunEnd(_ context.Context, result *recursor.Result) {
	if o.program != nil {
		o.program.Send(runEndMsg{Result: result})
	}
}

// NewModel creates a view for a run with cfg.
func NewModel(cfg recursor.Config) *Model {
	return &Model{
		cfg:    cfg,
		styles: DefaultStyles(),
		bar:    progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		help:   help.New(),
		keys:   defaultKeys(),
	}
}

// Runner runs one seed with the live view attached.
type Runner struct {
	Config recursor.Config

	// Delay pauses after every step.
	Delay time.Duration

	// Observer, when set, receives the same events as the view.
	Observer recursor.Observer

	// Options are applied to the Recursor before the view's observer.
	Options []recursor.Option

	// ProgramOptions are passed to tea.NewProgram. Defaults to the alt screen.
	ProgramOptions []tea.ProgramOption
}

// Run starts the view and evolves seed in the background. Quitting the view
// before the run halts cancels it.
func (r Runner) Run(ctx context.Context, seed state.State) (*recursor.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := NewModel(r.Config)
	m.cancel = cancel

	progOpts := r.ProgramOptions
	if progOpts == nil {
		progOpts = []tea.ProgramOption{tea.WithAltScreen()}
	}
	p := tea.NewProgram(m, append(progOpts, tea.WithContext(ctx))...)

	viewObserver := &Observer{program: p, Delay: r.Delay}
	var obs recursor.Observer = viewObserver
	if r.Observer != nil {
		obs = recursor.NewMultiObserver(r.Observer, viewObserver)
	}

	opts := append(append([]recursor.Option(nil), r.Options...), recursor.WithObserver(obs))
	rec, err := recursor.New(r.Config, opts...)
	if err != nil {
		return nil, err
	}

	type outcome struct {
		result *recursor.Result
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := rec.Run(ctx, seed)
		if err != nil {
			p.Send(runErrorMsg{Err: err})
		}
		done <- outcome{result: res, err: err}
	}()

	_, progErr := p.Run()
	cancel()
	out := <-done

	if progErr != nil && out.result == nil {
		return nil, fmt.Errorf("run view: %w", progErr)
	}
	if out.err != nil {
		return nil, out.err
	}
	return out.result, nil
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		case key.Matches(msg, m.keys.Chart):
			m.showChart = !m.showChart
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		m.bar.Width = min(max(msg.Width-20, 10), 60)

	case runStartMsg:
		m.started = true
		m.seed = msg.Start.Seed
		m.cfg = msg.Start.Config

	case stepMsg:
		m.started = true
		m.tension = msg.Step.Tension
		m.steps = append(m.steps, msg.Step)
		if len(m.steps) > MaxSteps {
			m.steps = m.steps[len(m.steps)-MaxSteps:]
		}
		m.records = append(m.records, steplog.Record{
			Depth:     msg.Step.Depth,
			State:     msg.Step.State,
			Timestamp: time.Now(),
		})

	case runEndMsg:
		m.done = true
		m.result = msg.Result

	case runErrorMsg:
		m.err = msg.Err
		return m, tea.Quit
	}

	return m, nil
}

// progressRatio is the fraction of MaxDepth executed so far.
func (m *Model) progressRatio() float64 {
	if m.done {
		return 1
	}
	if m.cfg.MaxDepth <= 0 {
		return 0
	}
	return float64(len(m.records)) / float64(m.cfg.MaxDepth)
}

// View implements tea.Model
func (m *Model) View() string {
	if m.err != nil {
		return m.styles.Error.Render(fmt.Sprintf("Error: %v\n", m.err))
	}

	var b strings.Builder

	header := m.styles.Title.Render("⚡ REFENGINE")
	if m.seed != nil {
		header += " " + m.styles.Subtitle.Render("→ "+state.Canonical(m.seed))
	}
	b.WriteString(header)
	b.WriteString("\n\n")

	b.WriteString(m.bar.ViewAs(m.progressRatio()))
	b.WriteString(m.styles.Muted.Render(fmt.Sprintf(" %d/%d", len(m.records), m.cfg.MaxDepth)))
	b.WriteString("\n\n")

	for _, step := range m.steps {
		line := m.styles.Depth.Render(fmt.Sprintf("Depth %02d → ", step.Depth)) +
			m.styles.Glyph.Render(step.Glyph) +
			m.styles.Muted.Render(fmt.Sprintf("  tension %.4f", step.Tension))
		b.WriteString(line + "\n")
	}

	if m.showChart {
		b.WriteString("\n")
		b.WriteString(m.styles.Border.Render(strings.TrimRight(renderEvolution(m.records, m.styles), "\n")))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.statusLine())

	if m.done && m.result != nil {
		b.WriteString("\n\n")
		var report strings.Builder
		recursor.WriteReport(&report, m.result)
		b.WriteString(m.styles.Status.Render(strings.TrimRight(report.String(), "\n")))
	}

	b.WriteString("\n\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *Model) statusLine() string {
	var parts []string
	switch {
	case m.done && m.result != nil:
		reason := m.result.HaltReason
		parts = append(parts, m.styles.HaltStyle(reason).Render(HaltIcon(reason)+" "+reason.String()))
		parts = append(parts, m.styles.Muted.Render(m.result.Duration.Round(time.Microsecond).String()))
	case m.started:
		parts = append(parts, m.styles.Status.Render(IconRunning+" Running"))
	default:
		parts = append(parts, m.styles.Muted.Render(IconWaiting+" Waiting"))
	}
	if len(m.records) > 0 {
		parts = append(parts, m.styles.Muted.Render(fmt.Sprintf("tension %.4f", m.tension)))
	}
	return strings.Join(parts, " │ ")
}
