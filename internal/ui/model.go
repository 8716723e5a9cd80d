package ui

import (
	"context"

	bubblesprogress "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"hoffenc/internal/model"
	"hoffenc/internal/pipeline"
	"hoffenc/internal/progress"
	"hoffenc/internal/settings"
)

// Options configures the interactive application.
type Options struct {
	Service  *pipeline.Service
	Settings settings.EncodingSettings
	OutDir   string
	Policy   pipeline.Policy
	// Jobs skips the setup form when non-empty.
	Jobs   []model.Job
	Logger zerolog.Logger
}

type phase int

const (
	phaseForm phase = iota
	phaseRunning
	phaseDone
)

type Model struct {
	ctx  context.Context
	opts Options

	phase    phase
	form     form
	settings settings.EncodingSettings

	order   []string
	files   map[string]*fileState
	current int // 1-based file being encoded
	overall float64
	bar     bubblesprogress.Model
	spinner spinner.Model

	cancel     *pipeline.CancelFlag
	cancelling bool
	quitting   bool
	report     model.BatchReport

	events chan tea.Msg
	styles Styles
}

func NewModel(ctx context.Context, opts Options) Model {
	sty := defaultStyles()
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = sty.Spinner
	m := Model{
		ctx:      ctx,
		opts:     opts,
		form:     newForm(opts.OutDir, opts.Settings),
		settings: opts.Settings,
		files:    map[string]*fileState{},
		bar:      bubblesprogress.New(bubblesprogress.WithDefaultGradient(), bubblesprogress.WithWidth(50)),
		spinner:  sp,
		cancel:   pipeline.NewCancelFlag(),
		events:   make(chan tea.Msg, 256),
		styles:   sty,
	}
	if len(opts.Jobs) > 0 {
		m.setJobs(opts.Jobs)
		m.phase = phaseRunning
	}
	return m
}

func (m *Model) setJobs(jobs []model.Job) {
	m.order = m.order[:0]
	for _, j := range jobs {
		m.order = append(m.order, j.ID)
		m.files[j.ID] = newFileState(j)
	}
}

func (m Model) jobs() []model.Job {
	out := make([]model.Job, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.files[id].job)
	}
	return out
}

func (m Model) Init() tea.Cmd {
	if m.phase == phaseRunning {
		return m.startCmd()
	}
	return textinput.Blink
}

func (m Model) startCmd() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenEventsCmd(), m.runBatchCmd())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		w := msg.Width - 20
		if w > 60 {
			w = 60
		}
		if w > 10 {
			m.bar.Width = w
		}
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.phase == phaseForm {
		cmd, _ := m.form.update(msg)
		return m, cmd
	}

	switch msg := msg.(type) {
	case fileUpdateMsg:
		u := msg.U
		if f, ok := m.files[u.JobID]; ok {
			f.apply(u)
		}
		if u.File > 0 {
			m.current = u.File
			m.overall = u.Overall
		}
		return m, m.listenEventsCmd()
	case fileLogMsg:
		if f, ok := m.files[msg.L.JobID]; ok {
			f.lastLog = msg.L.Line
		}
		return m, m.listenEventsCmd()
	case fileResultMsg:
		if f, ok := m.files[msg.R.JobID]; ok {
			f.finish(msg.R)
		}
		return m, m.listenEventsCmd()
	case batchDoneMsg:
		m.report = msg.Report
		m.phase = phaseDone
		m.applyReport()
		if m.quitting {
			return m, tea.Quit
		}
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.phase {
	case phaseForm:
		switch k.String() {
		case "esc", "ctrl+c":
			return m, tea.Quit
		}
		cmd, submit := m.form.update(k)
		if !submit {
			return m, cmd
		}
		return m.submit()
	case phaseRunning:
		switch k.String() {
		case "c":
			m.requestCancel()
		case "q", "ctrl+c", "esc":
			m.requestCancel()
			m.quitting = true
		}
		return m, nil
	default:
		switch k.String() {
		case "q", "ctrl+c", "esc", "enter":
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *Model) requestCancel() {
	if m.cancelling {
		return
	}
	m.cancelling = true
	m.cancel.Set()
	m.opts.Logger.Info().Msg("cancel requested")
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	v, err := m.form.values(m.opts.Settings)
	if err != nil {
		m.form.err = err
		return m, nil
	}
	jobs, err := pipeline.CollectJobs([]string{v.Input}, v.Settings, pipeline.JobOptions{
		OutDir:            v.OutDir,
		MaintainStructure: v.Structure,
		Recursive:         v.Recursive,
	})
	if err != nil {
		m.form.err = err
		return m, nil
	}
	m.form.err = nil
	m.settings = v.Settings
	m.setJobs(jobs)
	m.phase = phaseRunning
	return m, m.startCmd()
}

func (m Model) listenEventsCmd() tea.Cmd {
	ch, ctx := m.events, m.ctx
	return func() tea.Msg {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-ch:
			return msg
		}
	}
}

func (m Model) runBatchCmd() tea.Cmd {
	svc := m.opts.Service.ReportTo(teaReporter{ch: m.events, done: m.ctx.Done()})
	jobs, es, ctx := m.jobs(), m.settings, m.ctx
	opts := pipeline.BatchOptions{Policy: m.opts.Policy, Cancel: m.cancel}
	return func() tea.Msg {
		return batchDoneMsg{Report: svc.RunBatch(ctx, jobs, es, opts)}
	}
}

// applyReport makes the per-file rows agree with the final report, which
// is authoritative when event delivery lagged.
func (m *Model) applyReport() {
	for _, fr := range m.report.Results {
		f, ok := m.files[fr.Job.ID]
		if !ok {
			continue
		}
		f.done = true
		f.attempts = fr.Attempts
		f.bytes = fr.Bytes
		switch fr.Status {
		case model.StatusSucceeded:
			f.stage, f.percent = progress.StageCompleted, 100
		case model.StatusFailed:
			f.stage, f.err = progress.StageError, fr.Err
			if fr.Err != nil {
				f.status = fr.Err.Error()
			}
		case model.StatusCancelled:
			f.stage, f.status = progress.StageCancelled, "Cancelled"
		case model.StatusSkipped:
			f.status = "Skipped"
		}
	}
}

// Report returns the batch outcome once the run has finished.
func (m Model) Report() model.BatchReport { return m.report }
