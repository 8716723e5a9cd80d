package ui

import (
	bubblesprogress "github.com/charmbracelet/bubbles/progress"

	"hoffenc/internal/model"
	"hoffenc/internal/progress"
)

type fileState struct {
	job    model.Job
	stage  progress.Stage
	status string
	speed  string
	err    error
	done   bool

	bytes         int64
	attempts      int
	percent       float64 // -1 until the first known value
	indeterminate bool
	lastLog       string

	bar bubblesprogress.Model
}

func newFileState(job model.Job) *fileState {
	return &fileState{
		job:     job,
		status:  "Queued",
		percent: -1,
		bar: bubblesprogress.New(
			bubblesprogress.WithDefaultGradient(),
			bubblesprogress.WithWidth(40),
		),
	}
}

func (f *fileState) apply(u progress.Update) {
	f.stage = u.Stage
	f.indeterminate = u.Indeterminate
	if u.Percent >= 0 {
		f.percent = u.Percent
	}
	if u.Message != "" {
		f.status = u.Message
	}
	if u.Speed != nil {
		f.speed = *u.Speed
	}
}

func (f *fileState) finish(r progress.Result) {
	f.done = true
	f.attempts = r.Attempts
	switch {
	case r.Cancelled:
		f.stage = progress.StageCancelled
		f.status = "Cancelled"
	case r.Err != nil:
		f.stage = progress.StageError
		f.err = r.Err
		f.status = r.Err.Error()
	default:
		f.stage = progress.StageCompleted
		f.percent = 100
		f.bytes = r.Bytes
	}
}
