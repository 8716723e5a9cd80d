package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"hoffenc/internal/progress"
)

// teaReporter forwards encode events to the tea loop. Stage changes and
// results block until delivered or done closes; progress ticks and logs
// are dropped when the loop falls behind.
type teaReporter struct {
	ch   chan<- tea.Msg
	done <-chan struct{}
}

func (r teaReporter) Update(u progress.Update) {
	if u.Stage == progress.StageEncoding {
		r.try(fileUpdateMsg{U: u})
		return
	}
	r.send(fileUpdateMsg{U: u})
}

func (r teaReporter) Log(l progress.Log) { r.try(fileLogMsg{L: l}) }

func (r teaReporter) Result(res progress.Result) { r.send(fileResultMsg{R: res}) }

func (r teaReporter) send(msg tea.Msg) {
	select {
	case r.ch <- msg:
	case <-r.done:
	}
}

func (r teaReporter) try(msg tea.Msg) {
	select {
	case r.ch <- msg:
	default:
	}
}
