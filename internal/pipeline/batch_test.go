package pipeline

import (
	"context"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"hoffenc/internal/model"
	"hoffenc/internal/progress"
	"hoffenc/internal/settings"
)

func batchJobs(t *testing.T, n int) []model.Job {
	dir := t.TempDir()
	jobs := make([]model.Job, n)
	for i := range jobs {
		name := string(rune('a'+i)) + ".mp4"
		jobs[i] = model.Job{Input: filepath.Join("/in", name), Output: filepath.Join(dir, name)}
	}
	return jobs
}

func TestRunBatch_Policies(t *testing.T) {
	ok := attempt{lines: progressLines()}
	bad := attempt{code: 1}
	tests := []struct {
		name     string
		policy   Policy
		attempts []attempt
		want     []model.FileStatus
	}{
		{
			name:     "all succeed",
			policy:   StopOnFailure,
			attempts: []attempt{ok, ok, ok},
			want:     []model.FileStatus{model.StatusSucceeded, model.StatusSucceeded, model.StatusSucceeded},
		},
		{
			name:     "stop after first failure",
			policy:   StopOnFailure,
			attempts: []attempt{ok, bad, bad, ok},
			want:     []model.FileStatus{model.StatusSucceeded, model.StatusFailed, model.StatusSkipped},
		},
		{
			name:     "continue after failure",
			policy:   ContinueOnFailure,
			attempts: []attempt{bad, bad, ok, ok},
			want:     []model.FileStatus{model.StatusFailed, model.StatusSucceeded, model.StatusSucceeded},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &fakeRunner{ffmpegPath: "ffmpeg", attempts: tt.attempts}
			rep := &recordingReporter{}
			s := newTestService(t, r, rep, 120)
			report := s.RunBatch(context.Background(), batchJobs(t, 3), settings.Defaults(), BatchOptions{Policy: tt.policy})
			if len(report.Results) != len(tt.want) {
				t.Fatalf("got %d results, want %d", len(report.Results), len(tt.want))
			}
			for i, fr := range report.Results {
				if fr.Status != tt.want[i] {
					t.Errorf("file %d status = %v, want %v", i, fr.Status, tt.want[i])
				}
			}
			started := 0
			for _, st := range tt.want {
				if st != model.StatusSkipped {
					started++
				}
			}
			if len(rep.results) != started {
				t.Errorf("reporter got %d results, want one per started file (%d)", len(rep.results), started)
			}
			if report.Cancelled {
				t.Errorf("Cancelled = true")
			}
		})
	}
}

func TestRunBatch_CancelAtFileBoundary(t *testing.T) {
	cancel := NewCancelFlag()
	r := &fakeRunner{ffmpegPath: "ffmpeg", attempts: []attempt{{lines: progressLines()}}}
	rep := &recordingReporter{}
	s := newTestService(t, r, &cancelAfterFirstResult{recordingReporter: rep, cancel: cancel}, 120)

	report := s.RunBatch(context.Background(), batchJobs(t, 3), settings.Defaults(), BatchOptions{Cancel: cancel})
	want := []model.FileStatus{model.StatusSucceeded, model.StatusSkipped, model.StatusSkipped}
	for i, fr := range report.Results {
		if fr.Status != want[i] {
			t.Errorf("file %d status = %v, want %v", i, fr.Status, want[i])
		}
	}
	if !report.Cancelled {
		t.Errorf("Cancelled = false")
	}
	if len(r.calls) != 1 {
		t.Errorf("ffmpeg ran %d times, want 1", len(r.calls))
	}
}

type cancelAfterFirstResult struct {
	*recordingReporter
	cancel *CancelFlag
}

func (c *cancelAfterFirstResult) Result(r progress.Result) {
	c.recordingReporter.Result(r)
	c.cancel.Set()
}

func TestRunBatch_OverallProgressAndStatus(t *testing.T) {
	r := &fakeRunner{ffmpegPath: "ffmpeg", attempts: []attempt{{lines: progressLines()}, {lines: progressLines()}}}
	rep := &recordingReporter{}
	s := newTestService(t, r, rep, 120)
	s.RunBatch(context.Background(), batchJobs(t, 2), settings.Defaults(), BatchOptions{})

	lastOverall := -1.0
	for _, u := range rep.updates {
		if u.Total != 2 {
			t.Fatalf("update Total = %d, want 2", u.Total)
		}
		prefix := "File 1/2: "
		if u.File == 2 {
			prefix = "File 2/2: "
		}
		if !strings.HasPrefix(u.Message, prefix) {
			t.Errorf("message %q missing %q", u.Message, prefix)
		}
		if u.Overall < lastOverall {
			t.Errorf("overall regressed %v -> %v", lastOverall, u.Overall)
		}
		lastOverall = u.Overall
	}
	if lastOverall != 100 {
		t.Errorf("final overall = %v, want 100", lastOverall)
	}
}

func TestOverallPercent(t *testing.T) {
	tests := []struct {
		index, total int
		p, want      float64
	}{
		{0, 4, 50, 12.5},
		{1, 4, 0, 25},
		{3, 4, 100, 100},
		{0, 1, -1, 0},
		{0, 0, 50, 0},
	}
	for _, tt := range tests {
		if got := OverallPercent(tt.index, tt.total, tt.p); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("OverallPercent(%d, %d, %v) = %v, want %v", tt.index, tt.total, tt.p, got, tt.want)
		}
	}
}

func TestParsePolicy(t *testing.T) {
	if p, err := ParsePolicy("continue"); err != nil || p != ContinueOnFailure {
		t.Errorf("ParsePolicy(continue) = %v, %v", p, err)
	}
	if p, err := ParsePolicy(""); err != nil || p != StopOnFailure {
		t.Errorf("ParsePolicy(\"\") = %v, %v", p, err)
	}
	if _, err := ParsePolicy("retry"); err == nil {
		t.Errorf("ParsePolicy(retry) error = nil")
	}
}
