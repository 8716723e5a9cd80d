package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hoffenc/internal/model"
	"hoffenc/internal/progress"
	"hoffenc/internal/settings"
)

// Policy decides what a batch does after a file fails.
type Policy int

const (
	// StopOnFailure skips every file after the first failure.
	StopOnFailure Policy = iota
	// ContinueOnFailure encodes every file and reports each status.
	ContinueOnFailure
)

func (p Policy) String() string {
	if p == ContinueOnFailure {
		return "continue"
	}
	return "stop"
}

// ParsePolicy maps "stop" or "continue" to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(s) {
	case "", "stop":
		return StopOnFailure, nil
	case "continue":
		return ContinueOnFailure, nil
	}
	return StopOnFailure, fmt.Errorf("invalid failure policy %q (valid: stop|continue)", s)
}

// BatchOptions configures RunBatch.
type BatchOptions struct {
	Policy Policy
	Cancel *CancelFlag
}

// RunBatch encodes jobs one after another. The cancel flag is checked at
// each file boundary as well as during each encode. The report has one
// entry per job; files never started are StatusSkipped.
func (s *Service) RunBatch(ctx context.Context, jobs []model.Job, es settings.EncodingSettings, opts BatchOptions) model.BatchReport {
	report := model.BatchReport{Results: make([]model.FileResult, 0, len(jobs))}
	total := len(jobs)
	stopped := false
	for i, job := range jobs {
		if !stopped && (opts.Cancel.IsSet() || ctx.Err() != nil) {
			report.Cancelled = true
			stopped = true
		}
		if stopped {
			report.Results = append(report.Results, model.FileResult{Job: job, Status: model.StatusSkipped})
			continue
		}

		id := job.ID
		if id == "" {
			id = fmt.Sprintf("file-%d", i+1)
		}
		fs := s.withJob(id, &batchReporter{inner: s.reporter, index: i, total: total})
		start := time.Now()
		out, err := fs.Encode(ctx, job.Input, job.Output, es, opts.Cancel)

		fr := model.FileResult{
			Job:      job,
			Attempts: out.Attempts,
			Tier:     out.Tier.String(),
			ExitCode: out.ExitCode,
			Bytes:    out.Bytes,
			Elapsed:  time.Since(start),
			Err:      err,
		}
		switch {
		case err == nil:
			fr.Status = model.StatusSucceeded
		case errors.Is(err, ErrCancelled):
			fr.Status = model.StatusCancelled
			report.Cancelled = true
			stopped = true
		default:
			fr.Status = model.StatusFailed
			if opts.Policy == StopOnFailure {
				stopped = true
			}
		}
		report.Results = append(report.Results, fr)
	}
	return report
}

// batchReporter adds the batch position and overall percentage to updates.
type batchReporter struct {
	inner progress.Reporter
	index int
	total int
}

func (b *batchReporter) Update(u progress.Update) {
	u.File, u.Total = b.index+1, b.total
	u.Overall = OverallPercent(b.index, b.total, u.Percent)
	u.Message = fmt.Sprintf("File %d/%d: %s", b.index+1, b.total, u.Message)
	b.inner.Update(u)
}

func (b *batchReporter) Log(l progress.Log)       { b.inner.Log(l) }
func (b *batchReporter) Result(r progress.Result) { b.inner.Result(r) }

// OverallPercent is (index/total)*100 + filePercent/total.
func OverallPercent(index, total int, filePercent float64) float64 {
	if total <= 0 {
		return 0
	}
	if filePercent < 0 {
		filePercent = 0
	}
	return float64(index)/float64(total)*100 + min(filePercent, 100)/float64(total)
}
