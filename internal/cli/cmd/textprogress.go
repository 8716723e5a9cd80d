package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"hoffenc/internal/model"
	"hoffenc/internal/progress"
	"hoffenc/internal/util/format"
)

// barReporter renders batch progress as a single progress bar. It is used
// when stdout is not a terminal or --no-ui is set.
type barReporter struct {
	mu   sync.Mutex
	w    io.Writer
	bar  *progressbar.ProgressBar
	jobs map[string]model.Job
	file int
}

func newBarReporter(w io.Writer, jobs []model.Job) *barReporter {
	byID := make(map[string]model.Job, len(jobs))
	for _, j := range jobs {
		byID[j.ID] = j
	}
	bar := progressbar.NewOptions(100,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	return &barReporter{w: w, bar: bar, jobs: byID}
}

func (r *barReporter) Update(u progress.Update) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.File != 0 && u.File != r.file {
		r.file = u.File
		name := filepath.Base(r.jobs[u.JobID].Input)
		r.bar.Describe(fmt.Sprintf("%d/%d %s", u.File, u.Total, name))
	}
	pct := u.Percent
	if u.Total > 0 {
		pct = u.Overall
	}
	if pct >= 0 {
		_ = r.bar.Set(int(pct))
	}
}

func (r *barReporter) Log(progress.Log) {}

func (r *barReporter) Result(res progress.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if res.Err != nil && !res.Cancelled {
		_ = r.bar.Clear()
		fmt.Fprintf(r.w, "failed: %s: %v\n", filepath.Base(r.jobs[res.JobID].Input), res.Err)
	}
}

func (r *barReporter) finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	_ = r.bar.Finish()
	fmt.Fprintln(r.w)
}

// writeBatchSummary prints one line per file and the totals.
func writeBatchSummary(w io.Writer, report model.BatchReport) {
	for _, fr := range report.Results {
		switch fr.Status {
		case model.StatusSucceeded:
			fmt.Fprintf(w, "%s %s -> %s (%s, %s)\n", green("ok"), fr.Job.Input, fr.Job.Output,
				format.HumanizeBytes(fr.Bytes), format.FormatDuration(fr.Elapsed.Seconds()))
		case model.StatusFailed:
			fmt.Fprintf(w, "%s %s: %v\n", red("failed"), fr.Job.Input, fr.Err)
		case model.StatusCancelled:
			fmt.Fprintf(w, "%s %s\n", yellow("cancelled"), fr.Job.Input)
		default:
			fmt.Fprintf(w, "%s %s\n", subtle("skipped"), fr.Job.Input)
		}
	}
	fmt.Fprintf(w, "%d succeeded, %d failed, %d skipped\n",
		report.Count(model.StatusSucceeded), report.Count(model.StatusFailed),
		report.Count(model.StatusSkipped)+report.Count(model.StatusCancelled))
}
