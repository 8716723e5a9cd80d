// Package pipeline runs encodes: the per-file state machine with its
// optimal-then-conservative retry, and the sequential batch runner.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"hoffenc/internal/capability"
	"hoffenc/internal/encoder"
	"hoffenc/internal/mediaprobe"
	"hoffenc/internal/progress"
	"hoffenc/internal/settings"
	"hoffenc/internal/util"
	"hoffenc/internal/util/format"
)

// Prober supplies input metadata. Only the duration is used here.
type Prober interface {
	Probe(ctx context.Context, path string) (mediaprobe.VideoInfo, bool)
}

// ErrCancelled is returned by Encode when the user stopped the encode.
var ErrCancelled = errors.New("encode cancelled")

// EncodeError is returned when both attempts failed.
type EncodeError struct {
	ExitCode int
	Class    encoder.ExitClass
	Attempts int
	Tail     []string
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("ffmpeg exited with code %d after %d attempt(s): %s", e.ExitCode, e.Attempts, e.Class.Describe())
}

// Outcome describes a finished Encode.
type Outcome struct {
	State      State
	Attempts   int
	Tier       encoder.Tier
	ExitCode   int
	Duration   float64 // probed input duration, 0 when unknown
	Output     string
	Bytes      int64
	StderrTail []string
	Trace      []State
}

// Service encodes files with one ffmpeg binary.
type Service struct {
	ffmpegPath string
	runner     util.CmdRunner
	reporter   progress.Reporter
	jobID      string
	caps       *capability.Cache
	prober     Prober
	log        zerolog.Logger
	tailLines  int
	verbose    bool
}

// Option configures a Service.
type Option func(*Service)

// WithFFmpegPath sets the ffmpeg binary path.
func WithFFmpegPath(p string) Option {
	return func(s *Service) {
		s.ffmpegPath = p
	}
}

// WithRunner injects a custom command runner (useful for testing).
func WithRunner(r util.CmdRunner) Option {
	return func(s *Service) {
		s.runner = r
	}
}

// WithReporter attaches a progress reporter.
func WithReporter(rp progress.Reporter) Option {
	return func(s *Service) {
		s.reporter = rp
	}
}

// WithJobID sets the job ID associated with reporter events.
func WithJobID(id string) Option {
	return func(s *Service) {
		s.jobID = id
	}
}

// WithCapabilities shares a capability snapshot cache.
func WithCapabilities(c *capability.Cache) Option {
	return func(s *Service) {
		s.caps = c
	}
}

// WithProber sets the duration source.
func WithProber(p Prober) Option {
	return func(s *Service) {
		s.prober = p
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) {
		s.log = l
	}
}

// WithTailLines sets how many stderr lines are kept for diagnostics.
func WithTailLines(n int) Option {
	return func(s *Service) {
		s.tailLines = n
	}
}

// WithVerbose echoes ffmpeg command lines and output.
func WithVerbose(v bool) Option {
	return func(s *Service) {
		s.verbose = v
	}
}

const defaultTailLines = 10

// NewService constructs a Service. The ffmpeg path is required; resolve it
// with deps.FindFFmpeg first.
func NewService(opts ...Option) (*Service, error) {
	s := &Service{log: zerolog.Nop(), tailLines: defaultTailLines}
	for _, o := range opts {
		o(s)
	}
	if s.ffmpegPath == "" {
		return nil, errors.New("ffmpeg path is required")
	}
	if s.runner == nil {
		s.runner = util.NewDefaultRunner()
	}
	if s.reporter == nil {
		s.reporter = progress.Nop{}
	}
	if s.caps == nil {
		s.caps = capability.NewCache(capability.NewDetector(
			capability.WithFFmpegPath(s.ffmpegPath),
			capability.WithRunner(s.runner),
			capability.WithLogger(s.log),
		))
	}
	if s.prober == nil {
		s.prober = mediaprobe.New(mediaprobe.WithRunner(s.runner), mediaprobe.WithLogger(s.log))
	}
	if s.tailLines <= 0 {
		s.tailLines = defaultTailLines
	}
	return s, nil
}

// Capabilities returns the shared snapshot cache.
func (s *Service) Capabilities() *capability.Cache { return s.caps }

// ReportTo returns a copy of s that sends events to rp. The capability
// cache is shared with s.
func (s *Service) ReportTo(rp progress.Reporter) *Service {
	if rp == nil {
		rp = progress.Nop{}
	}
	return s.withJob(s.jobID, rp)
}

// withJob returns a shallow copy reporting under id through rp.
func (s *Service) withJob(id string, rp progress.Reporter) *Service {
	c := *s
	c.jobID, c.reporter = id, rp
	return &c
}

// Encode runs one file through the state machine. It returns ErrCancelled
// when cancel was set or ctx ended, and *EncodeError when both tiers failed.
// Exactly one progress.Result is reported.
func (s *Service) Encode(ctx context.Context, input, output string, es settings.EncodingSettings, cancel *CancelFlag) (Outcome, error) {
	m := newMachine()
	s = s.withJob(s.jobID, &monotonic{inner: s.reporter})
	out := Outcome{Output: output}
	finish := func(err error) (Outcome, error) {
		out.State, out.Attempts, out.Tier, out.Trace = m.state, m.attempts, m.tier, m.trace
		s.reportResult(out, err)
		return out, err
	}
	cancelled := func() bool { return cancel.IsSet() || ctx.Err() != nil }

	// Transitions below are valid by construction.
	mustFire := func(e event) {
		if err := m.fire(e); err != nil {
			panic(err)
		}
	}

	mustFire(evStart)
	s.update(progress.StageProbing, "Analyzing input...")
	snap := s.caps.Get(ctx)
	if err := util.EnsureParentDir(output); err != nil {
		mustFire(evAbort)
		return finish(fmt.Errorf("create output directory: %w", err))
	}
	if info, ok := s.prober.Probe(ctx, input); ok {
		out.Duration = info.Duration
	}
	before := statOutput(output)
	mustFire(evProbed)

	for {
		if cancelled() {
			mustFire(evCancel)
			return finish(ErrCancelled)
		}
		s.update(progress.StageBuilding, "Preparing "+m.tier.String()+" command...")
		args := encoder.Build(input, output, es, snap.Optimal, m.tier)
		mustFire(evBuilt)

		res := s.runAttempt(ctx, args, m.tier, out.Duration, snap.Optimal, cancel)
		out.ExitCode, out.StderrTail = res.code, res.tail

		// A clean exit wins over a cancel that arrived after ffmpeg finished;
		// a killed process never reports 0.
		switch {
		case res.code == 0:
			mustFire(evExitOK)
			if fi, err := os.Stat(output); err == nil {
				out.Bytes = fi.Size()
			}
			s.reporter.Update(progress.Update{JobID: s.jobID, Stage: progress.StageCompleted, Percent: 100, Message: "Encoding completed"})
			s.log.Info().Str("input", input).Str("output", output).Int("attempts", m.attempts).
				Str("tier", m.tier.String()).Msg("encode succeeded")
			return finish(nil)
		case res.cancelled || cancelled():
			removeIfWritten(output, before)
			mustFire(evCancel)
			s.log.Info().Str("input", input).Int("attempt", m.attempts).Msg("encode cancelled")
			return finish(ErrCancelled)
		}

		class := encoder.ClassifyExit(res.code)
		mustFire(evExitFailed)
		ev := s.log.Warn().Str("input", input).Int("exit_code", res.code).Str("class", class.String()).
			Str("tier", m.tier.String()).Strs("stderr_tail", res.tail)
		if m.state == StateFailed {
			removeIfWritten(output, before)
			ev.Msg("encode failed")
			return finish(&EncodeError{ExitCode: res.code, Class: class, Attempts: m.attempts, Tail: res.tail})
		}
		ev.Msg(class.Describe() + "; retrying with conservative settings")
		if cancelled() {
			mustFire(evCancel)
			return finish(ErrCancelled)
		}
		s.update(progress.StageRetrying, fmt.Sprintf("Attempt failed (exit %d), retrying with conservative settings...", res.code))
		mustFire(evRetry)
	}
}

// outputState is what sat at the output path before the first attempt.
type outputState struct {
	existed bool
	size    int64
	mod     time.Time
}

func statOutput(path string) outputState {
	fi, err := os.Stat(path)
	if err != nil || !fi.Mode().IsRegular() {
		return outputState{}
	}
	return outputState{existed: true, size: fi.Size(), mod: fi.ModTime()}
}

// removeIfWritten deletes a partial output. A pre-existing file that no
// attempt touched is left in place.
func removeIfWritten(path string, before outputState) {
	if before.existed {
		now := statOutput(path)
		if now.existed && now.size == before.size && now.mod.Equal(before.mod) {
			return
		}
	}
	_ = util.RemoveIfExists(path)
}

type attemptResult struct {
	code      int
	tail      []string
	cancelled bool
}

// runAttempt runs ffmpeg once. The process is killed as soon as cancel is
// set, whether observed between stderr lines or by the watcher.
func (s *Service) runAttempt(ctx context.Context, args []string, tier encoder.Tier, duration float64, opt capability.Optimal, cancel *CancelFlag) attemptResult {
	actx, stop := context.WithCancel(ctx)
	defer stop()

	var (
		mu        sync.Mutex
		tail      = newRing(s.tailLines)
		cancelled bool
	)
	markCancelled := func() {
		mu.Lock()
		cancelled = true
		mu.Unlock()
		stop()
	}
	go func() {
		select {
		case <-cancel.Done():
			markCancelled()
		case <-actx.Done():
		}
	}()

	threads := opt.OptimalThreads
	if tier == encoder.TierConservative {
		threads = opt.ConservativeThreads
	}
	s.log.Debug().Str("tier", tier.String()).Int("threads", threads).Str("hwaccel", encoder.ExtractSettings(args).HWAccel).
		Str("cmd", util.ShellQuote(s.ffmpegPath, args)).Msg("starting ffmpeg")
	start := time.Now()
	s.update(progress.StageEncoding, "Encoding...")

	res, err := s.runner.Run(actx, util.CmdSpec{
		Path:    s.ffmpegPath,
		Args:    args,
		Verbose: s.verbose,
		StderrLine: func(line string) {
			if cancel.IsSet() {
				markCancelled()
				return
			}
			mu.Lock()
			tail.add(line)
			mu.Unlock()
			s.reporter.Log(progress.Log{JobID: s.jobID, Stream: progress.StreamStderr, Line: line})
			st, ok := encoder.ParseStats(line)
			if !ok {
				return
			}
			if duration <= 0 {
				s.updateSpeed(-1, "Encoding... "+format.FormatDuration(st.Elapsed)+" elapsed", st.Speed)
				return
			}
			p := min(100, 100*st.Elapsed/duration)
			s.updateSpeed(p, fmt.Sprintf("Encoding... %.0f%%", p), st.Speed)
		},
	})
	code := res.Code
	if err != nil && code == 0 {
		code = -1
	}
	mu.Lock()
	defer mu.Unlock()
	s.log.Debug().Int("exit_code", code).Dur("elapsed", time.Since(start)).Msg("ffmpeg exited")
	return attemptResult{code: code, tail: tail.lines(), cancelled: cancelled}
}

// update reports a stage change without new progress information.
func (s *Service) update(stage progress.Stage, msg string) {
	s.reporter.Update(progress.Update{JobID: s.jobID, Stage: stage, Percent: -1, Message: msg})
}

// updateSpeed reports encoding progress; pct < 0 means the duration is unknown.
func (s *Service) updateSpeed(pct float64, msg, speed string) {
	u := progress.Update{JobID: s.jobID, Stage: progress.StageEncoding, Percent: pct, Message: msg}
	if pct < 0 {
		u.Percent, u.Indeterminate = -1, true
	}
	if speed != "" {
		u.Speed = &speed
	}
	s.reporter.Update(u)
}

// monotonic replaces unknown or regressing percentages with the highest
// value reported so far, across attempts.
type monotonic struct {
	inner progress.Reporter
	mu    sync.Mutex
	last  float64
}

func (m *monotonic) Update(u progress.Update) {
	m.mu.Lock()
	if u.Percent > m.last {
		m.last = u.Percent
	}
	u.Percent = m.last
	m.mu.Unlock()
	m.inner.Update(u)
}

func (m *monotonic) Log(l progress.Log)       { m.inner.Log(l) }
func (m *monotonic) Result(r progress.Result) { m.inner.Result(r) }

func (s *Service) reportResult(out Outcome, err error) {
	r := progress.Result{JobID: s.jobID, OutputPath: out.Output, Bytes: out.Bytes, Attempts: out.Attempts}
	switch {
	case errors.Is(err, ErrCancelled):
		r.Cancelled = true
		s.update(progress.StageCancelled, "Encoding cancelled")
	case err != nil:
		r.Err = err
		s.update(progress.StageError, firstLine(err.Error()))
	}
	s.reporter.Result(r)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// ring keeps the last n lines.
type ring struct {
	buf  []string
	next int
	full bool
}

func newRing(n int) *ring { return &ring{buf: make([]string, n)} }

func (r *ring) add(line string) {
	r.buf[r.next] = line
	r.next = (r.next + 1) % len(r.buf)
	if r.next == 0 {
		r.full = true
	}
}

func (r *ring) lines() []string {
	if !r.full {
		return append([]string(nil), r.buf[:r.next]...)
	}
	return append(append([]string(nil), r.buf[r.next:]...), r.buf[:r.next]...)
}
