package cmd

import (
	"fmt"

	"github.com/rs/zerolog"

	"hoffenc/internal/advisor"
	"hoffenc/internal/config"
	"hoffenc/internal/mediaprobe"
	"hoffenc/internal/model"
	"hoffenc/internal/pipeline"
	"hoffenc/internal/progress"
	"hoffenc/internal/settings"
	"hoffenc/internal/util/deps"
)

// session bundles the resolved configuration and logger for one command.
type session struct {
	cfg      config.Config
	log      zerolog.Logger
	closeLog func() error
}

func newSession(tui bool) (*session, error) {
	cfg := config.Load()
	log, closeLog, err := newLogger(cfg, tui)
	if err != nil {
		return nil, &ExitError{Code: ExitCLIError, Err: err}
	}
	return &session{cfg: cfg, log: log, closeLog: closeLog}, nil
}

func (sess *session) close() { _ = sess.closeLog() }

func (sess *session) ffmpeg() (string, error) {
	p, err := deps.FindFFmpeg(sess.cfg.FFmpegPath)
	if err != nil {
		return "", &ExitError{Code: ExitMissingDep, Err: err}
	}
	return p, nil
}

func (sess *session) prober() (*mediaprobe.Prober, error) {
	p, err := deps.FindFFprobe(sess.cfg.FFprobePath)
	if err != nil {
		return nil, &ExitError{Code: ExitMissingDep, Err: err}
	}
	return mediaprobe.New(mediaprobe.WithFFprobePath(p), mediaprobe.WithLogger(sess.log)), nil
}

// service builds the encode service. A missing ffprobe only costs progress
// percentages, so it is logged rather than fatal.
func (sess *session) service(rp progress.Reporter) (*pipeline.Service, error) {
	ff, err := sess.ffmpeg()
	if err != nil {
		return nil, err
	}
	opts := []pipeline.Option{
		pipeline.WithFFmpegPath(ff),
		pipeline.WithLogger(sess.log),
		pipeline.WithVerbose(sess.cfg.Verbose),
	}
	if rp != nil {
		opts = append(opts, pipeline.WithReporter(rp))
	}
	if pr, perr := sess.prober(); perr == nil {
		opts = append(opts, pipeline.WithProber(pr))
	} else {
		sess.log.Warn().Err(perr).Msg("ffprobe unavailable; progress will be indeterminate")
	}
	svc, err := pipeline.NewService(opts...)
	if err != nil {
		return nil, &ExitError{Code: ExitCLIError, Err: err}
	}
	return svc, nil
}

func (sess *session) advisor() *advisor.Advisor {
	return advisor.New(
		advisor.WithEndpoint(sess.cfg.AdvisorEndpoint),
		advisor.WithModel(sess.cfg.AdvisorModel),
		advisor.WithAPIKey(sess.cfg.AdvisorAPIKey),
		advisor.WithLogger(sess.log),
	)
}

// baseSettings returns the configured profile, or the defaults when no
// profile is set or it cannot be read.
func (sess *session) baseSettings() settings.EncodingSettings {
	if sess.cfg.Profile == "" {
		return settings.Defaults()
	}
	s, err := settings.LoadProfile(sess.cfg.Profile)
	if err != nil {
		sess.log.Warn().Err(err).Str("profile", sess.cfg.Profile).Msg("ignoring settings profile")
		return settings.Defaults()
	}
	return s
}

func (sess *session) policy() pipeline.Policy {
	p, err := pipeline.ParsePolicy(sess.cfg.FailurePolicy)
	if err != nil {
		sess.log.Warn().Err(err).Msg("using stop-on-failure")
	}
	return p
}

// batchExit maps a batch outcome to the process exit code.
func batchExit(r model.BatchReport) error {
	switch {
	case r.Cancelled:
		return &ExitError{Code: ExitCancelled}
	case r.Count(model.StatusFailed) > 0:
		var first error
		for _, fr := range r.Results {
			if fr.Status == model.StatusFailed {
				first = fr.Err
				break
			}
		}
		return &ExitError{Code: ExitEncodeError, Err: fmt.Errorf("%d of %d file(s) failed: %w",
			r.Count(model.StatusFailed), len(r.Results), first)}
	}
	return nil
}
