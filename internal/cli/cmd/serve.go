package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"hoffenc/internal/api"
	"hoffenc/internal/capability"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "serve",
		Short:         "Serve system detection, probing and command building over HTTP",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE:          runServe,
	}
	cmd.Flags().String("addr", "127.0.0.1:8089", "Listen address")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	sess, err := newSession(false)
	if err != nil {
		return err
	}
	defer sess.close()

	ff, err := sess.ffmpeg()
	if err != nil {
		return err
	}
	pr, err := sess.prober()
	if err != nil {
		return err
	}
	if !sess.cfg.Verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &api.Server{
		Caps: capability.NewCache(capability.NewDetector(
			capability.WithFFmpegPath(ff),
			capability.WithLogger(sess.log),
		)),
		Prober:       pr,
		FFmpegPath:   ff,
		ProbeTimeout: 30 * time.Second,
		Log:          sess.log,
	}
	addr, _ := cmd.Flags().GetString("addr")
	hs := &http.Server{
		Addr:              addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx := cmd.Context()
	errCh := make(chan error, 1)
	go func() {
		sess.log.Info().Str("addr", addr).Msg("listening")
		errCh <- hs.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return &ExitError{Code: ExitCLIError, Err: err}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		sess.log.Info().Msg("shutting down")
		return hs.Shutdown(shutdownCtx)
	}
}
