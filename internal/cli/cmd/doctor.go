package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"hoffenc/internal/util/deps"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "doctor",
		Short:         "Diagnose external dependencies (ffmpeg, ffprobe)",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := newSession(false)
			if err != nil {
				return err
			}
			defer sess.close()

			ff, ferr := deps.FindFFmpeg(sess.cfg.FFmpegPath)
			if ferr != nil {
				return &ExitError{Code: ExitMissingDep, Err: ferr}
			}
			fp, perr := deps.FindFFprobe(sess.cfg.FFprobePath)
			if perr != nil {
				return &ExitError{Code: ExitMissingDep, Err: perr}
			}
			w := cmd.OutOrStdout()
			for _, tool := range []struct{ name, path string }{{"FFmpeg: ", ff}, {"FFprobe:", fp}} {
				v, err := deps.Version(cmd.Context(), nil, tool.path)
				if err != nil {
					v = red(err.Error())
				}
				fmt.Fprintf(w, "%s %s\n         %s\n", tool.name, tool.path, subtle(v))
			}
			return nil
		},
	}
}
