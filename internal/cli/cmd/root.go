package cmd

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"hoffenc/internal/cli"
	"hoffenc/internal/config"
	"hoffenc/internal/dirs"
	"hoffenc/internal/logging"
	"hoffenc/internal/ui"
)

const (
	ExitOK          = 0
	ExitCLIError    = 1
	ExitMissingDep  = 2
	ExitEncodeError = 3
	ExitCancelled   = 4
)

// ExitError wraps an error with a process exit code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "hoffenc",
		Short: "Hardware-aware ffmpeg encoder",
		Long: "hoffenc encodes video files with ffmpeg using settings tuned to the host: " +
			"thread counts, hardware acceleration and buffers are derived from the detected CPU, " +
			"memory and GPU. Run without arguments for the interactive interface.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.Init(cmd.Root()); err != nil {
				return &ExitError{Code: ExitCLIError, Err: err}
			}
			return nil
		},
		RunE: runRoot,
	}

	pf := root.PersistentFlags()
	pf.StringP("out-dir", "o", "", "Output directory (default: ~/Videos/hoffenc_output)")
	pf.BoolP("verbose", "v", false, "Log full ffmpeg commands and output")
	pf.String("ffmpeg", "", "Path to the ffmpeg binary")
	pf.String("ffprobe", "", "Path to the ffprobe binary")
	pf.String("log-level", "info", "Log level: trace|debug|info|warn|error")
	pf.String("log-file", "", "Also write JSON logs to this file")
	pf.String("advisor-endpoint", "", "OpenAI-compatible API base URL for the settings advisor")
	pf.String("advisor-model", "", "Model name for the settings advisor")

	root.Flags().Bool("system-info", false, "Print detected system capabilities and optimal settings (aliases: -si, --sysinfo)")

	root.AddCommand(newEncodeCmd())
	root.AddCommand(newPlanCmd())
	root.AddCommand(newProbeCmd())
	root.AddCommand(newAdviseCmd())
	root.AddCommand(newDoctorCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newCompletionCmd())

	return root
}

func runRoot(cmd *cobra.Command, _ []string) error {
	if sys, _ := cmd.Flags().GetBool("system-info"); sys {
		return runSystemInfo(cmd)
	}
	if !isTerminal() {
		return &ExitError{Code: ExitCLIError, Err: errors.New("interactive mode needs a terminal; see 'hoffenc --help'")}
	}

	sess, err := newSession(true)
	if err != nil {
		return err
	}
	defer sess.close()

	svc, err := sess.service(nil)
	if err != nil {
		return err
	}
	report, err := ui.Run(cmd.Context(), ui.Options{
		Service:  svc,
		Settings: sess.baseSettings(),
		OutDir:   sess.cfg.OutDir,
		Policy:   sess.policy(),
		Logger:   sess.log,
	})
	if err != nil {
		return &ExitError{Code: ExitCLIError, Err: err}
	}
	return batchExit(report)
}

// Execute runs the CLI with args (usually os.Args[1:]).
func Execute(ctx context.Context, args []string) error {
	root := newRootCmd()
	root.SetArgs(cli.NormalizeArgs(args))
	return root.ExecuteContext(ctx)
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// newLogger builds the process logger. When the TUI owns the terminal logs
// go only to a file.
func newLogger(cfg config.Config, tui bool) (zerolog.Logger, func() error, error) {
	opts := logging.Options{Level: cfg.LogLevel, File: cfg.LogFile}
	var console io.Writer = os.Stderr
	if tui {
		console = nil
		if opts.File == "" {
			if f, err := dirs.LogFile(); err == nil {
				opts.File = f
			}
		}
	}
	opts.Console = console
	opts.NoColor = !term.IsTerminal(int(os.Stderr.Fd()))
	return logging.New(opts)
}
