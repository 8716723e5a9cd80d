package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"hoffenc/internal/cli"
	"hoffenc/internal/model"
	"hoffenc/internal/pipeline"
	"hoffenc/internal/settings"
	"hoffenc/internal/ui"
)

func newEncodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encode [files or directories...]",
		Short: "Encode video files with hardware-tuned ffmpeg settings",
		Example: `  hoffenc encode movie.mkv
  hoffenc encode --recursive --maintain-structure ~/Videos -o /tmp/out
  hoffenc encode --video-codec libx265 --crf 26 --preset slow clip.mov`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MinimumNArgs(1),
		RunE:          runEncode,
	}
	bindBatchFlags(cmd.Flags())
	cmd.Flags().Bool("no-ui", false, "Disable the interactive interface; print a progress bar instead")
	return cmd
}

// bindBatchFlags registers the settings flags and the batch layout flags
// shared by encode and plan.
func bindBatchFlags(fs *pflag.FlagSet) {
	cli.BindSettingsFlags(fs)
	fs.String("profile", "", "YAML settings profile applied before the flags")
	fs.BoolP("recursive", "r", false, "Descend into subdirectories of directory inputs")
	fs.Bool("maintain-structure", false, "Mirror directory inputs' folder layout under the output directory")
	fs.String("policy", "", "On a failed file: stop|continue (default from config, else stop)")
}

// batchInputs resolves settings and jobs from the flags and arguments.
func batchInputs(cmd *cobra.Command, sess *session, args []string) (settings.EncodingSettings, []model.Job, model.CLIOptions, error) {
	fs := cmd.Flags()
	opts := model.CLIOptions{OutDir: sess.cfg.OutDir, Verbose: sess.cfg.Verbose}
	opts.Profile, _ = fs.GetString("profile")
	opts.Recursive, _ = fs.GetBool("recursive")
	opts.MaintainStructure, _ = fs.GetBool("maintain-structure")
	if fs.Lookup("no-ui") != nil {
		opts.NoUI, _ = fs.GetBool("no-ui")
	}
	if p, _ := fs.GetString("policy"); p != "" {
		sess.cfg.FailurePolicy = p
	}
	if _, err := pipeline.ParsePolicy(sess.cfg.FailurePolicy); err != nil {
		return settings.EncodingSettings{}, nil, opts, &ExitError{Code: ExitCLIError, Err: err}
	}

	var base settings.EncodingSettings
	if opts.Profile != "" {
		p, err := settings.LoadProfile(opts.Profile)
		if err != nil {
			return settings.EncodingSettings{}, nil, opts, &ExitError{Code: ExitCLIError, Err: err}
		}
		base = p
	} else {
		base = sess.baseSettings()
	}
	es, err := cli.SettingsFromFlags(fs, base)
	if err != nil {
		return settings.EncodingSettings{}, nil, opts, &ExitError{Code: ExitCLIError, Err: err}
	}
	if es.OutputDir != "" && !cmd.Flags().Changed("out-dir") {
		opts.OutDir = es.OutputDir
	}

	jobs, err := pipeline.CollectJobs(args, es, pipeline.JobOptions{
		OutDir:            opts.OutDir,
		MaintainStructure: opts.MaintainStructure,
		Recursive:         opts.Recursive,
	})
	if err != nil {
		return settings.EncodingSettings{}, nil, opts, &ExitError{Code: ExitCLIError, Err: err}
	}
	return es, jobs, opts, nil
}

func runEncode(cmd *cobra.Command, args []string) error {
	noUI, _ := cmd.Flags().GetBool("no-ui")
	useTUI := !noUI && isTerminal()

	sess, err := newSession(useTUI)
	if err != nil {
		return err
	}
	defer sess.close()

	es, jobs, opts, err := batchInputs(cmd, sess, args)
	if err != nil {
		return err
	}
	for _, j := range jobs {
		if j.Exists {
			sess.log.Warn().Str("output", j.Output).Msg("output exists and will be overwritten")
		}
	}

	if useTUI {
		svc, err := sess.service(nil)
		if err != nil {
			return err
		}
		report, err := ui.Run(cmd.Context(), ui.Options{
			Service:  svc,
			Settings: es,
			OutDir:   opts.OutDir,
			Policy:   sess.policy(),
			Jobs:     jobs,
			Logger:   sess.log,
		})
		if err != nil {
			return &ExitError{Code: ExitCLIError, Err: err}
		}
		writeBatchSummary(cmd.OutOrStdout(), report)
		return batchExit(report)
	}

	bar := newBarReporter(cmd.ErrOrStderr(), jobs)
	svc, err := sess.service(bar)
	if err != nil {
		return err
	}
	report := svc.RunBatch(cmd.Context(), jobs, es, pipeline.BatchOptions{
		Policy: sess.policy(),
		Cancel: pipeline.NewCancelFlag(),
	})
	bar.finish()
	writeBatchSummary(cmd.OutOrStdout(), report)
	return batchExit(report)
}
