package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"hoffenc/internal/capability"
	"hoffenc/internal/encoder"
	"hoffenc/internal/util"
)

func newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "plan [files or directories...]",
		Short:         "Show output paths and ffmpeg commands without encoding",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MinimumNArgs(1),
		RunE:          runPlan,
	}
	bindBatchFlags(cmd.Flags())
	cmd.Flags().String("tier", encoder.TierOptimal.String(), "Command tier to show: optimal|conservative")
	return cmd
}

func runPlan(cmd *cobra.Command, args []string) error {
	sess, err := newSession(false)
	if err != nil {
		return err
	}
	defer sess.close()

	tierName, _ := cmd.Flags().GetString("tier")
	tier, ok := encoder.ParseTier(tierName)
	if !ok {
		return &ExitError{Code: ExitCLIError, Err: fmt.Errorf("invalid --tier %q (valid: optimal|conservative)", tierName)}
	}
	es, jobs, opts, err := batchInputs(cmd, sess, args)
	if err != nil {
		return err
	}
	ff, err := sess.ffmpeg()
	if err != nil {
		return err
	}
	specs := capability.NewDetector(
		capability.WithFFmpegPath(ff),
		capability.WithLogger(sess.log),
	).Detect(cmd.Context())
	opt := capability.Optimize(specs)

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, bold("Plan (dry run)"))
	fmt.Fprintf(w, "- Output dir:  %s\n", opts.OutDir)
	fmt.Fprintf(w, "- Files:       %d\n", len(jobs))
	fmt.Fprintf(w, "- On failure:  %s\n", sess.policy())
	fmt.Fprintf(w, "- Tier:        %s\n", tier)
	for _, j := range jobs {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%s %s\n", cyan(j.ID), j.Input)
		fmt.Fprintf(w, "  -> %s", j.Output)
		if j.Exists {
			fmt.Fprint(w, yellow(" (exists, will be overwritten)"))
		}
		fmt.Fprintln(w)
		fmt.Fprintf(w, "  %s\n", subtle(util.ShellQuote(ff, encoder.Build(j.Input, j.Output, es, opt, tier))))
	}
	return nil
}
