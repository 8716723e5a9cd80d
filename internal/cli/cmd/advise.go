package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"hoffenc/internal/advisor"
	"hoffenc/internal/settings"
)

type adviceDoc struct {
	File     string                    `yaml:"file"`
	Analysis advisor.Analysis          `yaml:"analysis"`
	Settings settings.EncodingSettings `yaml:"settings"`
}

func newAdviseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "advise <file>",
		Short: "Recommend encoding settings for a video",
		Long: "advise probes the file and recommends CRF, preset and audio bitrate. " +
			"With an API key (HOFFENC_ADVISOR_API_KEY or OPENAI_API_KEY) a remote model is asked; " +
			"otherwise, or when it fails, built-in rules are used. " +
			"The settings block can be saved with --save and reused via 'encode --profile'.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := newSession(false)
			if err != nil {
				return err
			}
			defer sess.close()

			pr, err := sess.prober()
			if err != nil {
				return err
			}
			info, ok := pr.Probe(cmd.Context(), args[0])
			if !ok {
				return &ExitError{Code: ExitCLIError, Err: fmt.Errorf("could not probe %s", args[0])}
			}
			es, an := sess.advisor().Recommend(cmd.Context(), info, sess.baseSettings())

			if path, _ := cmd.Flags().GetString("save"); path != "" {
				if err := settings.SaveProfile(path, es); err != nil {
					return &ExitError{Code: ExitCLIError, Err: fmt.Errorf("save profile: %w", err)}
				}
				sess.log.Info().Str("profile", path).Msg("saved settings profile")
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(adviceDoc{File: info.Path, Analysis: an, Settings: es})
		},
	}
	cmd.Flags().String("save", "", "Write the recommended settings to this YAML profile")
	return cmd
}
