package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"hoffenc/internal/mediaprobe"
	"hoffenc/internal/util/format"
)

func newProbeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "probe <file>",
		Short:         "Show duration, resolution and codecs of a video file",
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
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			}
			writeVideoInfo(cmd.OutOrStdout(), info)
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "Print as JSON")
	return cmd
}

func writeVideoInfo(w io.Writer, v mediaprobe.VideoInfo) {
	fmt.Fprintln(w, bold(v.Filename))
	fmt.Fprintf(w, "  Duration:     %s\n", format.FormatDuration(v.Duration))
	fmt.Fprintf(w, "  Resolution:   %dx%d (%s)\n", v.Width, v.Height, v.AspectRatio)
	fmt.Fprintf(w, "  Frame rate:   %.2f fps\n", v.FPS)
	fmt.Fprintf(w, "  Video codec:  %s\n", v.VideoCodec)
	fmt.Fprintf(w, "  Audio codec:  %s\n", v.AudioCodec)
	fmt.Fprintf(w, "  Bitrate:      %d kb/s\n", v.Bitrate/1000)
	fmt.Fprintf(w, "  Size:         %s\n", format.HumanizeBytes(v.FileSize))
}
