package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"hoffenc/internal/capability"
)

var (
	bold   = color.New(color.Bold).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	subtle = color.New(color.Faint).SprintFunc()
)

// runSystemInfo prints the capability snapshot. Missing ffmpeg is a
// detection failure and exits 1.
func runSystemInfo(cmd *cobra.Command) error {
	sess, err := newSession(false)
	if err != nil {
		return err
	}
	defer sess.close()

	ff, err := sess.ffmpeg()
	if err != nil {
		return &ExitError{Code: ExitCLIError, Err: fmt.Errorf("system detection failed: %w", err)}
	}
	specs := capability.NewDetector(
		capability.WithFFmpegPath(ff),
		capability.WithLogger(sess.log),
	).Detect(cmd.Context())
	writeSystemReport(cmd.OutOrStdout(), capability.Snapshot{Specs: specs, Optimal: capability.Optimize(specs)})
	return nil
}

func writeSystemReport(w io.Writer, snap capability.Snapshot) {
	s, o := snap.Specs, snap.Optimal
	row := func(label string, v any) {
		fmt.Fprintf(w, "  %-22s %v\n", label+":", v)
	}
	list := func(items []string) string {
		if len(items) == 0 {
			return yellow("none detected")
		}
		return strings.Join(items, ", ")
	}

	fmt.Fprintln(w, bold(cyan("System Information")))
	row("CPU", s.CPUBrand)
	row("Cores", fmt.Sprintf("%d physical / %d logical", s.PhysicalCores, s.LogicalCores))
	if s.MaxFreqMHz > 0 {
		row("Max frequency", fmt.Sprintf("%.0f MHz", s.MaxFreqMHz))
	}
	row("Memory", fmt.Sprintf("%.1f GB total, %.1f GB available", s.MemoryTotalGB, s.MemoryAvailableGB))
	row("GPU", list(s.GPUs))
	row("HW acceleration", list(s.HWAccels))
	row("Encoders", list(s.Encoders))
	if len(s.Degraded) > 0 {
		row("Degraded", red(strings.Join(s.Degraded, ", ")))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, bold(cyan("Optimal Settings")))
	row("Threads", green(fmt.Sprintf("%d (conservative %d, max %d)", o.OptimalThreads, o.ConservativeThreads, o.MaxThreads)))
	if o.HWAccel != "" {
		row("Hardware acceleration", green(o.HWAccel))
		row("HW decoder", o.HWDecoder)
		row("HW encoder", o.HWEncoder)
	} else {
		row("Hardware acceleration", subtle("software only"))
	}
	row("Buffer size", o.BufferSize)
	row("Mux queue", o.MuxQueueSize)
	row("Probe size", o.ProbeSize)
	row("Analyze duration", o.AnalyzeDuration)

	fmt.Fprintln(w)
	fmt.Fprintln(w, bold(cyan("Reasoning")))
	fmt.Fprintf(w, "  %s\n", o.Reasoning)
}
