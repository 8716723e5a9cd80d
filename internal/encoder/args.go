// Package encoder builds ffmpeg argument vectors from encoding settings and
// parses the progress ffmpeg reports on stderr.
package encoder

import (
	"strconv"

	"hoffenc/internal/capability"
	"hoffenc/internal/settings"
)

// Tier selects how aggressive a command is.
type Tier int

const (
	// TierOptimal uses hardware acceleration and the full thread budget.
	TierOptimal Tier = iota
	// TierConservative is software only with reduced threads and buffers.
	TierConservative
)

func (t Tier) String() string {
	if t == TierConservative {
		return "conservative"
	}
	return "optimal"
}

// ParseTier maps "optimal" or "conservative" to a Tier.
func ParseTier(s string) (Tier, bool) {
	switch s {
	case "", "optimal":
		return TierOptimal, true
	case "conservative":
		return TierConservative, true
	}
	return TierOptimal, false
}

// Conservative-tier tuning, independent of detected memory.
const (
	conservativeAnalyze  = "50M"
	conservativeProbe    = "50M"
	conservativeMuxQueue = 512
)

// Build returns the ffmpeg arguments (binary excluded) for one attempt.
// Flag order matters to ffmpeg: everything before -i applies to the input.
func Build(input, output string, s settings.EncodingSettings, opt capability.Optimal, tier Tier) []string {
	threads := opt.OptimalThreads
	analyze, probe, muxQueue := opt.AnalyzeDuration, opt.ProbeSize, opt.MuxQueueSize
	if tier == TierConservative {
		threads = opt.ConservativeThreads
		analyze, probe, muxQueue = conservativeAnalyze, conservativeProbe, conservativeMuxQueue
	}
	if threads < 1 {
		threads = 1
	}
	if analyze == "" {
		analyze = conservativeAnalyze
	}
	if probe == "" {
		probe = conservativeProbe
	}
	if muxQueue <= 0 {
		muxQueue = conservativeMuxQueue
	}

	args := make([]string, 0, 48)
	if tier == TierOptimal && opt.HWAccel != "" {
		args = append(args, "-hwaccel", opt.HWAccel)
	}
	args = append(args,
		"-i", input,
		"-threads", strconv.Itoa(threads),
		"-strict", "experimental",
		"-analyzeduration", analyze,
		"-probesize", probe,
		"-max_muxing_queue_size", strconv.Itoa(muxQueue),
		"-fflags", "+genpts+fastseek",
		"-avoid_negative_ts", "make_zero",
		"-c:v", s.VideoCodec,
	)

	switch s.VideoCodec {
	case "libx264":
		args = append(args, "-crf", strconv.Itoa(s.CRF), "-preset", s.Preset,
			"-x264-params", "threads="+strconv.Itoa(threads)+":lookahead-threads="+strconv.Itoa(max(1, threads/4)))
	case "libx265":
		args = append(args, "-crf", strconv.Itoa(s.CRF), "-preset", s.Preset,
			"-x265-params", "pools="+strconv.Itoa(threads)+":frame-threads="+strconv.Itoa(min(4, max(1, threads/2))))
	}

	if v, ok := s.VideoBitrate.Get(); ok {
		args = append(args, "-b:v", v)
	}
	if v, ok := s.Resolution.Get(); ok {
		if size, found := settings.LookupResolution(v); found {
			args = append(args, "-vf", "scale="+size)
		}
	}
	if v, ok := s.FPS.Get(); ok {
		args = append(args, "-r", v)
	}

	args = append(args, "-c:a", s.AudioCodec)
	if v, ok := s.AudioBitrate.Get(); ok {
		args = append(args, "-b:a", v)
	}
	if v, ok := s.AudioSampleRate.Get(); ok {
		args = append(args, "-ar", v)
	}
	if v, ok := s.AudioChannels.Get(); ok && (v == "1" || v == "2") {
		args = append(args, "-ac", v)
	}

	return append(args, "-y", output)
}

// Extracted holds the settings recoverable from an argument vector.
type Extracted struct {
	VideoCodec string
	CRF        int
	HasCRF     bool
	Preset     string
	Threads    int
	HWAccel    string
}

// ExtractSettings reads back the recognizable flags of a built command.
func ExtractSettings(args []string) Extracted {
	var e Extracted
	for i := 0; i+1 < len(args); i++ {
		val := args[i+1]
		switch args[i] {
		case "-c:v":
			e.VideoCodec = val
		case "-crf":
			if n, err := strconv.Atoi(val); err == nil {
				e.CRF, e.HasCRF = n, true
			}
		case "-preset":
			e.Preset = val
		case "-threads":
			e.Threads, _ = strconv.Atoi(val)
		case "-hwaccel":
			e.HWAccel = val
		default:
			continue
		}
		i++
	}
	return e
}

// CountFlag returns how many times flag appears in args.
func CountFlag(args []string, flag string) int {
	n := 0
	for _, a := range args {
		if a == flag {
			n++
		}
	}
	return n
}
