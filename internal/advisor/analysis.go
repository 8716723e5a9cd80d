// Package advisor recommends encoding settings for an input file, either
// from a remote chat-completions model or from built-in rules.
package advisor

import (
	"strings"

	"hoffenc/internal/mediaprobe"
	"hoffenc/internal/settings"
)

// Analysis is the advisor's view of one input.
type Analysis struct {
	ComplexityScore   float64 `json:"complexity_score" yaml:"complexity_score"`
	MotionLevel       string  `json:"motion_level" yaml:"motion_level"`
	SceneChanges      int     `json:"scene_changes" yaml:"scene_changes"`
	HasGrain          bool    `json:"has_grain" yaml:"has_grain"`
	HasDarkScenes     bool    `json:"has_dark_scenes" yaml:"has_dark_scenes"`
	HasFineDetails    bool    `json:"has_fine_details" yaml:"has_fine_details"`
	AudioComplexity   string  `json:"audio_complexity" yaml:"audio_complexity"`
	RecommendedCRF    int     `json:"recommended_crf" yaml:"recommended_crf"`
	RecommendedPreset string  `json:"recommended_preset" yaml:"recommended_preset"`
	Reasoning         string  `json:"reasoning,omitempty" yaml:"reasoning,omitempty"`
	// Source is "rules" or the remote model name.
	Source string `json:"-" yaml:"source"`
}

// CRF bounds for advisor recommendations.
const (
	minAdvisedCRF = 18
	maxAdvisedCRF = 28
)

const mb = 1024 * 1024

// RuleBased derives an Analysis from probe data alone.
func RuleBased(info mediaprobe.VideoInfo) Analysis {
	width, height := info.Width, info.Height
	if width <= 0 || height <= 0 {
		width, height = 1920, 1080
	}
	bitrate := float64(info.Bitrate)
	if bitrate <= 0 {
		bitrate = 5_000_000
	}
	fps := info.FPS
	if fps <= 0 {
		fps = 30
	}
	pixels := float64(width * height)
	sizeMB := float64(info.FileSize) / mb

	var crf float64
	switch {
	case pixels > 3840*2160*0.8:
		crf = 25
	case pixels > 1920*1080*0.8:
		crf = 26
	default:
		crf = 27
	}
	switch {
	case sizeMB > 1000:
		crf += 2
	case sizeMB > 500:
		crf++
	}
	if isHEVC(info.VideoCodec) {
		crf++
	}
	switch {
	case info.Duration > 3600:
		crf++
	case info.Duration > 1800:
		crf += 0.5
	}

	motion := "low"
	switch {
	case fps > 50:
		motion = "high"
	case fps > 30:
		motion = "medium"
	}

	expected := pixels * fps * 0.1
	return Analysis{
		ComplexityScore:   min(bitrate/expected, 1),
		MotionLevel:       motion,
		SceneChanges:      int(info.Duration * 2),
		HasGrain:          bitrate > expected*1.8,
		HasFineDetails:    bitrate > expected*1.3,
		AudioComplexity:   "simple",
		RecommendedCRF:    clampCRF(int(crf)),
		RecommendedPreset: "medium",
		Source:            "rules",
	}
}

// OptimizedSettings applies an Analysis to base. The result always uses CRF
// mode in an MP4 container.
func OptimizedSettings(a Analysis, base settings.EncodingSettings) settings.EncodingSettings {
	s := base
	s.OutputFormat = "mp4"
	s.VideoBitrate = settings.Auto()
	s.CRF = a.RecommendedCRF
	if settings.PresetIndex(a.RecommendedPreset) >= 0 {
		s.Preset = a.RecommendedPreset
	}

	switch a.AudioComplexity {
	case "simple":
		s.AudioBitrate = settings.ExplicitValue("128k")
	case "complex":
		s.AudioBitrate = settings.ExplicitValue("192k")
	default:
		s.AudioBitrate = settings.ExplicitValue("160k")
	}

	switch {
	case a.ComplexityScore < 0.5:
		s.CRF = min(maxAdvisedCRF, a.RecommendedCRF+2)
	case a.HasFineDetails && a.ComplexityScore > 0.8:
		s.CRF = max(minAdvisedCRF, a.RecommendedCRF-1)
	}
	s.CRF = max(settings.MinCRF, min(settings.MaxCRF, s.CRF))
	return s
}

func clampCRF(v int) int {
	return max(minAdvisedCRF, min(maxAdvisedCRF, v))
}

func isHEVC(codec string) bool {
	c := strings.ToLower(codec)
	return strings.Contains(c, "265") || strings.Contains(c, "hevc")
}
