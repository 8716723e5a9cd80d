// Package settings defines the declarative encoding settings consumed by
// the command builder, along with the codec, preset and resolution tables.
package settings

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"hoffenc/internal/util/bitrate"
)

// EncodingSettings describes one encode. It is treated as immutable once an
// encode starts.
type EncodingSettings struct {
	VideoCodec      string `yaml:"video_codec" json:"video_codec"`
	VideoBitrate    Value  `yaml:"video_bitrate" json:"video_bitrate"`
	Resolution      Value  `yaml:"resolution" json:"resolution"`
	FPS             Value  `yaml:"fps" json:"fps"`
	CRF             int    `yaml:"crf" json:"crf"`
	Preset          string `yaml:"preset" json:"preset"`
	AudioCodec      string `yaml:"audio_codec" json:"audio_codec"`
	AudioBitrate    Value  `yaml:"audio_bitrate" json:"audio_bitrate"`
	AudioSampleRate Value  `yaml:"audio_sample_rate" json:"audio_sample_rate"`
	AudioChannels   Value  `yaml:"audio_channels" json:"audio_channels"`
	OutputFormat    string `yaml:"output_format" json:"output_format"`
	OutputDir       string `yaml:"output_directory,omitempty" json:"output_directory,omitempty"`
}

const (
	MinCRF = 0
	MaxCRF = 51
)

// Defaults returns CRF-mode H.264/AAC settings in an MP4 container.
func Defaults() EncodingSettings {
	return EncodingSettings{
		VideoCodec:      "libx264",
		VideoBitrate:    Auto(),
		Resolution:      Original(),
		FPS:             Original(),
		CRF:             23,
		Preset:          "medium",
		AudioCodec:      "aac",
		AudioBitrate:    ExplicitValue("128k"),
		AudioSampleRate: Original(),
		AudioChannels:   Original(),
		OutputFormat:    "mp4",
	}
}

// VideoCodecs lists the selectable video encoders.
var VideoCodecs = []string{"libx264", "libx265", "libvpx-vp9", "libvpx", "libaom-av1"}

// AudioCodecs lists the selectable audio encoders.
var AudioCodecs = []string{"aac", "libmp3lame", "libopus", "libvorbis", "ac3"}

// Presets is ordered from fastest to slowest.
var Presets = []string{
	"ultrafast", "superfast", "veryfast", "faster", "fast",
	"medium", "slow", "slower", "veryslow",
}

// Resolution pairs a display label with the scale filter size.
type Resolution struct {
	Label string
	Size  string
}

// Resolutions is the table of selectable target sizes.
var Resolutions = []Resolution{
	{Label: "4K (3840x2160)", Size: "3840x2160"},
	{Label: "1080p (1920x1080)", Size: "1920x1080"},
	{Label: "720p (1280x720)", Size: "1280x720"},
	{Label: "480p (854x480)", Size: "854x480"},
	{Label: "360p (640x360)", Size: "640x360"},
}

// LookupResolution maps a table label or a table WxH size to the WxH size.
func LookupResolution(v string) (string, bool) {
	for _, r := range Resolutions {
		if v == r.Label || v == r.Size {
			return r.Size, true
		}
	}
	return "", false
}

// IsCRFCodec reports whether codec takes -crf/-preset.
func IsCRFCodec(codec string) bool {
	return codec == "libx264" || codec == "libx265"
}

// PresetIndex returns the position of p in Presets, or -1.
func PresetIndex(p string) int {
	for i, v := range Presets {
		if v == p {
			return i
		}
	}
	return -1
}

// Validate checks the invariants an encode relies on.
func (s EncodingSettings) Validate() error {
	var errs []error
	if s.CRF < MinCRF || s.CRF > MaxCRF {
		errs = append(errs, fmt.Errorf("crf %d out of range [%d,%d]", s.CRF, MinCRF, MaxCRF))
	}
	if PresetIndex(s.Preset) < 0 {
		errs = append(errs, fmt.Errorf("invalid preset %q (valid: %s)", s.Preset, strings.Join(Presets, "|")))
	}
	if s.VideoCodec == "" {
		errs = append(errs, errors.New("video codec is required"))
	}
	if s.AudioCodec == "" {
		errs = append(errs, errors.New("audio codec is required"))
	}
	if s.OutputFormat == "" || strings.ContainsAny(s.OutputFormat, `/\.`) {
		errs = append(errs, fmt.Errorf("invalid output format %q", s.OutputFormat))
	}
	if v, ok := s.VideoBitrate.Get(); ok {
		if _, err := bitrate.ParseKbps(v); err != nil {
			errs = append(errs, fmt.Errorf("video bitrate: %w", err))
		}
	}
	if v, ok := s.AudioBitrate.Get(); ok {
		if _, err := bitrate.ParseKbps(v); err != nil {
			errs = append(errs, fmt.Errorf("audio bitrate: %w", err))
		}
	}
	for _, f := range []struct {
		name string
		v    Value
	}{{"fps", s.FPS}, {"audio sample rate", s.AudioSampleRate}} {
		if v, ok := f.v.Get(); ok {
			if n, err := strconv.Atoi(v); err != nil || n <= 0 {
				errs = append(errs, fmt.Errorf("%s %q must be a positive integer or %s", f.name, v, OriginalLiteral))
			}
		}
	}
	return errors.Join(errs...)
}

// UnmarshalYAML implements yaml.Unmarshaler. Keys absent from node keep
// their current value; an optional value written as null becomes Auto.
func (s *EncodingSettings) UnmarshalYAML(node *yaml.Node) error {
	type plain EncodingSettings
	if err := node.Decode((*plain)(s)); err != nil {
		return err
	}
	if node.Kind != yaml.MappingNode {
		return nil
	}
	optional := map[string]*Value{
		"video_bitrate":     &s.VideoBitrate,
		"resolution":        &s.Resolution,
		"fps":               &s.FPS,
		"audio_bitrate":     &s.AudioBitrate,
		"audio_sample_rate": &s.AudioSampleRate,
		"audio_channels":    &s.AudioChannels,
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		if val.Kind != yaml.ScalarNode || val.ShortTag() != "!!null" {
			continue
		}
		if p, ok := optional[key.Value]; ok {
			*p = Auto()
		}
	}
	return nil
}

// LoadProfile reads a YAML settings profile. Fields absent from the file
// keep their Defaults() value; optional values set to null mean Auto.
func LoadProfile(path string) (EncodingSettings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return EncodingSettings{}, err
	}
	s := Defaults()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return EncodingSettings{}, fmt.Errorf("parse profile %s: %w", path, err)
	}
	return s, nil
}

// SaveProfile writes s as YAML.
func SaveProfile(path string, s EncodingSettings) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
