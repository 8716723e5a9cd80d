// Package cli holds argument handling shared by the cobra commands.
package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"hoffenc/internal/settings"
)

// SystemInfoFlag is the canonical long form of the system report switch.
const SystemInfoFlag = "--system-info"

var systemInfoAliases = map[string]bool{
	"-si":       true,
	"--sysinfo": true,
}

// NormalizeArgs rewrites the single-dash -si and the --sysinfo spelling to
// --system-info so pflag can parse them. Arguments after "--" are untouched.
func NormalizeArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for i, a := range args {
		if a == "--" {
			out = append(out, args[i:]...)
			break
		}
		if systemInfoAliases[a] {
			a = SystemInfoFlag
		}
		out = append(out, a)
	}
	return out
}

// BindSettingsFlags registers the encoding settings flags on fs.
func BindSettingsFlags(fs *pflag.FlagSet) {
	d := settings.Defaults()
	fs.String("video-codec", d.VideoCodec, "Video encoder: "+strings.Join(settings.VideoCodecs, "|"))
	fs.String("video-bitrate", d.VideoBitrate.String(), "Video bitrate (e.g. 5M, 2500k) or Auto")
	fs.String("resolution", d.Resolution.String(), "Target size (e.g. 1920x1080, \"720p (1280x720)\") or Original")
	fs.String("fps", d.FPS.String(), "Output frame rate or Original")
	fs.Int("crf", d.CRF, "Constant rate factor (0-51, libx264/libx265 only)")
	fs.String("preset", d.Preset, "Encoder preset: "+strings.Join(settings.Presets, "|"))
	fs.String("audio-codec", d.AudioCodec, "Audio encoder: "+strings.Join(settings.AudioCodecs, "|"))
	fs.String("audio-bitrate", d.AudioBitrate.String(), "Audio bitrate (e.g. 128k) or Auto")
	fs.String("audio-sample-rate", d.AudioSampleRate.String(), "Audio sample rate in Hz or Original")
	fs.String("audio-channels", d.AudioChannels.String(), "Audio channel count or Original")
	fs.String("format", d.OutputFormat, "Output container extension (mp4, mkv, webm, ...)")
}

// SettingsFromFlags overlays the flags the user changed onto base and
// validates the result.
func SettingsFromFlags(fs *pflag.FlagSet, base settings.EncodingSettings) (settings.EncodingSettings, error) {
	s := base
	str := func(name string, dst *string) {
		if fs.Changed(name) {
			*dst, _ = fs.GetString(name)
		}
	}
	val := func(name string, dst *settings.Value) {
		if fs.Changed(name) {
			v, _ := fs.GetString(name)
			*dst = settings.ParseValue(v)
		}
	}

	str("video-codec", &s.VideoCodec)
	str("preset", &s.Preset)
	str("audio-codec", &s.AudioCodec)
	str("format", &s.OutputFormat)
	val("video-bitrate", &s.VideoBitrate)
	val("resolution", &s.Resolution)
	val("fps", &s.FPS)
	val("audio-bitrate", &s.AudioBitrate)
	val("audio-sample-rate", &s.AudioSampleRate)
	val("audio-channels", &s.AudioChannels)
	if fs.Changed("crf") {
		s.CRF, _ = fs.GetInt("crf")
	}

	s.Preset = strings.ToLower(s.Preset)
	s.OutputFormat = strings.TrimPrefix(strings.ToLower(s.OutputFormat), ".")

	if err := s.Validate(); err != nil {
		return settings.EncodingSettings{}, fmt.Errorf("invalid settings: %w", err)
	}
	return s, nil
}
