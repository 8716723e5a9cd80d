package encoder

import (
	"reflect"
	"testing"

	"hoffenc/internal/capability"
	"hoffenc/internal/settings"
)

func testOptimal() capability.Optimal {
	return capability.Optimal{
		OptimalThreads:      16,
		ConservativeThreads: 8,
		MaxThreads:          16,
		HWAccel:             "cuda",
		HWDecoder:           "cuda",
		HWEncoder:           "h264_nvenc",
		BufferSize:          "200M",
		MuxQueueSize:        2048,
		ProbeSize:           "200M",
		AnalyzeDuration:     "200M",
	}
}

func TestBuild_OptimalOrder(t *testing.T) {
	s := settings.Defaults()
	s.Resolution = settings.ExplicitValue("720p (1280x720)")
	s.FPS = settings.ExplicitValue("30")
	s.AudioSampleRate = settings.ExplicitValue("48000")
	s.AudioChannels = settings.ExplicitValue("2")

	got := Build("in.mov", "out.mp4", s, testOptimal(), TierOptimal)
	want := []string{
		"-hwaccel", "cuda",
		"-i", "in.mov",
		"-threads", "16",
		"-strict", "experimental",
		"-analyzeduration", "200M",
		"-probesize", "200M",
		"-max_muxing_queue_size", "2048",
		"-fflags", "+genpts+fastseek",
		"-avoid_negative_ts", "make_zero",
		"-c:v", "libx264",
		"-crf", "23", "-preset", "medium",
		"-x264-params", "threads=16:lookahead-threads=4",
		"-vf", "scale=1280x720",
		"-r", "30",
		"-c:a", "aac",
		"-b:a", "128k",
		"-ar", "48000",
		"-ac", "2",
		"-y", "out.mp4",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Build() =\n%q\nwant\n%q", got, want)
	}
}

func TestBuild_ConservativeTier(t *testing.T) {
	s := settings.Defaults()
	s.VideoCodec = "libx265"
	got := Build("in.mkv", "out.mp4", s, testOptimal(), TierConservative)
	if n := CountFlag(got, "-hwaccel"); n != 0 {
		t.Errorf("conservative command has %d -hwaccel flags: %q", n, got)
	}
	e := ExtractSettings(got)
	if e.Threads != 8 {
		t.Errorf("threads = %d, want 8", e.Threads)
	}
	wantTuning := []string{"-analyzeduration", "50M", "-probesize", "50M", "-max_muxing_queue_size", "512"}
	if !containsSeq(got, wantTuning) {
		t.Errorf("Build() = %q, missing %q", got, wantTuning)
	}
	if !containsSeq(got, []string{"-x265-params", "pools=8:frame-threads=4"}) {
		t.Errorf("Build() = %q, missing x265 params", got)
	}
	if got[0] != "-i" {
		t.Errorf("first arg = %q, want -i", got[0])
	}
}

func TestBuild_NoHWAccelWhenNoneDetected(t *testing.T) {
	opt := testOptimal()
	opt.HWAccel = ""
	got := Build("a", "b", settings.Defaults(), opt, TierOptimal)
	if CountFlag(got, "-hwaccel") != 0 {
		t.Errorf("Build() = %q, want no -hwaccel", got)
	}
}

func TestBuild_VideoBitrate(t *testing.T) {
	tests := []struct {
		name  string
		value settings.Value
		want  int
	}{
		{"auto", settings.Auto(), 0},
		{"original", settings.Original(), 0},
		{"explicit", settings.ExplicitValue("2500k"), 1},
		{"lowercase auto is explicit", settings.ParseValue("auto"), 1},
		{"empty", settings.ExplicitValue(""), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := settings.Defaults()
			s.VideoBitrate = tt.value
			got := Build("a", "b", s, testOptimal(), TierOptimal)
			if n := CountFlag(got, "-b:v"); n != tt.want {
				t.Fatalf("-b:v count = %d, want %d (%q)", n, tt.want, got)
			}
			if tt.want == 1 && !containsSeq(got, []string{"-b:v", tt.value.String()}) {
				t.Errorf("Build() = %q, want -b:v %s", got, tt.value)
			}
		})
	}
}

func TestBuild_ConditionalFlags(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*settings.EncodingSettings)
		flag    string
		present bool
	}{
		{"resolution original", func(s *settings.EncodingSettings) { s.Resolution = settings.Original() }, "-vf", false},
		{"resolution unknown size", func(s *settings.EncodingSettings) { s.Resolution = settings.ExplicitValue("1000x1000") }, "-vf", false},
		{"resolution table size", func(s *settings.EncodingSettings) { s.Resolution = settings.ExplicitValue("1920x1080") }, "-vf", true},
		{"fps original", func(s *settings.EncodingSettings) { s.FPS = settings.Original() }, "-r", false},
		{"sample rate explicit", func(s *settings.EncodingSettings) { s.AudioSampleRate = settings.ExplicitValue("44100") }, "-ar", true},
		{"channels mono", func(s *settings.EncodingSettings) { s.AudioChannels = settings.ExplicitValue("1") }, "-ac", true},
		{"channels 5.1 ignored", func(s *settings.EncodingSettings) { s.AudioChannels = settings.ExplicitValue("6") }, "-ac", false},
		{"channels stereo label ignored", func(s *settings.EncodingSettings) { s.AudioChannels = settings.ExplicitValue("Stereo") }, "-ac", false},
		{"vp9 has no crf", func(s *settings.EncodingSettings) { s.VideoCodec = "libvpx-vp9" }, "-crf", false},
		{"vp9 has no preset", func(s *settings.EncodingSettings) { s.VideoCodec = "libvpx-vp9" }, "-preset", false},
		{"audio bitrate auto", func(s *settings.EncodingSettings) { s.AudioBitrate = settings.Auto() }, "-b:a", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := settings.Defaults()
			tt.mutate(&s)
			got := Build("a", "b", s, testOptimal(), TierOptimal)
			if present := CountFlag(got, tt.flag) > 0; present != tt.present {
				t.Errorf("%s present = %v, want %v (%q)", tt.flag, present, tt.present, got)
			}
			if got[len(got)-2] != "-y" || got[len(got)-1] != "b" {
				t.Errorf("command does not end with -y <output>: %q", got)
			}
		})
	}
}

func TestBuild_RoundTrip(t *testing.T) {
	for _, codec := range []string{"libx264", "libx265"} {
		for _, preset := range settings.Presets {
			for _, crf := range []int{0, 18, 23, 51} {
				s := settings.Defaults()
				s.VideoCodec, s.Preset, s.CRF = codec, preset, crf
				for _, tier := range []Tier{TierOptimal, TierConservative} {
					e := ExtractSettings(Build("in", "out", s, testOptimal(), tier))
					if e.VideoCodec != codec || e.Preset != preset || !e.HasCRF || e.CRF != crf {
						t.Errorf("round trip %s/%s/%d/%s = %+v", codec, preset, crf, tier, e)
					}
				}
			}
		}
	}
}

func TestParseTier(t *testing.T) {
	if tier, ok := ParseTier("conservative"); !ok || tier != TierConservative {
		t.Errorf("ParseTier(conservative) = %v, %v", tier, ok)
	}
	if _, ok := ParseTier("fast"); ok {
		t.Errorf("ParseTier(fast) ok = true")
	}
}

func containsSeq(args, seq []string) bool {
	for i := 0; i+len(seq) <= len(args); i++ {
		if reflect.DeepEqual(args[i:i+len(seq)], seq) {
			return true
		}
	}
	return false
}
