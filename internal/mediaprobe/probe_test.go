package mediaprobe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"hoffenc/internal/util"
)

const fixture = `{
  "streams": [
    {"index": 0, "codec_name": "h264", "codec_type": "video", "width": 1920, "height": 1080, "r_frame_rate": "30000/1001"},
    {"index": 1, "codec_name": "aac", "codec_type": "audio", "sample_rate": "48000", "channels": 2},
    {"index": 2, "codec_name": "hevc", "codec_type": "video", "width": 640, "height": 360, "r_frame_rate": "25/1"}
  ],
  "format": {"filename": "clip.mp4", "duration": "120.500000", "size": "73400320", "bit_rate": "4873000"}
}`

func TestParseJSON(t *testing.T) {
	got, err := ParseJSON("/videos/clip.mp4", []byte(fixture), -1)
	if err != nil {
		t.Fatalf("ParseJSON() error = %v", err)
	}
	want := VideoInfo{
		Path:        "/videos/clip.mp4",
		Filename:    "clip.mp4",
		Duration:    120.5,
		Width:       1920,
		Height:      1080,
		AspectRatio: "16:9",
		VideoCodec:  "h264",
		AudioCodec:  "aac",
		Bitrate:     4873000,
		FileSize:    73400320,
		FPS:         30000.0 / 1001.0,
	}
	if got != want {
		t.Errorf("ParseJSON() = %+v, want %+v", got, want)
	}
}

func TestParseJSON_EdgeCases(t *testing.T) {
	tests := []struct {
		name  string
		data  string
		check func(t *testing.T, v VideoInfo, err error)
	}{
		{
			name: "no video stream",
			data: `{"streams":[{"codec_type":"audio","codec_name":"mp3"}],"format":{}}`,
			check: func(t *testing.T, _ VideoInfo, err error) {
				if !errors.Is(err, ErrNoVideo) {
					t.Errorf("err = %v, want ErrNoVideo", err)
				}
			},
		},
		{
			name: "malformed json",
			data: `{"streams": [`,
			check: func(t *testing.T, _ VideoInfo, err error) {
				if err == nil {
					t.Errorf("err = nil, want parse error")
				}
			},
		},
		{
			name: "silent file with zero den",
			data: `{"streams":[{"codec_type":"video","width":0,"height":0,"r_frame_rate":"0/0"}],"format":{"duration":"N/A"}}`,
			check: func(t *testing.T, v VideoInfo, err error) {
				if err != nil {
					t.Fatalf("err = %v", err)
				}
				if v.AudioCodec != NoAudio || v.VideoCodec != "Unknown" || v.AspectRatio != "Unknown" {
					t.Errorf("sentinels = %q/%q/%q", v.AudioCodec, v.VideoCodec, v.AspectRatio)
				}
				if v.FPS != 0 || v.Duration != 0 || v.Bitrate != 0 {
					t.Errorf("fps/duration/bitrate = %v/%v/%v, want zeros", v.FPS, v.Duration, v.Bitrate)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := ParseJSON("x.mkv", []byte(tt.data), 10)
			tt.check(t, v, err)
		})
	}
}

func TestAspectRatioAndFrameRate(t *testing.T) {
	if got := AspectRatio(1280, 720); got != "16:9" {
		t.Errorf("AspectRatio(1280,720) = %q", got)
	}
	if got := AspectRatio(1080, 1920); got != "9:16" {
		t.Errorf("AspectRatio(1080,1920) = %q", got)
	}
	for in, want := range map[string]float64{"25/1": 25, "24": 24, "30/0": 0, "abc": 0, "": 0} {
		if got := ParseFrameRate(in); got != want {
			t.Errorf("ParseFrameRate(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestProber_Probe(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.mp4")
	if err := os.WriteFile(path, make([]byte, 2048), 0o644); err != nil {
		t.Fatal(err)
	}

	var gotSpec util.CmdSpec
	ok := util.RunnerFunc(func(_ context.Context, spec util.CmdSpec) (util.CmdResult, error) {
		gotSpec = spec
		return util.CmdResult{Stdout: []byte(fixture)}, nil
	})
	p := New(WithFFprobePath("/opt/ffprobe"), WithRunner(ok))
	info, found := p.Probe(context.Background(), path)
	if !found {
		t.Fatalf("Probe() found = false")
	}
	if info.FileSize != 2048 {
		t.Errorf("FileSize = %d, want on-disk 2048", info.FileSize)
	}
	if gotSpec.Path != "/opt/ffprobe" || gotSpec.Args[len(gotSpec.Args)-1] != path {
		t.Errorf("spec = %s %v", gotSpec.Path, gotSpec.Args)
	}
	if gotSpec.Timeout != defaultTimeout {
		t.Errorf("timeout = %v, want %v", gotSpec.Timeout, defaultTimeout)
	}

	fail := util.RunnerFunc(func(context.Context, util.CmdSpec) (util.CmdResult, error) {
		return util.CmdResult{Code: 1}, errors.New("exit 1")
	})
	if _, found := New(WithRunner(fail)).Probe(context.Background(), path); found {
		t.Errorf("Probe() with failing ffprobe found = true")
	}
}
