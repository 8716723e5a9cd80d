package deps

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"testing"

	"hoffenc/internal/util"
)

func stubEnv(t *testing.T, onPath map[string]string, existing map[string]bool, osName string) {
	t.Helper()
	oldLook, oldStat, oldOS := lookPath, statFile, goos
	t.Cleanup(func() { lookPath, statFile, goos = oldLook, oldStat, oldOS })
	lookPath = func(name string) (string, error) {
		if p, ok := onPath[name]; ok {
			return p, nil
		}
		return "", errors.New("not found")
	}
	statFile = func(name string) (os.FileInfo, error) {
		if existing[name] {
			return nil, nil
		}
		return nil, fs.ErrNotExist
	}
	goos = osName
}

func TestFindFFmpeg(t *testing.T) {
	tests := []struct {
		name     string
		custom   string
		onPath   map[string]string
		existing map[string]bool
		want     string
		wantErr  bool
	}{
		{
			name:   "found in PATH",
			onPath: map[string]string{"ffmpeg": "/bin/ffmpeg"},
			want:   "/bin/ffmpeg",
		},
		{
			name:     "common location fallback",
			existing: map[string]bool{"/usr/local/bin/ffmpeg": true},
			want:     "/usr/local/bin/ffmpeg",
		},
		{
			name:     "custom path exists",
			custom:   "/opt/ff/ffmpeg",
			existing: map[string]bool{"/opt/ff/ffmpeg": true},
			want:     "/opt/ff/ffmpeg",
		},
		{
			name:    "custom path missing is not silently replaced",
			custom:  "/nope/ffmpeg",
			onPath:  map[string]string{"ffmpeg": "/bin/ffmpeg"},
			wantErr: true,
		},
		{
			name:    "nowhere",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stubEnv(t, tt.onPath, tt.existing, "linux")
			got, err := FindFFmpeg(tt.custom)
			if tt.wantErr {
				var tnf *ToolNotFoundError
				if !errors.As(err, &tnf) {
					t.Fatalf("FindFFmpeg() err = %v, want *ToolNotFoundError", err)
				}
				if tnf.Tool != "ffmpeg" {
					t.Errorf("Tool = %q, want ffmpeg", tnf.Tool)
				}
				return
			}
			if err != nil {
				t.Fatalf("FindFFmpeg() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("FindFFmpeg() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFindFFprobe_Darwin(t *testing.T) {
	stubEnv(t, nil, map[string]bool{"/opt/homebrew/bin/ffprobe": true}, "darwin")
	got, err := FindFFprobe("")
	if err != nil {
		t.Fatalf("FindFFprobe() error: %v", err)
	}
	if got != "/opt/homebrew/bin/ffprobe" {
		t.Errorf("FindFFprobe() = %q", got)
	}
}

func TestVersion(t *testing.T) {
	r := util.RunnerFunc(func(_ context.Context, spec util.CmdSpec) (util.CmdResult, error) {
		if len(spec.Args) != 1 || spec.Args[0] != "-version" {
			t.Errorf("args = %v, want [-version]", spec.Args)
		}
		return util.CmdResult{Stdout: []byte("ffmpeg version 6.1 Copyright\nbuilt with gcc\n")}, nil
	})
	got, err := Version(context.Background(), r, "/bin/ffmpeg")
	if err != nil {
		t.Fatalf("Version() error: %v", err)
	}
	if got != "ffmpeg version 6.1 Copyright" {
		t.Errorf("Version() = %q", got)
	}
}
