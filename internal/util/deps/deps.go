// Package deps locates the external ffmpeg tools.
package deps

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"hoffenc/internal/util"
)

// ToolNotFoundError reports a missing external binary.
type ToolNotFoundError struct {
	Tool     string
	Searched []string
}

func (e *ToolNotFoundError) Error() string {
	return fmt.Sprintf("could not find %s in PATH or common install locations. Please install ffmpeg.", e.Tool)
}

// lookPath and statFile are swapped in tests.
var (
	lookPath = exec.LookPath
	statFile = os.Stat
	goos     = runtime.GOOS
)

// FindFFmpeg returns the ffmpeg binary, preferring customPath when set.
func FindFFmpeg(customPath string) (string, error) {
	return find("ffmpeg", customPath)
}

// FindFFprobe returns the ffprobe binary, preferring customPath when set.
func FindFFprobe(customPath string) (string, error) {
	return find("ffprobe", customPath)
}

func find(name, customPath string) (string, error) {
	if customPath != "" {
		if _, err := statFile(customPath); err == nil {
			return customPath, nil
		}
		if p, err := lookPath(customPath); err == nil {
			return p, nil
		}
		return "", &ToolNotFoundError{Tool: name, Searched: []string{customPath}}
	}
	if p, err := lookPath(name); err == nil {
		return p, nil
	}
	candidates := commonLocations(name)
	for _, p := range candidates {
		if _, err := statFile(p); err == nil {
			return p, nil
		}
	}
	return "", &ToolNotFoundError{Tool: name, Searched: append([]string{"$PATH"}, candidates...)}
}

func commonLocations(name string) []string {
	switch goos {
	case "darwin":
		return []string{"/opt/homebrew/bin/" + name, "/usr/local/bin/" + name}
	case "linux":
		return []string{"/usr/bin/" + name, "/usr/local/bin/" + name, "/snap/bin/" + name}
	case "windows":
		return []string{
			`C:\ffmpeg\bin\` + name + ".exe",
			`C:\Program Files\ffmpeg\bin\` + name + ".exe",
		}
	}
	return nil
}

// Version runs `<bin> -version` and returns its first output line.
func Version(ctx context.Context, runner util.CmdRunner, bin string) (string, error) {
	if runner == nil {
		runner = util.NewDefaultRunner()
	}
	res, err := runner.Run(ctx, util.CmdSpec{
		Path:          bin,
		Args:          []string{"-version"},
		CaptureStdout: true,
		Timeout:       5 * time.Second,
	})
	if err != nil {
		return "", err
	}
	line, _, _ := strings.Cut(strings.TrimSpace(string(res.Stdout)), "\n")
	return strings.TrimSpace(line), nil
}
