// Package mediaprobe reads container and stream metadata through ffprobe.
package mediaprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"hoffenc/internal/util"
)

// NoAudio is the AudioCodec of a file without an audio stream.
const NoAudio = "None"

// VideoInfo describes one input file.
type VideoInfo struct {
	Path        string  `json:"path"`
	Filename    string  `json:"filename"`
	Duration    float64 `json:"duration"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	AspectRatio string  `json:"aspect_ratio"`
	VideoCodec  string  `json:"codec"`
	AudioCodec  string  `json:"audio_codec"`
	Bitrate     int64   `json:"bitrate"`
	FileSize    int64   `json:"file_size"`
	FPS         float64 `json:"fps"`
}

// Pixels returns Width*Height.
func (v VideoInfo) Pixels() int { return v.Width * v.Height }

// Prober runs ffprobe.
type Prober struct {
	ffprobePath string
	runner      util.CmdRunner
	timeout     time.Duration
	log         zerolog.Logger
}

// Option configures a Prober.
type Option func(*Prober)

// WithFFprobePath sets the ffprobe binary to run.
func WithFFprobePath(p string) Option { return func(pr *Prober) { pr.ffprobePath = p } }

// WithRunner injects a custom command runner (useful for testing).
func WithRunner(r util.CmdRunner) Option { return func(pr *Prober) { pr.runner = r } }

// WithTimeout bounds each ffprobe run. The default is 30s.
func WithTimeout(d time.Duration) Option { return func(pr *Prober) { pr.timeout = d } }

// WithLogger sets the logger used for probe failures.
func WithLogger(l zerolog.Logger) Option { return func(pr *Prober) { pr.log = l } }

const defaultTimeout = 30 * time.Second

// New returns a Prober. Without WithFFprobePath it runs "ffprobe" from PATH.
func New(opts ...Option) *Prober {
	p := &Prober{ffprobePath: "ffprobe", timeout: defaultTimeout, log: zerolog.Nop()}
	for _, o := range opts {
		o(p)
	}
	if p.runner == nil {
		p.runner = util.NewDefaultRunner()
	}
	return p
}

// Probe returns metadata for path. It reports false when ffprobe fails, its
// output is not valid JSON, or the file has no video stream.
func (p *Prober) Probe(ctx context.Context, path string) (VideoInfo, bool) {
	res, err := p.runner.Run(ctx, util.CmdSpec{
		Path:          p.ffprobePath,
		Args:          []string{"-v", "quiet", "-print_format", "json", "-show_format", "-show_streams", path},
		CaptureStdout: true,
		Timeout:       p.timeout,
	})
	if err != nil {
		p.log.Debug().Err(err).Str("path", path).Msg("ffprobe failed")
		return VideoInfo{}, false
	}
	var size int64 = -1
	if fi, err := os.Stat(path); err == nil {
		size = fi.Size()
	}
	info, err := ParseJSON(path, res.Stdout, size)
	if err != nil {
		p.log.Debug().Err(err).Str("path", path).Msg("ffprobe output unusable")
		return VideoInfo{}, false
	}
	return info, true
}

type probeStream struct {
	CodecType  string `json:"codec_type"`
	CodecName  string `json:"codec_name"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	RFrameRate string `json:"r_frame_rate"`
}

type probeFormat struct {
	Duration json.RawMessage `json:"duration"`
	Size     json.RawMessage `json:"size"`
	BitRate  json.RawMessage `json:"bit_rate"`
}

type probeOutput struct {
	Streams []probeStream `json:"streams"`
	Format  probeFormat   `json:"format"`
}

// ErrNoVideo is returned by ParseJSON when no video stream is present.
var ErrNoVideo = errors.New("no video stream")

// ParseJSON decodes ffprobe -show_format -show_streams output. size is the
// on-disk size; a negative size falls back to the container's reported size.
func ParseJSON(path string, data []byte, size int64) (VideoInfo, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return VideoInfo{}, fmt.Errorf("parse ffprobe JSON: %w", err)
	}
	var video, audio *probeStream
	for i := range out.Streams {
		s := &out.Streams[i]
		switch s.CodecType {
		case "video":
			if video == nil {
				video = s
			}
		case "audio":
			if audio == nil {
				audio = s
			}
		}
	}
	if video == nil {
		return VideoInfo{}, ErrNoVideo
	}

	info := VideoInfo{
		Path:        path,
		Filename:    filepath.Base(path),
		Duration:    lenientFloat(out.Format.Duration),
		Width:       video.Width,
		Height:      video.Height,
		AspectRatio: AspectRatio(video.Width, video.Height),
		VideoCodec:  video.CodecName,
		AudioCodec:  NoAudio,
		Bitrate:     int64(lenientFloat(out.Format.BitRate)),
		FileSize:    size,
		FPS:         ParseFrameRate(video.RFrameRate),
	}
	if info.VideoCodec == "" {
		info.VideoCodec = "Unknown"
	}
	if audio != nil && audio.CodecName != "" {
		info.AudioCodec = audio.CodecName
	}
	if info.FileSize < 0 {
		info.FileSize = int64(lenientFloat(out.Format.Size))
	}
	return info, nil
}

// AspectRatio reduces width:height by their GCD, or returns "Unknown".
func AspectRatio(w, h int) string {
	if w <= 0 || h <= 0 {
		return "Unknown"
	}
	g := gcd(w, h)
	return strconv.Itoa(w/g) + ":" + strconv.Itoa(h/g)
}

// ParseFrameRate parses "num/den" or a plain number. A zero denominator or
// malformed input yields 0.
func ParseFrameRate(s string) float64 {
	num, den, found := strings.Cut(s, "/")
	n, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
	if err != nil {
		return 0
	}
	if !found {
		return n
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(den), 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}

// lenientFloat accepts ffprobe's quoted numbers as well as bare ones.
func lenientFloat(raw json.RawMessage) float64 {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return 0
	}
	return f
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
