// Package capability detects host encoding capabilities and derives the
// thread, buffer and hardware-acceleration parameters used by the command
// builder.
package capability

import (
	"context"
	"math"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"hoffenc/internal/util"
)

// Specs is a point-in-time description of the host. A Specs value is never
// mutated after Detect returns it.
type Specs struct {
	PhysicalCores     int       `json:"cpu_cores_physical"`
	LogicalCores      int       `json:"cpu_cores_logical"`
	CPUBrand          string    `json:"cpu_brand"`
	MaxFreqMHz        float64   `json:"cpu_freq_max_mhz"`
	MemoryTotalGB     float64   `json:"memory_total_gb"`
	MemoryAvailableGB float64   `json:"memory_available_gb"`
	GPUs              []string  `json:"gpu_info"`
	HWAccels          []string  `json:"hw_acceleration"`
	Encoders          []string  `json:"ffmpeg_encoders"`
	DetectedAt        time.Time `json:"detected_at"`

	// Degraded names detection steps that fell back to defaults.
	Degraded []string `json:"degraded,omitempty"`
}

// HasGPU reports whether any detected GPU description mentions vendor.
func (s Specs) HasGPU(vendor string) bool {
	vendor = strings.ToLower(vendor)
	for _, g := range s.GPUs {
		if strings.Contains(strings.ToLower(g), vendor) {
			return true
		}
	}
	return false
}

// HasHWAccel reports whether ffmpeg listed the backend.
func (s Specs) HasHWAccel(name string) bool { return contains(s.HWAccels, name) }

// HasEncoder reports whether ffmpeg listed the encoder.
func (s Specs) HasEncoder(name string) bool { return contains(s.Encoders, name) }

// CPUInfo is what the host source reports about processors.
type CPUInfo struct {
	Physical int
	Logical  int
	Brand    string
	MaxMHz   float64
}

// MemoryInfo is what the host source reports about RAM, in bytes.
type MemoryInfo struct {
	Total     uint64
	Available uint64
}

// Host reports CPU and memory facts.
type Host interface {
	CPU(ctx context.Context) (CPUInfo, error)
	Memory(ctx context.Context) (MemoryInfo, error)
}

type gopsutilHost struct{}

func (gopsutilHost) CPU(ctx context.Context) (CPUInfo, error) {
	var ci CPUInfo
	logical, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		return ci, err
	}
	ci.Logical = logical
	if physical, err := cpu.CountsWithContext(ctx, false); err == nil {
		ci.Physical = physical
	}
	if infos, err := cpu.InfoWithContext(ctx); err == nil && len(infos) > 0 {
		ci.Brand = strings.TrimSpace(infos[0].ModelName)
		for _, in := range infos {
			if in.Mhz > ci.MaxMHz {
				ci.MaxMHz = in.Mhz
			}
		}
	}
	return ci, nil
}

func (gopsutilHost) Memory(ctx context.Context) (MemoryInfo, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return MemoryInfo{}, err
	}
	return MemoryInfo{Total: vm.Total, Available: vm.Available}, nil
}

// Fallback values used when a detection step fails.
const (
	fallbackTotalGB     = 8.0
	fallbackAvailableGB = 4.0
	fallbackCores       = 4
)

// KnownEncoders are the ffmpeg encoders the optimizer cares about.
var KnownEncoders = []string{
	"libx264", "libx265",
	"h264_nvenc", "hevc_nvenc",
	"h264_vaapi", "hevc_vaapi",
	"h264_qsv", "hevc_qsv",
}

const (
	gpuTimeout      = 10 * time.Second
	hwaccelTimeout  = 10 * time.Second
	encodersTimeout = 15 * time.Second
	hostTimeout     = 10 * time.Second
)

// Detector runs the capability probe.
type Detector struct {
	ffmpegPath string
	runner     util.CmdRunner
	host       Host
	log        zerolog.Logger
	now        func() time.Time
}

// Option configures a Detector.
type Option func(*Detector)

// WithFFmpegPath sets the ffmpeg binary queried for hwaccels and encoders.
func WithFFmpegPath(p string) Option {
	return func(d *Detector) { d.ffmpegPath = p }
}

// WithRunner injects the subprocess runner.
func WithRunner(r util.CmdRunner) Option {
	return func(d *Detector) { d.runner = r }
}

// WithHost replaces the gopsutil-backed host source.
func WithHost(h Host) Option {
	return func(d *Detector) { d.host = h }
}

// WithLogger sets the logger used for degraded steps.
func WithLogger(l zerolog.Logger) Option {
	return func(d *Detector) { d.log = l }
}

// NewDetector returns a Detector with defaults for anything not configured.
func NewDetector(opts ...Option) *Detector {
	d := &Detector{
		ffmpegPath: "ffmpeg",
		log:        zerolog.Nop(),
		now:        time.Now,
	}
	for _, o := range opts {
		o(d)
	}
	if d.runner == nil {
		d.runner = util.NewDefaultRunner()
	}
	if d.host == nil {
		d.host = gopsutilHost{}
	}
	return d
}

// Detect gathers Specs. It always returns a usable value; failed steps are
// recorded in Specs.Degraded and filled with defaults.
func (d *Detector) Detect(ctx context.Context) Specs {
	s := Specs{DetectedAt: d.now()}
	degrade := func(step string, err error) {
		s.Degraded = append(s.Degraded, step)
		d.log.Debug().Str("step", step).Err(err).Msg("capability detection degraded")
	}

	hctx, cancel := context.WithTimeout(ctx, hostTimeout)
	ci, err := d.host.CPU(hctx)
	cancel()
	if err != nil || ci.Logical <= 0 {
		degrade("cpu", err)
		ci.Logical = runtime.NumCPU()
		if ci.Logical <= 0 {
			ci.Logical = fallbackCores
		}
	}
	if ci.Physical <= 0 {
		ci.Physical = ci.Logical
	}
	if ci.Brand == "" {
		ci.Brand = "Unknown"
	}
	s.PhysicalCores, s.LogicalCores, s.CPUBrand, s.MaxFreqMHz = ci.Physical, ci.Logical, ci.Brand, ci.MaxMHz

	hctx, cancel = context.WithTimeout(ctx, hostTimeout)
	mi, err := d.host.Memory(hctx)
	cancel()
	if err != nil || mi.Total == 0 {
		degrade("memory", err)
		s.MemoryTotalGB, s.MemoryAvailableGB = fallbackTotalGB, fallbackAvailableGB
	} else {
		s.MemoryTotalGB = bytesToGB(mi.Total)
		s.MemoryAvailableGB = bytesToGB(mi.Available)
	}

	s.GPUs = d.detectGPUs(ctx, degrade)

	if accels, err := d.detectHWAccels(ctx); err != nil {
		degrade("hwaccels", err)
	} else {
		s.HWAccels = accels
	}

	if enc, err := d.detectEncoders(ctx); err != nil || len(enc) == 0 {
		degrade("encoders", err)
		s.Encoders = []string{"libx264"}
	} else {
		s.Encoders = enc
	}
	return s
}

func (d *Detector) detectGPUs(ctx context.Context, degrade func(string, error)) []string {
	var gpus []string
	res, err := d.runner.Run(ctx, util.CmdSpec{
		Path:          "nvidia-smi",
		Args:          []string{"-L"},
		CaptureStdout: true,
		Timeout:       gpuTimeout,
	})
	if err == nil {
		gpus = append(gpus, ParseNvidiaSMI(string(res.Stdout))...)
	} else {
		d.log.Debug().Err(err).Msg("nvidia-smi unavailable")
	}

	res, err = d.runner.Run(ctx, util.CmdSpec{
		Path:          "lspci",
		Args:          []string{"-nn"},
		CaptureStdout: true,
		Timeout:       gpuTimeout,
	})
	if err == nil {
		gpus = append(gpus, ParseLspci(string(res.Stdout))...)
	} else if runtime.GOOS == "linux" {
		degrade("lspci", err)
	}
	return gpus
}

func (d *Detector) detectHWAccels(ctx context.Context) ([]string, error) {
	res, err := d.runner.Run(ctx, util.CmdSpec{
		Path:          d.ffmpegPath,
		Args:          []string{"-hide_banner", "-hwaccels"},
		CaptureStdout: true,
		Timeout:       hwaccelTimeout,
	})
	if err != nil {
		return nil, err
	}
	return ParseHWAccels(string(res.Stdout)), nil
}

func (d *Detector) detectEncoders(ctx context.Context) ([]string, error) {
	res, err := d.runner.Run(ctx, util.CmdSpec{
		Path:          d.ffmpegPath,
		Args:          []string{"-hide_banner", "-encoders"},
		CaptureStdout: true,
		Timeout:       encodersTimeout,
	})
	if err != nil {
		return nil, err
	}
	return ParseEncoders(string(res.Stdout)), nil
}

// ParseNvidiaSMI turns `nvidia-smi -L` output into GPU descriptions.
func ParseNvidiaSMI(out string) []string {
	var gpus []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		gpus = append(gpus, "NVIDIA "+line)
	}
	return gpus
}

// ParseLspci extracts display controllers from `lspci -nn` output. NVIDIA
// devices are skipped because nvidia-smi already reports them.
func ParseLspci(out string) []string {
	var gpus []string
	for _, line := range strings.Split(out, "\n") {
		lower := strings.ToLower(line)
		if !strings.Contains(lower, "vga") && !strings.Contains(lower, "3d") &&
			!strings.Contains(lower, "display") && !strings.Contains(lower, "graphics") {
			continue
		}
		name := line
		if i := strings.LastIndex(line, ": "); i >= 0 {
			name = line[i+2:]
		}
		name = strings.TrimSpace(name)
		switch {
		case strings.Contains(lower, "nvidia"):
			continue
		case strings.Contains(lower, "intel"):
			gpus = append(gpus, "Intel "+strings.TrimPrefix(name, "Intel Corporation "))
		case strings.Contains(lower, "amd"), strings.Contains(lower, "ati technologies"):
			gpus = append(gpus, "AMD "+strings.TrimPrefix(name, "Advanced Micro Devices, Inc. "))
		default:
			gpus = append(gpus, name)
		}
	}
	return gpus
}

// ParseHWAccels parses `ffmpeg -hwaccels` output, skipping the header line.
func ParseHWAccels(out string) []string {
	var accels []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasSuffix(line, ":") {
			continue
		}
		accels = append(accels, line)
	}
	return accels
}

// ParseEncoders returns the KnownEncoders present in `ffmpeg -encoders` output.
func ParseEncoders(out string) []string {
	seen := make(map[string]bool)
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		// " V....D libx264   libx264 H.264 ..."
		seen[fields[1]] = true
	}
	var found []string
	for _, name := range KnownEncoders {
		if seen[name] {
			found = append(found, name)
		}
	}
	return found
}

func bytesToGB(b uint64) float64 {
	return math.Round(float64(b)/(1<<30)*100) / 100
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
