package capability

import (
	"fmt"
	"strings"
)

// Optimal holds the encoder parameters derived from Specs.
// Empty HWAccel, HWDecoder or HWEncoder means software only.
type Optimal struct {
	OptimalThreads      int    `json:"optimal_threads"`
	ConservativeThreads int    `json:"conservative_threads"`
	MaxThreads          int    `json:"max_threads"`
	HWAccel             string `json:"preferred_hwaccel,omitempty"`
	HWDecoder           string `json:"hw_decoder,omitempty"`
	HWEncoder           string `json:"hw_encoder,omitempty"`
	BufferSize          string `json:"buffer_size"`
	MuxQueueSize        int    `json:"mux_queue_size"`
	ProbeSize           string `json:"probe_size"`
	AnalyzeDuration     string `json:"analyze_duration"`
	Reasoning           string `json:"reasoning"`
}

// Optimize derives Optimal from s. It performs no I/O and is total: for any
// input, 1 <= ConservativeThreads <= OptimalThreads <= MaxThreads and
// MaxThreads equals the logical core count (at least 1).
func Optimize(s Specs) Optimal {
	logical := s.LogicalCores
	if logical < 1 {
		logical = 1
	}
	physical := s.PhysicalCores
	if physical < 1 {
		physical = logical
	}
	mem := s.MemoryTotalGB

	var optimal, conservative int
	switch {
	case physical >= 16:
		optimal = min(20, physical)
		conservative = min(12, physical/2)
	case physical >= 8:
		optimal = min(16, physical+2)
		conservative = min(8, physical/2)
	case physical >= 4:
		optimal = min(8, physical*2)
		conservative = min(6, physical)
	default:
		optimal = min(4, logical)
		conservative = min(2, physical)
	}

	switch {
	case mem < 8:
		optimal = min(optimal, 6)
		conservative = min(conservative, 4)
	case mem > 32:
		optimal = min(optimal+4, logical)
	}

	maxThreads := logical
	optimal = clampInt(optimal, 1, maxThreads)
	conservative = clampInt(conservative, 1, optimal)

	o := Optimal{
		OptimalThreads:      optimal,
		ConservativeThreads: conservative,
		MaxThreads:          maxThreads,
	}
	o.HWAccel, o.HWDecoder, o.HWEncoder = selectHWAccel(s)
	o.BufferSize, o.MuxQueueSize, o.ProbeSize, o.AnalyzeDuration = bufferTier(mem)
	o.Reasoning = reasoning(s, o, physical, logical)
	return o
}

// selectHWAccel picks exactly one backend by fixed priority:
// NVIDIA+cuda, then vaapi, then qsv.
func selectHWAccel(s Specs) (accel, decoder, encoder string) {
	switch {
	case s.HasGPU("nvidia") && s.HasHWAccel("cuda"):
		accel, decoder = "cuda", "cuda"
		if s.HasEncoder("h264_nvenc") {
			encoder = "h264_nvenc"
		}
	case s.HasHWAccel("vaapi"):
		accel, decoder = "vaapi", "vaapi"
		if s.HasEncoder("h264_vaapi") {
			encoder = "h264_vaapi"
		}
	case s.HasHWAccel("qsv"):
		accel, decoder = "qsv", "qsv"
		if s.HasEncoder("h264_qsv") {
			encoder = "h264_qsv"
		}
	}
	return accel, decoder, encoder
}

func bufferTier(memGB float64) (buffer string, muxQueue int, probe, analyze string) {
	switch {
	case memGB >= 16:
		return "200M", 2048, "200M", "200M"
	case memGB >= 8:
		return "100M", 1024, "100M", "100M"
	default:
		return "50M", 512, "50M", "50M"
	}
}

func systemClass(physical int) string {
	switch {
	case physical >= 16:
		return "high-end"
	case physical >= 8:
		return "mid-range"
	}
	return "entry-level"
}

func reasoning(s Specs, o Optimal, physical, logical int) string {
	gpu := "Software only"
	if len(s.GPUs) > 0 {
		gpu = strings.Join(s.GPUs, ", ")
	}
	accel := o.HWAccel
	if accel == "" {
		accel = "None"
	}
	var b strings.Builder
	b.WriteString("System Analysis:\n")
	fmt.Fprintf(&b, "- CPU: %d physical cores, %d logical cores\n", physical, logical)
	fmt.Fprintf(&b, "- Memory: %.2fGB total\n", s.MemoryTotalGB)
	fmt.Fprintf(&b, "- GPU: %s\n", gpu)
	fmt.Fprintf(&b, "- Hardware Acceleration: %s\n\n", accel)
	b.WriteString("Threading Strategy:\n")
	fmt.Fprintf(&b, "- Optimal: %d threads (for maximum performance)\n", o.OptimalThreads)
	fmt.Fprintf(&b, "- Conservative: %d threads (for stability fallback)\n", o.ConservativeThreads)
	fmt.Fprintf(&b, "- Reasoning: Balanced for %s system", systemClass(physical))
	return b.String()
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
