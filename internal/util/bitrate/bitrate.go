package bitrate

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseKbps converts an ffmpeg-style bitrate string ("128k", "2M", "2.5M",
// "192000") into kilobits per second.
func ParseKbps(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty bitrate")
	}
	mult := 0.001 // plain numbers are bits per second
	switch s[len(s)-1] {
	case 'k', 'K':
		mult = 1
		s = s[:len(s)-1]
	case 'm', 'M':
		mult = 1000
		s = s[:len(s)-1]
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid bitrate %q", s)
	}
	kbps := int(v*mult + 0.5)
	if kbps <= 0 {
		return 0, fmt.Errorf("bitrate %q below 1 kbps", s)
	}
	return kbps, nil
}

// FormatKbps renders kbps the way ffmpeg flags expect it, e.g. "160k".
func FormatKbps(kbps int) string {
	return strconv.Itoa(kbps) + "k"
}

// Clamp returns v constrained to [min, max].
func Clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
