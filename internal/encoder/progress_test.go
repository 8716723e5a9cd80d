package encoder

import (
	"math"
	"testing"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		total  float64
		want   float64
		wantOk bool
	}{
		{"halfway", "frame=10 time=00:01:30.50 bitrate=1000kbits/s", 180, 50.28, true},
		{"garbage", "garbage line with no time", 180, 0, false},
		{"no duration", "frame=10 time=00:01:30.50", 0, 0, false},
		{"negative duration", "time=00:00:01.00", -5, 0, false},
		{"capped", "time=00:05:00.00 speed=2x", 120, 100, true},
		{"n/a", "frame=0 time=N/A bitrate=N/A", 60, 0, false},
		{"padded value", "size=   0kB time= 00:00:30.00", 60, 50, true},
		{"hours", "time=01:00:00.00", 7200, 50, true},
		{"malformed minutes", "time=00:75:00.00", 60, 0, false},
		{"two fields", "time=01:30.00", 60, 0, false},
		{"negative start time", "frame=0 time=-00:00:00.50 bitrate=N/A", 60, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseLine(tt.line, tt.total)
			if ok != tt.wantOk {
				t.Fatalf("ParseLine(%q) ok = %v, want %v", tt.line, ok, tt.wantOk)
			}
			if ok && math.Abs(got-tt.want) > 0.01 {
				t.Errorf("ParseLine(%q) = %v, want %v", tt.line, got, tt.want)
			}
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOk bool
	}{
		{"00:00:00.00", 0, true},
		{"0:01:30.5", 90.5, true},
		{"12:00:00", 43200, true},
		{"-00:00:01.00", 0, false},
		{"-01:00:00.00", 0, false},
		{"00:-1:00.00", 0, false},
		{"aa:bb:cc", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseTimestamp(tt.in)
		if ok != tt.wantOk || (ok && got != tt.want) {
			t.Errorf("ParseTimestamp(%q) = %v, %v, want %v, %v", tt.in, got, ok, tt.want, tt.wantOk)
		}
	}
}

func TestParseStats(t *testing.T) {
	line := "frame=  240 fps= 48 q=28.0 size=    512kB time=00:00:08.00 bitrate= 524.3kbits/s speed=1.6x"
	got, ok := ParseStats(line)
	if !ok {
		t.Fatalf("ParseStats() ok = false")
	}
	want := Stats{Frame: 240, FPS: 48, Size: "512kB", Elapsed: 8, Bitrate: "524.3kbits/s", Speed: "1.6x"}
	if got != want {
		t.Errorf("ParseStats() = %+v, want %+v", got, want)
	}
	if _, ok := ParseStats("Press [q] to stop"); ok {
		t.Errorf("ParseStats(banner) ok = true")
	}
}
