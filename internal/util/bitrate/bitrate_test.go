package bitrate

import "testing"

func TestParseKbps(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    int
		wantErr bool
	}{
		{name: "kilobits lowercase", in: "128k", want: 128},
		{name: "kilobits uppercase", in: "192K", want: 192},
		{name: "megabits", in: "2M", want: 2000},
		{name: "fractional megabits", in: "2.5M", want: 2500},
		{name: "plain bits per second", in: "192000", want: 192},
		{name: "surrounding whitespace", in: " 96k ", want: 96},
		{name: "empty", in: "", wantErr: true},
		{name: "garbage", in: "fast", wantErr: true},
		{name: "zero", in: "0k", wantErr: true},
		{name: "negative", in: "-5k", wantErr: true},
		{name: "sub-kilobit", in: "100", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseKbps(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseKbps(%q) = %d, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseKbps(%q) error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseKbps(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatKbps(t *testing.T) {
	if got := FormatKbps(160); got != "160k" {
		t.Errorf("FormatKbps(160) = %q, want %q", got, "160k")
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		name          string
		v, min, max   int
		want          int
	}{
		{name: "within range", v: 23, min: 18, max: 28, want: 23},
		{name: "below min", v: 10, min: 18, max: 28, want: 18},
		{name: "above max", v: 31, min: 18, max: 28, want: 28},
		{name: "at bounds", v: 28, min: 18, max: 28, want: 28},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clamp(tt.v, tt.min, tt.max); got != tt.want {
				t.Errorf("Clamp(%d, %d, %d) = %d, want %d", tt.v, tt.min, tt.max, got, tt.want)
			}
		})
	}
}
