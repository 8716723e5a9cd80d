package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zerolog.Level
		wantErr bool
	}{
		{"", zerolog.InfoLevel, false},
		{"DEBUG", zerolog.DebugLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"loud", zerolog.InfoLevel, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v, want %v (err %v)", tt.in, got, err, tt.want, tt.wantErr)
		}
	}
}

func TestNew_ConsoleAndFile(t *testing.T) {
	var console bytes.Buffer
	file := filepath.Join(t.TempDir(), "logs", "hoffenc.log")
	log, closeFn, err := New(Options{Level: "info", Console: &console, File: file, NoColor: true})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	log.Debug().Msg("hidden")
	log.Info().Int("exit_code", 234).Msg("encode failed")
	if err := closeFn(); err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(console.String(), "encode failed") || strings.Contains(console.String(), "hidden") {
		t.Errorf("console = %q", console.String())
	}
	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"exit_code":234`) {
		t.Errorf("file = %q, want JSON field", data)
	}
}

func TestNew_NothingConfigured(t *testing.T) {
	log, _, err := New(Options{})
	if err != nil {
		t.Fatal(err)
	}
	if log.GetLevel() != zerolog.Disabled {
		t.Errorf("level = %v, want disabled", log.GetLevel())
	}
}
