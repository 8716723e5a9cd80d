package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func isolate(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(root, "cfg"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(root, "data"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(root, "state"))
	t.Setenv("OPENAI_API_KEY", "")
	return root
}

func testRoot() *cobra.Command {
	root := &cobra.Command{Use: "hoffenc"}
	pf := root.PersistentFlags()
	pf.String("out-dir", "", "")
	pf.Bool("verbose", false, "")
	pf.String("ffmpeg", "", "")
	pf.String("log-level", "", "")
	return root
}

func TestPrecedence(t *testing.T) {
	root := isolate(t)
	cfgDir := filepath.Join(root, "cfg", "hoffenc")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	file := "out_dir: /from/file\nffmpeg: /file/ffmpeg\nfailure_policy: continue\nlog_level: debug\n"
	if err := os.WriteFile(filepath.Join(cfgDir, "config.yaml"), []byte(file), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("HOFFENC_FFMPEG", "/env/ffmpeg")
	t.Setenv("HOFFENC_ADVISOR_API_KEY", "sk-env")

	cmd := testRoot()
	if err := cmd.PersistentFlags().Set("log-level", "warn"); err != nil {
		t.Fatal(err)
	}
	v := viper.New()
	if err := initWith(v, cmd); err != nil {
		t.Fatalf("initWith() error = %v", err)
	}
	c := load(v)

	if c.OutDir != "/from/file" {
		t.Errorf("OutDir = %q, want file value", c.OutDir)
	}
	if c.FFmpegPath != "/env/ffmpeg" {
		t.Errorf("FFmpegPath = %q, want env over file", c.FFmpegPath)
	}
	if c.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want flag over file", c.LogLevel)
	}
	if c.FailurePolicy != "continue" || c.AdvisorAPIKey != "sk-env" {
		t.Errorf("policy/key = %q/%q", c.FailurePolicy, c.AdvisorAPIKey)
	}
}

func TestDefaults(t *testing.T) {
	root := isolate(t)
	t.Setenv("OPENAI_API_KEY", "sk-openai")
	v := viper.New()
	if err := initWith(v, testRoot()); err != nil {
		t.Fatalf("initWith() error = %v", err)
	}
	c := load(v)
	if c.LogLevel != "info" || c.FailurePolicy != "stop" {
		t.Errorf("defaults = %+v", c)
	}
	if want := filepath.Join(root, "data", "hoffenc", "output"); c.OutDir != want {
		t.Errorf("OutDir = %q, want %q", c.OutDir, want)
	}
	if c.AdvisorAPIKey != "sk-openai" {
		t.Errorf("AdvisorAPIKey = %q, want OPENAI_API_KEY fallback", c.AdvisorAPIKey)
	}
}
