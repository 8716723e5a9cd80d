// Package config layers flags, HOFFENC_* environment variables and the
// optional config file through viper.
package config

import (
	"errors"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"hoffenc/internal/advisor"
	"hoffenc/internal/dirs"
)

// Keys and the persistent flags they bind to.
var flagKeys = map[string]string{
	"out_dir":          "out-dir",
	"verbose":          "verbose",
	"ffmpeg":           "ffmpeg",
	"ffprobe":          "ffprobe",
	"log_level":        "log-level",
	"log_file":         "log-file",
	"advisor_endpoint": "advisor-endpoint",
	"advisor_model":    "advisor-model",
}

// Config is the resolved runtime configuration.
type Config struct {
	OutDir          string
	Verbose         bool
	FFmpegPath      string
	FFprobePath     string
	LogLevel        string
	LogFile         string
	AdvisorEndpoint string
	AdvisorModel    string
	AdvisorAPIKey   string
	FailurePolicy   string
	Profile         string
}

// Init wires Viper with config paths, env, defaults, and flag bindings.
// It is non-fatal: a missing config file is not an error.
func Init(root *cobra.Command) error {
	return initWith(viper.GetViper(), root)
}

func initWith(v *viper.Viper, root *cobra.Command) error {
	_ = dirs.EnsureAll()

	if cfgDir, err := dirs.ConfigDir(); err == nil {
		v.AddConfigPath(cfgDir)
	}
	v.SetConfigName("config") // supports config.{yaml|yml|json|toml}

	v.SetEnvPrefix("HOFFENC")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("log_level", "info")
	v.SetDefault("advisor_endpoint", advisor.DefaultEndpoint)
	v.SetDefault("advisor_model", advisor.DefaultModel)
	v.SetDefault("failure_policy", "stop")
	if out, err := dirs.DefaultOutputDir(); err == nil {
		v.SetDefault("out_dir", out)
	}

	if root != nil {
		for key, flag := range flagKeys {
			if f := root.PersistentFlags().Lookup(flag); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return err
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
	}
	return nil
}

// Load reads the resolved configuration.
func Load() Config {
	return load(viper.GetViper())
}

func load(v *viper.Viper) Config {
	c := Config{
		OutDir:          v.GetString("out_dir"),
		Verbose:         v.GetBool("verbose"),
		FFmpegPath:      v.GetString("ffmpeg"),
		FFprobePath:     v.GetString("ffprobe"),
		LogLevel:        v.GetString("log_level"),
		LogFile:         v.GetString("log_file"),
		AdvisorEndpoint: v.GetString("advisor_endpoint"),
		AdvisorModel:    v.GetString("advisor_model"),
		AdvisorAPIKey:   v.GetString("advisor_api_key"),
		FailurePolicy:   v.GetString("failure_policy"),
		Profile:         v.GetString("profile"),
	}
	if c.AdvisorAPIKey == "" {
		c.AdvisorAPIKey = os.Getenv("OPENAI_API_KEY")
	}
	return c
}
