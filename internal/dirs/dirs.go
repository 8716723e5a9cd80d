// Package dirs resolves the per-user directories hoffenc reads and writes.
package dirs

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
)

const appName = "hoffenc"

// AppName returns the canonical application name for directory paths.
func AppName() string {
	return appName
}

var goos = runtime.GOOS

// location describes one directory kind per platform.
type location struct {
	xdgEnv   string   // Linux override variable
	linux    []string // under $HOME when xdgEnv is unset
	darwin   []string // under $HOME
	fallback func() (string, error)
	suffix   string // appended after the app name outside Linux
}

func (l location) resolve() (string, error) {
	switch goos {
	case "linux":
		if v := os.Getenv(l.xdgEnv); v != "" {
			return filepath.Join(v, appName), nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(append(append([]string{home}, l.linux...), appName)...), nil
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(append(append([]string{home}, l.darwin...), appName, l.suffix)...), nil
	}
	base, err := l.fallback()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, appName, l.suffix), nil
}

var (
	configLoc = location{xdgEnv: "XDG_CONFIG_HOME", linux: []string{".config"},
		darwin: []string{"Library", "Application Support"}, fallback: os.UserConfigDir}
	dataLoc = location{xdgEnv: "XDG_DATA_HOME", linux: []string{".local", "share"},
		darwin: []string{"Library", "Application Support"}, fallback: os.UserConfigDir}
	stateLoc = location{xdgEnv: "XDG_STATE_HOME", linux: []string{".local", "state"},
		darwin: []string{"Library", "Application Support"}, fallback: localAppData, suffix: "state"}
)

func localAppData() (string, error) {
	if la := os.Getenv("LOCALAPPDATA"); la != "" {
		return la, nil
	}
	return os.UserConfigDir()
}

// ConfigDir holds config.{yaml,json,toml}.
// Linux: $XDG_CONFIG_HOME/hoffenc or ~/.config/hoffenc.
func ConfigDir() (string, error) { return configLoc.resolve() }

// DataDir holds settings profiles and the default output directory.
// Linux: $XDG_DATA_HOME/hoffenc or ~/.local/share/hoffenc.
func DataDir() (string, error) { return dataLoc.resolve() }

// StateDir holds the log file.
// Linux: $XDG_STATE_HOME/hoffenc or ~/.local/state/hoffenc.
func StateDir() (string, error) { return stateLoc.resolve() }

// DefaultOutputDir returns the default output directory under the data dir.
func DefaultOutputDir() (string, error) {
	d, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "output"), nil
}

// ProfilesDir holds named YAML settings profiles.
func ProfilesDir() (string, error) {
	d, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "profiles"), nil
}

// LogFile is the default log destination while the TUI owns the terminal.
func LogFile() (string, error) {
	d, err := StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, appName+".log"), nil
}

// Ensure creates the directory if it doesn't exist.
func Ensure(path string) error {
	if path == "" {
		return errors.New("empty path")
	}
	return os.MkdirAll(path, 0o755)
}

// EnsureAll ensures config, data, and state dirs exist.
func EnsureAll() error {
	for _, f := range []func() (string, error){ConfigDir, DataDir, StateDir} {
		p, err := f()
		if err != nil {
			continue
		}
		if err := Ensure(p); err != nil {
			return err
		}
	}
	return nil
}
