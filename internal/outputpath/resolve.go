// Package outputpath maps input files to output paths.
package outputpath

import (
	"path/filepath"
	"strings"

	"hoffenc/internal/settings"
	"hoffenc/internal/util"
	"hoffenc/internal/util/media"
)

// Resolved is an output location. Exists reports that a file is already
// there; the encode overwrites it.
type Resolved struct {
	Path   string `json:"path"`
	Exists bool   `json:"exists"`
}

// Plan computes the output path without touching the filesystem beyond an
// existence check.
//
// The file name is the input stem plus "." + OutputFormat. With
// maintainStructure and a base, the base folder's own name and the input's
// subdirectories relative to it are kept under outputRoot. An input that is
// not under base is placed flat in outputRoot.
func Plan(input, outputRoot string, s settings.EncodingSettings, maintainStructure bool, base string) Resolved {
	name := media.Stem(input) + "." + s.OutputFormat
	dir := outputRoot
	if maintainStructure && base != "" {
		if sub, ok := relativeDir(input, base); ok {
			dir = filepath.Join(outputRoot, filepath.Base(filepath.Clean(base)), sub)
		}
	}
	path := filepath.Join(dir, name)
	return Resolved{Path: path, Exists: util.FileExists(path)}
}

// Resolve is Plan followed by creation of the output's parent directory.
func Resolve(input, outputRoot string, s settings.EncodingSettings, maintainStructure bool, base string) (Resolved, error) {
	r := Plan(input, outputRoot, s, maintainStructure, base)
	if err := util.EnsureParentDir(r.Path); err != nil {
		return Resolved{}, err
	}
	return r, nil
}

// relativeDir returns the directory of input relative to base ("." when the
// input sits directly in base).
func relativeDir(input, base string) (string, bool) {
	rel, err := filepath.Rel(filepath.Clean(base), filepath.Clean(input))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", false
	}
	return filepath.Dir(rel), true
}
