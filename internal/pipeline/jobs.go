package pipeline

import (
	"errors"
	"fmt"
	"os"

	"hoffenc/internal/model"
	"hoffenc/internal/outputpath"
	"hoffenc/internal/settings"
	"hoffenc/internal/util/media"
)

// ErrNoInputs is returned when the inputs expand to no video files.
var ErrNoInputs = errors.New("no video files found")

// JobOptions controls how inputs expand into jobs.
type JobOptions struct {
	OutDir            string
	MaintainStructure bool
	Recursive         bool
}

// CollectJobs expands files and directories into jobs with planned output
// paths. Directories contribute their video files and act as the structure
// base; single files are placed flat in OutDir. Nothing is created on disk.
func CollectJobs(inputs []string, es settings.EncodingSettings, opts JobOptions) ([]model.Job, error) {
	var jobs []model.Job
	add := func(input, base string) {
		r := outputpath.Plan(input, opts.OutDir, es, opts.MaintainStructure, base)
		jobs = append(jobs, model.Job{
			ID:     fmt.Sprintf("file-%d", len(jobs)+1),
			Input:  input,
			Output: r.Path,
			Exists: r.Exists,
		})
	}
	for _, in := range inputs {
		fi, err := os.Stat(in)
		if err != nil {
			return nil, fmt.Errorf("input %s: %w", in, err)
		}
		if !fi.IsDir() {
			add(in, "")
			continue
		}
		files, err := media.FindVideoFiles(in, opts.Recursive)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", in, err)
		}
		for _, f := range files {
			add(f, in)
		}
	}
	if len(jobs) == 0 {
		return nil, ErrNoInputs
	}
	return jobs, nil
}
