// Package model holds the batch job and per-file result types shared by the
// pipeline, the CLI and the UI.
package model

import "time"

// CLIOptions holds user-configurable runtime options as parsed from flags.
type CLIOptions struct {
	OutDir            string
	MaintainStructure bool
	Recursive         bool
	Profile           string // optional YAML settings profile
	Verbose           bool
	NoUI              bool
}

// Job is one input file and its resolved output.
type Job struct {
	ID     string `json:"id"`
	Input  string `json:"input"`
	Output string `json:"output"`
	// Exists warns that Output is already present and will be overwritten.
	Exists bool `json:"exists"`
}

// FileStatus is the terminal state of one file in a batch.
type FileStatus int

const (
	StatusSucceeded FileStatus = iota
	StatusFailed
	StatusCancelled
	StatusSkipped
)

func (s FileStatus) String() string {
	switch s {
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	case StatusCancelled:
		return "cancelled"
	}
	return "skipped"
}

// MarshalText implements encoding.TextMarshaler.
func (s FileStatus) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// FileResult records what happened to one Job.
type FileResult struct {
	Job      Job           `json:"job"`
	Status   FileStatus    `json:"status"`
	Attempts int           `json:"attempts"`
	Tier     string        `json:"tier,omitempty"`
	ExitCode int           `json:"exit_code"`
	Bytes    int64         `json:"bytes"`
	Elapsed  time.Duration `json:"elapsed"`
	Err      error         `json:"-"`
}

// BatchReport lists one FileResult per job, in input order.
type BatchReport struct {
	Results   []FileResult `json:"results"`
	Cancelled bool         `json:"cancelled"`
}

// Count returns how many results have status st.
func (r BatchReport) Count(st FileStatus) int {
	n := 0
	for _, fr := range r.Results {
		if fr.Status == st {
			n++
		}
	}
	return n
}

// OK reports whether every file succeeded.
func (r BatchReport) OK() bool {
	return len(r.Results) == r.Count(StatusSucceeded)
}
