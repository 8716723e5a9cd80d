// Package progress defines the events an encode emits and the Reporter
// that receives them.
package progress

// Stage identifies a step of one file's encode.
type Stage string

const (
	StageProbing   Stage = "probing"
	StageBuilding  Stage = "building"
	StageEncoding  Stage = "encoding"
	StageRetrying  Stage = "retrying"
	StageCompleted Stage = "completed"
	StageError     Stage = "error"
	StageCancelled Stage = "cancelled"
)

// LogStream indicates which stream produced a log line.
type LogStream int

const (
	StreamStdout LogStream = iota
	StreamStderr
)

// Update conveys progress or stage changes for a job. Within one file
// Percent is 0..100 and never decreases.
type Update struct {
	JobID   string
	Stage   Stage
	Percent float64

	// Indeterminate is set while encoding an input of unknown duration.
	Indeterminate bool

	// Batch position; zero for a single encode.
	File    int // 1-based
	Total   int
	Overall float64 // 0..100 across the batch

	Speed   *string // optional, e.g. "1.6x"
	Message string  // short human-friendly status line
}

// Log is a stderr line associated with a job.
type Log struct {
	JobID  string
	Stream LogStream
	Line   string
}

// Result is emitted exactly once per started file.
type Result struct {
	JobID      string
	OutputPath string
	Bytes      int64
	Attempts   int
	Cancelled  bool
	Err        error // nil on success and on cancellation
}

// Reporter is implemented by UI or any observer interested in progress events.
type Reporter interface {
	Update(u Update)
	Log(l Log)
	Result(r Result)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Update(Update) {}
func (Nop) Log(Log)       {}
func (Nop) Result(Result) {}
