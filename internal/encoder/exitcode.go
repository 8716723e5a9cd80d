package encoder

// ExitClass groups ffmpeg exit codes for diagnostics. Every nonzero class
// follows the same retry policy.
type ExitClass int

const (
	ExitOK ExitClass = iota
	ExitSegfault
	ExitParameterError
	ExitKilled
	ExitGeneric
)

// ClassifyExit maps a process exit code to an ExitClass. Signal deaths are
// reported as negative signal numbers; 139 is a shell's 128+SIGSEGV.
func ClassifyExit(code int) ExitClass {
	switch {
	case code == 0:
		return ExitOK
	case code == -11 || code == 139:
		return ExitSegfault
	case code == 234:
		return ExitParameterError
	case code < 0:
		return ExitKilled
	}
	return ExitGeneric
}

func (c ExitClass) String() string {
	switch c {
	case ExitOK:
		return "ok"
	case ExitSegfault:
		return "segfault"
	case ExitParameterError:
		return "parameter-error"
	case ExitKilled:
		return "killed"
	}
	return "error"
}

// Describe returns a short hint for logs and failure messages.
func (c ExitClass) Describe() string {
	switch c {
	case ExitOK:
		return "completed"
	case ExitSegfault:
		return "ffmpeg crashed (segmentation fault), often a hardware decoder problem"
	case ExitParameterError:
		return "ffmpeg rejected a parameter or codec option"
	case ExitKilled:
		return "ffmpeg was terminated by a signal"
	}
	return "ffmpeg exited with an error"
}
