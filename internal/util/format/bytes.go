// Package format renders sizes and durations for terminal output.
package format

import "fmt"

const (
	kib = 1024
	mib = kib * 1024
	gib = mib * 1024
)

// HumanizeBytes renders a file size with one decimal, topping out at GB
// (e.g. "1.5 MB", "1024.0 GB"). Negative sizes render as "0 B".
func HumanizeBytes(b int64) string {
	switch {
	case b < 0:
		return "0 B"
	case b < kib:
		return fmt.Sprintf("%d B", b)
	case b < mib:
		return fmt.Sprintf("%.1f KB", float64(b)/kib)
	case b < gib:
		return fmt.Sprintf("%.1f MB", float64(b)/mib)
	}
	return fmt.Sprintf("%.1f GB", float64(b)/gib)
}
