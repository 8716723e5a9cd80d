package encoder

import (
	"strconv"
	"strings"
)

// ParseTimestamp parses an ffmpeg H:MM:SS.ms timestamp into seconds.
// Negative timestamps, which ffmpeg prints at stream start, are rejected.
func ParseTimestamp(tok string) (float64, bool) {
	if strings.HasPrefix(tok, "-") {
		return 0, false
	}
	parts := strings.Split(tok, ":")
	if len(parts) != 3 {
		return 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 {
		return 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}
	sec, err := strconv.ParseFloat(parts[2], 64)
	if err != nil || sec < 0 || sec >= 60 {
		return 0, false
	}
	return float64(h)*3600 + float64(m)*60 + sec, true
}

// ParseElapsed returns the time= value of an ffmpeg stats line in seconds.
func ParseElapsed(line string) (float64, bool) {
	i := strings.Index(line, "time=")
	if i < 0 {
		return 0, false
	}
	rest := strings.TrimLeft(line[i+len("time="):], " ")
	tok := rest
	if j := strings.IndexAny(rest, " \t"); j >= 0 {
		tok = rest[:j]
	}
	return ParseTimestamp(tok)
}

// ParseLine returns the completion percentage for one stderr line.
// It reports false when the line has no valid time= token or total <= 0.
func ParseLine(line string, totalSeconds float64) (float64, bool) {
	if totalSeconds <= 0 {
		return 0, false
	}
	elapsed, ok := ParseElapsed(line)
	if !ok {
		return 0, false
	}
	return min(100, 100*elapsed/totalSeconds), true
}

// Stats is the rest of an ffmpeg stats line.
type Stats struct {
	Frame   int64
	FPS     float64
	Size    string
	Elapsed float64
	Bitrate string
	Speed   string
}

// ParseStats extracts the key=value fields of an ffmpeg stats line such as
// "frame=  240 fps= 48 q=28.0 size=    512kB time=00:00:08.00 bitrate= 524.3kbits/s speed=1.6x".
// It reports false unless a valid time= field is present.
func ParseStats(line string) (Stats, bool) {
	var st Stats
	elapsed, ok := ParseElapsed(line)
	if !ok {
		return st, false
	}
	st.Elapsed = elapsed
	for key, val := range statFields(line) {
		switch key {
		case "frame":
			st.Frame, _ = strconv.ParseInt(val, 10, 64)
		case "fps":
			st.FPS, _ = strconv.ParseFloat(val, 64)
		case "size", "Lsize":
			st.Size = val
		case "bitrate":
			st.Bitrate = val
		case "speed":
			st.Speed = val
		}
	}
	return st, true
}

// statFields splits "k= v k2=v2" into a map, tolerating padding after '='.
func statFields(line string) map[string]string {
	out := make(map[string]string)
	for len(line) > 0 {
		eq := strings.IndexByte(line, '=')
		if eq < 0 {
			break
		}
		key := strings.TrimSpace(line[:eq])
		if sp := strings.LastIndexByte(key, ' '); sp >= 0 {
			key = key[sp+1:]
		}
		line = strings.TrimLeft(line[eq+1:], " ")
		end := strings.IndexByte(line, ' ')
		if end < 0 {
			end = len(line)
		}
		out[key] = line[:end]
		line = line[end:]
	}
	return out
}
