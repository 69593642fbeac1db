package util

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// FormatDuration converts time.Duration to ffmpeg timestamp format
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	seconds := d.Seconds()
	hours := int(seconds / 3600)
	minutes := int((seconds - float64(hours*3600)) / 60)
	secs := seconds - float64(hours*3600) - float64(minutes*60)
	return fmt.Sprintf("%02d:%02d:%06.3f", hours, minutes, secs)
}

// ParseClock parses a wall-clock offset in HH:MM:SS or MM:SS form.
// Hours and minutes must be whole numbers; seconds may carry a fraction.
// Signs, exponents and offsets beyond time.Duration's range are rejected.
func ParseClock(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("invalid timestamp format: %q", s)
	}

	var whole int64
	for _, p := range parts[:len(parts)-1] {
		if !isDigits(p) {
			return 0, fmt.Errorf("invalid timestamp format: %q", s)
		}
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil || whole > (math.MaxInt64-n)/60 {
			return 0, fmt.Errorf("timestamp out of range: %q", s)
		}
		whole = whole*60 + n
	}

	secs := parts[len(parts)-1]
	intPart, frac, hasFrac := strings.Cut(secs, ".")
	if !isDigits(intPart) || (hasFrac && !isDigits(frac)) {
		return 0, fmt.Errorf("invalid timestamp format: %q", s)
	}
	seconds, err := strconv.ParseFloat(secs, 64)
	if err != nil {
		return 0, fmt.Errorf("timestamp out of range: %q", s)
	}

	total := float64(whole)*60 + seconds
	if total >= float64(math.MaxInt64)/float64(time.Second) {
		return 0, fmt.Errorf("timestamp out of range: %q", s)
	}
	return time.Duration(total * float64(time.Second)), nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// FrameIndex returns the frame shown at offset d for a constant frame rate.
func FrameIndex(d time.Duration, fps float64) int {
	return int(math.Round(fps * d.Seconds()))
}

// FrameSeekTime returns a seek position that lands on frame index when
// ffmpeg drops every frame whose pts is earlier than the requested time.
// Aiming half a frame early keeps float rounding from skipping ahead.
func FrameSeekTime(index int, fps float64) time.Duration {
	if index <= 0 || fps <= 0 {
		return 0
	}
	secs := (float64(index) - 0.5) / fps
	return time.Duration(secs * float64(time.Second))
}

// ParseFrameRate parses frame rate from ffprobe format (e.g., "30/1")
func ParseFrameRate(s string) float64 {
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return 0
	}
	num, err1 := strconv.ParseFloat(parts[0], 64)
	den, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil || den == 0 {
		return 0
	}
	return num / den
}
