package util

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseClockFrameIndex(t *testing.T) {
	tests := []struct {
		in   string
		fps  float64
		want int
	}{
		{"01:02:03", 30, 111690},
		{"02:03", 30, 3690},
		{"00:00", 30, 0},
		{" 00:00:01 ", 24, 24},
		{"00:00:01.5", 30, 45},
		{"00:10", 29.97, 300},
	}

	for _, tt := range tests {
		d, err := ParseClock(tt.in)
		if err != nil {
			t.Fatalf("ParseClock(%q) failed: %v", tt.in, err)
		}
		if got := FrameIndex(d, tt.fps); got != tt.want {
			t.Errorf("FrameIndex(%q @ %.2f) = %d, want %d", tt.in, tt.fps, got, tt.want)
		}
	}
}

func TestParseClockRejectsMalformed(t *testing.T) {
	malformed := []string{
		"bad", "", "45", "1:2:3:4", "aa:10", "01:xx", "-01:10", "01:-10",
		"00:1e1", "+1:00", "01:+05", "00:.5", "00:5.", "00:0x10", "1 :00", "00:NaN", "00:Inf",
		"99999999999999999:00:00", "9223372036854775807:00",
	}
	for _, in := range malformed {
		if _, err := ParseClock(in); err == nil {
			t.Errorf("ParseClock(%q) should fail", in)
		}
	}
}

func TestFrameSeekTime(t *testing.T) {
	if got := FrameSeekTime(0, 30); got != 0 {
		t.Errorf("expected 0 for first frame, got %v", got)
	}

	at := FrameSeekTime(30, 30)
	if at >= time.Second || at <= time.Second-time.Second/30 {
		t.Errorf("seek time %v should fall within the frame before 1s", at)
	}
}

func TestFormatDuration(t *testing.T) {
	if got := FormatDuration(3723*time.Second + 250*time.Millisecond); got != "01:02:03.250" {
		t.Errorf("unexpected format: %q", got)
	}
}

func TestParseFrameRate(t *testing.T) {
	if got := ParseFrameRate("30000/1001"); got < 29.96 || got > 29.98 {
		t.Errorf("unexpected fps %f", got)
	}
	if got := ParseFrameRate("30/0"); got != 0 {
		t.Errorf("expected 0 for zero denominator, got %f", got)
	}
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out.json")

	if err := WriteFileAtomic(path, []byte("first"), 0644); err != nil {
		t.Fatalf("first write failed: %v", err)
	}
	if err := WriteFileAtomic(path, []byte("second"), 0644); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(data) != "second" {
		t.Errorf("expected overwritten content, got %q", data)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %d entries", len(entries))
	}
}
