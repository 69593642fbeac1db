package ffmpeg

import (
	"context"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// skipIfNoFFmpeg skips the test if ffmpeg is not available
func skipIfNoFFmpeg(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not found in PATH - install with: brew install ffmpeg")
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		t.Skip("ffprobe not found in PATH - install with: brew install ffmpeg")
	}
}

// makeTestVideo renders a 2 second 320x240 test pattern at 30 fps
func makeTestVideo(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.mp4")
	cmd := exec.Command("ffmpeg", "-f", "lavfi", "-i", "testsrc=duration=2:size=320x240:rate=30",
		"-pix_fmt", "yuv420p", "-y", path)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Skipf("could not generate test video: %v\n%s", err, out)
	}
	return path
}

func newTestExecutor(t *testing.T) *Executor {
	t.Helper()
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	exec, err := New(logger, 2)
	if err != nil {
		t.Fatalf("failed to create executor: %v", err)
	}
	return exec
}

func TestExecutorCreation(t *testing.T) {
	skipIfNoFFmpeg(t)

	exec := newTestExecutor(t)
	if exec.ffmpegPath == "" {
		t.Error("ffmpeg path is empty")
	}
	if exec.ffprobePath == "" {
		t.Error("ffprobe path is empty")
	}
	t.Logf("ffmpeg: %s", exec.ffmpegPath)
}

func TestProbeVideo(t *testing.T) {
	skipIfNoFFmpeg(t)

	exec := newTestExecutor(t)
	info, err := exec.ProbeVideo(context.Background(), makeTestVideo(t))
	if err != nil {
		t.Fatalf("ProbeVideo failed: %v", err)
	}

	if info.Width != 320 || info.Height != 240 {
		t.Errorf("expected 320x240, got %dx%d", info.Width, info.Height)
	}
	if info.FPS < 29.9 || info.FPS > 30.1 {
		t.Errorf("expected 30 fps, got %f", info.FPS)
	}
	if info.Duration == 0 {
		t.Error("duration is zero")
	}
}

func TestProbeVideoInvalidFile(t *testing.T) {
	skipIfNoFFmpeg(t)

	exec := newTestExecutor(t)
	ctx := context.Background()

	if _, err := exec.ProbeVideo(ctx, "nonexistent.mp4"); err == nil {
		t.Error("ProbeVideo should fail for non-existent file")
	}

	invalidPath := filepath.Join(t.TempDir(), "invalid.txt")
	os.WriteFile(invalidPath, []byte("not a video"), 0644)

	if _, err := exec.ProbeVideo(ctx, invalidPath); err == nil {
		t.Error("ProbeVideo should fail for invalid video file")
	}
}

func TestDecodeFrames(t *testing.T) {
	skipIfNoFFmpeg(t)

	exec := newTestExecutor(t)
	video := makeTestVideo(t)

	count := 0
	err := exec.DecodeFrames(context.Background(), video, 64, 48, func(index int, rgb []byte) error {
		if index != count {
			t.Fatalf("frame index %d out of order, expected %d", index, count)
		}
		if len(rgb) != 64*48*3 {
			t.Fatalf("unexpected frame size %d", len(rgb))
		}
		count++
		return nil
	})
	if err != nil {
		t.Fatalf("DecodeFrames failed: %v", err)
	}
	if count != 60 {
		t.Errorf("expected 60 frames, got %d", count)
	}
}

func TestDecodeFramesStopsOnCallbackError(t *testing.T) {
	skipIfNoFFmpeg(t)

	exec := newTestExecutor(t)
	stop := context.Canceled

	err := exec.DecodeFrames(context.Background(), makeTestVideo(t), 32, 24, func(index int, rgb []byte) error {
		if index == 3 {
			return stop
		}
		return nil
	})
	if err != stop {
		t.Fatalf("expected callback error to propagate, got %v", err)
	}
}

func TestExtractFrame(t *testing.T) {
	skipIfNoFFmpeg(t)

	exec := newTestExecutor(t)
	video := makeTestVideo(t)
	out := filepath.Join(t.TempDir(), "scene_1.png")

	if err := exec.ExtractFrameIndex(context.Background(), video, out, 15, 30); err != nil {
		t.Fatalf("ExtractFrameIndex failed: %v", err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("output not created: %v", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("output is not a png: %v", err)
	}
	if img.Bounds().Dx() != 320 {
		t.Errorf("expected full resolution frame, got width %d", img.Bounds().Dx())
	}
}

func TestExtractFramePastEnd(t *testing.T) {
	skipIfNoFFmpeg(t)

	exec := newTestExecutor(t)
	out := filepath.Join(t.TempDir(), "late.png")

	err := exec.ExtractFrame(context.Background(), makeTestVideo(t), out, time.Minute)
	if err == nil {
		t.Fatal("expected an error when seeking past the end")
	}
}

func TestDetectScenes(t *testing.T) {
	skipIfNoFFmpeg(t)

	exec := newTestExecutor(t)
	scenes, err := exec.DetectScenes(context.Background(), makeTestVideo(t), 0.3)
	if err != nil {
		t.Fatalf("DetectScenes failed: %v", err)
	}
	t.Logf("Found %d scene changes", len(scenes))
}

func TestParseSceneOutput(t *testing.T) {
	output := strings.Join([]string{
		"[Parsed_showinfo_1 @ 0x1] n:   0 pts:  51200 pts_time:4.16667 duration: 512",
		"frame=  10 fps=0.0 q=-0.0 size=N/A time=00:00:04.16",
		"[Parsed_showinfo_1 @ 0x1] n:   1 pts: 102400 pts_time:8.33333 duration: 512",
	}, "\n")

	scenes := parseSceneOutput(output)
	if len(scenes) != 2 {
		t.Fatalf("expected 2 cuts, got %d", len(scenes))
	}
	if scenes[0] < 4166*time.Millisecond || scenes[0] > 4167*time.Millisecond {
		t.Errorf("unexpected first cut %v", scenes[0])
	}
}

func TestParseProbeOutput(t *testing.T) {
	out := []byte(`{"streams":[{"codec_type":"video","codec_name":"h264","width":1920,"height":1080,
		"r_frame_rate":"60/1","avg_frame_rate":"30000/1001","nb_frames":"300"}],
		"format":{"duration":"10.010000"}}`)

	info, err := parseProbeOutput(out)
	if err != nil {
		t.Fatalf("parseProbeOutput failed: %v", err)
	}
	if info.FPS < 29.96 || info.FPS > 29.98 {
		t.Errorf("expected avg frame rate to win, got %f", info.FPS)
	}
	if info.Frames != 300 {
		t.Errorf("expected 300 frames, got %d", info.Frames)
	}

	if _, err := parseProbeOutput([]byte(`{"streams":[],"format":{}}`)); err == nil {
		t.Error("expected error for input without a video stream")
	}
}

func TestFilterBuilder(t *testing.T) {
	filter := NewFilterBuilder().Scale(256, 144).Build()
	if filter != "scale=256:144" {
		t.Errorf("unexpected filter %q", filter)
	}

	filter = NewFilterBuilder().SceneSelect(0.4).ShowInfo().Build()
	if filter != "select='gt(scene,0.400000)',showinfo" {
		t.Errorf("unexpected filter %q", filter)
	}
}

func TestFilterBuilderEmpty(t *testing.T) {
	if filter := NewFilterBuilder().Scale(0, 10).Build(); filter != "" {
		t.Errorf("expected empty string, got %q", filter)
	}
}
