package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/kikiluvv/scenefinder/pkg/util"
)

// DecodeFrames decodes every frame of input, scaled to width x height, and
// calls fn with the packed RGB24 pixels in presentation order.
func (e *Executor) DecodeFrames(ctx context.Context, input string, width, height int, fn FrameFunc) error {
	if input == "" {
		return fmt.Errorf("input path is required")
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid decode size %dx%d", width, height)
	}

	filter := NewFilterBuilder().Scale(width, height).Build()
	args := []string{
		"-i", input,
		"-an", "-sn",
		"-vf", filter,
		"-vsync", "0",
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"pipe:1",
	}

	frameSize := width * height * 3
	decoded := 0

	err := e.Stream(ctx, args, func(r io.Reader) error {
		buf := make([]byte, frameSize)
		for {
			if _, err := io.ReadFull(r, buf); err != nil {
				if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
					return nil
				}
				return fmt.Errorf("read frame %d: %w", decoded, err)
			}
			if err := fn(decoded, buf); err != nil {
				return err
			}
			decoded++
		}
	})

	e.logger.Debug().
		Str("input", input).
		Int("frames", decoded).
		Msg("frame decode finished")

	return err
}

// ExtractFrame writes the frame shown at timestamp to output. The image
// format follows the output extension.
func (e *Executor) ExtractFrame(ctx context.Context, input, output string, timestamp time.Duration) error {
	if input == "" {
		return fmt.Errorf("input path is required")
	}
	if output == "" {
		return fmt.Errorf("output path is required")
	}

	e.logger.Debug().
		Str("input", input).
		Str("output", output).
		Dur("timestamp", timestamp).
		Msg("extracting frame")

	// a stale file from an earlier run must not pass for a fresh frame
	_ = os.Remove(output)

	args := []string{
		"-ss", util.FormatDuration(timestamp),
		"-i", input,
		"-frames:v", "1",
		"-update", "1",
		"-an", "-sn",
		output,
	}

	opts := RunOptions{
		Args: args,
		LogHandler: func(line string) {
			e.logger.Trace().Str("ffmpeg", line).Msg("frame extraction")
		},
	}

	if err := e.Run(ctx, opts); err != nil {
		return fmt.Errorf("frame extraction at %s failed: %w", util.FormatDuration(timestamp), err)
	}

	if !util.FileExists(output) {
		// ffmpeg exits cleanly when seeking past the last frame
		return fmt.Errorf("no frame at %s", util.FormatDuration(timestamp))
	}
	return nil
}

// ExtractFrameIndex writes frame number index of a constant-rate video to output.
func (e *Executor) ExtractFrameIndex(ctx context.Context, input, output string, index int, fps float64) error {
	if index < 0 {
		return fmt.Errorf("negative frame index %d", index)
	}
	return e.ExtractFrame(ctx, input, output, util.FrameSeekTime(index, fps))
}
