package scene

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/kikiluvv/scenefinder/internal/ffmpeg"
	"github.com/kikiluvv/scenefinder/pkg/util"
	"github.com/rs/zerolog"
)

// ErrNoScenes is returned when a video yields no usable scene.
var ErrNoScenes = errors.New("no scenes detected")

const (
	MethodContent = "content"
	MethodFFmpeg  = "ffmpeg"
)

// Decoder is the subset of the ffmpeg executor the segmenter needs.
type Decoder interface {
	ProbeVideo(ctx context.Context, path string) (*ffmpeg.VideoInfo, error)
	DecodeFrames(ctx context.Context, input string, width, height int, fn ffmpeg.FrameFunc) error
	ExtractFrameIndex(ctx context.Context, input, output string, index int, fps float64) error
	DetectScenes(ctx context.Context, input string, threshold float64) ([]time.Duration, error)
}

// Config configures scene detection
type Config struct {
	Method          string
	Threshold       float64
	MinSceneLen     int
	DownscaleWidth  int
	FFmpegThreshold float64
}

func DefaultConfig() Config {
	return Config{
		Method:          MethodContent,
		Threshold:       27.0,
		MinSceneLen:     15,
		DownscaleWidth:  256,
		FFmpegThreshold: 0.4,
	}
}

// Segmenter splits a video into scenes and saves one frame per scene.
type Segmenter struct {
	logger  zerolog.Logger
	decoder Decoder
	config  Config
}

// NewSegmenter creates a segmenter backed by decoder
func NewSegmenter(logger zerolog.Logger, decoder Decoder, cfg Config) *Segmenter {
	return &Segmenter{
		logger:  logger.With().Str("component", "scene-segmenter").Logger(),
		decoder: decoder,
		config:  cfg,
	}
}

// Detect returns the start frame of every scene in ascending order along
// with the probed stream info.
func (s *Segmenter) Detect(ctx context.Context, videoPath string) ([]int, *ffmpeg.VideoInfo, error) {
	info, err := s.decoder.ProbeVideo(ctx, videoPath)
	if err != nil {
		return nil, nil, fmt.Errorf("probe failed: %w", err)
	}

	var starts []int
	switch s.config.Method {
	case MethodFFmpeg:
		starts, err = s.detectFFmpeg(ctx, videoPath, info)
	case MethodContent, "":
		starts, err = s.detectContent(ctx, videoPath, info)
	default:
		return nil, nil, fmt.Errorf("unknown segmentation method %q", s.config.Method)
	}
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info().
		Str("method", s.config.Method).
		Int("scenes", len(starts)).
		Msg("scene detection complete")

	return starts, info, nil
}

func (s *Segmenter) detectContent(ctx context.Context, videoPath string, info *ffmpeg.VideoInfo) ([]int, error) {
	width, height := downscaleSize(info.Width, info.Height, s.config.DownscaleWidth)
	detector := NewContentDetector(width, height, s.config.Threshold, s.config.MinSceneLen)

	var starts []int
	err := s.decoder.DecodeFrames(ctx, videoPath, width, height, func(index int, rgb []byte) error {
		cut, err := detector.Push(rgb)
		if err != nil {
			return err
		}
		if cut {
			s.logger.Debug().
				Int("frame", index).
				Float64("content", detector.LastScore()).
				Msg("scene cut")
			starts = append(starts, index)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("frame decode failed: %w", err)
	}
	return starts, nil
}

func (s *Segmenter) detectFFmpeg(ctx context.Context, videoPath string, info *ffmpeg.VideoInfo) ([]int, error) {
	cuts, err := s.decoder.DetectScenes(ctx, videoPath, s.config.FFmpegThreshold)
	if err != nil {
		return nil, err
	}
	return cutsToStarts(cuts, info.FPS, s.config.MinSceneLen), nil
}

// Segment detects scenes and writes scene_<n>.png for each into dir.
// A boundary frame that cannot be extracted is skipped; the surviving
// scenes keep their detection ordinal.
func (s *Segmenter) Segment(ctx context.Context, videoPath, dir string) ([]Scene, error) {
	if err := util.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("failed to create scene directory: %w", err)
	}

	starts, info, err := s.Detect(ctx, videoPath)
	if err != nil {
		return nil, err
	}

	scenes := make([]Scene, 0, len(starts))
	for i, start := range starts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		id := ID(i + 1)
		path := FramePath(dir, id)
		if err := s.decoder.ExtractFrameIndex(ctx, videoPath, path, start, info.FPS); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.logger.Warn().
				Err(err).
				Int("scene", int(id)).
				Int("frame", start).
				Msg("could not save scene frame, skipping")
			continue
		}

		scenes = append(scenes, Scene{ID: id, StartFrame: start, FramePath: path})
	}

	if len(scenes) == 0 {
		return nil, ErrNoScenes
	}

	s.logger.Info().
		Int("detected", len(starts)).
		Int("saved", len(scenes)).
		Str("dir", dir).
		Msg("scene frames saved")

	return scenes, nil
}

// cutsToStarts converts cut times into ascending start frames beginning at 0.
func cutsToStarts(cuts []time.Duration, fps float64, minSceneLen int) []int {
	starts := []int{0}
	for _, cut := range cuts {
		frame := util.FrameIndex(cut, fps)
		if frame-starts[len(starts)-1] < max(minSceneLen, 1) {
			continue
		}
		starts = append(starts, frame)
	}
	return starts
}

// downscaleSize returns the decode size for a target width, keeping the
// aspect ratio and an even height. A non-positive target keeps the source size.
func downscaleSize(width, height, target int) (int, int) {
	if target <= 0 || target >= width {
		return width, height
	}
	h := int(math.Round(float64(height) * float64(target) / float64(width)))
	h -= h % 2
	if h < 2 {
		h = 2
	}
	return target, h
}
