package collage

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"os"

	"github.com/kikiluvv/scenefinder/pkg/util"
	"github.com/nfnt/resize"
	"github.com/rs/zerolog"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Config controls collage geometry
type Config struct {
	Columns     int
	ThumbWidth  int
	ThumbHeight int // 0 keeps the aspect ratio of the first image
}

func DefaultConfig() Config {
	return Config{
		Columns:     5,
		ThumbWidth:  200,
		ThumbHeight: 112,
	}
}

// Result describes a render. Rendered is false when no image could be
// loaded; nothing is written in that case.
type Result struct {
	Rendered bool
	Path     string
	Placed   []string
	Skipped  []string
	Layout   Layout
}

// Renderer writes collages to disk.
type Renderer struct {
	logger zerolog.Logger
	config Config
}

// NewRenderer creates a renderer
func NewRenderer(logger zerolog.Logger, cfg Config) *Renderer {
	return &Renderer{
		logger: logger.With().Str("component", "collage").Logger(),
		config: cfg,
	}
}

// Render lays out paths in rank order and overwrites output with the
// collage. Paths that cannot be loaded are skipped with a warning.
func (r *Renderer) Render(paths []string, output string) (Result, error) {
	result := Result{Path: output}

	var images []image.Image
	for _, path := range paths {
		img, err := loadImage(path)
		if err != nil {
			r.logger.Warn().Err(err).Str("image", path).Msg("skipping image")
			result.Skipped = append(result.Skipped, path)
			continue
		}
		images = append(images, img)
		result.Placed = append(result.Placed, path)
	}

	if len(images) == 0 {
		r.logger.Warn().Int("requested", len(paths)).Msg("no images available for collage")
		return result, nil
	}

	thumbHeight := r.config.ThumbHeight
	if thumbHeight <= 0 {
		thumbHeight = aspectHeight(images[0].Bounds(), r.config.ThumbWidth)
	}
	layout := ComputeLayout(len(images), r.config.Columns, r.config.ThumbWidth, thumbHeight)
	result.Layout = layout

	canvas := image.NewRGBA(layout.Bounds())
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	for i, img := range images {
		thumb := resize.Resize(uint(layout.ThumbWidth), uint(layout.ThumbHeight), img, resize.Lanczos3)
		cell := layout.Cell(i)
		draw.Draw(canvas, cell, thumb, thumb.Bounds().Min, draw.Over)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return result, fmt.Errorf("failed to encode collage: %w", err)
	}
	if err := util.WriteFileAtomic(output, buf.Bytes(), 0644); err != nil {
		return result, fmt.Errorf("failed to write collage: %w", err)
	}

	result.Rendered = true
	r.logger.Info().
		Str("path", output).
		Int("images", len(images)).
		Int("columns", layout.Columns).
		Int("rows", layout.Rows).
		Msg("collage saved")

	return result, nil
}

func loadImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}
