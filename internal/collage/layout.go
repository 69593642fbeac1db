// Package collage composes ranked frames into a single grid image.
package collage

import (
	"image"
	"math"
)

// Layout is the grid geometry for a collage of N thumbnails.
type Layout struct {
	Columns     int
	Rows        int
	ThumbWidth  int
	ThumbHeight int
}

// ComputeLayout returns the grid for n thumbnails with at most maxColumns
// per row. n must be positive.
func ComputeLayout(n, maxColumns, thumbWidth, thumbHeight int) Layout {
	cols := min(maxColumns, n)
	if cols < 1 {
		cols = 1
	}
	return Layout{
		Columns:     cols,
		Rows:        (n + cols - 1) / cols,
		ThumbWidth:  thumbWidth,
		ThumbHeight: thumbHeight,
	}
}

// Bounds is the canvas size.
func (l Layout) Bounds() image.Rectangle {
	return image.Rect(0, 0, l.Columns*l.ThumbWidth, l.Rows*l.ThumbHeight)
}

// Cell returns the rectangle for the i-th ranked thumbnail. Rank 0 is top-left
// and cells fill row by row.
func (l Layout) Cell(i int) image.Rectangle {
	x := (i % l.Columns) * l.ThumbWidth
	y := (i / l.Columns) * l.ThumbHeight
	return image.Rect(x, y, x+l.ThumbWidth, y+l.ThumbHeight)
}

// aspectHeight scales height to width while keeping the aspect ratio of src.
func aspectHeight(src image.Rectangle, width int) int {
	if src.Dx() == 0 {
		return width
	}
	h := int(math.Round(float64(width) * float64(src.Dy()) / float64(src.Dx())))
	return max(h, 1)
}
