package scene

import (
	"fmt"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// ContentDetector flags a cut when the mean HSV difference between two
// consecutive frames exceeds Threshold. Channels use the 8-bit OpenCV
// ranges (H 0-179, S and V 0-255) so thresholds match PySceneDetect.
type ContentDetector struct {
	Threshold   float64
	MinSceneLen int

	width, height int
	prev          []hsv
	cur           []hsv
	frame         int
	lastCut       int
	lastScore     float64
}

type hsv struct {
	h, s, v float64
}

// NewContentDetector creates a detector for frames of width x height pixels.
func NewContentDetector(width, height int, threshold float64, minSceneLen int) *ContentDetector {
	return &ContentDetector{
		Threshold:   threshold,
		MinSceneLen: minSceneLen,
		width:       width,
		height:      height,
	}
}

// Push feeds the next frame as packed RGB24 and reports whether it starts
// a new scene. The first frame always starts a scene.
func (d *ContentDetector) Push(rgb []byte) (bool, error) {
	pixels := d.width * d.height
	if len(rgb) != pixels*3 {
		return false, fmt.Errorf("frame has %d bytes, expected %d", len(rgb), pixels*3)
	}

	if d.cur == nil {
		d.cur = make([]hsv, pixels)
		d.prev = make([]hsv, pixels)
	}
	for i := 0; i < pixels; i++ {
		d.cur[i] = toHSV(rgb[i*3], rgb[i*3+1], rgb[i*3+2])
	}

	index := d.frame
	d.frame++

	if index == 0 {
		d.prev, d.cur = d.cur, d.prev
		d.lastCut = 0
		d.lastScore = 0
		return true, nil
	}

	var dh, ds, dv float64
	for i := 0; i < pixels; i++ {
		dh += math.Abs(d.cur[i].h - d.prev[i].h)
		ds += math.Abs(d.cur[i].s - d.prev[i].s)
		dv += math.Abs(d.cur[i].v - d.prev[i].v)
	}
	n := float64(pixels)
	d.lastScore = (dh/n + ds/n + dv/n) / 3

	d.prev, d.cur = d.cur, d.prev

	if d.lastScore > d.Threshold && index-d.lastCut >= d.MinSceneLen {
		d.lastCut = index
		return true, nil
	}
	return false, nil
}

// LastScore is the content value computed for the most recent frame.
func (d *ContentDetector) LastScore() float64 {
	return d.lastScore
}

func toHSV(r, g, b uint8) hsv {
	h, s, v := colorful.Color{
		R: float64(r) / 255,
		G: float64(g) / 255,
		B: float64(b) / 255,
	}.Hsv()
	return hsv{h: h / 2, s: s * 255, v: v * 255}
}
