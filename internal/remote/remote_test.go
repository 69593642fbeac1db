package remote

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/kikiluvv/scenefinder/internal/ffmpeg"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResponse(t *testing.T) {
	reply := "```json\n" + `{"timestamps": [{"start": "01:02:03"}, {"end": "00:10"}, {"start": "02:03"}, {"start": 5}]}` + "\n```"

	resp, err := ParseResponse(reply)
	require.NoError(t, err)
	assert.Equal(t, []string{"01:02:03", "02:03"}, resp.Timestamps)
	assert.Equal(t, 2, resp.Invalid)
}

func TestParseResponsePlain(t *testing.T) {
	resp, err := ParseResponse(`{"timestamps": []}`)
	require.NoError(t, err)
	assert.Empty(t, resp.Timestamps)
}

func TestParseResponseMalformed(t *testing.T) {
	for _, reply := range []string{"", "no scenes here", `{"timestamps": "soon"}`, `{"scenes": []}`} {
		_, err := ParseResponse(reply)
		assert.ErrorIs(t, err, ErrQueryFailed, "reply %q", reply)
	}
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt("a dog catching a frisbee")
	assert.Contains(t, p, `"a dog catching a frisbee"`)
	assert.Contains(t, p, `"timestamps"`)
}

type fakeExtractor struct {
	fps       float64
	extracted []int
	fail      map[int]bool
}

func (f *fakeExtractor) ProbeVideo(ctx context.Context, path string) (*ffmpeg.VideoInfo, error) {
	return &ffmpeg.VideoInfo{FilePath: path, Width: 640, Height: 360, FPS: f.fps}, nil
}

func (f *fakeExtractor) ExtractFrameIndex(ctx context.Context, input, output string, index int, fps float64) error {
	if f.fail[index] {
		return fmt.Errorf("no frame at %d", index)
	}
	f.extracted = append(f.extracted, index)
	return os.WriteFile(output, []byte("png"), 0644)
}

func TestResolve(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "frames")
	ex := &fakeExtractor{fps: 30, fail: map[int]bool{300: true}}
	require.NoError(t, os.MkdirAll(dir, 0755))
	stale := filepath.Join(dir, "frame_9.png")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0644))

	frames, err := NewResolver(zerolog.Nop(), ex, dir).Resolve(
		context.Background(), "video.mp4",
		[]string{"01:02:03", "bad", "02:03", "00:10"},
	)
	require.NoError(t, err)

	assert.Equal(t, []int{111690, 3690}, ex.extracted)
	require.Len(t, frames, 2)
	assert.Equal(t, "01:02:03", frames[0].Timestamp)
	assert.Equal(t, 111690, frames[0].Index)
	assert.Equal(t, filepath.Join(dir, "frame_1.png"), frames[0].Path)
	assert.Equal(t, filepath.Join(dir, "frame_3.png"), frames[1].Path)
	assert.NoFileExists(t, stale)
}

func TestResolveNothing(t *testing.T) {
	frames, err := NewResolver(zerolog.Nop(), &fakeExtractor{fps: 30}, t.TempDir()).Resolve(context.Background(), "video.mp4", nil)
	require.NoError(t, err)
	assert.Empty(t, frames)
}
