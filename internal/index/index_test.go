package index

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/kikiluvv/scenefinder/internal/scene"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "captions.json")
	idx := Index{
		1:  "a dog runs",
		2:  "",
		10: "café <terrace> & chairs",
	}

	require.NoError(t, Save(path, idx))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, idx, loaded)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `    "scene_1": "a dog runs",`)
	assert.Contains(t, text, "café <terrace> & chairs")
	assert.Less(t, strings.Index(text, "scene_2"), strings.Index(text, "scene_10"))
}

func TestLoadMissingIsEmpty(t *testing.T) {
	idx, err := Load(filepath.Join(t.TempDir(), "none.json"))
	require.NoError(t, err)
	assert.Empty(t, idx)
}

func TestLoadCorrupt(t *testing.T) {
	dir := t.TempDir()

	broken := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte(`{"scene_1": "a dog`), 0644))
	_, err := Load(broken)
	assert.ErrorIs(t, err, ErrCorrupt)

	badKey := filepath.Join(dir, "badkey.json")
	require.NoError(t, os.WriteFile(badKey, []byte(`{"clip_1": "a dog"}`), 0644))
	_, err = Load(badKey)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestVerify(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(scene.FramePath(dir, 1), []byte("png"), 0644))

	assert.NoError(t, Verify(Index{1: "a dog"}, dir))
	assert.ErrorIs(t, Verify(Index{1: "a dog", 2: "a cat"}, dir), ErrCorrupt)
	assert.ErrorIs(t, Verify(Index{}, dir), ErrCorrupt)
}

type fakeCaptioner struct {
	calls    atomic.Int32
	captions map[string]string
}

func (f *fakeCaptioner) Caption(ctx context.Context, imagePath string) (string, error) {
	f.calls.Add(1)
	text, ok := f.captions[filepath.Base(imagePath)]
	if !ok {
		return "", fmt.Errorf("model unavailable")
	}
	return text, nil
}

func (f *fakeCaptioner) Name() string { return "fake" }
func (f *fakeCaptioner) Close() error { return nil }

func TestBuild(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"scene_1.png", "scene_2.png", "scene_3.png", "cover.png"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("png"), 0644))
	}

	captioner := &fakeCaptioner{captions: map[string]string{
		"scene_1.png": "a dog runs",
		"scene_3.png": "a dog barks",
	}}

	idx, stats, err := NewBuilder(zerolog.Nop(), captioner, 2).Build(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, Index{1: "a dog runs", 2: "", 3: "a dog barks"}, idx)
	assert.Equal(t, BuildStats{Scenes: 3, Failures: 1}, stats)
	assert.EqualValues(t, 3, captioner.calls.Load())
}

func TestBuildCancelled(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scene_1.png"), []byte("png"), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := NewBuilder(zerolog.Nop(), &fakeCaptioner{}, 1).Build(ctx, dir)
	assert.ErrorIs(t, err, context.Canceled)
}
