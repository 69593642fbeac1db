package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 27.0, cfg.Scenes.Threshold)
	assert.Equal(t, 15, cfg.Scenes.MinSceneLen)
	assert.Equal(t, 70.0, cfg.Search.Threshold)
	assert.Equal(t, 5, cfg.Collage.Columns)
	assert.Equal(t, 200, cfg.Collage.ThumbWidth)
	assert.Equal(t, 112, cfg.Collage.ThumbHeight)
	assert.Equal(t, 10*time.Minute, cfg.Remote.Timeout)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenefinder.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
work_dir: /data
video:
  search: super mario movie trailer
captioner:
  provider: openai
  model: gpt-4o-mini
  timeout: 30s
collage:
  columns: 3
  thumb_height: 0
`), 0644))

	t.Setenv("GEMINI_API_KEY", "gem-key")
	t.Setenv("OPENAI_API_KEY", "oa-key")
	t.Setenv("SCENEFINDER_SEARCH_THRESHOLD", "80")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Captioner.Provider)
	assert.Equal(t, 30*time.Second, cfg.Captioner.Timeout)
	assert.Equal(t, 3, cfg.Collage.Columns)
	assert.Equal(t, 0, cfg.Collage.ThumbHeight)
	assert.Equal(t, 80.0, cfg.Search.Threshold)
	assert.Equal(t, "gem-key", cfg.Remote.APIKey)
	assert.Equal(t, "oa-key", cfg.Captioner.APIKey)
	assert.Equal(t, 4, cfg.Captioner.Workers, "unset keys keep defaults")
	assert.Equal(t, filepath.Join("/data", "scenes"), cfg.Resolve(cfg.Scenes.Dir))
	assert.Equal(t, "/abs/video.mp4", cfg.Resolve("/abs/video.mp4"))
}

func TestLoadExplicitMissingFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Collage.ThumbWidth = 0
	cfg.Search.Threshold = 120
	cfg.Captioner.Provider = "clip"
	cfg.Scenes.Method = "histogram"

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"thumb_width", "search.threshold", "captioner.provider", "scenes.method"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestValidateFFmpegThreshold(t *testing.T) {
	for _, v := range []float64{0, -0.2, 1, 1.5} {
		cfg := Default()
		cfg.Scenes.FFmpegThreshold = v
		err := cfg.Validate()
		require.Error(t, err, "threshold %g", v)
		assert.Contains(t, err.Error(), "scenes.ffmpeg_threshold")
	}

	cfg := Default()
	cfg.Scenes.FFmpegThreshold = 0.05
	assert.NoError(t, cfg.Validate())
}

func TestYAMLRedactsSecrets(t *testing.T) {
	cfg := Default()
	cfg.Remote.APIKey = "secret"
	cfg.Captioner.APIKey = "secret"

	data, err := cfg.YAML()
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret")
	assert.Contains(t, string(data), "poll_interval: 10s")
	assert.Equal(t, "secret", cfg.Remote.APIKey)

	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, cfg.Save(path))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Collage, loaded.Collage)
}

func TestContextCarrier(t *testing.T) {
	cfg := Default()
	cfg.WorkDir = "/tmp/run"
	ctx := WithConfig(context.Background(), cfg)
	assert.Same(t, cfg, FromContext(ctx))
	assert.Equal(t, ".", FromContext(context.Background()).WorkDir)
}
