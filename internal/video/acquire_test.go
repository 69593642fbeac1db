package video

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeBinary(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "yt-dlp")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), 0755))
	return path
}

func TestEnsureExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "video.mp4")
	require.NoError(t, os.WriteFile(path, []byte("mp4"), 0644))

	a := NewAcquirer(zerolog.Nop(), DefaultConfig())
	a.run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		t.Fatal("downloader should not run for an existing file")
		return nil, nil
	}
	assert.NoError(t, a.Ensure(context.Background(), path, "anything"))
}

func TestEnsureMissingWithoutSearch(t *testing.T) {
	a := NewAcquirer(zerolog.Nop(), DefaultConfig())
	err := a.Ensure(context.Background(), filepath.Join(t.TempDir(), "video.mp4"), "")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestEnsureDownloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "videos", "video.mp4")
	cfg := DefaultConfig()
	cfg.YtDlpPath = fakeBinary(t)

	var gotArgs []string
	a := NewAcquirer(zerolog.Nop(), cfg)
	a.run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		gotArgs = args
		return nil, os.WriteFile(path, []byte("mp4"), 0644)
	}

	require.NoError(t, a.Ensure(context.Background(), path, "super mario movie trailer"))
	assert.Contains(t, gotArgs, "ytsearch1:super mario movie trailer")
	assert.FileExists(t, path)
}

func TestEnsureDownloadFails(t *testing.T) {
	cfg := DefaultConfig()
	cfg.YtDlpPath = fakeBinary(t)

	a := NewAcquirer(zerolog.Nop(), cfg)
	a.run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte("ERROR: no results\n"), errors.New("exit status 1")
	}

	err := a.Ensure(context.Background(), filepath.Join(t.TempDir(), "video.mp4"), "nothing")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, err.Error(), "no results")
}

func TestEnsureNothingWritten(t *testing.T) {
	cfg := DefaultConfig()
	cfg.YtDlpPath = fakeBinary(t)

	a := NewAcquirer(zerolog.Nop(), cfg)
	a.run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return nil, nil
	}

	err := a.Ensure(context.Background(), filepath.Join(t.TempDir(), "video.mp4"), "trailer")
	assert.ErrorIs(t, err, ErrUnavailable)
}
