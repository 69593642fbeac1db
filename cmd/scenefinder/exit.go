package main

import (
	"context"
	"errors"

	"github.com/kikiluvv/scenefinder/internal/index"
	"github.com/kikiluvv/scenefinder/internal/prompt"
	"github.com/kikiluvv/scenefinder/internal/remote"
	"github.com/kikiluvv/scenefinder/internal/scene"
	"github.com/kikiluvv/scenefinder/internal/video"
)

const (
	exitFailure     = 1
	exitNoVideo     = 2
	exitNoScenes    = 3
	exitCorrupt     = 4
	exitQueryFailed = 5
	exitInterrupted = 130
)

// exitCode maps a run error to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, video.ErrUnavailable):
		return exitNoVideo
	case errors.Is(err, scene.ErrNoScenes):
		return exitNoScenes
	case errors.Is(err, index.ErrCorrupt):
		return exitCorrupt
	case errors.Is(err, remote.ErrQueryFailed):
		return exitQueryFailed
	case errors.Is(err, prompt.ErrAborted), errors.Is(err, context.Canceled):
		return exitInterrupted
	default:
		return exitFailure
	}
}
