package renderer

import "errors"

var (
	ErrNoTracers        = errors.New("renderer: no tracers attached")
	ErrSceneNotDefined  = errors.New("renderer: no scene defined")
	ErrCameraNotDefined = errors.New("renderer: no camera defined")
	ErrGraphNotDefined  = errors.New("renderer: no object graph defined")
	ErrInterrupted      = errors.New("renderer: interrupted while rendering")
	ErrRebuildPending   = errors.New("renderer: a dynamic tree rebuild is already in progress")
	ErrSwapFailed       = errors.New("renderer: rebuilt dynamic tree could not be swapped in")
)
