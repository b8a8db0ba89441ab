package tracer

import "errors"

var (
	ErrNoSceneData     = errors.New("tracer: no accelerator attached")
	ErrNoCamera        = errors.New("tracer: no camera attached")
	ErrNotSetup        = errors.New("tracer: frame not attached; call Setup first")
	ErrBlockOutOfRange = errors.New("tracer: block exceeds frame height")
	ErrBusy            = errors.New("tracer: worker did not accept block request")
	ErrClosed          = errors.New("tracer: tracer is closed")
)
