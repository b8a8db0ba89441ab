package tlas

import "errors"

var (
	ErrInvalidSlot = errors.New("tlas: dynamic tree slot must be 0 or 1")
	ErrSlotStale   = errors.New("tlas: inactive dynamic tree is not ready")
	ErrSlotActive  = errors.New("tlas: cannot rebuild the active dynamic tree")
)
