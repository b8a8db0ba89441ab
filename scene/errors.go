package scene

import "errors"

var (
	ErrInvalidObject = errors.New("scene: invalid object id")
	ErrLeafParent    = errors.New("scene: leaf objects cannot have children")
	ErrNoSubScene    = errors.New("scene: leaf objects require a sub-scene")
)
