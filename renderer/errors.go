package renderer

import "errors"

var (
	ErrNoAccelerator    = errors.New("renderer: no accelerator defined")
	ErrCameraNotDefined = errors.New("renderer: no camera defined")
	ErrInvalidFrameSize = errors.New("renderer: frame dimensions must be non-zero")
)
