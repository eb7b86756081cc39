package playback

import "errors"

// Sentinel errors for playback control.
var (
	ErrHighlightIndex = errors.New("highlight index out of range")
	ErrInvalidSpeed   = errors.New("unsupported playback speed")
)
