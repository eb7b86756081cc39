package repository

import "errors"

// Sentinel kinds for replay storage errors.
var (
	ErrNotFound     = errors.New("replay not found")
	ErrNilTimeline  = errors.New("nil timeline")
	ErrEmptyID      = errors.New("timeline id is empty")
	ErrBackendFull  = errors.New("storage backend quota exceeded")
	ErrCorruptBlob  = errors.New("corrupt replay blob")
	ErrUnknownStore = errors.New("unknown storage backend")
)
