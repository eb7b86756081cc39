package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted = errors.New("service not started")
	ErrNilReplay  = errors.New("replay body is empty")
)
