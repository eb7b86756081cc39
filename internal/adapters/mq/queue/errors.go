package queue

import "errors"

// Sentinel kinds for queue errors.
var (
	ErrQueueFull   = errors.New("persistence queue full")
	ErrQueueClosed = errors.New("persistence queue closed")
)
