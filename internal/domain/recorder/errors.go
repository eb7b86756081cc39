package recorder

import "errors"

// Sentinel kinds for recorder usage errors. Callers match them with errors.Is.
var (
	ErrAlreadyRecording = errors.New("recorder already recording")
	ErrNotRecording     = errors.New("recorder not recording")
	ErrNotStopped       = errors.New("recorder not stopped")
	ErrFinalized        = errors.New("recorder already finalized")
)
