package repository

import "github.com/okian/arena/internal/domain/model"

// DefaultDecimationFactor keeps every third frame.
const DefaultDecimationFactor = 3

// Decimate returns a shallow copy of tl that keeps frames at indices 0,
// factor, 2*factor, ... in order. Events, highlights and roster are shared
// with tl. A factor below 2 keeps every frame but still marks the copy.
func Decimate(tl *model.Timeline, factor int) *model.Timeline {
	out := *tl
	out.Decimated = true
	if factor < 2 {
		out.Frames = append([]model.Frame(nil), tl.Frames...)
		return &out
	}
	out.Frames = make([]model.Frame, 0, (len(tl.Frames)+factor-1)/factor)
	for i := 0; i < len(tl.Frames); i += factor {
		out.Frames = append(out.Frames, tl.Frames[i])
	}
	return &out
}
