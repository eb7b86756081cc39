// Package types contains response shapes shared by the service and the API.
package types

import "github.com/okian/arena/internal/domain/model"

// Submission statuses.
const (
	StatusAccepted  = "accepted"
	StatusDuplicate = "duplicate"
)

// SubmitResult reports what happened to an ingested replay.
type SubmitResult struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Duplicate reports whether the replay had already been ingested.
func (r SubmitResult) Duplicate() bool { return r.Status == StatusDuplicate }

// Recap is the intro/outro material for a replay: the top highlights in
// ranking order plus the match summary.
type Recap struct {
	ID         string            `json:"id"`
	Mode       string            `json:"mode"`
	Outcome    string            `json:"outcome"`
	Duration   int64             `json:"duration"`
	TotalKills int               `json:"totalKills"`
	MVP        *model.MVP        `json:"mvp,omitempty"`
	Highlights []model.Highlight `json:"highlights"`
}

// NewRecap builds a recap of tl limited to the top n highlights. n <= 0
// keeps every highlight.
func NewRecap(tl *model.Timeline, n int) Recap {
	hs := tl.Highlights
	if n > 0 && n < len(hs) {
		hs = hs[:n]
	}
	return Recap{
		ID:         tl.ID,
		Mode:       tl.Mode,
		Outcome:    tl.Outcome,
		Duration:   tl.Duration,
		TotalKills: tl.Summary.TotalKills,
		MVP:        tl.Summary.MVP,
		Highlights: append([]model.Highlight{}, hs...),
	}
}

// FrameView is a playback snapshot at a requested time.
type FrameView struct {
	Requested       int64            `json:"requested"`
	CurrentTime     int64            `json:"currentTime"`
	Duration        int64            `json:"duration"`
	Frame           *model.Frame     `json:"frame"`
	ActiveHighlight *model.Highlight `json:"activeHighlight"`
}
