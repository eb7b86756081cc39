// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"time"
)

// RosterEntry describes a participant as of match end.
type RosterEntry struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Color  string `json:"color,omitempty"`
	Kills  int    `json:"kills"`
	Tokens int64  `json:"tokens"`
	Alive  bool   `json:"alive"`
}

// MVP is the most valuable participant of a match.
type MVP struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Kills  int    `json:"kills"`
	Tokens int64  `json:"tokens"`
	Score  int64  `json:"score"`
}

// Summary holds match-level statistics computed at finalize time.
type Summary struct {
	TotalKills int  `json:"totalKills"`
	MVP        *MVP `json:"mvp,omitempty"`
}

// Timeline is a finalized match recording. It is plain data and must not be
// mutated once handed out by the recorder.
type Timeline struct {
	ID             string        `json:"id"`
	Mode           string        `json:"mode"`
	StartedAt      time.Time     `json:"startedAt"`
	EndedAt        time.Time     `json:"endedAt"`
	Duration       int64         `json:"duration"` // ms, last frame timestamp
	SampleInterval int64         `json:"sampleInterval"`
	Frames         []Frame       `json:"frames"`
	Events         []Event       `json:"events"`
	Highlights     []Highlight   `json:"highlights"`
	Roster         []RosterEntry `json:"roster"`
	Outcome        string        `json:"outcome"`
	Summary        Summary       `json:"summary"`
	Decimated      bool          `json:"decimated,omitempty"`
}

// TimelineInfo is the listing shape of a stored timeline.
type TimelineInfo struct {
	ID         string    `json:"id"`
	Mode       string    `json:"mode"`
	StartedAt  time.Time `json:"startedAt"`
	Duration   int64     `json:"duration"`
	Outcome    string    `json:"outcome"`
	Frames     int       `json:"frames"`
	Events     int       `json:"events"`
	Highlights int       `json:"highlights"`
	Summary    Summary   `json:"summary"`
}

// Info returns the listing view of the timeline.
func (t *Timeline) Info() TimelineInfo {
	return TimelineInfo{
		ID:         t.ID,
		Mode:       t.Mode,
		StartedAt:  t.StartedAt,
		Duration:   t.Duration,
		Outcome:    t.Outcome,
		Frames:     len(t.Frames),
		Events:     len(t.Events),
		Highlights: len(t.Highlights),
		Summary:    t.Summary,
	}
}

// Validate checks the structural invariants a timeline received from outside
// the recorder must hold. Duration must cover the last frame and every event,
// otherwise playback could never reach them.
func (t *Timeline) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidTimeline)
	}
	if t.Duration < 0 {
		return fmt.Errorf("%w: negative duration %d", ErrInvalidTimeline, t.Duration)
	}
	for i := range t.Frames {
		ts := t.Frames[i].Timestamp
		if ts < 0 {
			return fmt.Errorf("%w: frame %d has negative timestamp", ErrInvalidTimeline, i)
		}
		if i > 0 && ts < t.Frames[i-1].Timestamp {
			return fmt.Errorf("%w: frame %d goes back in time", ErrInvalidTimeline, i)
		}
		if ts > t.Duration {
			return fmt.Errorf("%w: frame %d at %d past duration %d", ErrInvalidTimeline, i, ts, t.Duration)
		}
	}
	for i := range t.Events {
		e := &t.Events[i]
		if err := e.Validate(); err != nil {
			return fmt.Errorf("%w: event %d: %v", ErrInvalidTimeline, i, err)
		}
		if e.Timestamp < 0 || e.Timestamp > t.Duration {
			return fmt.Errorf("%w: event %d outside [0, %d]", ErrInvalidTimeline, i, t.Duration)
		}
	}
	for i := range t.Highlights {
		h := &t.Highlights[i]
		if !h.Kind.Valid() {
			return fmt.Errorf("%w: highlight %d has unknown kind %q", ErrInvalidTimeline, i, h.Kind)
		}
		if h.Importance < MinImportance || h.Importance > MaxImportance {
			return fmt.Errorf("%w: highlight %d importance %d outside [%d, %d]",
				ErrInvalidTimeline, i, h.Importance, MinImportance, MaxImportance)
		}
		if h.Duration < 0 {
			return fmt.Errorf("%w: highlight %d has negative duration", ErrInvalidTimeline, i)
		}
		if h.Timestamp < 0 || h.Timestamp > t.Duration {
			return fmt.Errorf("%w: highlight %d outside [0, %d]", ErrInvalidTimeline, i, t.Duration)
		}
	}
	return nil
}
