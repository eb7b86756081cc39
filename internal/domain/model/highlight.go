// Package model contains domain models passed between layers.
package model

// HighlightKind classifies a highlight window.
type HighlightKind string

// Highlight kinds.
const (
	HighlightFirstBlood HighlightKind = "first_blood"
	HighlightMultiKill  HighlightKind = "multi_kill"
	HighlightClutch     HighlightKind = "clutch"
	HighlightLastStand  HighlightKind = "last_stand"
)

// Importance bounds.
const (
	MinImportance = 1
	MaxImportance = 10
)

// Valid reports whether k is a known highlight kind.
func (k HighlightKind) Valid() bool {
	switch k {
	case HighlightFirstBlood, HighlightMultiKill, HighlightClutch, HighlightLastStand:
		return true
	}
	return false
}

// Highlight is a derived time window flagged as narratively significant.
type Highlight struct {
	Timestamp   int64         `json:"timestamp"`
	Duration    int64         `json:"duration"`
	Kind        HighlightKind `json:"kind"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Actors      []string      `json:"actors"`
	Importance  int           `json:"importance"` // 1..10
}

// Contains reports whether t falls inside [Timestamp, Timestamp+Duration].
func (h *Highlight) Contains(t int64) bool {
	return t >= h.Timestamp && t <= h.Timestamp+h.Duration
}
