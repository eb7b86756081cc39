// Package scoring ranks match participants for the end-of-match summary.
package scoring

import "github.com/okian/arena/internal/domain/model"

// Default scoring configuration constants.
const (
	defaultKillWeight  = 10
	defaultTokenWeight = 1
)

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithKillWeight sets how many points one kill is worth.
func WithKillWeight(weight int64) Option {
	return func(s *Scorer) {
		if weight >= 0 {
			s.killWeight = weight
		}
	}
}

// WithTokenWeight sets how many points one token is worth.
func WithTokenWeight(weight int64) Option {
	return func(s *Scorer) {
		if weight >= 0 {
			s.tokenWeight = weight
		}
	}
}

// Scorer computes participant scores as kills*killWeight + tokens*tokenWeight.
type Scorer struct {
	killWeight  int64
	tokenWeight int64
}

// New creates a scorer with the default weights (kills*10 + tokens).
func New(opts ...Option) *Scorer {
	s := &Scorer{
		killWeight:  defaultKillWeight,
		tokenWeight: defaultTokenWeight,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score returns the score of a single roster entry.
func (s *Scorer) Score(e model.RosterEntry) int64 {
	return int64(e.Kills)*s.killWeight + e.Tokens*s.tokenWeight
}

// MVP returns the highest-scoring roster entry. Ties keep the entry that
// appears first in the roster. Returns nil for an empty roster.
func (s *Scorer) MVP(roster []model.RosterEntry) *model.MVP {
	var best *model.MVP
	for _, e := range roster {
		score := s.Score(e)
		if best != nil && score <= best.Score {
			continue
		}
		name := e.Name
		if name == "" {
			name = e.ID
		}
		best = &model.MVP{ID: e.ID, Name: name, Kills: e.Kills, Tokens: e.Tokens, Score: score}
	}
	return best
}

// TotalKills sums kills over the roster.
func TotalKills(roster []model.RosterEntry) int {
	total := 0
	for _, e := range roster {
		total += e.Kills
	}
	return total
}
