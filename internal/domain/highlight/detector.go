// Package highlight derives ranked highlight windows from a finished match.
//
// Detection is a pure function of the recorded frames, events and roster, so
// the same timeline always yields the same highlights.
package highlight

import (
	"fmt"
	"sort"

	"github.com/okian/arena/internal/domain/model"
)

// Detection constants, in milliseconds unless noted.
const (
	DefaultKillWindow        = 3000
	DefaultSuppressionWindow = 2000
	DefaultMaxHighlights     = 8
	DefaultClutchHealth      = 0.2
	clutchFrameTolerance     = 200

	firstBloodLead     = 2000
	firstBloodDuration = 4000
	multiKillLead      = 1000
	multiKillTail      = 1000
	lastStandLead      = 3000
	lastStandDuration  = 5000
	clutchLead         = 1500
	clutchDuration     = 3000

	importanceFirstBlood = 7
	importanceDouble     = 8
	importanceTriple     = 10
	importanceLastStand  = 9
	importanceClutch     = 8
)

type detector struct {
	killWindow     int64
	suppressWindow int64
	maxHighlights  int
	clutchHealth   float64
	killIndex      map[string][]int64

	duration int64
}

func newDetector(opts []Option) *detector {
	d := &detector{
		killWindow:     DefaultKillWindow,
		suppressWindow: DefaultSuppressionWindow,
		maxHighlights:  DefaultMaxHighlights,
		clutchHealth:   DefaultClutchHealth,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Duration returns the playable length of a recording: the later of the last
// frame and the last event timestamp.
func Duration(frames []model.Frame, events []model.Event) int64 {
	var d int64
	if n := len(frames); n > 0 {
		d = frames[n-1].Timestamp
	}
	for i := range events {
		if events[i].Timestamp > d {
			d = events[i].Timestamp
		}
	}
	return d
}

// Detect runs every detection pass over a finished match and returns the
// ranked, suppressed and truncated highlight list.
func Detect(frames []model.Frame, events []model.Event, roster []model.RosterEntry, opts ...Option) []model.Highlight {
	d := newDetector(opts)
	d.duration = Duration(frames, events)

	kills := killEvents(events)
	if len(kills) == 0 {
		return []model.Highlight{}
	}

	candidates := make([]model.Highlight, 0, len(kills)+2)
	candidates = append(candidates, d.firstBlood(kills)...)
	candidates = append(candidates, d.multiKills(kills)...)
	candidates = append(candidates, d.lastStand(kills, frames, roster)...)
	candidates = append(candidates, d.clutches(kills, frames)...)

	return d.rank(candidates)
}

// Rank orders candidates by importance (desc) then timestamp (asc), drops any
// candidate that lies within the suppression window of an already kept one
// and truncates the result.
func Rank(candidates []model.Highlight, opts ...Option) []model.Highlight {
	return newDetector(opts).rank(candidates)
}

func (d *detector) rank(candidates []model.Highlight) []model.Highlight {
	sorted := make([]model.Highlight, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Importance != sorted[j].Importance {
			return sorted[i].Importance > sorted[j].Importance
		}
		return sorted[i].Timestamp < sorted[j].Timestamp
	})

	kept := make([]model.Highlight, 0, d.maxHighlights)
	for _, c := range sorted {
		if len(kept) == d.maxHighlights {
			break
		}
		if d.suppressed(c, kept) {
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

func (d *detector) suppressed(c model.Highlight, kept []model.Highlight) bool {
	for i := range kept {
		gap := c.Timestamp - kept[i].Timestamp
		if gap < 0 {
			gap = -gap
		}
		if gap < d.suppressWindow {
			return true
		}
	}
	return false
}

// killEvents returns kill events ordered by timestamp, insertion order on ties.
func killEvents(events []model.Event) []model.Event {
	var kills []model.Event
	for _, e := range events {
		if e.Kind == model.EventKill && e.Kill != nil {
			kills = append(kills, e)
		}
	}
	sort.SliceStable(kills, func(i, j int) bool { return kills[i].Timestamp < kills[j].Timestamp })
	return kills
}

func (d *detector) anchor(t int64) int64 {
	if t < 0 {
		return 0
	}
	if t > d.duration {
		return d.duration
	}
	return t
}

func (d *detector) firstBlood(kills []model.Event) []model.Highlight {
	k := kills[0]
	return []model.Highlight{{
		Timestamp:   d.anchor(k.Timestamp - firstBloodLead),
		Duration:    firstBloodDuration,
		Kind:        model.HighlightFirstBlood,
		Title:       "First Blood",
		Description: fmt.Sprintf("%s draws first blood on %s", k.Kill.KillerID, k.Kill.VictimID),
		Actors:      []string{k.Kill.KillerID, k.Kill.VictimID},
		Importance:  importanceFirstBlood,
	}}
}

func (d *detector) multiKills(kills []model.Event) []model.Highlight {
	index, order := d.killIndex, []string(nil)
	if index == nil {
		index = make(map[string][]int64)
		for _, k := range kills {
			if _, ok := index[k.Kill.KillerID]; !ok {
				order = append(order, k.Kill.KillerID)
			}
			index[k.Kill.KillerID] = append(index[k.Kill.KillerID], k.Timestamp)
		}
	} else {
		for id := range index {
			order = append(order, id)
		}
		sort.Strings(order)
	}

	var out []model.Highlight
	for _, actor := range order {
		ts := append([]int64(nil), index[actor]...)
		sort.Slice(ts, func(i, j int) bool { return ts[i] < ts[j] })

		for i := range ts {
			j := i
			for j+1 < len(ts) && ts[j+1]-ts[i] <= d.killWindow {
				j++
			}
			count := j - i + 1
			if count < 2 {
				continue
			}
			title, importance := "Double Kill", importanceDouble
			switch {
			case count == 3:
				title, importance = "Triple Kill", importanceTriple
			case count > 3:
				title, importance = "Multi Kill", importanceTriple
			}
			out = append(out, model.Highlight{
				Timestamp:   d.anchor(ts[i] - multiKillLead),
				Duration:    ts[j] - ts[i] + multiKillLead + multiKillTail,
				Kind:        model.HighlightMultiKill,
				Title:       title,
				Description: fmt.Sprintf("%s scores %d kills in %.1fs", actor, count, float64(ts[j]-ts[i])/1000),
				Actors:      []string{actor},
				Importance:  importance,
			})
			break
		}
	}
	return out
}

func (d *detector) lastStand(kills []model.Event, frames []model.Frame, roster []model.RosterEntry) []model.Highlight {
	alive, known := 0, false
	switch {
	case len(roster) > 0:
		known = true
		for _, r := range roster {
			if r.Alive {
				alive++
			}
		}
	case len(frames) > 0:
		known = true
		for _, a := range frames[len(frames)-1].Actors {
			if a.Alive {
				alive++
			}
		}
	}
	if !known || alive > 1 {
		return nil
	}

	k := kills[len(kills)-1]
	return []model.Highlight{{
		Timestamp:   d.anchor(k.Timestamp - lastStandLead),
		Duration:    lastStandDuration,
		Kind:        model.HighlightLastStand,
		Title:       "Last Stand",
		Description: fmt.Sprintf("%s takes down %s to close out the match", k.Kill.KillerID, k.Kill.VictimID),
		Actors:      []string{k.Kill.KillerID, k.Kill.VictimID},
		Importance:  importanceLastStand,
	}}
}

func (d *detector) clutches(kills []model.Event, frames []model.Frame) []model.Highlight {
	var out []model.Highlight
	for _, k := range kills {
		f := nearestFrame(frames, k.Timestamp, clutchFrameTolerance)
		if f == nil {
			continue
		}
		killer, ok := f.Actor(k.Kill.KillerID)
		if !ok || killer.MaxHealth <= 0 {
			continue
		}
		frac := killer.HealthFraction()
		if frac >= d.clutchHealth {
			continue
		}
		out = append(out, model.Highlight{
			Timestamp:   d.anchor(k.Timestamp - clutchLead),
			Duration:    clutchDuration,
			Kind:        model.HighlightClutch,
			Title:       "Clutch",
			Description: fmt.Sprintf("%s eliminates %s on %.0f%% health", k.Kill.KillerID, k.Kill.VictimID, frac*100),
			Actors:      []string{k.Kill.KillerID, k.Kill.VictimID},
			Importance:  importanceClutch,
		})
	}
	return out
}

// nearestFrame returns the frame closest to t if it lies within tolerance.
// Ties resolve to the earlier frame.
func nearestFrame(frames []model.Frame, t, tolerance int64) *model.Frame {
	if len(frames) == 0 {
		return nil
	}
	i := sort.Search(len(frames), func(i int) bool { return frames[i].Timestamp >= t })
	best := -1
	var bestGap int64
	if i > 0 {
		best, bestGap = i-1, t-frames[i-1].Timestamp
	}
	if i < len(frames) {
		if gap := frames[i].Timestamp - t; best < 0 || gap < bestGap {
			best, bestGap = i, gap
		}
	}
	if best < 0 || bestGap > tolerance {
		return nil
	}
	return &frames[best]
}
