// Package playback implements a deterministic cursor over a finalized
// timeline: seek, play and pause, variable speed and highlight-driven slow
// motion.
//
// A Player is single-goroutine and synchronous. It never mutates the timeline
// it reads from, so many players may share one timeline.
package playback

import (
	"fmt"
	"sort"

	"github.com/okian/arena/internal/domain/model"
	"github.com/okian/arena/pkg/metrics"
)

// Speeds lists the supported playback speeds.
var Speeds = []float64{0.25, 0.5, 1, 2, 4} //nolint:gochecknoglobals // fixed speed set

// Default playback speeds.
const (
	DefaultSpeed      = 1.0
	DefaultSlowMotion = 0.5
)

// ValidSpeed reports whether speed is one of Speeds.
func ValidSpeed(speed float64) bool {
	for _, s := range Speeds {
		if s == speed {
			return true
		}
	}
	return false
}

// PlaybackState is the observable state of a Player. Frame and
// ActiveHighlight point into the underlying timeline and must not be
// modified.
type PlaybackState struct {
	Playing         bool             `json:"playing"`
	CurrentTime     int64            `json:"currentTime"`
	Duration        int64            `json:"duration"`
	Speed           float64          `json:"speed"`
	Frame           *model.Frame     `json:"frame,omitempty"`
	ActiveHighlight *model.Highlight `json:"activeHighlight,omitempty"`
}

type subscriber struct {
	id int
	fn func(PlaybackState)
}

// Player is a stateful cursor over one timeline.
type Player struct {
	tl       *model.Timeline
	duration int64
	// byTime holds indices into tl.Highlights ordered by timestamp.
	byTime []int

	playing    bool
	pos        float64 // ms, fractional so slow speeds accumulate
	speed      float64
	slowMotion float64
	frame      int // -1 when there are no frames
	active     int // -1 when no highlight covers pos

	subs   []subscriber
	nextID int
}

// New creates a paused player positioned at t=0. A nil timeline behaves as an
// empty one.
func New(tl *model.Timeline, opts ...Option) *Player {
	if tl == nil {
		tl = &model.Timeline{}
	}
	p := &Player{
		tl:         tl,
		duration:   tl.Duration,
		speed:      DefaultSpeed,
		slowMotion: DefaultSlowMotion,
		frame:      -1,
		active:     -1,
	}
	if p.duration < 0 {
		p.duration = 0
	}
	for _, opt := range opts {
		opt(p)
	}

	p.byTime = make([]int, len(tl.Highlights))
	for i := range p.byTime {
		p.byTime[i] = i
	}
	sort.SliceStable(p.byTime, func(a, b int) bool {
		return tl.Highlights[p.byTime[a]].Timestamp < tl.Highlights[p.byTime[b]].Timestamp
	})

	p.recompute()
	return p
}

// Timeline returns the timeline being played.
func (p *Player) Timeline() *model.Timeline { return p.tl }

// State returns a snapshot of the current playback state.
func (p *Player) State() PlaybackState {
	s := PlaybackState{
		Playing:     p.playing,
		CurrentTime: int64(p.pos),
		Duration:    p.duration,
		Speed:       p.speed,
	}
	if p.frame >= 0 {
		s.Frame = &p.tl.Frames[p.frame]
	}
	if p.active >= 0 {
		s.ActiveHighlight = &p.tl.Highlights[p.active]
	}
	return s
}

// SeekTo moves the cursor to t, clamped to [0, duration].
func (p *Player) SeekTo(t int64) {
	p.seek(float64(t))
	metrics.RecordPlaybackSeek()
	p.notify()
}

// Tick advances a playing cursor by deltaMs scaled by the current speed.
// Reaching the end clamps and pauses.
func (p *Player) Tick(deltaMs int64) {
	if !p.playing || deltaMs <= 0 {
		return
	}
	next := p.pos + float64(deltaMs)*p.speed
	if next >= float64(p.duration) {
		next = float64(p.duration)
		p.playing = false
	}
	p.seek(next)
	p.notify()
}

// SeekToHighlight jumps to highlight i (in timeline order) and plays it in
// slow motion.
func (p *Player) SeekToHighlight(i int) error {
	if i < 0 || i >= len(p.tl.Highlights) {
		return fmt.Errorf("playback.seek_to_highlight %d: %w", i, ErrHighlightIndex)
	}
	p.speed = p.slowMotion
	p.playing = p.duration > 0
	p.seek(float64(p.tl.Highlights[i].Timestamp))
	metrics.RecordPlaybackSeek()
	p.notify()
	return nil
}

// Play starts playback. Playing from the end restarts from zero.
func (p *Player) Play() {
	if p.duration == 0 {
		return
	}
	if int64(p.pos) >= p.duration {
		p.seek(0)
	}
	p.playing = true
	p.notify()
}

// Pause stops playback, keeping the cursor.
func (p *Player) Pause() {
	p.playing = false
	p.notify()
}

// Toggle flips between playing and paused.
func (p *Player) Toggle() {
	if p.playing {
		p.Pause()
		return
	}
	p.Play()
}

// SetSpeed changes the playback speed.
func (p *Player) SetSpeed(speed float64) error {
	if !ValidSpeed(speed) {
		return fmt.Errorf("playback.set_speed %v: %w", speed, ErrInvalidSpeed)
	}
	p.speed = speed
	p.notify()
	return nil
}

// EventsInRange returns the events with timestamps in [t0, t1]. Swapped
// bounds are accepted.
func (p *Player) EventsInRange(t0, t1 int64) []model.Event {
	if t0 > t1 {
		t0, t1 = t1, t0
	}
	var out []model.Event
	for i := range p.tl.Events {
		if ts := p.tl.Events[i].Timestamp; ts >= t0 && ts <= t1 {
			out = append(out, p.tl.Events[i])
		}
	}
	return out
}

// Subscribe registers fn to receive the state after every state-changing
// call. The returned function removes the subscription.
func (p *Player) Subscribe(fn func(PlaybackState)) (unsubscribe func()) {
	id := p.nextID
	p.nextID++
	p.subs = append(p.subs, subscriber{id: id, fn: fn})
	return func() {
		for i := range p.subs {
			if p.subs[i].id == id {
				p.subs = append(p.subs[:i:i], p.subs[i+1:]...)
				return
			}
		}
	}
}

func (p *Player) seek(t float64) {
	switch {
	case t < 0:
		t = 0
	case t > float64(p.duration):
		t = float64(p.duration)
	}
	p.pos = t
	p.recompute()
}

func (p *Player) recompute() {
	t := int64(p.pos)

	frames := p.tl.Frames
	switch len(frames) {
	case 0:
		p.frame = -1
	default:
		// Floor lookup: the last frame at or before t.
		i := sort.Search(len(frames), func(i int) bool { return frames[i].Timestamp > t })
		if i == 0 {
			i = 1
		}
		p.frame = i - 1
	}

	p.active = -1
	for _, idx := range p.byTime {
		if p.tl.Highlights[idx].Contains(t) {
			p.active = idx
			break
		}
	}
}

func (p *Player) notify() {
	if len(p.subs) == 0 {
		return
	}
	s := p.State()
	for _, sub := range p.subs {
		sub.fn(s)
	}
}
