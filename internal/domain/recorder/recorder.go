// Package recorder captures one match as an append-only timeline of sampled
// frames and discrete events, and freezes it into a model.Timeline.
//
// A Recorder is owned by the host simulation loop and driven synchronously,
// once per tick. It performs no I/O and never blocks. The lifecycle is
// Idle -> Recording -> Stopped -> Finalized; a finalized recorder is spent.
package recorder

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/okian/arena/internal/domain/highlight"
	"github.com/okian/arena/internal/domain/model"
	"github.com/okian/arena/internal/domain/scoring"
	"github.com/okian/arena/pkg/logger"
	"github.com/okian/arena/pkg/metrics"
)

// Default recorder configuration constants.
const (
	DefaultSampleInterval = 100 // ms
	DefaultMinDamage      = 10
	defaultMaxFrames      = 72_000 // two hours at the default interval
	defaultMaxEvents      = 100_000
	initialFrameCapacity  = 1024
	initialEventCapacity  = 256
)

// State is the lifecycle state of a Recorder.
type State int

// Recorder states.
const (
	StateIdle State = iota
	StateRecording
	StateStopped
	StateFinalized
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateStopped:
		return "stopped"
	case StateFinalized:
		return "finalized"
	default:
		return "unknown"
	}
}

// Recorder owns the timeline of a single match.
type Recorder struct {
	state State
	mode  string

	frames    []model.Frame
	events    []model.Event
	killIndex map[string][]int64

	lastSample int64
	sampled    bool
	clock      int64 // latest elapsed time seen, ms

	startedAt time.Time

	// Configuration
	sampleInterval int64
	minDamage      float64
	maxFrames      int
	maxEvents      int
	highlightOpts  []highlight.Option
	scorer         *scoring.Scorer
	now            func() time.Time
	newID          func() string

	logger logger.Logger
}

// New creates an idle recorder.
func New(opts ...Option) *Recorder {
	r := &Recorder{
		sampleInterval: DefaultSampleInterval,
		minDamage:      DefaultMinDamage,
		maxFrames:      defaultMaxFrames,
		maxEvents:      defaultMaxEvents,
		scorer:         scoring.New(),
		now:            time.Now,
		newID:          uuid.NewString,
		logger:         logger.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// State returns the current lifecycle state.
func (r *Recorder) State() State { return r.state }

// Mode returns the mode tag passed to Start.
func (r *Recorder) Mode() string { return r.mode }

// Elapsed returns the latest elapsed time observed, in ms.
func (r *Recorder) Elapsed() int64 { return r.clock }

// FrameCount returns the number of accepted frames.
func (r *Recorder) FrameCount() int { return len(r.frames) }

// EventCount returns the number of logged events.
func (r *Recorder) EventCount() int { return len(r.events) }

// Start resets all buffers and begins a new recording with a match_start
// event at t=0.
func (r *Recorder) Start(mode string) error {
	const op = "recorder.start"
	switch r.state {
	case StateRecording:
		return fmt.Errorf("%s: %w", op, ErrAlreadyRecording)
	case StateFinalized:
		return fmt.Errorf("%s: %w", op, ErrFinalized)
	}

	r.mode = mode
	r.frames = make([]model.Frame, 0, initialFrameCapacity)
	r.events = make([]model.Event, 0, initialEventCapacity)
	r.killIndex = make(map[string][]int64)
	r.lastSample = 0
	r.sampled = false
	r.clock = 0
	r.startedAt = r.now()
	r.state = StateRecording

	r.append(model.NewBoundaryEvent(model.EventMatchStart, mode, ""), 0)

	r.logger.Info(context.Background(), "recording started", logger.String("mode", mode))
	return nil
}

// RecordFrame samples the actors into a new frame. Calls that arrive sooner
// than the sample interval after the last accepted frame are ignored, as are
// calls behind it.
func (r *Recorder) RecordFrame(actors []model.ActorSnapshot, primary *model.ActorSnapshot, elapsedMs int64) error {
	if r.state != StateRecording {
		return fmt.Errorf("recorder.record_frame: %w", ErrNotRecording)
	}
	if elapsedMs < 0 {
		elapsedMs = 0
	}
	if r.sampled && elapsedMs-r.lastSample < r.sampleInterval {
		metrics.RecordFrameThrottled()
		return nil
	}
	if len(r.frames) >= r.maxFrames {
		metrics.RecordFrameDropped()
		return nil
	}

	f := model.Frame{
		Timestamp: elapsedMs,
		Actors:    append([]model.ActorSnapshot(nil), actors...),
	}
	if primary != nil {
		p := *primary
		f.Primary = &p
	}
	r.frames = append(r.frames, f)
	r.lastSample = elapsedMs
	r.sampled = true
	r.advance(elapsedMs)

	metrics.RecordFrameRecorded()
	return nil
}

// RecordEvent appends a discrete event at elapsedMs. Damage below the
// configured threshold is dropped without error.
func (r *Recorder) RecordEvent(e model.Event, elapsedMs int64) error {
	const op = "recorder.record_event"
	if r.state != StateRecording {
		return fmt.Errorf("%s: %w", op, ErrNotRecording)
	}
	if err := e.Validate(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if e.Kind == model.EventDamage && e.Damage.Amount < r.minDamage {
		metrics.RecordDamageFiltered()
		return nil
	}
	if elapsedMs < 0 {
		elapsedMs = 0
	}
	r.append(e, elapsedMs)
	return nil
}

// RecordKill logs a kill and indexes it under the killer for multi-kill
// detection.
func (r *Recorder) RecordKill(killerID, victimID, weapon string, elapsedMs int64) error {
	before := len(r.events)
	if err := r.RecordEvent(model.NewKillEvent(killerID, victimID, weapon), elapsedMs); err != nil {
		return err
	}
	if len(r.events) == before {
		return nil
	}
	if elapsedMs < 0 {
		elapsedMs = 0
	}
	r.killIndex[killerID] = append(r.killIndex[killerID], elapsedMs)
	return nil
}

// RecordDamage logs a damage event if it is significant.
func (r *Recorder) RecordDamage(sourceID, targetID string, amount float64, weapon string, elapsedMs int64) error {
	return r.RecordEvent(model.NewDamageEvent(sourceID, targetID, amount, weapon), elapsedMs)
}

// RecordWeaponSwitch logs a weapon change.
func (r *Recorder) RecordWeaponSwitch(actorID, from, to string, elapsedMs int64) error {
	return r.RecordEvent(model.NewWeaponSwitchEvent(actorID, from, to), elapsedMs)
}

// Stop closes the recording with a match_end event at the current elapsed time.
func (r *Recorder) Stop() error {
	if r.state != StateRecording {
		return fmt.Errorf("recorder.stop: %w", ErrNotRecording)
	}
	r.append(model.NewBoundaryEvent(model.EventMatchEnd, r.mode, ""), r.clock)
	r.state = StateStopped

	r.logger.Info(context.Background(), "recording stopped",
		logger.String("mode", r.mode),
		logger.Int("frames", len(r.frames)),
		logger.Int("events", len(r.events)),
		logger.Int64("elapsed_ms", r.clock),
	)
	return nil
}

// Finalize freezes the recording into a Timeline, computing the summary and
// highlights. The recorder must be stopped and cannot be reused afterwards.
func (r *Recorder) Finalize(roster []model.RosterEntry, outcome string) (*model.Timeline, error) {
	const op = "recorder.finalize"
	switch r.state {
	case StateFinalized:
		return nil, fmt.Errorf("%s: %w", op, ErrFinalized)
	case StateStopped:
	default:
		return nil, fmt.Errorf("%s: %w", op, ErrNotStopped)
	}
	start := time.Now()

	// The outcome is only known now; stamp it onto the closing boundary.
	if n := len(r.events); n > 0 && r.events[n-1].Kind == model.EventMatchEnd {
		r.events[n-1].Boundary.Outcome = outcome
	}

	roster = append([]model.RosterEntry(nil), roster...)
	opts := append([]highlight.Option{highlight.WithKillIndex(r.killIndex)}, r.highlightOpts...)

	tl := &model.Timeline{
		ID:             r.newID(),
		Mode:           r.mode,
		StartedAt:      r.startedAt,
		EndedAt:        r.now(),
		Duration:       highlight.Duration(r.frames, r.events),
		SampleInterval: r.sampleInterval,
		Frames:         r.frames,
		Events:         r.events,
		Highlights:     highlight.Detect(r.frames, r.events, roster, opts...),
		Roster:         roster,
		Outcome:        outcome,
		Summary: model.Summary{
			TotalKills: scoring.TotalKills(roster),
			MVP:        r.scorer.MVP(roster),
		},
	}

	// Ownership of the buffers moves to the timeline.
	r.frames, r.events, r.killIndex = nil, nil, nil
	r.state = StateFinalized

	metrics.RecordTimelineFinalized(float64(time.Since(start).Milliseconds()))
	for i := range tl.Highlights {
		metrics.RecordHighlightDetected(string(tl.Highlights[i].Kind))
	}

	fields := []logger.Field{
		logger.String("timeline_id", tl.ID),
		logger.String("outcome", outcome),
		logger.Int("highlights", len(tl.Highlights)),
		logger.Int64("duration_ms", tl.Duration),
	}
	if tl.Summary.MVP != nil {
		fields = append(fields, logger.String("mvp", tl.Summary.MVP.Name))
	}
	r.logger.Info(context.Background(), "recording finalized", fields...)
	return tl, nil
}

func (r *Recorder) append(e model.Event, ts int64) {
	if len(r.events) >= r.maxEvents {
		metrics.RecordEventDropped()
		return
	}
	e = e.Clone()
	e.Timestamp = ts
	r.events = append(r.events, e)
	r.advance(ts)
	metrics.RecordEventRecorded(string(e.Kind))
}

func (r *Recorder) advance(ts int64) {
	if ts > r.clock {
		r.clock = ts
	}
}
