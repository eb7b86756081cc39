package recorder_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/arena/internal/domain/model"
	"github.com/okian/arena/internal/domain/recorder"
	"github.com/smartystreets/goconvey/convey"
)

func actors(ts int64) []model.ActorSnapshot {
	return []model.ActorSnapshot{
		{ID: "A", Health: 100, MaxHealth: 100, Alive: true, Position: model.Vec3{X: float64(ts) / 1000}},
		{ID: "B", Health: 100, MaxHealth: 100, Alive: true},
		{ID: "C", Health: 100, MaxHealth: 100, Alive: true},
	}
}

func fixedClock() func() time.Time {
	t := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return t }
}

func TestRecorderLifecycle(t *testing.T) {
	convey.Convey("Given a new recorder", t, func() {
		r := recorder.New(recorder.WithClock(fixedClock()), recorder.WithIDGenerator(func() string { return "replay-1" }))

		convey.Convey("Then it starts idle and rejects recording", func() {
			convey.So(r.State(), convey.ShouldEqual, recorder.StateIdle)
			convey.So(errors.Is(r.RecordFrame(actors(0), nil, 0), recorder.ErrNotRecording), convey.ShouldBeTrue)
			convey.So(errors.Is(r.Stop(), recorder.ErrNotRecording), convey.ShouldBeTrue)
		})

		convey.Convey("When started", func() {
			convey.So(r.Start("duel"), convey.ShouldBeNil)

			convey.Convey("Then a match_start event is logged at t=0", func() {
				convey.So(r.State(), convey.ShouldEqual, recorder.StateRecording)
				convey.So(r.EventCount(), convey.ShouldEqual, 1)
			})

			convey.Convey("And starting again fails", func() {
				convey.So(errors.Is(r.Start("duel"), recorder.ErrAlreadyRecording), convey.ShouldBeTrue)
			})

			convey.Convey("And finalizing before stop fails", func() {
				_, err := r.Finalize(nil, "")
				convey.So(errors.Is(err, recorder.ErrNotStopped), convey.ShouldBeTrue)
			})

			convey.Convey("And after stop further recording fails", func() {
				convey.So(r.Stop(), convey.ShouldBeNil)
				convey.So(r.State(), convey.ShouldEqual, recorder.StateStopped)
				convey.So(errors.Is(r.RecordFrame(actors(0), nil, 500), recorder.ErrNotRecording), convey.ShouldBeTrue)
				convey.So(errors.Is(r.RecordKill("A", "B", "", 500), recorder.ErrNotRecording), convey.ShouldBeTrue)
			})

			convey.Convey("And after finalize the recorder is spent", func() {
				convey.So(r.Stop(), convey.ShouldBeNil)
				_, err := r.Finalize(nil, "draw")
				convey.So(err, convey.ShouldBeNil)

				_, err = r.Finalize(nil, "draw")
				convey.So(errors.Is(err, recorder.ErrFinalized), convey.ShouldBeTrue)
				convey.So(errors.Is(r.Start("duel"), recorder.ErrFinalized), convey.ShouldBeTrue)
			})
		})
	})
}

func TestRecorderSampling(t *testing.T) {
	convey.Convey("Given a recording recorder with a 100ms interval", t, func() {
		r := recorder.New()
		convey.So(r.Start("ffa"), convey.ShouldBeNil)

		convey.Convey("When two frames arrive within the interval", func() {
			convey.So(r.RecordFrame(actors(0), nil, 0), convey.ShouldBeNil)
			convey.So(r.RecordFrame(actors(50), nil, 50), convey.ShouldBeNil)

			convey.Convey("Then only one frame is stored", func() {
				convey.So(r.FrameCount(), convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When frames arrive at the interval", func() {
			for _, ts := range []int64{0, 100, 150, 199, 200, 420} {
				convey.So(r.RecordFrame(actors(ts), nil, ts), convey.ShouldBeNil)
			}

			convey.Convey("Then frames at 0, 100, 200 and 420 are kept", func() {
				convey.So(r.FrameCount(), convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When a frame goes back in time", func() {
			convey.So(r.RecordFrame(actors(500), nil, 500), convey.ShouldBeNil)
			convey.So(r.RecordFrame(actors(300), nil, 300), convey.ShouldBeNil)

			convey.Convey("Then it is ignored", func() {
				convey.So(r.FrameCount(), convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When the caller mutates the actor slice after recording", func() {
			in := actors(0)
			primary := in[0]
			convey.So(r.RecordFrame(in, &primary, 0), convey.ShouldBeNil)
			in[0].Health = 1
			primary.Health = 1
			convey.So(r.Stop(), convey.ShouldBeNil)
			tl, err := r.Finalize(nil, "")
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then the stored frame is unaffected", func() {
				convey.So(tl.Frames[0].Actors[0].Health, convey.ShouldEqual, 100)
				convey.So(tl.Frames[0].Primary.Health, convey.ShouldEqual, 100)
			})
		})
	})

	convey.Convey("Given a recorder capped at two frames", t, func() {
		r := recorder.New(recorder.WithMaxFrames(2))
		convey.So(r.Start("ffa"), convey.ShouldBeNil)
		for ts := int64(0); ts < 1000; ts += 100 {
			convey.So(r.RecordFrame(actors(ts), nil, ts), convey.ShouldBeNil)
		}
		convey.So(r.FrameCount(), convey.ShouldEqual, 2)
	})
}

func TestRecorderEvents(t *testing.T) {
	convey.Convey("Given a recording recorder", t, func() {
		r := recorder.New(recorder.WithMinDamage(10))
		convey.So(r.Start("ffa"), convey.ShouldBeNil)

		convey.Convey("When damage below the threshold is recorded", func() {
			convey.So(r.RecordDamage("A", "B", 3, "beam", 100), convey.ShouldBeNil)

			convey.Convey("Then it is filtered out", func() {
				convey.So(r.EventCount(), convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When significant damage and a switch are recorded", func() {
			convey.So(r.RecordDamage("A", "B", 35, "beam", 100), convey.ShouldBeNil)
			convey.So(r.RecordWeaponSwitch("A", "beam", "rocket", 100), convey.ShouldBeNil)

			convey.Convey("Then both are kept in insertion order", func() {
				convey.So(r.Stop(), convey.ShouldBeNil)
				tl, err := r.Finalize(nil, "")
				convey.So(err, convey.ShouldBeNil)
				convey.So(tl.Events[1].Kind, convey.ShouldEqual, model.EventDamage)
				convey.So(tl.Events[2].Kind, convey.ShouldEqual, model.EventWeaponSwitch)
				convey.So(tl.Events[3].Kind, convey.ShouldEqual, model.EventMatchEnd)
				convey.So(tl.Events[3].Timestamp, convey.ShouldEqual, 100)
			})
		})

		convey.Convey("When an event has a mismatched payload", func() {
			e := model.NewKillEvent("A", "B", "")
			e.Kind = model.EventWeaponSwitch

			convey.Convey("Then it is rejected", func() {
				convey.So(errors.Is(r.RecordEvent(e, 10), model.ErrInvalidEvent), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When events arrive between frame samples", func() {
			convey.So(r.RecordFrame(actors(0), nil, 0), convey.ShouldBeNil)
			convey.So(r.RecordEvent(model.NewDamageEvent("A", "B", 50, ""), 200), convey.ShouldBeNil)

			convey.Convey("Then the events are not throttled", func() {
				convey.So(r.RecordEvent(model.NewDamageEvent("A", "B", 50, ""), 210), convey.ShouldBeNil)
				convey.So(r.EventCount(), convey.ShouldEqual, 3)
				convey.So(r.Elapsed(), convey.ShouldEqual, 210)
			})
		})
	})
}

func TestRecorderDuelScenario(t *testing.T) {
	convey.Convey("Given a duel recorded end to end", t, func() {
		r := recorder.New(recorder.WithClock(fixedClock()), recorder.WithIDGenerator(func() string { return "duel-1" }))
		convey.So(r.Start("duel"), convey.ShouldBeNil)
		convey.So(r.RecordFrame(actors(0), nil, 0), convey.ShouldBeNil)
		convey.So(r.RecordKill("A", "B", "railgun", 1200), convey.ShouldBeNil)
		convey.So(r.RecordKill("A", "C", "railgun", 2800), convey.ShouldBeNil)
		convey.So(r.Stop(), convey.ShouldBeNil)

		// Respawn rules: everyone is back on their feet at match end.
		roster := []model.RosterEntry{
			{ID: "A", Name: "PHANTOM", Kills: 2, Tokens: 120, Alive: true},
			{ID: "B", Name: "TITAN", Kills: 0, Tokens: 80, Alive: true},
			{ID: "C", Name: "CIPHER", Kills: 0, Tokens: 60, Alive: true},
		}
		tl, err := r.Finalize(roster, "A_wins")
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("Then the timeline carries the match", func() {
			convey.So(tl.ID, convey.ShouldEqual, "duel-1")
			convey.So(tl.Mode, convey.ShouldEqual, "duel")
			convey.So(tl.Outcome, convey.ShouldEqual, "A_wins")
			convey.So(tl.Frames, convey.ShouldHaveLength, 1)
			convey.So(tl.Duration, convey.ShouldEqual, 2800)
			convey.So(tl.Events[0].Kind, convey.ShouldEqual, model.EventMatchStart)
			convey.So(tl.Events[len(tl.Events)-1].Boundary.Outcome, convey.ShouldEqual, "A_wins")
			convey.So(tl.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("And A is the MVP", func() {
			convey.So(tl.Summary.MVP, convey.ShouldNotBeNil)
			convey.So(tl.Summary.MVP.ID, convey.ShouldEqual, "A")
			convey.So(tl.Summary.TotalKills, convey.ShouldEqual, 2)
		})

		convey.Convey("And the highlights include a multi kill", func() {
			var found bool
			for _, h := range tl.Highlights {
				if h.Kind == model.HighlightMultiKill {
					found = true
					convey.So(h.Importance, convey.ShouldEqual, 8)
				}
			}
			convey.So(found, convey.ShouldBeTrue)
		})
	})

	convey.Convey("Given the same duel where only A survives", t, func() {
		r := recorder.New()
		convey.So(r.Start("duel"), convey.ShouldBeNil)
		convey.So(r.RecordFrame(actors(0), nil, 0), convey.ShouldBeNil)
		convey.So(r.RecordKill("A", "B", "railgun", 1200), convey.ShouldBeNil)
		convey.So(r.RecordKill("A", "C", "railgun", 9800), convey.ShouldBeNil)
		convey.So(r.Stop(), convey.ShouldBeNil)

		tl, err := r.Finalize([]model.RosterEntry{
			{ID: "A", Kills: 2, Alive: true},
			{ID: "B"},
			{ID: "C"},
		}, "A_wins")
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("Then the closing kill is a last stand ranked first", func() {
			convey.So(tl.Highlights[0].Kind, convey.ShouldEqual, model.HighlightLastStand)
			convey.So(tl.Highlights[0].Timestamp, convey.ShouldEqual, 6800)
		})
	})
}
