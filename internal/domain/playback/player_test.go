package playback_test

import (
	"errors"
	"testing"

	"github.com/okian/arena/internal/domain/model"
	"github.com/okian/arena/internal/domain/playback"
	. "github.com/smartystreets/goconvey/convey"
)

func timeline() *model.Timeline {
	tl := &model.Timeline{ID: "r1", Duration: 10000}
	for ts := int64(1000); ts <= 10000; ts += 1000 {
		tl.Frames = append(tl.Frames, model.Frame{Timestamp: ts})
	}
	for _, ts := range []int64{0, 2500, 4000, 4000, 9000} {
		e := model.NewDamageEvent("a", "b", 20, "")
		e.Timestamp = ts
		tl.Events = append(tl.Events, e)
	}
	// Ranked order: the later highlight is more important.
	tl.Highlights = []model.Highlight{
		{Timestamp: 6000, Duration: 3000, Kind: model.HighlightLastStand, Importance: 9},
		{Timestamp: 2000, Duration: 4000, Kind: model.HighlightFirstBlood, Importance: 7},
	}
	return tl
}

func TestSeek(t *testing.T) {
	Convey("Given a player over a 10s timeline", t, func() {
		p := playback.New(timeline())

		Convey("Then it starts paused at 0 on the first frame", func() {
			s := p.State()
			So(s.Playing, ShouldBeFalse)
			So(s.CurrentTime, ShouldEqual, 0)
			So(s.Speed, ShouldEqual, 1)
			So(s.Frame.Timestamp, ShouldEqual, 1000)
		})

		Convey("When seeking before the start", func() {
			p.SeekTo(-50)
			So(p.State().CurrentTime, ShouldEqual, 0)
			So(p.State().Frame.Timestamp, ShouldEqual, 1000)
		})

		Convey("When seeking past the end", func() {
			p.SeekTo(20000)
			s := p.State()
			So(s.CurrentTime, ShouldEqual, 10000)
			So(s.Frame.Timestamp, ShouldEqual, 10000)

			Convey("Then no highlight beyond the bounds is active", func() {
				So(s.ActiveHighlight, ShouldBeNil)
			})
		})

		Convey("When seeking between frames", func() {
			p.SeekTo(3999)

			Convey("Then the floor frame is selected", func() {
				So(p.State().Frame.Timestamp, ShouldEqual, 3000)
			})
		})

		Convey("When seeking onto an exact frame", func() {
			p.SeekTo(4000)
			So(p.State().Frame.Timestamp, ShouldEqual, 4000)
		})

		Convey("When two highlights cover the cursor", func() {
			p.SeekTo(6000)

			Convey("Then the earlier one is active", func() {
				So(p.State().ActiveHighlight.Kind, ShouldEqual, model.HighlightFirstBlood)
			})
		})

		Convey("When only the later highlight covers the cursor", func() {
			p.SeekTo(8500)
			So(p.State().ActiveHighlight.Kind, ShouldEqual, model.HighlightLastStand)
		})
	})
}

func TestTick(t *testing.T) {
	Convey("Given a playing player", t, func() {
		p := playback.New(timeline())
		p.Play()

		Convey("When ticking at normal speed", func() {
			p.Tick(1500)
			So(p.State().CurrentTime, ShouldEqual, 1500)
		})

		Convey("When ticking at quarter speed", func() {
			So(p.SetSpeed(0.25), ShouldBeNil)
			for i := 0; i < 4; i++ {
				p.Tick(10)
			}

			Convey("Then fractional progress accumulates", func() {
				So(p.State().CurrentTime, ShouldEqual, 10)
			})
		})

		Convey("When ticking past the end", func() {
			So(p.SetSpeed(4), ShouldBeNil)
			p.Tick(5000)

			Convey("Then the cursor clamps and playback stops", func() {
				s := p.State()
				So(s.CurrentTime, ShouldEqual, 10000)
				So(s.Playing, ShouldBeFalse)
			})

			Convey("And playing again restarts from zero", func() {
				p.Play()
				So(p.State().CurrentTime, ShouldEqual, 0)
				So(p.State().Playing, ShouldBeTrue)
			})
		})

		Convey("When paused", func() {
			p.Pause()
			p.Tick(1000)
			So(p.State().CurrentTime, ShouldEqual, 0)
		})

		Convey("When toggled twice", func() {
			p.Toggle()
			So(p.State().Playing, ShouldBeFalse)
			p.Toggle()
			So(p.State().Playing, ShouldBeTrue)
		})
	})
}

func TestControls(t *testing.T) {
	Convey("Given a player", t, func() {
		p := playback.New(timeline())

		Convey("When jumping to a highlight", func() {
			So(p.SeekToHighlight(0), ShouldBeNil)

			Convey("Then it plays from the highlight in slow motion", func() {
				s := p.State()
				So(s.CurrentTime, ShouldEqual, 6000)
				So(s.Speed, ShouldEqual, 0.5)
				So(s.Playing, ShouldBeTrue)
			})
		})

		Convey("When jumping to a missing highlight", func() {
			So(errors.Is(p.SeekToHighlight(2), playback.ErrHighlightIndex), ShouldBeTrue)
			So(errors.Is(p.SeekToHighlight(-1), playback.ErrHighlightIndex), ShouldBeTrue)
		})

		Convey("When setting an unsupported speed", func() {
			So(errors.Is(p.SetSpeed(3), playback.ErrInvalidSpeed), ShouldBeTrue)
			So(p.State().Speed, ShouldEqual, 1)
		})

		Convey("When filtering events", func() {
			Convey("Then bounds are inclusive", func() {
				So(p.EventsInRange(2500, 4000), ShouldHaveLength, 3)
			})

			Convey("And swapped bounds are normalized", func() {
				So(p.EventsInRange(4000, 2500), ShouldHaveLength, 3)
			})

			Convey("And empty ranges return nothing", func() {
				So(p.EventsInRange(5000, 8000), ShouldBeEmpty)
			})
		})
	})

	Convey("Given a player with a custom slow motion speed", t, func() {
		p := playback.New(timeline(), playback.WithSlowMotionSpeed(0.25), playback.WithSpeed(2))
		So(p.State().Speed, ShouldEqual, 2)
		So(p.SeekToHighlight(1), ShouldBeNil)
		So(p.State().Speed, ShouldEqual, 0.25)
	})
}

func TestSubscribe(t *testing.T) {
	Convey("Given a subscribed player", t, func() {
		p := playback.New(timeline())
		var got []playback.PlaybackState
		unsubscribe := p.Subscribe(func(s playback.PlaybackState) { got = append(got, s) })

		Convey("When the state changes", func() {
			p.SeekTo(2000)
			p.Play()
			p.Tick(100)
			So(p.SetSpeed(2), ShouldBeNil)

			Convey("Then every change is delivered", func() {
				So(got, ShouldHaveLength, 4)
				So(got[0].CurrentTime, ShouldEqual, 2000)
				So(got[2].CurrentTime, ShouldEqual, 2100)
				So(got[3].Speed, ShouldEqual, 2)
			})
		})

		Convey("When a tick happens while paused", func() {
			p.Tick(100)
			So(got, ShouldBeEmpty)
		})

		Convey("When unsubscribed", func() {
			unsubscribe()
			p.SeekTo(500)
			So(got, ShouldBeEmpty)
		})
	})
}

func TestEmptyTimeline(t *testing.T) {
	Convey("Given a player over an empty timeline", t, func() {
		p := playback.New(&model.Timeline{ID: "empty"})

		Convey("Then every call clamps to zero and no-ops", func() {
			p.SeekTo(500)
			p.Play()
			p.Tick(1000)
			s := p.State()
			So(s.CurrentTime, ShouldEqual, 0)
			So(s.Playing, ShouldBeFalse)
			So(s.Frame, ShouldBeNil)
			So(s.ActiveHighlight, ShouldBeNil)
			So(p.EventsInRange(0, 100), ShouldBeEmpty)
		})
	})

	Convey("Given a nil timeline", t, func() {
		p := playback.New(nil)
		So(p.State().Duration, ShouldEqual, 0)
		So(errors.Is(p.SeekToHighlight(0), playback.ErrHighlightIndex), ShouldBeTrue)
	})
}
