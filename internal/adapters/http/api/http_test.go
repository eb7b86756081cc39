package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/arena/internal/adapters/http/api"
	eventqueue "github.com/okian/arena/internal/adapters/mq/queue"
	"github.com/okian/arena/internal/adapters/repository"
	"github.com/okian/arena/internal/domain/model"
	"github.com/okian/arena/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

// mockDependencies keeps replays in a map and records the last call
// arguments.
type mockDependencies struct {
	replays   map[string]*model.Timeline
	submitErr error
	deleted   []string
	from, to  int64
	frameAt   int64
	recapN    int
}

func newMockDependencies() *mockDependencies {
	return &mockDependencies{replays: make(map[string]*model.Timeline)}
}

func (m *mockDependencies) Submit(_ context.Context, tl *model.Timeline) (types.SubmitResult, error) {
	if m.submitErr != nil {
		return types.SubmitResult{}, m.submitErr
	}
	if err := tl.Validate(); err != nil {
		return types.SubmitResult{}, err
	}
	if _, ok := m.replays[tl.ID]; ok {
		return types.SubmitResult{ID: tl.ID, Status: types.StatusDuplicate}, nil
	}
	m.replays[tl.ID] = tl
	return types.SubmitResult{ID: tl.ID, Status: types.StatusAccepted}, nil
}

func (m *mockDependencies) List(_ context.Context) ([]model.TimelineInfo, error) {
	out := make([]model.TimelineInfo, 0, len(m.replays))
	for _, tl := range m.replays {
		out = append(out, tl.Info())
	}
	return out, nil
}

func (m *mockDependencies) Get(_ context.Context, id string) (*model.Timeline, error) {
	tl, ok := m.replays[id]
	if !ok {
		return nil, fmt.Errorf("get %s: %w", id, repository.ErrNotFound)
	}
	return tl, nil
}

func (m *mockDependencies) Delete(_ context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	delete(m.replays, id)
	return nil
}

func (m *mockDependencies) Highlights(ctx context.Context, id string) ([]model.Highlight, error) {
	tl, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return tl.Highlights, nil
}

func (m *mockDependencies) Events(ctx context.Context, id string, from, to int64) ([]model.Event, error) {
	m.from, m.to = from, to
	tl, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return tl.Events, nil
}

func (m *mockDependencies) Frame(ctx context.Context, id string, t int64) (types.FrameView, error) {
	m.frameAt = t
	tl, err := m.Get(ctx, id)
	if err != nil {
		return types.FrameView{}, err
	}
	return types.FrameView{Requested: t, Duration: tl.Duration}, nil
}

func (m *mockDependencies) Recap(ctx context.Context, id string, n int) (types.Recap, error) {
	m.recapN = n
	tl, err := m.Get(ctx, id)
	if err != nil {
		return types.Recap{}, err
	}
	return types.NewRecap(tl, n), nil
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

const replayJSON = `{
  "id": "r1",
  "mode": "ffa",
  "duration": 1000,
  "frames": [{"timestamp": 0, "actors": []}, {"timestamp": 1000, "actors": []}],
  "events": [{"kind": "kill", "timestamp": 500, "kill": {"killerId": "a", "victimId": "b", "weapon": "rail"}}],
  "highlights": [{"kind": "first_blood", "timestamp": 0, "duration": 1000, "importance": 7}]
}`

func newTestMux(deps *mockDependencies) *http.ServeMux {
	server := api.NewServer(deps, &mockStatsProvider{stats: map[string]interface{}{"started": true}})
	mux := http.NewServeMux()
	server.Register(context.Background(), mux)
	return mux
}

func do(mux *http.ServeMux, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		mux := newTestMux(newMockDependencies())

		Convey("Then the health endpoint reports ok", func() {
			w := do(mux, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"status":"ok"`)
		})

		Convey("And the stats endpoint returns provider stats", func() {
			w := do(mux, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"started":true`)
		})

		Convey("And the metrics endpoint serves the exposition format", func() {
			w := do(mux, http.MethodGet, "/metrics", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "arena_replay_")
		})

		Convey("And unsupported methods are rejected", func() {
			w := do(mux, http.MethodPut, "/replays", "")
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})

	Convey("Given a nil mux", t, func() {
		server := api.NewServer(newMockDependencies(), &mockStatsProvider{})
		So(func() { server.Register(context.Background(), nil) }, ShouldPanic)
	})
}

func TestReplaysHandler(t *testing.T) {
	Convey("Given an API server with no replays", t, func() {
		deps := newMockDependencies()
		mux := newTestMux(deps)

		Convey("When a replay is posted", func() {
			w := do(mux, http.MethodPost, "/replays", replayJSON)

			Convey("Then it is accepted with 202", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				var ack map[string]interface{}
				So(json.Unmarshal(w.Body.Bytes(), &ack), ShouldBeNil)
				So(ack["id"], ShouldEqual, "r1")
				So(ack["status"], ShouldEqual, types.StatusAccepted)
				So(ack["duplicate"], ShouldEqual, false)
			})

			Convey("And posting it again answers 200 duplicate", func() {
				again := do(mux, http.MethodPost, "/replays", replayJSON)
				So(again.Code, ShouldEqual, http.StatusOK)
				So(again.Body.String(), ShouldContainSubstring, `"duplicate":true`)
			})

			Convey("And it can be listed, fetched and deleted", func() {
				list := do(mux, http.MethodGet, "/replays", "")
				So(list.Code, ShouldEqual, http.StatusOK)
				var infos []model.TimelineInfo
				So(json.Unmarshal(list.Body.Bytes(), &infos), ShouldBeNil)
				So(infos, ShouldHaveLength, 1)
				So(infos[0].Frames, ShouldEqual, 2)

				get := do(mux, http.MethodGet, "/replays/r1", "")
				So(get.Code, ShouldEqual, http.StatusOK)
				var tl model.Timeline
				So(json.Unmarshal(get.Body.Bytes(), &tl), ShouldBeNil)
				So(tl.Events[0].Kill.KillerID, ShouldEqual, "a")

				del := do(mux, http.MethodDelete, "/replays/r1", "")
				So(del.Code, ShouldEqual, http.StatusNoContent)
				So(deps.deleted, ShouldResemble, []string{"r1"})

				gone := do(mux, http.MethodGet, "/replays/r1", "")
				So(gone.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When malformed bodies are posted", func() {
			junk := do(mux, http.MethodPost, "/replays", "{not json")
			noID := do(mux, http.MethodPost, "/replays", `{"mode":"ffa"}`)
			badEvent := do(mux, http.MethodPost, "/replays",
				`{"id":"x","events":[{"kind":"kill","timestamp":1}]}`)

			Convey("Then they are rejected with 400", func() {
				So(junk.Code, ShouldEqual, http.StatusBadRequest)
				So(noID.Code, ShouldEqual, http.StatusBadRequest)
				So(badEvent.Code, ShouldEqual, http.StatusBadRequest)
				So(junk.Body.String(), ShouldContainSubstring, `"code":"bad_request"`)
			})
		})

		Convey("When the persistence queue is full", func() {
			deps.submitErr = fmt.Errorf("submit: %w", eventqueue.ErrQueueFull)
			w := do(mux, http.MethodPost, "/replays", replayJSON)

			Convey("Then the API answers 429", func() {
				So(w.Code, ShouldEqual, http.StatusTooManyRequests)
				So(w.Body.String(), ShouldContainSubstring, "backpressure")
			})
		})

		Convey("When the queue is closed", func() {
			deps.submitErr = eventqueue.ErrQueueClosed
			w := do(mux, http.MethodPost, "/replays", replayJSON)
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
		})
	})
}

func TestPlaybackHandler(t *testing.T) {
	Convey("Given an API server with one replay", t, func() {
		deps := newMockDependencies()
		mux := newTestMux(deps)
		So(do(mux, http.MethodPost, "/replays", replayJSON).Code, ShouldEqual, http.StatusAccepted)

		Convey("When highlights are requested", func() {
			w := do(mux, http.MethodGet, "/replays/r1/highlights", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "first_blood")
		})

		Convey("When events are requested without bounds", func() {
			w := do(mux, http.MethodGet, "/replays/r1/events", "")

			Convey("Then the whole timeline is covered", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.from, ShouldEqual, 0)
				So(deps.to, ShouldBeGreaterThan, int64(1)<<62)
			})
		})

		Convey("When events are requested with bounds", func() {
			w := do(mux, http.MethodGet, "/replays/r1/events?from=100&to=600", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.from, ShouldEqual, 100)
			So(deps.to, ShouldEqual, 600)
		})

		Convey("When an event bound is not a number", func() {
			w := do(mux, http.MethodGet, "/replays/r1/events?from=soon", "")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When a frame is requested", func() {
			ok := do(mux, http.MethodGet, "/replays/r1/frame?t=-50", "")
			missing := do(mux, http.MethodGet, "/replays/r1/frame", "")

			So(ok.Code, ShouldEqual, http.StatusOK)
			So(deps.frameAt, ShouldEqual, -50)
			So(missing.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When a recap is requested", func() {
			def := do(mux, http.MethodGet, "/replays/r1/recap", "")
			So(def.Code, ShouldEqual, http.StatusOK)
			So(deps.recapN, ShouldEqual, 3)

			two := do(mux, http.MethodGet, "/replays/r1/recap?n=2", "")
			So(two.Code, ShouldEqual, http.StatusOK)
			So(deps.recapN, ShouldEqual, 2)

			bad := do(mux, http.MethodGet, "/replays/r1/recap?n=0", "")
			So(bad.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When an unknown replay is played", func() {
			w := do(mux, http.MethodGet, "/replays/nope/frame?t=0", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(w.Body.String(), ShouldContainSubstring, `"code":"not_found"`)
		})
	})
}
