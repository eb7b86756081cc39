package api

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/okian/arena/internal/domain/model"
	"github.com/okian/arena/internal/domain/types"
)

// defaultRecapSize is the number of highlights in a recap when n is absent.
const defaultRecapSize = 3

// PlaybackDependencies defines the read operations backed by a player.
type PlaybackDependencies interface {
	Highlights(ctx context.Context, id string) ([]model.Highlight, error)
	Events(ctx context.Context, id string, from, to int64) ([]model.Event, error)
	Frame(ctx context.Context, id string, t int64) (types.FrameView, error)
	Recap(ctx context.Context, id string, n int) (types.Recap, error)
}

// PlaybackHandler handles /replays/{id}/... requests.
type PlaybackHandler struct {
	deps PlaybackDependencies
}

// NewPlaybackHandler creates a new playback handler.
func NewPlaybackHandler(deps PlaybackDependencies) *PlaybackHandler {
	return &PlaybackHandler{deps: deps}
}

// HandleHighlights handles GET /replays/{id}/highlights.
func (h *PlaybackHandler) HandleHighlights(w http.ResponseWriter, r *http.Request) {
	hs, err := h.deps.Highlights(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, Wrap("api.highlights", err))
		return
	}
	writeJSON(w, http.StatusOK, hs)
}

// HandleEvents handles GET /replays/{id}/events?from=&to=. Both bounds are
// optional and inclusive.
func (h *PlaybackHandler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	const op = "api.events"
	q := r.URL.Query()
	from, err := int64Param(q, "from", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	to, err := int64Param(q, "to", math.MaxInt64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	events, err := h.deps.Events(r.Context(), r.PathValue("id"), from, to)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// HandleFrame handles GET /replays/{id}/frame?t=.
func (h *PlaybackHandler) HandleFrame(w http.ResponseWriter, r *http.Request) {
	const op = "api.frame"
	q := r.URL.Query()
	if !q.Has("t") {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, fmt.Errorf("missing t")))
		return
	}
	t, err := int64Param(q, "t", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	view, err := h.deps.Frame(r.Context(), r.PathValue("id"), t)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleRecap handles GET /replays/{id}/recap?n=.
func (h *PlaybackHandler) HandleRecap(w http.ResponseWriter, r *http.Request) {
	const op = "api.recap"
	n := defaultRecapSize
	if s := r.URL.Query().Get("n"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		n = v
	}
	recap, err := h.deps.Recap(r.Context(), r.PathValue("id"), n)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, recap)
}

func int64Param(q url.Values, name string, def int64) (int64, error) {
	s := q.Get(name)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, s)
	}
	return v, nil
}
