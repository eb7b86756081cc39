// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	eventqueue "github.com/okian/arena/internal/adapters/mq/queue"
	"github.com/okian/arena/internal/adapters/repository"
	service "github.com/okian/arena/internal/app"
	"github.com/okian/arena/internal/domain/model"
	"github.com/okian/arena/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Submit queues a finalized replay for storage.
	Submit(ctx context.Context, tl *model.Timeline) (types.SubmitResult, error)

	List(ctx context.Context) ([]model.TimelineInfo, error)
	Get(ctx context.Context, id string) (*model.Timeline, error)
	Delete(ctx context.Context, id string) error

	// Playback reads.
	Highlights(ctx context.Context, id string) ([]model.Highlight, error)
	Events(ctx context.Context, id string, from, to int64) ([]model.Event, error)
	Frame(ctx context.Context, id string, t int64) (types.FrameView, error)
	Recap(ctx context.Context, id string, n int) (types.Recap, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	replaysHandler  *ReplaysHandler
	playbackHandler *PlaybackHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		replaysHandler:  NewReplaysHandler(deps),
		playbackHandler: NewPlaybackHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("GET /metrics", s.healthHandler.MetricsHandler())
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("POST /replays", MetricsMiddleware(s.replaysHandler.HandleSubmit, "replays"))
	mux.HandleFunc("GET /replays", MetricsMiddleware(s.replaysHandler.HandleList, "replays"))
	mux.HandleFunc("GET /replays/{id}", MetricsMiddleware(s.replaysHandler.HandleGet, "replay"))
	mux.HandleFunc("DELETE /replays/{id}", MetricsMiddleware(s.replaysHandler.HandleDelete, "replay"))

	mux.HandleFunc("GET /replays/{id}/highlights", MetricsMiddleware(s.playbackHandler.HandleHighlights, "highlights"))
	mux.HandleFunc("GET /replays/{id}/events", MetricsMiddleware(s.playbackHandler.HandleEvents, "events"))
	mux.HandleFunc("GET /replays/{id}/frame", MetricsMiddleware(s.playbackHandler.HandleFrame, "frame"))
	mux.HandleFunc("GET /replays/{id}/recap", MetricsMiddleware(s.playbackHandler.HandleRecap, "recap"))
}

type ackResponse struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure translates upstream errors into status codes.
func writeFailure(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, model.ErrInvalidTimeline),
		errors.Is(err, model.ErrInvalidEvent),
		errors.Is(err, service.ErrNilReplay):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, eventqueue.ErrQueueFull):
		writeError(w, http.StatusTooManyRequests, "backpressure", WrapKind("api", ErrBackpressure, err))
	case errors.Is(err, eventqueue.ErrQueueClosed), errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", WrapKind("api", ErrUnavailable, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
