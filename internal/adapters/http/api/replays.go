package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/arena/internal/domain/model"
	"github.com/okian/arena/internal/domain/types"
)

// maxReplayBytes bounds the body of POST /replays.
const maxReplayBytes = 64 << 20

// ReplayDependencies defines the replay ingestion and retrieval operations.
type ReplayDependencies interface {
	Submit(ctx context.Context, tl *model.Timeline) (types.SubmitResult, error)
	List(ctx context.Context) ([]model.TimelineInfo, error)
	Get(ctx context.Context, id string) (*model.Timeline, error)
	Delete(ctx context.Context, id string) error
}

// ReplaysHandler handles /replays requests.
type ReplaysHandler struct {
	deps ReplayDependencies
}

// NewReplaysHandler creates a new replays handler.
func NewReplaysHandler(deps ReplayDependencies) *ReplaysHandler {
	return &ReplaysHandler{deps: deps}
}

// HandleSubmit handles POST /replays. A new replay is answered with 202, a
// recently ingested one with 200 and backpressure with 429.
func (h *ReplaysHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_replay"
	r.Body = http.MaxBytesReader(w, r.Body, maxReplayBytes)

	var tl model.Timeline
	if err := json.NewDecoder(r.Body).Decode(&tl); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "too_large", WrapKind(op, ErrBadRequest, err))
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	res, err := h.deps.Submit(r.Context(), &tl)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	status := http.StatusAccepted
	if res.Duplicate() {
		status = http.StatusOK
	}
	writeJSON(w, status, ackResponse{ID: res.ID, Status: res.Status, Duplicate: res.Duplicate()})
}

// HandleList handles GET /replays.
func (h *ReplaysHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	infos, err := h.deps.List(r.Context())
	if err != nil {
		writeFailure(w, Wrap("api.list_replays", err))
		return
	}
	writeJSON(w, http.StatusOK, infos)
}

// HandleGet handles GET /replays/{id}.
func (h *ReplaysHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	tl, err := h.deps.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, Wrap("api.get_replay", err))
		return
	}
	writeJSON(w, http.StatusOK, tl)
}

// HandleDelete handles DELETE /replays/{id}. Unknown ids are not an error.
func (h *ReplaysHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeFailure(w, Wrap("api.delete_replay", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
