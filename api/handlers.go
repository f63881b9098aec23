/*
handlers.go - HTTP API handlers for the match scoring engine

PURPOSE:
  Exposes the scoring engine via REST. Handles HTTP request/response and
  JSON serialization, and delegates everything else to the match layer.
  No handler recomputes a derived figure: every response body containing
  match figures is a scoring.Snapshot produced by the one projector path.

ENDPOINTS:
  Matches:
    POST   /api/matches                    Create a match
    GET    /api/matches                    List match ids
    GET    /api/matches/{id}               Current snapshot
    GET    /api/matches/{id}/deliveries    Ledger listing
    GET    /api/matches/{id}/stream        SSE snapshot stream

  Mutations (serialized per match by the session):
    POST   /api/matches/{id}/deliveries                      Append
    POST   /api/matches/{id}/deliveries/{deliveryID}/correct Correct
    POST   /api/matches/{id}/undo                            Undo last
    POST   /api/matches/{id}/revision                        Target/overs revision

ERROR HANDLING:
  The engine's taxonomy maps onto statuses:
  - 400: ValidationError, InvalidEdit, malformed setup/body
  - 404: unknown match or delivery id
  - 409: SequenceViolation, MatchCompleted, duplicate match id
  - 500: everything else
  Nothing is retried here and nothing is downgraded to a default.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - match/session.go: The mutation path behind every handler
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/warp/cricket-engine/broadcast"
	"github.com/warp/cricket-engine/factory"
	"github.com/warp/cricket-engine/match"
	"github.com/warp/cricket-engine/scoring"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Manager *match.Manager
	Hub     *broadcast.Hub
}

// NewHandler creates a new handler.
func NewHandler(manager *match.Manager, hub *broadcast.Hub) *Handler {
	return &Handler{Manager: manager, Hub: hub}
}

// =============================================================================
// MATCH HANDLERS
// =============================================================================

// CreateMatch registers a new match from a setup document.
func (h *Handler) CreateMatch(w http.ResponseWriter, r *http.Request) {
	var setup factory.MatchSetup
	if err := json.NewDecoder(r.Body).Decode(&setup); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	cfg, err := factory.Build(setup)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid match setup", err)
		return
	}

	sess, err := h.Manager.Create(r.Context(), cfg)
	if err != nil {
		writeError(w, statusForError(err), "Failed to create match", err)
		return
	}
	writeJSON(w, http.StatusCreated, sess.Snapshot())
}

// ListMatches returns all known match ids.
func (h *Handler) ListMatches(w http.ResponseWriter, r *http.Request) {
	ids, err := h.Manager.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list matches", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"matches": ids})
}

// GetSnapshot returns the current snapshot. This is the reconnect/fallback
// path for clients whose push channel dropped; it returns exactly the
// figures the last push delivered because both come from the projector.
func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

// ListDeliveries returns the match's ordered ledger.
func (h *Handler) ListDeliveries(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"deliveries": toDeliveryDTOs(sess.Deliveries()),
	})
}

// =============================================================================
// MUTATION HANDLERS
// =============================================================================

// AppendDelivery accepts one delivery and returns the new snapshot.
func (h *Handler) AppendDelivery(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var req DeliveryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	snap, err := sess.AppendDelivery(r.Context(), req.toDomain())
	if err != nil {
		writeError(w, statusForError(err), "Delivery rejected", err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

// CorrectDelivery edits one past delivery by id and replays the ledger.
func (h *Handler) CorrectDelivery(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	deliveryID := scoring.DeliveryID(chi.URLParam(r, "deliveryID"))

	var req CorrectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	snap, err := sess.CorrectDelivery(r.Context(), deliveryID, req.toDomain())
	if err != nil {
		writeError(w, statusForError(err), "Correction rejected", err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// UndoLast removes the highest-ordered delivery and replays.
func (h *Handler) UndoLast(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	snap, err := sess.UndoLast(r.Context())
	if err != nil {
		writeError(w, statusForError(err), "Undo rejected", err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// ApplyRevision records an externally computed target and/or revised
// overs limit.
func (h *Handler) ApplyRevision(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var req RevisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Target == nil && req.OversLimit == nil {
		writeError(w, http.StatusBadRequest, "Revision must set target or overs_limit", nil)
		return
	}

	snap, err := sess.ApplyRevision(r.Context(), req.Target, req.OversLimit)
	if err != nil {
		writeError(w, statusForError(err), "Revision rejected", err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// =============================================================================
// STREAM HANDLER - SSE fan-out of committed snapshots
// =============================================================================

// StreamSnapshots pushes every committed snapshot over SSE. The first
// event is the current snapshot so a reconnecting client is whole
// immediately.
func (h *Handler) StreamSnapshots(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	flusher, canFlush := w.(http.Flusher)
	if !canFlush {
		writeError(w, http.StatusInternalServerError, "Streaming unsupported", nil)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	updates, cancel := h.Hub.Subscribe(sess.MatchID())
	defer cancel()

	writeSSE(w, sess.Snapshot())
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case snap, open := <-updates:
			if !open {
				return
			}
			writeSSE(w, snap)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, snap scoring.Snapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		return
	}
	w.Write([]byte("event: snapshot\ndata: "))
	w.Write(data)
	w.Write([]byte("\n\n"))
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*match.Session, bool) {
	id := chi.URLParam(r, "id")
	sess, err := h.Manager.Get(r.Context(), id)
	if err != nil {
		writeError(w, statusForError(err), "Match not found", err)
		return nil, false
	}
	return sess, true
}

func statusForError(err error) int {
	switch {
	case scoring.IsClientError(err) || errors.Is(err, factory.ErrInvalidSetup):
		return http.StatusBadRequest
	case scoring.IsNotFound(err) || errors.Is(err, match.ErrMatchNotFound):
		return http.StatusNotFound
	case scoring.IsConflict(err) || errors.Is(err, match.ErrMatchExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
