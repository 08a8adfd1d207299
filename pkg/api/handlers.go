package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jakechorley/timeshift/pkg/core/callout"
	"github.com/jakechorley/timeshift/pkg/db"
)

type openCalloutRequest struct {
	ScheduledShiftID string  `json:"scheduled_shift_id" validate:"required"`
	ClassificationID *string `json:"classification_id" validate:"omitempty,min=1"`
	OTReasonID       *string `json:"ot_reason_id" validate:"omitempty,min=1"`
	ReasonText       *string `json:"reason_text" validate:"omitempty,max=1000"`
}

type recordAttemptRequest struct {
	UserID   string  `json:"user_id" validate:"required"`
	Response string  `json:"response" validate:"required"`
	Notes    *string `json:"notes" validate:"omitempty,max=1000"`
}

type updateNotesRequest struct {
	Notes db.Field[string] `json:"notes"`
}

type nextCandidateResponse struct {
	Candidate *callout.RankedCandidate `json:"candidate"`
}

// queryInt parses an optional integer query parameter
func queryInt(r *http.Request, name string) (*int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, false
	}
	return &v, true
}

// ListEvents handles GET /api/callout-events
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit")
	if !ok {
		badRequest(w, "limit must be an integer")
		return
	}
	offset, ok := queryInt(r, "offset")
	if !ok {
		badRequest(w, "offset must be an integer")
		return
	}

	events, err := h.svc.ListEvents(r.Context(), actorFrom(r.Context()), db.NewPage(limit, offset))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if events == nil {
		events = []db.CalloutEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}

// OpenCallout handles POST /api/callout-events
func (h *Handler) OpenCallout(w http.ResponseWriter, r *http.Request) {
	var req openCalloutRequest
	if !h.decode(w, r, &req) {
		return
	}

	event, err := h.svc.OpenCallout(r.Context(), actorFrom(r.Context()), callout.OpenRequest{
		ScheduledShiftID: req.ScheduledShiftID,
		ClassificationID: req.ClassificationID,
		OTReasonID:       req.OTReasonID,
		ReasonText:       req.ReasonText,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

// GetEvent handles GET /api/callout-events/{eventId}
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.svc.GetEvent(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "eventId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// RankedList handles GET /api/callout-events/{eventId}/list
func (h *Handler) RankedList(w http.ResponseWriter, r *http.Request) {
	ranked, err := h.svc.RankedList(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "eventId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if ranked == nil {
		ranked = []callout.RankedCandidate{}
	}
	writeJSON(w, http.StatusOK, ranked)
}

// NextCandidate handles GET /api/callout-events/{eventId}/next
func (h *Handler) NextCandidate(w http.ResponseWriter, r *http.Request) {
	next, err := h.svc.NextCandidate(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "eventId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nextCandidateResponse{Candidate: next})
}

// CancelEvent handles POST /api/callout-events/{eventId}/cancel
func (h *Handler) CancelEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.svc.CancelEvent(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "eventId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// ListAttempts handles GET /api/callout-events/{eventId}/attempts
func (h *Handler) ListAttempts(w http.ResponseWriter, r *http.Request) {
	attempts, err := h.svc.ListAttempts(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "eventId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if attempts == nil {
		attempts = []db.CalloutAttempt{}
	}
	writeJSON(w, http.StatusOK, attempts)
}

// RecordAttempt handles POST /api/callout-events/{eventId}/attempts
func (h *Handler) RecordAttempt(w http.ResponseWriter, r *http.Request) {
	var req recordAttemptRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.svc.RecordAttempt(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "eventId"), callout.AttemptRequest{
		UserID:   req.UserID,
		Response: req.Response,
		Notes:    req.Notes,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// UpdateAttemptNotes handles PATCH /api/callout-attempts/{attemptId}.
// An absent notes key leaves the attempt unchanged and null clears the notes.
func (h *Handler) UpdateAttemptNotes(w http.ResponseWriter, r *http.Request) {
	var req updateNotesRequest
	if !h.decode(w, r, &req) {
		return
	}

	attempt, err := h.svc.UpdateAttemptNotes(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "attemptId"), req.Notes)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, attempt)
}

// OvertimeHours handles GET /api/overtime/{userId}?fiscal_year=&classification_id=
func (h *Handler) OvertimeHours(w http.ResponseWriter, r *http.Request) {
	year, ok := queryInt(r, "fiscal_year")
	if !ok {
		badRequest(w, "fiscal_year must be an integer")
		return
	}
	var classificationID *string
	if c := r.URL.Query().Get("classification_id"); c != "" {
		classificationID = &c
	}

	entry, err := h.svc.OvertimeHours(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "userId"), year, classificationID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
