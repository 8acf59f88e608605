// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/bondscore/internal/logging"
	"github.com/tomtom215/bondscore/internal/models"
	"github.com/tomtom215/bondscore/internal/nomination"
	"github.com/tomtom215/bondscore/internal/store"
)

// AdminTokenHeader carries the token that unlocks limit bypass.
const AdminTokenHeader = "X-Admin-Token"

// CreateNominationRequest is the body of POST /api/v1/nominations and
// POST /api/v1/admin/nominations.
type CreateNominationRequest struct {
	NominatorID string `json:"nominator_id" validate:"required,userid"`
	NomineeID   string `json:"nominee_id" validate:"required,userid"`
	Message     string `json:"message,omitempty" validate:"omitempty,max=280"`
	CycleID     string `json:"cycle_id,omitempty" validate:"omitempty,cycleid"`
}

// RespondNominationRequest is the body of POST /api/v1/nominations/{id}/respond.
type RespondNominationRequest struct {
	ResponderID string `json:"responder_id" validate:"required,userid"`
	Accept      *bool  `json:"accept" validate:"required"`
}

// CancelNominationRequest is the body of POST /api/v1/nominations/{id}/cancel.
type CancelNominationRequest struct {
	NominatorID string `json:"nominator_id" validate:"required,userid"`
}

func (req *CreateNominationRequest) toRequest(source models.NominationSource) nomination.Request {
	return nomination.Request{
		NominatorID: req.NominatorID,
		NomineeID:   req.NomineeID,
		Message:     req.Message,
		CycleID:     req.CycleID,
		Source:      source,
	}
}

// CreateNomination handles POST /api/v1/nominations.
func (h *Handler) CreateNomination(w http.ResponseWriter, r *http.Request) {
	var req CreateNominationRequest
	if !decodeAndValidate(w, r, &req, false) {
		return
	}

	ctx, cancel := h.withTimeout(logging.ContextWithUserID(r.Context(), req.NominatorID))
	defer cancel()

	res, err := h.deps.Nominations.Nominate(ctx, req.toRequest(models.SourceManual))
	h.writeNominationResult(w, r, http.StatusCreated, res, err)
}

// CreateAdminNomination handles POST /api/v1/admin/nominations. It requires
// the admin token in X-Admin-Token and skips rate limits and cooldowns.
// Every attempt is written to the audit log.
func (h *Handler) CreateAdminNomination(w http.ResponseWriter, r *http.Request) {
	var req CreateNominationRequest
	if !decodeAndValidate(w, r, &req, false) {
		return
	}

	token := r.Header.Get(AdminTokenHeader)
	ev := &logging.AuditEvent{
		Action:    "nomination.bypass",
		ActorID:   req.NominatorID,
		TargetID:  req.NomineeID,
		IPAddress: r.RemoteAddr,
		Token:     token,
	}

	session, err := h.deps.Nominations.Bypass(token)
	if err != nil {
		ev.Error = err.Error()
		h.audit.Log(ev)
		if errors.Is(err, nomination.ErrBypassUnauthorized) {
			respondError(w, r, http.StatusUnauthorized, ErrCodeUnauthorized, "Invalid admin token", nil)
			return
		}
		respondEngineError(w, r, "Failed to open bypass session", err)
		return
	}

	ctx, cancel := h.withTimeout(logging.ContextWithUserID(r.Context(), req.NominatorID))
	defer cancel()

	res, err := session.Nominate(ctx, req.toRequest(models.SourceAdmin))
	ev.Success = err == nil && res != nil && res.Success
	switch {
	case err != nil:
		ev.Error = err.Error()
	case !res.Success:
		ev.Error = string(res.Reason)
	}
	h.audit.Log(ev)

	h.writeNominationResult(w, r, http.StatusCreated, res, err)
}

// RespondNomination handles POST /api/v1/nominations/{id}/respond.
func (h *Handler) RespondNomination(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req RespondNominationRequest
	if !decodeAndValidate(w, r, &req, false) {
		return
	}

	ctx, cancel := h.withTimeout(logging.ContextWithUserID(r.Context(), req.ResponderID))
	defer cancel()

	res, err := h.deps.Nominations.Respond(ctx, id, req.ResponderID, *req.Accept)
	h.writeNominationResult(w, r, http.StatusOK, res, err)
}

// CancelNomination handles POST /api/v1/nominations/{id}/cancel.
func (h *Handler) CancelNomination(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req CancelNominationRequest
	if !decodeAndValidate(w, r, &req, false) {
		return
	}

	ctx, cancel := h.withTimeout(logging.ContextWithUserID(r.Context(), req.NominatorID))
	defer cancel()

	res, err := h.deps.Nominations.Cancel(ctx, id, req.NominatorID)
	h.writeNominationResult(w, r, http.StatusOK, res, err)
}

// ListNominations handles GET /api/v1/users/{userID}/nominations?role=sent|received.
func (h *Handler) ListNominations(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if err := models.ValidateUserID(userID); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, err.Error(), nil)
		return
	}

	var role store.Role
	switch r.URL.Query().Get("role") {
	case "", "all":
		role = store.RoleAny
	case "sent":
		role = store.RoleNominator
	case "received":
		role = store.RoleNominee
	default:
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "role must be one of sent, received, all", nil)
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	noms, err := h.deps.Nominations.List(ctx, userID, role)
	if err != nil {
		respondEngineError(w, r, "Failed to list nominations", err)
		return
	}
	if noms == nil {
		noms = []models.Nomination{}
	}
	respondData(w, r, http.StatusOK, map[string]interface{}{
		"nominations": noms,
		"count":       len(noms),
	})
}

// writeNominationResult publishes the result's events, drops cached
// recommendations of the users involved and writes the response.
func (h *Handler) writeNominationResult(w http.ResponseWriter, r *http.Request, okStatus int,
	res *nomination.Result, err error) {
	if err != nil {
		respondEngineError(w, r, "Nomination failed", err)
		return
	}
	if !res.Success {
		respondRefusal(w, r, res.Reason, res.Detail, nil)
		return
	}

	h.publish(r.Context(), res.Events)
	if n := res.Nomination; n != nil {
		h.deps.Recommender.Invalidate(n.NominatorID, n.NomineeID)
	}
	respondData(w, r, okStatus, res)
}
