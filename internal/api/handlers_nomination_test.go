// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

package api

import (
	"net/http"
	"testing"

	"github.com/tomtom215/bondscore/internal/models"
	"github.com/tomtom215/bondscore/internal/nomination"
)

func (h *apiHarness) nominate(t *testing.T, from, to string) *models.Nomination {
	t.Helper()
	rec, env := h.do(t, http.MethodPost, "/api/v1/nominations", map[string]string{
		"nominator_id": from,
		"nominee_id":   to,
		"message":      "best friends?",
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("nominate %s -> %s: status = %d (body %s)", from, to, rec.Code, rec.Body.String())
	}
	var res nomination.Result
	decodeData(t, env, &res)
	if res.Nomination == nil {
		t.Fatal("result has no nomination")
	}
	return res.Nomination
}

func TestNominationAcceptFlow(t *testing.T) {
	t.Parallel()
	h := newAPIHarness(t, nil)

	nom := h.nominate(t, "alice", "carol")
	if nom.Status != models.NominationPending {
		t.Errorf("Status = %s, want %s", nom.Status, models.NominationPending)
	}
	if nom.Source != models.SourceManual {
		t.Errorf("Source = %s, want manual", nom.Source)
	}
	if !h.rec.wasInvalidated("alice") || !h.rec.wasInvalidated("carol") {
		t.Error("recommendations of both users should be invalidated")
	}
	if h.pub.count(models.EventNominationCreated) != 1 {
		t.Error("nomination.created not published")
	}

	rec, env := h.do(t, http.MethodGet, "/api/v1/users/carol/nominations?role=received", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var list struct {
		Nominations []models.Nomination `json:"nominations"`
		Count       int                 `json:"count"`
	}
	decodeData(t, env, &list)
	if list.Count != 1 || list.Nominations[0].ID != nom.ID {
		t.Fatalf("received = %+v, want [%s]", list, nom.ID)
	}

	rec, env = h.do(t, http.MethodPost, "/api/v1/nominations/"+nom.ID+"/respond", map[string]interface{}{
		"responder_id": "carol",
		"accept":       true,
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("respond status = %d (body %s)", rec.Code, rec.Body.String())
	}
	var res nomination.Result
	decodeData(t, env, &res)
	if res.Relation == nil || res.Relation.Status != models.StatusActive {
		t.Fatalf("relation = %+v, want ACTIVE", res.Relation)
	}

	rec, env = h.do(t, http.MethodGet, "/api/v1/users/alice/relations?status=active", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("relations status = %d", rec.Code)
	}
	var rels struct {
		Relations []RelationView `json:"relations"`
		Count     int            `json:"count"`
	}
	decodeData(t, env, &rels)
	if rels.Count != 1 || rels.Relations[0].ID != res.Relation.ID {
		t.Fatalf("relations = %+v", rels)
	}
	if rels.Relations[0].Progress.Tier == "" {
		t.Error("relation view is missing progress")
	}
}

func TestNominationMutualAutoAccept(t *testing.T) {
	t.Parallel()
	h := newAPIHarness(t, nil)

	h.nominate(t, "alice", "bob")
	rec, env := h.do(t, http.MethodPost, "/api/v1/nominations", map[string]string{
		"nominator_id": "bob",
		"nominee_id":   "alice",
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d (body %s)", rec.Code, rec.Body.String())
	}
	var res nomination.Result
	decodeData(t, env, &res)
	if !res.AutoAccepted {
		t.Error("reverse nomination should auto-accept")
	}
	if res.Relation == nil || res.Relation.Status != models.StatusActive {
		t.Errorf("relation = %+v, want ACTIVE", res.Relation)
	}
}

func TestNominationRefusals(t *testing.T) {
	t.Parallel()
	h := newAPIHarness(t, nil)
	nom := h.nominate(t, "alice", "carol")

	tests := []struct {
		name       string
		path       string
		body       interface{}
		wantStatus int
		wantCode   string
		wantReason models.Reason
	}{
		{
			name:       "self nomination",
			path:       "/api/v1/nominations",
			body:       map[string]string{"nominator_id": "alice", "nominee_id": "alice"},
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeBadRequest,
			wantReason: models.ReasonSelfNomination,
		},
		{
			name:       "already pending",
			path:       "/api/v1/nominations",
			body:       map[string]string{"nominator_id": "alice", "nominee_id": "carol"},
			wantStatus: http.StatusConflict,
			wantCode:   ErrCodeConflict,
			wantReason: models.ReasonAlreadyPending,
		},
		{
			name:       "respond as someone else",
			path:       "/api/v1/nominations/" + nom.ID + "/respond",
			body:       map[string]interface{}{"responder_id": "mallory", "accept": true},
			wantStatus: http.StatusForbidden,
			wantCode:   ErrCodeForbidden,
			wantReason: models.ReasonNotNominee,
		},
		{
			name:       "cancel as someone else",
			path:       "/api/v1/nominations/" + nom.ID + "/cancel",
			body:       map[string]string{"nominator_id": "carol"},
			wantStatus: http.StatusForbidden,
			wantCode:   ErrCodeForbidden,
			wantReason: models.ReasonNotNominator,
		},
		{
			name:       "unknown nomination",
			path:       "/api/v1/nominations/does-not-exist/respond",
			body:       map[string]interface{}{"responder_id": "carol", "accept": false},
			wantStatus: http.StatusNotFound,
			wantCode:   ErrCodeNotFound,
			wantReason: models.ReasonNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := h.do(t, http.MethodPost, tt.path, tt.body, nil)
			expectError(t, rec, env, tt.wantStatus, tt.wantCode)
			if got := env.Error.Details["reason"]; got != string(tt.wantReason) {
				t.Errorf("reason = %v, want %s", got, tt.wantReason)
			}
		})
	}
}

func TestRespondRequiresDecision(t *testing.T) {
	t.Parallel()
	h := newAPIHarness(t, nil)
	nom := h.nominate(t, "alice", "carol")

	rec, env := h.do(t, http.MethodPost, "/api/v1/nominations/"+nom.ID+"/respond",
		map[string]string{"responder_id": "carol"}, nil)
	expectError(t, rec, env, http.StatusBadRequest, "VALIDATION_ERROR")
}

func TestCancelNomination(t *testing.T) {
	t.Parallel()
	h := newAPIHarness(t, nil)
	nom := h.nominate(t, "alice", "carol")

	rec, env := h.do(t, http.MethodPost, "/api/v1/nominations/"+nom.ID+"/cancel",
		map[string]string{"nominator_id": "alice"}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (body %s)", rec.Code, rec.Body.String())
	}
	var res nomination.Result
	decodeData(t, env, &res)
	if res.Nomination.Status != models.NominationRejected {
		t.Errorf("Status = %s, want %s", res.Nomination.Status, models.NominationRejected)
	}

	// A second cancel finds it resolved.
	rec, env = h.do(t, http.MethodPost, "/api/v1/nominations/"+nom.ID+"/cancel",
		map[string]string{"nominator_id": "alice"}, nil)
	expectError(t, rec, env, http.StatusConflict, ErrCodeConflict)
}

func TestAdminNomination(t *testing.T) {
	t.Parallel()
	h := newAPIHarness(t, nil)
	body := map[string]string{"nominator_id": "alice", "nominee_id": "dave"}

	tests := []struct {
		name  string
		token string
	}{
		{"missing token", ""},
		{"wrong token", "guess"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := h.do(t, http.MethodPost, "/api/v1/admin/nominations", body,
				map[string]string{AdminTokenHeader: tt.token})
			expectError(t, rec, env, http.StatusUnauthorized, ErrCodeUnauthorized)
		})
	}

	rec, env := h.do(t, http.MethodPost, "/api/v1/admin/nominations", body,
		map[string]string{AdminTokenHeader: testAdminToken})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d (body %s)", rec.Code, rec.Body.String())
	}
	var res nomination.Result
	decodeData(t, env, &res)
	if res.Nomination == nil || res.Nomination.Source != models.SourceAdmin {
		t.Errorf("nomination = %+v, want admin source", res.Nomination)
	}
}

func TestListNominationsBadRole(t *testing.T) {
	t.Parallel()
	h := newAPIHarness(t, nil)

	rec, env := h.do(t, http.MethodGet, "/api/v1/users/alice/nominations?role=owner", nil, nil)
	expectError(t, rec, env, http.StatusBadRequest, ErrCodeBadRequest)
}
