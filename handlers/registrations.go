// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/danielhkuo/campus-ballot/apperr"
	"github.com/danielhkuo/campus-ballot/auth"
	"github.com/danielhkuo/campus-ballot/metrics"
	"github.com/danielhkuo/campus-ballot/middleware"
	"github.com/danielhkuo/campus-ballot/models"
	"github.com/danielhkuo/campus-ballot/registrations"
)

type RegistrationHandler struct {
	db *sql.DB
}

func NewRegistrationHandler(db *sql.DB) *RegistrationHandler {
	return &RegistrationHandler{db: db}
}

// Register handles POST /elections/{id}/registrations
func (h *RegistrationHandler) Register(w http.ResponseWriter, r *http.Request) {
	p, _ := middleware.PrincipalFrom(r.Context())
	candidate, ok := p.(auth.Candidate)
	if !ok {
		middleware.WriteError(w, apperr.New(apperr.KindForbidden, "Only candidates can register for elections"))
		return
	}

	var req models.RegisterForPostRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.WriteError(w, apperr.New(apperr.KindValidation, "Invalid JSON"))
		return
	}

	reg, err := registrations.NewStore(h.db).Submit(r.Context(), candidate.CandidateID, r.PathValue("id"), req.PostID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	zap.L().Info("registration submitted",
		zap.String("registration_id", reg.ID),
		zap.String("candidate_id", reg.CandidateID),
		zap.String("election_id", reg.ElectionID),
	)

	middleware.JSONResponse(w, http.StatusCreated, models.RegistrationResponse{
		Message:      "Registration submitted. Awaiting admin approval.",
		Registration: reg,
	})
}

// MyRegistrations handles GET /candidates/me/registrations
func (h *RegistrationHandler) MyRegistrations(w http.ResponseWriter, r *http.Request) {
	p, _ := middleware.PrincipalFrom(r.Context())
	candidate, ok := p.(auth.Candidate)
	if !ok {
		middleware.WriteError(w, apperr.New(apperr.KindForbidden, "Only candidates have registrations"))
		return
	}

	list, err := registrations.NewStore(h.db).ForCandidate(r.Context(), candidate.CandidateID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, list)
}

// ListRegistrations handles GET /admin/registrations?status=&electionId=
func (h *RegistrationHandler) ListRegistrations(w http.ResponseWriter, r *http.Request) {
	filter := registrations.Filter{
		Status:     models.RegistrationStatus(r.URL.Query().Get("status")),
		ElectionID: r.URL.Query().Get("electionId"),
	}
	switch filter.Status {
	case "", models.RegistrationPending, models.RegistrationApproved, models.RegistrationRejected:
	default:
		middleware.WriteError(w, apperr.New(apperr.KindValidation, "status must be pending, approved or rejected"))
		return
	}

	list, err := registrations.NewStore(h.db).List(r.Context(), filter)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, list)
}

// Approve handles POST /admin/registrations/{id}/approve
func (h *RegistrationHandler) Approve(w http.ResponseWriter, r *http.Request) {
	reviewer, req, ok := h.review(w, r)
	if !ok {
		return
	}

	reg, err := registrations.Approve(r.Context(), h.db, r.PathValue("id"), reviewer, req.Message)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	metrics.ObserveRegistrationReviewed(string(reg.Status))

	zap.L().Info("registration approved",
		zap.String("registration_id", reg.ID),
		zap.String("candidate_id", reg.CandidateID),
		zap.String("post_id", reg.PostID),
	)

	middleware.JSONResponse(w, http.StatusOK, models.RegistrationResponse{
		Message:      "Registration approved and candidate added to ballot",
		Registration: reg,
	})
}

// Reject handles POST /admin/registrations/{id}/reject
func (h *RegistrationHandler) Reject(w http.ResponseWriter, r *http.Request) {
	reviewer, req, ok := h.review(w, r)
	if !ok {
		return
	}

	reg, err := registrations.NewStore(h.db).Reject(r.Context(), r.PathValue("id"), reviewer, req.Message)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	metrics.ObserveRegistrationReviewed(string(reg.Status))

	middleware.JSONResponse(w, http.StatusOK, models.RegistrationResponse{
		Message:      "Registration rejected",
		Registration: reg,
	})
}

// review reads the admin reviewer and the optional body shared by approve and reject
func (h *RegistrationHandler) review(w http.ResponseWriter, r *http.Request) (string, models.ReviewRegistrationRequest, bool) {
	var req models.ReviewRegistrationRequest

	p, _ := middleware.PrincipalFrom(r.Context())
	admin, ok := p.(auth.Admin)
	if !ok {
		middleware.WriteError(w, apperr.New(apperr.KindForbidden, "Only administrators can review registrations"))
		return "", req, false
	}

	// The body is optional
	if err := middleware.ParseJSONBody(r, &req); err != nil && !errors.Is(err, io.EOF) {
		middleware.WriteError(w, apperr.New(apperr.KindValidation, "Invalid JSON"))
		return "", req, false
	}
	return admin.Username, req, true
}
