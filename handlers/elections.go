// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/danielhkuo/campus-ballot/apperr"
	"github.com/danielhkuo/campus-ballot/auth"
	"github.com/danielhkuo/campus-ballot/ballot"
	"github.com/danielhkuo/campus-ballot/cliparse"
	"github.com/danielhkuo/campus-ballot/gate"
	"github.com/danielhkuo/campus-ballot/metrics"
	"github.com/danielhkuo/campus-ballot/middleware"
	"github.com/danielhkuo/campus-ballot/models"
	"github.com/danielhkuo/campus-ballot/roster"
	"github.com/danielhkuo/campus-ballot/tokens"
)

type ElectionHandler struct {
	db     *sql.DB
	cfg    cliparse.Config
	engine *ballot.Engine
	now    func() time.Time

	// participants guards ballot and results views
	participants func(http.HandlerFunc) http.HandlerFunc
}

func NewElectionHandler(db *sql.DB, cfg cliparse.Config) *ElectionHandler {
	return &ElectionHandler{
		db:           db,
		cfg:          cfg,
		engine:       ballot.NewEngine(db, zap.L()),
		now:          func() time.Time { return time.Now().UTC() },
		participants: middleware.Authenticate(cfg.JWTSecret, models.RoleStudent, models.RoleAdmin),
	}
}

// ListElections handles GET /elections?active=true
func (h *ElectionHandler) ListElections(w http.ResponseWriter, r *http.Request) {
	openOnly := r.URL.Query().Get("active") == "true"

	elections, err := gate.List(r.Context(), h.db, openOnly, h.now())
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, elections)
}

// GetElection handles GET /elections/{id}
func (h *ElectionHandler) GetElection(w http.ResponseWriter, r *http.Request) {
	election, err := gate.Load(r.Context(), h.db, r.PathValue("id"))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, election)
}

// View handles GET /elections/{id}/{view} for posts, ballot and results.
// Ballot and results require a student or admin.
func (h *ElectionHandler) View(w http.ResponseWriter, r *http.Request) {
	switch r.PathValue("view") {
	case "posts":
		h.GetPosts(w, r)
	case "ballot":
		h.participants(h.GetBallot)(w, r)
	case "results":
		h.participants(h.GetResults)(w, r)
	default:
		http.NotFound(w, r)
	}
}

// GetPosts handles GET /elections/{id}/posts
func (h *ElectionHandler) GetPosts(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")
	if _, err := gate.Load(r.Context(), h.db, electionID); err != nil {
		middleware.WriteError(w, err)
		return
	}

	posts, err := roster.New(h.db).PostsFor(r.Context(), electionID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, posts)
}

// GetBallot handles GET /elections/{id}/ballot
func (h *ElectionHandler) GetBallot(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")
	if _, err := gate.Load(r.Context(), h.db, electionID); err != nil {
		middleware.WriteError(w, err)
		return
	}

	ballotPosts, err := roster.New(h.db).BallotFor(r.Context(), electionID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, ballotPosts)
}

// GetResults handles GET /elections/{id}/results
func (h *ElectionHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")
	if _, err := gate.Load(r.Context(), h.db, electionID); err != nil {
		middleware.WriteError(w, err)
		return
	}

	results, err := roster.New(h.db).Results(r.Context(), electionID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, results)
}

// RequestToken handles POST /elections/{id}/token
func (h *ElectionHandler) RequestToken(w http.ResponseWriter, r *http.Request) {
	p, _ := middleware.PrincipalFrom(r.Context())
	student, ok := p.(auth.Student)
	if !ok {
		middleware.WriteError(w, apperr.New(apperr.KindForbidden, "Only students can request voting tokens"))
		return
	}

	electionID := r.PathValue("id")
	if _, err := gate.Check(r.Context(), h.db, electionID, h.now()); err != nil {
		middleware.WriteError(w, err)
		return
	}

	tok, created, err := tokens.NewStore(h.db).IssueIfAbsent(r.Context(), student.StudentID, electionID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	metrics.ObserveTokenIssued(models.IssueSourceRequest, created)

	status := http.StatusOK
	if created {
		status = http.StatusCreated
		zap.L().Info("voting token issued",
			zap.String("student_id", student.StudentID),
			zap.String("election_id", electionID),
		)
	}
	middleware.JSONResponse(w, status, tok)
}

// CastBallot handles POST /elections/{id}/cast
func (h *ElectionHandler) CastBallot(w http.ResponseWriter, r *http.Request) {
	var req models.CastBallotRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.WriteError(w, apperr.New(apperr.KindValidation, "Invalid JSON"))
		return
	}

	p, _ := middleware.PrincipalFrom(r.Context())
	err := h.engine.Cast(r.Context(), p, ballot.CastRequest{
		ElectionID: r.PathValue("id"),
		Token:      req.Token,
		Selections: req.Selections,
	})
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: "Vote cast successfully"})
}

// ValidateToken handles GET /elections/tokens/{code}
func (h *ElectionHandler) ValidateToken(w http.ResponseWriter, r *http.Request) {
	tok, err := tokens.NewStore(h.db).ValidatePublic(r.Context(), r.PathValue("code"))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, tok)
}
