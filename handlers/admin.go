// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/danielhkuo/campus-ballot/apperr"
	"github.com/danielhkuo/campus-ballot/cliparse"
	"github.com/danielhkuo/campus-ballot/db"
	"github.com/danielhkuo/campus-ballot/gate"
	"github.com/danielhkuo/campus-ballot/metrics"
	"github.com/danielhkuo/campus-ballot/middleware"
	"github.com/danielhkuo/campus-ballot/models"
	"github.com/danielhkuo/campus-ballot/roster"
	"github.com/danielhkuo/campus-ballot/tokens"
)

type AdminHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewAdminHandler(db *sql.DB, cfg cliparse.Config) *AdminHandler {
	return &AdminHandler{db: db, cfg: cfg}
}

// CreateElection handles POST /admin/elections
func (h *AdminHandler) CreateElection(w http.ResponseWriter, r *http.Request) {
	var req models.CreateElectionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.WriteError(w, apperr.New(apperr.KindValidation, "Invalid JSON"))
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		middleware.WriteError(w, apperr.New(apperr.KindValidation, "name is required"))
		return
	}
	if req.StartDate.IsZero() || req.EndDate.IsZero() {
		middleware.WriteError(w, apperr.New(apperr.KindValidation, "startDate and endDate are required"))
		return
	}
	if !req.EndDate.After(req.StartDate) {
		middleware.WriteError(w, apperr.New(apperr.KindValidation, "endDate must be after startDate"))
		return
	}

	election := models.Election{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		StartDate:   req.StartDate.UTC(),
		EndDate:     req.EndDate.UTC(),
		IsActive:    req.IsActive,
		CreatedAt:   time.Now().UTC(),
	}

	_, err := h.db.ExecContext(r.Context(), `
		INSERT INTO election (id, name, description, start_date, end_date, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, election.ID, election.Name, election.Description, election.StartDate, election.EndDate, election.IsActive, election.CreatedAt)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	// Token fan-out failures leave the election in place
	issued, err := tokens.NewStore(h.db).FanOutElection(r.Context(), election.ID)
	if err != nil {
		zap.L().Warn("token fan-out for election incomplete",
			zap.String("election_id", election.ID),
			zap.Int("issued", issued),
			zap.Error(err),
		)
	}

	zap.L().Info("election created", zap.String("election_id", election.ID), zap.Int("tokens_issued", issued))

	middleware.JSONResponse(w, http.StatusCreated, models.CreateElectionResponse{
		Election:       election,
		FanOutResponse: models.FanOutResponse{TokensIssued: issued},
	})
}

// SetElectionActive handles PATCH /admin/elections/{id}/active
func (h *AdminHandler) SetElectionActive(w http.ResponseWriter, r *http.Request) {
	var req models.SetElectionActiveRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.WriteError(w, apperr.New(apperr.KindValidation, "Invalid JSON"))
		return
	}
	if req.IsActive == nil {
		middleware.WriteError(w, apperr.New(apperr.KindValidation, "isActive is required"))
		return
	}

	election, err := gate.SetActive(r.Context(), h.db, r.PathValue("id"), *req.IsActive)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	zap.L().Info("election active flag changed", zap.String("election_id", election.ID), zap.Bool("active", election.IsActive))

	middleware.JSONResponse(w, http.StatusOK, election)
}

// CreatePost handles POST /admin/elections/{id}/posts
func (h *AdminHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")

	var req models.CreatePostRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.WriteError(w, apperr.New(apperr.KindValidation, "Invalid JSON"))
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		middleware.WriteError(w, apperr.New(apperr.KindValidation, "name is required"))
		return
	}

	if _, err := gate.Load(r.Context(), h.db, electionID); err != nil {
		middleware.WriteError(w, err)
		return
	}

	post := models.Post{
		ID:             uuid.NewString(),
		ElectionID:     electionID,
		Name:           req.Name,
		Description:    req.Description,
		IsMandatory:    true,
		EligibleGrades: roster.NormalizeGrades(req.EligibleGrades),
		CreatedAt:      time.Now().UTC(),
	}
	if req.IsMandatory != nil {
		post.IsMandatory = *req.IsMandatory
	}

	_, err := h.db.ExecContext(r.Context(), `
		INSERT INTO post (id, election_id, name, description, is_mandatory, eligible_grades, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, post.ID, post.ElectionID, post.Name, post.Description, post.IsMandatory, roster.JoinGrades(post.EligibleGrades), post.CreatedAt)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, post)
}

// CreateStudent handles POST /admin/students
func (h *AdminHandler) CreateStudent(w http.ResponseWriter, r *http.Request) {
	var req models.CreateStudentRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.WriteError(w, apperr.New(apperr.KindValidation, "Invalid JSON"))
		return
	}

	student := models.Student{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(req.Name),
		Username:  strings.TrimSpace(req.Username),
		Grade:     strings.TrimSpace(req.Grade),
		CreatedAt: time.Now().UTC(),
	}
	if student.Name == "" || student.Username == "" || student.Grade == "" {
		middleware.WriteError(w, apperr.New(apperr.KindValidation, "name, username and grade are required"))
		return
	}

	_, err := h.db.ExecContext(r.Context(), `
		INSERT INTO student (id, name, username, grade, has_voted, created_at)
		VALUES ($1, $2, $3, $4, FALSE, $5)
	`, student.ID, student.Name, student.Username, student.Grade, student.CreatedAt)
	if db.IsUniqueViolation(err) {
		middleware.WriteError(w, apperr.New(apperr.KindConflict, "Username already taken"))
		return
	}
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	issued, err := tokens.NewStore(h.db).FanOutStudent(r.Context(), student.ID)
	if err != nil {
		zap.L().Warn("token fan-out for student incomplete",
			zap.String("student_id", student.ID),
			zap.Int("issued", issued),
			zap.Error(err),
		)
	}

	zap.L().Info("student created", zap.String("student_id", student.ID), zap.Int("tokens_issued", issued))

	middleware.JSONResponse(w, http.StatusCreated, models.CreateStudentResponse{
		Student:        student,
		FanOutResponse: models.FanOutResponse{TokensIssued: issued},
	})
}

// DeleteStudent handles DELETE /admin/students/{studentId}.
// The student's tokens, votes and receipts go with it.
func (h *AdminHandler) DeleteStudent(w http.ResponseWriter, r *http.Request) {
	studentID := r.PathValue("studentId")

	err := db.WithTx(r.Context(), h.db, func(tx *sql.Tx) error {
		for _, table := range []string{"ballot_receipt", "vote", "voting_token"} {
			if _, err := tx.ExecContext(r.Context(), `DELETE FROM `+table+` WHERE student_id = $1`, studentID); err != nil {
				return err
			}
		}

		res, err := tx.ExecContext(r.Context(), `DELETE FROM student WHERE id = $1`, studentID)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return apperr.New(apperr.KindNotFound, "Student not found")
		}
		return nil
	})
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	zap.L().Info("student deleted", zap.String("student_id", studentID))

	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: "Student deleted"})
}

// CreateCandidate handles POST /admin/candidates
func (h *AdminHandler) CreateCandidate(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCandidateRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.WriteError(w, apperr.New(apperr.KindValidation, "Invalid JSON"))
		return
	}

	candidate := models.Candidate{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(req.Name),
		Username:  strings.TrimSpace(req.Username),
		Grade:     strings.TrimSpace(req.Grade),
		Manifesto: req.Manifesto,
		PhotoURL:  req.PhotoURL,
		LogoURL:   req.LogoURL,
		CreatedAt: time.Now().UTC(),
	}
	if candidate.Name == "" || candidate.Username == "" || candidate.Grade == "" {
		middleware.WriteError(w, apperr.New(apperr.KindValidation, "name, username and grade are required"))
		return
	}

	_, err := h.db.ExecContext(r.Context(), `
		INSERT INTO candidate (id, name, username, grade, manifesto, photo_url, logo_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, candidate.ID, candidate.Name, candidate.Username, candidate.Grade,
		candidate.Manifesto, candidate.PhotoURL, candidate.LogoURL, candidate.CreatedAt)
	if db.IsUniqueViolation(err) {
		middleware.WriteError(w, apperr.New(apperr.KindConflict, "Username already taken"))
		return
	}
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, candidate)
}

// AssignCandidate handles POST /admin/elections/{id}/ballot
func (h *AdminHandler) AssignCandidate(w http.ResponseWriter, r *http.Request) {
	var req models.AssignCandidateRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.WriteError(w, apperr.New(apperr.KindValidation, "Invalid JSON"))
		return
	}
	if req.PostID == "" || req.CandidateID == "" {
		middleware.WriteError(w, apperr.New(apperr.KindValidation, "postId and candidateId are required"))
		return
	}

	electionID := r.PathValue("id")
	if _, err := gate.Load(r.Context(), h.db, electionID); err != nil {
		middleware.WriteError(w, err)
		return
	}

	created, err := roster.New(h.db).Assign(r.Context(), electionID, req.PostID, req.CandidateID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	middleware.JSONResponse(w, status, models.MessageResponse{Message: "Candidate is on the ballot"})
}

// RemoveCandidate handles DELETE /admin/elections/{id}/ballot/{postId}/{candidateId}
func (h *AdminHandler) RemoveCandidate(w http.ResponseWriter, r *http.Request) {
	err := roster.New(h.db).Remove(r.Context(), r.PathValue("id"), r.PathValue("postId"), r.PathValue("candidateId"))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: "Candidate removed from the ballot"})
}

// IssueToken handles POST /admin/students/{studentId}/token
func (h *AdminHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req models.IssueTokenRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.WriteError(w, apperr.New(apperr.KindValidation, "Invalid JSON"))
		return
	}
	if req.ElectionID == "" {
		middleware.WriteError(w, apperr.New(apperr.KindValidation, "electionId is required"))
		return
	}

	studentID := r.PathValue("studentId")
	var exists string
	err := h.db.QueryRowContext(r.Context(), `SELECT id FROM student WHERE id = $1`, studentID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		middleware.WriteError(w, apperr.New(apperr.KindNotFound, "Student not found"))
		return
	}
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	if _, err := gate.Load(r.Context(), h.db, req.ElectionID); err != nil {
		middleware.WriteError(w, err)
		return
	}

	tok, created, err := tokens.NewStore(h.db).IssueIfAbsent(r.Context(), studentID, req.ElectionID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	metrics.ObserveTokenIssued(models.IssueSourceAdmin, created)

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	middleware.JSONResponse(w, status, tok)
}
