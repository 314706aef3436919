// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package registrations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/campus-ballot/apperr"
	"github.com/danielhkuo/campus-ballot/db"
	"github.com/danielhkuo/campus-ballot/gate"
	"github.com/danielhkuo/campus-ballot/models"
	"github.com/danielhkuo/campus-ballot/roster"
)

const registrationColumns = `r.id, r.candidate_id, r.election_id, r.post_id, r.status, r.message, r.reviewed_by, r.reviewed_at, r.created_at`

// Filter narrows List. Empty fields match everything.
type Filter struct {
	Status     models.RegistrationStatus
	ElectionID string
}

// Store reads and writes candidate registrations. Pass a *sql.Tx to run inside a transaction.
type Store struct {
	q   db.Querier
	now func() time.Time
}

func NewStore(q db.Querier) *Store {
	return &Store{
		q:   q,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Submit records a pending registration of candidateID for postID in
// electionID. The candidate's grade must be eligible for the post, and a
// candidate holds at most one pending or approved registration per election.
func (s *Store) Submit(ctx context.Context, candidateID, electionID, postID string) (models.Registration, error) {
	if electionID == "" || postID == "" {
		return models.Registration{}, apperr.New(apperr.KindValidation, "Election ID and Post ID are required")
	}

	var grade string
	err := s.q.QueryRowContext(ctx, `SELECT grade FROM candidate WHERE id = $1`, candidateID).Scan(&grade)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Registration{}, apperr.New(apperr.KindNotFound, "Candidate profile not found")
	}
	if err != nil {
		return models.Registration{}, fmt.Errorf("failed to load candidate: %w", err)
	}

	if _, err := gate.Load(ctx, s.q, electionID); err != nil {
		return models.Registration{}, err
	}
	post, err := roster.New(s.q).Post(ctx, electionID, postID)
	if err != nil {
		return models.Registration{}, err
	}
	if !roster.GradeEligible(post, grade) {
		return models.Registration{}, apperr.New(apperr.KindForbidden, "You are not eligible to register for this post based on grade")
	}

	var active int
	err = s.q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM election_registration
		WHERE candidate_id = $1 AND election_id = $2 AND status IN ('pending', 'approved')
	`, candidateID, electionID).Scan(&active)
	if err != nil {
		return models.Registration{}, fmt.Errorf("failed to check registrations: %w", err)
	}
	if active > 0 {
		return models.Registration{}, apperr.New(apperr.KindValidation, "You already have an active registration for this election")
	}

	reg := models.Registration{
		ID:          uuid.NewString(),
		CandidateID: candidateID,
		ElectionID:  electionID,
		PostID:      postID,
		Status:      models.RegistrationPending,
		CreatedAt:   s.now(),
	}
	_, err = s.q.ExecContext(ctx, `
		INSERT INTO election_registration (id, candidate_id, election_id, post_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, reg.ID, reg.CandidateID, reg.ElectionID, reg.PostID, string(reg.Status), reg.CreatedAt)
	if db.IsUniqueViolation(err) {
		return models.Registration{}, apperr.Wrap(apperr.KindConflict, "Already registered for this election and post", err)
	}
	if err != nil {
		return models.Registration{}, fmt.Errorf("failed to insert registration: %w", err)
	}
	return reg, nil
}

// Get returns the registration or a NotFound error
func (s *Store) Get(ctx context.Context, id string) (models.Registration, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+registrationColumns+` FROM election_registration r WHERE r.id = $1`, id)
	var reg models.Registration
	err := scanRegistration(row.Scan, &reg)
	if errors.Is(err, sql.ErrNoRows) {
		return reg, apperr.New(apperr.KindNotFound, "Registration not found")
	}
	if err != nil {
		return reg, fmt.Errorf("failed to load registration: %w", err)
	}
	return reg, nil
}

// ForCandidate lists the candidate's registrations, newest first
func (s *Store) ForCandidate(ctx context.Context, candidateID string) ([]models.RegistrationDetail, error) {
	return s.details(ctx, `WHERE r.candidate_id = $1`, candidateID)
}

// List returns registrations matching f, newest first
func (s *Store) List(ctx context.Context, f Filter) ([]models.RegistrationDetail, error) {
	var where []string
	var args []any
	if f.Status != "" {
		args = append(args, string(f.Status))
		where = append(where, "r.status = $"+strconv.Itoa(len(args)))
	}
	if f.ElectionID != "" {
		args = append(args, f.ElectionID)
		where = append(where, "r.election_id = $"+strconv.Itoa(len(args)))
	}

	clause := ""
	if len(where) > 0 {
		clause = "WHERE " + strings.Join(where, " AND ")
	}
	return s.details(ctx, clause, args...)
}

// Reject closes a pending registration without touching the ballot
func (s *Store) Reject(ctx context.Context, id, reviewer, message string) (models.Registration, error) {
	if message == "" {
		message = "Registration rejected"
	}
	return s.review(ctx, id, models.RegistrationRejected, reviewer, message)
}

// Approve marks a pending registration approved and places the candidate on
// the ballot for its post, in one transaction. An existing ballot placement
// is kept.
func Approve(ctx context.Context, conn *sql.DB, id, reviewer, message string) (models.Registration, error) {
	var reg models.Registration
	err := db.WithTx(ctx, conn, func(tx *sql.Tx) error {
		var err error
		reg, err = NewStore(tx).review(ctx, id, models.RegistrationApproved, reviewer, message)
		if err != nil {
			return err
		}
		_, err = roster.New(tx).Assign(ctx, reg.ElectionID, reg.PostID, reg.CandidateID)
		return err
	})
	if err != nil {
		return models.Registration{}, err
	}
	return reg, nil
}

// review moves a pending registration to status. Only the pending state can
// be left, so two reviewers racing on one registration cannot both succeed.
func (s *Store) review(ctx context.Context, id string, status models.RegistrationStatus, reviewer, message string) (models.Registration, error) {
	res, err := s.q.ExecContext(ctx, `
		UPDATE election_registration
		SET status = $2, message = $3, reviewed_by = $4, reviewed_at = $5
		WHERE id = $1 AND status = 'pending'
	`, id, string(status), message, reviewer, s.now())
	if err != nil {
		return models.Registration{}, fmt.Errorf("failed to review registration: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return models.Registration{}, fmt.Errorf("failed to read rows affected: %w", err)
	}

	reg, err := s.Get(ctx, id)
	if err != nil {
		return models.Registration{}, err
	}
	if n == 0 {
		return models.Registration{}, apperr.New(apperr.KindValidation, "Registration already reviewed")
	}
	return reg, nil
}

func (s *Store) details(ctx context.Context, where string, args ...any) ([]models.RegistrationDetail, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT `+registrationColumns+`, c.name, c.grade, e.name, p.name
		FROM election_registration r
		JOIN candidate c ON c.id = r.candidate_id
		JOIN election e ON e.id = r.election_id
		JOIN post p ON p.id = r.post_id
		`+where+`
		ORDER BY r.created_at DESC, r.id
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query registrations: %w", err)
	}
	defer rows.Close()

	list := []models.RegistrationDetail{}
	for rows.Next() {
		var d models.RegistrationDetail
		err := scanRegistration(func(dest ...any) error {
			return rows.Scan(append(dest, &d.CandidateName, &d.CandidateGrade, &d.ElectionName, &d.PostName)...)
		}, &d.Registration)
		if err != nil {
			return nil, fmt.Errorf("failed to scan registration: %w", err)
		}
		list = append(list, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate registrations: %w", err)
	}
	return list, nil
}

func scanRegistration(scan func(dest ...any) error, reg *models.Registration) error {
	var status string
	var reviewedAt sql.NullTime
	err := scan(&reg.ID, &reg.CandidateID, &reg.ElectionID, &reg.PostID, &status, &reg.Message,
		&reg.ReviewedBy, &reviewedAt, &reg.CreatedAt)
	if err != nil {
		return err
	}
	reg.Status = models.RegistrationStatus(status)
	if reviewedAt.Valid {
		reg.ReviewedAt = &reviewedAt.Time
	}
	return nil
}
