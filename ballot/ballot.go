// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ballot

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/danielhkuo/campus-ballot/apperr"
	"github.com/danielhkuo/campus-ballot/auth"
	"github.com/danielhkuo/campus-ballot/db"
	"github.com/danielhkuo/campus-ballot/gate"
	"github.com/danielhkuo/campus-ballot/logging"
	"github.com/danielhkuo/campus-ballot/metrics"
	"github.com/danielhkuo/campus-ballot/models"
	"github.com/danielhkuo/campus-ballot/roster"
	"github.com/danielhkuo/campus-ballot/tokens"
)

// CastRequest is one ballot submission
type CastRequest struct {
	ElectionID string
	Token      string
	Selections []models.Selection
}

// Engine validates ballots and commits them atomically
type Engine struct {
	db  *sql.DB
	log *zap.Logger
	now func() time.Time
}

func NewEngine(conn *sql.DB, log *zap.Logger) *Engine {
	return &Engine{
		db:  conn,
		log: logging.OrNop(log).Named("ballot"),
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Cast validates the submission and, if every check passes, replaces the
// student's votes for the election, consumes the token and records the
// receipt in one transaction. On any error nothing is written.
func (e *Engine) Cast(ctx context.Context, p auth.Principal, req CastRequest) error {
	student, err := e.cast(ctx, p, req)
	if err != nil {
		kind := apperr.KindOf(err)
		metrics.ObserveRejection(string(kind))

		fields := []zap.Field{
			zap.String("election_id", req.ElectionID),
			zap.String("kind", string(kind)),
		}
		if student != "" {
			fields = append(fields, zap.String("student_id", student))
		}
		if kind == apperr.KindInternal {
			e.log.Error("ballot failed", append(fields, zap.Error(err))...)
		} else {
			e.log.Info("ballot rejected", fields...)
		}
		return err
	}

	metrics.BallotsCast.Inc()
	e.log.Info("ballot cast",
		zap.String("student_id", student),
		zap.String("election_id", req.ElectionID),
		zap.Int("selections", len(req.Selections)),
	)
	return nil
}

func (e *Engine) cast(ctx context.Context, p auth.Principal, req CastRequest) (string, error) {
	student, ok := p.(auth.Student)
	if !ok {
		return "", apperr.New(apperr.KindForbidden, "Only students can cast ballots")
	}

	electionID := strings.TrimSpace(req.ElectionID)
	if electionID == "" {
		return student.StudentID, apperr.New(apperr.KindValidation, "Election is required")
	}

	now := e.now()
	if _, err := gate.Check(ctx, e.db, electionID, now); err != nil {
		return student.StudentID, err
	}

	code := strings.TrimSpace(req.Token)
	if code == "" {
		return student.StudentID, apperr.New(apperr.KindValidation, "Voting token is required")
	}
	if !tokens.ValidFormat(code) {
		return student.StudentID, apperr.New(apperr.KindTokenFormatInvalid, "Voting token must be exactly 6 digits")
	}

	if len(req.Selections) == 0 {
		return student.StudentID, apperr.New(apperr.KindValidation, "At least one selection is required")
	}
	for _, sel := range req.Selections {
		if strings.TrimSpace(sel.PostID) == "" || strings.TrimSpace(sel.CandidateID) == "" {
			return student.StudentID, apperr.New(apperr.KindValidation, "Each selection needs a post and a candidate")
		}
	}

	err := db.WithTx(ctx, e.db, func(tx *sql.Tx) error {
		return e.commit(ctx, tx, student.StudentID, electionID, code, req.Selections, now)
	})
	if err == nil {
		return student.StudentID, nil
	}

	if db.IsUniqueViolation(err) {
		// Lost a race with a concurrent cast; report what that cast left behind
		_, lookupErr := tokens.NewStore(e.db).LookupForCast(ctx, code, student.StudentID, electionID)
		if apperr.Is(lookupErr, apperr.KindTokenAlreadyUsed) {
			return student.StudentID, lookupErr
		}
		return student.StudentID, apperr.Wrap(apperr.KindConflict, "Your ballot conflicted with another submission, please try again", err)
	}
	return student.StudentID, err
}

func (e *Engine) commit(ctx context.Context, tx *sql.Tx, studentID, electionID, code string, selections []models.Selection, now time.Time) error {
	store := tokens.NewStore(tx)
	tok, err := store.LookupForCast(ctx, code, studentID, electionID)
	if err != nil {
		return err
	}

	r := roster.New(tx)
	posts, err := r.PostsFor(ctx, electionID)
	if err != nil {
		return err
	}
	if len(selections) != len(posts) {
		return apperr.New(apperr.KindIncompletePosts,
			fmt.Sprintf("You must vote for all %d posts in this election", len(posts)))
	}

	seen := make(map[string]bool, len(selections))
	for _, sel := range selections {
		if seen[sel.PostID] {
			return apperr.New(apperr.KindDuplicatePostSelection, "You can only vote once for each post")
		}
		seen[sel.PostID] = true
	}

	for _, sel := range selections {
		ok, err := r.IsCandidateOnBallot(ctx, electionID, sel.PostID, sel.CandidateID)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.New(apperr.KindCandidateNotOnBallot, "One of the selected candidates is not on the ballot for that post")
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM vote WHERE student_id = $1 AND election_id = $2`, studentID, electionID); err != nil {
		return fmt.Errorf("failed to clear previous votes: %w", err)
	}

	for _, sel := range selections {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO vote (id, student_id, election_id, post_id, candidate_id, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, uuid.NewString(), studentID, electionID, sel.PostID, sel.CandidateID, now)
		if err != nil {
			return fmt.Errorf("failed to record vote: %w", err)
		}
	}

	if err := store.MarkUsed(ctx, tok.ID, now); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, `UPDATE student SET has_voted = TRUE WHERE id = $1`, studentID)
	if err != nil {
		return fmt.Errorf("failed to update student: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	} else if n == 0 {
		return apperr.New(apperr.KindNotFound, "Student not found")
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO ballot_receipt (student_id, election_id, cast_at)
		VALUES ($1, $2, $3)
	`, studentID, electionID, now)
	if err != nil {
		return fmt.Errorf("failed to record ballot receipt: %w", err)
	}

	return nil
}
