// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/campus-ballot/apperr"
	"github.com/danielhkuo/campus-ballot/auth"
	"github.com/danielhkuo/campus-ballot/db"
	"github.com/danielhkuo/campus-ballot/metrics"
	"github.com/danielhkuo/campus-ballot/models"
)

// MaxIssueAttempts bounds regeneration after a code collision
const MaxIssueAttempts = 10

var codeFormat = regexp.MustCompile(`^[0-9]{6}$`)

const tokenColumns = `id, student_id, election_id, code, is_used, created_at, used_at`

// ValidFormat reports whether code is exactly six ASCII digits
func ValidFormat(code string) bool {
	return codeFormat.MatchString(code)
}

// Store reads and writes voting tokens. Pass a *sql.Tx to run inside a transaction.
type Store struct {
	q        db.Querier
	generate func() (string, error)
	now      func() time.Time
}

func NewStore(q db.Querier) *Store {
	return &Store{
		q:        q,
		generate: auth.GenerateVotingCode,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// IssueIfAbsent returns the token for (studentID, electionID), creating it if
// none exists. created reports whether this call created it. An existing
// token is never regenerated.
func (s *Store) IssueIfAbsent(ctx context.Context, studentID, electionID string) (models.VotingToken, bool, error) {
	for attempt := 0; attempt < MaxIssueAttempts; attempt++ {
		code, err := s.generate()
		if err != nil {
			return models.VotingToken{}, false, err
		}

		res, err := s.q.ExecContext(ctx, `
			INSERT INTO voting_token (id, student_id, election_id, code, is_used, created_at)
			VALUES ($1, $2, $3, $4, FALSE, $5)
			ON CONFLICT (student_id, election_id) DO NOTHING
		`, uuid.NewString(), studentID, electionID, code, s.now())
		if db.IsUniqueViolation(err) {
			// Code collision with another pair's token
			continue
		}
		if db.IsForeignKeyViolation(err) {
			return models.VotingToken{}, false, apperr.Wrap(apperr.KindNotFound, "Student or election not found", err)
		}
		if err != nil {
			return models.VotingToken{}, false, fmt.Errorf("failed to insert voting token: %w", err)
		}

		n, err := res.RowsAffected()
		if err != nil {
			return models.VotingToken{}, false, fmt.Errorf("failed to read rows affected: %w", err)
		}

		tok, err := s.forPair(ctx, studentID, electionID)
		if err != nil {
			return models.VotingToken{}, false, err
		}
		return tok, n == 1, nil
	}

	return models.VotingToken{}, false, apperr.New(apperr.KindConflict, "Could not allocate a unique voting token, please try again")
}

// LookupForCast resolves code for a cast by studentID in electionID
func (s *Store) LookupForCast(ctx context.Context, code, studentID, electionID string) (models.VotingToken, error) {
	tok, err := s.byCode(ctx, code)
	if errors.Is(err, sql.ErrNoRows) {
		return models.VotingToken{}, apperr.New(apperr.KindTokenInvalid, "Invalid voting token")
	}
	if err != nil {
		return models.VotingToken{}, err
	}

	if tok.StudentID != studentID || tok.ElectionID != electionID {
		return models.VotingToken{}, apperr.New(apperr.KindTokenMismatch, "This voting token does not belong to you or this election")
	}
	if tok.IsUsed {
		return models.VotingToken{}, apperr.New(apperr.KindTokenAlreadyUsed, "This voting token has already been used")
	}
	return tok, nil
}

// MarkUsed consumes the token. It only succeeds on the unused-to-used transition.
func (s *Store) MarkUsed(ctx context.Context, tokenID string, at time.Time) error {
	res, err := s.q.ExecContext(ctx, `
		UPDATE voting_token SET is_used = TRUE, used_at = $2
		WHERE id = $1 AND is_used = FALSE
	`, tokenID, at.UTC())
	if err != nil {
		return fmt.Errorf("failed to mark token used: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return apperr.New(apperr.KindTokenAlreadyUsed, "This voting token has already been used")
	}
	return nil
}

// ValidatePublic returns the unused token with this code
func (s *Store) ValidatePublic(ctx context.Context, code string) (models.VotingToken, error) {
	code = strings.TrimSpace(code)
	if !ValidFormat(code) {
		return models.VotingToken{}, apperr.New(apperr.KindTokenFormatInvalid, "Voting token must be exactly 6 digits")
	}

	tok, err := s.byCode(ctx, code)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && tok.IsUsed) {
		return models.VotingToken{}, apperr.New(apperr.KindNotFound, "Invalid or used voting token")
	}
	if err != nil {
		return models.VotingToken{}, err
	}
	return tok, nil
}

// ListForStudent returns the student's tokens with their election window and
// whether a ballot was recorded for that election, most recent election first.
func (s *Store) ListForStudent(ctx context.Context, studentID string) ([]models.StudentToken, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT t.id, t.student_id, t.election_id, t.code, t.is_used, t.created_at, t.used_at,
		       e.name, e.start_date, e.end_date,
		       EXISTS (
		           SELECT 1 FROM ballot_receipt br
		           WHERE br.student_id = t.student_id AND br.election_id = t.election_id
		       ) AS has_voted
		FROM voting_token t
		JOIN election e ON e.id = t.election_id
		WHERE t.student_id = $1
		ORDER BY e.start_date DESC, t.id
	`, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query student tokens: %w", err)
	}
	defer rows.Close()

	list := []models.StudentToken{}
	for rows.Next() {
		var st models.StudentToken
		var usedAt sql.NullTime
		if err := rows.Scan(&st.ID, &st.StudentID, &st.ElectionID, &st.Token, &st.IsUsed, &st.CreatedAt, &usedAt,
			&st.ElectionName, &st.StartDate, &st.EndDate, &st.HasVoted); err != nil {
			return nil, fmt.Errorf("failed to scan student token: %w", err)
		}
		if usedAt.Valid {
			st.UsedAt = &usedAt.Time
		}
		list = append(list, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate student tokens: %w", err)
	}
	return list, nil
}

// FanOutElection issues a token to every student for electionID and returns
// how many were created.
func (s *Store) FanOutElection(ctx context.Context, electionID string) (int, error) {
	students, err := s.ids(ctx, `SELECT id FROM student ORDER BY id`)
	if err != nil {
		return 0, err
	}
	return s.fanOut(ctx, len(students), func(i int) (string, string) { return students[i], electionID })
}

// FanOutStudent issues a token to studentID for every election and returns
// how many were created.
func (s *Store) FanOutStudent(ctx context.Context, studentID string) (int, error) {
	elections, err := s.ids(ctx, `SELECT id FROM election ORDER BY id`)
	if err != nil {
		return 0, err
	}
	return s.fanOut(ctx, len(elections), func(i int) (string, string) { return studentID, elections[i] })
}

func (s *Store) fanOut(ctx context.Context, n int, pair func(int) (string, string)) (int, error) {
	created := 0
	for i := 0; i < n; i++ {
		studentID, electionID := pair(i)
		_, ok, err := s.IssueIfAbsent(ctx, studentID, electionID)
		if err != nil {
			return created, fmt.Errorf("fan-out stopped after %d tokens: %w", created, err)
		}
		metrics.ObserveTokenIssued(models.IssueSourceFanOut, ok)
		if ok {
			created++
		}
	}
	return created, nil
}

// ids collects a single id column, closing rows before any further query runs
func (s *Store) ids(ctx context.Context, query string) ([]string, error) {
	rows, err := s.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) byCode(ctx context.Context, code string) (models.VotingToken, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+tokenColumns+` FROM voting_token WHERE code = $1`, code)
	tok, err := scanToken(row)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return tok, fmt.Errorf("failed to look up voting token: %w", err)
	}
	return tok, err
}

func (s *Store) forPair(ctx context.Context, studentID, electionID string) (models.VotingToken, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT `+tokenColumns+` FROM voting_token WHERE student_id = $1 AND election_id = $2
	`, studentID, electionID)
	tok, err := scanToken(row)
	if err != nil {
		return tok, fmt.Errorf("failed to load voting token: %w", err)
	}
	return tok, nil
}

func scanToken(row *sql.Row) (models.VotingToken, error) {
	var tok models.VotingToken
	var usedAt sql.NullTime
	err := row.Scan(&tok.ID, &tok.StudentID, &tok.ElectionID, &tok.Token, &tok.IsUsed, &tok.CreatedAt, &usedAt)
	if usedAt.Valid {
		tok.UsedAt = &usedAt.Time
	}
	return tok, err
}
