// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package roster

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/danielhkuo/campus-ballot/apperr"
	"github.com/danielhkuo/campus-ballot/db"
	"github.com/danielhkuo/campus-ballot/models"
)

// Resolver answers which posts an election has and which candidates may be
// chosen for each. Pass a *sql.Tx to read inside a transaction.
type Resolver struct {
	q db.Querier
}

func New(q db.Querier) *Resolver {
	return &Resolver{q: q}
}

// PostsFor returns the election's posts in creation order
func (r *Resolver) PostsFor(ctx context.Context, electionID string) ([]models.Post, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, election_id, name, description, is_mandatory, eligible_grades, created_at
		FROM post
		WHERE election_id = $1
		ORDER BY created_at, id
	`, electionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}
	defer rows.Close()

	posts := []models.Post{}
	for rows.Next() {
		var p models.Post
		var grades string
		if err := rows.Scan(&p.ID, &p.ElectionID, &p.Name, &p.Description, &p.IsMandatory, &grades, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		p.EligibleGrades = splitGrades(grades)
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate posts: %w", err)
	}
	return posts, nil
}

// BallotFor returns every post with the candidates placed on it. Posts
// without candidates carry an empty list.
func (r *Resolver) BallotFor(ctx context.Context, electionID string) ([]models.BallotPost, error) {
	posts, err := r.PostsFor(ctx, electionID)
	if err != nil {
		return nil, err
	}

	rows, err := r.q.QueryContext(ctx, `
		SELECT cob.post_id, c.id, c.name, c.grade, c.manifesto, c.photo_url, c.logo_url
		FROM candidate_on_ballot cob
		JOIN candidate c ON c.id = cob.candidate_id
		WHERE cob.election_id = $1
		ORDER BY c.name, c.id
	`, electionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ballot candidates: %w", err)
	}
	defer rows.Close()

	byPost := make(map[string][]models.CandidateSummary)
	for rows.Next() {
		var postID string
		var c models.CandidateSummary
		if err := rows.Scan(&postID, &c.ID, &c.Name, &c.Grade, &c.Manifesto, &c.PhotoURL, &c.LogoURL); err != nil {
			return nil, fmt.Errorf("failed to scan ballot candidate: %w", err)
		}
		byPost[postID] = append(byPost[postID], c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ballot candidates: %w", err)
	}

	ballot := make([]models.BallotPost, 0, len(posts))
	for _, p := range posts {
		candidates := byPost[p.ID]
		if candidates == nil {
			candidates = []models.CandidateSummary{}
		}
		ballot = append(ballot, models.BallotPost{Post: p, Candidates: candidates})
	}
	return ballot, nil
}

// IsCandidateOnBallot reports whether candidateID may be selected for postID in electionID
func (r *Resolver) IsCandidateOnBallot(ctx context.Context, electionID, postID, candidateID string) (bool, error) {
	var n int
	err := r.q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM candidate_on_ballot
		WHERE election_id = $1 AND post_id = $2 AND candidate_id = $3
	`, electionID, postID, candidateID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check ballot placement: %w", err)
	}
	return n > 0, nil
}

// Assign places a candidate on the ballot for a post. Placing the same
// candidate twice is a no-op; created reports whether a row was added.
func (r *Resolver) Assign(ctx context.Context, electionID, postID, candidateID string) (bool, error) {
	post, err := r.Post(ctx, electionID, postID)
	if err != nil {
		return false, err
	}

	var grade string
	err = r.q.QueryRowContext(ctx, `SELECT grade FROM candidate WHERE id = $1`, candidateID).Scan(&grade)
	if errors.Is(err, sql.ErrNoRows) {
		return false, apperr.New(apperr.KindNotFound, "Candidate not found")
	}
	if err != nil {
		return false, fmt.Errorf("failed to load candidate: %w", err)
	}

	if !GradeEligible(post, grade) {
		return false, apperr.New(apperr.KindForbidden, "Candidate's grade is not eligible for this post")
	}

	res, err := r.q.ExecContext(ctx, `
		INSERT INTO candidate_on_ballot (election_id, post_id, candidate_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (election_id, post_id, candidate_id) DO NOTHING
	`, electionID, postID, candidateID, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("failed to assign candidate: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n == 1, nil
}

// Remove takes a candidate off the ballot for a post
func (r *Resolver) Remove(ctx context.Context, electionID, postID, candidateID string) error {
	res, err := r.q.ExecContext(ctx, `
		DELETE FROM candidate_on_ballot
		WHERE election_id = $1 AND post_id = $2 AND candidate_id = $3
	`, electionID, postID, candidateID)
	if err != nil {
		return fmt.Errorf("failed to remove candidate: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return apperr.New(apperr.KindNotFound, "Candidate is not on the ballot for this post")
	}
	return nil
}

// Results tallies votes per candidate on the ballot, grouped by post name
// with the leading candidate first.
func (r *Resolver) Results(ctx context.Context, electionID string) ([]models.ResultRow, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT p.id, p.name, c.id, c.name, c.photo_url, c.logo_url, COUNT(v.id) AS votes
		FROM candidate_on_ballot cob
		JOIN post p ON p.id = cob.post_id
		JOIN candidate c ON c.id = cob.candidate_id
		LEFT JOIN vote v
		       ON v.election_id = cob.election_id
		      AND v.post_id = cob.post_id
		      AND v.candidate_id = cob.candidate_id
		WHERE cob.election_id = $1
		GROUP BY p.id, p.name, c.id, c.name, c.photo_url, c.logo_url
		ORDER BY p.name, votes DESC, c.name
	`, electionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	results := []models.ResultRow{}
	for rows.Next() {
		var row models.ResultRow
		if err := rows.Scan(&row.PostID, &row.PostName, &row.CandidateID, &row.CandidateName,
			&row.PhotoURL, &row.LogoURL, &row.Votes); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate results: %w", err)
	}
	return results, nil
}

// Post returns the post if it belongs to the election, NotFound otherwise
func (r *Resolver) Post(ctx context.Context, electionID, postID string) (models.Post, error) {
	var p models.Post
	var grades string
	err := r.q.QueryRowContext(ctx, `
		SELECT id, election_id, name, description, is_mandatory, eligible_grades, created_at
		FROM post WHERE id = $1 AND election_id = $2
	`, postID, electionID).Scan(&p.ID, &p.ElectionID, &p.Name, &p.Description, &p.IsMandatory, &grades, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return p, apperr.New(apperr.KindNotFound, "Post not found in this election")
	}
	if err != nil {
		return p, fmt.Errorf("failed to load post: %w", err)
	}
	p.EligibleGrades = splitGrades(grades)
	return p, nil
}

// GradeEligible reports whether a candidate in grade may stand for post.
// An empty grade list leaves the post unrestricted.
func GradeEligible(post models.Post, grade string) bool {
	if len(post.EligibleGrades) == 0 {
		return true
	}
	grade = strings.TrimSpace(grade)
	for _, g := range post.EligibleGrades {
		if strings.EqualFold(strings.TrimSpace(g), grade) {
			return true
		}
	}
	return false
}

// NormalizeGrades trims each grade and drops empty entries
func NormalizeGrades(grades []string) []string {
	out := []string{}
	for _, g := range grades {
		g = strings.TrimSpace(strings.ReplaceAll(g, ",", ""))
		if g != "" {
			out = append(out, g)
		}
	}
	return out
}

// JoinGrades encodes a grade list for storage
func JoinGrades(grades []string) string {
	return strings.Join(NormalizeGrades(grades), ",")
}

func splitGrades(s string) []string {
	if s == "" {
		return []string{}
	}
	return NormalizeGrades(strings.Split(s, ","))
}
