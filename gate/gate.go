// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package gate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/danielhkuo/campus-ballot/apperr"
	"github.com/danielhkuo/campus-ballot/db"
	"github.com/danielhkuo/campus-ballot/models"
)

const electionColumns = `id, name, description, start_date, end_date, is_active, created_at`

// IsOpen reports whether e accepts token requests and ballots at now.
// Both window bounds are inclusive.
func IsOpen(e models.Election, now time.Time) bool {
	return e.IsActive && !now.Before(e.StartDate) && !now.After(e.EndDate)
}

// Check loads the election and rejects it unless it is open at now
func Check(ctx context.Context, q db.Querier, electionID string, now time.Time) (models.Election, error) {
	e, err := Load(ctx, q, electionID)
	if err != nil {
		return models.Election{}, err
	}
	if !IsOpen(e, now) {
		return e, apperr.New(apperr.KindElectionNotActive, "This election is not currently accepting votes")
	}
	return e, nil
}

// Load returns the election or a NotFound error
func Load(ctx context.Context, q db.Querier, electionID string) (models.Election, error) {
	row := q.QueryRowContext(ctx, `SELECT `+electionColumns+` FROM election WHERE id = $1`, electionID)

	e, err := scanElection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Election{}, apperr.New(apperr.KindNotFound, "Election not found")
	}
	if err != nil {
		return models.Election{}, fmt.Errorf("failed to load election: %w", err)
	}
	return e, nil
}

// List returns elections newest first. With openOnly set, only elections open
// at now are returned.
func List(ctx context.Context, q db.Querier, openOnly bool, now time.Time) ([]models.Election, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+electionColumns+` FROM election ORDER BY start_date DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query elections: %w", err)
	}
	defer rows.Close()

	elections := []models.Election{}
	for rows.Next() {
		e, err := scanElection(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan election: %w", err)
		}
		if openOnly && !IsOpen(e, now) {
			continue
		}
		elections = append(elections, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate elections: %w", err)
	}
	return elections, nil
}

// SetActive flips the election's active flag
func SetActive(ctx context.Context, q db.Querier, electionID string, active bool) (models.Election, error) {
	res, err := q.ExecContext(ctx, `UPDATE election SET is_active = $1 WHERE id = $2`, active, electionID)
	if err != nil {
		return models.Election{}, fmt.Errorf("failed to update election: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.Election{}, apperr.New(apperr.KindNotFound, "Election not found")
	}
	return Load(ctx, q, electionID)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanElection(s scanner) (models.Election, error) {
	var e models.Election
	err := s.Scan(&e.ID, &e.Name, &e.Description, &e.StartDate, &e.EndDate, &e.IsActive, &e.CreatedAt)
	return e, err
}
