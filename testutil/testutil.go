// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/campus-ballot/auth"
	"github.com/danielhkuo/campus-ballot/cliparse"
	"github.com/danielhkuo/campus-ballot/db"
)

// TestJWTSecret signs bearer tokens in tests
const TestJWTSecret = "test-jwt-secret"

// SetupTestDB creates a fresh in-memory SQLite database with all migrations applied.
// Each call gets its own database, so tests can run in parallel.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)&_time_format=sqlite", uuid.NewString())
	conn, err := db.Open(context.Background(), db.TypeSQLite, dsn)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if _, err := db.Migrate(context.Background(), conn, db.TypeSQLite); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:            3318,
		DatabaseURL:     "file::memory:",
		DatabaseType:    db.TypeSQLite,
		JWTSecret:       TestJWTSecret,
		LogLevel:        "debug",
		Env:             "dev",
		ShutdownTimeout: time.Second,
	}
}

// ElectionOpts controls the fixture created by CreateTestElection
type ElectionOpts struct {
	Active bool
	Start  time.Time
	End    time.Time
}

// OpenElection is an active election whose window contains now
func OpenElection() ElectionOpts {
	now := time.Now().UTC()
	return ElectionOpts{Active: true, Start: now.Add(-time.Hour), End: now.Add(time.Hour)}
}

// CreateTestElection inserts an election and returns its ID
func CreateTestElection(t *testing.T, conn *sql.DB, opts ElectionOpts) string {
	t.Helper()

	id := uuid.NewString()
	_, err := conn.Exec(`
		INSERT INTO election (id, name, description, start_date, end_date, is_active, created_at)
		VALUES ($1, $2, 'A test election', $3, $4, $5, $6)
	`, id, "Election "+id[:8], opts.Start.UTC(), opts.End.UTC(), opts.Active, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test election: %v", err)
	}
	return id
}

// CreateTestPost inserts a post. Grades restrict eligibility when given.
func CreateTestPost(t *testing.T, conn *sql.DB, electionID, name string, grades ...string) string {
	t.Helper()

	id := uuid.NewString()
	// Offset created_at so creation order is stable within a test
	_, err := conn.Exec(`
		INSERT INTO post (id, election_id, name, description, is_mandatory, eligible_grades, created_at)
		VALUES ($1, $2, $3, '', TRUE, $4, $5)
	`, id, electionID, name, strings.Join(grades, ","), nextStamp())
	if err != nil {
		t.Fatalf("Failed to create test post: %v", err)
	}
	return id
}

// CreateTestStudent inserts a student and returns its ID
func CreateTestStudent(t *testing.T, conn *sql.DB, grade string) string {
	t.Helper()

	id := uuid.NewString()
	_, err := conn.Exec(`
		INSERT INTO student (id, name, username, grade, has_voted, created_at)
		VALUES ($1, $2, $3, $4, FALSE, $5)
	`, id, "Student "+id[:8], "stu-"+id, grade, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test student: %v", err)
	}
	return id
}

// CreateTestCandidate inserts a candidate and returns its ID
func CreateTestCandidate(t *testing.T, conn *sql.DB, name, grade string) string {
	t.Helper()

	id := uuid.NewString()
	_, err := conn.Exec(`
		INSERT INTO candidate (id, name, username, grade, manifesto, photo_url, logo_url, created_at)
		VALUES ($1, $2, $3, $4, 'Vote for me', '', '', $5)
	`, id, name, "cand-"+id, grade, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test candidate: %v", err)
	}
	return id
}

// AssignTestCandidate places a candidate on the ballot for a post
func AssignTestCandidate(t *testing.T, conn *sql.DB, electionID, postID, candidateID string) {
	t.Helper()

	_, err := conn.Exec(`
		INSERT INTO candidate_on_ballot (election_id, post_id, candidate_id, created_at)
		VALUES ($1, $2, $3, $4)
	`, electionID, postID, candidateID, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to assign test candidate: %v", err)
	}
}

// CreateTestToken inserts an unused voting token with the given code
func CreateTestToken(t *testing.T, conn *sql.DB, studentID, electionID, code string) string {
	t.Helper()

	id := uuid.NewString()
	_, err := conn.Exec(`
		INSERT INTO voting_token (id, student_id, election_id, code, is_used, created_at)
		VALUES ($1, $2, $3, $4, FALSE, $5)
	`, id, studentID, electionID, code, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test token: %v", err)
	}
	return id
}

// CountRows returns the number of rows in table matching where (may be empty)
func CountRows(t *testing.T, conn *sql.DB, table, where string, args ...any) int {
	t.Helper()

	query := "SELECT COUNT(*) FROM " + table
	if where != "" {
		query += " WHERE " + where
	}
	var n int
	if err := conn.QueryRow(query, args...).Scan(&n); err != nil {
		t.Fatalf("Failed to count %s: %v", table, err)
	}
	return n
}

// BearerFor returns an Authorization header map for p
func BearerFor(t *testing.T, p auth.Principal) map[string]string {
	t.Helper()

	token, err := auth.IssueToken(p, TestJWTSecret, time.Hour, time.Now())
	if err != nil {
		t.Fatalf("Failed to issue test JWT: %v", err)
	}
	return map[string]string{"Authorization": "Bearer " + token}
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}

var (
	stampBase = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	stampSeq  atomic.Int64
)

func nextStamp() time.Time {
	return stampBase.Add(time.Duration(stampSeq.Add(1)) * time.Second)
}
