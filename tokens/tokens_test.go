package tokens

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/campus-ballot/apperr"
	"github.com/danielhkuo/campus-ballot/testutil"
)

func TestValidFormat(t *testing.T) {
	tests := []struct {
		code  string
		valid bool
	}{
		{"000123", true},
		{"999999", true},
		{"12345", false},
		{"1234567", false},
		{"12a456", false},
		{"", false},
		{" 12345", false},
		{"١٢٣٤٥٦", false}, // non-ASCII digits
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.valid, ValidFormat(tt.code))
		})
	}
}

func TestIssueIfAbsent(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	ctx := context.Background()
	store := NewStore(conn)

	electionID := testutil.CreateTestElection(t, conn, testutil.OpenElection())
	studentID := testutil.CreateTestStudent(t, conn, "10")

	first, created, err := store.IssueIfAbsent(ctx, studentID, electionID)
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, ValidFormat(first.Token))
	assert.False(t, first.IsUsed)
	assert.Equal(t, studentID, first.StudentID)
	assert.Equal(t, electionID, first.ElectionID)

	second, created, err := store.IssueIfAbsent(ctx, studentID, electionID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Token, second.Token)

	assert.Equal(t, 1, testutil.CountRows(t, conn, "voting_token", ""))
}

func TestIssueIfAbsentUnknownStudent(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	store := NewStore(conn)

	electionID := testutil.CreateTestElection(t, conn, testutil.OpenElection())

	_, created, err := store.IssueIfAbsent(context.Background(), "deleted-student", electionID)
	require.Error(t, err)
	assert.False(t, created)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.Equal(t, 0, testutil.CountRows(t, conn, "voting_token", ""))
}

func TestIssueIfAbsentRetriesOnCodeCollision(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	ctx := context.Background()

	electionID := testutil.CreateTestElection(t, conn, testutil.OpenElection())
	other := testutil.CreateTestStudent(t, conn, "10")
	studentID := testutil.CreateTestStudent(t, conn, "10")
	testutil.CreateTestToken(t, conn, other, electionID, "111111")

	t.Run("regenerates", func(t *testing.T) {
		codes := []string{"111111", "111111", "222222"}
		calls := 0
		store := NewStore(conn)
		store.generate = func() (string, error) {
			code := codes[calls]
			calls++
			return code, nil
		}

		tok, created, err := store.IssueIfAbsent(ctx, studentID, electionID)
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, "222222", tok.Token)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up", func(t *testing.T) {
		third := testutil.CreateTestStudent(t, conn, "10")
		calls := 0
		store := NewStore(conn)
		store.generate = func() (string, error) {
			calls++
			return "111111", nil
		}

		_, _, err := store.IssueIfAbsent(ctx, third, electionID)
		require.Error(t, err)
		assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
		assert.Equal(t, MaxIssueAttempts, calls)
	})
}

func TestIssueIfAbsentConcurrent(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	ctx := context.Background()

	electionID := testutil.CreateTestElection(t, conn, testutil.OpenElection())
	studentID := testutil.CreateTestStudent(t, conn, "10")

	const workers = 10
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		codes   = make(map[string]bool)
		created int
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok, ok, err := NewStore(conn).IssueIfAbsent(ctx, studentID, electionID)
			if err != nil {
				t.Errorf("IssueIfAbsent failed: %v", err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			codes[tok.Token] = true
			if ok {
				created++
			}
		}()
	}
	wg.Wait()

	assert.Len(t, codes, 1, "all callers must observe the same token")
	assert.Equal(t, 1, created)
	assert.Equal(t, 1, testutil.CountRows(t, conn, "voting_token", ""))
}

func TestLookupForCast(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	ctx := context.Background()
	store := NewStore(conn)

	electionID := testutil.CreateTestElection(t, conn, testutil.OpenElection())
	otherElection := testutil.CreateTestElection(t, conn, testutil.OpenElection())
	studentID := testutil.CreateTestStudent(t, conn, "10")
	otherStudent := testutil.CreateTestStudent(t, conn, "10")

	tokenID := testutil.CreateTestToken(t, conn, studentID, electionID, "123456")
	usedID := testutil.CreateTestToken(t, conn, studentID, otherElection, "654321")
	require.NoError(t, store.MarkUsed(ctx, usedID, time.Now()))

	tok, err := store.LookupForCast(ctx, "123456", studentID, electionID)
	require.NoError(t, err)
	assert.Equal(t, tokenID, tok.ID)

	tests := []struct {
		name     string
		code     string
		student  string
		election string
		kind     apperr.Kind
	}{
		{"unknown code", "000000", studentID, electionID, apperr.KindTokenInvalid},
		{"other student", "123456", otherStudent, electionID, apperr.KindTokenMismatch},
		{"other election", "123456", studentID, otherElection, apperr.KindTokenMismatch},
		{"already used", "654321", studentID, otherElection, apperr.KindTokenAlreadyUsed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.LookupForCast(ctx, tt.code, tt.student, tt.election)
			require.Error(t, err)
			assert.Equal(t, tt.kind, apperr.KindOf(err))
		})
	}
}

func TestMarkUsedIsCompareAndSet(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	ctx := context.Background()
	store := NewStore(conn)

	electionID := testutil.CreateTestElection(t, conn, testutil.OpenElection())
	studentID := testutil.CreateTestStudent(t, conn, "10")
	tokenID := testutil.CreateTestToken(t, conn, studentID, electionID, "123456")

	require.NoError(t, store.MarkUsed(ctx, tokenID, time.Now()))

	err := store.MarkUsed(ctx, tokenID, time.Now())
	assert.Equal(t, apperr.KindTokenAlreadyUsed, apperr.KindOf(err))

	tok, err := store.LookupForCast(ctx, "123456", studentID, electionID)
	assert.Equal(t, apperr.KindTokenAlreadyUsed, apperr.KindOf(err))
	assert.Empty(t, tok.ID)
}

func TestValidatePublic(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	ctx := context.Background()
	store := NewStore(conn)

	electionID := testutil.CreateTestElection(t, conn, testutil.OpenElection())
	studentID := testutil.CreateTestStudent(t, conn, "10")
	testutil.CreateTestToken(t, conn, studentID, electionID, "012345")
	usedID := testutil.CreateTestToken(t, conn, testutil.CreateTestStudent(t, conn, "10"), electionID, "543210")
	require.NoError(t, store.MarkUsed(ctx, usedID, time.Now()))

	tok, err := store.ValidatePublic(ctx, "012345")
	require.NoError(t, err)
	assert.Equal(t, studentID, tok.StudentID)
	assert.Equal(t, "012345", tok.Token)

	tests := []struct {
		name string
		code string
		kind apperr.Kind
	}{
		{"bad format", "12a456", apperr.KindTokenFormatInvalid},
		{"too short", "12345", apperr.KindTokenFormatInvalid},
		{"unknown", "999999", apperr.KindNotFound},
		{"used", "543210", apperr.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.ValidatePublic(ctx, tt.code)
			assert.Equal(t, tt.kind, apperr.KindOf(err))
		})
	}
}

func TestFanOutAndList(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	ctx := context.Background()
	store := NewStore(conn)

	s1 := testutil.CreateTestStudent(t, conn, "10")
	s2 := testutil.CreateTestStudent(t, conn, "11")
	e1 := testutil.CreateTestElection(t, conn, testutil.OpenElection())

	// s1 already holds a token for e1
	existing, _, err := store.IssueIfAbsent(ctx, s1, e1)
	require.NoError(t, err)

	n, err := store.FanOutElection(ctx, e1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	e2 := testutil.CreateTestElection(t, conn, testutil.OpenElection())
	s3 := testutil.CreateTestStudent(t, conn, "12")

	n, err = store.FanOutStudent(ctx, s3)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	list, err := store.ListForStudent(ctx, s1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, existing.Token, list[0].Token, "fan-out must not regenerate existing codes")
	assert.NotEmpty(t, list[0].ElectionName)

	list, err = store.ListForStudent(ctx, s3)
	require.NoError(t, err)
	require.Len(t, list, 2)
	elections := []string{list[0].ElectionID, list[1].ElectionID}
	assert.ElementsMatch(t, []string{e1, e2}, elections)

	list, err = store.ListForStudent(ctx, s2)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestListForStudentHasVotedIsPerElection(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	ctx := context.Background()
	store := NewStore(conn)

	studentID := testutil.CreateTestStudent(t, conn, "10")
	voted := testutil.CreateTestElection(t, conn, testutil.OpenElection())
	pending := testutil.CreateTestElection(t, conn, testutil.OpenElection())
	_, err := store.FanOutStudent(ctx, studentID)
	require.NoError(t, err)

	_, err = conn.ExecContext(ctx, `INSERT INTO ballot_receipt (student_id, election_id, cast_at) VALUES ($1, $2, $3)`,
		studentID, voted, time.Now().UTC())
	require.NoError(t, err)

	list, err := store.ListForStudent(ctx, studentID)
	require.NoError(t, err)
	require.Len(t, list, 2)

	byElection := map[string]bool{}
	for _, st := range list {
		byElection[st.ElectionID] = st.HasVoted
	}
	assert.True(t, byElection[voted])
	assert.False(t, byElection[pending])
}
