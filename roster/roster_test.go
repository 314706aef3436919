package roster

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/campus-ballot/apperr"
	"github.com/danielhkuo/campus-ballot/models"
	"github.com/danielhkuo/campus-ballot/testutil"
)

func TestGradeEligible(t *testing.T) {
	tests := []struct {
		name   string
		grades []string
		grade  string
		want   bool
	}{
		{"unrestricted", nil, "9", true},
		{"exact", []string{"11", "12"}, "12", true},
		{"case insensitive", []string{"Grade 12"}, "grade 12", true},
		{"trimmed", []string{" 12 "}, "12 ", true},
		{"not listed", []string{"11", "12"}, "10", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			post := models.Post{EligibleGrades: tt.grades}
			assert.Equal(t, tt.want, GradeEligible(post, tt.grade))
		})
	}
}

func TestNormalizeGrades(t *testing.T) {
	assert.Equal(t, []string{"10", "11"}, NormalizeGrades([]string{" 10", "", "  ", "11 "}))
	assert.Equal(t, []string{}, NormalizeGrades(nil))
	assert.Equal(t, "10,11", JoinGrades([]string{"10", " 11"}))
}

func TestPostsAndBallot(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	ctx := context.Background()
	r := New(conn)

	electionID := testutil.CreateTestElection(t, conn, testutil.OpenElection())
	president := testutil.CreateTestPost(t, conn, electionID, "President")
	secretary := testutil.CreateTestPost(t, conn, electionID, "Secretary", "11", "12")
	treasurer := testutil.CreateTestPost(t, conn, electionID, "Treasurer")

	alice := testutil.CreateTestCandidate(t, conn, "Alice", "12")
	bob := testutil.CreateTestCandidate(t, conn, "Bob", "11")
	testutil.AssignTestCandidate(t, conn, electionID, president, alice)
	testutil.AssignTestCandidate(t, conn, electionID, president, bob)
	testutil.AssignTestCandidate(t, conn, electionID, secretary, bob)

	posts, err := r.PostsFor(ctx, electionID)
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, []string{president, secretary, treasurer}, []string{posts[0].ID, posts[1].ID, posts[2].ID})
	assert.Equal(t, []string{"11", "12"}, posts[1].EligibleGrades)
	assert.Equal(t, []string{}, posts[0].EligibleGrades)

	ballot, err := r.BallotFor(ctx, electionID)
	require.NoError(t, err)
	require.Len(t, ballot, 3)
	require.Len(t, ballot[0].Candidates, 2)
	assert.Equal(t, "Alice", ballot[0].Candidates[0].Name)
	assert.Equal(t, "Vote for me", ballot[0].Candidates[0].Manifesto)
	assert.Len(t, ballot[1].Candidates, 1)
	assert.NotNil(t, ballot[2].Candidates)
	assert.Empty(t, ballot[2].Candidates)

	ok, err := r.IsCandidateOnBallot(ctx, electionID, president, alice)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.IsCandidateOnBallot(ctx, electionID, secretary, alice)
	require.NoError(t, err)
	assert.False(t, ok)

	// Unknown election has no posts rather than an error
	posts, err = r.PostsFor(ctx, "no-such-election")
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestAssignAndRemove(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	ctx := context.Background()
	r := New(conn)

	electionID := testutil.CreateTestElection(t, conn, testutil.OpenElection())
	otherElection := testutil.CreateTestElection(t, conn, testutil.OpenElection())
	seniors := testutil.CreateTestPost(t, conn, electionID, "Head Prefect", "12")
	junior := testutil.CreateTestCandidate(t, conn, "Junior", "9")
	senior := testutil.CreateTestCandidate(t, conn, "Senior", "12")

	created, err := r.Assign(ctx, electionID, seniors, senior)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = r.Assign(ctx, electionID, seniors, senior)
	require.NoError(t, err)
	assert.False(t, created, "second placement is a no-op")

	tests := []struct {
		name      string
		election  string
		post      string
		candidate string
		kind      apperr.Kind
	}{
		{"ineligible grade", electionID, seniors, junior, apperr.KindForbidden},
		{"post in other election", otherElection, seniors, senior, apperr.KindNotFound},
		{"unknown candidate", electionID, seniors, "nobody", apperr.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Assign(ctx, tt.election, tt.post, tt.candidate)
			assert.Equal(t, tt.kind, apperr.KindOf(err))
		})
	}

	require.NoError(t, r.Remove(ctx, electionID, seniors, senior))
	assert.True(t, apperr.Is(r.Remove(ctx, electionID, seniors, senior), apperr.KindNotFound))
}

func TestResults(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	ctx := context.Background()
	r := New(conn)

	electionID := testutil.CreateTestElection(t, conn, testutil.OpenElection())
	post := testutil.CreateTestPost(t, conn, electionID, "President")
	alice := testutil.CreateTestCandidate(t, conn, "Alice", "12")
	bob := testutil.CreateTestCandidate(t, conn, "Bob", "12")
	testutil.AssignTestCandidate(t, conn, electionID, post, alice)
	testutil.AssignTestCandidate(t, conn, electionID, post, bob)

	for i := 0; i < 2; i++ {
		student := testutil.CreateTestStudent(t, conn, "10")
		_, err := conn.Exec(`
			INSERT INTO vote (id, student_id, election_id, post_id, candidate_id, created_at)
			VALUES ($1, $2, $3, $4, $5, CURRENT_TIMESTAMP)
		`, student+"-v", student, electionID, post, bob)
		require.NoError(t, err)
	}

	results, err := r.Results(ctx, electionID)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Bob", results[0].CandidateName)
	assert.Equal(t, 2, results[0].Votes)
	assert.Equal(t, "Alice", results[1].CandidateName)
	assert.Equal(t, 0, results[1].Votes)
	assert.Equal(t, "President", results[0].PostName)
}
