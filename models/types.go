package models

import "time"

// Role constants
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleStudent   Role = "student"
	RoleCandidate Role = "candidate"
)

// Token issuance sources (metrics label)
const (
	IssueSourceRequest = "request"
	IssueSourceAdmin   = "admin"
	IssueSourceFanOut  = "fanout"
)

// Registration statuses
type RegistrationStatus string

const (
	RegistrationPending  RegistrationStatus = "pending"
	RegistrationApproved RegistrationStatus = "approved"
	RegistrationRejected RegistrationStatus = "rejected"
)

// Request types

type CreateElectionRequest struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
	IsActive    bool      `json:"isActive"`
}

type SetElectionActiveRequest struct {
	IsActive *bool `json:"isActive"`
}

type CreatePostRequest struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	IsMandatory    *bool    `json:"isMandatory"`
	EligibleGrades []string `json:"eligibleGrades"`
}

type CreateStudentRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Grade    string `json:"grade"`
}

type CreateCandidateRequest struct {
	Name      string `json:"name"`
	Username  string `json:"username"`
	Grade     string `json:"grade"`
	Manifesto string `json:"manifesto"`
	PhotoURL  string `json:"photoUrl"`
	LogoURL   string `json:"logoUrl"`
}

type AssignCandidateRequest struct {
	PostID      string `json:"postId"`
	CandidateID string `json:"candidateId"`
}

type RegisterForPostRequest struct {
	PostID string `json:"postId"`
}

type ReviewRegistrationRequest struct {
	Message string `json:"message"`
}

type IssueTokenRequest struct {
	ElectionID string `json:"electionId"`
}

type Selection struct {
	PostID      string `json:"postId"`
	CandidateID string `json:"candidateId"`
}

type CastBallotRequest struct {
	Token      string      `json:"token"`
	Selections []Selection `json:"selections"`
}

// Response types

type MessageResponse struct {
	Message string `json:"message"`
}

type FanOutResponse struct {
	TokensIssued int `json:"tokensIssued"`
}

type CreateElectionResponse struct {
	Election
	FanOutResponse
}

type CreateStudentResponse struct {
	Student
	FanOutResponse
}

type RegistrationResponse struct {
	Message      string       `json:"message"`
	Registration Registration `json:"registration"`
}

// Domain types

type Election struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Post struct {
	ID             string    `json:"id"`
	ElectionID     string    `json:"election"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	IsMandatory    bool      `json:"isMandatory"`
	EligibleGrades []string  `json:"eligibleGrades"`
	CreatedAt      time.Time `json:"createdAt"`
}

type Student struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Username  string    `json:"username"`
	Grade     string    `json:"grade"`
	HasVoted  bool      `json:"hasVoted"`
	CreatedAt time.Time `json:"createdAt"`
}

type Candidate struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Username  string    `json:"username"`
	Grade     string    `json:"grade"`
	Manifesto string    `json:"manifesto"`
	PhotoURL  string    `json:"photoUrl"`
	LogoURL   string    `json:"logoUrl"`
	CreatedAt time.Time `json:"createdAt"`
}

// CandidateSummary is a candidate as it appears on a ballot
type CandidateSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Grade     string `json:"grade"`
	Manifesto string `json:"manifesto"`
	PhotoURL  string `json:"photoUrl"`
	LogoURL   string `json:"logoUrl"`
}

type BallotPost struct {
	Post
	Candidates []CandidateSummary `json:"candidates"`
}

// VotingToken is the one-time code authorizing one student to cast one ballot in one election.
// Token is always exactly six ASCII digits.
type VotingToken struct {
	ID         string     `json:"id"`
	StudentID  string     `json:"student"`
	ElectionID string     `json:"election"`
	Token      string     `json:"token"`
	IsUsed     bool       `json:"isUsed"`
	CreatedAt  time.Time  `json:"createdAt"`
	UsedAt     *time.Time `json:"usedAt,omitempty"`
}

// StudentToken is a token listed for its owner, with the election window.
// HasVoted is per election, unlike Student.HasVoted.
type StudentToken struct {
	VotingToken
	ElectionName string    `json:"electionName"`
	StartDate    time.Time `json:"startDate"`
	EndDate      time.Time `json:"endDate"`
	HasVoted     bool      `json:"hasVoted"`
}

// Registration is a candidate's request to stand for a post. Approval places
// the candidate on the ballot.
type Registration struct {
	ID          string             `json:"id"`
	CandidateID string             `json:"candidate"`
	ElectionID  string             `json:"election"`
	PostID      string             `json:"post"`
	Status      RegistrationStatus `json:"status"`
	Message     string             `json:"message"`
	ReviewedBy  string             `json:"reviewedBy,omitempty"`
	ReviewedAt  *time.Time         `json:"reviewedAt,omitempty"`
	CreatedAt   time.Time          `json:"createdAt"`
}

// RegistrationDetail is a registration listed with the names it refers to
type RegistrationDetail struct {
	Registration
	CandidateName  string `json:"candidateName"`
	CandidateGrade string `json:"candidateGrade"`
	ElectionName   string `json:"electionName"`
	PostName       string `json:"postName"`
}

type Vote struct {
	ID          string    `json:"id"`
	StudentID   string    `json:"student"`
	ElectionID  string    `json:"election"`
	PostID      string    `json:"post"`
	CandidateID string    `json:"candidate"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ResultRow is the vote tally for one candidate on one post
type ResultRow struct {
	PostID        string `json:"postId"`
	PostName      string `json:"postName"`
	CandidateID   string `json:"candidateId"`
	CandidateName string `json:"candidateName"`
	PhotoURL      string `json:"photoUrl"`
	LogoURL       string `json:"logoUrl"`
	Votes         int    `json:"votes"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message,omitempty"`
}
