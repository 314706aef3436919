package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/campus-ballot/auth"
	"github.com/danielhkuo/campus-ballot/models"
	"github.com/danielhkuo/campus-ballot/testutil"
)

func TestRegister(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := NewRegistrationHandler(db)

	electionID := testutil.CreateTestElection(t, db, testutil.OpenElection())
	postID := testutil.CreateTestPost(t, db, electionID, "Head Prefect", "12")
	senior := testutil.CreateTestCandidate(t, db, "Grace", "12")
	junior := testutil.CreateTestCandidate(t, db, "Linus", "9")

	testCases := []struct {
		name       string
		principal  auth.Principal
		body       interface{}
		wantStatus int
		wantKind   string
	}{
		{"student", auth.Student{StudentID: "stu-1"}, models.RegisterForPostRequest{PostID: postID}, http.StatusForbidden, "Forbidden"},
		{"missing post", auth.Candidate{CandidateID: senior}, models.RegisterForPostRequest{}, http.StatusBadRequest, "ValidationError"},
		{"unknown post", auth.Candidate{CandidateID: senior}, models.RegisterForPostRequest{PostID: "nope"}, http.StatusNotFound, "NotFound"},
		{"ineligible grade", auth.Candidate{CandidateID: junior}, models.RegisterForPostRequest{PostID: postID}, http.StatusForbidden, "Forbidden"},
		{"invalid JSON", auth.Candidate{CandidateID: senior}, "not an object", http.StatusBadRequest, "ValidationError"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := asPrincipal(testutil.MakeRequest("POST", "/elections/"+electionID+"/registrations", tc.body, nil), tc.principal)
			req.SetPathValue("id", electionID)
			w := httptest.NewRecorder()
			handler.Register(w, req)

			testutil.AssertStatus(t, w, tc.wantStatus)
			var resp models.ErrorResponse
			testutil.AssertJSON(t, w, &resp)
			if resp.Kind != tc.wantKind {
				t.Errorf("Expected kind %s, got %s", tc.wantKind, resp.Kind)
			}
		})
	}

	req := asPrincipal(testutil.MakeRequest("POST", "/elections/"+electionID+"/registrations",
		models.RegisterForPostRequest{PostID: postID}, nil), auth.Candidate{CandidateID: senior})
	req.SetPathValue("id", electionID)
	w := httptest.NewRecorder()
	handler.Register(w, req)

	testutil.AssertStatus(t, w, http.StatusCreated)
	var resp models.RegistrationResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.Registration.Status != models.RegistrationPending || resp.Registration.CandidateID != senior {
		t.Errorf("Unexpected registration %+v", resp.Registration)
	}
	if n := testutil.CountRows(t, db, "candidate_on_ballot", ""); n != 0 {
		t.Errorf("Registration must not place the candidate before approval, got %d placements", n)
	}
}

func TestReviewRegistration(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := NewRegistrationHandler(db)

	electionID := testutil.CreateTestElection(t, db, testutil.OpenElection())
	postID := testutil.CreateTestPost(t, db, electionID, "President")
	grace := testutil.CreateTestCandidate(t, db, "Grace", "12")
	ada := testutil.CreateTestCandidate(t, db, "Ada", "12")

	submit := func(candidateID string) string {
		t.Helper()
		req := asPrincipal(testutil.MakeRequest("POST", "/elections/"+electionID+"/registrations",
			models.RegisterForPostRequest{PostID: postID}, nil), auth.Candidate{CandidateID: candidateID})
		req.SetPathValue("id", electionID)
		w := httptest.NewRecorder()
		handler.Register(w, req)
		testutil.AssertStatus(t, w, http.StatusCreated)

		var resp models.RegistrationResponse
		testutil.AssertJSON(t, w, &resp)
		return resp.Registration.ID
	}

	review := func(action func(http.ResponseWriter, *http.Request), id string, p auth.Principal, body interface{}) *httptest.ResponseRecorder {
		req := asPrincipal(testutil.MakeRequest("POST", "/admin/registrations/"+id, body, nil), p)
		req.SetPathValue("id", id)
		w := httptest.NewRecorder()
		action(w, req)
		return w
	}

	admin := auth.Admin{Username: "registrar"}
	graceReg := submit(grace)
	adaReg := submit(ada)

	w := review(handler.Approve, graceReg, auth.Candidate{CandidateID: grace}, nil)
	testutil.AssertStatus(t, w, http.StatusForbidden)

	w = review(handler.Approve, graceReg, admin, models.ReviewRegistrationRequest{Message: "Welcome aboard"})
	testutil.AssertStatus(t, w, http.StatusOK)
	var approved models.RegistrationResponse
	testutil.AssertJSON(t, w, &approved)
	if approved.Registration.Status != models.RegistrationApproved || approved.Registration.ReviewedBy != "registrar" {
		t.Errorf("Unexpected approval %+v", approved.Registration)
	}
	if n := testutil.CountRows(t, db, "candidate_on_ballot", "candidate_id = $1 AND post_id = $2", grace, postID); n != 1 {
		t.Errorf("Expected approved candidate on the ballot, got %d placements", n)
	}

	w = review(handler.Reject, graceReg, admin, nil)
	testutil.AssertStatus(t, w, http.StatusBadRequest)

	w = review(handler.Reject, adaReg, admin, nil)
	testutil.AssertStatus(t, w, http.StatusOK)
	if n := testutil.CountRows(t, db, "candidate_on_ballot", "candidate_id = $1", ada); n != 0 {
		t.Errorf("Rejected candidate must stay off the ballot, got %d placements", n)
	}

	w = review(handler.Approve, "missing", admin, nil)
	testutil.AssertStatus(t, w, http.StatusNotFound)

	listReq := asPrincipal(testutil.MakeRequest("GET", "/admin/registrations?status=rejected", nil, nil), admin)
	w = httptest.NewRecorder()
	handler.ListRegistrations(w, listReq)
	testutil.AssertStatus(t, w, http.StatusOK)
	var rejected []models.RegistrationDetail
	testutil.AssertJSON(t, w, &rejected)
	if len(rejected) != 1 || rejected[0].CandidateID != ada {
		t.Errorf("Expected Ada's rejected registration, got %+v", rejected)
	}

	badReq := asPrincipal(testutil.MakeRequest("GET", "/admin/registrations?status=withdrawn", nil, nil), admin)
	w = httptest.NewRecorder()
	handler.ListRegistrations(w, badReq)
	testutil.AssertStatus(t, w, http.StatusBadRequest)

	mineReq := asPrincipal(testutil.MakeRequest("GET", "/candidates/me/registrations", nil, nil), auth.Candidate{CandidateID: grace})
	w = httptest.NewRecorder()
	handler.MyRegistrations(w, mineReq)
	testutil.AssertStatus(t, w, http.StatusOK)
	var mine []models.RegistrationDetail
	testutil.AssertJSON(t, w, &mine)
	if len(mine) != 1 || mine[0].Status != models.RegistrationApproved {
		t.Errorf("Unexpected candidate registrations %+v", mine)
	}
}
