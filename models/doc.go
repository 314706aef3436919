// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - CreateElectionRequest: name, description, startDate, endDate
  - SetElectionActiveRequest: isActive
  - CreatePostRequest: name, description, isMandatory, eligibleGrades
  - CreateStudentRequest, CreateCandidateRequest: profile fields
  - AssignCandidateRequest: postId, candidateId
  - IssueTokenRequest: electionId
  - CastBallotRequest: token, selections [{postId, candidateId}]
  - RegisterForPostRequest: postId
  - ReviewRegistrationRequest: optional message

# Response Types

  - MessageResponse: message (cast acknowledgement)
  - CreateElectionResponse, CreateStudentResponse: created record plus tokensIssued
  - RegistrationResponse: message plus the registration
  - ErrorResponse: error, kind, message

# Domain Types

  - Election: activity window and active flag
  - Post: electable position, optional eligible grades
  - Student, Candidate: role profiles
  - CandidateSummary, BallotPost: ballot view
  - VotingToken: one per (student, election), six-digit code
  - StudentToken: token with election window and per-election hasVoted
  - Registration, RegistrationDetail: pending, approved or rejected application
  - Vote: one per (student, election, post)
  - ResultRow: tally per (post, candidate)

# Roles

	RoleAdmin     = "admin"
	RoleStudent   = "student"
	RoleCandidate = "candidate"
*/
package models
