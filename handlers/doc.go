// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the campus-ballot API.

# Handler Types

Each handler is a struct with its dependencies:

  - ElectionHandler: election reads, token requests, ballot casting
  - StudentHandler: a student's own tokens
  - AdminHandler: elections, posts, students, candidates, ballot placement, token issuance
  - RegistrationHandler: candidate registrations and their admin review

	electionHandler := handlers.NewElectionHandler(db, cfg)

# Callers

Routes that need a caller are wrapped in middleware.Authenticate by the
router. Handlers read the caller with middleware.PrincipalFrom and check the
variant they need:

	p, _ := middleware.PrincipalFrom(r.Context())
	student, ok := p.(auth.Student)

# Errors

Domain failures are *apperr.Error values and are written with
middleware.WriteError, which picks the status from the error kind. Handlers do
not choose status codes for domain errors themselves.

# Token Issuance

Token requests, admin issuance and the fan-out after creating an election or
student all go through tokens.Store.IssueIfAbsent. A newly created token is
answered with 201; an existing one with 200 and the same code.

# Casting

	POST /elections/{id}/cast {"token":"042917","selections":[{"postId":"...","candidateId":"..."}]}

CastBallot hands the request to ballot.Engine and answers 200 with a message
on success.
*/
package handlers
