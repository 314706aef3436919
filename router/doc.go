// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the campus-ballot API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(db, cfg)

# Endpoints

Operational:

	GET /health  - Database ping
	GET /metrics - Prometheus metrics

Elections (public):

	GET /elections?active=true     - List elections, optionally only open ones
	GET /elections/{id}            - Election details
	GET /elections/{id}/posts      - Posts in creation order
	GET /elections/tokens/{code}   - Check an unused voting token

Elections (student or admin bearer token):

	GET /elections/{id}/ballot  - Posts with their candidates
	GET /elections/{id}/results - Vote tally

Voting (student bearer token):

	POST /elections/{id}/token - Request a voting token
	POST /elections/{id}/cast  - Cast a ballot
	GET  /students/me/tokens   - List own tokens

Registration (candidate bearer token):

	POST /elections/{id}/registrations {postId} - Apply to stand for a post
	GET  /candidates/me/registrations           - List own registrations

Administration (admin bearer token):

	POST   /admin/elections                                 - Create election, issue tokens
	PATCH  /admin/elections/{id}/active                     - Open or close election
	POST   /admin/elections/{id}/posts                      - Add post
	POST   /admin/elections/{id}/ballot                     - Place candidate on ballot
	DELETE /admin/elections/{id}/ballot/{postId}/{candidateId}
	POST   /admin/students                                  - Register student, issue tokens
	DELETE /admin/students/{studentId}
	POST   /admin/students/{studentId}/token                - Issue or re-surface token
	POST   /admin/candidates                                - Register candidate
	GET    /admin/registrations?status=&electionId=         - List registrations
	POST   /admin/registrations/{id}/approve                - Approve, place on ballot
	POST   /admin/registrations/{id}/reject

# Path Patterns

GET /elections/{id}/{view} serves posts, ballot and results. Registering
those as three literal patterns would conflict with GET /elections/tokens/{code}
under ServeMux precedence rules, so the handler dispatches on {view}.
*/
package router
