// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Logs completion with method, path, status and duration_ms through the global
zap logger, and records the request duration histogram.

# Recovery

Recover converts a handler panic into a 500 response and reports it to Sentry:

	server := http.Server{
		Handler: middleware.CORS(middleware.Recover(mux)),
	}

# Authentication

Authenticate verifies the bearer JWT and, optionally, the caller's role:

	students := middleware.Authenticate(cfg.JWTSecret, models.RoleStudent)
	mux.HandleFunc("POST /elections/{id}/cast", students(h.CastBallot))

Missing or invalid tokens get 401; a valid token with the wrong role gets 403.
Handlers read the caller with PrincipalFrom(r.Context()).

# JSON Helpers

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")
	middleware.WriteError(w, err) // status from apperr.Kind

WriteError is the only place domain errors become status codes. Internal
errors are logged and reported; the client sees a generic message.

# Client IP Extraction

	ip := middleware.GetClientIP(r)

Handles X-Forwarded-For and X-Real-IP.
*/
package middleware
