// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/danielhkuo/campus-ballot/cliparse"
	"github.com/danielhkuo/campus-ballot/handlers"
	"github.com/danielhkuo/campus-ballot/metrics"
	"github.com/danielhkuo/campus-ballot/middleware"
	"github.com/danielhkuo/campus-ballot/models"
)

func NewRouter(db *sql.DB, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	electionHandler := handlers.NewElectionHandler(db, cfg)
	studentHandler := handlers.NewStudentHandler(db)
	adminHandler := handlers.NewAdminHandler(db, cfg)
	registrationHandler := handlers.NewRegistrationHandler(db)

	students := middleware.Authenticate(cfg.JWTSecret, models.RoleStudent)
	admins := middleware.Authenticate(cfg.JWTSecret, models.RoleAdmin)
	candidates := middleware.Authenticate(cfg.JWTSecret, models.RoleCandidate)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 800*time.Millisecond)
		defer cancel()

		start := time.Now()
		if err := db.PingContext(ctx); err != nil {
			zap.L().Warn("health check failed", zap.Error(err))
			middleware.ErrorResponse(w, http.StatusServiceUnavailable, "Database unavailable")
			return
		}
		metrics.ObserveDBPing(time.Since(start))

		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("GET /metrics", metrics.Handler())

	// Elections (public reads; ballot and results check the caller inside View)
	mux.HandleFunc("GET /elections", middleware.WithLogging(electionHandler.ListElections))
	mux.HandleFunc("GET /elections/{id}", middleware.WithLogging(electionHandler.GetElection))
	// One wildcard route for posts, ballot and results: literal GET /elections/{id}/posts
	// would conflict with GET /elections/tokens/{code} (both match /elections/tokens/posts)
	mux.HandleFunc("GET /elections/{id}/{view}", middleware.WithLogging(electionHandler.View))
	mux.HandleFunc("GET /elections/tokens/{code}", middleware.WithLogging(electionHandler.ValidateToken))

	// Voting (students)
	mux.HandleFunc("POST /elections/{id}/token", middleware.WithLogging(students(electionHandler.RequestToken)))
	mux.HandleFunc("POST /elections/{id}/cast", middleware.WithLogging(students(electionHandler.CastBallot)))
	mux.HandleFunc("GET /students/me/tokens", middleware.WithLogging(students(studentHandler.MyTokens)))

	// Candidate registration
	mux.HandleFunc("POST /elections/{id}/registrations", middleware.WithLogging(candidates(registrationHandler.Register)))
	mux.HandleFunc("GET /candidates/me/registrations", middleware.WithLogging(candidates(registrationHandler.MyRegistrations)))

	// Administration
	mux.HandleFunc("POST /admin/elections", middleware.WithLogging(admins(adminHandler.CreateElection)))
	mux.HandleFunc("PATCH /admin/elections/{id}/active", middleware.WithLogging(admins(adminHandler.SetElectionActive)))
	mux.HandleFunc("POST /admin/elections/{id}/posts", middleware.WithLogging(admins(adminHandler.CreatePost)))
	mux.HandleFunc("POST /admin/elections/{id}/ballot", middleware.WithLogging(admins(adminHandler.AssignCandidate)))
	mux.HandleFunc("DELETE /admin/elections/{id}/ballot/{postId}/{candidateId}", middleware.WithLogging(admins(adminHandler.RemoveCandidate)))
	mux.HandleFunc("POST /admin/students", middleware.WithLogging(admins(adminHandler.CreateStudent)))
	mux.HandleFunc("DELETE /admin/students/{studentId}", middleware.WithLogging(admins(adminHandler.DeleteStudent)))
	mux.HandleFunc("POST /admin/students/{studentId}/token", middleware.WithLogging(admins(adminHandler.IssueToken)))
	mux.HandleFunc("POST /admin/candidates", middleware.WithLogging(admins(adminHandler.CreateCandidate)))
	mux.HandleFunc("GET /admin/registrations", middleware.WithLogging(admins(registrationHandler.ListRegistrations)))
	mux.HandleFunc("POST /admin/registrations/{id}/approve", middleware.WithLogging(admins(registrationHandler.Approve)))
	mux.HandleFunc("POST /admin/registrations/{id}/reject", middleware.WithLogging(admins(registrationHandler.Reject)))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("campus-ballot API v1"))
	})

	return mux
}
