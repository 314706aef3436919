// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the campus-ballot API server.

campus-ballot runs school elections: administrators set up elections, posts
and the candidates on each ballot, either directly or by approving a
candidate's registration; students receive a one-time six-digit
voting token per election and cast one ballot with it.

# Starting the Server

Configuration comes from environment variables (optionally from a .env file)
or CLI flags:

	DATABASE_URL="file:ballot.db?_pragma=foreign_keys(1)&_time_format=sqlite" JWT_SECRET=... go run .

	go run . -t postgres -d "postgres://..." -jwt-secret ...

# Configuration

Required settings:

  - DATABASE_URL (-d): database connection string
  - JWT_SECRET (-jwt-secret): HS256 key for bearer tokens

Optional settings:

  - PORT (-p): server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite, postgres or pgx (default: sqlite)
  - LOG_LEVEL (-log-level): debug, info, warn, error (default: info)
  - APP_ENV (-env): dev or prod; prod switches to JSON logs
  - SENTRY_DSN: error reporting, disabled when empty
  - SHUTDOWN_TIMEOUT: graceful shutdown budget (default: 10s)

Migrations run at startup.

# Architecture

  - handlers: HTTP request handlers (elections, students, admin)
  - router: Route definitions using Go 1.22+ routing
  - middleware: logging, recovery, authentication, CORS, JSON helpers
  - ballot: the ballot-casting transaction
  - tokens: voting token issuance and consumption
  - roster: posts, ballot placements and results
  - registrations: candidate applications and their review
  - gate: election activity window
  - auth: bearer principals and voting code generation
  - apperr: error kinds and their HTTP statuses
  - db: drivers, migrations, transactions
  - cliparse, logging, metrics, observability: configuration and operations

See package documentation for each component.
*/
package main
