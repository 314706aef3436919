// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 3318)
  - DatabaseURL: Database connection string (required)
  - DatabaseType: sqlite, postgres or pgx (default: sqlite)
  - JWTSecret: Secret for bearer token signatures (required)
  - LogLevel: zap level (default: info)
  - Env: dev or prod, selects the zap encoder (default: dev)
  - SentryDSN: error reporting DSN (optional)
  - ShutdownTimeout: graceful shutdown budget (default: 10s)

# CLI Flags

	-p            Server port
	-d            Database URL
	-t            Database type
	-log-level    Log level
	-env          Environment
	-jwt-secret   JWT signing secret

# Environment Variables

Environment variables are read first with envconfig and become the flag
defaults, so CLI flags take precedence:

	PORT             → -p
	DATABASE_URL     → -d
	DATABASE_TYPE    → -t
	LOG_LEVEL        → -log-level
	APP_ENV          → -env
	JWT_SECRET       → -jwt-secret
	SENTRY_DSN
	SHUTDOWN_TIMEOUT

main loads a .env file (if present) before calling ParseFlags.

# Validation

ParseFlags returns an error if:

  - DATABASE_URL is missing
  - JWT_SECRET is missing
  - DATABASE_TYPE is not a supported driver
  - PORT is not a valid port number
*/
package cliparse
