// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database connections, migrations and transaction helpers.

# Drivers

Open selects a database/sql driver from the configured type:

  - sqlite: modernc.org/sqlite (local development and tests)
  - postgres: github.com/lib/pq
  - pgx: github.com/jackc/pgx/v5/stdlib

All queries use $N placeholders, which every driver accepts.

# Migrations

Migrate applies the embedded goose migrations in db/migrations:

	if _, err := db.Migrate(ctx, conn, cfg.DatabaseType); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - goose records applied versions.

# Tables

  - election: activity window and active flag
  - post: positions per election
  - student, candidate: role profiles
  - candidate_on_ballot: (election, post, candidate) allow-list
  - voting_token: one per (student, election), unique six-digit code
  - vote: one per (student, election, post)
  - ballot_receipt: one per (student, election) after a successful cast
  - election_registration: candidate applications, at most one pending or approved per (candidate, election)

# Relationships

	election 1──* post
	election 1──* candidate_on_ballot *──1 candidate
	election 1──* election_registration *──1 candidate
	student  1──* voting_token *──1 election
	student  1──* vote
	student  1──* ballot_receipt

Deleting a student deletes the student's tokens, votes and receipts.

# Transactions

WithTx commits when the callback returns nil and rolls back otherwise:

	err := db.WithTx(ctx, conn, func(tx *sql.Tx) error {
		// ...
	})

IsUniqueViolation recognises unique and primary key violations from all
three drivers so callers can turn races into Conflict errors.
IsForeignKeyViolation does the same for references to missing rows.
*/
package db
