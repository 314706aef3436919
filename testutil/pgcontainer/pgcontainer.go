//go:build integration

// Package pgcontainer starts a throwaway PostgreSQL container with the
// campus-ballot schema applied. Requires Docker.
package pgcontainer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/danielhkuo/campus-ballot/db"
)

type Handle struct {
	DB     *sql.DB
	URL    string
	cancel func()
	stop   func(context.Context) error
}

func (h *Handle) Close() {
	if h.DB != nil {
		_ = h.DB.Close()
	}
	if h.stop != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = h.stop(ctx)
	}
	if h.cancel != nil {
		h.cancel()
	}
}

// Start runs postgres:17-alpine and connects with the given database type
// (db.TypePostgres or db.TypePgx).
func Start(ctx context.Context, dbType string) (*Handle, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)

	pg, err := postgres.RunContainer(ctx,
		tc.WithImage("postgres:17-alpine"),
		postgres.WithDatabase("ballot"),
		postgres.WithUsername("ballot"),
		postgres.WithPassword("ballot"),
	)
	if err != nil {
		cancel()
		return nil, err
	}

	fail := func(err error) (*Handle, error) {
		_ = pg.Terminate(context.Background())
		cancel()
		return nil, err
	}

	uri, err := pg.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return fail(err)
	}

	conn, err := waitReady(ctx, dbType, uri)
	if err != nil {
		return fail(err)
	}

	if _, err := db.Migrate(ctx, conn, dbType); err != nil {
		conn.Close()
		return fail(fmt.Errorf("migrate: %w", err))
	}

	return &Handle{
		DB:     conn,
		URL:    uri,
		cancel: cancel,
		stop:   pg.Terminate,
	}, nil
}

// The container reports ready before it accepts connections on the mapped port
func waitReady(ctx context.Context, dbType, uri string) (*sql.DB, error) {
	dead := time.Now().Add(20 * time.Second)
	for time.Now().Before(dead) {
		conn, err := db.Open(ctx, dbType, uri)
		if err == nil {
			return conn, nil
		}
		time.Sleep(200 * time.Millisecond)
	}
	return nil, errors.New("db not ready")
}
