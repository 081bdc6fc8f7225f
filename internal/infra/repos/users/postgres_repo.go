package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

const pgUniqueViolation = "23505"

type PostgresRepository struct {
	sqlStore
	dsn string
}

func NewPostgresRepository(dsn string) *PostgresRepository {
	return &PostgresRepository{
		sqlStore: sqlStore{dollar: true, mapError: mapPostgresError},
		dsn:      strings.TrimSpace(dsn),
	}
}

func (r *PostgresRepository) Init(ctx context.Context) error {
	if r.dsn == "" {
		return fmt.Errorf("users db dsn is required")
	}
	db, err := sql.Open("postgres", r.dsn)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}
	return r.attach(ctx, db, []migration{
		{1, `
		CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			token TEXT NOT NULL UNIQUE,
			verified BOOLEAN NOT NULL DEFAULT FALSE,
			generated_count BIGINT NOT NULL DEFAULT 0 CHECK (generated_count >= 0),
			last_used TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)`},
	})
}

func mapPostgresError(err error) error {
	if err == nil {
		return nil
	}
	var pe *pq.Error
	if errors.As(err, &pe) && pe.Code == pgUniqueViolation {
		return fmt.Errorf("%w: %v", ErrDuplicateKey, err)
	}
	return mapNoRows(err)
}
