package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattn/go-sqlite3"
)

type SQLiteRepository struct {
	sqlStore
	dbPath string
}

func NewSQLiteRepository(dbPath string) *SQLiteRepository {
	return &SQLiteRepository{
		sqlStore: sqlStore{mapError: mapSQLiteError},
		dbPath:   dbPath,
	}
}

func (r *SQLiteRepository) Init(ctx context.Context) error {
	if dir := filepath.Dir(r.dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create users db directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", r.dbPath+"?_busy_timeout=5000")
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
			verified INTEGER NOT NULL DEFAULT 0,
			generated_count INTEGER NOT NULL DEFAULT 0,
			last_used TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`},
	})
}

func mapSQLiteError(err error) error {
	if err == nil {
		return nil
	}
	var se sqlite3.Error
	if errors.As(err, &se) {
		if se.ExtendedCode == sqlite3.ErrConstraintUnique || se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey {
			return fmt.Errorf("%w: %v", ErrDuplicateKey, err)
		}
	}
	return mapNoRows(err)
}
