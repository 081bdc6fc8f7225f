package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mmrzaf/mdgen/internal/domain"
)

const userColumns = `id, email, token, verified, generated_count, last_used, created_at`

// sqlStore holds the queries shared by the SQLite and PostgreSQL repositories.
// Queries are written with ? placeholders and rebound per dialect.
type sqlStore struct {
	db       *sql.DB
	dollar   bool
	mapError func(error) error
}

func (s *sqlStore) q(query string) string {
	if !s.dollar {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *sqlStore) Create(ctx context.Context, user *domain.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	} else if _, err := uuid.Parse(user.ID); err != nil {
		return fmt.Errorf("invalid user id %q: %w", user.ID, err)
	}

	query := `INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, s.q(query),
		user.ID, user.Email, user.Token, user.Verified, user.GeneratedCount,
		user.LastUsed.UTC().Format(time.RFC3339Nano), user.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	return s.mapError(err)
}

func (s *sqlStore) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	return s.getOne(ctx, "id", id)
}

func (s *sqlStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.getOne(ctx, "email", email)
}

func (s *sqlStore) GetByToken(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	return s.getOne(ctx, "token", token)
}

func (s *sqlStore) getOne(ctx context.Context, column, value string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = ?`

	var user domain.User
	var lastUsedStr, createdAtStr string
	err := s.db.QueryRowContext(ctx, s.q(query), value).Scan(
		&user.ID, &user.Email, &user.Token, &user.Verified, &user.GeneratedCount,
		&lastUsedStr, &createdAtStr,
	)
	if err != nil {
		return nil, s.mapError(err)
	}
	if user.LastUsed, err = parseTimestamp("last_used", lastUsedStr); err != nil {
		return nil, fmt.Errorf("user %s: %w", user.ID, err)
	}
	if user.CreatedAt, err = parseTimestamp("created_at", createdAtStr); err != nil {
		return nil, fmt.Errorf("user %s: %w", user.ID, err)
	}
	return &user, nil
}

func (s *sqlStore) MarkVerified(ctx context.Context, id string) error {
	return s.updateOne(ctx, id, `UPDATE users SET verified = ? WHERE id = ?`, true, id)
}

func (s *sqlStore) IncrementUsage(ctx context.Context, id string, at time.Time) error {
	return s.updateOne(ctx, id,
		`UPDATE users SET generated_count = generated_count + 1, last_used = ? WHERE id = ?`,
		at.UTC().Format(time.RFC3339Nano), id)
}

func (s *sqlStore) SetToken(ctx context.Context, id, token string) error {
	return s.updateOne(ctx, id, `UPDATE users SET token = ? WHERE id = ?`, token, id)
}

func (s *sqlStore) updateOne(ctx context.Context, id, query string, args ...any) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	res, err := s.db.ExecContext(ctx, s.q(query), args...)
	if err != nil {
		return s.mapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *sqlStore) Close(ctx context.Context) error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

type migration struct {
	v  int
	up string
}

// attach adopts db and brings its schema up to date. On failure db is closed
// and the store stays detached.
func (s *sqlStore) attach(ctx context.Context, db *sql.DB, migs []migration) error {
	s.db = db
	if err := s.applyMigrations(ctx, migs); err != nil {
		_ = db.Close()
		s.db = nil
		return err
	}
	return nil
}

// applyMigrations runs every migration newer than the recorded version.
func (s *sqlStore) applyMigrations(ctx context.Context, migs []migration) error {
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER PRIMARY KEY)`); err != nil {
		return err
	}
	var cur int
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&cur); err != nil {
		return err
	}
	for _, m := range migs {
		if cur >= m.v {
			continue
		}
		if _, err := s.db.ExecContext(ctx, m.up); err != nil {
			return fmt.Errorf("migration %d failed: %w", m.v, err)
		}
		if _, err := s.db.ExecContext(ctx, s.q(`INSERT INTO schema_migrations(version) VALUES (?)`), m.v); err != nil {
			return err
		}
		cur = m.v
	}
	return nil
}

func parseTimestamp(column, v string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("corrupt %s %q: %w", column, v, err)
	}
	return t, nil
}

func mapNoRows(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
