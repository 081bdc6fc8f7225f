package users

import (
	"context"
	"errors"
	"time"

	"github.com/mmrzaf/mdgen/internal/domain"
)

var (
	// ErrNotFound is returned when no user matches, including when the
	// identifier cannot be parsed into the store's id format.
	ErrNotFound = errors.New("users: record not found")

	// ErrDuplicateKey is returned when an email or token is already taken.
	ErrDuplicateKey = errors.New("users: duplicate key")
)

// Repository persists user records. Email and token uniqueness is enforced by
// the store itself; callers rely on ErrDuplicateKey rather than locking.
type Repository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByToken(ctx context.Context, token string) (*domain.User, error)
	MarkVerified(ctx context.Context, id string) error
	IncrementUsage(ctx context.Context, id string, at time.Time) error
	SetToken(ctx context.Context, id, token string) error
	Close(ctx context.Context) error
}
