package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmrzaf/mdgen/internal/domain"
	"github.com/mmrzaf/mdgen/internal/infra/repos/users"
	"github.com/mmrzaf/mdgen/internal/logging"
	"github.com/mmrzaf/mdgen/internal/validation"
)

// identifyAttempts bounds the lookup/insert loop when concurrent callers race
// to create the same email.
const identifyAttempts = 3

var (
	ErrUnknownUser = errors.New("unknown user")
	ErrNotVerified = errors.New("user is not verified")
)

// UserRegistry issues access tokens to email identities and tracks their
// verification and usage. Tokens stay valid until RotateToken is called.
type UserRegistry struct {
	repo   users.Repository
	logger *logging.Logger
	now    func() time.Time
}

func NewUserRegistry(repo users.Repository, logger *logging.Logger) *UserRegistry {
	return &UserRegistry{
		repo:   repo,
		logger: logger.WithComponent("user_registry"),
		now:    time.Now,
	}
}

// IdentifyOrCreate returns the token of the user with this email, creating the
// user on first sight.
func (r *UserRegistry) IdentifyOrCreate(ctx context.Context, email string) (string, error) {
	email, err := validation.NormalizeEmail(email)
	if err != nil {
		return "", err
	}

	for attempt := 1; attempt <= identifyAttempts; attempt++ {
		existing, err := r.repo.GetByEmail(ctx, email)
		if err == nil {
			return existing.Token, nil
		}
		if !errors.Is(err, users.ErrNotFound) {
			return "", fmt.Errorf("look up user: %w", err)
		}

		now := r.now().UTC()
		user := &domain.User{
			Email:     email,
			Token:     newToken(),
			LastUsed:  now,
			CreatedAt: now,
		}
		err = r.repo.Create(ctx, user)
		if err == nil {
			r.logger.Infow("user.created", map[string]any{"user_id": user.ID})
			return user.Token, nil
		}
		if !errors.Is(err, users.ErrDuplicateKey) {
			return "", fmt.Errorf("create user: %w", err)
		}
		r.logger.Debugw("user.create_raced", map[string]any{"attempt": attempt})
	}
	return "", fmt.Errorf("identify %s: gave up after %d attempts", email, identifyAttempts)
}

// IsVerified reports false for unknown or malformed tokens; only store
// failures produce an error.
func (r *UserRegistry) IsVerified(ctx context.Context, token string) (bool, error) {
	user, err := r.repo.GetByToken(ctx, token)
	if errors.Is(err, users.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("look up user: %w", err)
	}
	return user.Verified, nil
}

// RecordUsage counts one generation and refreshes last_used.
func (r *UserRegistry) RecordUsage(ctx context.Context, token string) error {
	user, err := r.Lookup(ctx, token)
	if err != nil {
		return err
	}
	if err := r.repo.IncrementUsage(ctx, user.ID, r.now().UTC()); err != nil {
		return r.wrap("record usage", err)
	}
	return nil
}

// MarkVerified sets the verified flag. It never clears it.
func (r *UserRegistry) MarkVerified(ctx context.Context, token string) error {
	user, err := r.Lookup(ctx, token)
	if err != nil {
		return err
	}
	if user.Verified {
		return nil
	}
	if err := r.repo.MarkVerified(ctx, user.ID); err != nil {
		return r.wrap("mark verified", err)
	}
	r.logger.Infow("user.verified", map[string]any{"user_id": user.ID})
	return nil
}

// RotateToken replaces the user's token; the old one stops resolving.
func (r *UserRegistry) RotateToken(ctx context.Context, token string) (string, error) {
	user, err := r.Lookup(ctx, token)
	if err != nil {
		return "", err
	}
	next := newToken()
	if err := r.repo.SetToken(ctx, user.ID, next); err != nil {
		return "", r.wrap("rotate token", err)
	}
	r.logger.Infow("user.token_rotated", map[string]any{"user_id": user.ID})
	return next, nil
}

func (r *UserRegistry) Lookup(ctx context.Context, token string) (*domain.User, error) {
	user, err := r.repo.GetByToken(ctx, token)
	if err != nil {
		return nil, r.wrap("look up user", err)
	}
	return user, nil
}

func (r *UserRegistry) LookupID(ctx context.Context, id string) (*domain.User, error) {
	user, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return nil, r.wrap("look up user", err)
	}
	return user, nil
}

func (r *UserRegistry) wrap(op string, err error) error {
	if errors.Is(err, users.ErrNotFound) {
		return ErrUnknownUser
	}
	return fmt.Errorf("%s: %w", op, err)
}

func newToken() string {
	return uuid.NewString()
}
