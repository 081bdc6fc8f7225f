package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mmrzaf/mdgen/internal/domain"
)

// exerciseRepository runs the behaviour every backend must share.
func exerciseRepository(t *testing.T, repo Repository) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	u := &domain.User{
		Email:     "ada+" + uuid.NewString()[:8] + "@example.com",
		Token:     uuid.NewString(),
		LastUsed:  now,
		CreatedAt: now,
	}
	if err := repo.Create(ctx, u); err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.ID == "" {
		t.Fatal("expected create to assign an id")
	}

	byEmail, err := repo.GetByEmail(ctx, u.Email)
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if byEmail.ID != u.ID || byEmail.Token != u.Token || byEmail.Verified || byEmail.GeneratedCount != 0 {
		t.Fatalf("unexpected record: %#v", byEmail)
	}
	if !byEmail.LastUsed.Equal(now) {
		t.Fatalf("expected last_used %v, got %v", now, byEmail.LastUsed)
	}

	if _, err := repo.GetByToken(ctx, u.Token); err != nil {
		t.Fatalf("get by token: %v", err)
	}

	dup := &domain.User{Email: u.Email, Token: uuid.NewString(), LastUsed: now, CreatedAt: now}
	if err := repo.Create(ctx, dup); !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("expected duplicate email error, got %v", err)
	}

	if err := repo.MarkVerified(ctx, u.ID); err != nil {
		t.Fatalf("mark verified: %v", err)
	}
	if err := repo.MarkVerified(ctx, u.ID); err != nil {
		t.Fatalf("mark verified twice: %v", err)
	}

	later := now.Add(time.Minute)
	if err := repo.IncrementUsage(ctx, u.ID, later); err != nil {
		t.Fatalf("increment usage: %v", err)
	}
	if err := repo.IncrementUsage(ctx, u.ID, later); err != nil {
		t.Fatalf("increment usage: %v", err)
	}
	got, err := repo.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if !got.Verified || got.GeneratedCount != 2 || !got.LastUsed.Equal(later) {
		t.Fatalf("unexpected record after updates: %#v", got)
	}

	newToken := uuid.NewString()
	if err := repo.SetToken(ctx, u.ID, newToken); err != nil {
		t.Fatalf("set token: %v", err)
	}
	if _, err := repo.GetByToken(ctx, u.Token); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected old token to be gone, got %v", err)
	}
	if got, err := repo.GetByToken(ctx, newToken); err != nil || got.ID != u.ID {
		t.Fatalf("expected new token to resolve, got %#v, %v", got, err)
	}

	for _, id := range []string{"", "not-an-id", "12345"} {
		if _, err := repo.GetByID(ctx, id); !errors.Is(err, ErrNotFound) {
			t.Fatalf("GetByID(%q): expected ErrNotFound, got %v", id, err)
		}
		if err := repo.MarkVerified(ctx, id); !errors.Is(err, ErrNotFound) {
			t.Fatalf("MarkVerified(%q): expected ErrNotFound, got %v", id, err)
		}
	}
	if _, err := repo.GetByEmail(ctx, "nobody@example.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown email, got %v", err)
	}
	if _, err := repo.GetByToken(ctx, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for empty token, got %v", err)
	}
}
