package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mmrzaf/mdgen/internal/infra/repos/users"
	"github.com/mmrzaf/mdgen/internal/logging"
)

func newTestRegistry(t *testing.T) (*UserRegistry, *users.SQLiteRepository) {
	t.Helper()
	repo := users.NewSQLiteRepository(filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, repo.Init(context.Background()))
	t.Cleanup(func() { _ = repo.Close(context.Background()) })
	return NewUserRegistry(repo, logging.Nop()), repo
}
