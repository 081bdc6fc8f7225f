package users

import (
	"context"
	"fmt"

	"github.com/mmrzaf/mdgen/internal/domain"
)

// Options selects and locates a users backend.
type Options struct {
	Backend         string
	SQLitePath      string
	PostgresDSN     string
	MongoURI        string
	MongoDatabase   string
	MongoCollection string
}

// Open builds the configured backend and runs its Init.
func Open(ctx context.Context, opts Options) (Repository, error) {
	var repo Repository
	switch opts.Backend {
	case domain.UsersBackendSQLite, "":
		repo = NewSQLiteRepository(opts.SQLitePath)
	case domain.UsersBackendPostgres:
		repo = NewPostgresRepository(opts.PostgresDSN)
	case domain.UsersBackendMongo:
		repo = NewMongoRepository(opts.MongoURI, opts.MongoDatabase, opts.MongoCollection)
	default:
		return nil, fmt.Errorf("unknown users backend %q", opts.Backend)
	}
	if err := repo.Init(ctx); err != nil {
		_ = repo.Close(context.Background())
		return nil, fmt.Errorf("init %s users store: %w", opts.Backend, err)
	}
	return repo, nil
}
