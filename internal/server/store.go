package server

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/watizat/connect/internal/config"
	"github.com/watizat/connect/internal/repository"
	"github.com/watizat/connect/internal/repository/postgres"
	"github.com/watizat/connect/internal/repository/sqlite"
)

// Store is a backend implementing every repository.
type Store interface {
	repository.UserRepository
	repository.PostRepository
	repository.MessageRepository
	repository.CommentRepository
	io.Closer
}

var (
	_ Store = (*sqlite.DB)(nil)
	_ Store = (*postgres.Store)(nil)
)

// OpenStore opens the backend selected by cfg.Driver.
func OpenStore(ctx context.Context, cfg config.DatabaseConfig) (Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		if cfg.Path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory: %w", err)
			}
		}
		db, err := sqlite.New(cfg.Path)
		if err != nil {
			return nil, err
		}
		return db, nil
	case config.DriverPostgres:
		s, err := postgres.New(ctx, cfg.DSN, cfg.MaxConns)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
