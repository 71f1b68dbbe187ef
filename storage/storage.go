// Package storage opens the kv.Store backend selected by configuration.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sagarc03/fragments/kv"
	"github.com/sagarc03/fragments/kv/bolt"
	"github.com/sagarc03/fragments/kv/filesystem"
	"github.com/sagarc03/fragments/kv/memory"
	"github.com/sagarc03/fragments/kv/postgres"
	kvs3 "github.com/sagarc03/fragments/kv/s3"
	"github.com/sagarc03/fragments/kv/sqlite"
)

// Backend type names accepted in Config.Type.
const (
	TypeMemory     = "memory"
	TypeSQLite     = "sqlite"
	TypePostgres   = "postgres"
	TypeBolt       = "bolt"
	TypeFilesystem = "filesystem"
	TypeS3         = "s3"
)

const boltOpenTimeout = 5 * time.Second

// Config holds the configuration for one store.
type Config struct {
	// Type selects the backend: memory, sqlite, postgres, bolt, filesystem or s3.
	Type string `mapstructure:"type" validate:"required,oneof=memory sqlite postgres bolt filesystem s3"`
	// DSN is the connection string for sqlite and postgres.
	DSN string `mapstructure:"dsn" validate:"required_if=Type sqlite,required_if=Type postgres"`
	// Table is the SQL table name, or the bucket name inside a bolt file.
	Table string `mapstructure:"table" validate:"required_if=Type sqlite,required_if=Type postgres,required_if=Type bolt"`
	// Path is the bolt file or the filesystem root directory.
	Path string `mapstructure:"path" validate:"required_if=Type bolt,required_if=Type filesystem"`
	// S3 configures the s3 backend.
	S3 kvs3.Config `mapstructure:"s3"`
	// Compress wraps the store so values are zstd-compressed at rest.
	Compress bool `mapstructure:"compress"`
}

// Open connects to the configured backend, preparing its schema where it has one.
// The returned cleanup function releases the backend's resources.
func Open(ctx context.Context, cfg Config) (kv.Store, func(), error) {
	store, closer, err := open(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		if closeErr := closer(); closeErr != nil {
			slog.Warn("failed to close store", "type", cfg.Type, "err", closeErr)
		}
	}

	if !cfg.Compress {
		return store, cleanup, nil
	}

	compressed, err := kv.NewCompressed(store)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("open %s: %w", cfg.Type, err)
	}

	return compressed, func() {
		_ = compressed.Close()
		cleanup()
	}, nil
}

func open(ctx context.Context, cfg Config) (kv.Store, func() error, error) {
	switch cfg.Type {
	case TypeMemory:
		return memory.New(), func() error { return nil }, nil
	case TypeSQLite:
		return openSQLite(ctx, cfg)
	case TypePostgres:
		return openPostgres(ctx, cfg)
	case TypeBolt:
		s, err := bolt.Open(cfg.Path, cfg.Table, boltOpenTimeout)
		if err != nil {
			return nil, nil, fmt.Errorf("open bolt: %w", err)
		}
		return s, s.Close, nil
	case TypeFilesystem:
		s, err := filesystem.Open(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case TypeS3:
		s, err := kvs3.New(ctx, cfg.S3)
		if err != nil {
			return nil, nil, fmt.Errorf("open s3: %w", err)
		}
		return s, func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported store type: %q", cfg.Type)
	}
}

func openSQLite(ctx context.Context, cfg Config) (kv.Store, func() error, error) {
	s, err := sqlite.Connect(ctx, cfg.DSN, cfg.Table)
	if err != nil {
		return nil, nil, err
	}

	if err = s.Migrate(ctx); err != nil {
		return nil, nil, errors.Join(fmt.Errorf("migrate sqlite: %w", err), s.Close())
	}

	if err = s.Validate(ctx); err != nil {
		return nil, nil, errors.Join(fmt.Errorf("validate sqlite schema: %w", err), s.Close())
	}

	return s, s.Close, nil
}

func openPostgres(ctx context.Context, cfg Config) (kv.Store, func() error, error) {
	s, err := postgres.Connect(ctx, cfg.DSN, cfg.Table)
	if err != nil {
		return nil, nil, err
	}

	if err = s.Ping(ctx); err != nil {
		return nil, nil, errors.Join(fmt.Errorf("ping postgres: %w", err), s.Close())
	}

	if err = s.Migrate(ctx); err != nil {
		return nil, nil, errors.Join(fmt.Errorf("migrate postgres: %w", err), s.Close())
	}

	if err = s.Validate(ctx); err != nil {
		return nil, nil, errors.Join(fmt.Errorf("validate postgres schema: %w", err), s.Close())
	}

	return s, s.Close, nil
}
