package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sagarc03/fragments"
	"github.com/sagarc03/fragments/config"
	"github.com/sagarc03/fragments/storage"
)

// openManager opens both stores and builds a Manager on top of them. The returned
// cleanup closes the stores.
func openManager(ctx context.Context, cfg *config.Config) (*fragments.Manager, func(), error) {
	registry, err := fragments.NewRegistry(cfg.Types)
	if err != nil {
		return nil, nil, fmt.Errorf("build registry: %w", err)
	}

	metadata, closeMetadata, err := storage.Open(ctx, cfg.Metadata)
	if err != nil {
		return nil, nil, fmt.Errorf("open metadata store: %w", err)
	}

	payload, closePayload, err := storage.Open(ctx, cfg.Payload)
	if err != nil {
		closeMetadata()
		return nil, nil, fmt.Errorf("open payload store: %w", err)
	}

	slog.Info("opened stores", "metadata", cfg.Metadata.Type, "payload", cfg.Payload.Type, "types", registry.Types())

	manager := fragments.NewManager(metadata, payload, registry,
		fragments.WithCleanupTimeout(time.Duration(cfg.Service.CleanupTimeout)*time.Second),
	)

	cleanup := func() {
		closePayload()
		closeMetadata()
	}
	return manager, cleanup, nil
}
