package main

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"starkScope/internal/storage"
	"starkScope/internal/storage/jsonl"
	"starkScope/internal/storage/memory"
	"starkScope/internal/storage/postgres"
	"starkScope/internal/storage/sqlite"
)

// openStorage picks a backend from the DSN scheme. The returned func
// releases the backend.
func openStorage(ctx context.Context, dsn string, logger *zap.Logger) (storage.Storage, func(), error) {
	switch {
	case dsn == "" || dsn == "memory":
		return memory.New(), func() {}, nil
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		store, err := postgres.NewStore(ctx, dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		return store, store.Close, nil
	case strings.HasPrefix(dsn, "sqlite://"):
		store, err := sqlite.Open(strings.TrimPrefix(dsn, "sqlite://"))
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		return store, func() { _ = store.Close() }, nil
	case strings.HasPrefix(dsn, "jsonl://"):
		store, err := jsonl.Open(strings.TrimPrefix(dsn, "jsonl://"), logger)
		if err != nil {
			return nil, nil, fmt.Errorf("open jsonl: %w", err)
		}
		return store, func() { _ = store.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported storage: %q", dsn)
	}
}
