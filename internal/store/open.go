package store

import (
	"context"

	"github.com/mesh-intelligence/ogsm/pkg/types"
)

// OpenBackend creates the backend selected by cfg.Driver.
func OpenBackend(ctx context.Context, cfg types.StoreConfig) (Backend, error) {
	switch cfg.Driver {
	case types.DriverMemory:
		return NewMemory(), nil
	case types.DriverFile:
		return NewFile(cfg.DataDir)
	case types.DriverSQLite:
		return NewSQLite(cfg.DataDir)
	case types.DriverBolt:
		return NewBolt(cfg.DataDir)
	case types.DriverPostgres:
		return NewPostgres(ctx, cfg.DSN)
	case "":
		return nil, types.ErrDriverEmpty
	default:
		return nil, types.ErrDriverUnknown
	}
}

// Open creates the configured backend and wraps it in a Durable.
func Open(ctx context.Context, cfg types.StoreConfig, opts ...Option) (*Durable, error) {
	backend, err := OpenBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.QuotaBytes > 0 {
		opts = append([]Option{WithQuota(cfg.QuotaBytes)}, opts...)
	}
	return New(backend, opts...), nil
}
