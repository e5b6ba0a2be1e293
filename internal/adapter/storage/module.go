package storage

import (
	"context"
	"fmt"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/fx"

	storageconfig "github.com/mgfn/skycast/internal/adapter/storage/config"
	"github.com/mgfn/skycast/internal/config"
)

// AdapterFactory builds a Connection from a decoded StorageConfig. Concrete
// adapters (local, gcs) are registered by the application module; the
// indirection keeps this package free of backend imports.
type AdapterFactory func(ctx context.Context, cfg storageconfig.StorageConfig, name string) (Connection, error)

// ResolveConfig decodes the named storage block from the application
// configuration.
func ResolveConfig(cfg *config.Config, name string) (storageconfig.StorageConfig, error) {
	var storageCfg storageconfig.StorageConfig
	raw, ok := cfg.Skycast.Adapter.Storage[name]
	if !ok {
		return storageCfg, fmt.Errorf("storage configuration '%s' not found in adapter.storage", name)
	}
	if err := mapstructure.Decode(raw, &storageCfg); err != nil {
		return storageCfg, fmt.Errorf("failed to decode storage config for '%s': %w", name, err)
	}
	return storageCfg, nil
}

// NewConnection builds the Connection named by infrastructure.storage_ref
// using the registered factories and closes it on shutdown.
func NewConnection(cfg *config.Config, factories map[string]AdapterFactory, lc fx.Lifecycle) (Connection, error) {
	name := cfg.Skycast.Infrastructure.StorageRef
	storageCfg, err := ResolveConfig(cfg, name)
	if err != nil {
		return nil, err
	}
	factory, ok := factories[storageCfg.Type]
	if !ok {
		return nil, fmt.Errorf("no storage adapter registered for type '%s' (connection '%s')", storageCfg.Type, name)
	}
	conn, err := factory(context.Background(), storageCfg, name)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error { return conn.Close() },
	})
	return conn, nil
}
