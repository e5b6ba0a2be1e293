// Package app assembles the skycast Fx application graph.
package app

import (
	"context"

	"go.uber.org/fx"

	"github.com/mgfn/skycast/internal/adapter/database"
	"github.com/mgfn/skycast/internal/adapter/database/migration"
	"github.com/mgfn/skycast/internal/adapter/storage"
	storageconfig "github.com/mgfn/skycast/internal/adapter/storage/config"
	"github.com/mgfn/skycast/internal/adapter/storage/gcs"
	"github.com/mgfn/skycast/internal/adapter/storage/local"
	"github.com/mgfn/skycast/internal/config"
	"github.com/mgfn/skycast/internal/geocoder"
	"github.com/mgfn/skycast/internal/metrics"
	"github.com/mgfn/skycast/internal/provider"
	"github.com/mgfn/skycast/internal/render"
	"github.com/mgfn/skycast/internal/repository"
	"github.com/mgfn/skycast/internal/server"
	"github.com/mgfn/skycast/internal/service"
)

// newStorageFactories registers the available blob storage backends.
func newStorageFactories() map[string]storage.AdapterFactory {
	return map[string]storage.AdapterFactory{
		local.ProviderType: func(ctx context.Context, cfg storageconfig.StorageConfig, name string) (storage.Connection, error) {
			return local.NewAdapter(cfg, name)
		},
		gcs.ProviderType: gcs.NewAdapter,
	}
}

// New builds the application with the embedded configuration. Extra
// options let tests override parts of the graph.
func New(embedded config.EmbeddedConfig, opts ...fx.Option) *fx.App {
	all := append([]fx.Option{
		fx.Supply(embedded),
		config.Module,
		database.Module,
		migration.Module,
		fx.Provide(newStorageFactories),
		fx.Provide(storage.NewConnection),
		fx.Provide(repository.NewBlobRepository),
		metrics.Module,
		geocoder.Module,
		provider.Module,
		render.Module,
		service.Module,
		server.Module,
	}, opts...)
	return fx.New(all...)
}
