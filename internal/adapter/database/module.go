// Package database assembles the GORM connection for the Fx graph and
// closes it on shutdown.
package database

import (
	"context"

	"go.uber.org/fx"
	"gorm.io/gorm"

	gormadapter "github.com/mgfn/skycast/internal/adapter/database/gorm"
	"github.com/mgfn/skycast/internal/config"
	"github.com/mgfn/skycast/internal/support/logger"

	// Blank imports register the dialector factories for each database type.
	_ "github.com/mgfn/skycast/internal/adapter/database/gorm/mysql"
	_ "github.com/mgfn/skycast/internal/adapter/database/gorm/postgres"
	_ "github.com/mgfn/skycast/internal/adapter/database/gorm/sqlite"
)

// NewDatabase opens the connection named by infrastructure.database_ref and
// registers a shutdown hook that closes the pool.
func NewDatabase(cfg *config.Config, lc fx.Lifecycle) (*gorm.DB, error) {
	name := cfg.Skycast.Infrastructure.DatabaseRef
	dbCfg, err := gormadapter.ResolveConfig(cfg, name)
	if err != nil {
		return nil, err
	}
	db, err := gormadapter.Open(dbCfg, cfg.Skycast.System.Logging.Level)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			logger.Infof("Closing database connection '%s'...", name)
			return sqlDB.Close()
		},
	})
	return db, nil
}

// Module provides the database connection to the Fx graph.
var Module = fx.Options(
	fx.Provide(NewDatabase),
)
