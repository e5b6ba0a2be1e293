// Package migration applies the embedded schema migrations at startup.
// Migration files live under migrations/ and are written in portable SQL so
// a single set serves postgres, mysql and sqlite.
package migration

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/fx"
	"gorm.io/gorm"

	gormadapter "github.com/mgfn/skycast/internal/adapter/database/gorm"
	"github.com/mgfn/skycast/internal/config"
	"github.com/mgfn/skycast/internal/support/logger"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Run applies all pending migrations on the given connection.
func Run(db *gorm.DB, dbType string) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("migration: failed to get underlying *sql.DB: %w", err)
	}

	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("migration: failed to open embedded source: %w", err)
	}

	var driver database.Driver
	switch dbType {
	case "postgres":
		driver, err = migratepg.WithInstance(sqlDB, &migratepg.Config{})
	case "mysql":
		driver, err = migratemysql.WithInstance(sqlDB, &migratemysql.Config{})
	case "sqlite":
		driver, err = migratesqlite.WithInstance(sqlDB, &migratesqlite.Config{})
	default:
		return fmt.Errorf("migration: unsupported database type '%s'", dbType)
	}
	if err != nil {
		return fmt.Errorf("migration: failed to create %s driver: %w", dbType, err)
	}

	m, err := migrate.NewWithInstance("iofs", src, dbType, driver)
	if err != nil {
		return fmt.Errorf("migration: failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Debugf("Schema is up to date; no migrations applied.")
			return nil
		}
		return fmt.Errorf("migration: failed to apply migrations: %w", err)
	}
	logger.Infof("Schema migrations applied.")
	return nil
}

// runOnStart resolves the configured database type and applies migrations.
func runOnStart(cfg *config.Config, db *gorm.DB) error {
	dbCfg, err := gormadapter.ResolveConfig(cfg, cfg.Skycast.Infrastructure.DatabaseRef)
	if err != nil {
		return err
	}
	return Run(db, dbCfg.Type)
}

// Module applies migrations when the Fx graph is built.
var Module = fx.Options(
	fx.Invoke(runOnStart),
)
