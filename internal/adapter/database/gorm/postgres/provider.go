// Package postgres registers the PostgreSQL dialector with the common GORM
// provider.
package postgres

import (
	"fmt"

	gormdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"

	dbconfig "github.com/mgfn/skycast/internal/adapter/database/config"
	gormadapter "github.com/mgfn/skycast/internal/adapter/database/gorm"
)

// ProviderType is the type identifier handled by this package.
const ProviderType = "postgres"

func init() {
	gormadapter.RegisterDialector(ProviderType, NewDialector)
}

// NewDialector builds a PostgreSQL dialector from a DatabaseConfig.
func NewDialector(cfg dbconfig.DatabaseConfig) (gorm.Dialector, error) {
	if cfg.Host == "" || cfg.Database == "" {
		return nil, fmt.Errorf("postgres config requires host and database")
	}
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, sslMode)
	return gormdriver.Open(dsn), nil
}
