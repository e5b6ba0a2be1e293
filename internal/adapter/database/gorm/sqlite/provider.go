// Package sqlite registers the SQLite dialector with the common GORM
// provider. SQLite is primarily used by tests and local development.
package sqlite

import (
	"fmt"

	gormdriver "gorm.io/driver/sqlite"
	"gorm.io/gorm"

	dbconfig "github.com/mgfn/skycast/internal/adapter/database/config"
	gormadapter "github.com/mgfn/skycast/internal/adapter/database/gorm"
)

// ProviderType is the type identifier handled by this package.
const ProviderType = "sqlite"

func init() {
	gormadapter.RegisterDialector(ProviderType, NewDialector)
}

// NewDialector builds a SQLite dialector from a DatabaseConfig. The
// Database field carries the file path, or ":memory:" for an in-memory DB.
func NewDialector(cfg dbconfig.DatabaseConfig) (gorm.Dialector, error) {
	if cfg.Database == "" {
		return nil, fmt.Errorf("sqlite config requires a database path")
	}
	return gormdriver.Open(cfg.Database), nil
}
