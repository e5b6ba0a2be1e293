// Package mysql registers the MySQL dialector with the common GORM provider.
package mysql

import (
	"fmt"

	gormdriver "gorm.io/driver/mysql"
	"gorm.io/gorm"

	dbconfig "github.com/mgfn/skycast/internal/adapter/database/config"
	gormadapter "github.com/mgfn/skycast/internal/adapter/database/gorm"
)

// ProviderType is the type identifier handled by this package.
const ProviderType = "mysql"

func init() {
	gormadapter.RegisterDialector(ProviderType, NewDialector)
}

// NewDialector builds a MySQL dialector from a DatabaseConfig.
func NewDialector(cfg dbconfig.DatabaseConfig) (gorm.Dialector, error) {
	if cfg.Host == "" || cfg.Database == "" {
		return nil, fmt.Errorf("mysql config requires host and database")
	}
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database)
	return gormdriver.Open(dsn), nil
}
