// Package gorm provides the GORM-backed database connection used by the
// skycast repositories. Concrete database types register a DialectorFactory
// from their own subpackage (postgres, mysql, sqlite), keeping driver
// imports out of the common path.
package gorm

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mitchellh/mapstructure"
	"gorm.io/gorm"
	gorm_logger "gorm.io/gorm/logger"

	dbconfig "github.com/mgfn/skycast/internal/adapter/database/config"
	"github.com/mgfn/skycast/internal/config"
	"github.com/mgfn/skycast/internal/support/logger"
)

// DialectorFactory builds a gorm.Dialector from a DatabaseConfig.
type DialectorFactory func(cfg dbconfig.DatabaseConfig) (gorm.Dialector, error)

var (
	dialectorRegistry = make(map[string]DialectorFactory)
	dialectorMutex    sync.RWMutex
)

// RegisterDialector registers a DialectorFactory for the given database type.
func RegisterDialector(dbType string, factory DialectorFactory) {
	dialectorMutex.Lock()
	defer dialectorMutex.Unlock()
	if _, exists := dialectorRegistry[dbType]; exists {
		logger.Warnf("Dialector for type '%s' already registered. Overwriting.", dbType)
	}
	dialectorRegistry[dbType] = factory
}

// GetDialectorFactory retrieves the DialectorFactory for the given DB type.
func GetDialectorFactory(dbType string) (DialectorFactory, error) {
	dialectorMutex.RLock()
	defer dialectorMutex.RUnlock()
	factory, ok := dialectorRegistry[dbType]
	if !ok {
		return nil, fmt.Errorf("no dialector registered for database type: %s", dbType)
	}
	return factory, nil
}

// ResolveConfig decodes the named database block from the application
// configuration.
func ResolveConfig(cfg *config.Config, name string) (dbconfig.DatabaseConfig, error) {
	var dbCfg dbconfig.DatabaseConfig
	raw, ok := cfg.Skycast.Adapter.Database[name]
	if !ok {
		return dbCfg, fmt.Errorf("database configuration '%s' not found in adapter.database", name)
	}
	if err := mapstructure.Decode(raw, &dbCfg); err != nil {
		return dbCfg, fmt.Errorf("failed to decode database config for '%s': %w", name, err)
	}
	return dbCfg, nil
}

// Open establishes a GORM connection for the given DatabaseConfig and
// applies pool settings. TranslateError is enabled so that constraint
// violations surface as gorm.ErrDuplicatedKey / gorm.ErrForeignKeyViolated
// regardless of driver.
func Open(dbCfg dbconfig.DatabaseConfig, logLevel string) (*gorm.DB, error) {
	factory, err := GetDialectorFactory(dbCfg.Type)
	if err != nil {
		return nil, err
	}
	dialector, err := factory(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build dialector for %s: %w", dbCfg.Type, err)
	}

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		Logger:         newGormLogger(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", dbCfg.Type, err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying *sql.DB: %w", err)
	}
	if dbCfg.Pool.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(dbCfg.Pool.MaxOpenConns)
	}
	if dbCfg.Pool.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(dbCfg.Pool.MaxIdleConns)
	}
	if dbCfg.Pool.ConnMaxLifetimeSeconds > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(dbCfg.Pool.ConnMaxLifetimeSeconds) * time.Second)
	}

	logger.Infof("Established database connection (%s/%s).", dbCfg.Type, dbCfg.Database)
	return gormDB, nil
}

// newGormLogger creates a gorm logger that redirects output into the
// application logger at a level matching the configured one.
func newGormLogger(level string) gorm_logger.Interface {
	var gormLevel gorm_logger.LogLevel
	switch strings.ToUpper(level) {
	case "DEBUG":
		gormLevel = gorm_logger.Info
	case "INFO":
		gormLevel = gorm_logger.Warn
	case "WARN":
		gormLevel = gorm_logger.Warn
	case "ERROR", "FATAL":
		gormLevel = gorm_logger.Error
	default:
		gormLevel = gorm_logger.Silent
	}

	return gorm_logger.New(
		&gormWriter{},
		gorm_logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormLevel,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

// gormWriter redirects GORM log output into the skycast logger. SQL traces
// go to DEBUG, everything else to INFO.
type gormWriter struct{}

// Printf implements gorm_logger.Writer.
func (w *gormWriter) Printf(format string, v ...interface{}) {
	msg := strings.TrimSpace(fmt.Sprintf(format, v...))
	if strings.Contains(msg, "SELECT") || strings.Contains(msg, "INSERT") ||
		strings.Contains(msg, "UPDATE") || strings.Contains(msg, "DELETE") {
		logger.Debugf("[GORM] %s", msg)
		return
	}
	logger.Infof("[GORM] %s", msg)
}
