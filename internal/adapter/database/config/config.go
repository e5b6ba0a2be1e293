// Package config defines the configuration structure for a single database
// connection block under skycast.adapter.database.
package config

// PoolConfig holds connection pool settings.
type PoolConfig struct {
	MaxOpenConns           int `yaml:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns           int `yaml:"max_idle_conns" mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSeconds int `yaml:"conn_max_lifetime_seconds" mapstructure:"conn_max_lifetime_seconds"`
}

// DatabaseConfig holds configuration for a single database connection.
type DatabaseConfig struct {
	// Type selects the registered dialector ("postgres", "mysql", "sqlite").
	Type     string     `yaml:"type" mapstructure:"type"`
	Host     string     `yaml:"host" mapstructure:"host"`
	Port     int        `yaml:"port" mapstructure:"port"`
	Database string     `yaml:"database" mapstructure:"database"`
	User     string     `yaml:"user" mapstructure:"user"`
	Password string     `yaml:"password" mapstructure:"password"`
	SSLMode  string     `yaml:"sslmode" mapstructure:"sslmode"`
	Pool     PoolConfig `yaml:"pool" mapstructure:"pool"`
}
