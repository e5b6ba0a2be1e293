package config

import (
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
	"gopkg.in/yaml.v3"

	"github.com/mgfn/skycast/internal/support/exception"
	"github.com/mgfn/skycast/internal/support/logger"
)

const moduleName = "config"

// ConfigParams defines the dependencies for NewConfigProvider.
type ConfigParams struct {
	fx.In
	EmbeddedConfig EmbeddedConfig
	EnvFilePath    string `name:"envFilePath" optional:"true"`
}

// loadConfig loads configuration from the embedded YAML and the environment.
// Order: defaults from NewConfig, then the embedded YAML with ${VAR}
// placeholders expanded from the environment. A missing .env file is not an
// error; it only supplies additional environment variables.
func loadConfig(envFilePath string, embedded EmbeddedConfig) (*Config, error) {
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			logger.Warnf(".env file (%s) not found or could not be loaded: %v", envFilePath, err)
		}
	} else {
		if err := godotenv.Load(); err != nil {
			logger.Debugf(".env file not found or could not be loaded: %v", err)
		}
	}

	cfg := NewConfig()

	expanded := os.ExpandEnv(string(embedded))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, exception.New(exception.KindInternalStorage, moduleName,
			"failed to unmarshal embedded config", err)
	}
	return cfg, nil
}

// NewConfigProvider is an Fx provider that loads and provides *Config.
// It also applies the configured global log level.
func NewConfigProvider(params ConfigParams) (*Config, error) {
	cfg, err := loadConfig(params.EnvFilePath, params.EmbeddedConfig)
	if err != nil {
		return nil, err
	}
	logger.SetLogLevel(cfg.Skycast.System.Logging.Level)
	logger.Debugf("Configuration loaded (db ref: %s, storage ref: %s).",
		cfg.Skycast.Infrastructure.DatabaseRef, cfg.Skycast.Infrastructure.StorageRef)
	return cfg, nil
}
