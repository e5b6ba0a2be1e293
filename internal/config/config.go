// Package config provides structures and utilities for managing the skycast
// application configuration.
package config

// EmbeddedConfig holds the content of the configuration file, typically
// passed from main.go via go:embed.
type EmbeddedConfig []byte

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the logging level (e.g. "INFO", "DEBUG").
	Level string `yaml:"level"`
}

// SystemConfig holds system-wide settings.
type SystemConfig struct {
	// Timezone is the application timezone used when formatting report
	// timestamps (e.g. "UTC", "Europe/Moscow").
	Timezone string `yaml:"timezone"`
	// Logging is the logging configuration.
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig holds the HTTP surface settings.
type ServerConfig struct {
	// Address is the listen address of the API server.
	Address string `yaml:"address"`
	// MetricsAddress is the listen address of the metrics endpoint.
	MetricsAddress string `yaml:"metrics_address"`
}

// GeocoderConfig holds reverse-geocoder client settings.
type GeocoderConfig struct {
	// BaseURL is the geocoder service root (e.g. Nominatim).
	BaseURL string `yaml:"base_url"`
	// Language is the accept-language value for resolved place names.
	Language string `yaml:"language"`
	// UserAgent identifies this service to the geocoder.
	UserAgent string `yaml:"user_agent"`
	// TimeoutSeconds bounds a single reverse-geocoding round trip.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// WeatherConfig holds weather-provider client settings.
type WeatherConfig struct {
	// BaseURL is the forecast endpoint of the provider.
	BaseURL string `yaml:"base_url"`
	// ForecastDays is the number of daily forecasts to request.
	ForecastDays int `yaml:"forecast_days"`
	// TimeoutSeconds bounds a single forecast round trip.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// FilesConfig holds file-handling settings.
type FilesConfig struct {
	// AllowedFormats is the extension allow-list for files entering the
	// system through the report workflow.
	AllowedFormats []string `yaml:"allowed_formats"`
}

// InfrastructureConfig names the adapter connections used by the services.
type InfrastructureConfig struct {
	// DatabaseRef is the name of the database block under adapter.database.
	DatabaseRef string `yaml:"database_ref"`
	// StorageRef is the name of the storage block under adapter.storage.
	StorageRef string `yaml:"storage_ref"`
}

// AdapterConfigs holds raw named configuration blocks for adapters. Each
// block is decoded by the owning adapter package with mapstructure, so the
// values stay opaque here.
type AdapterConfigs struct {
	// Database maps connection names to database configuration blocks.
	Database map[string]interface{} `yaml:"database"`
	// Storage maps connection names to blob-storage configuration blocks.
	Storage map[string]interface{} `yaml:"storage"`
}

// SkycastConfig holds all configuration under the "skycast" top-level key.
type SkycastConfig struct {
	System         SystemConfig         `yaml:"system"`
	Server         ServerConfig         `yaml:"server"`
	Geocoder       GeocoderConfig       `yaml:"geocoder"`
	Weather        WeatherConfig        `yaml:"weather"`
	Files          FilesConfig          `yaml:"files"`
	Infrastructure InfrastructureConfig `yaml:"infrastructure"`
	Adapter        AdapterConfigs       `yaml:"adapter"`
}

// Config is the root structure for the entire application configuration.
type Config struct {
	Skycast SkycastConfig `yaml:"skycast"`
}

// NewConfig returns a Config populated with defaults. Values from the
// embedded YAML and the environment are merged on top of these.
func NewConfig() *Config {
	return &Config{
		Skycast: SkycastConfig{
			System: SystemConfig{
				Timezone: "UTC",
				Logging:  LoggingConfig{Level: "INFO"},
			},
			Server: ServerConfig{
				Address:        ":8080",
				MetricsAddress: ":9090",
			},
			Geocoder: GeocoderConfig{
				BaseURL:        "https://nominatim.openstreetmap.org",
				Language:       "ru",
				UserAgent:      "skycast",
				TimeoutSeconds: 10,
			},
			Weather: WeatherConfig{
				BaseURL:        "https://api.open-meteo.com/v1",
				ForecastDays:   7,
				TimeoutSeconds: 10,
			},
			Files: FilesConfig{
				AllowedFormats: []string{"xlsx"},
			},
			Infrastructure: InfrastructureConfig{
				DatabaseRef: "primary",
				StorageRef:  "reports",
			},
		},
	}
}
