// Package config defines the configuration structure for a single blob
// storage connection block under skycast.adapter.storage.
package config

// StorageConfig holds configuration for a single storage connection.
type StorageConfig struct {
	// Type selects the adapter ("gcs", "local").
	Type string `yaml:"type" mapstructure:"type"`
	// BucketName is the default bucket for operations.
	BucketName string `yaml:"bucket_name" mapstructure:"bucket_name"`
	// CredentialsFile is a path to a service account key (GCS only).
	CredentialsFile string `yaml:"credentials_file" mapstructure:"credentials_file"`
	// BaseDir is the base directory for local file system operations.
	BaseDir string `yaml:"base_dir" mapstructure:"base_dir"`
}
