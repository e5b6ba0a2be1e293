// Package local provides a local file system implementation of the storage
// adapter interface, used for development and tests.
package local

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	storageadapter "github.com/mgfn/skycast/internal/adapter/storage"
	storageconfig "github.com/mgfn/skycast/internal/adapter/storage/config"
	"github.com/mgfn/skycast/internal/support/logger"
)

// ProviderType is the type identifier for this adapter.
const ProviderType = "local"

// localAdapter implements storage.Connection over a base directory.
// Buckets map to subdirectories, objects to files.
type localAdapter struct {
	cfg  storageconfig.StorageConfig
	name string
}

var _ storageadapter.Connection = (*localAdapter)(nil)

// NewAdapter creates a new local adapter. BaseDir is created when missing.
func NewAdapter(cfg storageconfig.StorageConfig, name string) (storageadapter.Connection, error) {
	if cfg.BaseDir == "" {
		return nil, fmt.Errorf("local storage adapter '%s': base_dir must be specified", name)
	}
	info, err := os.Stat(cfg.BaseDir)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("local storage adapter '%s': failed to stat base_dir '%s': %w", name, cfg.BaseDir, err)
		}
		if err := os.MkdirAll(cfg.BaseDir, 0755); err != nil {
			return nil, fmt.Errorf("local storage adapter '%s': failed to create base_dir '%s': %w", name, cfg.BaseDir, err)
		}
	} else if !info.IsDir() {
		return nil, fmt.Errorf("local storage adapter '%s': base_dir '%s' is not a directory", name, cfg.BaseDir)
	}
	return &localAdapter{cfg: cfg, name: name}, nil
}

// Close does nothing for the local adapter; it holds no special resources.
func (a *localAdapter) Close() error {
	logger.Debugf("Local storage adapter '%s' closed.", a.name)
	return nil
}

// Type returns "local".
func (a *localAdapter) Type() string { return ProviderType }

// Name returns the configured connection name.
func (a *localAdapter) Name() string { return a.name }

// Upload writes data to the file addressed by bucket/objectName, creating
// intermediate directories as needed.
func (a *localAdapter) Upload(ctx context.Context, bucket, objectName string, data io.Reader, contentType string) error {
	fullPath, err := a.resolvePath(bucket, objectName)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory for '%s': %w", fullPath, err)
	}
	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create file '%s': %w", fullPath, err)
	}
	defer file.Close()
	if _, err := io.Copy(file, data); err != nil {
		return fmt.Errorf("failed to write data to file '%s': %w", fullPath, err)
	}
	logger.Debugf("Uploaded object '%s' (local adapter '%s').", fullPath, a.name)
	return nil
}

// Download opens the file addressed by bucket/objectName. A missing file
// maps to storage.ErrObjectNotExist.
func (a *localAdapter) Download(ctx context.Context, bucket, objectName string) (io.ReadCloser, error) {
	fullPath, err := a.resolvePath(bucket, objectName)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("object '%s/%s': %w", bucket, objectName, storageadapter.ErrObjectNotExist)
		}
		return nil, fmt.Errorf("failed to open file '%s': %w", fullPath, err)
	}
	return file, nil
}

// DeleteObject removes the file addressed by bucket/objectName. A missing
// file maps to storage.ErrObjectNotExist.
func (a *localAdapter) DeleteObject(ctx context.Context, bucket, objectName string) error {
	fullPath, err := a.resolvePath(bucket, objectName)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("object '%s/%s': %w", bucket, objectName, storageadapter.ErrObjectNotExist)
		}
		return fmt.Errorf("failed to delete file '%s': %w", fullPath, err)
	}
	logger.Debugf("Deleted object '%s' (local adapter '%s').", fullPath, a.name)
	return nil
}

// resolvePath resolves the object's full path under BaseDir and rejects
// paths that escape it.
func (a *localAdapter) resolvePath(bucket, objectName string) (string, error) {
	if bucket == "" {
		bucket = a.cfg.BucketName
	}
	fullPath := filepath.Join(a.cfg.BaseDir, bucket, objectName)

	absBase, err := filepath.Abs(a.cfg.BaseDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base_dir '%s': %w", a.cfg.BaseDir, err)
	}
	absFull, err := filepath.Abs(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path '%s': %w", fullPath, err)
	}
	if !strings.HasPrefix(absFull, absBase) {
		return "", fmt.Errorf("resolved path '%s' is outside of base_dir '%s'", fullPath, a.cfg.BaseDir)
	}
	return fullPath, nil
}
