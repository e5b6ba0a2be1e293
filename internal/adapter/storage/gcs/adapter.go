// Package gcs provides a Google Cloud Storage implementation of the storage
// adapter interface.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"

	gstorage "cloud.google.com/go/storage"
	"google.golang.org/api/option"

	storageadapter "github.com/mgfn/skycast/internal/adapter/storage"
	storageconfig "github.com/mgfn/skycast/internal/adapter/storage/config"
	"github.com/mgfn/skycast/internal/support/logger"
)

// ProviderType is the type identifier for this adapter.
const ProviderType = "gcs"

// gcsAdapter implements storage.Connection over a GCS client.
type gcsAdapter struct {
	client *gstorage.Client
	cfg    storageconfig.StorageConfig
	name   string
}

var _ storageadapter.Connection = (*gcsAdapter)(nil)

// NewAdapter creates a new GCS adapter. When CredentialsFile is set it is
// used explicitly; otherwise application default credentials apply.
func NewAdapter(ctx context.Context, cfg storageconfig.StorageConfig, name string) (storageadapter.Connection, error) {
	if cfg.BucketName == "" {
		return nil, fmt.Errorf("gcs storage adapter '%s': bucket_name must be specified", name)
	}
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := gstorage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs storage adapter '%s': failed to create client: %w", name, err)
	}
	return &gcsAdapter{client: client, cfg: cfg, name: name}, nil
}

// Close releases the underlying GCS client.
func (a *gcsAdapter) Close() error {
	logger.Debugf("GCS storage adapter '%s' closed.", a.name)
	return a.client.Close()
}

// Type returns "gcs".
func (a *gcsAdapter) Type() string { return ProviderType }

// Name returns the configured connection name.
func (a *gcsAdapter) Name() string { return a.name }

func (a *gcsAdapter) bucket(bucket string) *gstorage.BucketHandle {
	if bucket == "" {
		bucket = a.cfg.BucketName
	}
	return a.client.Bucket(bucket)
}

// Upload writes data to the specified object. The object becomes visible
// atomically when the writer is closed.
func (a *gcsAdapter) Upload(ctx context.Context, bucket, objectName string, data io.Reader, contentType string) error {
	w := a.bucket(bucket).Object(objectName).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}
	if _, err := io.Copy(w, data); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write object '%s': %w", objectName, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize object '%s': %w", objectName, err)
	}
	logger.Debugf("Uploaded object '%s' (gcs adapter '%s').", objectName, a.name)
	return nil
}

// Download opens the specified object for reading. A missing object maps to
// storage.ErrObjectNotExist.
func (a *gcsAdapter) Download(ctx context.Context, bucket, objectName string) (io.ReadCloser, error) {
	r, err := a.bucket(bucket).Object(objectName).NewReader(ctx)
	if err != nil {
		if errors.Is(err, gstorage.ErrObjectNotExist) {
			return nil, fmt.Errorf("object '%s/%s': %w", bucket, objectName, storageadapter.ErrObjectNotExist)
		}
		return nil, fmt.Errorf("failed to open object '%s': %w", objectName, err)
	}
	return r, nil
}

// DeleteObject removes the specified object. A missing object maps to
// storage.ErrObjectNotExist.
func (a *gcsAdapter) DeleteObject(ctx context.Context, bucket, objectName string) error {
	if err := a.bucket(bucket).Object(objectName).Delete(ctx); err != nil {
		if errors.Is(err, gstorage.ErrObjectNotExist) {
			return fmt.Errorf("object '%s/%s': %w", bucket, objectName, storageadapter.ErrObjectNotExist)
		}
		return fmt.Errorf("failed to delete object '%s': %w", objectName, err)
	}
	logger.Debugf("Deleted object '%s' (gcs adapter '%s').", objectName, a.name)
	return nil
}
