// Package storage defines the common interface for blob storage adapters.
// It abstracts whole-object operations so the blob repository can work with
// different backends (GCS, local file system) through a unified API.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrObjectNotExist is returned by Download and DeleteObject when the
// requested object is absent. Adapters translate their backend-specific
// not-found errors into this sentinel.
var ErrObjectNotExist = errors.New("storage: object does not exist")

// Connection represents a blob storage connection. Operations are
// whole-object; no partial or streaming semantics are promised beyond the
// io.Reader/ReadCloser plumbing.
type Connection interface {
	// Upload writes data to the specified bucket and object name.
	Upload(ctx context.Context, bucket, objectName string, data io.Reader, contentType string) error
	// Download opens the specified object for reading. The returned
	// ReadCloser must be closed by the caller.
	Download(ctx context.Context, bucket, objectName string) (io.ReadCloser, error)
	// DeleteObject deletes the specified object from the bucket.
	DeleteObject(ctx context.Context, bucket, objectName string) error
	// Close releases the connection's resources.
	Close() error
	// Type returns the adapter type (e.g. "gcs", "local").
	Type() string
	// Name returns the configured connection name.
	Name() string
}
