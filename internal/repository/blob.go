package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/google/uuid"

	"github.com/mgfn/skycast/internal/adapter/storage"
	"github.com/mgfn/skycast/internal/support/exception"
)

// BlobRepository stores report payloads in the configured blob backend.
// Objects are keyed by the file id in compact hex form, so the File record
// is all that is needed to locate the payload.
type BlobRepository struct {
	conn storage.Connection
}

// NewBlobRepository creates a blob repository over the given connection.
// The adapter's configured default bucket is used for all objects.
func NewBlobRepository(conn storage.Connection) *BlobRepository {
	return &BlobRepository{conn: conn}
}

// ObjectName returns the blob key for a file id: the uuid without dashes.
func ObjectName(id uuid.UUID) string {
	return fmt.Sprintf("%x", id[:])
}

// classifyBlob maps a storage adapter error to an exception kind.
func classifyBlob(err error) exception.Kind {
	if errors.Is(err, storage.ErrObjectNotExist) {
		return exception.KindNotFound
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return exception.KindUnavailable
	}
	return exception.KindInternalStorage
}

func blobError(op string, id uuid.UUID, err error) error {
	return exception.New(classifyBlob(err), moduleBlob,
		fmt.Sprintf("%s of blob '%s' failed", op, ObjectName(id)), err)
}

// Upload writes the payload under the file id's key.
func (r *BlobRepository) Upload(ctx context.Context, id uuid.UUID, data []byte, contentType string) error {
	if err := r.conn.Upload(ctx, "", ObjectName(id), bytes.NewReader(data), contentType); err != nil {
		return blobError("upload", id, err)
	}
	return nil
}

// Get reads the whole payload stored under the file id's key. A missing
// blob is a not-found failure.
func (r *BlobRepository) Get(ctx context.Context, id uuid.UUID) ([]byte, error) {
	reader, err := r.conn.Download(ctx, "", ObjectName(id))
	if err != nil {
		return nil, blobError("download", id, err)
	}
	defer reader.Close()
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, blobError("read", id, err)
	}
	return data, nil
}

// Delete removes the payload stored under the file id's key. A missing
// blob is a not-found failure; callers deciding to tolerate it check the
// kind.
func (r *BlobRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.conn.DeleteObject(ctx, "", ObjectName(id)); err != nil {
		return blobError("delete", id, err)
	}
	return nil
}
