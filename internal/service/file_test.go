package service_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	storageadapter "github.com/mgfn/skycast/internal/adapter/storage"
	storageconfig "github.com/mgfn/skycast/internal/adapter/storage/config"
	"github.com/mgfn/skycast/internal/adapter/storage/local"
	"github.com/mgfn/skycast/internal/config"
	"github.com/mgfn/skycast/internal/domain/entity"
	"github.com/mgfn/skycast/internal/metrics"
	"github.com/mgfn/skycast/internal/repository"
	"github.com/mgfn/skycast/internal/service"
	"github.com/mgfn/skycast/internal/support/exception"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entity.File{}, &entity.Forecast{}))
	return db
}

func newBlobRepository(t *testing.T) *repository.BlobRepository {
	t.Helper()
	conn, err := local.NewAdapter(storageconfig.StorageConfig{
		Type:       local.ProviderType,
		BucketName: "reports",
		BaseDir:    t.TempDir(),
	}, "reports")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return repository.NewBlobRepository(conn)
}

func newFileService(t *testing.T, db *gorm.DB, blob *repository.BlobRepository) *service.FileService {
	t.Helper()
	return service.NewFileService(db, blob, config.NewConfig(), metrics.NewRecorder())
}

func TestAddToSystemRejectsDisallowedExtension(t *testing.T) {
	db := newTestDB(t)
	files := newFileService(t, db, newBlobRepository(t))
	session := repository.NewSession(db)
	defer session.Close()

	for _, name := range []string{"report.exe", "report", "report.XLS"} {
		_, err := files.AddToSystem(context.Background(), session, name, []byte("x"), "application/octet-stream")
		assert.True(t, exception.IsInvalidArgument(err), "name %q must be rejected", name)
		assert.Contains(t, err.Error(), "xlsx", "rejection must name the allowed set")
	}
}

func TestAddToSystemAllowsAnythingWithoutAllowList(t *testing.T) {
	db := newTestDB(t)
	cfg := config.NewConfig()
	cfg.Skycast.Files.AllowedFormats = nil
	files := service.NewFileService(db, newBlobRepository(t), cfg, metrics.NewRecorder())

	session := repository.NewSession(db)
	file, err := files.AddToSystem(context.Background(), session, "dump.bin", []byte("x"), "application/octet-stream")
	require.NoError(t, err, "an empty allow-list must not restrict formats")
	require.NoError(t, session.Commit())
	assert.Equal(t, "dump.bin", file.Name)
}

func TestAddDownloadRoundTrip(t *testing.T) {
	db := newTestDB(t)
	blob := newBlobRepository(t)
	files := newFileService(t, db, blob)
	ctx := context.Background()
	payload := []byte("spreadsheet bytes")

	session := repository.NewSession(db)
	file, err := files.AddToSystem(ctx, session, "Прогноз_Москва_2026-08-31.xlsx", payload, "application/octet-stream")
	require.NoError(t, err)
	require.NoError(t, session.Commit())

	got, data, err := files.Download(ctx, file.ID)
	require.NoError(t, err)
	assert.Equal(t, "Прогноз_Москва_2026-08-31.xlsx", got.Name)
	assert.EqualValues(t, len(payload), got.Size)
	assert.Equal(t, payload, data)
}

func TestDownloadMissingFileIsNotFound(t *testing.T) {
	db := newTestDB(t)
	files := newFileService(t, db, newBlobRepository(t))

	_, _, err := files.Download(context.Background(), uuid.New())
	assert.True(t, exception.IsNotFound(err))
}

func TestDropFromSystemRemovesRecordAndBlob(t *testing.T) {
	db := newTestDB(t)
	blob := newBlobRepository(t)
	files := newFileService(t, db, blob)
	ctx := context.Background()

	session := repository.NewSession(db)
	file, err := files.AddToSystem(ctx, session, "report.xlsx", []byte("data"), "application/octet-stream")
	require.NoError(t, err)
	require.NoError(t, session.Commit())

	require.NoError(t, files.DropFromSystem(ctx, file.ID))

	_, err = files.Get(ctx, file.ID)
	assert.True(t, exception.IsNotFound(err))
	_, err = blob.Get(ctx, file.ID)
	assert.True(t, exception.IsNotFound(err))

	err = files.DropFromSystem(ctx, file.ID)
	assert.True(t, exception.IsNotFound(err))
}

// brokenConnection fails every upload, for rollback coverage.
type brokenConnection struct{}

func (brokenConnection) Upload(ctx context.Context, bucket, objectName string, data io.Reader, contentType string) error {
	return errors.New("upload failed")
}
func (brokenConnection) Download(ctx context.Context, bucket, objectName string) (io.ReadCloser, error) {
	return nil, storageadapter.ErrObjectNotExist
}
func (brokenConnection) DeleteObject(ctx context.Context, bucket, objectName string) error {
	return storageadapter.ErrObjectNotExist
}
func (brokenConnection) Close() error { return nil }
func (brokenConnection) Type() string { return "broken" }
func (brokenConnection) Name() string { return "broken" }

func TestUploadFailureRollsBackRecord(t *testing.T) {
	db := newTestDB(t)
	files := newFileService(t, db, repository.NewBlobRepository(brokenConnection{}))
	session := repository.NewSession(db)
	defer session.Close()

	_, err := files.AddToSystem(context.Background(), session, "report.xlsx", []byte("data"), "application/octet-stream")
	require.Error(t, err)
	assert.False(t, session.Active(), "failed upload must roll the session back")

	var count int64
	require.NoError(t, db.Model(&entity.File{}).Count(&count).Error)
	assert.Zero(t, count, "no file record may outlive a missing blob")
}
