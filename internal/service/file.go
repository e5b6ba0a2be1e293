// Package service implements the application workflows of skycast on top
// of the repository layer.
package service

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mgfn/skycast/internal/config"
	"github.com/mgfn/skycast/internal/domain/entity"
	"github.com/mgfn/skycast/internal/metrics"
	"github.com/mgfn/skycast/internal/repository"
	"github.com/mgfn/skycast/internal/support/exception"
	"github.com/mgfn/skycast/internal/support/logger"
)

const moduleFile = "service.file"

// FileService manages report files: the metadata record and the blob
// payload as one logical unit.
type FileService struct {
	db       *gorm.DB
	blob     *repository.BlobRepository
	allowed  []string
	recorder *metrics.Recorder
}

// NewFileService creates the file service.
func NewFileService(db *gorm.DB, blob *repository.BlobRepository, cfg *config.Config, recorder *metrics.Recorder) *FileService {
	return &FileService{
		db:       db,
		blob:     blob,
		allowed:  cfg.Skycast.Files.AllowedFormats,
		recorder: recorder,
	}
}

// validateName checks the file extension against the allowed formats.
// An empty allow-list means no restriction.
func (s *FileService) validateName(name string) error {
	if len(s.allowed) == 0 {
		return nil
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if ext == "" {
		return exception.Newf(exception.KindInvalidArgument, moduleFile,
			"file name '%s' has no extension (allowed: %s)", name, strings.Join(s.allowed, ", "))
	}
	for _, allowed := range s.allowed {
		if ext == strings.ToLower(allowed) {
			return nil
		}
	}
	return exception.Newf(exception.KindInvalidArgument, moduleFile,
		"file extension '%s' is not allowed (allowed: %s)", ext, strings.Join(s.allowed, ", "))
}

// AddToSystem creates the file record in the caller's session and uploads
// the payload. The record stays pending until the caller commits; an
// upload failure rolls the session back so no record outlives a missing
// blob.
func (s *FileService) AddToSystem(ctx context.Context, session *repository.Session, name string, data []byte, contentType string) (*entity.File, error) {
	if err := s.validateName(name); err != nil {
		return nil, err
	}
	file := &entity.File{Name: name, Size: int64(len(data))}
	repo := repository.New[entity.File](session)
	if err := repo.Create(ctx, file); err != nil {
		return nil, err
	}
	if err := s.blob.Upload(ctx, file.ID, data, contentType); err != nil {
		_ = session.Rollback()
		return nil, err
	}
	logger.Debugf("Added file '%s' (%d bytes) as '%s'.", name, file.Size, file.ID)
	return file, nil
}

// Get reads the file record by id. Absence is a not-found failure.
func (s *FileService) Get(ctx context.Context, id uuid.UUID) (*entity.File, error) {
	session := repository.NewSession(s.db)
	defer session.Close()
	return s.get(ctx, repository.New[entity.File](session), id)
}

func (s *FileService) get(ctx context.Context, repo *repository.Repository[entity.File], id uuid.UUID) (*entity.File, error) {
	file, err := repo.Get(ctx, repository.GetOptions{ID: &id})
	if err != nil {
		return nil, err
	}
	if file == nil {
		return nil, exception.Newf(exception.KindNotFound, moduleFile, "file '%s' not found", id)
	}
	return file, nil
}

// Download reads the file record and its payload.
func (s *FileService) Download(ctx context.Context, id uuid.UUID) (*entity.File, []byte, error) {
	file, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	data, err := s.blob.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	s.recorder.ObserveDownload()
	return file, data, nil
}

// DropFromSystem deletes the file record and then its blob. The record
// delete commits first; a blob already gone is tolerated so a retried drop
// converges.
func (s *FileService) DropFromSystem(ctx context.Context, id uuid.UUID) error {
	session := repository.NewSession(s.db)
	defer session.Close()
	repo := repository.New[entity.File](session)
	if _, err := s.get(ctx, repo, id); err != nil {
		return err
	}
	if err := repo.Delete(ctx, &id); err != nil {
		return err
	}
	if err := session.Commit(); err != nil {
		return err
	}
	if err := s.blob.Delete(ctx, id); err != nil {
		if exception.IsNotFound(err) {
			logger.Warnf("Blob for file '%s' was already absent.", id)
			return nil
		}
		return err
	}
	logger.Debugf("Dropped file '%s'.", id)
	return nil
}
