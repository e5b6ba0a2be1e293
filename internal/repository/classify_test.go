package repository_test

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mgfn/skycast/internal/domain/entity"
	"github.com/mgfn/skycast/internal/repository"
	"github.com/mgfn/skycast/internal/support/exception"
)

func TestConnectivityLossClassifiesUnavailable(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	db, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: mockDB}), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	mock.ExpectBegin().WillReturnError(&net.OpError{Op: "dial", Err: errors.New("connection refused")})

	session := repository.NewSession(db)
	repo := repository.New[entity.Forecast](session)
	record := forecastAt("Москва", time.Now().UTC())
	err = repo.Create(context.Background(), &record)
	require.Error(t, err)
	assert.True(t, exception.IsUnavailable(err), "got %v", err)
	assert.True(t, exception.IsRetryable(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDuplicateKeyClassifiesConstraintViolation(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	id := uuid.New()

	session := repository.NewSession(db)
	defer session.Close()
	repo := repository.New[entity.File](session)
	require.NoError(t, repo.Create(ctx, &entity.File{ID: id, Name: "a.xlsx", Size: 1}))

	err := repo.Create(ctx, &entity.File{ID: id, Name: "b.xlsx", Size: 1})
	require.Error(t, err)
	assert.True(t, exception.IsConstraintViolation(err), "got %v", err)
	assert.False(t, session.Active(), "failed operation must roll the session back")
}
