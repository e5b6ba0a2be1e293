package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mgfn/skycast/internal/domain/entity"
	"github.com/mgfn/skycast/internal/geo"
	"github.com/mgfn/skycast/internal/metrics"
	"github.com/mgfn/skycast/internal/provider"
	"github.com/mgfn/skycast/internal/render"
	"github.com/mgfn/skycast/internal/repository"
	"github.com/mgfn/skycast/internal/service"
	"github.com/mgfn/skycast/internal/support/exception"
)

type stubGeocoder struct {
	name string
	err  error
}

func (s *stubGeocoder) Resolve(ctx context.Context, coords geo.Coordinates) (string, error) {
	return s.name, s.err
}

type stubProvider struct {
	info *provider.ForecastInfo
	err  error
}

func (s *stubProvider) Forecast(ctx context.Context, coords geo.Coordinates) (*provider.ForecastInfo, error) {
	return s.info, s.err
}

func sampleForecastInfo() *provider.ForecastInfo {
	return &provider.ForecastInfo{
		Timezone: "Europe/Moscow",
		Days: []provider.DailyForecast{
			{Date: time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC), TemperatureMin: 11, TemperatureMax: 19, WeatherCode: 3},
			{Date: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), TemperatureMin: 9, TemperatureMax: 17, WeatherCode: 61},
		},
	}
}

type forecastFixture struct {
	db        *gorm.DB
	blob      *repository.BlobRepository
	geocoder  *stubGeocoder
	provider  *stubProvider
	forecasts *service.ForecastService
}

func newForecastFixture(t *testing.T) *forecastFixture {
	t.Helper()
	db := newTestDB(t)
	blob := newBlobRepository(t)
	gc := &stubGeocoder{name: "Санкт-Петербург, Россия"}
	p := &stubProvider{info: sampleForecastInfo()}
	files := newFileService(t, db, blob)
	forecasts := service.NewForecastService(db, gc, p, render.NewRegistry(render.NewXLSXGenerator()),
		files, blob, metrics.NewRecorder())
	return &forecastFixture{db: db, blob: blob, geocoder: gc, provider: p, forecasts: forecasts}
}

func (f *forecastFixture) counts(t *testing.T) (forecasts, files int64) {
	t.Helper()
	require.NoError(t, f.db.Model(&entity.Forecast{}).Count(&forecasts).Error)
	require.NoError(t, f.db.Model(&entity.File{}).Count(&files).Error)
	return forecasts, files
}

var spbCoords = geo.Coordinates{Latitude: 59.9386, Longitude: 30.3141}

func TestGenerateProducesRecordAndReport(t *testing.T) {
	f := newForecastFixture(t)
	ctx := context.Background()

	result, err := f.forecasts.Generate(ctx, spbCoords)
	require.NoError(t, err)
	require.NotNil(t, result.Report)
	assert.True(t, strings.HasPrefix(result.Report.FileName, "Прогноз_"), "got %q", result.Report.FileName)
	assert.True(t, strings.HasSuffix(result.Report.FileName, ".xlsx"))
	assert.NotEmpty(t, result.Report.Data)

	record := result.Forecast
	assert.Equal(t, "Санкт-Петербург, Россия", record.Location)
	require.NotNil(t, record.FileID)

	forecasts, files := f.counts(t)
	assert.EqualValues(t, 1, forecasts)
	assert.EqualValues(t, 1, files)

	data, err := f.blob.Get(ctx, *record.FileID)
	require.NoError(t, err)
	assert.Equal(t, result.Report.Data, data)
}

func TestProviderFailureYieldsRecordWithoutFile(t *testing.T) {
	f := newForecastFixture(t)
	f.provider.info = nil
	f.provider.err = exception.Newf(exception.KindUnavailable, "provider", "upstream down")

	result, err := f.forecasts.Generate(context.Background(), spbCoords)
	require.NoError(t, err, "provider failure must be absorbed")
	assert.Nil(t, result.Report)
	assert.Nil(t, result.Forecast.FileID)

	forecasts, files := f.counts(t)
	assert.EqualValues(t, 1, forecasts)
	assert.Zero(t, files)
}

func TestProviderNoDataYieldsRecordWithoutFile(t *testing.T) {
	f := newForecastFixture(t)
	f.provider.info = nil

	result, err := f.forecasts.Generate(context.Background(), spbCoords)
	require.NoError(t, err)
	assert.Nil(t, result.Report)
	assert.Nil(t, result.Forecast.FileID)
}

func TestGeocoderFailureIsFatal(t *testing.T) {
	f := newForecastFixture(t)
	f.geocoder.err = exception.Newf(exception.KindUnavailable, "geocoder", "timeout")

	_, err := f.forecasts.Generate(context.Background(), spbCoords)
	require.Error(t, err)
	assert.True(t, exception.IsUnavailable(err))

	forecasts, files := f.counts(t)
	assert.Zero(t, forecasts, "no record may be written when geocoding fails")
	assert.Zero(t, files)
}

func TestGenerateRejectsOutOfRangeCoordinates(t *testing.T) {
	f := newForecastFixture(t)

	_, err := f.forecasts.Generate(context.Background(), geo.Coordinates{Latitude: 91, Longitude: 0})
	assert.True(t, exception.IsInvalidArgument(err))
}

func TestGenerateForCity(t *testing.T) {
	f := newForecastFixture(t)

	result, err := f.forecasts.GenerateForCity(context.Background(), "moscow")
	require.NoError(t, err)
	assert.InDelta(t, 55.7522, result.Forecast.Latitude, 0.0001)

	_, err = f.forecasts.GenerateForCity(context.Background(), "ATLANTIS")
	assert.True(t, exception.IsInvalidArgument(err))
}

func TestListHistoryOrderingAndSearch(t *testing.T) {
	f := newForecastFixture(t)
	ctx := context.Background()

	f.geocoder.name = "Москва, Россия"
	_, err := f.forecasts.Generate(ctx, geo.Coordinates{Latitude: 55.7522, Longitude: 37.6156})
	require.NoError(t, err)
	f.geocoder.name = "Санкт-Петербург, Россия"
	_, err = f.forecasts.Generate(ctx, spbCoords)
	require.NoError(t, err)

	page, err := f.forecasts.ListHistory(ctx, service.HistoryParams{})
	require.NoError(t, err)
	require.Len(t, page.Entities, 2)
	assert.Equal(t, "Санкт-Петербург, Россия", page.Entities[0].Location, "default ordering is newest first")
	require.NotNil(t, page.Entities[0].File, "history must eager-load the attached file")
	assert.EqualValues(t, 2, page.TotalItems)
	assert.EqualValues(t, 1, page.TotalPages)

	page, err = f.forecasts.ListHistory(ctx, service.HistoryParams{Search: "Москва"})
	require.NoError(t, err)
	require.Len(t, page.Entities, 1)
	assert.Equal(t, "Москва, Россия", page.Entities[0].Location)

	_, err = f.forecasts.ListHistory(ctx, service.HistoryParams{Ordering: "BOGUS"})
	assert.True(t, exception.IsInvalidArgument(err))
}

func TestDeleteHistoryCascadesToFileAndBlob(t *testing.T) {
	f := newForecastFixture(t)
	ctx := context.Background()

	result, err := f.forecasts.Generate(ctx, spbCoords)
	require.NoError(t, err)
	fileID := *result.Forecast.FileID

	require.NoError(t, f.forecasts.DeleteHistory(ctx, result.Forecast.ID))

	forecasts, files := f.counts(t)
	assert.Zero(t, forecasts)
	assert.Zero(t, files)
	_, err = f.blob.Get(ctx, fileID)
	assert.True(t, exception.IsNotFound(err))

	err = f.forecasts.DeleteHistory(ctx, result.Forecast.ID)
	assert.True(t, exception.IsNotFound(err))
}

func TestDeleteHistoryWithoutFile(t *testing.T) {
	f := newForecastFixture(t)
	f.provider.info = nil
	ctx := context.Background()

	result, err := f.forecasts.Generate(ctx, spbCoords)
	require.NoError(t, err)
	require.NoError(t, f.forecasts.DeleteHistory(ctx, result.Forecast.ID))

	forecasts, _ := f.counts(t)
	assert.Zero(t, forecasts)
}

func TestGetHistory(t *testing.T) {
	f := newForecastFixture(t)
	ctx := context.Background()

	result, err := f.forecasts.Generate(ctx, spbCoords)
	require.NoError(t, err)

	got, err := f.forecasts.GetHistory(ctx, result.Forecast.ID)
	require.NoError(t, err)
	assert.Equal(t, result.Forecast.Location, got.Location)

	_, err = f.forecasts.GetHistory(ctx, uuid.New())
	assert.True(t, exception.IsNotFound(err))
}
