package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/mgfn/skycast/internal/domain/entity"
	"github.com/mgfn/skycast/internal/geo"
	"github.com/mgfn/skycast/internal/geocoder"
	"github.com/mgfn/skycast/internal/metrics"
	"github.com/mgfn/skycast/internal/provider"
	"github.com/mgfn/skycast/internal/render"
	"github.com/mgfn/skycast/internal/repository"
	"github.com/mgfn/skycast/internal/support/exception"
	"github.com/mgfn/skycast/internal/support/logger"
)

const moduleForecast = "service.forecast"

// History ordering keys accepted by ListHistory.
const (
	OrderLocationAsc   = "LOCATION_ASC"
	OrderLocationDesc  = "LOCATION_DESC"
	OrderCreatedAtAsc  = "CREATED_AT_ASC"
	OrderCreatedAtDesc = "CREATED_AT_DESC"
)

// historyOrderings is the fixed table of history orderings. Location
// orderings break ties by recency so equal locations list newest first.
var historyOrderings = map[string][]repository.OrderExpr{
	OrderLocationAsc: {
		{Column: "location", Direction: repository.Asc},
		{Column: "created_at", Direction: repository.Desc},
	},
	OrderLocationDesc: {
		{Column: "location", Direction: repository.Desc},
		{Column: "created_at", Direction: repository.Desc},
	},
	OrderCreatedAtAsc:  {{Column: "created_at", Direction: repository.Asc}},
	OrderCreatedAtDesc: {{Column: "created_at", Direction: repository.Desc}},
}

// GenerateResult is the outcome of one generation attempt: the history
// record, and the rendered report when the attempt produced one.
type GenerateResult struct {
	Forecast *entity.Forecast
	Report   *render.Report
}

// HistoryParams shape a history listing.
type HistoryParams struct {
	Ordering   string
	Search     string
	PageNumber int
	PageSize   int
}

// ForecastService orchestrates forecast generation and owns the history.
type ForecastService struct {
	db       *gorm.DB
	geocoder geocoder.Geocoder
	provider provider.Provider
	reports  *render.Registry
	files    *FileService
	blob     *repository.BlobRepository
	recorder *metrics.Recorder
	tracer   trace.Tracer
	now      func() time.Time
}

// NewForecastService creates the forecast service.
func NewForecastService(db *gorm.DB, gc geocoder.Geocoder, p provider.Provider, reports *render.Registry, files *FileService, blob *repository.BlobRepository, recorder *metrics.Recorder) *ForecastService {
	return &ForecastService{
		db:       db,
		geocoder: gc,
		provider: p,
		reports:  reports,
		files:    files,
		blob:     blob,
		recorder: recorder,
		tracer:   otel.Tracer("skycast/forecast"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Generate runs one generation attempt for the coordinates. Geocoding and
// persistence failures abort the attempt; a weather provider failure is
// absorbed and yields a record without a file. Record and file become
// durable in a single commit.
func (s *ForecastService) Generate(ctx context.Context, coords geo.Coordinates) (*GenerateResult, error) {
	started := s.now()
	ctx, span := s.tracer.Start(ctx, "forecast.generate", trace.WithAttributes(
		attribute.Float64("geo.latitude", coords.Latitude),
		attribute.Float64("geo.longitude", coords.Longitude),
	))
	defer span.End()

	result, err := s.generate(ctx, coords)
	elapsed := s.now().Sub(started)
	switch {
	case err != nil:
		span.RecordError(err)
		s.recorder.ObserveGeneration(metrics.OutcomeFailed, elapsed)
	case result.Report != nil:
		s.recorder.ObserveGeneration(metrics.OutcomeWithFile, elapsed)
	default:
		s.recorder.ObserveGeneration(metrics.OutcomeWithoutFile, elapsed)
	}
	return result, err
}

func (s *ForecastService) generate(ctx context.Context, coords geo.Coordinates) (*GenerateResult, error) {
	if err := coords.Validate(); err != nil {
		return nil, err
	}

	geoCtx, geoSpan := s.tracer.Start(ctx, "forecast.geocode")
	location, err := s.geocoder.Resolve(geoCtx, coords)
	geoSpan.End()
	if err != nil {
		return nil, err
	}

	session := repository.NewSession(s.db)
	defer session.Close()
	repo := repository.New[entity.Forecast](session)

	record := &entity.Forecast{
		Location:  location,
		Latitude:  coords.Latitude,
		Longitude: coords.Longitude,
	}
	if err := repo.Create(ctx, record); err != nil {
		return nil, err
	}

	provCtx, provSpan := s.tracer.Start(ctx, "forecast.fetch")
	info, err := s.provider.Forecast(provCtx, coords)
	if err != nil {
		provSpan.RecordError(err)
		logger.Warnf("Weather provider failed for '%s', keeping record without file: %v", location, err)
		info = nil
	}
	provSpan.End()

	result := &GenerateResult{Forecast: record}
	if info != nil {
		report, file, err := s.renderAndStore(ctx, session, location, info)
		if err != nil {
			_ = session.Rollback()
			return nil, err
		}
		if err := repo.Update(ctx, record, map[string]interface{}{"file_id": file.ID}); err != nil {
			return nil, err
		}
		record.FileID = &file.ID
		record.File = file
		result.Report = report
	}

	if err := session.Commit(); err != nil {
		return nil, err
	}
	logger.Infof("Generated forecast '%s' for '%s' (file: %v).", record.ID, location, record.FileID != nil)
	return result, nil
}

func (s *ForecastService) renderAndStore(ctx context.Context, session *repository.Session, location string, info *provider.ForecastInfo) (*render.Report, *entity.File, error) {
	_, renderSpan := s.tracer.Start(ctx, "forecast.render")
	defer renderSpan.End()

	gen, err := s.reports.Get(render.FormatXLSX)
	if err != nil {
		return nil, nil, err
	}
	report, err := gen.Render(location, s.now(), info)
	if err != nil {
		return nil, nil, err
	}
	file, err := s.files.AddToSystem(ctx, session, report.FileName, report.Data, report.ContentType)
	if err != nil {
		return nil, nil, err
	}
	return report, file, nil
}

// GenerateForCity runs a generation attempt for a preset city. An unknown
// city code is caller misuse.
func (s *ForecastService) GenerateForCity(ctx context.Context, code string) (*GenerateResult, error) {
	city, ok := geo.CityByCode(code)
	if !ok {
		return nil, exception.Newf(exception.KindInvalidArgument, moduleForecast,
			"unknown city code '%s'", code)
	}
	return s.Generate(ctx, city.Coordinates)
}

// ListHistory returns one page of the generation history. Search matches
// the location case-insensitively; the ordering key must come from the
// fixed table, defaulting to newest first.
func (s *ForecastService) ListHistory(ctx context.Context, params HistoryParams) (repository.Page[entity.Forecast], error) {
	if params.Ordering == "" {
		params.Ordering = OrderCreatedAtDesc
	}
	if params.PageNumber == 0 {
		params.PageNumber = 1
	}
	if params.PageSize == 0 {
		params.PageSize = 10
	}
	session := repository.NewSession(s.db)
	defer session.Close()
	repo := repository.New[entity.Forecast](session)
	return repo.GetPaginatedList(ctx, repository.Spec{
		Ordering:         params.Ordering,
		OrderExpressions: historyOrderings,
		Search:           params.Search,
		SearchFields:     []string{"location"},
		Preloads:         []string{"File"},
		PageNumber:       params.PageNumber,
		PageSize:         params.PageSize,
	})
}

// GetHistory reads one history record by id. Absence is a not-found
// failure.
func (s *ForecastService) GetHistory(ctx context.Context, id uuid.UUID) (*entity.Forecast, error) {
	session := repository.NewSession(s.db)
	defer session.Close()
	repo := repository.New[entity.Forecast](session)
	record, err := repo.Get(ctx, repository.GetOptions{ID: &id, Preloads: []string{"File"}})
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, exception.Newf(exception.KindNotFound, moduleForecast, "forecast '%s' not found", id)
	}
	return record, nil
}

// DeleteHistory removes a history record and cascades to its file. Both
// record deletes commit together; the blob goes last, after the commit,
// and a blob already gone is tolerated.
func (s *ForecastService) DeleteHistory(ctx context.Context, id uuid.UUID) error {
	session := repository.NewSession(s.db)
	defer session.Close()
	repo := repository.New[entity.Forecast](session)

	record, err := repo.Get(ctx, repository.GetOptions{ID: &id})
	if err != nil {
		return err
	}
	if record == nil {
		return exception.Newf(exception.KindNotFound, moduleForecast, "forecast '%s' not found", id)
	}
	if err := repo.Delete(ctx, &id); err != nil {
		return err
	}
	if record.FileID != nil {
		fileRepo := repository.New[entity.File](session)
		if err := fileRepo.Delete(ctx, record.FileID); err != nil {
			return err
		}
	}
	if err := session.Commit(); err != nil {
		return err
	}
	if record.FileID != nil {
		if err := s.blob.Delete(ctx, *record.FileID); err != nil {
			if exception.IsNotFound(err) {
				logger.Warnf("Blob of file '%s' (forecast '%s') was already absent.", *record.FileID, id)
			} else {
				return err
			}
		}
	}
	logger.Infof("Deleted forecast '%s'.", id)
	return nil
}
