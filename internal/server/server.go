// Package server exposes the skycast HTTP API.
package server

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/mgfn/skycast/internal/geo"
	"github.com/mgfn/skycast/internal/service"
	"github.com/mgfn/skycast/internal/support/exception"
	"github.com/mgfn/skycast/internal/support/logger"
)

// Server holds the HTTP handlers.
type Server struct {
	forecasts *service.ForecastService
	files     *service.FileService
}

// NewServer creates the HTTP handler set.
func NewServer(forecasts *service.ForecastService, files *service.FileService) *Server {
	return &Server{forecasts: forecasts, files: files}
}

// Register mounts all routes on the app.
func (s *Server) Register(app *fiber.App) {
	api := app.Group("/api/weather")
	api.Post("/forecasts", s.createForecast)
	api.Post("/forecasts/by-city/:city", s.createForecastForCity)
	api.Get("/forecasts", s.listForecasts)
	api.Get("/forecasts/:id", s.getForecast)
	api.Delete("/forecasts/:id", s.deleteForecast)
	api.Get("/files/:id/download", s.downloadFile)
	api.Get("/cities", s.listCities)
}

// statusForKind maps error classifications to HTTP statuses. This is the
// only layer aware of HTTP status codes.
func statusForKind(kind exception.Kind) int {
	switch kind {
	case exception.KindInvalidArgument, exception.KindConstraintViolation:
		return fiber.StatusBadRequest
	case exception.KindNotFound:
		return fiber.StatusNotFound
	case exception.KindUnavailable:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandler renders any handler error as a JSON error body.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(fiber.Map{
			"error": fiber.Map{"kind": "HTTP", "message": fiberErr.Message},
		})
	}
	kind := exception.KindOf(err)
	status := statusForKind(kind)
	message := "internal error"
	var se *exception.ServiceError
	if errors.As(err, &se) {
		message = se.Message
	}
	if status >= fiber.StatusInternalServerError {
		logger.Errorf("Request %s %s failed: %v", c.Method(), c.Path(), err)
	} else {
		logger.Warnf("Request %s %s rejected: %v", c.Method(), c.Path(), err)
	}
	return c.Status(status).JSON(fiber.Map{
		"error": fiber.Map{"kind": kind.String(), "message": message},
	})
}

func parseID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, exception.New(exception.KindInvalidArgument, "server",
			"invalid id in path", err)
	}
	return id, nil
}

// sendAttachment writes the payload as a file download. The UTF-8 name
// goes in the RFC 5987 parameter with an ASCII fallback.
func sendAttachment(c *fiber.Ctx, name, contentType string, data []byte) error {
	fallback := "report" + filepath.Ext(name)
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(
		`attachment; filename="%s"; filename*=UTF-8''%s`, fallback, url.PathEscape(name)))
	return c.Send(data)
}

type coordinatesRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (s *Server) respondGeneration(c *fiber.Ctx, result *service.GenerateResult) error {
	if result.Report != nil {
		return sendAttachment(c, result.Report.FileName, result.Report.ContentType, result.Report.Data)
	}
	return c.Status(fiber.StatusOK).JSON(result.Forecast)
}

func (s *Server) createForecast(c *fiber.Ctx) error {
	var req coordinatesRequest
	if err := c.BodyParser(&req); err != nil {
		return exception.New(exception.KindInvalidArgument, "server", "invalid request body", err)
	}
	result, err := s.forecasts.Generate(c.UserContext(), geo.Coordinates{
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	})
	if err != nil {
		return err
	}
	return s.respondGeneration(c, result)
}

func (s *Server) createForecastForCity(c *fiber.Ctx) error {
	result, err := s.forecasts.GenerateForCity(c.UserContext(), c.Params("city"))
	if err != nil {
		return err
	}
	return s.respondGeneration(c, result)
}

func (s *Server) listForecasts(c *fiber.Ctx) error {
	page, err := s.forecasts.ListHistory(c.UserContext(), service.HistoryParams{
		Ordering:   c.Query("ordering"),
		Search:     c.Query("search"),
		PageNumber: c.QueryInt("page", 1),
		PageSize:   c.QueryInt("page_size", 10),
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"items":       page.Entities,
		"total_items": page.TotalItems,
		"total_pages": page.TotalPages,
	})
}

func (s *Server) getForecast(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	record, err := s.forecasts.GetHistory(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(record)
}

func (s *Server) deleteForecast(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := s.forecasts.DeleteHistory(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) downloadFile(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	file, data, err := s.files.Download(c.UserContext(), id)
	if err != nil {
		return err
	}
	return sendAttachment(c, file.Name, fiber.MIMEOctetStream, data)
}

func (s *Server) listCities(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"items": geo.Cities()})
}
