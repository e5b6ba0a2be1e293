package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"

	"github.com/mgfn/skycast/internal/config"
	"github.com/mgfn/skycast/internal/metrics"
	"github.com/mgfn/skycast/internal/support/logger"
)

// NewFiberApp builds the fiber application with all routes mounted.
func NewFiberApp(srv *Server) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "skycast",
		ErrorHandler:          ErrorHandler,
		DisableStartupMessage: true,
	})
	srv.Register(app)
	return app
}

// runServers starts the API listener and the metrics listener and shuts
// both down on stop, collecting their errors.
func runServers(lc fx.Lifecycle, app *fiber.App, cfg *config.Config, recorder *metrics.Recorder) {
	metricsServer := &http.Server{
		Addr: cfg.Skycast.Server.MetricsAddress,
		Handler: promhttp.HandlerFor(recorder.Registry(),
			promhttp.HandlerOpts{}),
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				logger.Infof("API listening on %s", cfg.Skycast.Server.Address)
				if err := app.Listen(cfg.Skycast.Server.Address); err != nil {
					logger.Errorf("API listener stopped: %v", err)
				}
			}()
			go func() {
				logger.Infof("Metrics listening on %s", metricsServer.Addr)
				if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Errorf("Metrics listener stopped: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			var result *multierror.Error
			if err := app.ShutdownWithContext(ctx); err != nil {
				result = multierror.Append(result, err)
			}
			if err := metricsServer.Shutdown(ctx); err != nil {
				result = multierror.Append(result, err)
			}
			return result.ErrorOrNil()
		},
	})
}

// Module provides the HTTP surface.
var Module = fx.Options(
	fx.Provide(NewServer),
	fx.Provide(NewFiberApp),
	fx.Invoke(runServers),
)
