package service

import "go.uber.org/fx"

// Module provides the application services.
var Module = fx.Options(
	fx.Provide(NewFileService),
	fx.Provide(NewForecastService),
)
