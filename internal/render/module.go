package render

import "go.uber.org/fx"

// Module provides the report generator registry with all built-in formats.
var Module = fx.Options(
	fx.Provide(func() *Registry {
		return NewRegistry(NewXLSXGenerator())
	}),
)
