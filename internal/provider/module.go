package provider

import "go.uber.org/fx"

// Module provides the weather provider.
var Module = fx.Options(
	fx.Provide(fx.Annotate(NewOpenMeteoClient, fx.As(new(Provider)))),
)
