package geocoder

import "go.uber.org/fx"

// Module provides the reverse geocoder.
var Module = fx.Options(
	fx.Provide(fx.Annotate(NewNominatimClient, fx.As(new(Geocoder)))),
)
