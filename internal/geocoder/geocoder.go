// Package geocoder resolves coordinates to a human-readable location name.
package geocoder

import (
	"context"

	"github.com/mgfn/skycast/internal/geo"
)

// Geocoder resolves coordinates into a display name. Resolution failures
// are fatal to forecast generation, so implementations return classified
// errors rather than absorbing them.
type Geocoder interface {
	Resolve(ctx context.Context, coords geo.Coordinates) (string, error)
}
