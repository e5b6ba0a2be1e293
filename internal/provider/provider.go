// Package provider fetches weather forecasts from external services.
package provider

import (
	"context"
	"time"

	"github.com/mgfn/skycast/internal/geo"
)

// DailyForecast is one day of forecast data.
type DailyForecast struct {
	Date             time.Time `json:"date"`
	TemperatureMin   float64   `json:"temperature_min"`
	TemperatureMax   float64   `json:"temperature_max"`
	PrecipitationSum float64   `json:"precipitation_sum"`
	WindSpeedMax     float64   `json:"wind_speed_max"`
	WeatherCode      int       `json:"weather_code"`
}

// ForecastInfo is a provider response: the daily series and the timezone
// the dates are expressed in.
type ForecastInfo struct {
	Timezone string          `json:"timezone"`
	Days     []DailyForecast `json:"days"`
}

// Provider fetches a forecast for the given coordinates. A (nil, nil)
// return means the provider answered but had no usable data; errors are
// classified and left for the caller to absorb or propagate.
type Provider interface {
	Forecast(ctx context.Context, coords geo.Coordinates) (*ForecastInfo, error)
}
