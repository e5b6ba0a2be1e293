package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/mgfn/skycast/internal/config"
	"github.com/mgfn/skycast/internal/geo"
	"github.com/mgfn/skycast/internal/support/exception"
	"github.com/mgfn/skycast/internal/support/logger"
)

const moduleName = "provider"

// OpenMeteoClient fetches daily forecasts from the Open-Meteo API. Calls
// run through a circuit breaker so a struggling upstream fails fast
// instead of tying up request handlers.
type OpenMeteoClient struct {
	baseURL      string
	forecastDays int
	client       *http.Client
	breaker      *gobreaker.CircuitBreaker
}

var _ Provider = (*OpenMeteoClient)(nil)

// NewOpenMeteoClient builds a client from the application configuration.
func NewOpenMeteoClient(cfg *config.Config) *OpenMeteoClient {
	wc := cfg.Skycast.Weather
	return &OpenMeteoClient{
		baseURL:      wc.BaseURL,
		forecastDays: wc.ForecastDays,
		client:       &http.Client{Timeout: time.Duration(wc.TimeoutSeconds) * time.Second},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "open-meteo",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warnf("Circuit breaker '%s' changed state: %s -> %s", name, from, to)
			},
		}),
	}
}

type openMeteoResponse struct {
	Timezone string `json:"timezone"`
	Daily    struct {
		Time             []string  `json:"time"`
		TemperatureMin   []float64 `json:"temperature_2m_min"`
		TemperatureMax   []float64 `json:"temperature_2m_max"`
		PrecipitationSum []float64 `json:"precipitation_sum"`
		WindSpeedMax     []float64 `json:"wind_speed_10m_max"`
		WeatherCode      []int     `json:"weather_code"`
	} `json:"daily"`
}

// Forecast fetches the daily forecast for the coordinates. Transport
// failures and an open breaker classify as unavailable. A well-formed
// response with no days yields (nil, nil).
func (c *OpenMeteoClient) Forecast(ctx context.Context, coords geo.Coordinates) (*ForecastInfo, error) {
	if err := coords.Validate(); err != nil {
		return nil, err
	}
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.fetch(ctx, coords)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, exception.New(exception.KindUnavailable, moduleName, "weather provider circuit open", err)
		}
		return nil, err
	}
	return result.(*ForecastInfo), nil
}

func (c *OpenMeteoClient) fetch(ctx context.Context, coords geo.Coordinates) (*ForecastInfo, error) {
	query := url.Values{}
	query.Set("latitude", strconv.FormatFloat(coords.Latitude, 'f', -1, 64))
	query.Set("longitude", strconv.FormatFloat(coords.Longitude, 'f', -1, 64))
	query.Set("daily", "temperature_2m_min,temperature_2m_max,precipitation_sum,wind_speed_10m_max,weather_code")
	query.Set("forecast_days", strconv.Itoa(c.forecastDays))
	query.Set("timezone", "auto")
	endpoint := fmt.Sprintf("%s/forecast?%s", c.baseURL, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, exception.New(exception.KindInternalStorage, moduleName, "failed to build forecast request", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, exception.New(exception.KindUnavailable, moduleName, "forecast request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, exception.Newf(exception.KindUnavailable, moduleName,
			"weather provider returned status %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, exception.Newf(exception.KindInternalStorage, moduleName,
			"weather provider returned status %d", resp.StatusCode)
	}

	var body openMeteoResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, exception.New(exception.KindInternalStorage, moduleName, "failed to decode forecast response", err)
	}
	return c.convert(body)
}

// convert flattens the columnar response into the daily series. Columns of
// mismatched length are truncated to the shortest; an empty series means
// no usable forecast.
func (c *OpenMeteoClient) convert(body openMeteoResponse) (*ForecastInfo, error) {
	n := len(body.Daily.Time)
	for _, l := range []int{
		len(body.Daily.TemperatureMin),
		len(body.Daily.TemperatureMax),
		len(body.Daily.PrecipitationSum),
		len(body.Daily.WindSpeedMax),
		len(body.Daily.WeatherCode),
	} {
		if l < n {
			n = l
		}
	}
	if n == 0 {
		return nil, nil
	}
	info := &ForecastInfo{Timezone: body.Timezone, Days: make([]DailyForecast, 0, n)}
	for i := 0; i < n; i++ {
		date, err := time.Parse("2006-01-02", body.Daily.Time[i])
		if err != nil {
			return nil, exception.New(exception.KindInternalStorage, moduleName, "failed to parse forecast date", err)
		}
		info.Days = append(info.Days, DailyForecast{
			Date:             date,
			TemperatureMin:   body.Daily.TemperatureMin[i],
			TemperatureMax:   body.Daily.TemperatureMax[i],
			PrecipitationSum: body.Daily.PrecipitationSum[i],
			WindSpeedMax:     body.Daily.WindSpeedMax[i],
			WeatherCode:      body.Daily.WeatherCode[i],
		})
	}
	return info, nil
}
