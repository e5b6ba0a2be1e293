package geocoder

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/mgfn/skycast/internal/config"
	"github.com/mgfn/skycast/internal/geo"
	"github.com/mgfn/skycast/internal/support/exception"
	"github.com/mgfn/skycast/internal/support/logger"
)

const moduleName = "geocoder"

// NominatimClient is a reverse-geocoding client for the Nominatim HTTP API.
type NominatimClient struct {
	baseURL   string
	language  string
	userAgent string
	client    *http.Client
}

var _ Geocoder = (*NominatimClient)(nil)

// NewNominatimClient builds a client from the application configuration.
func NewNominatimClient(cfg *config.Config) *NominatimClient {
	gc := cfg.Skycast.Geocoder
	return &NominatimClient{
		baseURL:   gc.BaseURL,
		language:  gc.Language,
		userAgent: gc.UserAgent,
		client:    &http.Client{Timeout: time.Duration(gc.TimeoutSeconds) * time.Second},
	}
}

type reverseResponse struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
}

// Resolve calls the /reverse endpoint and returns the display name for the
// coordinates. Every resolve failure classifies as unavailable: the
// workflow treats geocoding as a dependency it cannot proceed without, and
// retrying the whole request is the only recovery. Only coordinate misuse
// classifies differently.
func (c *NominatimClient) Resolve(ctx context.Context, coords geo.Coordinates) (string, error) {
	if err := coords.Validate(); err != nil {
		return "", err
	}
	query := url.Values{}
	query.Set("lat", strconv.FormatFloat(coords.Latitude, 'f', -1, 64))
	query.Set("lon", strconv.FormatFloat(coords.Longitude, 'f', -1, 64))
	query.Set("format", "jsonv2")
	if c.language != "" {
		query.Set("accept-language", c.language)
	}
	endpoint := fmt.Sprintf("%s/reverse?%s", c.baseURL, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", exception.New(exception.KindUnavailable, moduleName, "failed to build reverse request", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", exception.New(exception.KindUnavailable, moduleName, "reverse geocoding request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", exception.Newf(exception.KindUnavailable, moduleName,
			"reverse geocoding returned status %d", resp.StatusCode)
	}

	var body reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", exception.New(exception.KindUnavailable, moduleName, "failed to decode reverse response", err)
	}
	if body.Error != "" || body.DisplayName == "" {
		return "", exception.Newf(exception.KindUnavailable, moduleName,
			"no location resolved for %.4f,%.4f", coords.Latitude, coords.Longitude)
	}
	logger.Debugf("Resolved %.4f,%.4f to '%s'.", coords.Latitude, coords.Longitude, body.DisplayName)
	return body.DisplayName, nil
}
