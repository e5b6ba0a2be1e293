package geocoder_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgfn/skycast/internal/config"
	"github.com/mgfn/skycast/internal/geo"
	"github.com/mgfn/skycast/internal/geocoder"
	"github.com/mgfn/skycast/internal/support/exception"
)

func newClient(baseURL string) *geocoder.NominatimClient {
	cfg := config.NewConfig()
	cfg.Skycast.Geocoder.BaseURL = baseURL
	cfg.Skycast.Geocoder.Language = "ru"
	cfg.Skycast.Geocoder.TimeoutSeconds = 2
	return geocoder.NewNominatimClient(cfg)
}

var moscow = geo.Coordinates{Latitude: 55.7522, Longitude: 37.6156}

func TestResolveReturnsDisplayName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		assert.Equal(t, "ru", r.URL.Query().Get("accept-language"))
		assert.NotEmpty(t, r.URL.Query().Get("lat"))
		w.Write([]byte(`{"display_name": "Москва, Центральный федеральный округ, Россия"}`))
	}))
	defer srv.Close()

	name, err := newClient(srv.URL).Resolve(context.Background(), moscow)
	require.NoError(t, err)
	assert.Equal(t, "Москва, Центральный федеральный округ, Россия", name)
}

func TestResolveUnknownLocationIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error": "Unable to geocode"}`))
	}))
	defer srv.Close()

	_, err := newClient(srv.URL).Resolve(context.Background(), moscow)
	assert.True(t, exception.IsUnavailable(err), "got %v", err)
}

func TestResolveNonOKStatusIsUnavailable(t *testing.T) {
	for _, status := range []int{http.StatusTooManyRequests, http.StatusForbidden, http.StatusBadGateway} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))
		_, err := newClient(srv.URL).Resolve(context.Background(), moscow)
		srv.Close()
		assert.True(t, exception.IsUnavailable(err), "status %d must classify as unavailable, got %v", status, err)
	}
}

func TestResolveConnectionRefusedIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := newClient(srv.URL).Resolve(context.Background(), moscow)
	assert.True(t, exception.IsUnavailable(err))
}

func TestResolveRejectsInvalidCoordinates(t *testing.T) {
	_, err := newClient("http://unused.invalid").Resolve(context.Background(),
		geo.Coordinates{Latitude: -95, Longitude: 0})
	assert.True(t, exception.IsInvalidArgument(err))
}
