package services

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// geocodeStub serves a fixed geocoding result and counts how often it is hit.
func geocodeStub(t *testing.T, calls *int, lat, lng float64, country string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		fmt.Fprintf(w, `{"results":[{"lat":%f,"lng":%f,"country":%q}]}`, lat, lng, country)
	}))
}

func TestResolveBundledCityNeverCallsGeocoder(t *testing.T) {
	ds := loadTestDatasets(t)

	calls := 0
	srv := geocodeStub(t, &calls, 0, 0, "")
	defer srv.Close()

	resolver := NewCoordinateResolver(ds, NewGeocodingClient("key", srv.URL))

	// cost dataset hit
	coords, err := resolver.Resolve(" Delhi ")
	require.NoError(t, err)
	assert.InDelta(t, 28.6139, coords.Latitude, 0.0001)

	// coordinate dataset hit
	_, err = resolver.Resolve("Shimla")
	require.NoError(t, err)

	assert.Equal(t, 0, calls, "bundled cities must not trigger network lookups")
}

func TestResolveFallsBackToGeocoder(t *testing.T) {
	ds := loadTestDatasets(t)

	calls := 0
	srv := geocodeStub(t, &calls, 48.2082, 16.3738, "austria")
	defer srv.Close()

	resolver := NewCoordinateResolver(ds, NewGeocodingClient("key", srv.URL))

	coords, country, err := resolver.ResolvePlace("Vienna")
	require.NoError(t, err)
	assert.InDelta(t, 48.2082, coords.Latitude, 0.0001)
	assert.InDelta(t, 16.3738, coords.Longitude, 0.0001)
	assert.Equal(t, "austria", country)
	assert.Equal(t, 1, calls)
}

func TestResolvePlaceBundledCityCountry(t *testing.T) {
	ds := loadTestDatasets(t)
	resolver := NewCoordinateResolver(ds, NewGeocodingClient("", ""))

	_, country, err := resolver.ResolvePlace("Delhi")
	require.NoError(t, err)
	assert.Equal(t, "india", country)

	_, country, err = resolver.ResolvePlace("Paris")
	require.NoError(t, err)
	assert.Equal(t, "france", country)
}

func TestResolveUnknownCityWithoutCredential(t *testing.T) {
	ds := loadTestDatasets(t)
	resolver := NewCoordinateResolver(ds, NewGeocodingClient("", ""))

	_, err := resolver.Resolve("atlantis")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrResolution))
}

func TestResolveGeocoderZeroResults(t *testing.T) {
	ds := loadTestDatasets(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results":[]}`)
	}))
	defer srv.Close()

	resolver := NewCoordinateResolver(ds, NewGeocodingClient("key", srv.URL))

	_, err := resolver.Resolve("atlantis")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrResolution))
}

