package services

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flightAPIStub serves both the token and flight-offers endpoints, counting
// auth calls.
func flightAPIStub(t *testing.T, authCalls *int32, offersJSON string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/security/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(authCalls, 1)
		fmt.Fprint(w, `{"access_token":"tok-123","expires_in":1799}`)
	})
	mux.HandleFunc("/v2/shopping/flight-offers", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-123" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, offersJSON)
	})
	return httptest.NewServer(mux)
}

func TestTokenReusedWithinExpiryWindow(t *testing.T) {
	var authCalls int32
	srv := flightAPIStub(t, &authCalls,
		`{"data":[{"price":{"total":"100.00","currency":"USD"}}]}`)
	defer srv.Close()

	client := NewFlightPriceClient("id", "secret", srv.URL)

	_, ok := client.FetchFlightPrice("Delhi", "London", 1)
	require.True(t, ok)
	_, ok = client.FetchFlightPrice("Delhi", "London", 1)
	require.True(t, ok)

	assert.Equal(t, int32(1), atomic.LoadInt32(&authCalls),
		"second request inside the token window must reuse the cached token")
}

func TestTokenRefreshedNearExpiry(t *testing.T) {
	var authCalls int32
	srv := flightAPIStub(t, &authCalls,
		`{"data":[{"price":{"total":"100.00","currency":"USD"}}]}`)
	defer srv.Close()

	client := NewFlightPriceClient("id", "secret", srv.URL)

	_, ok := client.FetchFlightPrice("Delhi", "London", 1)
	require.True(t, ok)

	// Push the credential inside the 5-minute refresh margin.
	client.mu.Lock()
	client.tokenExpiry = time.Now().Add(time.Minute)
	client.mu.Unlock()

	_, ok = client.FetchFlightPrice("Delhi", "London", 1)
	require.True(t, ok)

	assert.Equal(t, int32(2), atomic.LoadInt32(&authCalls))
}

func TestAuthRejectionStopsFailover(t *testing.T) {
	rejecting := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_client"}`, http.StatusUnauthorized)
	}))
	defer rejecting.Close()

	var secondCalls int32
	second := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&secondCalls, 1)
		fmt.Fprint(w, `{"access_token":"tok-123","expires_in":1799}`)
	}))
	defer second.Close()

	client := NewFlightPriceClient("id", "bad-secret", rejecting.URL, second.URL)

	_, _, err := client.getValidToken()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAuth))
	assert.Equal(t, int32(0), atomic.LoadInt32(&secondCalls),
		"an explicit credential rejection must not try the next environment")
}

func TestServerErrorContinuesToNextEndpoint(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer failing.Close()

	var authCalls int32
	healthy := flightAPIStub(t, &authCalls, `{"data":[]}`)
	defer healthy.Close()

	client := NewFlightPriceClient("id", "secret", failing.URL, healthy.URL)

	token, base, err := client.getValidToken()
	require.NoError(t, err)
	assert.Equal(t, "tok-123", token)
	assert.Equal(t, healthy.URL, base)
}

func TestFetchFlightPriceAveragesAndConverts(t *testing.T) {
	var authCalls int32
	srv := flightAPIStub(t, &authCalls, `{"data":[
		{"price":{"total":"100.00","currency":"USD"}},
		{"price":{"total":"200.00","currency":"USD"}},
		{"price":{"total":"9000.00","currency":"INR"}}
	]}`)
	defer srv.Close()

	client := NewFlightPriceClient("id", "secret", srv.URL)

	price, ok := client.FetchFlightPrice("Delhi", "London", 2)
	require.True(t, ok)

	want := round2((100*83 + 200*83 + 9000) / 3.0)
	assert.Equal(t, want, price)
}

func TestFetchFlightPriceFailuresReturnFalse(t *testing.T) {
	// unconfigured client
	_, ok := NewFlightPriceClient("", "").FetchFlightPrice("Delhi", "London", 1)
	assert.False(t, ok)

	// zero offers
	var authCalls int32
	empty := flightAPIStub(t, &authCalls, `{"data":[]}`)
	defer empty.Close()
	_, ok = NewFlightPriceClient("id", "secret", empty.URL).FetchFlightPrice("Delhi", "London", 1)
	assert.False(t, ok)

	// offers endpoint down
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/security/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"access_token":"tok-123","expires_in":1799}`)
	})
	mux.HandleFunc("/v2/shopping/flight-offers", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	})
	broken := httptest.NewServer(mux)
	defer broken.Close()
	_, ok = NewFlightPriceClient("id", "secret", broken.URL).FetchFlightPrice("Delhi", "London", 1)
	assert.False(t, ok)
}

func TestTokenTTLDefaultsWhenAbsent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"access_token":"tok-123"}`)
	}))
	defer srv.Close()

	client := NewFlightPriceClient("id", "secret", srv.URL)
	_, _, err := client.getValidToken()
	require.NoError(t, err)

	client.mu.Lock()
	remaining := time.Until(client.tokenExpiry)
	client.mu.Unlock()
	assert.InDelta(t, float64(defaultTokenTTLSeconds), remaining.Seconds(), 5)
}

func TestAirportCodeFallbacks(t *testing.T) {
	assert.Equal(t, "DEL", airportCode("Delhi"))
	assert.Equal(t, "DEL", airportCode("New Delhi")) // substring match
	assert.Equal(t, "ATL", airportCode("Atlantis")) // 3-letter fallback
}
