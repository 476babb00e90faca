package services

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"
)

// ─── Geocoding Client ─────────────────────────────────────────────────────────

type GeocodingClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewGeocodingClient(apiKey, baseURL string) *GeocodingClient {
	return &GeocodingClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *GeocodingClient) Configured() bool {
	return c != nil && c.apiKey != ""
}

type geocodeResponse struct {
	Results []struct {
		Lat     float64 `json:"lat"`
		Lng     float64 `json:"lng"`
		Country string  `json:"country"`
	} `json:"results"`
}

// Geocode resolves a free-text query to the first result's coordinates and
// country. Zero results is an error.
func (c *GeocodingClient) Geocode(query string) (lat, lng float64, country string, err error) {
	if !c.Configured() {
		return 0, 0, "", fmt.Errorf("geocoding API key not configured")
	}

	reqURL := fmt.Sprintf("%s/v1/geocode/search?text=%s&limit=1&apiKey=%s",
		c.baseURL, url.QueryEscape(query), url.QueryEscape(c.apiKey))

	resp, err := c.httpClient.Get(reqURL)
	if err != nil {
		return 0, 0, "", fmt.Errorf("geocoding request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return 0, 0, "", fmt.Errorf("geocoding error (%d): %s", resp.StatusCode, string(body))
	}

	var result geocodeResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return 0, 0, "", fmt.Errorf("failed to parse geocoding response: %w", err)
	}
	if len(result.Results) == 0 {
		return 0, 0, "", fmt.Errorf("geocoding returned no results for %q", query)
	}

	first := result.Results[0]
	return first.Lat, first.Lng, first.Country, nil
}

// ─── Coordinate Resolver ──────────────────────────────────────────────────────

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// CoordinateResolver resolves city names through a tiered chain:
// cost dataset → coordinate dataset → geocoding API. The datasets are checked
// first so cities bundled with the service never cost a network call.
type CoordinateResolver struct {
	data     *Datasets
	geocoder *GeocodingClient
}

func NewCoordinateResolver(data *Datasets, geocoder *GeocodingClient) *CoordinateResolver {
	return &CoordinateResolver{data: data, geocoder: geocoder}
}

// coordinateSource is one tier of the resolution chain, yielding coordinates
// and the country when the tier knows it. ok=false means "try the next tier".
type coordinateSource func(city string) (Coordinates, string, bool)

// sources returns the resolution tiers in fallback order. The order is a
// data structure, not control flow; the first hit wins.
func (r *CoordinateResolver) sources() []coordinateSource {
	return []coordinateSource{
		r.fromCostDataset,
		r.fromCoordinateDataset,
		r.fromGeocoder,
	}
}

// ResolvePlace returns coordinates and the country for a city name in any
// case, trimmed or not. A non-bundled city costs exactly one geocoding call;
// the response carries both pieces. The geocoder is called with the original
// name; the datasets use the normalized one.
func (r *CoordinateResolver) ResolvePlace(city string) (Coordinates, string, error) {
	for _, source := range r.sources() {
		if coords, country, ok := source(city); ok {
			return coords, country, nil
		}
	}
	if !r.geocoder.Configured() {
		return Coordinates{}, "", fmt.Errorf("%w: %q (no geocoding credential configured)", ErrResolution, city)
	}
	return Coordinates{}, "", fmt.Errorf("%w: %q", ErrResolution, city)
}

// Resolve returns just the coordinates for a city name.
func (r *CoordinateResolver) Resolve(city string) (Coordinates, error) {
	coords, _, err := r.ResolvePlace(city)
	return coords, err
}

func (r *CoordinateResolver) fromCostDataset(city string) (Coordinates, string, bool) {
	profile, ok := r.data.CostProfile(city)
	return Coordinates{Latitude: profile.Latitude, Longitude: profile.Longitude},
		cityCountries[normalizeCity(city)], ok
}

func (r *CoordinateResolver) fromCoordinateDataset(city string) (Coordinates, string, bool) {
	coord, ok := r.data.Coordinates(city)
	return Coordinates{Latitude: coord.Latitude, Longitude: coord.Longitude},
		cityCountries[normalizeCity(city)], ok
}

func (r *CoordinateResolver) fromGeocoder(city string) (Coordinates, string, bool) {
	if !r.geocoder.Configured() {
		return Coordinates{}, "", false
	}
	lat, lng, country, err := r.geocoder.Geocode(city)
	if err != nil {
		log.Printf("⚠️  Geocoding failed for %q: %v", city, err)
		return Coordinates{}, "", false
	}
	return Coordinates{Latitude: lat, Longitude: lng}, normalizeCity(country), true
}

// cityCountries covers every city in the bundled datasets so domestic trips
// between them never need a reverse geocode. An empty country means unknown;
// trip-type derivation treats unknown as domestic.
var cityCountries = map[string]string{
	"delhi": "india", "manali": "india", "mumbai": "india", "goa": "india",
	"jaipur": "india", "agra": "india", "bangalore": "india", "chennai": "india",
	"kolkata": "india", "hyderabad": "india", "leh": "india", "shimla": "india",
	"rishikesh": "india", "udaipur": "india", "amritsar": "india", "kochi": "india",
	"pune": "india", "ahmedabad": "india", "varanasi": "india", "jodhpur": "india",
	"darjeeling": "india", "ooty": "india", "munnar": "india",

	"paris": "france", "london": "united kingdom", "dubai": "united arab emirates",
	"new york": "united states", "tokyo": "japan", "bangkok": "thailand",
	"singapore": "singapore", "rome": "italy", "berlin": "germany",
	"istanbul": "turkey", "bali": "indonesia", "kathmandu": "nepal",
	"colombo": "sri lanka", "hanoi": "vietnam", "zurich": "switzerland",
}
