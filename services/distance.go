package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"time"
)

const (
	earthRadiusKm = 6371.0
	// roadFactor approximates road distance from the great-circle distance
	// when the routing service is unavailable.
	roadFactor = 1.3
)

// ─── Routing Client ───────────────────────────────────────────────────────────

type RoutingClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewRoutingClient(apiKey, baseURL string) *RoutingClient {
	return &RoutingClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (c *RoutingClient) Configured() bool {
	return c != nil && c.apiKey != ""
}

type routeRequest struct {
	Points  [][]float64 `json:"points"` // [lon, lat] pairs
	Profile string      `json:"profile"`
}

type routeResponse struct {
	Paths []struct {
		Distance float64 `json:"distance"` // meters
	} `json:"paths"`
}

// RouteDistanceKm asks the routing service for road distance between two
// points using the car profile.
func (c *RoutingClient) RouteDistanceKm(from, to Coordinates) (float64, error) {
	if !c.Configured() {
		return 0, fmt.Errorf("%w: routing API key not configured", ErrRouting)
	}

	reqBody, err := json.Marshal(routeRequest{
		Points: [][]float64{
			{from.Longitude, from.Latitude},
			{to.Longitude, to.Latitude},
		},
		Profile: "car",
	})
	if err != nil {
		return 0, err
	}

	resp, err := c.httpClient.Post(
		fmt.Sprintf("%s/route?key=%s", c.baseURL, c.apiKey),
		"application/json",
		bytes.NewBuffer(reqBody))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRouting, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: routing error (%d): %s", ErrRouting, resp.StatusCode, string(body))
	}

	var result routeResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return 0, fmt.Errorf("%w: failed to parse route response: %v", ErrRouting, err)
	}
	if len(result.Paths) == 0 {
		return 0, fmt.Errorf("%w: no route found", ErrRouting)
	}

	return result.Paths[0].Distance / 1000.0, nil
}

// ─── Distance Calculator ──────────────────────────────────────────────────────

// DistanceCalculator prefers road distance from the routing service and falls
// back to corrected great-circle distance. No retry beyond the single fallback.
type DistanceCalculator struct {
	routing *RoutingClient
}

func NewDistanceCalculator(routing *RoutingClient) *DistanceCalculator {
	return &DistanceCalculator{routing: routing}
}

func (d *DistanceCalculator) DistanceKm(from, to Coordinates) float64 {
	if d.routing.Configured() {
		km, err := d.routing.RouteDistanceKm(from, to)
		if err == nil {
			return round2(km)
		}
		log.Printf("⚠️  Routing failed: %v, using great-circle estimate", err)
	}
	return round2(HaversineKm(from, to) * roadFactor)
}

// HaversineKm computes the great-circle distance between two coordinates.
func HaversineKm(from, to Coordinates) float64 {
	lat1 := from.Latitude * math.Pi / 180
	lat2 := to.Latitude * math.Pi / 180
	dLat := (to.Latitude - from.Latitude) * math.Pi / 180
	dLon := (to.Longitude - from.Longitude) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
