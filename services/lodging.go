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

// homeCountry decides which default-cost bucket applies when every other
// tier has failed.
const homeCountry = "india"

// Country-tier defaults in INR per night / per person per day.
const (
	defaultHotelHome   = 2000.0
	defaultMealHome    = 600.0
	defaultHotelAbroad = 7000.0
	defaultMealAbroad  = 2100.0
)

// ─── Pricing API Client ───────────────────────────────────────────────────────

type PricingAPIClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewPricingAPIClient(apiKey, baseURL string) *PricingAPIClient {
	return &PricingAPIClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *PricingAPIClient) Configured() bool {
	return c != nil && c.apiKey != ""
}

// AveragePrice queries the external pricing API for a city and category
// ("hotel" or "meal"). The response shape is provider-specific, so the value
// is extracted defensively; anything missing counts as failure.
func (c *PricingAPIClient) AveragePrice(city, category string) (float64, error) {
	if !c.Configured() {
		return 0, fmt.Errorf("%w: pricing API key not configured", ErrPricingUnavailable)
	}

	reqURL := fmt.Sprintf("%s/v1/prices?city=%s&category=%s&apiKey=%s",
		c.baseURL, url.QueryEscape(city), url.QueryEscape(category), url.QueryEscape(c.apiKey))

	resp, err := c.httpClient.Get(reqURL)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPricingUnavailable, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: pricing error (%d)", ErrPricingUnavailable, resp.StatusCode)
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return 0, fmt.Errorf("%w: unparseable pricing response", ErrPricingUnavailable)
	}

	if v, ok := extractAveragePrice(payload); ok && v > 0 {
		return v, nil
	}
	return 0, fmt.Errorf("%w: no average price in response", ErrPricingUnavailable)
}

// extractAveragePrice digs for a usable average-price field at the top level
// or one level down under "data".
func extractAveragePrice(payload map[string]interface{}) (float64, bool) {
	for _, key := range []string{"average_price", "averagePrice", "avg_price"} {
		if v, ok := payload[key].(float64); ok {
			return v, true
		}
	}
	if data, ok := payload["data"].(map[string]interface{}); ok {
		return extractAveragePrice(data)
	}
	return 0, false
}

// ─── Lodging/Meal Resolver ────────────────────────────────────────────────────

// LodgingMealResolver resolves per-night hotel and per-day meal costs via a
// tiered chain: bundled dataset → pricing API → country default. It never
// fails; the last tier is a constant.
type LodgingMealResolver struct {
	data    *Datasets
	pricing *PricingAPIClient
}

func NewLodgingMealResolver(data *Datasets, pricing *PricingAPIClient) *LodgingMealResolver {
	return &LodgingMealResolver{data: data, pricing: pricing}
}

// costSource is one tier of the lodging/meal chain. ok=false means "try the
// next tier". The last tier in a chain always succeeds.
type costSource func(city, country string) (float64, bool)

func lookupCost(city, country string, sources []costSource) float64 {
	for _, source := range sources {
		if v, ok := source(city, country); ok {
			return v
		}
	}
	return 0
}

// HotelPerNight returns the nightly hotel cost in INR for the requested tier.
func (r *LodgingMealResolver) HotelPerNight(city, country string, tier AccommodationTier) float64 {
	return lookupCost(city, country, []costSource{
		r.hotelFromDataset(tier),
		r.fromPricingAPI("hotel"),
		countryDefault(defaultHotelHome, defaultHotelAbroad),
	})
}

// MealPerPersonPerDay returns the daily meal cost in INR for the requested tier.
func (r *LodgingMealResolver) MealPerPersonPerDay(city, country string, tier MealTier) float64 {
	return lookupCost(city, country, []costSource{
		r.mealFromDataset(tier),
		r.fromPricingAPI("meal"),
		countryDefault(defaultMealHome, defaultMealAbroad),
	})
}

func (r *LodgingMealResolver) hotelFromDataset(tier AccommodationTier) costSource {
	return func(city, _ string) (float64, bool) {
		profile, ok := r.data.CostProfile(city)
		if !ok {
			return 0, false
		}
		switch tier {
		case StayBudget:
			return profile.HotelBasic, true
		case StayLuxury:
			return profile.HotelLuxury, true
		default:
			return profile.HotelMedium, true
		}
	}
}

func (r *LodgingMealResolver) mealFromDataset(tier MealTier) costSource {
	return func(city, _ string) (float64, bool) {
		profile, ok := r.data.CostProfile(city)
		if !ok {
			return 0, false
		}
		switch tier {
		case MealBudget:
			return profile.MealsBasic, true
		case MealFine:
			return profile.MealsLuxury, true
		default:
			return profile.MealsMedium, true
		}
	}
}

func (r *LodgingMealResolver) fromPricingAPI(category string) costSource {
	return func(city, _ string) (float64, bool) {
		if !r.pricing.Configured() {
			return 0, false
		}
		price, err := r.pricing.AveragePrice(city, category)
		if err != nil {
			log.Printf("⚠️  %s pricing lookup failed for %q: %v, using country default", category, city, err)
			return 0, false
		}
		return round2(price), true
	}
}

func countryDefault(home, abroad float64) costSource {
	return func(_, country string) (float64, bool) {
		if isHomeCountry(country) {
			return home, true
		}
		return abroad, true
	}
}

// isHomeCountry treats unknown countries as home so unresolvable destinations
// get the conservative default bucket.
func isHomeCountry(country string) bool {
	return country == "" || normalizeCity(country) == homeCountry
}
