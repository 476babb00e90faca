package services

import (
	"log"
	"os"
	"sync"
)

// Cost-method labels reported to callers that asked for the AI path.
const (
	CostMethodAI  = "AI_POWERED"
	CostMethodCSV = "CSV_FALLBACK"
)

// ─── Request / Result ─────────────────────────────────────────────────────────

type EstimateRequest struct {
	Origin        string
	Destination   string
	Days          int
	Travelers     int
	Mode          string // "train", "bus", "flight" or "auto"/empty
	Accommodation AccommodationTier
	Meals         MealTier
	UseAI         bool
	AIContext     string
}

// CostEstimate is the aggregated result. All money values are INR and
// non-negative; nothing here is persisted by the pipeline itself.
type CostEstimate struct {
	DistanceKm float64    `json:"distance_km"`
	TravelCost float64    `json:"travel_cost"`
	HotelCost  float64    `json:"hotel_cost"`
	MealCost   float64    `json:"meal_cost"`
	TotalCost  float64    `json:"total_cost"`
	TravelMode TravelMode `json:"travel_mode"`
	TripType   string     `json:"trip_type"` // "domestic" | "international"

	// CostMethod is set only when the caller requested the AI path.
	CostMethod string `json:"cost_method,omitempty"`
	// AiInsights carries the narrative when the AI path produced the costs.
	AiInsights   string `json:"ai_insights,omitempty"`
	AiConfidence string `json:"ai_confidence,omitempty"`
}

// ─── Aggregator ───────────────────────────────────────────────────────────────

// TripCostEstimator chains the resolvers into a single estimate. Every
// sub-cost degrades to some numeric value; only city resolution can fail the
// whole request.
type TripCostEstimator struct {
	resolver *CoordinateResolver
	distance *DistanceCalculator
	flights  *FlightPriceClient
	lodging  *LodgingMealResolver
	ai       *AICostEstimator
}

func NewTripCostEstimator(
	resolver *CoordinateResolver,
	distance *DistanceCalculator,
	flights *FlightPriceClient,
	lodging *LodgingMealResolver,
	ai *AICostEstimator,
) *TripCostEstimator {
	return &TripCostEstimator{
		resolver: resolver,
		distance: distance,
		flights:  flights,
		lodging:  lodging,
		ai:       ai,
	}
}

func (e *TripCostEstimator) Estimate(req EstimateRequest) (*CostEstimate, error) {
	if req.Days < 1 {
		req.Days = 1
	}
	if req.Travelers < 1 {
		req.Travelers = 1
	}

	origin, originCountry, err := e.resolver.ResolvePlace(req.Origin)
	if err != nil {
		return nil, err
	}
	destination, destCountry, err := e.resolver.ResolvePlace(req.Destination)
	if err != nil {
		return nil, err
	}

	international := originCountry != "" && destCountry != "" &&
		originCountry != destCountry

	distanceKm := e.distance.DistanceKm(origin, destination)

	mode, explicit := ParseTravelMode(req.Mode)
	if !explicit {
		mode = SelectTravelMode(distanceKm, international)
	}

	travelCost := e.travelCost(req, distanceKm, mode, international)

	hotelPerNight, mealPerDay, costMethod, insights, confidence :=
		e.dailyCosts(req, destCountry)

	estimate := &CostEstimate{
		DistanceKm:   distanceKm,
		TravelCost:   travelCost,
		HotelCost:    round2(hotelPerNight * float64(req.Days)),
		MealCost:     round2(mealPerDay * float64(req.Days) * float64(req.Travelers)),
		TravelMode:   mode,
		TripType:     "domestic",
		CostMethod:   costMethod,
		AiInsights:   insights,
		AiConfidence: confidence,
	}
	if international {
		estimate.TripType = "international"
	}
	estimate.TotalCost = round2(estimate.TravelCost + estimate.HotelCost + estimate.MealCost)

	return estimate, nil
}

// travelCost prefers live flight prices for flights and falls back to the
// heuristic tables for everything else or on any flight-resolver failure.
func (e *TripCostEstimator) travelCost(req EstimateRequest, distanceKm float64, mode TravelMode, international bool) float64 {
	if mode == ModeFlight && e.flights.Configured() {
		if price, ok := e.flights.FetchFlightPrice(req.Origin, req.Destination, req.Travelers); ok {
			return price
		}
		log.Printf("⚠️  Live flight pricing unavailable for %s → %s, using heuristic fares",
			req.Origin, req.Destination)
	}
	return HeuristicTravelCost(distanceKm, req.Travelers, mode, international, req.Origin, req.Destination)
}

// dailyCosts resolves per-night hotel and per-day meal costs, via the AI
// estimator when requested and via the tiered lookup otherwise. The two
// lookups are independent, so the fallback path runs them concurrently.
func (e *TripCostEstimator) dailyCosts(req EstimateRequest, destCountry string) (hotel, meal float64, method, insights, confidence string) {
	if req.UseAI {
		if e.ai.Configured() {
			est, err := e.ai.EstimateCosts(req.Destination, req.Accommodation, req.Meals, req.AIContext)
			if err == nil {
				return est.HotelCostPerNight, est.MealCostPerPersonPerDay,
					CostMethodAI, est.NarrativeInsights, est.ConfidenceLabel
			}
			log.Printf("⚠️  AI cost estimate failed: %v, using reference data", err)
		}
		method = CostMethodCSV
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		hotel = e.lodging.HotelPerNight(req.Destination, destCountry, req.Accommodation)
	}()
	go func() {
		defer wg.Done()
		meal = e.lodging.MealPerPersonPerDay(req.Destination, destCountry, req.Meals)
	}()
	wg.Wait()

	return hotel, meal, method, "", ""
}

// ─── Service wiring ───────────────────────────────────────────────────────────

var estimator *TripCostEstimator

// InitEstimator wires every pipeline component from environment configuration.
// Missing credentials disable the corresponding enhancement tier; only the
// datasets are mandatory.
func InitEstimator() {
	data := GetDatasets()
	if data == nil {
		log.Fatal("❌ InitEstimator called before InitDatasets")
	}

	geocoder := NewGeocodingClient(
		os.Getenv("GEOCODING_API_KEY"),
		getEnvOr("GEOCODING_BASE_URL", "https://api.geoapify.com"))
	if !geocoder.Configured() {
		log.Println("⚠️  GEOCODING_API_KEY not set, only bundled cities can be resolved")
	}

	routing := NewRoutingClient(
		os.Getenv("ROUTING_API_KEY"),
		getEnvOr("ROUTING_BASE_URL", "https://graphhopper.com/api/1"))
	if !routing.Configured() {
		log.Println("⚠️  ROUTING_API_KEY not set, distances will use great-circle estimates")
	}

	flights := NewFlightPriceClient(
		os.Getenv("FLIGHT_CLIENT_ID"),
		os.Getenv("FLIGHT_CLIENT_SECRET"))
	if flights.Configured() {
		// Pre-warm the token so the first request does not pay for auth.
		if _, _, err := flights.getValidToken(); err != nil {
			log.Printf("⚠️  Flight token pre-warm failed: %v", err)
		} else {
			log.Println("✅ Flight API authenticated")
		}
	} else {
		log.Println("⚠️  FLIGHT_CLIENT_ID/SECRET not set, flight costs will use heuristic fares")
	}

	pricing := NewPricingAPIClient(
		os.Getenv("PRICING_API_KEY"),
		getEnvOr("PRICING_BASE_URL", "https://api.makcorps.com"))

	ai := NewAICostEstimator(
		os.Getenv("OPENAI_API_KEY"),
		os.Getenv("OPENAI_BASE_URL"),
		os.Getenv("OPENAI_MODEL"))
	if !ai.Configured() {
		log.Println("⚠️  OPENAI_API_KEY not set, AI estimates will fall back to reference data")
	}

	estimator = NewTripCostEstimator(
		NewCoordinateResolver(data, geocoder),
		NewDistanceCalculator(routing),
		flights,
		NewLodgingMealResolver(data, pricing),
		ai,
	)
	log.Println("✅ Trip cost estimator initialized")
}

func GetEstimator() *TripCostEstimator {
	return estimator
}
