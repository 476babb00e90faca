package services

import (
	"math"
	"strings"
)

// ─── Fare Tables ──────────────────────────────────────────────────────────────

// fareTier is one distance bucket of the pricing policy. maxKm is exclusive;
// the last tier of each table uses +Inf.
type fareTier struct {
	maxKm     float64
	ratePerKm float64
	overhead  float64 // fixed cost per traveler
}

// Pricing policy tables in INR. Policy constants, not calibrated against
// live fares.
var (
	internationalFares = []fareTier{
		{3000, 4, 1500},
		{6000, 6, 2000},
		{math.Inf(1), 8, 3000},
	}
	domesticTrainFares = []fareTier{
		{300, 0.5, 30},
		{1000, 0.7, 50},
		{math.Inf(1), 0.9, 80},
	}
	domesticBusFares = []fareTier{
		{300, 0.8, 20},
		{math.Inf(1), 1.0, 40},
	}
	domesticFlightFares = []fareTier{
		{500, 4, 300},
		{1500, 3, 400},
		{math.Inf(1), 2.5, 500},
	}
)

// Per-traveler surcharge applied when either endpoint is an expensive city.
const (
	surchargeInternational = 500.0
	surchargeDomestic      = 100.0
)

// expensiveCities is matched by substring against lower-cased city names.
// Kept as an explicit table so the heuristic stays independently testable.
var expensiveCities = []string{
	"mumbai", "delhi", "bangalore",
	"new york", "london", "paris", "tokyo", "singapore", "dubai",
	"zurich", "geneva", "sydney", "san francisco",
}

func isExpensiveCity(city string) bool {
	name := normalizeCity(city)
	for _, e := range expensiveCities {
		if strings.Contains(name, e) {
			return true
		}
	}
	return false
}

func pickTier(tiers []fareTier, distanceKm float64) fareTier {
	for _, t := range tiers {
		if distanceKm < t.maxKm {
			return t
		}
	}
	return tiers[len(tiers)-1]
}

// ─── Heuristic Travel Pricer ──────────────────────────────────────────────────

// HeuristicTravelCost computes a deterministic one-way travel cost:
// (rate × distance × travelers) + (overhead × travelers) + (surcharge × travelers).
func HeuristicTravelCost(distanceKm float64, travelers int, mode TravelMode, international bool, origin, destination string) float64 {
	var tier fareTier
	if international {
		tier = pickTier(internationalFares, distanceKm)
	} else {
		switch mode {
		case ModeTrain:
			tier = pickTier(domesticTrainFares, distanceKm)
		case ModeBus:
			tier = pickTier(domesticBusFares, distanceKm)
		case ModeFlight:
			tier = pickTier(domesticFlightFares, distanceKm)
		}
	}

	surcharge := 0.0
	if isExpensiveCity(origin) || isExpensiveCity(destination) {
		surcharge = surchargeDomestic
		if international {
			surcharge = surchargeInternational
		}
	}

	t := float64(travelers)
	cost := tier.ratePerKm*distanceKm*t + tier.overhead*t + surcharge*t
	return round2(cost)
}
