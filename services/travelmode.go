package services

import "strings"

// TravelMode is a closed set; every pricing lookup switches exhaustively on it.
type TravelMode string

const (
	ModeBus    TravelMode = "bus"
	ModeTrain  TravelMode = "train"
	ModeFlight TravelMode = "flight"
)

// Domestic mode thresholds in kilometers. Policy constants, not derived.
const (
	busMaxKm   = 200.0
	trainMaxKm = 800.0
)

// ParseTravelMode maps a request string to a mode. Anything unrecognized
// (including "auto" and "") reports ok=false so the selector decides.
func ParseTravelMode(s string) (TravelMode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bus":
		return ModeBus, true
	case "train":
		return ModeTrain, true
	case "flight":
		return ModeFlight, true
	default:
		return "", false
	}
}

// SelectTravelMode picks a mode from distance and trip internationality.
// International trips always fly.
func SelectTravelMode(distanceKm float64, international bool) TravelMode {
	if international {
		return ModeFlight
	}
	switch {
	case distanceKm < busMaxKm:
		return ModeBus
	case distanceKm <= trainMaxKm:
		return ModeTrain
	default:
		return ModeFlight
	}
}

// AccommodationTier selects the hotel cost column and frames the AI prompt.
type AccommodationTier string

const (
	StayBudget  AccommodationTier = "budget"
	StayComfort AccommodationTier = "comfort"
	StayLuxury  AccommodationTier = "luxury"
)

func ParseAccommodationTier(s string) AccommodationTier {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "budget", "basic":
		return StayBudget
	case "luxury":
		return StayLuxury
	default:
		return StayComfort
	}
}

// MealTier selects the meal cost column and frames the AI prompt.
type MealTier string

const (
	MealBudget MealTier = "budget"
	MealCasual MealTier = "casual"
	MealFine   MealTier = "fine_dining"
)

func ParseMealTier(s string) MealTier {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "budget", "basic":
		return MealBudget
	case "fine_dining", "fine-dining", "luxury":
		return MealFine
	default:
		return MealCasual
	}
}
