package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeuristicTrainFare(t *testing.T) {
	// short-haul tier: (0.5 × 250 × 2) + (30 × 2) = 310, no surcharge
	cost := HeuristicTravelCost(250, 2, ModeTrain, false, "Ooty", "Munnar")
	assert.Equal(t, 310.0, cost)

	// 300 km crosses into the 0.7/50 tier (bucket bounds are exclusive)
	cost = HeuristicTravelCost(300, 1, ModeTrain, false, "Ooty", "Munnar")
	assert.Equal(t, 0.7*300+50.0, cost)
}

func TestHeuristicExpensiveCitySurcharge(t *testing.T) {
	base := HeuristicTravelCost(250, 2, ModeTrain, false, "Ooty", "Munnar")

	// "Delhi" matches the expensive set: +100 per traveler domestic
	cost := HeuristicTravelCost(250, 2, ModeTrain, false, "Delhi", "Munnar")
	assert.Equal(t, base+200, cost)

	// substring match counts too
	cost = HeuristicTravelCost(250, 2, ModeTrain, false, "New Delhi", "Munnar")
	assert.Equal(t, base+200, cost)
}

func TestHeuristicInternationalFares(t *testing.T) {
	// <3000 km: 4/km + 1500 per traveler
	cost := HeuristicTravelCost(2500, 1, ModeFlight, true, "Kochi", "Colombo")
	assert.Equal(t, 4*2500+1500.0, cost)

	// >=6000 km tier with international surcharge (500 × 2)
	cost = HeuristicTravelCost(7000, 2, ModeFlight, true, "Delhi", "London")
	assert.Equal(t, (8*7000+3000+500)*2.0, cost)
}

func TestHeuristicDomesticFlightAndBus(t *testing.T) {
	// domestic flight 1200 km: 3/km + 400
	cost := HeuristicTravelCost(1200, 1, ModeFlight, false, "Kochi", "Varanasi")
	assert.Equal(t, 3*1200+400.0, cost)

	// bus over 300 km: 1.0/km + 40
	cost = HeuristicTravelCost(350, 1, ModeBus, false, "Ooty", "Munnar")
	assert.Equal(t, 350+40.0, cost)
}

func TestHeuristicDeterminism(t *testing.T) {
	first := HeuristicTravelCost(873.21, 3, ModeTrain, false, "Pune", "Varanasi")
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, HeuristicTravelCost(873.21, 3, ModeTrain, false, "Pune", "Varanasi"))
	}
}

func TestIsExpensiveCity(t *testing.T) {
	assert.True(t, isExpensiveCity("Mumbai"))
	assert.True(t, isExpensiveCity("  new york city "))
	assert.False(t, isExpensiveCity("Ooty"))
}
