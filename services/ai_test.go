package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSONEstimate(t *testing.T) {
	content := `Here is my estimate:
{"hotel_cost_per_night": 120, "meal_cost_per_person_per_day": 35, "insights": "Shoulder season keeps rates down.", "confidence": "high"}
Let me know if you need more detail.`

	est, err := parseJSONEstimate(content)
	require.NoError(t, err)
	assert.Equal(t, 120.0, est.HotelUSD)
	assert.Equal(t, 35.0, est.MealUSD)
	assert.Equal(t, "high", est.Confidence)
}

func TestParseJSONEstimateRejectsMissingFields(t *testing.T) {
	_, err := parseJSONEstimate(`{"hotel_cost_per_night": 120}`)
	assert.Error(t, err)

	_, err = parseJSONEstimate(`no json here at all`)
	assert.Error(t, err)
}

func TestParseRegexEstimate(t *testing.T) {
	content := `Hotel prices are around $150 per night, and a typical meal costs about 42 dollars.`

	est, err := parseRegexEstimate(content)
	require.NoError(t, err)
	assert.Equal(t, 150.0, est.HotelUSD)
	assert.Equal(t, 42.0, est.MealUSD)
	assert.Equal(t, "low", est.Confidence)
}

func TestParsePipelineFallsThroughToDefaults(t *testing.T) {
	est := parseEstimate("the model refused to answer")
	assert.Equal(t, defaultHotelUSD, est.HotelUSD)
	assert.Equal(t, defaultMealUSD, est.MealUSD)
	assert.Equal(t, "low", est.Confidence)
}

func TestDestinationMultiplier(t *testing.T) {
	assert.Equal(t, multiplierExpensive, destinationMultiplier("Zurich"))
	assert.Equal(t, multiplierExpensive, destinationMultiplier("downtown Tokyo"))
	assert.Equal(t, multiplierCheap, destinationMultiplier("Manali"))
	assert.Equal(t, multiplierCheap, destinationMultiplier("Hanoi, Vietnam"))
	assert.Equal(t, multiplierModerate, destinationMultiplier("Lisbon"))
}

func TestValidateEstimateKeepsInBandValues(t *testing.T) {
	parsed := parsedEstimate{HotelUSD: 100, MealUSD: 50, Insights: "ok", Confidence: "medium"}

	est := validateEstimate(parsed, "Lisbon", StayComfort, MealCasual)
	assert.Equal(t, round2(100*USDToINR), est.HotelCostPerNight)
	assert.Equal(t, round2(50*USDToINR), est.MealCostPerPersonPerDay)
}

func TestValidateEstimateReplacesOutOfBandWithMidpoint(t *testing.T) {
	// comfort hotel band is [40, 250]; 1000 is far outside
	parsed := parsedEstimate{HotelUSD: 1000, MealUSD: 50}

	est := validateEstimate(parsed, "Lisbon", StayComfort, MealCasual)

	midpoint := (40.0 + 250.0) / 2
	assert.Equal(t, round2(midpoint*USDToINR), est.HotelCostPerNight,
		"out-of-band values are replaced by the band midpoint, not clamped to the edge")
	assert.NotEqual(t, round2(250*USDToINR), est.HotelCostPerNight)
}

func TestValidateEstimateScalesBandsByDestination(t *testing.T) {
	// expensive destination: luxury band [150, 800] × 1.5 = [225, 1200]
	inBand := parsedEstimate{HotelUSD: 1100, MealUSD: 100}
	est := validateEstimate(inBand, "Zurich", StayLuxury, MealFine)
	assert.Equal(t, round2(1100*USDToINR), est.HotelCostPerNight)

	outOfBand := parsedEstimate{HotelUSD: 2000, MealUSD: 100}
	est = validateEstimate(outOfBand, "Zurich", StayLuxury, MealFine)
	midpoint := (150.0 + 800.0) / 2 * multiplierExpensive
	assert.Equal(t, round2(midpoint*USDToINR), est.HotelCostPerNight)
}

// chatStub serves an OpenAI-compatible chat completion returning content.
func chatStub(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]interface{}{
			"id":     "chatcmpl-test",
			"object": "chat.completion",
			"choices": []map[string]interface{}{
				{
					"index":         0,
					"message":       map[string]string{"role": "assistant", "content": content},
					"finish_reason": "stop",
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestEstimateCostsEndToEnd(t *testing.T) {
	srv := chatStub(t, `{"hotel_cost_per_night": 60, "meal_cost_per_person_per_day": 25, "insights": "Plenty of mid-range options.", "confidence": "medium"}`)
	defer srv.Close()

	est := NewAICostEstimator("test-key", srv.URL+"/v1", "test-model")
	result, err := est.EstimateCosts("Lisbon", StayComfort, MealCasual, "")
	require.NoError(t, err)

	assert.Equal(t, round2(60*USDToINR), result.HotelCostPerNight)
	assert.Equal(t, round2(25*USDToINR), result.MealCostPerPersonPerDay)
	assert.Equal(t, "medium", result.ConfidenceLabel)
	assert.Equal(t, "Plenty of mid-range options.", result.NarrativeInsights)
}

func TestEstimateCostsAbsorbsUnparseableResponse(t *testing.T) {
	srv := chatStub(t, "I cannot help with that.")
	defer srv.Close()

	est := NewAICostEstimator("test-key", srv.URL+"/v1", "test-model")
	result, err := est.EstimateCosts("Lisbon", StayComfort, MealCasual, "")
	require.NoError(t, err)

	// defaults pass through validation for the comfort/casual bands
	assert.Equal(t, round2(defaultHotelUSD*USDToINR), result.HotelCostPerNight)
	assert.Equal(t, round2(defaultMealUSD*USDToINR), result.MealCostPerPersonPerDay)
	assert.Equal(t, "low", result.ConfidenceLabel)
}

func TestEstimateCostsErrorsWhenServerDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	est := NewAICostEstimator("test-key", srv.URL+"/v1", "test-model")
	_, err := est.EstimateCosts("Lisbon", StayComfort, MealCasual, "")
	assert.Error(t, err)
}

func TestBuildCostPromptMentionsPreferences(t *testing.T) {
	prompt := buildCostPrompt("Lisbon", StayLuxury, MealFine, "traveling with kids")
	assert.Contains(t, prompt, "Lisbon")
	assert.Contains(t, prompt, "luxury")
	assert.Contains(t, prompt, "fine_dining")
	assert.Contains(t, prompt, "traveling with kids")
	assert.Contains(t, prompt, "hotel_cost_per_night")
}
