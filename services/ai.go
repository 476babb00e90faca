package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// AiCostEstimate is the validated result of the LLM pipeline, in INR.
type AiCostEstimate struct {
	HotelCostPerNight       float64 `json:"hotel_cost_per_night"`
	MealCostPerPersonPerDay float64 `json:"meal_cost_per_person_per_day"`
	NarrativeInsights       string  `json:"narrative_insights"`
	ConfidenceLabel         string  `json:"confidence_label"`
}

// Fallback USD figures used when even regex extraction finds nothing.
const (
	defaultHotelUSD = 40.0
	defaultMealUSD  = 20.0
)

// ─── Estimator ────────────────────────────────────────────────────────────────

type AICostEstimator struct {
	client *openai.Client
	model  string
}

// NewAICostEstimator builds a chat-completion client. baseURL may point at
// any OpenAI-compatible endpoint; empty apiKey disables the estimator.
func NewAICostEstimator(apiKey, baseURL, model string) *AICostEstimator {
	if apiKey == "" {
		return nil
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &AICostEstimator{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

func (e *AICostEstimator) Configured() bool {
	return e != nil && e.client != nil
}

// EstimateCosts asks the LLM for destination costs and validates the answer.
// It errors only when the chat call itself fails; unparseable content is
// absorbed by the regex and default stages.
func (e *AICostEstimator) EstimateCosts(destination string, stay AccommodationTier, meals MealTier, extraContext string) (*AiCostEstimate, error) {
	if !e.Configured() {
		return nil, fmt.Errorf("ai estimator not configured")
	}

	resp, err := e.client.CreateChatCompletion(context.Background(), openai.ChatCompletionRequest{
		Model:       e.model,
		Temperature: 0.2, // low temperature keeps estimates stable
		MaxTokens:   400,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a travel cost analyst. Always answer with a single JSON object and nothing else.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildCostPrompt(destination, stay, meals, extraContext),
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty chat completion response")
	}

	parsed := parseEstimate(resp.Choices[0].Message.Content)
	return validateEstimate(parsed, destination, stay, meals), nil
}

func buildCostPrompt(destination string, stay AccommodationTier, meals MealTier, extraContext string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Estimate daily travel costs in USD for a trip to %s.\n", destination)
	fmt.Fprintf(&b, "Accommodation preference: %s. Dining preference: %s.\n", stay, meals)
	if extraContext != "" {
		fmt.Fprintf(&b, "Additional context: %s\n", extraContext)
	}
	b.WriteString(`Respond with JSON only, in this exact shape:
{"hotel_cost_per_night": <number>, "meal_cost_per_person_per_day": <number>, "insights": "<one or two sentences>", "confidence": "high|medium|low"}`)
	return b.String()
}

// ─── Parser Pipeline ──────────────────────────────────────────────────────────

// parsedEstimate is the intermediate result of a parser stage, in USD.
type parsedEstimate struct {
	HotelUSD   float64
	MealUSD    float64
	Insights   string
	Confidence string
}

// parseEstimate walks the three-stage pipeline: JSON block, regex extraction,
// fixed defaults. It always produces a result.
func parseEstimate(content string) parsedEstimate {
	if est, err := parseJSONEstimate(content); err == nil {
		return *est
	} else {
		log.Printf("⚠️  %v, trying regex extraction", err)
	}
	if est, err := parseRegexEstimate(content); err == nil {
		return *est
	} else {
		log.Printf("⚠️  %v, using default estimate", err)
	}
	return defaultEstimate()
}

type aiJSONPayload struct {
	HotelCostPerNight       float64 `json:"hotel_cost_per_night"`
	MealCostPerPersonPerDay float64 `json:"meal_cost_per_person_per_day"`
	Insights                string  `json:"insights"`
	Confidence              string  `json:"confidence"`
}

// parseJSONEstimate locates the first {...} block in the free-text response
// and decodes it.
func parseJSONEstimate(content string) (*parsedEstimate, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: no JSON block in response", ErrAIParse)
	}

	var payload aiJSONPayload
	if err := json.Unmarshal([]byte(content[start:end+1]), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAIParse, err)
	}
	if payload.HotelCostPerNight <= 0 || payload.MealCostPerPersonPerDay <= 0 {
		return nil, fmt.Errorf("%w: missing cost fields", ErrAIParse)
	}

	confidence := strings.ToLower(strings.TrimSpace(payload.Confidence))
	if confidence == "" {
		confidence = "medium"
	}
	return &parsedEstimate{
		HotelUSD:   payload.HotelCostPerNight,
		MealUSD:    payload.MealCostPerPersonPerDay,
		Insights:   payload.Insights,
		Confidence: confidence,
	}, nil
}

var (
	hotelAmountRe = regexp.MustCompile(`(?i)hotel[^0-9$]{0,40}\$?\s*([0-9]+(?:\.[0-9]+)?)`)
	mealAmountRe  = regexp.MustCompile(`(?i)meal[^0-9$]{0,40}\$?\s*([0-9]+(?:\.[0-9]+)?)`)
)

// parseRegexEstimate pulls the first numbers that appear near the words
// "hotel" and "meal".
func parseRegexEstimate(content string) (*parsedEstimate, error) {
	hotelMatch := hotelAmountRe.FindStringSubmatch(content)
	mealMatch := mealAmountRe.FindStringSubmatch(content)
	if hotelMatch == nil || mealMatch == nil {
		return nil, fmt.Errorf("%w: no hotel/meal amounts in response", ErrAIParse)
	}

	hotel, err1 := strconv.ParseFloat(hotelMatch[1], 64)
	meal, err2 := strconv.ParseFloat(mealMatch[1], 64)
	if err1 != nil || err2 != nil || hotel <= 0 || meal <= 0 {
		return nil, fmt.Errorf("%w: unusable hotel/meal amounts", ErrAIParse)
	}

	return &parsedEstimate{
		HotelUSD:   hotel,
		MealUSD:    meal,
		Insights:   "Costs extracted from an unstructured model response.",
		Confidence: "low",
	}, nil
}

func defaultEstimate() parsedEstimate {
	return parsedEstimate{
		HotelUSD:   defaultHotelUSD,
		MealUSD:    defaultMealUSD,
		Insights:   "Baseline estimate; the model response could not be interpreted.",
		Confidence: "low",
	}
}

// ─── Validation ───────────────────────────────────────────────────────────────

// costBand is a USD [min, max] range for one category tier.
type costBand struct {
	min, max float64
}

var hotelBands = map[AccommodationTier]costBand{
	StayBudget:  {10, 80},
	StayComfort: {40, 250},
	StayLuxury:  {150, 800},
}

var mealBands = map[MealTier]costBand{
	MealBudget: {5, 30},
	MealCasual: {15, 80},
	MealFine:   {50, 300},
}

// Destination classification for the cost-of-living multiplier, matched by
// substring against the lower-cased destination name.
var (
	expensiveDestinations = []string{
		"switzerland", "zurich", "geneva", "norway", "oslo", "iceland",
		"london", "paris", "new york", "tokyo", "singapore", "dubai", "sydney",
		"san francisco", "hong kong",
	}
	cheapDestinations = []string{
		"india", "delhi", "mumbai", "manali", "goa", "jaipur", "nepal",
		"kathmandu", "vietnam", "hanoi", "thailand", "bangkok", "bali",
		"cambodia", "sri lanka", "colombo",
	}
)

const (
	multiplierExpensive = 1.5
	multiplierModerate  = 1.0
	multiplierCheap     = 0.6
)

// destinationMultiplier scales the USD cost bands by destination class.
// Unlisted destinations are treated as moderate.
func destinationMultiplier(destination string) float64 {
	name := normalizeCity(destination)
	for _, d := range expensiveDestinations {
		if strings.Contains(name, d) {
			return multiplierExpensive
		}
	}
	for _, d := range cheapDestinations {
		if strings.Contains(name, d) {
			return multiplierCheap
		}
	}
	return multiplierModerate
}

// validateEstimate checks parsed values against the scaled band and converts
// to INR. An out-of-band value is replaced by the band midpoint, not the
// nearest edge.
func validateEstimate(parsed parsedEstimate, destination string, stay AccommodationTier, meals MealTier) *AiCostEstimate {
	m := destinationMultiplier(destination)

	hotel := bandCheck(parsed.HotelUSD, hotelBands[stay], m)
	meal := bandCheck(parsed.MealUSD, mealBands[meals], m)

	return &AiCostEstimate{
		HotelCostPerNight:       round2(hotel * USDToINR),
		MealCostPerPersonPerDay: round2(meal * USDToINR),
		NarrativeInsights:       parsed.Insights,
		ConfidenceLabel:         parsed.Confidence,
	}
}

func bandCheck(v float64, band costBand, multiplier float64) float64 {
	min := band.min * multiplier
	max := band.max * multiplier
	if v < min || v > max {
		return (band.min + band.max) / 2 * multiplier
	}
	return v
}
