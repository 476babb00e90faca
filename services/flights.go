package services

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Default OAuth/offers environments, tried in order. The test environment is
// free-tier and preferred; production is the failover.
var defaultFlightEndpoints = []string{
	"https://test.api.amadeus.com",
	"https://api.amadeus.com",
}

// Refresh the token when it is within this margin of expiry.
const tokenRefreshMargin = 5 * time.Minute

// Provider TTL to assume when the token response omits expires_in.
const defaultTokenTTLSeconds = 1799

// ─── Flight Price Client ──────────────────────────────────────────────────────

// FlightPriceClient holds the single process-wide token credential.
// The token is the only shared mutable state in the pipeline; all access
// goes through the mutex.
type FlightPriceClient struct {
	clientID     string
	clientSecret string
	endpoints    []string

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
	activeBase  string // endpoint the current token was issued by

	httpClient *http.Client
}

func NewFlightPriceClient(clientID, clientSecret string, endpoints ...string) *FlightPriceClient {
	if len(endpoints) == 0 {
		endpoints = defaultFlightEndpoints
	}
	return &FlightPriceClient{
		clientID:     clientID,
		clientSecret: clientSecret,
		endpoints:    endpoints,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *FlightPriceClient) Configured() bool {
	return c != nil && c.clientID != "" && c.clientSecret != ""
}

// ─── OAuth2 Token ─────────────────────────────────────────────────────────────

// refreshToken performs the client-credentials exchange against each endpoint
// in order. An explicit credential rejection aborts the failover chain;
// timeouts and 5xx move on to the next endpoint.
func (c *FlightPriceClient) refreshToken() error {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)

	var lastErr error
	for _, base := range c.endpoints {
		req, err := http.NewRequest("POST",
			base+"/v1/security/oauth2/token",
			strings.NewReader(form.Encode()))
		if err != nil {
			lastErr = err
			continue
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			var result struct {
				AccessToken string `json:"access_token"`
				ExpiresIn   int    `json:"expires_in"`
			}
			if err := json.Unmarshal(body, &result); err != nil {
				lastErr = fmt.Errorf("failed to parse token response: %w", err)
				continue
			}
			ttl := result.ExpiresIn
			if ttl <= 0 {
				ttl = defaultTokenTTLSeconds
			}
			c.accessToken = result.AccessToken
			c.tokenExpiry = time.Now().Add(time.Duration(ttl) * time.Second)
			c.activeBase = base
			return nil

		case resp.StatusCode == http.StatusBadRequest ||
			resp.StatusCode == http.StatusUnauthorized ||
			resp.StatusCode == http.StatusForbidden:
			// Credentials refused; the other environment will refuse them too.
			return fmt.Errorf("%w: %s (%d): %s", ErrAuth, base, resp.StatusCode, string(body))

		default:
			lastErr = fmt.Errorf("token request to %s failed (%d): %s", base, resp.StatusCode, string(body))
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no token endpoints configured")
	}
	return lastErr
}

// getValidToken returns the cached token unless it is missing or within the
// refresh margin of expiry, in which case it performs one refresh.
func (c *FlightPriceClient) getValidToken() (string, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Until(c.tokenExpiry) > tokenRefreshMargin {
		return c.accessToken, c.activeBase, nil
	}
	if err := c.refreshToken(); err != nil {
		return "", "", err
	}
	return c.accessToken, c.activeBase, nil
}

// ─── Flight Offers ────────────────────────────────────────────────────────────

type flightOffersResponse struct {
	Data []struct {
		Price struct {
			Total    string `json:"total"`
			Currency string `json:"currency"`
		} `json:"price"`
	} `json:"data"`
}

// FetchFlightPrice queries live flight offers for a departure 30 days out and
// averages the offer prices in INR. It never fails the request: any error is
// logged and reported as ok=false so the caller can use the heuristic pricer.
func (c *FlightPriceClient) FetchFlightPrice(originCity, destCity string, travelers int) (float64, bool) {
	if !c.Configured() {
		return 0, false
	}

	token, base, err := c.getValidToken()
	if err != nil {
		log.Printf("⚠️  Flight auth failed: %v", err)
		return 0, false
	}

	origin := airportCode(originCity)
	dest := airportCode(destCity)
	departure := time.Now().AddDate(0, 0, 30).Format("2006-01-02")

	path := fmt.Sprintf(
		"%s/v2/shopping/flight-offers?originLocationCode=%s&destinationLocationCode=%s&departureDate=%s&adults=%d&max=5",
		base, url.QueryEscape(origin), url.QueryEscape(dest), departure, travelers)

	req, err := http.NewRequest("GET", path, nil)
	if err != nil {
		return 0, false
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("⚠️  Flight offers request failed: %v", err)
		return 0, false
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		log.Printf("⚠️  Flight offers error (%d): %s", resp.StatusCode, string(body))
		return 0, false
	}

	var offers flightOffersResponse
	if err := json.Unmarshal(body, &offers); err != nil {
		log.Printf("⚠️  Failed to parse flight offers: %v", err)
		return 0, false
	}
	if len(offers.Data) == 0 {
		return 0, false
	}

	total := 0.0
	counted := 0
	for _, offer := range offers.Data {
		price, err := strconv.ParseFloat(offer.Price.Total, 64)
		if err != nil || price <= 0 {
			continue
		}
		total += toINR(price, offer.Price.Currency)
		counted++
	}
	if counted == 0 {
		return 0, false
	}

	return round2(total / float64(counted)), true
}

// ─── Static Tables ────────────────────────────────────────────────────────────

// currencyToINR is a fixed conversion table; rates are configuration
// constants, not live data.
var currencyToINR = map[string]float64{
	"INR": 1,
	"USD": 83,
	"EUR": 90,
	"GBP": 105,
	"AED": 22.6,
	"SGD": 61.5,
	"JPY": 0.55,
	"THB": 2.3,
	"CHF": 94,
}

func toINR(amount float64, currency string) float64 {
	if rate, ok := currencyToINR[strings.ToUpper(currency)]; ok {
		return amount * rate
	}
	// Unknown currencies are assumed USD, the provider's usual default.
	return amount * currencyToINR["USD"]
}

// cityAirports maps lower-cased city names to IATA codes.
var cityAirports = map[string]string{
	"delhi":     "DEL",
	"mumbai":    "BOM",
	"bangalore": "BLR",
	"chennai":   "MAA",
	"kolkata":   "CCU",
	"hyderabad": "HYD",
	"goa":       "GOI",
	"jaipur":    "JAI",
	"kochi":     "COK",
	"pune":      "PNQ",
	"ahmedabad": "AMD",
	"amritsar":  "ATQ",
	"varanasi":  "VNS",
	"leh":       "IXL",
	"london":    "LHR",
	"paris":     "CDG",
	"new york":  "JFK",
	"dubai":     "DXB",
	"tokyo":     "HND",
	"bangkok":   "BKK",
	"singapore": "SIN",
	"rome":      "FCO",
	"berlin":    "BER",
	"istanbul":  "IST",
	"zurich":    "ZRH",
	"bali":      "DPS",
	"kathmandu": "KTM",
	"colombo":   "CMB",
	"hanoi":     "HAN",
}

// airportCode maps a city to an airport code: exact match, then substring
// match, then the first three letters of the name upper-cased.
func airportCode(city string) string {
	name := normalizeCity(city)
	if code, ok := cityAirports[name]; ok {
		return code
	}
	for known, code := range cityAirports {
		if strings.Contains(name, known) || strings.Contains(known, name) {
			return code
		}
	}
	letters := strings.ToUpper(strings.ReplaceAll(name, " ", ""))
	if len(letters) >= 3 {
		return letters[:3]
	}
	return letters
}
