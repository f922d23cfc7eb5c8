package geocode

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/district-cli/internal/resilience"
)

const defaultCensusBaseURL = "https://geocoding.geo.census.gov/geocoder"

// CensusClient geocodes addresses with the Census one-line API.
type CensusClient struct {
	baseURL    string
	benchmark  string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// CensusOption configures the client.
type CensusOption func(*CensusClient)

// WithCensusBaseURL overrides the API base URL.
func WithCensusBaseURL(u string) CensusOption {
	return func(c *CensusClient) { c.baseURL = u }
}

// WithCensusBenchmark sets the geocoding benchmark.
func WithCensusBenchmark(b string) CensusOption {
	return func(c *CensusClient) { c.benchmark = b }
}

// WithCensusHTTPClient sets a custom HTTP client.
func WithCensusHTTPClient(hc *http.Client) CensusOption {
	return func(c *CensusClient) { c.httpClient = hc }
}

// WithCensusRateLimit sets the requests-per-second limit.
func WithCensusRateLimit(rps float64) CensusOption {
	return func(c *CensusClient) { c.limiter = rate.NewLimiter(rate.Limit(rps), int(rps)) }
}

// NewCensusClient creates a Census geocoder client.
func NewCensusClient(opts ...CensusOption) *CensusClient {
	c := &CensusClient{
		baseURL:    defaultCensusBaseURL,
		benchmark:  "Public_AR_Current",
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(50, 50), // Census allows 50 req/s
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// censusResponse is the JSON response from the one-line address API.
type censusResponse struct {
	Result struct {
		AddressMatches []struct {
			Coordinates struct {
				X float64 `json:"x"` // longitude
				Y float64 `json:"y"` // latitude
			} `json:"coordinates"`
			MatchedAddress string `json:"matchedAddress"`
		} `json:"addressMatches"`
	} `json:"result"`
}

// Geocode resolves an address to coordinates and a standardized form.
// An unmatched address is not an error.
func (c *CensusClient) Geocode(ctx context.Context, addr Address) (*Result, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "geocode: census rate limit")
	}

	params := url.Values{
		"address":   {addr.OneLine()},
		"benchmark": {c.benchmark},
		"format":    {"json"},
	}
	reqURL := c.baseURL + "/locations/onelineaddress?" + params.Encode()

	body, err := resilience.DoVal(ctx, resilience.DefaultPolicy(), "census geocode",
		func(ctx context.Context) ([]byte, error) {
			return fetchJSON(ctx, c.httpClient, reqURL, "census")
		})
	if err != nil {
		return nil, err
	}

	var parsed censusResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, eris.Wrap(err, "geocode: census parse response")
	}

	if len(parsed.Result.AddressMatches) == 0 {
		return &Result{Matched: false, Source: "census"}, nil
	}

	match := parsed.Result.AddressMatches[0]
	return &Result{
		Matched:      true,
		Latitude:     match.Coordinates.Y,
		Longitude:    match.Coordinates.X,
		Standardized: parseOneLine(match.MatchedAddress),
		Source:       "census",
	}, nil
}
