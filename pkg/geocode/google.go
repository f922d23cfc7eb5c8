package geocode

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/district-cli/internal/resilience"
)

const defaultGoogleBaseURL = "https://maps.googleapis.com/maps/api/geocode/json"

// GoogleClient geocodes addresses with the Google Geocoding API.
type GoogleClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// GoogleOption configures the client.
type GoogleOption func(*GoogleClient)

// WithGoogleBaseURL overrides the API base URL.
func WithGoogleBaseURL(u string) GoogleOption {
	return func(c *GoogleClient) { c.baseURL = u }
}

// WithGoogleHTTPClient sets a custom HTTP client.
func WithGoogleHTTPClient(hc *http.Client) GoogleOption {
	return func(c *GoogleClient) { c.httpClient = hc }
}

// NewGoogleClient creates a Google geocoder client.
func NewGoogleClient(apiKey string, opts ...GoogleOption) *GoogleClient {
	c := &GoogleClient{
		baseURL:    defaultGoogleBaseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether an API key is present.
func (c *GoogleClient) Configured() bool { return c.apiKey != "" }

// googleResponse is the JSON response from the Geocoding API.
type googleResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
		FormattedAddress  string `json:"formatted_address"`
		AddressComponents []struct {
			LongName  string   `json:"long_name"`
			ShortName string   `json:"short_name"`
			Types     []string `json:"types"`
		} `json:"address_components"`
	} `json:"results"`
}

// Geocode resolves an address to coordinates and a standardized form.
// ZERO_RESULTS is not an error; other non-OK statuses are.
func (c *GoogleClient) Geocode(ctx context.Context, addr Address) (*Result, error) {
	if c.apiKey == "" {
		return nil, eris.New("geocode: google api key not configured")
	}

	params := url.Values{
		"address": {addr.OneLine()},
		"key":     {c.apiKey},
	}
	body, err := resilience.DoVal(ctx, resilience.DefaultPolicy(), "google geocode",
		func(ctx context.Context) ([]byte, error) {
			return fetchJSON(ctx, c.httpClient, c.baseURL+"?"+params.Encode(), "google")
		})
	if err != nil {
		return nil, err
	}

	var parsed googleResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, eris.Wrap(err, "geocode: google parse response")
	}

	switch parsed.Status {
	case "OK":
	case "ZERO_RESULTS":
		return &Result{Matched: false, Source: "google"}, nil
	default:
		return nil, eris.Errorf("geocode: google status %s", parsed.Status)
	}
	// Some responses report OK with an empty result set; treat as no match.
	if len(parsed.Results) == 0 {
		return &Result{Matched: false, Source: "google"}, nil
	}

	first := parsed.Results[0]
	std := Address{}
	var streetNumber, route string
	for _, comp := range first.AddressComponents {
		for _, t := range comp.Types {
			switch t {
			case "street_number":
				streetNumber = comp.LongName
			case "route":
				route = comp.ShortName
			case "locality":
				std.City = comp.LongName
			case "administrative_area_level_1":
				std.State = comp.ShortName
			case "postal_code":
				std.Zip = comp.LongName
			}
		}
	}
	std.Street = joinNonEmpty(streetNumber, route)
	if std.Street == "" {
		std = parseOneLine(first.FormattedAddress)
	}

	return &Result{
		Matched:      true,
		Latitude:     first.Geometry.Location.Lat,
		Longitude:    first.Geometry.Location.Lng,
		Standardized: std,
		Source:       "google",
	}, nil
}

func joinNonEmpty(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + " " + b
	}
}
