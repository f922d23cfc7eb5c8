// Package geocode provides thin HTTP clients for the Census and Google
// geocoders. Clients return raw provider results; district attachment and
// caching happen in the validator layer.
package geocode

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/district-cli/internal/resilience"
)

// Address is a structured US postal address.
type Address struct {
	Street string `json:"street"`
	City   string `json:"city"`
	State  string `json:"state"`
	Zip    string `json:"zip"`
}

// OneLine formats the address for single-line geocoder inputs.
func (a Address) OneLine() string {
	parts := []string{a.Street, a.City, a.State, a.Zip}
	var nonEmpty []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, ", ")
}

// Result is a geocoder response: coordinates plus the provider's
// standardized form of the input address.
type Result struct {
	Matched      bool    `json:"matched"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	Standardized Address `json:"standardized"`
	Source       string  `json:"source"`
}

// fetchJSON issues a GET and returns the response body. Retryable status
// codes come back as transient errors so the retry layer repeats the call.
func fetchJSON(ctx context.Context, hc *http.Client, reqURL, provider string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrapf(err, "geocode: %s build request", provider)
	}

	resp, err := hc.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "geocode: %s request", provider)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		statusErr := eris.Errorf("geocode: %s returned status %d", provider, resp.StatusCode)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(statusErr, resp.StatusCode)
		}
		return nil, statusErr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrapf(err, "geocode: %s read body", provider)
	}
	return body, nil
}

// parseOneLine splits a "STREET, CITY, STATE, ZIP" matched-address string
// back into components. Providers vary in how many segments they return;
// missing segments stay empty.
func parseOneLine(s string) Address {
	var a Address
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	switch {
	case len(parts) >= 4:
		a.Street, a.City, a.State, a.Zip = parts[0], parts[1], parts[2], parts[3]
	case len(parts) == 3:
		a.Street, a.City, a.State = parts[0], parts[1], parts[2]
	case len(parts) == 2:
		a.Street, a.City = parts[0], parts[1]
	case len(parts) == 1:
		a.Street = parts[0]
	}
	// State segment may carry a trailing ZIP ("IL 62704").
	if a.Zip == "" && a.State != "" {
		if fields := strings.Fields(a.State); len(fields) == 2 && len(fields[1]) >= 5 {
			a.State, a.Zip = fields[0], fields[1]
		}
	}
	return a
}
