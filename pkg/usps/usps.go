// Package usps provides a client for the USPS Web Tools address
// standardization API. It verifies a structured address and returns the
// standardized form including the ZIP+4 add-on.
package usps

import (
	"context"
	"encoding/xml"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://secure.shippingapis.com/ShippingAPI.dll"

// Client calls the USPS Web Tools Verify API.
type Client struct {
	baseURL    string
	userID     string
	httpClient *http.Client
}

// Option configures the client.
type Option func(*Client)

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a USPS client with the given Web Tools user ID.
func NewClient(userID string, opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		userID:     userID,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether a Web Tools user ID is present.
func (c *Client) Configured() bool { return c.userID != "" }

// Input is the address submitted for standardization.
type Input struct {
	Street string
	City   string
	State  string
	Zip    string
}

// Standardized is the USPS-standardized address. Zip4 is empty when USPS
// could not assign a ZIP+4 add-on.
type Standardized struct {
	Street string
	City   string
	State  string
	Zip5   string
	Zip4   string
}

// ValidationError is a USPS-side rejection of the address (not a transport
// failure). The Description is the provider's own failure reason.
type ValidationError struct {
	Description string
}

func (e *ValidationError) Error() string {
	return "usps: address rejected: " + e.Description
}

// request/response XML shapes for the Verify API.
type verifyRequest struct {
	XMLName xml.Name      `xml:"AddressValidateRequest"`
	UserID  string        `xml:"USERID,attr"`
	Address verifyAddress `xml:"Address"`
}

type verifyAddress struct {
	ID       string `xml:"ID,attr"`
	Address1 string `xml:"Address1"`
	Address2 string `xml:"Address2"`
	City     string `xml:"City"`
	State    string `xml:"State"`
	Zip5     string `xml:"Zip5"`
	Zip4     string `xml:"Zip4"`
}

type verifyResponse struct {
	XMLName xml.Name `xml:"AddressValidateResponse"`
	Address struct {
		Address2 string `xml:"Address2"`
		City     string `xml:"City"`
		State    string `xml:"State"`
		Zip5     string `xml:"Zip5"`
		Zip4     string `xml:"Zip4"`
		Error    *struct {
			Description string `xml:"Description"`
		} `xml:"Error"`
	} `xml:"Address"`
}

type apiError struct {
	XMLName     xml.Name `xml:"Error"`
	Description string   `xml:"Description"`
}

// Verify standardizes an address. A *ValidationError is returned when USPS
// rejects the address; other errors are transport or protocol failures.
func (c *Client) Verify(ctx context.Context, in Input) (*Standardized, error) {
	if c.userID == "" {
		return nil, eris.New("usps: user id not configured")
	}

	reqXML, err := xml.Marshal(verifyRequest{
		UserID: c.userID,
		Address: verifyAddress{
			ID:       "0",
			Address2: in.Street,
			City:     in.City,
			State:    in.State,
			Zip5:     in.Zip,
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "usps: marshal request")
	}

	params := url.Values{
		"API": {"Verify"},
		"XML": {string(reqXML)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "usps: build request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "usps: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("usps: returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "usps: read body")
	}

	// Top-level <Error> means the request itself failed (bad credentials,
	// malformed XML).
	var topErr apiError
	if err := xml.Unmarshal(body, &topErr); err == nil && topErr.Description != "" {
		return nil, eris.Errorf("usps: api error: %s", topErr.Description)
	}

	var parsed verifyResponse
	if err := xml.Unmarshal(body, &parsed); err != nil {
		return nil, eris.Wrap(err, "usps: parse response")
	}

	if parsed.Address.Error != nil {
		return nil, &ValidationError{Description: parsed.Address.Error.Description}
	}

	return &Standardized{
		Street: parsed.Address.Address2,
		City:   parsed.Address.City,
		State:  parsed.Address.State,
		Zip5:   parsed.Address.Zip5,
		Zip4:   parsed.Address.Zip4,
	}, nil
}
