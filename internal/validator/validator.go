// Package validator defines the provider-adapter contract for address
// validation and the three bundled adapters (USPS standardization, Census
// geocoder, Google geocoder). Adapters never return Go errors across the
// interface; every failure becomes a Result with Success=false so the
// orchestrator treats all providers uniformly.
package validator

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/sells-group/district-cli/internal/resolver"
)

// Address is a parsed US postal address. Street and State are required for
// validation; City and Zip improve match quality. Zip4 is set only on
// standardized output.
type Address struct {
	Street string `json:"street"`
	City   string `json:"city,omitempty"`
	State  string `json:"state,omitempty"`
	Zip    string `json:"zip,omitempty"`
	Zip4   string `json:"zip4,omitempty"`
}

// OneLine renders the address for display and prompts.
func (a Address) OneLine() string {
	var parts []string
	for _, p := range []string{a.Street, a.City, a.State, a.ZipWithAddOn()} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// ZipWithAddOn returns "12345-6789" when a ZIP+4 is present.
func (a Address) ZipWithAddOn() string {
	if a.Zip != "" && a.Zip4 != "" {
		return a.Zip + "-" + a.Zip4
	}
	return a.Zip
}

// Coordinates is a WGS-84 position.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Result is one adapter's validation outcome. Immutable once returned.
type Result struct {
	Provider           string             `json:"provider"`
	Success            bool               `json:"success"`
	Standardized       *Address           `json:"standardized,omitempty"`
	Coordinates        *Coordinates       `json:"coordinates,omitempty"`
	District           string             `json:"district,omitempty"`
	DistanceToBoundary *resolver.Distance `json:"distance_to_boundary,omitempty"`
	Error              string             `json:"error,omitempty"`
	ErrorKind          ErrorKind          `json:"error_kind,omitempty"`
}

// TestReport is the outcome of an adapter connectivity check.
type TestReport struct {
	Provider string `json:"provider"`
	Success  bool   `json:"success"`
	Message  string `json:"message"`
}

// Adapter validates an address through one provider.
type Adapter interface {
	Name() string
	IsConfigured() bool
	Validate(ctx context.Context, addr Address) Result
	Test(ctx context.Context) TestReport
}

// Registry holds the available adapters.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

// Register adds an adapter.
func (r *Registry) Register(a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[a.Name()] = a
}

// Get returns an adapter by name, or nil.
func (r *Registry) Get(name string) Adapter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.adapters[name]
}

// Names returns registered adapter names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// attachDistrict resolves the coordinates to a district and fills the
// district and boundary-distance fields. A point outside every district
// leaves them unset; the result is still a successful geocode.
func attachDistrict(res *Result, r *resolver.Resolver) {
	if r == nil || res.Coordinates == nil {
		return
	}
	match := r.Resolve(res.Coordinates.Lat, res.Coordinates.Lon)
	if !match.Found {
		return
	}
	res.District = match.District.Code()
	res.DistanceToBoundary = match.DistanceToBoundary
}
