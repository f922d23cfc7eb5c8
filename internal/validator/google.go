package validator

import (
	"context"

	"github.com/sells-group/district-cli/internal/cache"
	"github.com/sells-group/district-cli/internal/resolver"
	"github.com/sells-group/district-cli/pkg/geocode"
)

// ProviderGoogle identifies the commercial-geocoder adapter.
const ProviderGoogle = "google"

// GoogleAdapter validates through the Google Geocoding API.
type GoogleAdapter struct {
	client   *geocode.GoogleClient
	resolver *resolver.Resolver
	cache    *cache.Memory
}

// NewGoogle creates the Google adapter. mem may be nil.
func NewGoogle(client *geocode.GoogleClient, res *resolver.Resolver, mem *cache.Memory) *GoogleAdapter {
	return &GoogleAdapter{client: client, resolver: res, cache: mem}
}

// Name implements Adapter.
func (a *GoogleAdapter) Name() string { return ProviderGoogle }

// IsConfigured implements Adapter.
func (a *GoogleAdapter) IsConfigured() bool { return a.client.Configured() }

// Validate implements Adapter.
func (a *GoogleAdapter) Validate(ctx context.Context, addr Address) Result {
	if !a.IsConfigured() {
		return notConfigured(ProviderGoogle)
	}

	entry, err := a.lookup(ctx, addr)
	if err != nil {
		return failure(ProviderGoogle, err)
	}
	if !entry.Matched {
		return noMatch(ProviderGoogle)
	}

	res := Result{
		Provider: ProviderGoogle,
		Success:  true,
		Standardized: &Address{
			Street: entry.Street,
			City:   entry.City,
			State:  entry.State,
			Zip:    entry.Zip,
		},
		Coordinates: &Coordinates{Lat: entry.Latitude, Lon: entry.Longitude},
	}
	attachDistrict(&res, a.resolver)
	return res
}

func (a *GoogleAdapter) lookup(ctx context.Context, addr Address) (*cache.Entry, error) {
	key := cache.Key(addr.Street, addr.City, addr.State, addr.Zip)

	load := func(ctx context.Context) (*cache.Entry, error) {
		geo, err := a.client.Geocode(ctx, geocode.Address{
			Street: addr.Street,
			City:   addr.City,
			State:  addr.State,
			Zip:    addr.Zip,
		})
		if err != nil {
			return nil, err
		}
		return entryFromGeocode(geo), nil
	}

	if a.cache == nil {
		return load(ctx)
	}
	return a.cache.GetOrLoad(ctx, key, ProviderGoogle, load)
}

// Test implements Adapter with a fixed well-known address.
func (a *GoogleAdapter) Test(ctx context.Context) TestReport {
	if !a.IsConfigured() {
		return TestReport{Provider: ProviderGoogle, Success: false, Message: "not configured"}
	}
	_, err := a.client.Geocode(ctx, geocode.Address{
		Street: "1600 Pennsylvania Ave NW",
		City:   "Washington",
		State:  "DC",
	})
	if err != nil {
		return TestReport{Provider: ProviderGoogle, Success: false, Message: err.Error()}
	}
	return TestReport{Provider: ProviderGoogle, Success: true, Message: "google geocoder reachable"}
}
