package validator

import (
	"context"
	"time"

	"github.com/sells-group/district-cli/internal/cache"
	"github.com/sells-group/district-cli/internal/resolver"
	"github.com/sells-group/district-cli/pkg/geocode"
)

// ProviderCensus identifies the free-geocoder adapter.
const ProviderCensus = "census"

// CensusAdapter validates through the Census geocoder. No credentials are
// required, so it is always configured.
type CensusAdapter struct {
	client   *geocode.CensusClient
	resolver *resolver.Resolver
	cache    *cache.Memory
}

// NewCensus creates the Census adapter. mem may be nil.
func NewCensus(client *geocode.CensusClient, res *resolver.Resolver, mem *cache.Memory) *CensusAdapter {
	return &CensusAdapter{client: client, resolver: res, cache: mem}
}

// Name implements Adapter.
func (a *CensusAdapter) Name() string { return ProviderCensus }

// IsConfigured implements Adapter.
func (a *CensusAdapter) IsConfigured() bool { return true }

// Validate implements Adapter.
func (a *CensusAdapter) Validate(ctx context.Context, addr Address) Result {
	entry, err := a.lookup(ctx, addr)
	if err != nil {
		return failure(ProviderCensus, err)
	}
	if !entry.Matched {
		return noMatch(ProviderCensus)
	}

	res := Result{
		Provider: ProviderCensus,
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

// lookup runs the geocode through the read-through cache. Non-matches are
// cached so repeated misses skip the network.
func (a *CensusAdapter) lookup(ctx context.Context, addr Address) (*cache.Entry, error) {
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
	return a.cache.GetOrLoad(ctx, key, ProviderCensus, load)
}

// Test implements Adapter with a fixed well-known address.
func (a *CensusAdapter) Test(ctx context.Context) TestReport {
	_, err := a.client.Geocode(ctx, geocode.Address{
		Street: "1600 Pennsylvania Ave NW",
		City:   "Washington",
		State:  "DC",
	})
	if err != nil {
		return TestReport{Provider: ProviderCensus, Success: false, Message: err.Error()}
	}
	return TestReport{Provider: ProviderCensus, Success: true, Message: "census geocoder reachable"}
}

// entryFromGeocode converts a raw geocoder result to a cache entry.
func entryFromGeocode(geo *geocode.Result) *cache.Entry {
	return &cache.Entry{
		Matched:   geo.Matched,
		Latitude:  geo.Latitude,
		Longitude: geo.Longitude,
		Street:    geo.Standardized.Street,
		City:      geo.Standardized.City,
		State:     geo.Standardized.State,
		Zip:       geo.Standardized.Zip,
		CreatedAt: time.Now().UTC(),
	}
}
