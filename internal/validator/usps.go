package validator

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/district-cli/internal/cache"
	"github.com/sells-group/district-cli/internal/resolver"
	"github.com/sells-group/district-cli/pkg/geocode"
	"github.com/sells-group/district-cli/pkg/usps"
)

// ProviderUSPS identifies the structured-standardization adapter.
const ProviderUSPS = "usps"

// USPSAdapter validates through USPS address standardization. A returned
// ZIP+4 is checked against the local district range table before any
// geocoding, which skips geometry work entirely when the table covers it.
type USPSAdapter struct {
	client   *usps.Client
	table    *ZipTable
	resolver *resolver.Resolver
	geocoder *geocode.CensusClient
	cache    *cache.Memory
	caser    cases.Caser
}

// NewUSPS creates the USPS adapter. table and mem may be nil; geocoder
// supplies coordinates for standardized addresses the table cannot place.
func NewUSPS(client *usps.Client, table *ZipTable, res *resolver.Resolver, geocoder *geocode.CensusClient, mem *cache.Memory) *USPSAdapter {
	return &USPSAdapter{
		client:   client,
		table:    table,
		resolver: res,
		geocoder: geocoder,
		cache:    mem,
		caser:    cases.Title(language.AmericanEnglish),
	}
}

// Name implements Adapter.
func (a *USPSAdapter) Name() string { return ProviderUSPS }

// IsConfigured implements Adapter.
func (a *USPSAdapter) IsConfigured() bool { return a.client.Configured() }

// Validate implements Adapter.
func (a *USPSAdapter) Validate(ctx context.Context, addr Address) Result {
	if !a.IsConfigured() {
		return notConfigured(ProviderUSPS)
	}

	entry, err := a.lookup(ctx, addr)
	if err != nil {
		return failure(ProviderUSPS, err)
	}

	std := &Address{
		Street: a.caser.String(entry.Street),
		City:   a.caser.String(entry.City),
		State:  entry.State,
		Zip:    entry.Zip,
		Zip4:   entry.Zip4,
	}
	res := Result{
		Provider:     ProviderUSPS,
		Success:      true,
		Standardized: std,
	}
	if entry.Latitude != 0 || entry.Longitude != 0 {
		res.Coordinates = &Coordinates{Lat: entry.Latitude, Lon: entry.Longitude}
	}

	// ZIP+4 range table first; geometry only when the table misses.
	if a.table != nil && entry.Zip4 != "" {
		if district, ok := a.table.Lookup(entry.Zip, entry.Zip4); ok {
			res.District = district
			return res
		}
	}
	attachDistrict(&res, a.resolver)
	return res
}

// lookup runs standardization plus coordinate geocoding through the
// read-through cache. USPS rejections are not cached so the provider's
// failure reason stays available to the correction loop.
func (a *USPSAdapter) lookup(ctx context.Context, addr Address) (*cache.Entry, error) {
	key := cache.Key(addr.Street, addr.City, addr.State, addr.Zip)

	load := func(ctx context.Context) (*cache.Entry, error) {
		std, err := a.client.Verify(ctx, usps.Input{
			Street: addr.Street,
			City:   addr.City,
			State:  addr.State,
			Zip:    addr.Zip,
		})
		if err != nil {
			return nil, err
		}

		entry := &cache.Entry{
			Matched:   true,
			Street:    std.Street,
			City:      std.City,
			State:     std.State,
			Zip:       std.Zip5,
			Zip4:      std.Zip4,
			CreatedAt: time.Now().UTC(),
		}

		// Coordinates come from the free geocoder; best effort, the
		// standardized address is already a success without them.
		if a.geocoder != nil {
			geo, geoErr := a.geocoder.Geocode(ctx, geocode.Address{
				Street: std.Street,
				City:   std.City,
				State:  std.State,
				Zip:    std.Zip5,
			})
			if geoErr != nil {
				zap.L().Debug("usps adapter: coordinate lookup failed",
					zap.String("address", addr.OneLine()),
					zap.Error(geoErr),
				)
			} else if geo.Matched {
				entry.Latitude = geo.Latitude
				entry.Longitude = geo.Longitude
			}
		}
		return entry, nil
	}

	if a.cache == nil {
		return load(ctx)
	}
	return a.cache.GetOrLoad(ctx, key, ProviderUSPS, load)
}

// Test implements Adapter with a fixed well-known address.
func (a *USPSAdapter) Test(ctx context.Context) TestReport {
	if !a.IsConfigured() {
		return TestReport{Provider: ProviderUSPS, Success: false, Message: "not configured"}
	}
	_, err := a.client.Verify(ctx, usps.Input{
		Street: "1600 Pennsylvania Ave NW",
		City:   "Washington",
		State:  "DC",
	})
	var vErr *usps.ValidationError
	if err != nil && !errors.As(err, &vErr) {
		return TestReport{Provider: ProviderUSPS, Success: false, Message: err.Error()}
	}
	return TestReport{Provider: ProviderUSPS, Success: true, Message: "usps reachable"}
}
