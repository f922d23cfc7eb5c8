// Package resolver answers district-resolution queries: which district
// contains a coordinate, how far the coordinate is from the district
// boundary, and where the closest boundary point lies.
package resolver

import (
	"math"

	"github.com/rotisserie/eris"

	"github.com/sells-group/district-cli/internal/geometry"
)

// Distance is a boundary distance reported in several display units.
type Distance struct {
	Meters     float64 `json:"meters"`
	Feet       float64 `json:"feet"`
	Miles      float64 `json:"miles"`
	Kilometers float64 `json:"kilometers"`
}

// NewDistance builds a Distance from meters.
func NewDistance(meters float64) Distance {
	return Distance{
		Meters:     math.Round(meters),
		Feet:       math.Round(meters * 3.28084),
		Miles:      meters / 1609.344,
		Kilometers: meters / 1000,
	}
}

// Nearest names the closest district when a point is outside every polygon.
type Nearest struct {
	District *geometry.District `json:"district"`
	Distance Distance           `json:"distance"`
}

// Match is the result of resolving a coordinate.
type Match struct {
	Found              bool               `json:"found"`
	District           *geometry.District `json:"district,omitempty"`
	DistanceToBoundary *Distance          `json:"distance_to_boundary,omitempty"`
	Nearest            *Nearest           `json:"nearest,omitempty"`
}

// BoundaryResult pairs a boundary point with its distance in display units.
type BoundaryResult struct {
	Point    geometry.BoundaryPoint `json:"point"`
	Distance Distance               `json:"distance"`
}

// Resolver wraps the geometry store with boundary-distance computation.
type Resolver struct {
	store *geometry.Store
}

// New creates a Resolver over the given store.
func New(store *geometry.Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve finds the district containing the coordinate. When found, the
// distance from the point to the district boundary is attached. When not
// found, the nearest district and its boundary distance are attached
// instead.
func (r *Resolver) Resolve(lat, lon float64) Match {
	if d := r.store.Containing(lat, lon); d != nil {
		dist := NewDistance(d.DistanceToBoundary(lat, lon))
		return Match{Found: true, District: d, DistanceToBoundary: &dist}
	}

	nearest, meters := r.store.Nearest(lat, lon)
	if nearest == nil {
		return Match{}
	}
	return Match{
		Nearest: &Nearest{District: nearest, Distance: NewDistance(meters)},
	}
}

// ClosestBoundaryPoint returns the point on the named district's boundary
// closest to the coordinate. The returned point lies on the boundary within
// floating-point epsilon and its distance from the input equals the reported
// distance.
func (r *Resolver) ClosestBoundaryPoint(lat, lon float64, state string, number int) (BoundaryResult, error) {
	d := r.store.Find(state, number)
	if d == nil {
		return BoundaryResult{}, eris.Errorf("resolver: unknown district %s-%d", state, number)
	}
	pt := d.ClosestBoundaryPoint(lat, lon)
	return BoundaryResult{Point: pt, Distance: NewDistance(pt.Meters)}, nil
}
