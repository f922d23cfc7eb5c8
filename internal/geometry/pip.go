package geometry

import (
	"math"

	"github.com/twpayne/go-geom"
)

// metersPerDegree is the length of one degree of latitude on the WGS-84
// sphere (R * pi / 180 with R = 6371 km). Longitude degrees are scaled by
// cos(latitude) before distances are taken, which keeps the approximation
// within whole-meter rounding tolerance at district scale.
const metersPerDegree = 111194.93

// Contains reports whether the point lies inside the district, respecting
// holes. Containment is an even-odd (ray crossing) test over every ring of
// every polygon: a crossing count that is odd over the outer ring and even
// over the holes leaves overall parity odd exactly when the point is inside.
func (d *District) Contains(lat, lon float64) bool {
	mp := d.Geometry
	for i := 0; i < mp.NumPolygons(); i++ {
		poly := mp.Polygon(i)
		inside := false
		for r := 0; r < poly.NumLinearRings(); r++ {
			if ringCrossesOdd(poly.LinearRing(r), lat, lon) {
				inside = !inside
			}
		}
		if inside {
			return true
		}
	}
	return false
}

// ringCrossesOdd runs the even-odd test for a single ring.
func ringCrossesOdd(ring *geom.LinearRing, lat, lon float64) bool {
	coords := ring.FlatCoords()
	stride := ring.Stride()
	n := len(coords) / stride
	if n < 3 {
		return false
	}

	odd := false
	j := n - 1
	for i := 0; i < n; i++ {
		xi, yi := coords[i*stride], coords[i*stride+1]
		xj, yj := coords[j*stride], coords[j*stride+1]
		if (yi > lat) != (yj > lat) {
			crossX := xi + (lat-yi)/(yj-yi)*(xj-xi)
			if lon < crossX {
				odd = !odd
			}
		}
		j = i
	}
	return odd
}

// BoundaryPoint is a location on a district boundary together with its
// distance from a query point.
type BoundaryPoint struct {
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Meters float64 `json:"meters"`
}

// ClosestBoundaryPoint projects the query point onto every segment of the
// district's outer rings and returns the nearest projection. The returned
// point lies on the boundary and its distance from the query point equals
// the reported distance.
func (d *District) ClosestBoundaryPoint(lat, lon float64) BoundaryPoint {
	best := BoundaryPoint{Meters: math.Inf(1)}

	mp := d.Geometry
	for i := 0; i < mp.NumPolygons(); i++ {
		poly := mp.Polygon(i)
		if poly.NumLinearRings() == 0 {
			continue
		}
		// Outer ring only; holes are interior artifacts for boundary purposes.
		ring := poly.LinearRing(0)
		coords := ring.FlatCoords()
		stride := ring.Stride()
		n := len(coords) / stride

		for s := 0; s < n-1; s++ {
			ax, ay := coords[s*stride], coords[s*stride+1]
			bx, by := coords[(s+1)*stride], coords[(s+1)*stride+1]
			cLat, cLon, m := pointSegmentDistance(lat, lon, ay, ax, by, bx)
			if m < best.Meters {
				best = BoundaryPoint{Lat: cLat, Lon: cLon, Meters: m}
			}
		}
	}
	return best
}

// DistanceToBoundary returns the minimum distance in meters from the point
// to the district's outer boundary.
func (d *District) DistanceToBoundary(lat, lon float64) float64 {
	return d.ClosestBoundaryPoint(lat, lon).Meters
}

// pointSegmentDistance returns the point on segment (aLat,aLon)-(bLat,bLon)
// closest to (pLat,pLon) and the distance to it in meters. The projection is
// computed on an equirectangular plane scaled by cos(pLat) and clamped to
// the segment endpoints, so the returned point always lies on the segment.
func pointSegmentDistance(pLat, pLon, aLat, aLon, bLat, bLon float64) (lat, lon, meters float64) {
	scale := math.Cos(pLat * math.Pi / 180)

	px, py := pLon*scale, pLat
	ax, ay := aLon*scale, aLat
	bx, by := bLon*scale, bLat

	dx, dy := bx-ax, by-ay
	t := 0.0
	if lenSq := dx*dx + dy*dy; lenSq > 0 {
		t = ((px-ax)*dx + (py-ay)*dy) / lenSq
		t = math.Max(0, math.Min(1, t))
	}

	lat = aLat + t*(bLat-aLat)
	lon = aLon + t*(bLon-aLon)

	cx, cy := lon*scale, lat
	meters = math.Hypot(px-cx, py-cy) * metersPerDegree
	return lat, lon, meters
}

// PointDistanceMeters returns the approximate distance between two
// coordinates using the same planar model as the boundary computations.
func PointDistanceMeters(aLat, aLon, bLat, bLon float64) float64 {
	scale := math.Cos(aLat * math.Pi / 180)
	dx := (bLon - aLon) * scale
	dy := bLat - aLat
	return math.Hypot(dx, dy) * metersPerDegree
}

// boundsContain reports whether the bounding box contains the point, with a
// small padding so points exactly on an edge are not filtered out.
func boundsContain(b *geom.Bounds, lat, lon float64) bool {
	const pad = 1e-9
	return lon >= b.Min(0)-pad && lon <= b.Max(0)+pad &&
		lat >= b.Min(1)-pad && lat <= b.Max(1)+pad
}
