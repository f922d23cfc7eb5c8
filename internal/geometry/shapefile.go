package geometry

import (
	"math"
	"sort"
	"strconv"
	"strings"

	shp "github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
)

// ParseStats reports the outcome of a shapefile parse.
type ParseStats struct {
	Loaded   int `json:"loaded"`
	Excluded int `json:"excluded"`
}

// ParseDistricts reads a TIGER/Line congressional-district shapefile and
// returns the district set in deterministic order (state code, then district
// number). Records with corrupt geometry are logged, counted in
// stats.Excluded, and skipped; a single bad polygon never fails the parse.
func ParseDistricts(shpPath string) ([]*District, ParseStats, error) {
	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, ParseStats{}, eris.Wrapf(err, "geometry: open shapefile %s", shpPath)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	stateIdx, cdIdx := -1, -1
	for i, f := range fields {
		name := strings.ToUpper(strings.TrimRight(f.String(), "\x00"))
		switch {
		case name == "STATEFP":
			stateIdx = i
		case strings.HasPrefix(name, "CD") && strings.HasSuffix(name, "FP"):
			// CD116FP / CD118FP / CD119FP depending on vintage.
			cdIdx = i
		}
	}
	if stateIdx < 0 || cdIdx < 0 {
		return nil, ParseStats{}, eris.New("geometry: shapefile missing STATEFP/CD*FP fields")
	}

	var districts []*District
	var stats ParseStats

	for reader.Next() {
		_, shape := reader.Shape()

		fips := strings.TrimSpace(strings.TrimRight(reader.Attribute(stateIdx), "\x00"))
		cdRaw := strings.TrimSpace(strings.TrimRight(reader.Attribute(cdIdx), "\x00"))

		state, ok := StateCodeForFIPS(fips)
		if !ok {
			zap.L().Debug("geometry: unknown state FIPS", zap.String("fips", fips))
			continue
		}

		number, err := strconv.Atoi(cdRaw)
		if err != nil || number >= 90 {
			// 98/99/ZZ mark undefined or non-district area in TIGER data.
			zap.L().Debug("geometry: skipping non-district record",
				zap.String("state", state),
				zap.String("cd", cdRaw),
			)
			continue
		}

		poly, okShape := shape.(*shp.Polygon)
		if !okShape || poly == nil {
			stats.Excluded++
			continue
		}

		mp := polygonToMultiPolygon(poly)
		if mp == nil {
			zap.L().Warn("geometry: excluding corrupt polygon",
				zap.String("state", state),
				zap.Int("district", number),
			)
			stats.Excluded++
			continue
		}

		districts = append(districts, &District{
			StateCode: state,
			Number:    number,
			AtLarge:   number == 0,
			Geometry:  mp,
			// Precomputed so concurrent readers never write the cache field.
			bounds: mp.Bounds(),
		})
		stats.Loaded++
	}

	sort.Slice(districts, func(i, j int) bool {
		if districts[i].StateCode != districts[j].StateCode {
			return districts[i].StateCode < districts[j].StateCode
		}
		return districts[i].Number < districts[j].Number
	})

	return districts, stats, nil
}

// polygonToMultiPolygon converts a shapefile polygon to a geom.MultiPolygon.
// Shapefile ring winding assigns parts: clockwise rings open a new polygon,
// counter-clockwise rings are holes in the most recent one. Returns nil if
// no valid ring survives.
func polygonToMultiPolygon(p *shp.Polygon) *geom.MultiPolygon {
	if p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY).SetSRID(4326)
	var current *geom.Polygon

	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}

		flat := make([]float64, 0, (end-start)*2)
		valid := true
		for j := start; j < end; j++ {
			x, y := p.Points[j].X, p.Points[j].Y
			if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
				valid = false
				break
			}
			flat = append(flat, x, y)
		}
		// A ring needs at least 4 vertices (closing point included).
		if !valid || len(flat) < 8 {
			continue
		}
		// Close the ring if the source left it open.
		if flat[0] != flat[len(flat)-2] || flat[1] != flat[len(flat)-1] {
			flat = append(flat, flat[0], flat[1])
		}

		ring := geom.NewLinearRingFlat(geom.XY, flat)

		if signedArea(flat) < 0 || current == nil {
			// Clockwise: outer ring of a new polygon.
			poly := geom.NewPolygon(geom.XY)
			if err := poly.Push(ring); err != nil {
				continue
			}
			current = poly
			if err := mp.Push(poly); err != nil {
				current = nil
				continue
			}
		} else {
			// Counter-clockwise: hole in the current polygon.
			if err := current.Push(ring); err != nil {
				continue
			}
		}
	}

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}

// signedArea returns the signed area of a flat XY ring. Positive means
// counter-clockwise winding.
func signedArea(flat []float64) float64 {
	var sum float64
	n := len(flat) / 2
	for i := 0; i < n-1; i++ {
		x1, y1 := flat[i*2], flat[i*2+1]
		x2, y2 := flat[(i+1)*2], flat[(i+1)*2+1]
		sum += x1*y2 - x2*y1
	}
	return sum / 2
}
