package orchestrator

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/district-cli/internal/validator"
)

// Consistency verdicts.
const (
	ConsistencyConsistent   = "consistent"
	ConsistencyInconsistent = "inconsistent"
	ConsistencyNoResults    = "no_results"
)

// AnalysisConfig holds the cross-provider comparison thresholds.
type AnalysisConfig struct {
	// CoordinateDeltaDegrees flags diverging geocodes when the max pairwise
	// latitude or longitude delta exceeds it. ~0.001 degrees is ~100 m.
	CoordinateDeltaDegrees float64 `yaml:"coordinate_delta_degrees"`
	// BoundaryProximityMeters flags results this close to a district edge.
	BoundaryProximityMeters float64 `yaml:"boundary_proximity_meters"`
}

// DefaultAnalysisConfig returns the standard thresholds.
func DefaultAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		CoordinateDeltaDegrees:  0.001,
		BoundaryProximityMeters: 100,
	}
}

// LoadAnalysisConfig reads thresholds from a YAML file, filling zero values
// with defaults.
func LoadAnalysisConfig(path string) (AnalysisConfig, error) {
	cfg := DefaultAnalysisConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, eris.Wrapf(err, "orchestrator: read analysis config %s", path)
	}
	var loaded AnalysisConfig
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return cfg, eris.Wrapf(err, "orchestrator: parse analysis config %s", path)
	}
	if loaded.CoordinateDeltaDegrees > 0 {
		cfg.CoordinateDeltaDegrees = loaded.CoordinateDeltaDegrees
	}
	if loaded.BoundaryProximityMeters > 0 {
		cfg.BoundaryProximityMeters = loaded.BoundaryProximityMeters
	}
	return cfg, nil
}

// Analysis is the cross-provider consistency verdict, recomputed per
// request from the set of validation results.
type Analysis struct {
	Consistency     string   `json:"consistency"`
	Issues          []string `json:"issues"`
	Recommendations []string `json:"recommendations"`
}

// Analyze compares the successful results across providers. Districts are
// compared as "STATE-NUMBER" strings; coordinates and boundary distances
// are checked against the configured thresholds. The boundary-proximity
// check runs regardless of the consistency verdict.
func Analyze(results map[string]validator.Result, cfg AnalysisConfig) Analysis {
	analysis := Analysis{
		Issues:          []string{},
		Recommendations: []string{},
	}

	var districts []string
	seen := map[string]bool{}
	var coords []validator.Coordinates

	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		r := results[name]
		if !r.Success {
			continue
		}
		if r.District != "" && !seen[r.District] {
			seen[r.District] = true
			districts = append(districts, r.District)
		}
		if r.Coordinates != nil {
			coords = append(coords, *r.Coordinates)
		}
	}

	switch len(districts) {
	case 0:
		analysis.Consistency = ConsistencyNoResults
	case 1:
		analysis.Consistency = ConsistencyConsistent
	default:
		analysis.Consistency = ConsistencyInconsistent
		analysis.Issues = append(analysis.Issues,
			fmt.Sprintf("providers disagree on district: %s", strings.Join(districts, " vs ")))
		analysis.Recommendations = append(analysis.Recommendations,
			"verify the address manually; providers resolved it to different districts")
	}

	if delta := maxPairwiseDelta(coords); delta > cfg.CoordinateDeltaDegrees {
		analysis.Issues = append(analysis.Issues,
			fmt.Sprintf("provider coordinates diverge by %.4f degrees", delta))
	}

	for _, name := range names {
		r := results[name]
		if !r.Success || r.DistanceToBoundary == nil {
			continue
		}
		if r.DistanceToBoundary.Meters < cfg.BoundaryProximityMeters {
			analysis.Issues = append(analysis.Issues,
				fmt.Sprintf("%s result is %.0f m from a district boundary", r.Provider, r.DistanceToBoundary.Meters))
			analysis.Recommendations = append(analysis.Recommendations,
				"address is near a district boundary; verify the district manually")
		}
	}

	return analysis
}

// maxPairwiseDelta returns the largest latitude or longitude difference
// between any two coordinate pairs, or 0 with fewer than two pairs.
func maxPairwiseDelta(coords []validator.Coordinates) float64 {
	var max float64
	for i := 0; i < len(coords); i++ {
		for j := i + 1; j < len(coords); j++ {
			if d := math.Abs(coords[i].Lat - coords[j].Lat); d > max {
				max = d
			}
			if d := math.Abs(coords[i].Lon - coords[j].Lon); d > max {
				max = d
			}
		}
	}
	return max
}
