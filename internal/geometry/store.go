package geometry

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/sells-group/district-cli/internal/fetcher"
)

// Store holds the loaded district set. Loads and refreshes build a complete
// new snapshot and swap it in atomically, so concurrent readers see either
// the old index or the fully-built new one, never a partial state.
type Store struct {
	snap    atomic.Pointer[snapshot]
	loadMu  sync.Mutex // single writer for Load/Refresh
	fetch   *fetcher.Client
	tempDir string
	ttl     time.Duration
}

type snapshot struct {
	districts []*District
	source    string
	loadedAt  time.Time
	stats     ParseStats
}

// Status describes the currently loaded geometry set.
type Status struct {
	Loaded    bool      `json:"loaded"`
	Source    string    `json:"source,omitempty"`
	Districts int       `json:"districts"`
	Excluded  int       `json:"excluded"`
	LoadedAt  time.Time `json:"loaded_at,omitzero"`
	Stale     bool      `json:"stale"`
}

// NewStore creates an empty Store. tempDir is used for downloaded archives;
// ttl controls when Status reports the set as stale (zero disables).
func NewStore(fetch *fetcher.Client, tempDir string, ttl time.Duration) *Store {
	return &Store{fetch: fetch, tempDir: tempDir, ttl: ttl}
}

// Load parses a district geometry set from source and swaps it in. Source
// may be a local .shp, a local .zip, or an http(s):// or ftp:// archive URL.
func (s *Store) Load(ctx context.Context, source string) error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	start := time.Now()
	shpPath, err := s.materialize(ctx, source)
	if err != nil {
		return err
	}

	districts, stats, err := ParseDistricts(shpPath)
	if err != nil {
		return err
	}
	if len(districts) == 0 {
		return eris.Errorf("geometry: source %s produced no districts", source)
	}

	s.snap.Store(&snapshot{
		districts: districts,
		source:    source,
		loadedAt:  time.Now().UTC(),
		stats:     stats,
	})

	zap.L().Info("loaded district geometry",
		zap.String("source", source),
		zap.Int("districts", stats.Loaded),
		zap.Int("excluded", stats.Excluded),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// Refresh reloads the current source, invalidating the previous snapshot
// only after the replacement is fully built.
func (s *Store) Refresh(ctx context.Context) error {
	snap := s.snap.Load()
	if snap == nil {
		return eris.New("geometry: refresh before initial load")
	}
	return s.Load(ctx, snap.source)
}

// materialize resolves a source to a local .shp path, downloading and
// extracting as needed.
func (s *Store) materialize(ctx context.Context, source string) (string, error) {
	lower := strings.ToLower(source)

	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") || strings.HasPrefix(lower, "ftp://") {
		if err := os.MkdirAll(s.tempDir, 0o755); err != nil {
			return "", eris.Wrap(err, "geometry: create temp dir")
		}
		zipPath := filepath.Join(s.tempDir, "districts.zip")
		if _, err := s.fetch.DownloadToFile(ctx, source, zipPath); err != nil {
			return "", err
		}
		return fetcher.ExtractShapefile(zipPath, filepath.Join(s.tempDir, "districts"))
	}

	if strings.HasSuffix(lower, ".zip") {
		return fetcher.ExtractShapefile(source, filepath.Join(s.tempDir, "districts"))
	}

	return source, nil
}

// Containing returns the district whose polygon contains the point, or nil.
// Candidates are shortlisted by bounding box before the exact test. District
// polygons are assumed non-overlapping; if source data violates that, the
// first match in load order wins, and load order is deterministic.
func (s *Store) Containing(lat, lon float64) *District {
	snap := s.snap.Load()
	if snap == nil {
		return nil
	}
	for _, d := range snap.districts {
		if !boundsContain(d.Bounds(), lat, lon) {
			continue
		}
		if d.Contains(lat, lon) {
			return d
		}
	}
	return nil
}

// Nearest returns the district whose boundary is closest to the point and
// the distance in meters. Ties break to the first district in load order.
func (s *Store) Nearest(lat, lon float64) (*District, float64) {
	snap := s.snap.Load()
	if snap == nil {
		return nil, 0
	}

	var best *District
	bestDist := math.Inf(1)
	for _, d := range snap.districts {
		// Bounding-box distance is a lower bound on boundary distance;
		// skip districts that cannot beat the current best.
		if boundsDistanceMeters(d.Bounds(), lat, lon) >= bestDist {
			continue
		}
		if dist := d.DistanceToBoundary(lat, lon); dist < bestDist {
			best = d
			bestDist = dist
		}
	}
	return best, bestDist
}

// Find returns the district identified by state code and number, or nil.
func (s *Store) Find(state string, number int) *District {
	snap := s.snap.Load()
	if snap == nil {
		return nil
	}
	state = strings.ToUpper(state)
	for _, d := range snap.districts {
		if d.StateCode == state && d.Number == number {
			return d
		}
	}
	return nil
}

// Districts returns the loaded district set in deterministic order.
func (s *Store) Districts() []*District {
	snap := s.snap.Load()
	if snap == nil {
		return nil
	}
	return snap.districts
}

// Status reports the state of the current snapshot.
func (s *Store) Status() Status {
	snap := s.snap.Load()
	if snap == nil {
		return Status{}
	}
	return Status{
		Loaded:    true,
		Source:    snap.source,
		Districts: snap.stats.Loaded,
		Excluded:  snap.stats.Excluded,
		LoadedAt:  snap.loadedAt,
		Stale:     s.ttl > 0 && time.Since(snap.loadedAt) > s.ttl,
	}
}

// boundsDistanceMeters returns the planar distance from the point to the
// bounding box (zero when inside).
func boundsDistanceMeters(b *geom.Bounds, lat, lon float64) float64 {
	dLon := math.Max(0, math.Max(b.Min(0)-lon, lon-b.Max(0)))
	dLat := math.Max(0, math.Max(b.Min(1)-lat, lat-b.Max(1)))
	scale := math.Cos(lat * math.Pi / 180)
	return math.Hypot(dLon*scale, dLat) * metersPerDegree
}
