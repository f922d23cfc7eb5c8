package resolver

import (
	"math"
	"path/filepath"
	"testing"

	shp "github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/district-cli/internal/geometry"
)

// writeSquareShapefile writes a one-district shapefile: CA-12 as a square
// with corners (0,0)-(10,10).
func writeSquareShapefile(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "districts.shp")

	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)

	w.SetFields([]shp.Field{
		shp.StringField("STATEFP", 2),
		shp.StringField("CD119FP", 2),
	})

	// Clockwise outer ring, per shapefile convention.
	w.Write(&shp.Polygon{
		Box:       shp.Box{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10},
		NumParts:  1,
		NumPoints: 5,
		Parts:     []int32{0},
		Points: []shp.Point{
			{X: 0, Y: 0}, {X: 0, Y: 10}, {X: 10, Y: 10}, {X: 10, Y: 0}, {X: 0, Y: 0},
		},
	})
	require.NoError(t, w.WriteAttribute(0, 0, "06"))
	require.NoError(t, w.WriteAttribute(0, 1, "12"))
	w.Close()

	return path
}

func testStore(t *testing.T) *geometry.Store {
	t.Helper()
	dir := t.TempDir()
	shpPath := writeSquareShapefile(t, dir)

	store := geometry.NewStore(nil, dir, 0)
	require.NoError(t, store.Load(t.Context(), shpPath))
	return store
}

func TestResolve_Inside(t *testing.T) {
	r := New(testStore(t))

	m := r.Resolve(5, 5)
	require.True(t, m.Found)
	require.NotNil(t, m.District)
	assert.Equal(t, "CA-12", m.District.Code())
	require.NotNil(t, m.DistanceToBoundary)

	// Nearest vertical edge: 5 degrees of longitude at latitude 5.
	want := 5 * math.Cos(5*math.Pi/180) * 111194.93
	assert.InDelta(t, want, m.DistanceToBoundary.Meters, 2.0)
	assert.Nil(t, m.Nearest)
}

func TestResolve_Outside(t *testing.T) {
	r := New(testStore(t))

	m := r.Resolve(5, 15)
	assert.False(t, m.Found)
	assert.Nil(t, m.District)
	require.NotNil(t, m.Nearest)
	assert.Equal(t, "CA-12", m.Nearest.District.Code())

	want := 5 * math.Cos(5*math.Pi/180) * 111194.93
	assert.InDelta(t, want, m.Nearest.Distance.Meters, 2.0)
}

func TestResolve_EmptyStore(t *testing.T) {
	r := New(geometry.NewStore(nil, t.TempDir(), 0))
	m := r.Resolve(5, 5)
	assert.False(t, m.Found)
	assert.Nil(t, m.Nearest)
}

func TestClosestBoundaryPoint(t *testing.T) {
	r := New(testStore(t))

	res, err := r.ClosestBoundaryPoint(5, 15, "CA", 12)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, res.Point.Lat, 1e-9)
	assert.InDelta(t, 10.0, res.Point.Lon, 1e-9)
	assert.Equal(t, math.Round(res.Point.Meters), res.Distance.Meters)
}

func TestClosestBoundaryPoint_UnknownDistrict(t *testing.T) {
	r := New(testStore(t))

	_, err := r.ClosestBoundaryPoint(5, 15, "ZZ", 99)
	assert.Error(t, err)
}

func TestNewDistance(t *testing.T) {
	d := NewDistance(1609.344)
	assert.Equal(t, 1609.0, d.Meters)
	assert.InDelta(t, 1.0, d.Miles, 1e-9)
	assert.InDelta(t, 1.609344, d.Kilometers, 1e-9)
	assert.Equal(t, 5280.0, d.Feet)
}
