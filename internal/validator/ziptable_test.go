package validator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadZipTable_CSV(t *testing.T) {
	csv := `zip5,plus4_low,plus4_high,state,district
62704,0001,2999,IL,13
62704,3000,9999,IL,15
90210,0001,9999,CA,30
99999,bad,rows,XX,zz
`
	path := filepath.Join(t.TempDir(), "ranges.csv")
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))

	table, err := LoadZipTable(path)
	require.NoError(t, err)
	assert.Equal(t, 3, table.Len(), "malformed row is skipped")

	district, ok := table.Lookup("62704", "1500")
	require.True(t, ok)
	assert.Equal(t, "IL-13", district)

	district, ok = table.Lookup("62704", "3000")
	require.True(t, ok)
	assert.Equal(t, "IL-15", district)

	district, ok = table.Lookup("90210", "4321")
	require.True(t, ok)
	assert.Equal(t, "CA-30", district)
}

func TestZipTable_LookupMisses(t *testing.T) {
	table := NewZipTable()
	table.add("62704", 1, 2999, "IL", "13")
	table.sortRanges()

	_, ok := table.Lookup("62704", "3000")
	assert.False(t, ok, "beyond range high")

	_, ok = table.Lookup("10001", "0500")
	assert.False(t, ok, "unknown zip5")

	_, ok = table.Lookup("62704", "not-a-number")
	assert.False(t, ok)

	_, ok = table.Lookup("62704", "")
	assert.False(t, ok)
}

func TestZipTable_OverlappingRanges(t *testing.T) {
	// A malformed table can carry overlapping rows; every covering range
	// must stay findable, with the lowest-starting one winning.
	table := NewZipTable()
	table.add("62704", 2000, 5000, "IL", "15")
	table.add("62704", 1, 2999, "IL", "13")
	table.sortRanges()

	district, ok := table.Lookup("62704", "2500")
	require.True(t, ok)
	assert.Equal(t, "IL-13", district, "first covering range in low order wins")

	district, ok = table.Lookup("62704", "4000")
	require.True(t, ok, "range shadowed at its start is still found past the overlap")
	assert.Equal(t, "IL-15", district)
}

func TestFormatDistrict(t *testing.T) {
	assert.Equal(t, "IL-13", formatDistrict("il", "13"))
	assert.Equal(t, "IL-13", formatDistrict("IL", "013"))
	assert.Equal(t, "AK-AL", formatDistrict("AK", "00"))
	assert.Equal(t, "WY-AL", formatDistrict("wy", "al"))
}

func TestLoadZipTable_MissingFile(t *testing.T) {
	_, err := LoadZipTable(filepath.Join(t.TempDir(), "absent.csv"))
	assert.Error(t, err)
}
