package validator

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"
)

// ZipTable maps ZIP+4 ranges to congressional districts. When the
// structured provider returns a ZIP+4 that falls inside a known range, the
// district is assigned directly and no geometry work happens at all.
type ZipTable struct {
	// ranges per ZIP5, sorted by low add-on for binary search.
	ranges map[string][]zipRange
}

type zipRange struct {
	low      int
	high     int
	district string // "CA-12" form
}

// NewZipTable creates an empty table.
func NewZipTable() *ZipTable {
	return &ZipTable{ranges: make(map[string][]zipRange)}
}

// Len returns the number of loaded ranges.
func (t *ZipTable) Len() int {
	n := 0
	for _, rs := range t.ranges {
		n += len(rs)
	}
	return n
}

// Lookup returns the district for a ZIP+4, if a range covers it.
func (t *ZipTable) Lookup(zip5, zip4 string) (string, bool) {
	addOn, err := strconv.Atoi(strings.TrimSpace(zip4))
	if err != nil {
		return "", false
	}
	// A ZIP5 rarely has more than a handful of ranges, and a linear scan
	// stays correct even when a malformed table carries overlapping rows.
	// Ranges are sorted by low, so the first covering range wins
	// deterministically.
	for _, r := range t.ranges[strings.TrimSpace(zip5)] {
		if r.low <= addOn && addOn <= r.high {
			return r.district, true
		}
	}
	return "", false
}

// add inserts one range row.
func (t *ZipTable) add(zip5 string, low, high int, state string, district string) {
	label := formatDistrict(state, district)
	t.ranges[zip5] = append(t.ranges[zip5], zipRange{low: low, high: high, district: label})
}

// sortRanges orders each ZIP5's ranges for lookup.
func (t *ZipTable) sortRanges() {
	for zip5 := range t.ranges {
		rs := t.ranges[zip5]
		sort.Slice(rs, func(i, j int) bool { return rs[i].low < rs[j].low })
	}
}

// formatDistrict renders "STATE-NUMBER", with "STATE-AL" for at-large
// markers ("0", "00", "AL").
func formatDistrict(state, district string) string {
	state = strings.ToUpper(strings.TrimSpace(state))
	district = strings.ToUpper(strings.TrimSpace(district))
	if district == "AL" {
		return state + "-AL"
	}
	if n, err := strconv.Atoi(district); err == nil {
		if n == 0 {
			return state + "-AL"
		}
		return fmt.Sprintf("%s-%d", state, n)
	}
	return state + "-" + district
}

// LoadZipTable reads a ZIP+4 range table from a .csv or .xlsx file with
// columns: zip5, plus4_low, plus4_high, state, district. The first row is
// treated as a header. Malformed rows are logged and skipped.
func LoadZipTable(path string) (*ZipTable, error) {
	var rows [][]string
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		rows, err = readXLSXRows(path)
	default:
		rows, err = readCSVRows(path)
	}
	if err != nil {
		return nil, err
	}

	table := NewZipTable()
	skipped := 0
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		if len(row) < 5 {
			skipped++
			continue
		}
		low, lowErr := strconv.Atoi(strings.TrimSpace(row[1]))
		high, highErr := strconv.Atoi(strings.TrimSpace(row[2]))
		if lowErr != nil || highErr != nil || low > high {
			skipped++
			continue
		}
		table.add(strings.TrimSpace(row[0]), low, high, row[3], row[4])
	}
	table.sortRanges()

	if skipped > 0 {
		zap.L().Warn("zip table: skipped malformed rows",
			zap.String("path", path),
			zap.Int("skipped", skipped),
		)
	}
	zap.L().Info("loaded zip+4 district table",
		zap.String("path", path),
		zap.Int("ranges", table.Len()),
	)
	return table, nil
}

func readCSVRows(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "zip table: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, eris.Wrapf(err, "zip table: read %s", path)
	}
	return rows, nil
}

func readXLSXRows(path string) ([][]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "zip table: open %s", path)
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Errorf("zip table: %s has no sheets", path)
	}

	var rows [][]string
	for _, row := range f.Sheets[0].Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		rows = append(rows, cells)
	}
	return rows, nil
}
