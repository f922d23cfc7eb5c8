// Package geometry owns the congressional-district polygon set and answers
// point-containment and nearest-boundary queries against it.
package geometry

import (
	"fmt"

	"github.com/twpayne/go-geom"
)

// District is one congressional district with its geographic extent.
// Geometry is immutable once loaded.
type District struct {
	StateCode string             `json:"state"`
	Number    int                `json:"district"`
	AtLarge   bool               `json:"at_large"`
	Geometry  *geom.MultiPolygon `json:"-"`

	bounds *geom.Bounds
}

// Code returns the canonical "STATE-NUMBER" label, e.g. "CA-12". At-large
// districts are labeled "STATE-AL".
func (d *District) Code() string {
	if d.AtLarge {
		return d.StateCode + "-AL"
	}
	return fmt.Sprintf("%s-%d", d.StateCode, d.Number)
}

// Bounds returns the district's bounding box. The box is computed once at
// load time; districts built without one fall back to computing it here.
func (d *District) Bounds() *geom.Bounds {
	if d.bounds == nil {
		d.bounds = d.Geometry.Bounds()
	}
	return d.bounds
}

// stateByFIPS maps two-digit state FIPS codes to USPS state codes.
var stateByFIPS = map[string]string{
	"01": "AL", "02": "AK", "04": "AZ", "05": "AR", "06": "CA",
	"08": "CO", "09": "CT", "10": "DE", "11": "DC", "12": "FL",
	"13": "GA", "15": "HI", "16": "ID", "17": "IL", "18": "IN",
	"19": "IA", "20": "KS", "21": "KY", "22": "LA", "23": "ME",
	"24": "MD", "25": "MA", "26": "MI", "27": "MN", "28": "MS",
	"29": "MO", "30": "MT", "31": "NE", "32": "NV", "33": "NH",
	"34": "NJ", "35": "NM", "36": "NY", "37": "NC", "38": "ND",
	"39": "OH", "40": "OK", "41": "OR", "42": "PA", "44": "RI",
	"45": "SC", "46": "SD", "47": "TN", "48": "TX", "49": "UT",
	"50": "VT", "51": "VA", "53": "WA", "54": "WV", "55": "WI",
	"56": "WY", "60": "AS", "66": "GU", "69": "MP", "72": "PR",
	"78": "VI",
}

// StateCodeForFIPS returns the USPS state code for a two-digit FIPS code.
func StateCodeForFIPS(fips string) (string, bool) {
	code, ok := stateByFIPS[fips]
	return code, ok
}
