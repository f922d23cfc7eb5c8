package orchestrator

import (
	"regexp"
	"strings"

	"github.com/sells-group/district-cli/internal/validator"
)

// ParseError is the one fatal, caller-visible orchestrator error: the raw
// string yielded no usable address components under any heuristic.
type ParseError struct {
	Raw string
}

func (e *ParseError) Error() string {
	return "unable to parse address: " + e.Raw
}

// validStates is the set of recognized state and territory codes.
var validStates = map[string]bool{
	"AL": true, "AK": true, "AZ": true, "AR": true, "CA": true, "CO": true,
	"CT": true, "DE": true, "DC": true, "FL": true, "GA": true, "HI": true,
	"ID": true, "IL": true, "IN": true, "IA": true, "KS": true, "KY": true,
	"LA": true, "ME": true, "MD": true, "MA": true, "MI": true, "MN": true,
	"MS": true, "MO": true, "MT": true, "NE": true, "NV": true, "NH": true,
	"NJ": true, "NM": true, "NY": true, "NC": true, "ND": true, "OH": true,
	"OK": true, "OR": true, "PA": true, "RI": true, "SC": true, "SD": true,
	"TN": true, "TX": true, "UT": true, "VT": true, "VA": true, "WA": true,
	"WV": true, "WI": true, "WY": true, "AS": true, "GU": true, "MP": true,
	"PR": true, "VI": true,
}

// streetSuffixes are tokens that end the street portion of an address.
var streetSuffixes = map[string]bool{
	"st": true, "street": true, "ave": true, "avenue": true, "blvd": true,
	"boulevard": true, "dr": true, "drive": true, "rd": true, "road": true,
	"ln": true, "lane": true, "ct": true, "court": true, "cir": true,
	"circle": true, "way": true, "pl": true, "place": true, "ter": true,
	"terrace": true, "pkwy": true, "parkway": true, "hwy": true,
	"highway": true, "trl": true, "trail": true, "sq": true, "square": true,
}

// trailing "ST 12345-6789", "ST 12345", or bare "ST".
var stateZipRe = regexp.MustCompile(`(?i)\b([A-Za-z]{2})[.,]?\s*(\d{5}(?:-\d{4})?)?\s*$`)

var zipRe = regexp.MustCompile(`^(\d{5})(?:-(\d{4}))?$`)

// ParseAddress turns a raw address string into components. Comma-delimited
// input is split positionally; otherwise regex heuristics locate a trailing
// state code (with optional ZIP) and a street-suffix token to separate
// street from city. Returns *ParseError when neither a street-like token
// nor a state token can be located.
func ParseAddress(raw string) (validator.Address, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return validator.Address{}, &ParseError{Raw: raw}
	}

	segments := splitTrim(raw, ",")
	var addr validator.Address
	if len(segments) >= 2 {
		addr = parseCommaSegments(segments)
	} else {
		addr = parseFreeform(raw)
	}

	addr.State = strings.ToUpper(addr.State)
	if addr.Street == "" || (addr.State == "" && !streetLike(addr.Street)) {
		return validator.Address{}, &ParseError{Raw: raw}
	}
	return addr, nil
}

// parseCommaSegments handles "street, city, state zip" style input, with
// the state and ZIP possibly in their own segments.
func parseCommaSegments(segments []string) validator.Address {
	addr := validator.Address{Street: segments[0]}

	rest := strings.Join(segments[1:], " ")
	if m := stateZipRe.FindStringSubmatchIndex(rest); m != nil {
		state := strings.ToUpper(rest[m[2]:m[3]])
		if validStates[state] {
			addr.State = state
			if m[4] >= 0 {
				addr.Zip, addr.Zip4 = splitZip(rest[m[4]:m[5]])
			}
			addr.City = strings.Trim(strings.TrimSpace(rest[:m[2]]), ",")
			return addr
		}
	}

	// No recognizable state; treat the second segment as the city and look
	// for a bare ZIP at the end.
	addr.City = segments[1]
	last := segments[len(segments)-1]
	if zm := zipRe.FindStringSubmatch(last); zm != nil {
		addr.Zip = zm[1]
		addr.Zip4 = zm[2]
		if addr.City == last {
			addr.City = ""
		}
	}
	return addr
}

// parseFreeform handles input without commas: locate the trailing state and
// ZIP, then split street from city at the last street-suffix token.
func parseFreeform(raw string) validator.Address {
	var addr validator.Address
	body := raw

	if m := stateZipRe.FindStringSubmatchIndex(raw); m != nil {
		state := strings.ToUpper(raw[m[2]:m[3]])
		if validStates[state] {
			addr.State = state
			if m[4] >= 0 {
				addr.Zip, addr.Zip4 = splitZip(raw[m[4]:m[5]])
			}
			body = strings.TrimSpace(raw[:m[2]])
		}
	}

	tokens := strings.Fields(body)
	suffixIdx := -1
	for i, tok := range tokens {
		if streetSuffixes[strings.ToLower(strings.Trim(tok, "."))] {
			suffixIdx = i
		}
	}

	if suffixIdx >= 0 && suffixIdx < len(tokens)-1 {
		addr.Street = strings.Join(tokens[:suffixIdx+1], " ")
		addr.City = strings.Join(tokens[suffixIdx+1:], " ")
	} else {
		addr.Street = strings.Join(tokens, " ")
	}
	return addr
}

// streetLike reports whether the text plausibly names a street: it starts
// with a house number or contains a street-suffix token.
func streetLike(s string) bool {
	tokens := strings.Fields(s)
	if len(tokens) == 0 {
		return false
	}
	if c := tokens[0][0]; c >= '0' && c <= '9' {
		return true
	}
	for _, tok := range tokens {
		if streetSuffixes[strings.ToLower(strings.Trim(tok, "."))] {
			return true
		}
	}
	return false
}

func splitZip(z string) (zip5, zip4 string) {
	if m := zipRe.FindStringSubmatch(strings.TrimSpace(z)); m != nil {
		return m[1], m[2]
	}
	return strings.TrimSpace(z), ""
}

func splitTrim(s, sep string) []string {
	parts := strings.Split(s, sep)
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
