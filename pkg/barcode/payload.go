package barcode

import (
	"regexp"
	"strings"
)

// Field names that carry an employee number in tagged payloads such as
// "MD=00012345^PNR=00004711^DOK=LOHN".
var employeeKeys = map[string]bool{
	"pnr":            true,
	"persnr":         true,
	"pers_nr":        true,
	"personalnummer": true,
	"manr":           true,
	"ma":             true,
	"empid":          true,
	"employee":       true,
}

var scopeKeys = map[string]bool{
	"md":        true,
	"mandant":   true,
	"mandantnr": true,
	"tenant":    true,
}

var (
	numeric    = regexp.MustCompile(`^\d+$`)
	labeled    = regexp.MustCompile(`(?i)(?:^|[^\p{L}\d])(?:persnr|pers\.?-?nr|personalnummer|personalnr|manr|ma-nr|ma)\.?\s*[:#]?\s*(\d+)`)
	bareDigits = regexp.MustCompile(`(?:^|\D)(\d{4,8})(?:\D|$)`)
	delimiters = regexp.MustCompile(`[\s;,|^/_:=-]+`)
)

// ParseEmployeeID extracts an employee number from a raw barcode payload.
// Strategies are tried in order and the first hit wins: the whole payload is
// numeric, a tagged key=value^ field, a labeled number ("PersNr: 123",
// "MA 123"), a bare run of 4 to 8 digits, the first all-digit token.
// Tenant fields of a tagged payload never feed the fallbacks, so
// "MD=00012345^DOK=LOHN" carries no employee number.
func ParseEmployeeID(payload string) (string, bool) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return "", false
	}

	if numeric.MatchString(payload) {
		return payload, true
	}

	if v, ok := taggedField(payload, employeeKeys); ok && numeric.MatchString(v) {
		return v, true
	}

	payload = dropFields(payload, scopeKeys)
	if payload == "" {
		return "", false
	}

	if m := labeled.FindStringSubmatch(payload); m != nil {
		return m[1], true
	}

	if m := bareDigits.FindStringSubmatch(payload); m != nil {
		return m[1], true
	}

	for _, tok := range delimiters.Split(payload, -1) {
		if numeric.MatchString(tok) {
			return tok, true
		}
	}

	return "", false
}

// ParseScopeCode returns the tenant code carried in a tagged payload, if any.
func ParseScopeCode(payload string) (string, bool) {
	v, ok := taggedField(strings.TrimSpace(payload), scopeKeys)
	if !ok || !numeric.MatchString(v) {
		return "", false
	}
	return v, true
}

func taggedField(payload string, keys map[string]bool) (string, bool) {
	if !strings.Contains(payload, "=") {
		return "", false
	}

	for field := range strings.SplitSeq(payload, "^") {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			continue
		}
		if keys[strings.ToLower(strings.TrimSpace(key))] {
			return strings.TrimSpace(value), true
		}
	}
	return "", false
}

// dropFields removes the key=value fields named in keys from a tagged
// payload. Untagged payloads are returned unchanged.
func dropFields(payload string, keys map[string]bool) string {
	if !strings.Contains(payload, "=") {
		return payload
	}

	var kept []string
	for field := range strings.SplitSeq(payload, "^") {
		if key, _, ok := strings.Cut(field, "="); ok && keys[strings.ToLower(strings.TrimSpace(key))] {
			continue
		}
		kept = append(kept, field)
	}
	return strings.TrimSpace(strings.Join(kept, "^"))
}
