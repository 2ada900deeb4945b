package builtin

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"olympics/internal/records"
)

// nbspace is U+00A0 NO-BREAK SPACE.
const nbspace = "\u00a0"

// Normalize rewrites every string value to Unicode NFC, replaces no-break
// spaces with ASCII spaces and trims surrounding whitespace. Extracts produced
// on different platforms can spell the same accented name in composed or
// decomposed form; NFC makes both hash to the same identity.
//
// Records are mutated in place. Non-string values are left unchanged.
type Normalize struct{}

// Apply normalizes all string values of in.
func (Normalize) Apply(in []records.Record) []records.Record {
	for _, r := range in {
		for k, v := range r {
			if s, ok := v.(string); ok {
				r[k] = NormalizeString(s)
			}
		}
	}
	return in
}

// NormalizeString applies the Normalize rules to a single value.
func NormalizeString(s string) string {
	if strings.Contains(s, nbspace) {
		s = strings.ReplaceAll(s, nbspace, " ")
	}
	s = strings.TrimSpace(s)
	if !norm.NFC.IsNormalString(s) {
		s = norm.NFC.String(s)
	}
	return s
}
