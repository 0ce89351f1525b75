// Package identifier canonicalizes shipment identifiers and centralizes the
// key aliases under which the OCR provider reports extracted fields.
package identifier

import (
	"fmt"
	"strconv"
	"strings"
)

// Normalize canonicalizes a free-text identifier so that values entered in
// different formats compare equal ("LR-2025 7713", "lr20257713" and
// "LR20257713" all normalize to "LR20257713"). It accepts any value, returns
// "" for nil, and never fails.
func Normalize(v any) string {
	s := coerceString(v)
	s = strings.ToUpper(strings.TrimSpace(s))

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func coerceString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	case float64:
		// JSON numbers decode as float64. Identifiers are integral in
		// practice, so avoid the exponent form %v would produce.
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return fmt.Sprintf("%v", t)
	}
}
