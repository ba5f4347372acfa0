package provider

import (
	"fmt"
	"strings"
	"time"
)

// dateLayouts are the input formats adapters accept for date fields.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"01/02/2006",
}

// NormalizeDate converts a provider date value to YYYY-MM-DD. It returns
// ok=false for empty values and for values that parse to no known layout;
// callers drop such fields instead of forwarding garbage.
func NormalizeDate(v any) (string, bool) {
	switch d := v.(type) {
	case time.Time:
		if d.IsZero() {
			return "", false
		}
		return d.Format("2006-01-02"), true
	case string:
		s := strings.TrimSpace(d)
		if s == "" {
			return "", false
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.Format("2006-01-02"), true
			}
		}
		return "", false
	default:
		return "", false
	}
}

// IsEmptyValue reports whether a field value should be treated as absent
// during transformation: nil, empty/whitespace string, or empty slice.
func IsEmptyValue(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	case []any:
		return len(x) == 0
	default:
		return false
	}
}

// WhitelistFields returns a copy of fields keeping only whitelisted names.
// Providers reject or silently ignore unknown fields, and some expose
// read-only fields in their issue payloads that must never be echoed back.
func WhitelistFields(fields map[string]any, allowed map[string]bool) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if allowed[k] {
			out[k] = v
		}
	}
	return out
}

// Stringify renders a scalar field value for transmission in string form.
func Stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprintf("%v", x)
	}
}
