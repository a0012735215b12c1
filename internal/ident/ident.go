// Package ident canonicalizes identifiers coming from the remote list store.
//
// Remote item ids and foreign keys arrive as strings, JSON numbers or plain
// Go numbers depending on the transport and on who wrote the record. Every
// comparison between identifiers in this module goes through Normalize, so
// that 7, 7.0, "7" and " 7 " all refer to the same entity.
package ident

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Normalize returns the canonical string form of v.
//
// nil yields "". Strings are trimmed. Numbers are rendered without exponent
// and without trailing zeros. Any other value is formatted with fmt and
// trimmed. Normalize is total and idempotent.
func Normalize(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case *string:
		if x == nil {
			return ""
		}
		return strings.TrimSpace(*x)
	case json.Number:
		return normalizeNumeric(strings.TrimSpace(x.String()))
	case float64:
		return formatFloat(x)
	case float32:
		return formatFloat(float64(x))
	case int:
		return strconv.FormatInt(int64(x), 10)
	case int8:
		return strconv.FormatInt(int64(x), 10)
	case int16:
		return strconv.FormatInt(int64(x), 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint:
		return strconv.FormatUint(uint64(x), 10)
	case uint8:
		return strconv.FormatUint(uint64(x), 10)
	case uint16:
		return strconv.FormatUint(uint64(x), 10)
	case uint32:
		return strconv.FormatUint(uint64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case bool:
		return strconv.FormatBool(x)
	case fmt.Stringer:
		return strings.TrimSpace(x.String())
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}

// Equal reports whether a and b normalize to the same identifier.
func Equal(a, b any) bool {
	return Normalize(a) == Normalize(b)
}

// EqualFold is Equal with case-insensitive comparison. Used for logins.
func EqualFold(a, b any) bool {
	return strings.EqualFold(Normalize(a), Normalize(b))
}

func normalizeNumeric(s string) string {
	if s == "" {
		return ""
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return strconv.FormatInt(n, 10)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return formatFloat(f)
	}
	return s
}

func formatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
