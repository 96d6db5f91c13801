package data

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrIntegerRange is returned for integer literals that do not fit in an int64
var ErrIntegerRange = errors.New("integer out of range")

// ValueKind is the runtime kind of a stored value
type ValueKind int

const (
	KindNull ValueKind = iota
	KindInteger
	KindFloat
	KindText
	KindBoolean
	KindUnsupported
)

func (k ValueKind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInteger:
		return "int"
	case KindFloat:
		return "float"
	case KindText:
		return "str"
	case KindBoolean:
		return "bool"
	}
	return "unsupported"
}

// KindOf reports the kind of a normalized value.
// Only nil, int64, float64, string and bool are recognised; use Normalize first
// for values coming from callers.
func KindOf(v interface{}) ValueKind {
	switch v.(type) {
	case nil:
		return KindNull
	case int64:
		return KindInteger
	case float64:
		return KindFloat
	case string:
		return KindText
	case bool:
		return KindBoolean
	}
	return KindUnsupported
}

// Normalize converts a Go value into one of the stored representations
// (nil, int64, float64, string, bool). ok is false for values that cannot be stored,
// including NaN and infinities.
func Normalize(v interface{}) (interface{}, bool) {
	switch x := v.(type) {
	case nil, int64, string, bool:
		return x, true
	case float64:
		return x, finite(x)
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case uint:
		if uint64(x) > math.MaxInt64 {
			return nil, false
		}
		return int64(x), true
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint64:
		if x > math.MaxInt64 {
			return nil, false
		}
		return int64(x), true
	case float32:
		return float64(x), finite(float64(x))
	case json.Number:
		n, err := parseNumber(x.String())
		if err != nil {
			return nil, false
		}
		return n, true
	}
	return nil, false
}

// Equal compares two normalized values the way filters and key checks do:
// Integer and Float compare numerically, Boolean never equals a number.
func Equal(a, b interface{}) bool {
	switch x := a.(type) {
	case nil:
		return b == nil
	case int64:
		switch y := b.(type) {
		case int64:
			return x == y
		case float64:
			return float64(x) == y
		}
	case float64:
		switch y := b.(type) {
		case int64:
			return x == float64(y)
		case float64:
			return x == y
		}
	case string:
		y, ok := b.(string)
		return ok && x == y
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	}
	return false
}

// Format renders a value for text output (CSV cells, shell tables).
// Null renders as the empty string.
func Format(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return formatFloat(x)
	case string:
		return x
	case bool:
		if x {
			return "True"
		}
		return "False"
	}
	return fmt.Sprint(v)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// parseNumber keeps integers integral: anything without a fraction or exponent is an int64.
// Integer literals beyond the int64 range fail with ErrIntegerRange.
func parseNumber(s string) (interface{}, error) {
	if !strings.ContainsAny(s, ".eE") {
		n, err := strconv.ParseInt(s, 10, 64)
		if errors.Is(err, strconv.ErrRange) {
			return nil, fmt.Errorf("%s: %w", s, ErrIntegerRange)
		}
		if err == nil {
			return n, nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// formatFloat always leaves a marker of floatness so the value reads back as Float.
func formatFloat(f float64) string {
	format := byte('f')
	if abs := math.Abs(f); abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		format = 'e'
	}
	s := strconv.FormatFloat(f, format, -1, 64)
	if !strings.ContainsAny(s, ".eEn") { // 'n' covers NaN and Inf
		s += ".0"
	}
	return s
}
