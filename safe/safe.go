// Package safe reads fields out of decoded JSON (map[string]any, []any)
// without panicking. Missing keys, nulls, and uncoercible types yield zero
// values or nil pointers; numeric getters accept both JSON numbers and
// numeric strings, while booleans and composites are never silently
// stringified.
package safe

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// String returns the value at key as a string. JSON numbers are rendered
// back to their decimal form; anything else non-string yields "".
func String(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	return coerceString(m[key])
}

// String2 returns the first non-empty String of two keys.
func String2(m map[string]any, key1, key2 string) string {
	if s := String(m, key1); s != "" {
		return s
	}
	return String(m, key2)
}

// StringN returns the first non-empty String of the given keys.
func StringN(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := String(m, k); s != "" {
			return s
		}
	}
	return ""
}

// StringLower lowercases String.
func StringLower(m map[string]any, key string) string {
	return strings.ToLower(String(m, key))
}

// StringUpper uppercases String.
func StringUpper(m map[string]any, key string) string {
	return strings.ToUpper(String(m, key))
}

// Integer returns the value at key as int64, reading JSON numbers and
// integral numeric strings. Fractional values truncate toward zero.
func Integer(m map[string]any, key string) int64 {
	i, _ := IntegerOK(m, key)
	return i
}

// IntegerOK is Integer with an explicit presence flag.
func IntegerOK(m map[string]any, key string) (int64, bool) {
	if m == nil {
		return 0, false
	}
	switch v := m[key].(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, false
		}
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return int64(f), true
		}
	}
	return 0, false
}

// Integer2 returns the first present Integer of two keys.
func Integer2(m map[string]any, key1, key2 string) int64 {
	if i, ok := IntegerOK(m, key1); ok {
		return i
	}
	return Integer(m, key2)
}

// IntegerProduct returns the value at key multiplied by factor, for
// exchanges reporting timestamps in coarser units.
func IntegerProduct(m map[string]any, key string, factor int64) int64 {
	if i, ok := IntegerOK(m, key); ok {
		return i * factor
	}
	return 0
}

// Timestamp reads a seconds-resolution timestamp and returns milliseconds.
func Timestamp(m map[string]any, key string) int64 {
	return IntegerProduct(m, key, 1000)
}

// Decimal returns the value at key as an exact decimal, or nil when the
// field is absent or not numeric. Strings are parsed directly so no float64
// round-trip occurs.
func Decimal(m map[string]any, key string) *decimal.Decimal {
	if m == nil {
		return nil
	}
	return coerceDecimal(m[key])
}

// Decimal2 returns the first present Decimal of two keys.
func Decimal2(m map[string]any, key1, key2 string) *decimal.Decimal {
	if d := Decimal(m, key1); d != nil {
		return d
	}
	return Decimal(m, key2)
}

// DecimalN returns the first present Decimal of the given keys.
func DecimalN(m map[string]any, keys ...string) *decimal.Decimal {
	for _, k := range keys {
		if d := Decimal(m, k); d != nil {
			return d
		}
	}
	return nil
}

// Float returns the value at key as float64 for display-only uses.
func Float(m map[string]any, key string) float64 {
	if d := Decimal(m, key); d != nil {
		return d.InexactFloat64()
	}
	return 0
}

// Bool returns the value at key as bool; the strings "true"/"false" count.
func Bool(m map[string]any, key string) bool {
	if m == nil {
		return false
	}
	switch v := m[key].(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(v, "true")
	}
	return false
}

// Value returns the raw value at key, nil when absent.
func Value(m map[string]any, key string) any {
	if m == nil {
		return nil
	}
	return m[key]
}

// Map returns the value at key as a nested object, nil otherwise.
func Map(m map[string]any, key string) map[string]any {
	if m == nil {
		return nil
	}
	nested, _ := m[key].(map[string]any)
	return nested
}

// List returns the value at key as an array, nil otherwise.
func List(m map[string]any, key string) []any {
	if m == nil {
		return nil
	}
	list, _ := m[key].([]any)
	return list
}

// IndexString returns the element at i of a decoded array as a string.
func IndexString(list []any, i int) string {
	if i < 0 || i >= len(list) {
		return ""
	}
	return coerceString(list[i])
}

// IndexDecimal returns the element at i of a decoded array as a decimal.
func IndexDecimal(list []any, i int) *decimal.Decimal {
	if i < 0 || i >= len(list) {
		return nil
	}
	return coerceDecimal(list[i])
}

// Stringify renders a scalar parameter value for an outgoing request.
func Stringify(v any) string {
	if d, ok := v.(decimal.Decimal); ok {
		return d.String()
	}
	if b, ok := v.(bool); ok {
		return strconv.FormatBool(b)
	}
	return coerceString(v)
}

func coerceString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(s, 10)
	case int:
		return strconv.Itoa(s)
	}
	return ""
}

func coerceDecimal(v any) *decimal.Decimal {
	switch n := v.(type) {
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return nil
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return nil
		}
		return &d
	case float64:
		d := decimal.NewFromFloat(n)
		return &d
	case int64:
		d := decimal.NewFromInt(n)
		return &d
	case int:
		d := decimal.NewFromInt(int64(n))
		return &d
	}
	return nil
}
