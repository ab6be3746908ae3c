// Package number formats numeric values to an exchange's required
// precision. It is pure and stateless: identical inputs always produce the
// identical canonical decimal string, which matters for exchanges that
// reject orders whose price or amount does not sit exactly on their grid.
package number

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Mode selects how the precision value is interpreted.
type Mode int

const (
	// DecimalPlaces treats precision as a count of fractional digits.
	// Negative counts round into the integer part (tens, hundreds).
	DecimalPlaces Mode = iota

	// SignificantDigits treats precision as a count of significant digits
	// regardless of magnitude.
	SignificantDigits

	// TickSize treats precision as an increment; the result is a multiple
	// of it.
	TickSize
)

// Rounding selects the discipline applied at the precision boundary.
type Rounding int

const (
	// Round goes to nearest, ties away from zero.
	Round Rounding = iota

	// Truncate goes toward zero.
	Truncate
)

// ToPrecision parses value and formats it per mode and rounding. It fails
// with a validation error when value is not a finite number or when the
// precision does not fit the mode (non-integer decimal places, significant
// digits < 1, tick <= 0).
func ToPrecision(value string, r Rounding, precision decimal.Decimal, m Mode) (string, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return "", fmt.Errorf("invalid numeric value %q: %w", value, err)
	}
	return Apply(d, r, precision, m)
}

// Apply is ToPrecision for an already-parsed decimal.
func Apply(d decimal.Decimal, r Rounding, precision decimal.Decimal, m Mode) (string, error) {
	switch m {
	case DecimalPlaces:
		if !precision.IsInteger() {
			return "", fmt.Errorf("decimal-places precision must be an integer, got %s", precision)
		}
		return canonical(toDecimalPlaces(d, r, int32(precision.IntPart()))), nil

	case SignificantDigits:
		if !precision.IsInteger() || precision.IntPart() < 1 {
			return "", fmt.Errorf("significant-digits precision must be a positive integer, got %s", precision)
		}
		return canonical(toSignificantDigits(d, r, precision.IntPart())), nil

	case TickSize:
		if !precision.IsPositive() {
			return "", fmt.Errorf("tick size must be positive, got %s", precision)
		}
		return canonical(toTickSize(d, r, precision)), nil
	}
	return "", fmt.Errorf("unknown precision mode %d", m)
}

func toDecimalPlaces(d decimal.Decimal, r Rounding, places int32) decimal.Decimal {
	if r == Round {
		// shopspring Round is half away from zero.
		return d.Round(places)
	}
	return d.Shift(places).Truncate(0).Shift(-places)
}

func toSignificantDigits(d decimal.Decimal, r Rounding, digits int64) decimal.Decimal {
	if d.IsZero() {
		return decimal.Zero
	}
	// magnitude of the leading digit: 10^magnitude <= |d| < 10^(magnitude+1)
	magnitude := int64(d.NumDigits()) + int64(d.Exponent()) - 1
	places := digits - 1 - magnitude
	return toDecimalPlaces(d, r, int32(places))
}

func toTickSize(d decimal.Decimal, r Rounding, tick decimal.Decimal) decimal.Decimal {
	ticks := d.DivRound(tick, 32)
	if r == Round {
		ticks = ticks.Round(0)
	} else {
		ticks = ticks.Truncate(0)
	}
	return ticks.Mul(tick)
}

// canonical renders a decimal without trailing fractional zeros, exponent
// notation, or a sign on zero.
func canonical(d decimal.Decimal) string {
	s := d.String()
	if strings.ContainsRune(s, '.') {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	if s == "-0" || s == "" {
		s = "0"
	}
	return s
}
