package source

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Bounds on the decimal magnitude of an amount in reais. int64 cents top out
// near 9.2e16 reais, and anything under a thousandth of a real rounds to 0.
const (
	maxMagnitude = 17
	minMagnitude = -2
)

// ParseMoney converts a loosely formatted BRL amount ("R$ 5.368,12",
// "6009,557", "6009.55") to integer cents. It never fails: empty or
// unparseable input yields 0, as does an amount too large for int64 cents.
//
// When both separators appear, "." groups thousands and "," is the decimal
// point. A lone "," is the decimal point, and a lone "." is left as is.
// Rounding is half away from zero.
func ParseMoney(raw string) int64 {
	s := strings.ReplaceAll(raw, "R$", "")
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	if s == "" {
		return 0
	}

	if strings.Contains(s, ",") {
		if strings.Contains(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
		}
		s = strings.Replace(s, ",", ".", 1)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	// Digits left of the decimal point; negative for values below 0.1.
	// Checked before rescaling, which would otherwise expand exponents
	// like 1e99999999 into enormous integers.
	magnitude := int64(d.NumDigits()) + int64(d.Exponent())
	if magnitude > maxMagnitude {
		return 0
	}
	if magnitude < minMagnitude {
		return 0
	}
	cents := d.Mul(hundred).Round(0).BigInt()
	if !cents.IsInt64() {
		return 0
	}
	return cents.Int64()
}
