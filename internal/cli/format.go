// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"strconv"
	"strings"
)

// Placeholder is shown for values that do not apply.
const Placeholder = "—"

// FormatBRL formats integer cents as Brazilian reais.
// e.g., 536812 -> "R$ 5.368,12", -1050 -> "-R$ 10,50"
func FormatBRL(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%sR$ %s,%02d", sign, FormatNumber(cents/100), cents%100)
}

// FormatBRLShort abbreviates large amounts for chart labels.
// e.g., 123456789 -> "R$ 1,2 mi", 4500000 -> "R$ 45 mil"
func FormatBRLShort(cents int64) string {
	reais := float64(cents) / 100
	abs := reais
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs >= 1_000_000_000:
		return "R$ " + decimalComma(fmt.Sprintf("%.1f", reais/1_000_000_000)) + " bi"
	case abs >= 1_000_000:
		return "R$ " + decimalComma(fmt.Sprintf("%.1f", reais/1_000_000)) + " mi"
	case abs >= 1_000:
		return fmt.Sprintf("R$ %.0f mil", reais/1_000)
	default:
		return FormatBRL(cents)
	}
}

// FormatNumber adds dot separators to an integer.
// e.g., 1234567 -> "1.234.567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte('.')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatPct formats a 0-100 percentage with one decimal.
// e.g., 16.666 -> "16,7%"
func FormatPct(p float64) string {
	return decimalComma(fmt.Sprintf("%.1f", p)) + "%"
}

// FormatRatio renders "done/total (pct%)", or the placeholder when total is 0.
func FormatRatio(done, total int, pct float64) string {
	if total == 0 {
		return Placeholder
	}
	return fmt.Sprintf("%d/%d (%.0f%%)", done, total, pct)
}

// OrPlaceholder returns s, or the placeholder when s is empty.
func OrPlaceholder(s string) string {
	if s == "" {
		return Placeholder
	}
	return s
}

// Truncate shortens s to at most n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}

func decimalComma(s string) string {
	return strings.Replace(s, ".", ",", 1)
}
