package parser

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	currencySymbolRe = regexp.MustCompile(`[£$€]`)
	currencyCodeRe   = regexp.MustCompile(`(?i)\b(GBP|EUR|USD)\b`)

	// amountLineRe matches a line that is nothing but a bare or
	// currency-prefixed decimal amount, e.g. "1,234.50" or "£ 980.00".
	amountLineRe = regexp.MustCompile(`^\s*[£$€]?\s*(\d{1,3}(?:,\d{3})*(?:\.\d{1,2})?|\d+(?:\.\d{1,2})?)\s*$`)

	// amountTokenRe finds an amount anywhere in a line.
	amountTokenRe = regexp.MustCompile(`[£$€]?\s*\d{1,3}(?:,\d{3})*(?:\.\d{1,2})?`)
)

// parseAmount converts "£1,234.50" style strings to a float. Malformed
// decimals report !ok so callers can skip the line rather than abort.
func parseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.TrimLeft(s, "£$€")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// amountOnLine reports whether the whole line is a single amount and returns it.
func amountOnLine(line string) (float64, bool) {
	m := amountLineRe.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	return parseAmount(m[1])
}

// roundTo rounds half away from zero at the given number of decimal places.
// Rounding happens at each intermediate pricing step, matching the line-level
// figures a human sees on an invoice.
func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
