package parser

import (
	"regexp"
	"strings"
)

// supplierNameMaxLines bounds how deep into the document name detection
// looks; supplier letterheads live at the top, and matching the whole body
// produces false positives like "from the outside".
const supplierNameMaxLines = 80

// knownSuppliers are matched before any generic pattern, case-insensitively.
var knownSuppliers = []string{
	"Wealden Joinery",
	"Woodleys",
	"Woodger",
	"Howdens",
	"JELD-WEN",
	"Travis Perkins",
}

var supplierNamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:quote|invoice)\s+from[\s:]+([A-Z][A-Za-z\s&]+?)\s*$`),
	regexp.MustCompile(`(?i)supplier[\s:]+([A-Z][A-Za-z\s&]+?)\s*$`),
	regexp.MustCompile(`^([A-Z][A-Za-z\s&]+?)\s*(?:Ltd|Limited)\.?\s*$`),
}

var totalLabelPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)grand\s+total\s*[:\-]?\s*[£$€]?\s*(\d[\d,]*\.?\d*)`),
	regexp.MustCompile(`(?i)total\s*(?:due|amount)?\s*[:\-]?\s*[£$€]?\s*(\d[\d,]*\.?\d*)`),
	regexp.MustCompile(`(?i)balance\s*due\s*[:\-]?\s*[£$€]?\s*(\d[\d,]*\.?\d*)`),
	regexp.MustCompile(`(?i)sub\s*-?\s*total\s*[:\-]?\s*[£$€]?\s*(\d[\d,]*\.?\d*)`),
	regexp.MustCompile(`(?i)total\s+invoice\s*[:\-]?\s*[£$€]?\s*(\d[\d,]*\.?\d*)`),
	regexp.MustCompile(`(?i)total\s+investment\s*[:\-]?\s*[£$€]?\s*(\d[\d,]*\.?\d*)`),
}

// detectCurrency returns the first currency symbol in the text, or an
// explicit 3-letter code sighted near a table header when no symbol exists.
func detectCurrency(text string, lines []string) *string {
	if m := currencySymbolRe.FindString(text); m != "" {
		return &m
	}
	for i, line := range lines {
		if !tableContextRe.MatchString(line) {
			continue
		}
		lo := i - 3
		if lo < 0 {
			lo = 0
		}
		hi := i + 3
		if hi >= len(lines) {
			hi = len(lines) - 1
		}
		for j := lo; j <= hi; j++ {
			if m := currencyCodeRe.FindString(lines[j]); m != "" {
				code := strings.ToUpper(m)
				return &code
			}
		}
	}
	return nil
}

// detectSupplierName scans the document head for a vendor name: the known
// list first, then generic letterhead patterns.
func detectSupplierName(lines []string) *string {
	max := supplierNameMaxLines
	if len(lines) < max {
		max = len(lines)
	}
	head := lines[:max]

	for _, known := range knownSuppliers {
		for _, line := range head {
			if strings.Contains(strings.ToLower(line), strings.ToLower(known)) {
				name := known
				return &name
			}
		}
	}

	for _, pat := range supplierNamePatterns {
		for _, line := range head {
			if m := pat.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
				name := squeezeSpaces(m[1])
				if name != "" {
					return &name
				}
			}
		}
	}
	return nil
}

// detectLabeledTotals collects every amount that follows a known total label.
// Labels overlap ("grand total" also matches the plain "total" pattern), so
// each amount position is only counted once.
func detectLabeledTotals(text string) []float64 {
	candidates := []float64{}
	claimed := map[int]bool{}
	for _, pat := range totalLabelPatterns {
		for _, idx := range pat.FindAllStringSubmatchIndex(text, -1) {
			start, end := idx[2], idx[3]
			if start < 0 || claimed[start] {
				continue
			}
			if v, ok := parseAmount(text[start:end]); ok && v > 0 {
				claimed[start] = true
				candidates = append(candidates, v)
			}
		}
	}
	return candidates
}
