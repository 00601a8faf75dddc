package constants

import (
	"strings"
)

// QuoteCategory is the document classification outcome.
type QuoteCategory string

const (
	// Supplier is a cost document issued by a materials/fabrication vendor.
	Supplier QuoteCategory = "supplier"
	// Client is a price document issued by the business to its end customer.
	Client QuoteCategory = "client"
	// Unknown means neither indicator set scored decisively.
	Unknown QuoteCategory = "unknown"
)

var allCategories = []QuoteCategory{Supplier, Client, Unknown}

func AsStringSlice() []string {
	result := make([]string, len(allCategories))
	for i, cat := range allCategories {
		result[i] = string(cat)
	}
	return result
}

// Canonicalize maps free-form labels onto a QuoteCategory.
func Canonicalize(input string) (QuoteCategory, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))

	synonyms := map[string]QuoteCategory{
		"supplier":       Supplier,
		"supplier_quote": Supplier,
		"cost":           Supplier,
		"invoice":        Supplier,
		"client":         Client,
		"client_quote":   Client,
		"estimate":       Client,
		"quotation":      Client,
	}
	if cat, ok := synonyms[normalized]; ok {
		return cat, true
	}
	return Unknown, false
}
