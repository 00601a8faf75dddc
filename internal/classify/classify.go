// Package classify scores document text against supplier-quote and
// client-quote indicator sets. The caller resolves unknown results by probing
// both extractors (see processor).
package classify

import (
	"regexp"

	"github.com/joineryai/quote-engine/constants"
	"github.com/joineryai/quote-engine/internal/entity"
)

// indicator is one scored pattern in a rule table. New heuristics are added
// by appending to the tables, not by touching control flow.
type indicator struct {
	name    string
	pattern *regexp.Regexp
	weight  int
}

var supplierIndicators = []indicator{
	{"invoice_from", regexp.MustCompile(`(?i)\binvoice\s+from\b`), 1},
	{"payment_terms", regexp.MustCompile(`(?i)\bpayment\s+terms\b`), 1},
	{"order_number", regexp.MustCompile(`(?i)\border\s+(?:number|no\.?)\b`), 1},
	{"bank_details", regexp.MustCompile(`(?i)\bbank\s+(?:details|transfer)\b`), 1},
	{"account_number", regexp.MustCompile(`(?i)\baccount\s+(?:number|no\.?)\b`), 1},
	{"sort_code", regexp.MustCompile(`(?i)\bsort\s+code\b`), 1},
	{"net_days", regexp.MustCompile(`(?i)\bnet\s+\d+\s+days?\b`), 1},
	{"remittance", regexp.MustCompile(`(?i)\bremittance\b`), 1},
}

var clientIndicators = []indicator{
	{"estimate_header", regexp.MustCompile(`(?m)^\s*ESTIMATE\b`), 1},
	{"quotation_header", regexp.MustCompile(`(?m)^\s*QUOTATION\b`), 1},
	{"proposal_header", regexp.MustCompile(`(?m)^\s*PROPOSAL\b`), 1},
	{"reference_estimate_number", regexp.MustCompile(`(?is)\breference\b.{0,120}\bestimate\s+(?:number|no\.?)\b`), 1},
	{"date_of_estimate", regexp.MustCompile(`(?i)\bdate\s+of\s+estimate\b`), 1},
	{"validity_days", regexp.MustCompile(`(?i)\bvalid(?:ity)?\b[^\n]{0,30}\b\d+\s+days?\b`), 1},
	{"enquiry_greeting", regexp.MustCompile(`(?i)thank\s+you\s+for\s+your\s+(?:enquiry|inquiry)|we\s+are\s+pleased\s+to\s+(?:provide|quote|submit)`), 1},
	{"vat_breakdown", regexp.MustCompile(`(?is)\bsub\s*-?\s*total\b.{0,160}\bVAT\b.{0,160}\btotal\b`), 1},
	{"spec_table_header", regexp.MustCompile(`(?i)\bitem\b[^\n]{0,60}\bwidth\b[^\n]{0,40}\bheight\b`), 1},
}

// Strong combined indicators bias decisive cases with a larger fixed bonus.
// Every sub-pattern must match for the bonus to apply.
var strongClientIndicators = []struct {
	name     string
	patterns []*regexp.Regexp
	bonus    int
}{
	{
		name: "estimate_reference_windows",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?m)^\s*ESTIMATE\b`),
			regexp.MustCompile(`(?i)\breference\b`),
			regexp.MustCompile(`(?i)\bwindows?\b`),
		},
		bonus: 3,
	},
	{
		name: "specialists_in_joinery",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bspecialists?\s+in\b[^\n]{0,80}\bjoinery\b`),
		},
		bonus: 2,
	},
}

// Classify scores text against both indicator sets and returns the category
// with the higher score. A tie (including both zero) is unknown; it never
// returns an error.
func Classify(text string) entity.QuoteClassification {
	var supplierScore, clientScore int

	for _, ind := range supplierIndicators {
		if ind.pattern.MatchString(text) {
			supplierScore += ind.weight
		}
	}
	for _, ind := range clientIndicators {
		if ind.pattern.MatchString(text) {
			clientScore += ind.weight
		}
	}
	for _, strong := range strongClientIndicators {
		matched := true
		for _, p := range strong.patterns {
			if !p.MatchString(text) {
				matched = false
				break
			}
		}
		if matched {
			clientScore += strong.bonus
		}
	}

	category := constants.Unknown
	switch {
	case supplierScore > clientScore:
		category = constants.Supplier
	case clientScore > supplierScore:
		category = constants.Client
	}

	return entity.QuoteClassification{
		Category:      string(category),
		SupplierScore: supplierScore,
		ClientScore:   clientScore,
	}
}
