package entity

// PricingConfig controls how a supplier cost breakdown becomes a client quote.
// All fields are taken as given; a zero MarkupPercent or VATPercent means no
// markup or no VAT. Defaults come from DefaultPricingConfig or the caller.
type PricingConfig struct {
	MarkupPercent             float64  `json:"markupPercent"`
	VATPercent                float64  `json:"vatPercent"`
	MarkupDelivery            bool     `json:"markupDelivery"`
	AmalgamateDelivery        bool     `json:"amalgamateDelivery"`
	ClientDeliveryGBP         *float64 `json:"clientDeliveryGBP"`
	ClientDeliveryDescription *string  `json:"clientDeliveryDescription"`
	RoundTo                   int      `json:"roundTo"`
}

// DefaultPricingConfig returns the standard business configuration:
// 20% markup, 20% VAT, delivery amalgamated into product lines, 2dp rounding.
func DefaultPricingConfig() PricingConfig {
	return PricingConfig{
		MarkupPercent:      20.0,
		VATPercent:         20.0,
		MarkupDelivery:     false,
		AmalgamateDelivery: true,
		RoundTo:            2,
	}
}
