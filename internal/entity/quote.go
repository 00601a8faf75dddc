package entity

// TextSource identifies which extraction strategy produced the text.
type TextSource string

const (
	SourceNativePrimary   TextSource = "native_primary"
	SourceNativeSecondary TextSource = "native_secondary"
	SourceOCR             TextSource = "ocr"
)

// ExtractedText is the outcome of the text acquisition chain for one document.
// Produced once per document; never mutated afterwards.
type ExtractedText struct {
	Text      string     `json:"text"`
	Source    TextSource `json:"source"`
	QualityOK bool       `json:"quality_ok"`
}

// QuoteClassification carries the category decision and the raw indicator scores.
type QuoteClassification struct {
	Category      string `json:"category"`
	SupplierScore int    `json:"supplier_score"`
	ClientScore   int    `json:"client_score"`
}

// LineItem is one priced row extracted from a supplier document.
// Total equals Qty*UnitPrice when both were independently known; when only a
// total was visible on the page, UnitPrice is back-computed from it.
type LineItem struct {
	Description string  `json:"description"`
	Qty         float64 `json:"qty"`
	UnitPrice   float64 `json:"unit_price"`
	Total       float64 `json:"total"`
}

// ParsedSupplierQuote is the structured result of supplier-quote extraction.
type ParsedSupplierQuote struct {
	Currency       *string    `json:"currency"`
	Supplier       *string    `json:"supplier"`
	Lines          []LineItem `json:"lines"`
	DetectedTotals []float64  `json:"detected_totals"`
	EstimatedTotal *float64   `json:"estimated_total"`
	Confidence     float64    `json:"confidence"`
}

// ParsedClientQuote is the structured result of client-quote extraction,
// used downstream as ML training signal.
type ParsedClientQuote struct {
	QuestionnaireAnswers map[string]any   `json:"questionnaire_answers"`
	ProjectDetails       map[string]any   `json:"project_details"`
	QuotedPrice          *float64         `json:"quoted_price"`
	LineItems            []map[string]any `json:"line_items"`
	Confidence           float64          `json:"confidence"`
}

// PricedLine is one row of a client-facing quote: the supplier cost figures
// next to the marked-up figures shown to the end client.
type PricedLine struct {
	Description       string  `json:"description"`
	Qty               float64 `json:"qty"`
	UnitPrice         float64 `json:"unit_price"`
	Total             float64 `json:"total"`
	UnitPriceMarkedUp float64 `json:"unit_price_marked_up"`
	TotalMarkedUp     float64 `json:"total_marked_up"`
}

// ClientFacingQuote is the priced quote derived from a supplier cost breakdown.
type ClientFacingQuote struct {
	Currency              string       `json:"currency"`
	MarkupPercent         float64      `json:"markup_percent"`
	VATPercent            float64      `json:"vat_percent"`
	Lines                 []PricedLine `json:"lines"`
	SupplierDeliveryTotal *float64     `json:"supplier_delivery_total"`
	ClientDeliveryCharge  *float64     `json:"client_delivery_charge"`
	Subtotal              float64      `json:"subtotal"`
	VATAmount             float64      `json:"vat_amount"`
	GrandTotal            float64      `json:"grand_total"`
}
