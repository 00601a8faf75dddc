package processor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/joineryai/quote-engine/constants"
	"github.com/joineryai/quote-engine/internal/classify"
	"github.com/joineryai/quote-engine/internal/entity"
	"github.com/joineryai/quote-engine/internal/extract"
	"github.com/joineryai/quote-engine/internal/parser"
	"github.com/joineryai/quote-engine/internal/pricing"
)

// Result is the full outcome of processing one document: the acquired text,
// its classification, and whichever parsed shape matched the category.
// Exactly one of Supplier/Client is populated unless the document stayed
// unknown, in which case both are nil.
type Result struct {
	JobID          string                      `json:"job_id"`
	Text           entity.ExtractedText        `json:"text"`
	Classification entity.QuoteClassification  `json:"classification"`
	Supplier       *entity.ParsedSupplierQuote `json:"supplier,omitempty"`
	Client         *entity.ParsedClientQuote   `json:"client,omitempty"`
	ClientQuote    *entity.ClientFacingQuote   `json:"client_quote,omitempty"`
}

// Processor runs the extract, classify, parse, transform pipeline.
type Processor struct {
	extractor extract.TextExtractor
	logger    *slog.Logger
}

func New(extractor extract.TextExtractor, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{extractor: extractor, logger: logger}
}

// Parse acquires text from the document and classifies it, parsing with the
// extractor that matches the resolved category. Documents that classify as
// unknown are re-examined: supplier line items win, then a client extraction
// with any usable signal, and only then does the category stay unknown.
func (p *Processor) Parse(ctx context.Context, data []byte) (*Result, error) {
	jobID := uuid.NewString()
	log := p.logger.With("jobId", jobID)

	text, err := p.extractor.ExtractText(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("extracting text: %w", err)
	}
	log.Info("text acquired", "source", text.Source, "qualityOk", text.QualityOK, "chars", len(text.Text))

	classification := classify.Classify(text.Text)
	result := &Result{JobID: jobID, Text: text, Classification: classification}

	switch constants.QuoteCategory(classification.Category) {
	case constants.Supplier:
		parsed := parser.ParseSupplier(text.Text)
		result.Supplier = &parsed
	case constants.Client:
		parsed := parser.ParseClient(text.Text)
		result.Client = &parsed
	default:
		p.resolveUnknown(text.Text, result)
	}

	log.Info("document parsed",
		"category", result.Classification.Category,
		"supplierScore", classification.SupplierScore,
		"clientScore", classification.ClientScore)
	return result, nil
}

// resolveUnknown runs both extractors over an unclassified document and
// promotes whichever produced usable structure.
func (p *Processor) resolveUnknown(text string, result *Result) {
	supplier := parser.ParseSupplier(text)
	if len(supplier.Lines) > 0 {
		result.Classification.Category = string(constants.Supplier)
		result.Supplier = &supplier
		return
	}
	client := parser.ParseClient(text)
	if client.Confidence >= constants.ClientSignalThreshold {
		result.Classification.Category = string(constants.Client)
		result.Client = &client
		return
	}
}

// Process runs Parse and, for supplier documents, applies the pricing
// transformation to produce a client-facing quote.
func (p *Processor) Process(ctx context.Context, data []byte, cfg entity.PricingConfig) (*Result, error) {
	result, err := p.Parse(ctx, data)
	if err != nil {
		return nil, err
	}
	if result.Supplier != nil {
		quote := pricing.BuildClientQuote(*result.Supplier, cfg)
		result.ClientQuote = &quote
	}
	return result, nil
}
