package extract

import (
	"context"

	"github.com/joineryai/quote-engine/internal/entity"
)

// TextExtractor is Stage 1: document bytes -> text.
//
// Implementations never return an error for unreadable input; they degrade to
// an empty or low-quality ExtractedText and let downstream confidence scoring
// report the damage. The error return is reserved for caller mistakes
// (nil data) and context cancellation.
type TextExtractor interface {
	ExtractText(ctx context.Context, data []byte) (entity.ExtractedText, error)
}

// Strategy is a single extraction attempt inside the fallback chain.
// Extract returns the raw text it could recover; an error means the strategy
// is inapplicable to this document and the chain should move on.
type Strategy interface {
	Name() entity.TextSource
	Extract(ctx context.Context, data []byte) (string, error)
}
