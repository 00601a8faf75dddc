package textextract

import (
	"context"
	"log/slog"

	"github.com/joineryai/quote-engine/internal/entity"
	"github.com/joineryai/quote-engine/internal/extract"
)

// Chain runs extraction strategies in order until one produces text that
// passes the quality gate. It never fails outright: if every strategy is
// exhausted, the best (possibly gibberish) text is still returned so
// downstream stages can attempt best-effort work and report low confidence.
type Chain struct {
	strategies []extract.Strategy
	logger     *slog.Logger
}

// NewChain builds a Chain over the given ordered strategies.
func NewChain(logger *slog.Logger, strategies ...extract.Strategy) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{strategies: strategies, logger: logger}
}

// ExtractText converts raw document bytes to text. The error return is used
// only for context cancellation; unreadable documents yield an empty result.
func (c *Chain) ExtractText(ctx context.Context, data []byte) (entity.ExtractedText, error) {
	var best entity.ExtractedText

	for _, s := range c.strategies {
		if err := ctx.Err(); err != nil {
			return best, err
		}

		text, err := s.Extract(ctx, data)
		if err != nil {
			c.logger.Debug("extraction strategy failed", "strategy", s.Name(), "error", err)
			continue
		}
		if text == "" {
			continue
		}
		if !IsGibberish(text) {
			c.logger.Debug("extraction strategy accepted", "strategy", s.Name(), "chars", len(text))
			return entity.ExtractedText{Text: text, Source: s.Name(), QualityOK: true}, nil
		}
		c.logger.Debug("extraction strategy rejected by quality gate", "strategy", s.Name(), "chars", len(text))
		// Keep the longest rejected text as a last resort.
		if len(text) > len(best.Text) {
			best = entity.ExtractedText{Text: text, Source: s.Name(), QualityOK: false}
		}
	}

	return best, nil
}
