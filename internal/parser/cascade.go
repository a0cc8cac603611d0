package parser

import (
	"context"
	"errors"
	"fmt"
	"log"

	"ledgerflow/internal/extractor"
	"ledgerflow/internal/port"
)

// Cascade tries extraction strategies in a fixed priority order and
// short-circuits on the first success: the AI multimodal strategy first, the
// deterministic regex fallback second. It implements port.BatchParser.
type Cascade struct {
	ai       *AIStrategy
	fallback *RegexStrategy
}

// NewCascade creates the two-stage strategy cascade.
func NewCascade(ai *AIStrategy, fallback *RegexStrategy) *Cascade {
	return &Cascade{ai: ai, fallback: fallback}
}

func (c *Cascade) Parse(ctx context.Context, input port.ParseInput) (*port.ParseResult, error) {
	result, aiErr := c.ai.Parse(ctx, input)
	if aiErr == nil {
		return result, nil
	}

	var trErr *extractor.TransientError
	transient := errors.As(aiErr, &trErr)
	log.Printf("parser.Cascade: AI strategy failed (transient=%t): %v", transient, aiErr)

	// The fallback works on raw text only. The worker recovers it from the
	// document itself (internal/doctext), so it is available even when the
	// provider never answered.
	fbResult, fbErr := c.fallback.Parse(ctx, input)
	if fbErr != nil {
		err := fmt.Errorf("AI strategy: %v; fallback strategy: %w", aiErr, fbErr)
		if transient {
			return nil, extractor.NewTransientError(trErr.Provider, err, int(trErr.RetryAfter.Seconds()))
		}
		return nil, err
	}

	// The batch still gets header data this attempt, but a transient provider
	// failure is worth surfacing: re-running the AI strategy later may
	// recover the line items the fallback cannot extract.
	fbResult.Retryable = transient
	return fbResult, nil
}
