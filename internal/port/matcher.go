package port

import (
	"context"

	"github.com/google/uuid"

	"ledgerflow/internal/domain"
)

// Suggestion is one ranked match candidate for a line description.
type Suggestion struct {
	ItemID     uuid.UUID `json:"item_id"`
	Name       string    `json:"name"`
	Confidence int       `json:"confidence"`
	Reason     string    `json:"reason"`
}

// Suggester resolves a line description to ranked catalog candidates, learned
// history first, fuzzy similarity second.
type Suggester interface {
	Suggest(ctx context.Context, tenantID uuid.UUID, kind domain.ImportKind, description string) ([]Suggestion, error)
}
