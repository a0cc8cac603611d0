package matcher

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/agnivade/levenshtein"
	"github.com/google/uuid"

	"ledgerflow/internal/config"
	"ledgerflow/internal/domain"
	"ledgerflow/internal/port"
)

// Suggestion reasons surfaced to reviewers.
const (
	ReasonLearned        = "learned match"
	ReasonHighConfidence = "high confidence"
	ReasonNeedsReview    = "needs review"
)

// highConfidenceBand is the confidence at which a fuzzy candidate is labeled
// high confidence rather than needing review.
const highConfidenceBand = 80

// Matcher resolves line descriptions to catalog candidates. Prior human
// confirmations short-circuit fuzzy search entirely; otherwise candidates are
// ranked by normalized Levenshtein similarity. It implements port.Suggester.
type Matcher struct {
	historyRepo port.MatchHistoryRepository
	catalogRepo port.CatalogRepository
	cfg         config.MatcherConfig
}

// NewMatcher creates a Matcher.
func NewMatcher(historyRepo port.MatchHistoryRepository, catalogRepo port.CatalogRepository, cfg config.MatcherConfig) *Matcher {
	if cfg.MaxSuggestions <= 0 {
		cfg.MaxSuggestions = 5
	}
	return &Matcher{
		historyRepo: historyRepo,
		catalogRepo: catalogRepo,
		cfg:         cfg,
	}
}

// AutoMatchThreshold exposes the configured auto-match cutoff.
func (m *Matcher) AutoMatchThreshold() int {
	return m.cfg.AutoMatchThreshold
}

func (m *Matcher) Suggest(ctx context.Context, tenantID uuid.UUID, kind domain.ImportKind, description string) ([]port.Suggestion, error) {
	normalized := Normalize(description)
	if normalized == "" {
		return []port.Suggestion{}, nil
	}

	// Learned history first: an exact prior confirmation wins outright.
	entries, err := m.historyRepo.LookupByDescription(ctx, tenantID, normalized, m.cfg.MaxSuggestions)
	if err != nil {
		return nil, fmt.Errorf("looking up match history: %w", err)
	}
	if len(entries) > 0 {
		return m.fromHistory(ctx, tenantID, entries)
	}

	return m.fuzzySearch(ctx, tenantID, kind, normalized)
}

func (m *Matcher) fromHistory(ctx context.Context, tenantID uuid.UUID, entries []domain.MatchHistoryEntry) ([]port.Suggestion, error) {
	suggestions := make([]port.Suggestion, 0, len(entries))
	seen := map[uuid.UUID]bool{}
	for _, entry := range entries {
		if seen[entry.ItemID] {
			continue
		}
		seen[entry.ItemID] = true

		item, err := m.catalogRepo.GetByID(ctx, tenantID, entry.ItemID)
		if err != nil {
			// A historical item may have been deactivated since; skip it
			// rather than failing the whole lookup.
			continue
		}
		suggestions = append(suggestions, port.Suggestion{
			ItemID:     item.ID,
			Name:       item.Name,
			Confidence: 100,
			Reason:     ReasonLearned,
		})
	}
	return suggestions, nil
}

func (m *Matcher) fuzzySearch(ctx context.Context, tenantID uuid.UUID, kind domain.ImportKind, normalized string) ([]port.Suggestion, error) {
	items, err := m.catalogRepo.ListActive(ctx, tenantID, kind)
	if err != nil {
		return nil, fmt.Errorf("listing catalog items: %w", err)
	}

	type scored struct {
		item     domain.CatalogItem
		distance float64
	}
	candidates := make([]scored, 0, len(items))
	for _, item := range items {
		dist := normalizedDistance(normalized, Normalize(item.Name))
		if dist > m.cfg.FuzzyThreshold {
			continue
		}
		candidates = append(candidates, scored{item: item, distance: dist})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].distance < candidates[j].distance
	})
	if len(candidates) > m.cfg.MaxSuggestions {
		candidates = candidates[:m.cfg.MaxSuggestions]
	}

	suggestions := make([]port.Suggestion, 0, len(candidates))
	for _, c := range candidates {
		confidence := int(math.Round((1 - c.distance) * 100))
		reason := ReasonNeedsReview
		if confidence >= highConfidenceBand {
			reason = ReasonHighConfidence
		}
		suggestions = append(suggestions, port.Suggestion{
			ItemID:     c.item.ID,
			Name:       c.item.Name,
			Confidence: confidence,
			Reason:     reason,
		})
	}
	return suggestions, nil
}

// normalizedDistance is Levenshtein distance scaled by the longer string
// length, so 0 means identical and 1 means nothing in common.
func normalizedDistance(a, b string) float64 {
	if a == b {
		return 0
	}
	longer := len([]rune(a))
	if l := len([]rune(b)); l > longer {
		longer = l
	}
	if longer == 0 {
		return 1
	}
	return float64(levenshtein.ComputeDistance(a, b)) / float64(longer)
}
