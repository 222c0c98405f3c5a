// Package interfaces provides service interfaces for dependency injection.
package interfaces

import (
	"context"

	"github.com/ternarybob/murmur/internal/models"
)

// FactsProvider supplies quantitative facts for one entity.
// Implementations should honour ctx cancellation; the verifier bounds
// every call with a timeout either way.
type FactsProvider interface {
	Fetch(ctx context.Context, entity models.Entity) (*models.Facts, error)
}

// FactsProviderFunc adapts a function to FactsProvider
type FactsProviderFunc func(ctx context.Context, entity models.Entity) (*models.Facts, error)

// Fetch calls f
func (f FactsProviderFunc) Fetch(ctx context.Context, entity models.Entity) (*models.Facts, error) {
	return f(ctx, entity)
}

// SentimentScorer returns a 0-100 base sentiment score for a set of texts
type SentimentScorer interface {
	Score(ctx context.Context, texts []string) (float64, error)
	Name() string
}
