package catalog

import (
	"context"

	"github.com/kailas-cloud/ideascout/internal/domain/item"
)

// Counter reports the number of indexed items.
type Counter interface {
	Count(ctx context.Context) (int, error)
}

// Upserter stores items together with their embeddings.
type Upserter interface {
	Upsert(ctx context.Context, items []item.Item, vectors [][]float32) error
}
