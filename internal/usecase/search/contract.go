package search

import (
	"context"

	"github.com/kailas-cloud/ideascout/internal/domain/item"
	"github.com/kailas-cloud/ideascout/internal/domain/source"
)

// CatalogFetcher retrieves nearest items of one indexed source.
type CatalogFetcher interface {
	Fetch(
		ctx context.Context, src source.Source,
		vector []float32, limit, recencyDays int, categories []string,
	) ([]item.Item, error)
}

// LiteratureFetcher retrieves scored papers for the raw query.
type LiteratureFetcher interface {
	Fetch(
		ctx context.Context, raw string, vector []float32,
		categories []string, limit, recencyDays int,
	) ([]item.Item, error)
}
