package stream

import (
	"context"

	"github.com/kailas-cloud/ideascout/internal/domain/enrichment"
	"github.com/kailas-cloud/ideascout/internal/domain/event"
	"github.com/kailas-cloud/ideascout/internal/domain/item"
	"github.com/kailas-cloud/ideascout/internal/domain/query"
)

// Enricher analyzes the raw query. It never fails; degradation is carried in the result.
type Enricher interface {
	Enrich(ctx context.Context, raw string) enrichment.Result
}

// Aggregator fans the query out to all sources.
type Aggregator interface {
	Aggregate(ctx context.Context, q query.Query, enrichedQuery string) ([]item.Item, error)
}

// SizeProvider reports the last known catalog size without blocking.
type SizeProvider interface {
	Size() int
}

// EmitFunc delivers one event to the client. An error means the client is gone.
type EmitFunc func(event.Event) error
