package chat

import (
	"context"

	"github.com/kailas-cloud/ideascout/internal/domain/chat"
	"github.com/kailas-cloud/ideascout/internal/domain/item"
	"github.com/kailas-cloud/ideascout/internal/domain/query"
)

// Responder produces one conversational answer.
type Responder interface {
	Respond(ctx context.Context, turn chat.Turn) (chat.Reply, error)
}

// Aggregator fans a query out to all sources.
type Aggregator interface {
	Aggregate(ctx context.Context, q query.Query, enrichedQuery string) ([]item.Item, error)
}
