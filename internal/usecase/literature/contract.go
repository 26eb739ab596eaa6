package literature

import (
	"context"

	"github.com/kailas-cloud/ideascout/internal/transport/arxiv"
)

// PaperSearcher runs a search against the bibliographic API.
type PaperSearcher interface {
	Search(ctx context.Context, searchQuery string, maxResults int) ([]arxiv.Paper, error)
}
