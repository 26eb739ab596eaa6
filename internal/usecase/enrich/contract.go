package enrich

import (
	"context"

	"github.com/kailas-cloud/ideascout/internal/domain/enrichment"
)

// Analyzer extracts structured signals from a raw query.
type Analyzer interface {
	Analyze(ctx context.Context, text string) (enrichment.Result, error)
}
