package catalog

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ideascout/internal/domain"
	"github.com/kailas-cloud/ideascout/internal/domain/item"
	"github.com/kailas-cloud/ideascout/internal/domain/source"
)

// DefaultIngestBatchSize is the number of items embedded and stored per round-trip.
const DefaultIngestBatchSize = 64

// IngestReport summarizes one ingestion run.
type IngestReport struct {
	Stored  int
	Skipped int
}

// Ingester embeds items and writes them into the catalog.
type Ingester struct {
	embed     domain.Embedder
	store     Upserter
	batchSize int
	logger    *zap.Logger
}

// NewIngester creates an ingester.
func NewIngester(embed domain.Embedder, store Upserter, logger *zap.Logger) *Ingester {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ingester{embed: embed, store: store, batchSize: DefaultIngestBatchSize, logger: logger}
}

// WithBatchSize configures the batch size.
func (in *Ingester) WithBatchSize(size int) *Ingester {
	if size > 0 {
		in.batchSize = size
	}
	return in
}

// Ingest stores valid items batch by batch. Invalid items are skipped and
// counted. The first embedding or storage failure stops the run; the report
// covers the batches stored before it.
func (in *Ingester) Ingest(ctx context.Context, items []item.Item) (IngestReport, error) {
	var report IngestReport

	valid := make([]item.Item, 0, len(items))
	for i := range items {
		if err := validateItem(&items[i]); err != nil {
			in.logger.Warn("skipping item", zap.String("link", items[i].Link), zap.Error(err))
			report.Skipped++
			continue
		}
		valid = append(valid, items[i])
	}

	for offset := 0; offset < len(valid); offset += in.batchSize {
		end := min(offset+in.batchSize, len(valid))
		batch := valid[offset:end]

		texts := make([]string, len(batch))
		for i := range batch {
			texts[i] = batch[i].EmbeddingText()
		}

		res, err := domain.EmbedAll(ctx, in.embed, texts)
		if err != nil {
			return report, fmt.Errorf("ingest batch at %d: %w", offset, err)
		}
		if len(res.Embeddings) != len(batch) {
			return report, fmt.Errorf("ingest batch at %d: got %d embeddings for %d items: %w",
				offset, len(res.Embeddings), len(batch), domain.ErrEmbeddingProviderError)
		}

		if err := in.store.Upsert(ctx, batch, res.Embeddings); err != nil {
			return report, fmt.Errorf("ingest batch at %d: %w", offset, err)
		}
		report.Stored += len(batch)

		in.logger.Info("ingested batch",
			zap.Int("offset", offset),
			zap.Int("size", len(batch)),
			zap.Int("tokens", res.TotalTokens),
		)
	}

	return report, nil
}

func validateItem(it *item.Item) error {
	if strings.TrimSpace(it.Title) == "" {
		return fmt.Errorf("title is required: %w", domain.ErrInvalidQuery)
	}
	if strings.TrimSpace(it.Link) == "" {
		return fmt.Errorf("link is required: %w", domain.ErrInvalidQuery)
	}
	if !it.Source.IsValid() || it.Source.Kind() != source.Indexed {
		return fmt.Errorf("%q: %w", it.Source, domain.ErrUnknownSource)
	}
	return nil
}
