package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/ideascout/internal/db"
	"github.com/kailas-cloud/ideascout/internal/domain"
	"github.com/kailas-cloud/ideascout/internal/domain/filter"
	"github.com/kailas-cloud/ideascout/internal/domain/item"
	"github.com/kailas-cloud/ideascout/internal/domain/source"
)

// store is the consumer interface for catalog operations (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Repo is the indexed-store adapter: KNN retrieval over pre-embedded items.
type Repo struct {
	store store
	hnsw  HNSWConfig
	now   func() time.Time
}

// New creates a catalog repository.
func New(s store) *Repo {
	return &Repo{store: s, hnsw: HNSWConfig{M: 16, EFConstruct: 200}, now: time.Now}
}

// WithHNSW configures HNSW index parameters.
func (r *Repo) WithHNSW(cfg HNSWConfig) *Repo {
	if cfg.M > 0 {
		r.hnsw.M = cfg.M
	}
	if cfg.EFConstruct > 0 {
		r.hnsw.EFConstruct = cfg.EFConstruct
	}
	return r
}

// Fetch returns the nearest items of one source. Recency and categories are
// pushed down as pre-filters. Rows without a usable score are dropped.
func (r *Repo) Fetch(
	ctx context.Context, src source.Source,
	vector []float32, limit, recencyDays int, categories []string,
) ([]item.Item, error) {
	if limit <= 0 {
		return nil, nil
	}

	expr, err := r.prefilter(src, recencyDays, categories)
	if err != nil {
		return nil, fmt.Errorf("catalog filter %s: %w", src, err)
	}

	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    domain.CatalogIndex,
		Filters:      expr,
		Vector:       vector,
		K:            limit,
		ReturnFields: returnFields,
	})
	if err != nil {
		return nil, fmt.Errorf("catalog knn %s: %w", src, err)
	}
	if sr == nil {
		return nil, nil
	}

	items := make([]item.Item, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		if !entry.HasScore {
			continue
		}
		it := parseHashFields(entry.Fields)
		if it.Source == "" {
			it.Source = src
		}
		it = it.WithSimilarity(entry.Score)
		if !it.Scored() {
			continue
		}
		items = append(items, it)
	}
	return items, nil
}

func (r *Repo) prefilter(src source.Source, recencyDays int, categories []string) (filter.Expression, error) {
	srcCond, err := filter.Tag(fieldSource, string(src))
	if err != nil {
		return filter.Expression{}, err
	}
	all := []filter.Condition{srcCond}

	if recencyDays > 0 {
		cutoff := r.now().UTC().AddDate(0, 0, -recencyDays).Unix()
		recent, err := filter.AtLeast(fieldCreatedTS, float64(cutoff))
		if err != nil {
			return filter.Expression{}, err
		}
		all = append(all, recent)
	}

	anyOf := make([]filter.Condition, 0, len(categories))
	for _, c := range categories {
		cond, err := filter.Tag(fieldCategories, c)
		if err != nil {
			return filter.Expression{}, err
		}
		anyOf = append(anyOf, cond)
	}

	return filter.NewExpression(all, anyOf)
}

// Count returns the number of indexed items.
func (r *Repo) Count(ctx context.Context) (int, error) {
	n, err := r.store.SearchCount(ctx, domain.CatalogIndex, "*")
	if err != nil {
		return 0, fmt.Errorf("count catalog: %w", err)
	}
	return n, nil
}

// Upsert stores items with their embeddings in one pipelined round-trip.
// vectors[i] belongs to items[i].
func (r *Repo) Upsert(ctx context.Context, items []item.Item, vectors [][]float32) error {
	if len(items) != len(vectors) {
		return fmt.Errorf("upsert: %d items but %d vectors", len(items), len(vectors))
	}
	if len(items) == 0 {
		return nil
	}

	batch := make([]db.HashSetItem, 0, len(items))
	for i := range items {
		it := &items[i]
		if !it.Source.IsValid() || it.Source.Kind() != source.Indexed {
			return fmt.Errorf("upsert %q: %w", it.Source, domain.ErrUnknownSource)
		}
		fields, err := buildHashFields(it, vectors[i])
		if err != nil {
			return fmt.Errorf("upsert %q: %w", it.Link, err)
		}
		batch = append(batch, db.HashSetItem{Key: itemKey(it), Fields: fields})
	}

	if err := r.store.HSetMulti(ctx, batch); err != nil {
		return fmt.Errorf("upsert catalog: %w", err)
	}
	return nil
}
