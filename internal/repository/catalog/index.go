package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/ideascout/internal/db"
	"github.com/kailas-cloud/ideascout/internal/domain"
)

// HNSWConfig HNSW index parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

func buildIndex(dim int, hnsw HNSWConfig) (*db.IndexDefinition, error) {
	def, err := db.NewIndex(domain.CatalogIndex).
		Prefix(domain.CatalogItemPrefix).
		Tag(fieldSource, "").
		Tag(fieldCategories, categorySeparator).
		Numeric(fieldCreatedTS).
		VectorHNSW(fieldVector, dim, db.DistanceCosine, hnsw.M, hnsw.EFConstruct).
		Build()
	if err != nil {
		return nil, fmt.Errorf("build catalog index: %w", err)
	}
	return def, nil
}

// EnsureIndex creates the catalog index unless it already exists.
func (r *Repo) EnsureIndex(ctx context.Context, dim int) error {
	exists, err := r.store.IndexExists(ctx, domain.CatalogIndex)
	if err != nil {
		return fmt.Errorf("check catalog index: %w", err)
	}
	if exists {
		return nil
	}

	def, err := buildIndex(dim, r.hnsw)
	if err != nil {
		return err
	}
	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create catalog index: %w", err)
	}
	return nil
}

// DropIndex removes the catalog index. Item hashes are kept.
func (r *Repo) DropIndex(ctx context.Context) error {
	if err := r.store.DropIndex(ctx, domain.CatalogIndex); err != nil {
		return fmt.Errorf("drop catalog index: %w", err)
	}
	return nil
}
