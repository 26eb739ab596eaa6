package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/ideascout/internal/domain"
	"github.com/kailas-cloud/ideascout/internal/domain/item"
	"github.com/kailas-cloud/ideascout/internal/domain/query"
	"github.com/kailas-cloud/ideascout/internal/domain/source"
	"github.com/kailas-cloud/ideascout/internal/metrics"
)

// DefaultAdapterTimeout bounds a single source adapter call.
const DefaultAdapterTimeout = 20 * time.Second

var errAdapterPanic = errors.New("adapter panicked")

// Config tunes the fan-out.
type Config struct {
	AdapterTimeout time.Duration
	// SourceCaps limits how many candidates a source may contribute. Zero or absent means the query limit.
	SourceCaps map[source.Source]int
}

// Dispatcher embeds the query once and fans out to every requested source.
// A failing source contributes nothing; it never fails the search.
type Dispatcher struct {
	embed      domain.Embedder
	catalog    CatalogFetcher
	literature LiteratureFetcher
	cfg        Config
	logger     *zap.Logger
}

// NewDispatcher creates a dispatcher. catalog or literature may be nil, in
// which case the matching sources contribute nothing.
func NewDispatcher(
	embed domain.Embedder, catalog CatalogFetcher, literature LiteratureFetcher,
	cfg Config, logger *zap.Logger,
) *Dispatcher {
	if cfg.AdapterTimeout <= 0 {
		cfg.AdapterTimeout = DefaultAdapterTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		embed:      embed,
		catalog:    catalog,
		literature: literature,
		cfg:        cfg,
		logger:     logger,
	}
}

// Aggregate returns the unranked candidates of all requested sources:
// indexed sources in request order, then literature. Only a query
// embedding failure is fatal.
func (d *Dispatcher) Aggregate(ctx context.Context, q query.Query, enrichedQuery string) ([]item.Item, error) {
	res, err := d.embed.Embed(ctx, enrichedQuery)
	if err != nil {
		if !errors.Is(err, domain.ErrEmbeddingProviderError) {
			err = fmt.Errorf("%w: %w", domain.ErrEmbeddingProviderError, err)
		}
		return nil, fmt.Errorf("embed query: %w", err)
	}
	vector := res.Embedding

	indexed, literature := q.Partition()
	perSource := make([][]item.Item, len(indexed)+1)

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range indexed {
		fetch := d.catalogFetch(q, src, vector)
		g.Go(func() error {
			perSource[i] = d.call(gctx, src, fetch)
			return nil
		})
	}
	if literature {
		fetch := d.literatureFetch(q, vector)
		g.Go(func() error {
			perSource[len(indexed)] = d.call(gctx, source.Arxiv, fetch)
			return nil
		})
	}
	_ = g.Wait()

	var out []item.Item
	for _, items := range perSource {
		out = append(out, items...)
	}
	return out, nil
}

type fetchFunc func(ctx context.Context) ([]item.Item, error)

func (d *Dispatcher) catalogFetch(q query.Query, src source.Source, vector []float32) fetchFunc {
	if d.catalog == nil {
		return nil
	}
	limit := d.limitFor(src, q.Limit())
	categories := q.Categories().For(src)
	return func(ctx context.Context) ([]item.Item, error) {
		return d.catalog.Fetch(ctx, src, vector, limit, q.RecencyDays(), categories)
	}
}

func (d *Dispatcher) literatureFetch(q query.Query, vector []float32) fetchFunc {
	if d.literature == nil {
		return nil
	}
	limit := d.limitFor(source.Arxiv, q.Limit())
	categories := q.Categories().For(source.Arxiv)
	return func(ctx context.Context) ([]item.Item, error) {
		return d.literature.Fetch(ctx, q.Text(), vector, categories, limit, q.RecencyDays())
	}
}

func (d *Dispatcher) limitFor(src source.Source, limit int) int {
	if c, ok := d.cfg.SourceCaps[src]; ok && c > 0 && c < limit {
		return c
	}
	return limit
}

type outcome struct {
	items []item.Item
	err   error
}

// call runs fetch under the adapter timeout. Errors, panics and timeouts
// are logged and turned into an empty contribution.
func (d *Dispatcher) call(ctx context.Context, src source.Source, fetch fetchFunc) []item.Item {
	name := src.String()
	if fetch == nil {
		d.logger.Warn("no adapter configured for source", zap.String("source", name))
		metrics.SearchAdapterRequestsTotal.WithLabelValues(name, "unavailable").Inc()
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, d.cfg.AdapterTimeout)
	defer cancel()

	start := time.Now()
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("%w: %v", errAdapterPanic, r)}
			}
		}()
		items, err := fetch(ctx)
		done <- outcome{items: items, err: err}
	}()

	var o outcome
	select {
	case o = <-done:
	case <-ctx.Done():
		o = outcome{err: ctx.Err()}
	}
	metrics.SearchAdapterDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())

	if o.err != nil {
		status := "error"
		switch {
		case errors.Is(o.err, errAdapterPanic):
			status = "panic"
		case errors.Is(o.err, context.DeadlineExceeded):
			status = "timeout"
		case errors.Is(o.err, context.Canceled):
			status = "canceled"
		}
		metrics.SearchAdapterRequestsTotal.WithLabelValues(name, status).Inc()
		d.logger.Warn("source adapter failed",
			zap.String("source", name),
			zap.String("status", status),
			zap.Error(o.err),
		)
		return nil
	}

	metrics.SearchAdapterRequestsTotal.WithLabelValues(name, "ok").Inc()
	metrics.SearchResultsTotal.WithLabelValues(name).Add(float64(len(o.items)))
	return o.items
}
