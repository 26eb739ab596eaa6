package ideascout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ideascout/internal/db"
	dbRedis "github.com/kailas-cloud/ideascout/internal/db/redis"
	"github.com/kailas-cloud/ideascout/internal/domain"
	"github.com/kailas-cloud/ideascout/internal/domain/event"
	"github.com/kailas-cloud/ideascout/internal/domain/item"
	"github.com/kailas-cloud/ideascout/internal/domain/query"
	"github.com/kailas-cloud/ideascout/internal/domain/source"
	catalogrepo "github.com/kailas-cloud/ideascout/internal/repository/catalog"
	"github.com/kailas-cloud/ideascout/internal/repository/embcache"
	"github.com/kailas-cloud/ideascout/internal/transport/arxiv"
	openaiTransport "github.com/kailas-cloud/ideascout/internal/transport/openai"
	cataloguc "github.com/kailas-cloud/ideascout/internal/usecase/catalog"
	embeddinguc "github.com/kailas-cloud/ideascout/internal/usecase/embedding"
	enrichuc "github.com/kailas-cloud/ideascout/internal/usecase/enrich"
	healthuc "github.com/kailas-cloud/ideascout/internal/usecase/health"
	"github.com/kailas-cloud/ideascout/internal/usecase/literature"
	searchuc "github.com/kailas-cloud/ideascout/internal/usecase/search"
	streamuc "github.com/kailas-cloud/ideascout/internal/usecase/stream"
)

const (
	defaultReadinessTimeout   = 10 * time.Second
	defaultEmbeddingModel     = "text-embedding-3-small"
	defaultDimensions         = 1536
	defaultReasoningModel     = "gpt-4o-mini"
	defaultEnrichTimeout      = 15 * time.Second
	defaultLiteraturePageSize = 20
)

// Internal interfaces, swapped for mocks in tests.
type searchUseCase interface {
	Run(ctx context.Context, q query.Query, emit streamuc.EmitFunc) error
}

type ingestUseCase interface {
	Ingest(ctx context.Context, items []item.Item) (cataloguc.IngestReport, error)
}

type indexUseCase interface {
	EnsureIndex(ctx context.Context, dim int) error
	DropIndex(ctx context.Context) error
}

type sizeUseCase interface {
	Refresh(ctx context.Context) error
	Size() int
}

// Client is the ideascout SDK entry point. It runs searches in-process
// against the catalog store and the literature API.
type Client struct {
	store      db.Store
	searchSvc  searchUseCase
	ingestSvc  ingestUseCase
	indexSvc   indexUseCase
	sizeSvc    sizeUseCase
	healthSvc  healthUseCase
	dimensions int
	release    func()
	obs        *observer
}

// New creates a Client and connects to the database.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		embeddingModel: defaultEmbeddingModel,
		dimensions:     defaultDimensions,
		reasoningModel: defaultReasoningModel,
		threshold:      searchuc.DefaultThreshold,
		adapterTimeout: searchuc.DefaultAdapterTimeout,
		enrichTimeout:  defaultEnrichTimeout,
	}
	for _, o := range opts {
		o.apply(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("ideascout: database address required (use WithValkey or WithRedis)")
	}
	if cfg.embedder == nil && cfg.apiKey == "" {
		return nil, errors.New("ideascout: embedder required (use WithOpenAI or WithEmbedder)")
	}
	if cfg.dimensions <= 0 {
		return nil, fmt.Errorf("ideascout: invalid embedding dimensions %d", cfg.dimensions)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Password: cfg.password,
	})
	if err != nil {
		return nil, fmt.Errorf("ideascout: create store: %w", err)
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("ideascout: database not ready: %w", err)
	}

	c, err := wireClient(store, cfg, obs)
	if err != nil {
		store.Close()
		return nil, err
	}
	return c, nil
}

func wireClient(store db.Store, cfg *clientConfig, obs *observer) (*Client, error) {
	logger := cfg.logger
	embed := buildEmbedder(store, cfg)

	repo := catalogrepo.New(store)
	if cfg.hnswM > 0 || cfg.hnswEFConstruct > 0 {
		repo = repo.WithHNSW(catalogrepo.HNSWConfig{
			M:           cfg.hnswM,
			EFConstruct: cfg.hnswEFConstruct,
		})
	}

	// Nil interfaces, not nil pointers: the dispatcher and health service
	// skip absent components by comparing against nil.
	var (
		litFetcher searchuc.LiteratureFetcher
		litChecker healthuc.Checker
		release    = func() {}
	)
	if !cfg.noLiterature {
		api := arxiv.New(arxiv.Config{BaseURL: cfg.literatureURL, Logger: logger})
		svc, err := literature.New(api, embed, literature.Config{Workers: cfg.literatureWorkers}, logger)
		if err != nil {
			return nil, fmt.Errorf("ideascout: literature adapter: %w", err)
		}
		litFetcher = svc
		litChecker = api
		release = svc.Release
	}

	dispatcher := searchuc.NewDispatcher(embed, repo, litFetcher, searchuc.Config{
		AdapterTimeout: cfg.adapterTimeout,
		SourceCaps:     map[source.Source]int{source.Arxiv: defaultLiteraturePageSize},
	}, logger)

	var analyzer enrichuc.Analyzer
	if cfg.apiKey != "" {
		analyzer = openaiTransport.NewAnalyzer(&openaiTransport.Config{
			APIKey:  cfg.apiKey,
			BaseURL: cfg.baseURL,
			Model:   cfg.reasoningModel,
			Logger:  logger,
		})
	}
	enricher := enrichuc.New(analyzer, cfg.enrichTimeout, logger)

	tracker := cataloguc.NewSizeTracker(repo, logger)

	return &Client{
		store:      store,
		searchSvc:  streamuc.New(enricher, dispatcher, tracker, cfg.threshold, logger),
		ingestSvc:  cataloguc.NewIngester(embed, repo, logger),
		indexSvc:   repo,
		sizeSvc:    tracker,
		healthSvc:  healthuc.New(store, &embeddingHealth{embedder: embed}, litChecker),
		dimensions: cfg.dimensions,
		release:    release,
		obs:        obs,
	}, nil
}

// buildEmbedder assembles the decorator chain: provider -> cached -> instrumented.
func buildEmbedder(store db.Store, cfg *clientConfig) domain.Embedder {
	provider := "custom"
	var embed domain.Embedder
	if cfg.embedder != nil {
		embed = adaptEmbedder(cfg.embedder)
	} else {
		provider = "openai"
		embed = openaiTransport.NewEmbedder(&openaiTransport.Config{
			APIKey:     cfg.apiKey,
			BaseURL:    cfg.baseURL,
			Model:      cfg.embeddingModel,
			Dimensions: cfg.dimensions,
			Provider:   provider,
			Logger:     cfg.logger,
		})
	}

	if cfg.cacheTTL > 0 {
		embed = embcache.New(embed, store, cfg.embeddingModel, cfg.cacheTTL, nil, cfg.logger)
	}
	return embeddinguc.NewInstrumentedEmbedder(embed, provider, cfg.embeddingModel, cfg.logger)
}

// Close releases all resources.
func (c *Client) Close() {
	if c.release != nil {
		c.release()
	}
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Search runs one search and calls fn for every progress event. The last
// event is terminal (results or error) unless fn fails or ctx is cancelled,
// in which case that error is returned. Invalid requests fail before any event.
func (c *Client) Search(ctx context.Context, req *SearchRequest, fn func(Event) error) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("search", start, err) }()

	q, err := req.toQuery()
	if err != nil {
		return err
	}
	return c.searchSvc.Run(ctx, q, func(ev event.Event) error {
		return fn(eventFromDomain(ev))
	})
}

// Collect runs a search and returns the delivered items, or an error built
// from the terminal error event.
func (c *Client) Collect(ctx context.Context, req *SearchRequest) ([]map[string]any, error) {
	var last Event
	err := c.Search(ctx, req, func(ev Event) error {
		last = ev
		return nil
	})
	if err != nil {
		return nil, err
	}
	switch last.Type {
	case EventResults:
		return last.Items, nil
	case EventError:
		return nil, fmt.Errorf("search failed: %s", last.Message)
	default:
		return nil, errors.New("search ended without a terminal event")
	}
}

// Ingest embeds and stores items in the catalog. Invalid items are skipped
// and counted in the report.
func (c *Client) Ingest(ctx context.Context, items []Item) (_ IngestReport, err error) {
	start := time.Now()
	defer func() { c.obs.observe("ingest", start, err) }()

	dom := make([]item.Item, len(items))
	for i := range items {
		dom[i] = items[i].toDomain()
	}
	rep, err := c.ingestSvc.Ingest(ctx, dom)
	if err != nil {
		return IngestReport{}, fmt.Errorf("ingest: %w", err)
	}
	return IngestReport{Stored: rep.Stored, Skipped: rep.Skipped}, nil
}

// EnsureIndex creates the catalog index if it does not exist.
func (c *Client) EnsureIndex(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ensure_index", start, err) }()

	if err = c.indexSvc.EnsureIndex(ctx, c.dimensions); err != nil {
		return fmt.Errorf("ensure index: %w", err)
	}
	return nil
}

// DropIndex removes the catalog index. Stored items are kept.
func (c *Client) DropIndex(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("drop_index", start, err) }()

	if err = c.indexSvc.DropIndex(ctx); err != nil {
		return fmt.Errorf("drop index: %w", err)
	}
	return nil
}

// CatalogSize refreshes and returns the number of indexed items.
func (c *Client) CatalogSize(ctx context.Context) (_ int, err error) {
	start := time.Now()
	defer func() { c.obs.observe("catalog_size", start, err) }()

	if err = c.sizeSvc.Refresh(ctx); err != nil {
		return 0, fmt.Errorf("catalog size: %w", err)
	}
	return c.sizeSvc.Size(), nil
}
