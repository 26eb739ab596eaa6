package ideascout

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	addrs    []string
	password string

	apiKey         string
	baseURL        string
	embeddingModel string
	dimensions     int
	reasoningModel string
	embedder       Embedder
	cacheTTL       time.Duration

	noLiterature      bool
	literatureURL     string
	literatureWorkers int

	threshold       float64
	adapterTimeout  time.Duration
	enrichTimeout   time.Duration
	hnswM           int
	hnswEFConstruct int

	logger     *zap.Logger
	metricsReg prometheus.Registerer
}

// WithValkey configures the client to connect to a Valkey instance.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithAddrs connects to a cluster or a list of seed nodes.
func WithAddrs(addrs []string, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.addrs = addrs
		c.password = password
	})
}

// WithRedis configures the client to connect to a Redis instance with the search module.
func WithRedis(addr, password string) Option {
	return WithValkey(addr, password)
}

// WithOpenAI sets the credentials of an OpenAI-compatible API used for
// embeddings and query enrichment. baseURL may be empty.
func WithOpenAI(apiKey, baseURL string) Option {
	return optionFunc(func(c *clientConfig) {
		c.apiKey = apiKey
		c.baseURL = baseURL
	})
}

// WithEmbeddingModel sets the embedding model and its vector dimensions.
// Defaults: text-embedding-3-small, 1536.
func WithEmbeddingModel(model string, dimensions int) Option {
	return optionFunc(func(c *clientConfig) {
		c.embeddingModel = model
		c.dimensions = dimensions
	})
}

// WithReasoningModel sets the chat model used for query enrichment.
func WithReasoningModel(model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.reasoningModel = model
	})
}

// WithEmbedder replaces the OpenAI embedder with a custom one.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithEmbeddingCache caches embeddings in the store for ttl.
func WithEmbeddingCache(ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheTTL = ttl
	})
}

// WithLiterature overrides the arXiv endpoint and the number of scoring workers.
func WithLiterature(baseURL string, workers int) Option {
	return optionFunc(func(c *clientConfig) {
		c.noLiterature = false
		c.literatureURL = baseURL
		c.literatureWorkers = workers
	})
}

// WithoutLiterature disables the arXiv source. Requests for it return no items.
func WithoutLiterature() Option {
	return optionFunc(func(c *clientConfig) {
		c.noLiterature = true
	})
}

// WithEnrichmentTimeout bounds the query analysis call. Default: 15s.
func WithEnrichmentTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.enrichTimeout = d
	})
}

// WithSimilarityThreshold sets the minimum similarity of delivered results. Default: 0.3.
func WithSimilarityThreshold(t float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.threshold = t
	})
}

// WithAdapterTimeout bounds each source call. Default: 20s.
func WithAdapterTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.adapterTimeout = d
	})
}

// WithHNSW configures HNSW index parameters (M and EF construction).
// Defaults: M=16, EFConstruct=200.
func WithHNSW(m, efConstruct int) Option {
	return optionFunc(func(c *clientConfig) {
		c.hnswM = m
		c.hnswEFConstruct = efConstruct
	})
}

// WithLogger enables structured logging. Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers client metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
