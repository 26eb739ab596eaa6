package literature

import (
	"context"
	"fmt"
	"net/url"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ideascout/internal/domain"
	"github.com/kailas-cloud/ideascout/internal/domain/item"
	"github.com/kailas-cloud/ideascout/internal/domain/similarity"
	"github.com/kailas-cloud/ideascout/internal/domain/source"
	"github.com/kailas-cloud/ideascout/internal/transport/arxiv"
)

// DefaultImageURL is the thumbnail attached to every paper.
const DefaultImageURL = "https://library.stlawu.edu/sites/default/files/2020-07/arxiv-logo.png"

const authorSearchURL = "https://arxiv.org/search/cs?searchtype=author&query="

// Config holds adapter settings.
type Config struct {
	Scope    string
	ImageURL string
	Workers  int
}

// Service searches the literature API and scores papers against the query vector.
type Service struct {
	api      PaperSearcher
	embed    domain.Embedder
	pool     *ants.Pool
	scope    string
	imageURL string
	now      func() time.Time
	logger   *zap.Logger
}

// New creates the literature adapter. Call Release when done.
func New(api PaperSearcher, embed domain.Embedder, cfg Config, logger *zap.Logger) (*Service, error) {
	workers := cfg.Workers
	if workers < 1 {
		workers = max(runtime.NumCPU()/2, 1)
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("embedding pool: %w", err)
	}

	imageURL := cfg.ImageURL
	if imageURL == "" {
		imageURL = DefaultImageURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		api:      api,
		embed:    embed,
		pool:     pool,
		scope:    cfg.Scope,
		imageURL: imageURL,
		now:      time.Now,
		logger:   logger,
	}, nil
}

// Release stops the embedding pool.
func (s *Service) Release() {
	s.pool.Release()
}

// Fetch returns scored papers matching the nouns of raw. A query without
// usable nouns yields no results and no API call.
func (s *Service) Fetch(
	ctx context.Context, raw string, vector []float32,
	categories []string, limit, recencyDays int,
) ([]item.Item, error) {
	if limit <= 0 {
		return nil, nil
	}

	keywords, err := Keywords(raw)
	if err != nil {
		return nil, err
	}
	searchQuery := arxiv.BuildQuery(s.scope, keywords, categories)
	if searchQuery == "" {
		s.logger.Debug("no keywords for literature search", zap.String("query", raw))
		return nil, nil
	}

	papers, err := s.api.Search(ctx, searchQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("literature search: %w", err)
	}

	papers = s.recent(papers, recencyDays)
	if len(papers) == 0 {
		return nil, nil
	}

	items := make([]item.Item, len(papers))
	for i := range papers {
		items[i] = s.toItem(&papers[i])
	}

	return s.score(ctx, items, vector), nil
}

func (s *Service) recent(papers []arxiv.Paper, recencyDays int) []arxiv.Paper {
	if recencyDays <= 0 {
		return papers
	}
	cutoff := s.now().UTC().AddDate(0, 0, -recencyDays)
	out := papers[:0]
	for _, p := range papers {
		if p.Published.Before(cutoff) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// score embeds every item on the pool and keeps the ones that produce a
// finite similarity.
func (s *Service) score(ctx context.Context, items []item.Item, vector []float32) []item.Item {
	scored := make([]item.Item, len(items))
	ok := make([]bool, len(items))

	var wg sync.WaitGroup
	for i := range items {
		wg.Add(1)
		task := func() {
			defer wg.Done()
			res, err := s.embed.Embed(ctx, items[i].EmbeddingText())
			if err != nil {
				s.logger.Debug("paper embedding failed", zap.String("link", items[i].Link), zap.Error(err))
				return
			}
			sim, err := similarity.Cosine(vector, res.Embedding)
			if err != nil {
				s.logger.Debug("paper scoring failed", zap.String("link", items[i].Link), zap.Error(err))
				return
			}
			scored[i] = items[i].WithSimilarity(sim)
			ok[i] = true
		}
		if err := s.pool.Submit(task); err != nil {
			wg.Done()
			s.logger.Warn("embedding pool rejected task", zap.Error(err))
		}
	}
	wg.Wait()

	out := make([]item.Item, 0, len(items))
	for i := range scored {
		if ok[i] {
			out = append(out, scored[i])
		}
	}
	return out
}

func (s *Service) toItem(p *arxiv.Paper) item.Item {
	it := item.Item{
		Title:       p.Title,
		Description: p.Summary,
		Link:        p.PDFURL,
		Source:      source.Arxiv,
		SourceLink:  p.AbsURL,
		ImageURL:    s.imageURL,
		Categories:  p.Categories,
	}
	if !p.Published.IsZero() {
		it.CreatedAt = p.Published.Format(time.RFC3339)
	}
	if len(p.Authors) > 0 {
		it.AuthorName = p.Authors[0]
		it.AuthorProfileURL = AuthorProfileURL(p.Authors[0])
	}
	return it
}

// AuthorProfileURL links to the arXiv author search as "Last, F".
func AuthorProfileURL(name string) string {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return authorSearchURL + url.QueryEscape(parts[0])
	}
	last := parts[len(parts)-1]
	initial := []rune(parts[0])[:1]
	return authorSearchURL + url.QueryEscape(last) + ",+" + url.QueryEscape(string(initial))
}
