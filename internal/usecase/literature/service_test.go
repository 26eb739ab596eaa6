package literature

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ideascout/internal/domain"
	"github.com/kailas-cloud/ideascout/internal/domain/source"
	"github.com/kailas-cloud/ideascout/internal/transport/arxiv"
)

var fixedNow = time.Date(2025, 3, 31, 12, 0, 0, 0, time.UTC)

type mockSearcher struct {
	papers  []arxiv.Paper
	err     error
	calls   int
	query   string
	maxSeen int
}

func (m *mockSearcher) Search(_ context.Context, q string, maxResults int) ([]arxiv.Paper, error) {
	m.calls++
	m.query = q
	m.maxSeen = maxResults
	return m.papers, m.err
}

// textEmbedder returns a fixed vector per text prefix; unknown texts fail.
type textEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float32
	calls   int
}

func (e *textEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	for prefix, v := range e.vectors {
		if strings.HasPrefix(text, prefix) {
			return domain.EmbeddingResult{Embedding: v}, nil
		}
	}
	return domain.EmbeddingResult{}, domain.ErrEmbeddingProviderError
}

func newTestService(t *testing.T, api PaperSearcher, emb domain.Embedder) *Service {
	t.Helper()
	svc, err := New(api, emb, Config{Scope: "cs.*", Workers: 2}, zap.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	svc.now = func() time.Time { return fixedNow }
	t.Cleanup(svc.Release)
	return svc
}

func paper(title string, published time.Time) arxiv.Paper {
	return arxiv.Paper{
		ID:         "http://arxiv.org/abs/" + title,
		Title:      title,
		Summary:    "abstract of " + title,
		AbsURL:     "http://arxiv.org/abs/" + title,
		PDFURL:     "http://arxiv.org/pdf/" + title,
		Authors:    []string{"Ada Lovelace", "Alan Turing"},
		Categories: []string{"cs.SD"},
		Published:  published,
	}
}

func TestFetch_ScoresAndMaps(t *testing.T) {
	api := &mockSearcher{papers: []arxiv.Paper{
		paper("Melody", fixedNow.Add(-24*time.Hour)),
		paper("Rhythm", fixedNow.Add(-48*time.Hour)),
	}}
	emb := &textEmbedder{vectors: map[string][]float32{
		"Melody": {1, 0},
		"Rhythm": {0.6, 0.8},
	}}
	svc := newTestService(t, api, emb)

	items, err := svc.Fetch(context.Background(), "music composition for songwriters", []float32{1, 0}, []string{"cs.SD"}, 10, 30)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if api.maxSeen != 10 {
		t.Errorf("max_results = %d, want 10", api.maxSeen)
	}
	if !strings.Contains(api.query, `abs:"music"`) || !strings.HasSuffix(api.query, "(cat:cs.SD)") {
		t.Errorf("unexpected query %q", api.query)
	}

	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	first := items[0]
	if !first.Scored() || first.Similarity() < 0.999 {
		t.Errorf("first similarity = %f", first.Similarity())
	}
	if items[1].Similarity() < 0.59 || items[1].Similarity() > 0.61 {
		t.Errorf("second similarity = %f, want 0.6", items[1].Similarity())
	}
	if first.Source != source.Arxiv {
		t.Errorf("Source = %q", first.Source)
	}
	if first.Link != "http://arxiv.org/pdf/Melody" || first.SourceLink != "http://arxiv.org/abs/Melody" {
		t.Errorf("links = %q / %q", first.Link, first.SourceLink)
	}
	if first.ImageURL != DefaultImageURL {
		t.Errorf("ImageURL = %q", first.ImageURL)
	}
	if first.AuthorName != "Ada Lovelace" {
		t.Errorf("AuthorName = %q", first.AuthorName)
	}
	if first.AuthorProfileURL != "https://arxiv.org/search/cs?searchtype=author&query=Lovelace,+A" {
		t.Errorf("AuthorProfileURL = %q", first.AuthorProfileURL)
	}
	if first.CreatedAt != "2025-03-30T12:00:00Z" {
		t.Errorf("CreatedAt = %q", first.CreatedAt)
	}
}

func TestFetch_NoNouns(t *testing.T) {
	api := &mockSearcher{}
	svc := newTestService(t, api, &textEmbedder{})

	items, err := svc.Fetch(context.Background(), "quickly and slowly", []float32{1}, nil, 10, 0)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected no items, got %d", len(items))
	}
	if api.calls != 0 {
		t.Errorf("expected no API call, got %d", api.calls)
	}
}

func TestFetch_RecencyFilter(t *testing.T) {
	api := &mockSearcher{papers: []arxiv.Paper{
		paper("Fresh", fixedNow.Add(-2*24*time.Hour)),
		paper("Stale", fixedNow.Add(-40*24*time.Hour)),
	}}
	emb := &textEmbedder{vectors: map[string][]float32{"Fresh": {1}, "Stale": {1}}}
	svc := newTestService(t, api, emb)

	items, err := svc.Fetch(context.Background(), "music composition", []float32{1}, nil, 10, 30)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(items) != 1 || items[0].Title != "Fresh" {
		t.Fatalf("expected only Fresh, got %+v", items)
	}
	if emb.calls != 1 {
		t.Errorf("stale papers must not be embedded, got %d calls", emb.calls)
	}
}

func TestFetch_DropsFailedEmbeddings(t *testing.T) {
	api := &mockSearcher{papers: []arxiv.Paper{
		paper("Known", fixedNow),
		paper("Unknown", fixedNow),
		paper("Zero", fixedNow),
	}}
	emb := &textEmbedder{vectors: map[string][]float32{
		"Known": {1, 1},
		"Zero":  {0, 0},
	}}
	svc := newTestService(t, api, emb)

	items, err := svc.Fetch(context.Background(), "music composition", []float32{1, 1}, nil, 10, 0)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(items) != 1 || items[0].Title != "Known" {
		t.Fatalf("expected only Known, got %+v", items)
	}
	for _, it := range items {
		if !it.Scored() {
			t.Errorf("item %q left unscored", it.Title)
		}
	}
}

func TestFetch_AllEmbeddingsFail(t *testing.T) {
	api := &mockSearcher{papers: []arxiv.Paper{paper("A", fixedNow), paper("B", fixedNow)}}
	svc := newTestService(t, api, &textEmbedder{})

	items, err := svc.Fetch(context.Background(), "music composition", []float32{1}, nil, 10, 0)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected empty result, got %d", len(items))
	}
}

func TestFetch_APIError(t *testing.T) {
	api := &mockSearcher{err: domain.ErrLiteratureAPI}
	svc := newTestService(t, api, &textEmbedder{})

	_, err := svc.Fetch(context.Background(), "music composition", []float32{1}, nil, 10, 0)
	if !errors.Is(err, domain.ErrLiteratureAPI) {
		t.Errorf("expected ErrLiteratureAPI, got %v", err)
	}
}

func TestAuthorProfileURL(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Ada Lovelace", "https://arxiv.org/search/cs?searchtype=author&query=Lovelace,+A"},
		{"John Ronald Tolkien", "https://arxiv.org/search/cs?searchtype=author&query=Tolkien,+J"},
		{"Plato", "https://arxiv.org/search/cs?searchtype=author&query=Plato"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := AuthorProfileURL(tt.name); got != tt.want {
			t.Errorf("AuthorProfileURL(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}
