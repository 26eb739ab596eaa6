package ideascout

import (
	"context"

	"github.com/kailas-cloud/ideascout/internal/domain/item"
	"github.com/kailas-cloud/ideascout/internal/domain/query"
	cataloguc "github.com/kailas-cloud/ideascout/internal/usecase/catalog"
	healthuc "github.com/kailas-cloud/ideascout/internal/usecase/health"
	streamuc "github.com/kailas-cloud/ideascout/internal/usecase/stream"
)

// --- searchUseCase mock ---

type mockSearchUC struct {
	runFn func(ctx context.Context, q query.Query, emit streamuc.EmitFunc) error
	calls int
}

func (m *mockSearchUC) Run(ctx context.Context, q query.Query, emit streamuc.EmitFunc) error {
	m.calls++
	return m.runFn(ctx, q, emit)
}

// --- ingestUseCase mock ---

type mockIngestUC struct {
	ingestFn func(ctx context.Context, items []item.Item) (cataloguc.IngestReport, error)
}

func (m *mockIngestUC) Ingest(ctx context.Context, items []item.Item) (cataloguc.IngestReport, error) {
	return m.ingestFn(ctx, items)
}

// --- indexUseCase mock ---

type mockIndexUC struct {
	ensuredDim int
	dropped    bool
	err        error
}

func (m *mockIndexUC) EnsureIndex(_ context.Context, dim int) error {
	m.ensuredDim = dim
	return m.err
}

func (m *mockIndexUC) DropIndex(_ context.Context) error {
	m.dropped = true
	return m.err
}

// --- sizeUseCase mock ---

type mockSizeUC struct {
	size int
	err  error
}

func (m *mockSizeUC) Refresh(_ context.Context) error { return m.err }
func (m *mockSizeUC) Size() int                       { return m.size }

// --- healthUseCase mock ---

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(_ context.Context) healthuc.Report { return m.report }

// --- Embedder mocks ---

type mockEmbedder struct {
	fn func(ctx context.Context, text string) (EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	return m.fn(ctx, text)
}

type mockBatchEmbedder struct {
	mockEmbedder
	batchFn func(ctx context.Context, texts []string) (BatchEmbeddingResult, error)
}

func (m *mockBatchEmbedder) BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error) {
	return m.batchFn(ctx, texts)
}
