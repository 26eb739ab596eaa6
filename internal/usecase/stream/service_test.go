package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ideascout/internal/domain"
	"github.com/kailas-cloud/ideascout/internal/domain/enrichment"
	"github.com/kailas-cloud/ideascout/internal/domain/event"
	"github.com/kailas-cloud/ideascout/internal/domain/item"
	"github.com/kailas-cloud/ideascout/internal/domain/query"
	"github.com/kailas-cloud/ideascout/internal/domain/source"
	"github.com/kailas-cloud/ideascout/internal/metrics"
	"github.com/kailas-cloud/ideascout/internal/transport/arxiv"
	"github.com/kailas-cloud/ideascout/internal/usecase/literature"
	"github.com/kailas-cloud/ideascout/internal/usecase/search"
)

func TestMain(m *testing.M) {
	metrics.RegisterSearchMetrics()
	os.Exit(m.Run())
}

// --- Mocks ---

type mockEnricher struct {
	result enrichment.Result
}

func (m *mockEnricher) Enrich(_ context.Context, _ string) enrichment.Result { return m.result }

type mockAggregator struct {
	items    []item.Item
	err      error
	panicMsg string
	enriched string
}

func (m *mockAggregator) Aggregate(_ context.Context, _ query.Query, enriched string) ([]item.Item, error) {
	m.enriched = enriched
	if m.panicMsg != "" {
		panic(m.panicMsg)
	}
	return m.items, m.err
}

type fixedSize int

func (f fixedSize) Size() int { return int(f) }

type recorder struct {
	events []event.Event
	failAt int // 1-based index of the emit that fails; 0 never fails
}

func (r *recorder) emit(ev event.Event) error {
	if r.failAt > 0 && len(r.events)+1 == r.failAt {
		return errors.New("client disconnected")
	}
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) messages() []string {
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		switch e := ev.(type) {
		case event.Status:
			out = append(out, "status:"+e.Message)
		case event.Results:
			out = append(out, fmt.Sprintf("results:%d", len(e.Items)))
		case event.Error:
			out = append(out, "error:"+e.Message)
		}
	}
	return out
}

func scored(title string, sim float64) item.Item {
	return item.Item{Title: title, Source: source.Reddit}.WithSimilarity(sim)
}

func newQuery(t *testing.T, srcs ...source.Source) query.Query {
	t.Helper()
	q, err := query.New("AI music composition tool", srcs, 10, 30, nil)
	if err != nil {
		t.Fatalf("query.New: %v", err)
	}
	return q
}

func assertMessages(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("events:\n got  %q\n want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

// --- Tests ---

func TestRun_FullSequence(t *testing.T) {
	enr := &mockEnricher{result: enrichment.Result{
		ProblemStatement: "Songwriters lack ideas",
		TargetUsers:      "Indie musicians",
		Terms:            []string{"melody", "chords"},
	}}
	agg := &mockAggregator{items: []item.Item{
		scored("a", 0.9), scored("b", 0.5), scored("c", 0.1), scored("d", 0.4), scored("e", 0.2),
	}}
	svc := New(enr, agg, fixedSize(1234), 0.3, nil)

	rec := &recorder{}
	if err := svc.Run(context.Background(), newQuery(t, source.Reddit, source.Arxiv), rec.emit); err != nil {
		t.Fatalf("Run: %v", err)
	}

	assertMessages(t, rec.messages(), []string{
		"status:" + MsgAnalyzing,
		"status:Problem Statement: Songwriters lack ideas",
		"status:Target Users: Indie musicians",
		"status:Applying Filters: melody, chords",
		"status:Searching in a database of 1234 items and 100000+ arXiv articles",
		"status:Found 5 matching results",
		"status:Filtered to 3 best results",
		"results:3",
	})
	want := "AI music composition tool Songwriters lack ideas Indie musicians melody, chords"
	if agg.enriched != want {
		t.Errorf("enriched query = %q, want %q", agg.enriched, want)
	}
}

func TestRun_DegradedEnrichment(t *testing.T) {
	enr := &mockEnricher{result: enrichment.Degraded(domain.ErrEnrichmentFailed)}
	agg := &mockAggregator{items: []item.Item{scored("a", 0.9)}}
	svc := New(enr, agg, fixedSize(10), 0.3, nil)

	rec := &recorder{}
	if err := svc.Run(context.Background(), newQuery(t, source.Reddit), rec.emit); err != nil {
		t.Fatalf("Run: %v", err)
	}

	assertMessages(t, rec.messages(), []string{
		"status:" + MsgAnalyzing,
		"status:" + MsgDegraded,
		"status:Searching in a database of 10 items",
		"status:Found 1 matching results",
		"status:Filtered to 1 best results",
		"results:1",
	})
	if agg.enriched != "AI music composition tool" {
		t.Errorf("degraded search must use the raw query, got %q", agg.enriched)
	}
}

func TestRun_NoTermsSkipsFilters(t *testing.T) {
	enr := &mockEnricher{result: enrichment.Result{ProblemStatement: "p", TargetUsers: "u"}}
	svc := New(enr, &mockAggregator{}, fixedSize(0), 0.3, nil)

	rec := &recorder{}
	if err := svc.Run(context.Background(), newQuery(t, source.Arxiv), rec.emit); err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, m := range rec.messages() {
		if strings.HasPrefix(m, "status:Applying Filters") {
			t.Errorf("unexpected filters status %q", m)
		}
	}
	if got := rec.messages()[3]; got != "status:Searching in a database of 100000+ arXiv articles" {
		t.Errorf("arxiv-only searching message = %q", got)
	}
}

func TestRun_FatalAggregationError(t *testing.T) {
	agg := &mockAggregator{err: fmt.Errorf("embed query: %w", domain.ErrEmbeddingProviderError)}
	svc := New(&mockEnricher{result: enrichment.Degraded(errors.New("x"))}, agg, fixedSize(1), 0.3, nil)

	rec := &recorder{}
	if err := svc.Run(context.Background(), newQuery(t, source.Reddit), rec.emit); err != nil {
		t.Fatalf("Run: %v", err)
	}

	msgs := rec.messages()
	last := msgs[len(msgs)-1]
	if last != "error:"+MsgUnavailable {
		t.Errorf("last event = %q", last)
	}
	for _, m := range msgs {
		if strings.Contains(m, "embedding provider") {
			t.Errorf("internal error leaked to client: %q", m)
		}
		if strings.HasPrefix(m, "results:") {
			t.Error("no results event after failure")
		}
	}
}

func TestRun_PanicBecomesErrorEvent(t *testing.T) {
	agg := &mockAggregator{panicMsg: "nil map"}
	svc := New(&mockEnricher{}, agg, fixedSize(1), 0.3, nil)

	rec := &recorder{}
	if err := svc.Run(context.Background(), newQuery(t, source.Reddit), rec.emit); err != nil {
		t.Fatalf("Run: %v", err)
	}

	terminal := 0
	for _, ev := range rec.events {
		if ev.Terminal() {
			terminal++
		}
	}
	if terminal != 1 {
		t.Fatalf("expected exactly one terminal event, got %d", terminal)
	}
	if _, ok := rec.events[len(rec.events)-1].(event.Error); !ok {
		t.Errorf("expected error event last, got %T", rec.events[len(rec.events)-1])
	}
}

func TestRun_EmitFailureAborts(t *testing.T) {
	agg := &mockAggregator{items: []item.Item{scored("a", 0.9)}}
	svc := New(&mockEnricher{}, agg, fixedSize(1), 0.3, nil)

	rec := &recorder{failAt: 2}
	err := svc.Run(context.Background(), newQuery(t, source.Reddit), rec.emit)
	if err == nil {
		t.Fatal("expected emit error")
	}
	if len(rec.events) != 1 {
		t.Errorf("expected nothing after the failed emit, got %d events", len(rec.events))
	}
	if agg.enriched != "" {
		t.Error("aggregation must not run after the client is gone")
	}
}

func TestRun_CanceledContextStopsSilently(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	agg := &cancelingAggregator{cancel: cancel}
	svc := New(&mockEnricher{}, agg, fixedSize(1), 0.3, nil)

	rec := &recorder{}
	err := svc.Run(ctx, newQuery(t, source.Reddit), rec.emit)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	for _, ev := range rec.events {
		if ev.Terminal() {
			t.Errorf("no terminal event expected after cancel, got %T", ev)
		}
	}
}

type cancelingAggregator struct {
	cancel context.CancelFunc
}

func (c *cancelingAggregator) Aggregate(_ context.Context, _ query.Query, _ string) ([]item.Item, error) {
	c.cancel()
	return nil, nil
}

func TestRun_NoEventAfterTerminal(t *testing.T) {
	r := &run{phase: Analyzing, emit: (&recorder{}).emit}
	if err := r.send(event.Error{Message: "x"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := r.status("late"); !errors.Is(err, errStreamClosed) {
		t.Errorf("expected errStreamClosed, got %v", err)
	}
}

func TestCanAdvance(t *testing.T) {
	tests := []struct {
		from, to Phase
		want     bool
	}{
		{Analyzing, Enriching, true},
		{Enriching, Dispatching, true},
		{Dispatching, Ranking, true},
		{Ranking, Delivered, true},
		{Analyzing, Dispatching, false},
		{Ranking, Enriching, false},
		{Dispatching, Failed, true},
		{Analyzing, Failed, true},
		{Delivered, Failed, false},
		{Failed, Delivered, false},
	}
	for _, tt := range tests {
		if got := canAdvance(tt.from, tt.to); got != tt.want {
			t.Errorf("canAdvance(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestRun_AdvanceRejectsSkip(t *testing.T) {
	r := &run{phase: Analyzing}
	if err := r.advance(Ranking); !errors.Is(err, errBadTransition) {
		t.Errorf("expected errBadTransition, got %v", err)
	}
	if r.phase != Analyzing {
		t.Errorf("phase changed to %s on rejected transition", r.phase)
	}
}

// --- Runs through a real dispatcher ---

type fixedEmbedder []float32

func (f fixedEmbedder) Embed(context.Context, string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{Embedding: f}, nil
}

// stallingCatalog serves items per source and blocks on stall until the
// adapter deadline fires.
type stallingCatalog struct {
	items map[source.Source][]item.Item
	stall source.Source
}

func (c *stallingCatalog) Fetch(
	ctx context.Context, src source.Source,
	_ []float32, _, _ int, _ []string,
) ([]item.Item, error) {
	if src == c.stall {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return c.items[src], nil
}

type countingPapers struct {
	calls atomic.Int32
}

func (c *countingPapers) Search(context.Context, string, int) ([]arxiv.Paper, error) {
	c.calls.Add(1)
	return nil, nil
}

func TestRun_DispatcherAdapterTimeoutIsNotFatal(t *testing.T) {
	cat := &stallingCatalog{
		items: map[source.Source][]item.Item{
			source.Reddit: {scored("r1", 0.9), scored("r2", 0.6)},
		},
		stall: source.HackerNews,
	}
	disp := search.NewDispatcher(fixedEmbedder{1, 0}, cat, nil,
		search.Config{AdapterTimeout: 50 * time.Millisecond}, zap.NewNop())
	svc := New(&mockEnricher{result: enrichment.Degraded(errors.New("x"))}, disp, fixedSize(2), 0.3, nil)

	rec := &recorder{}
	if err := svc.Run(context.Background(), newQuery(t, source.HackerNews, source.Reddit), rec.emit); err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, m := range rec.messages() {
		if strings.HasPrefix(m, "error:") {
			t.Fatalf("adapter timeout surfaced as %q", m)
		}
	}
	last, ok := rec.events[len(rec.events)-1].(event.Results)
	if !ok {
		t.Fatalf("expected results event last, got %T", rec.events[len(rec.events)-1])
	}
	if len(last.Items) != 2 {
		t.Fatalf("items = %d, want the 2 reddit items", len(last.Items))
	}
	for _, it := range last.Items {
		if it["source"] != string(source.Reddit) {
			t.Errorf("unexpected item from %v", it["source"])
		}
	}
}

func TestRun_LiteratureOnlyWithoutNouns(t *testing.T) {
	api := &countingPapers{}
	lit, err := literature.New(api, fixedEmbedder{1, 0}, literature.Config{Workers: 1}, zap.NewNop())
	if err != nil {
		t.Fatalf("literature.New: %v", err)
	}
	defer lit.Release()

	disp := search.NewDispatcher(fixedEmbedder{1, 0}, nil, lit, search.Config{}, zap.NewNop())
	svc := New(&mockEnricher{result: enrichment.Degraded(errors.New("x"))}, disp, fixedSize(0), 0.3, nil)

	q, err := query.New("a", []source.Source{source.Arxiv}, 10, 0, nil)
	if err != nil {
		t.Fatalf("query.New: %v", err)
	}
	rec := &recorder{}
	if err := svc.Run(context.Background(), q, rec.emit); err != nil {
		t.Fatalf("Run: %v", err)
	}

	raw, err := json.Marshal(rec.events[len(rec.events)-1])
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != `{"type":"results","items":[]}` {
		t.Errorf("terminal event = %s", raw)
	}
	if n := api.calls.Load(); n != 0 {
		t.Errorf("literature API called %d times, want 0", n)
	}
}
