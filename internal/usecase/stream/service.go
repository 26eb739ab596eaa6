package stream

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ideascout/internal/domain"
	"github.com/kailas-cloud/ideascout/internal/domain/enrichment"
	"github.com/kailas-cloud/ideascout/internal/domain/event"
	"github.com/kailas-cloud/ideascout/internal/domain/query"
	"github.com/kailas-cloud/ideascout/internal/domain/source"
	"github.com/kailas-cloud/ideascout/internal/metrics"
	"github.com/kailas-cloud/ideascout/internal/usecase/search"
)

// Status messages.
const (
	MsgAnalyzing        = "Analyzing your search query..."
	MsgDegraded         = "Query analysis unavailable, searching with your original query"
	literatureSizeLabel = "100000+ arXiv articles"
)

// Safe error messages delivered in the terminal error event.
const (
	MsgUnavailable = "Search is temporarily unavailable, please try again later"
	MsgFailed      = "Search failed, please try again"
)

var errStreamClosed = errors.New("stream already terminated")

// Service runs the search pipeline and reports progress through an emitter.
type Service struct {
	enricher   Enricher
	aggregator Aggregator
	size       SizeProvider
	threshold  float64
	logger     *zap.Logger
}

// New creates the stream service.
func New(enricher Enricher, aggregator Aggregator, size SizeProvider, threshold float64, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		enricher:   enricher,
		aggregator: aggregator,
		size:       size,
		threshold:  threshold,
		logger:     logger,
	}
}

// run tracks the phase of one search and guards the emitter.
type run struct {
	phase  Phase
	emit   EmitFunc
	closed bool
}

func (r *run) advance(to Phase) error {
	if !canAdvance(r.phase, to) {
		return fmt.Errorf("%w: %s -> %s", errBadTransition, r.phase, to)
	}
	r.phase = to
	return nil
}

func (r *run) send(ev event.Event) error {
	if r.closed {
		return errStreamClosed
	}
	if ev.Terminal() {
		r.closed = true
	}
	metrics.SearchStreamEventsTotal.WithLabelValues(string(ev.Type())).Inc()
	return r.emit(ev)
}

func (r *run) status(msg string) error {
	return r.send(event.Status{Message: msg})
}

// Run executes the pipeline for q. Exactly one terminal event is emitted
// unless the client goes away, in which case the emit error is returned and
// nothing more is sent.
func (s *Service) Run(ctx context.Context, q query.Query, emit EmitFunc) (err error) {
	r := &run{phase: Analyzing, emit: emit}

	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("search pipeline panicked", zap.Any("panic", rec))
			err = s.fail(r, fmt.Errorf("panic: %v", rec))
		}
	}()

	if err := r.status(MsgAnalyzing); err != nil {
		return err
	}

	res := s.enricher.Enrich(ctx, q.Text())
	if err := r.advance(Enriching); err != nil {
		return s.fail(r, err)
	}
	for _, msg := range enrichmentMessages(res) {
		if err := r.status(msg); err != nil {
			return err
		}
	}

	if err := r.advance(Dispatching); err != nil {
		return s.fail(r, err)
	}
	if err := r.status(searchingMessage(q, s.catalogSize())); err != nil {
		return err
	}

	items, err := s.aggregator.Aggregate(ctx, q, res.EnrichedQuery(q.Text()))
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		return s.fail(r, err)
	}
	if err := r.status(fmt.Sprintf("Found %d matching results", len(items))); err != nil {
		return err
	}

	if err := r.advance(Ranking); err != nil {
		return s.fail(r, err)
	}
	ranked := search.Rank(items, s.threshold, q.Limit())
	if err := r.status(fmt.Sprintf("Filtered to %d best results", len(ranked))); err != nil {
		return err
	}

	if err := r.advance(Delivered); err != nil {
		return s.fail(r, err)
	}
	s.logger.Info("search completed",
		zap.Int("candidates", len(items)),
		zap.Int("results", len(ranked)),
		zap.Bool("enrichment_degraded", res.Degraded()),
	)
	return r.send(event.Results{Items: ranked})
}

// fail moves the run to Failed and emits the single error event.
func (s *Service) fail(r *run, cause error) error {
	s.logger.Error("search pipeline failed", zap.String("phase", r.phase.String()), zap.Error(cause))
	if r.closed {
		return nil
	}
	r.phase = Failed
	return r.send(event.Error{Message: safeMessage(cause)})
}

func (s *Service) catalogSize() int {
	if s.size == nil {
		return 0
	}
	return s.size.Size()
}

func enrichmentMessages(res enrichment.Result) []string {
	if res.Degraded() {
		return []string{MsgDegraded}
	}
	msgs := []string{
		"Problem Statement: " + res.ProblemStatement,
		"Target Users: " + res.TargetUsers,
	}
	if res.HasTerms() {
		msgs = append(msgs, "Applying Filters: "+strings.Join(res.Terms, ", "))
	}
	return msgs
}

func searchingMessage(q query.Query, catalogSize int) string {
	sources := q.Sources()
	if len(sources) == 1 && sources[0] == source.Arxiv {
		return "Searching in a database of " + literatureSizeLabel
	}
	msg := fmt.Sprintf("Searching in a database of %d items", catalogSize)
	if q.Has(source.Arxiv) {
		msg += " and " + literatureSizeLabel
	}
	return msg
}

func safeMessage(err error) string {
	if errors.Is(err, domain.ErrEmbeddingProviderError) {
		return MsgUnavailable
	}
	return MsgFailed
}
