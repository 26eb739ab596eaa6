package enrich

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ideascout/internal/domain"
	"github.com/kailas-cloud/ideascout/internal/domain/enrichment"
	"github.com/kailas-cloud/ideascout/internal/metrics"
)

// Service turns a raw query into an enrichment result. It never fails:
// analyzer errors produce a degraded result instead.
type Service struct {
	analyzer Analyzer
	timeout  time.Duration
	logger   *zap.Logger
}

// New creates an enrichment service. A zero timeout leaves the caller's deadline in charge.
func New(analyzer Analyzer, timeout time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{analyzer: analyzer, timeout: timeout, logger: logger}
}

// Enrich analyzes raw. The returned result is degraded when analysis fails.
func (s *Service) Enrich(ctx context.Context, raw string) enrichment.Result {
	if s.analyzer == nil {
		return s.degrade(fmt.Errorf("no analyzer configured: %w", domain.ErrEnrichmentFailed))
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	res, err := s.analyzer.Analyze(ctx, raw)
	if err != nil {
		return s.degrade(err)
	}

	res.Terms = enrichment.SplitTerms(res.Terms)
	res.Err = nil
	metrics.EnrichmentTotal.WithLabelValues("ok").Inc()
	return res
}

func (s *Service) degrade(err error) enrichment.Result {
	metrics.EnrichmentTotal.WithLabelValues("degraded").Inc()
	s.logger.Warn("query enrichment degraded", zap.Error(err))
	return enrichment.Degraded(err)
}
