package catalog

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ideascout/internal/metrics"
)

// DefaultRefreshInterval is how often the catalog size is re-read.
const DefaultRefreshInterval = 10 * time.Minute

// SizeTracker caches the catalog size for progress messages. Readers never block.
type SizeTracker struct {
	counter Counter
	size    atomic.Int64
	logger  *zap.Logger
}

// NewSizeTracker creates a tracker. Size is zero until the first Refresh.
func NewSizeTracker(counter Counter, logger *zap.Logger) *SizeTracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SizeTracker{counter: counter, logger: logger}
}

// Size returns the last observed catalog size.
func (t *SizeTracker) Size() int {
	return int(t.size.Load())
}

// Refresh reads the current size. On error the previous value is kept.
func (t *SizeTracker) Refresh(ctx context.Context) error {
	n, err := t.counter.Count(ctx)
	if err != nil {
		return err
	}
	t.size.Store(int64(n))
	metrics.CatalogItems.Set(float64(n))
	return nil
}

// Run refreshes immediately and then every interval until ctx is canceled.
func (t *SizeTracker) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}

	t.refreshLogged(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.refreshLogged(ctx)
		}
	}
}

func (t *SizeTracker) refreshLogged(ctx context.Context) {
	if err := t.Refresh(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		t.logger.Warn("catalog size refresh failed", zap.Error(err))
		return
	}
	t.logger.Debug("catalog size refreshed", zap.Int("items", t.Size()))
}
