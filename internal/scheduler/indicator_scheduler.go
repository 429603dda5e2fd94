// Package scheduler runs the periodic background sweeps that keep
// monitoring state honest between analysis runs.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/secondsight/secondsight/internal/models"
)

const staleObservationNote = "No observation recorded within the expected window."

// InvalidationStore is the slice of the theme repository the scheduler
// needs.
type InvalidationStore interface {
	ListStaleInvalidationItems(ctx context.Context, cutoff time.Time) ([]models.InvalidationItem, error)
	UpdateInvalidationStatus(ctx context.Context, themeID, indicatorName string, status models.IndicatorStatus, note string) error
}

// IndicatorScheduler periodically demotes invalidation items that have
// gone without an observation to UNKNOWN, so a stale GREEN never reads as
// an active all-clear.
type IndicatorScheduler struct {
	store         InvalidationStore
	logger        *slog.Logger
	stopChan      chan struct{}
	checkInterval time.Duration
	staleAfter    time.Duration
}

// NewIndicatorScheduler creates a scheduler with an hourly sweep and a
// 30-day staleness window.
func NewIndicatorScheduler(store InvalidationStore, logger *slog.Logger) *IndicatorScheduler {
	return &IndicatorScheduler{
		store:         store,
		logger:        logger,
		stopChan:      make(chan struct{}),
		checkInterval: time.Hour,
		staleAfter:    30 * 24 * time.Hour,
	}
}

// Start begins the sweep loop. It runs once immediately, then on each
// tick until Stop is called or the context ends.
func (s *IndicatorScheduler) Start(ctx context.Context) {
	s.logger.Info("starting indicator scheduler",
		"check_interval", s.checkInterval,
		"stale_after", s.staleAfter)
	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	s.sweep(ctx)

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-s.stopChan:
			s.logger.Info("indicator scheduler stopped")
			return
		case <-ctx.Done():
			s.logger.Info("indicator scheduler stopping", "reason", ctx.Err())
			return
		}
	}
}

// Stop stops the scheduler.
func (s *IndicatorScheduler) Stop() {
	close(s.stopChan)
}

func (s *IndicatorScheduler) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-s.staleAfter)
	items, err := s.store.ListStaleInvalidationItems(ctx, cutoff)
	if err != nil {
		s.logger.Error("failed to list stale invalidation items", "error", err)
		return
	}
	if len(items) == 0 {
		return
	}

	demoted := 0
	for _, item := range items {
		err := s.store.UpdateInvalidationStatus(ctx, item.ThemeID, item.IndicatorName, models.StatusUnknown, staleObservationNote)
		if err != nil {
			s.logger.Error("failed to demote stale indicator",
				"theme_id", item.ThemeID,
				"indicator_name", item.IndicatorName,
				"error", err)
			continue
		}
		demoted++
	}
	s.logger.Info("stale indicator sweep complete",
		"stale_items", len(items),
		"demoted", demoted)
}
