package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/mediagate/internal/mediagate/store"
)

// DefaultRetention is how long soft deleted media rows are kept.
const DefaultRetention = 90 * 24 * time.Hour

// HousekeepingService periodically purges media rows that were soft deleted
// longer ago than Retention.
type HousekeepingService struct {
	Store     store.Store
	Logger    *slog.Logger
	Interval  time.Duration
	Retention time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService defaults a non-positive interval to one hour and a
// non-positive retention to DefaultRetention.
func NewHousekeepingService(st store.Store, logger *slog.Logger, interval, retention time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = time.Hour
	}
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &HousekeepingService{
		Store:     st,
		Logger:    logger,
		Interval:  interval,
		Retention: retention,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start launches the worker. Call Stop to shut it down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval, "retention", s.Retention)
}

// Stop blocks until an in-progress run has finished.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.RunOnce(context.Background())

	for {
		select {
		case <-ticker.C:
			s.RunOnce(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// RunOnce performs a single purge and returns the number of rows removed.
func (s *HousekeepingService) RunOnce(ctx context.Context) int64 {
	cutoff := time.Now().Add(-s.Retention)
	n, err := s.Store.Media().PurgeDeletedMedia(ctx, cutoff)
	if err != nil {
		s.Logger.Error("failed to purge deleted media", "error", err)
		return 0
	}
	s.Logger.Info("housekeeping cleanup completed", "purged_media", n, "cutoff", cutoff)
	return n
}
