package scheduler

import (
	"context"
	"time"

	"github.com/devfong/cinema-gate/internal/notification"
	"github.com/devfong/cinema-gate/internal/service"
	"github.com/devfong/cinema-gate/pkg/logger"
)

// NewStatsDriver builds the driver that broadcasts per-movie queue
// snapshots. Ranks are never computed per waiter here: clients derive
// their own position from initialRank minus the broadcast processed
// count, which keeps the cycle O(movies) instead of O(waiters).
func NewStatsDriver(svc service.AdmissionService, pub notification.Publisher, part *Partitioner, interval time.Duration, l logger.Logger) *Driver {
	cycle := func(ctx context.Context) error {
		movies, err := svc.TrackedMovies(ctx)
		if err != nil {
			return err
		}

		for _, movieID := range part.Filter(movies) {
			stats, err := svc.QueueStats(ctx, movieID)
			if err != nil {
				l.Errorf(ctx, "Stats cycle: movie %s: %v", movieID, err)
				continue
			}
			if stats.WaitingCount == 0 && stats.ActiveCount == 0 {
				continue
			}
			if err := pub.PublishStats(ctx, *stats); err != nil {
				l.Errorf(ctx, "Stats cycle: publish for %s: %v", movieID, err)
			}
		}

		return nil
	}

	return NewDriver("stats", interval, cycle, l)
}
