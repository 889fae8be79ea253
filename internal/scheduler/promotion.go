package scheduler

import (
	"context"

	"github.com/devfong/cinema-gate/config"
	"github.com/devfong/cinema-gate/internal/service"
	"github.com/devfong/cinema-gate/pkg/logger"
)

// NewPromotionDriver builds the driver that backfills freed active
// slots from the waiting queues. Movies are processed sequentially and
// one movie's failure never skips the rest.
func NewPromotionDriver(svc service.AdmissionService, part *Partitioner, cfg config.QueueConfig, l logger.Logger) *Driver {
	cycle := func(ctx context.Context) error {
		movies, err := svc.TrackedMovies(ctx)
		if err != nil {
			return err
		}

		for _, movieID := range part.Filter(movies) {
			promoted, err := svc.PromoteWaiting(ctx, movieID, int64(cfg.BatchCeiling))
			if err != nil {
				l.Errorf(ctx, "Promotion cycle: movie %s: %v", movieID, err)
				continue
			}
			if promoted > 0 {
				l.Debugf(ctx, "Promotion cycle: movie %s promoted %d", movieID, promoted)
			}
		}

		return nil
	}

	return NewDriver("promotion", cfg.PromotionInterval, cycle, l)
}
