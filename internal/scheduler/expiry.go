package scheduler

import (
	"context"
	"time"

	"github.com/devfong/cinema-gate/internal/service"
	"github.com/devfong/cinema-gate/pkg/logger"
)

// NewExpiryDriver builds the driver that sweeps stale active sessions
// and notifies each evicted participant.
func NewExpiryDriver(svc service.AdmissionService, part *Partitioner, interval time.Duration, l logger.Logger) *Driver {
	cycle := func(ctx context.Context) error {
		movies, err := svc.TrackedMovies(ctx)
		if err != nil {
			return err
		}

		for _, movieID := range part.Filter(movies) {
			if _, err := svc.ExpireStale(ctx, movieID); err != nil {
				l.Errorf(ctx, "Expiry cycle: movie %s: %v", movieID, err)
			}
		}

		return nil
	}

	return NewDriver("expiry", interval, cycle, l)
}
