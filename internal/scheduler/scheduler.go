package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/devfong/cinema-gate/pkg/logger"
)

// CycleFunc runs one full pass of a periodic driver. Errors are logged
// by the driver; a failed cycle never stops the ticker.
type CycleFunc func(ctx context.Context) error

// Driver runs a named cycle on a fixed interval. Cycles run strictly
// sequentially on one goroutine; a slow cycle delays the next tick
// rather than overlapping it.
type Driver struct {
	name     string
	interval time.Duration
	cycle    CycleFunc
	l        logger.Logger

	stopCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

func NewDriver(name string, interval time.Duration, cycle CycleFunc, l logger.Logger) *Driver {
	return &Driver{
		name:     name,
		interval: interval,
		cycle:    cycle,
		l:        l,
		stopCh:   make(chan struct{}),
	}
}

// DriverStatus is the snapshot surfaced by the system stats endpoint.
type DriverStatus struct {
	Name     string `json:"name"`
	Interval string `json:"interval"`
	Running  bool   `json:"running"`
}

func (d *Driver) Status() DriverStatus {
	d.mu.Lock()
	defer d.mu.Unlock()
	return DriverStatus{
		Name:     d.name,
		Interval: d.interval.String(),
		Running:  d.running,
	}
}

func (d *Driver) Start(ctx context.Context) {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return
	}
	d.running = true
	d.mu.Unlock()

	d.wg.Add(1)
	go d.run(ctx)

	d.l.Infof(ctx, "Driver %s started (interval %s)", d.name, d.interval)
}

func (d *Driver) Stop(ctx context.Context) {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	d.mu.Unlock()

	close(d.stopCh)
	d.wg.Wait()

	d.l.Infof(ctx, "Driver %s stopped", d.name)
}

func (d *Driver) run(ctx context.Context) {
	defer d.wg.Done()

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-d.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := d.cycle(ctx); err != nil {
				d.l.Errorf(ctx, "Driver %s cycle failed: %v", d.name, err)
			}
		}
	}
}
