package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/beka-birhanu/reelrite-rendezvous/domain"
	"github.com/beka-birhanu/reelrite-rendezvous/service/i"
	"github.com/benbjohnson/clock"
)

const (
	defaultStaleThreshold = 30 * time.Second
	defaultSweepPeriod    = 60 * time.Second
)

// CollectorOptions configures a StaleCollector.
type CollectorOptions struct {
	// StaleThreshold is how long a client may stay silent before eviction.
	StaleThreshold time.Duration

	// SweepPeriod is the interval between sweeps.
	SweepPeriod time.Duration

	// Clock drives the sweep ticker; nil means the wall clock.
	Clock clock.Clock
}

// StaleCollector periodically evicts silent clients from presence and the pool.
type StaleCollector struct {
	store  i.RendezvousStore
	logger i.Logger
	opts   CollectorOptions

	stopCh chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

// NewStaleCollector creates a collector; zero options fall back to defaults.
func NewStaleCollector(store i.RendezvousStore, logger i.Logger, opts CollectorOptions) (*StaleCollector, error) {
	if store == nil {
		return nil, fmt.Errorf("rendezvous store is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if opts.StaleThreshold <= 0 {
		opts.StaleThreshold = defaultStaleThreshold
	}
	if opts.SweepPeriod <= 0 {
		opts.SweepPeriod = defaultSweepPeriod
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}

	return &StaleCollector{
		store:  store,
		logger: logger,
		opts:   opts,
		stopCh: make(chan struct{}),
	}, nil
}

// Start runs the sweep loop until ctx is done or Stop is called.
func (c *StaleCollector) Start(ctx context.Context) {
	ticker := c.opts.Clock.Ticker(c.opts.SweepPeriod)
	c.wg.Add(1)
	go c.loop(ctx, ticker)
	c.logger.Info(fmt.Sprintf("stale collector started: threshold=%s period=%s", c.opts.StaleThreshold, c.opts.SweepPeriod))
}

// Stop ends the loop and waits for an in-flight sweep to finish.
func (c *StaleCollector) Stop() {
	c.once.Do(func() { close(c.stopCh) })
	c.wg.Wait()
}

// Sweep runs one eviction pass and returns the evicted ids.
func (c *StaleCollector) Sweep(ctx context.Context) ([]domain.ClientID, error) {
	evicted, err := c.store.Sweep(ctx, c.opts.StaleThreshold)
	if err != nil {
		c.logger.Error(fmt.Sprintf("sweep failed: %s", err))
		return nil, err
	}
	if len(evicted) > 0 {
		c.logger.Info(fmt.Sprintf("evicted %d stale clients", len(evicted)))
		for _, id := range evicted {
			c.logger.Debug(fmt.Sprintf("evicted %s", id))
		}
	}
	return evicted, nil
}

func (c *StaleCollector) loop(ctx context.Context, ticker *clock.Ticker) {
	defer c.wg.Done()
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_, _ = c.Sweep(ctx)
		case <-ctx.Done():
			return
		case <-c.stopCh:
			return
		}
	}
}
