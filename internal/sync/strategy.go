package sync

import (
	"context"
	"strings"
	stdsync "sync"
	"time"

	"github.com/dreynolds/ccmon-tui/internal/logger"
	"github.com/dreynolds/ccmon-tui/internal/models"
)

// DefaultPollInterval matches the backend's heartbeat cadence.
const DefaultPollInterval = 5 * time.Second

// Strategy determines how the controller learns about backend changes. Push
// is the default; polling survives as a fallback variant.
type Strategy interface {
	// Start begins delivery into the controller and returns a stop
	// function. Stop is idempotent.
	Start(c *Controller) func()
}

// StrategyFor maps a configured strategy name to an implementation.
// Anything other than "poll" selects push.
func StrategyFor(name string) Strategy {
	if strings.EqualFold(name, "poll") {
		return PollingStrategy{}
	}
	return PushStrategy{}
}

// PushStrategy consumes the backend's push channel and feeds each delta to
// the controller in arrival order.
type PushStrategy struct{}

// Start subscribes and pumps deltas until the subscription is canceled.
func (PushStrategy) Start(c *Controller) func() {
	ch, cancel := c.backend.Subscribe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for delta := range ch {
			c.handleDelta(delta)
		}
	}()

	var once stdsync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}
}

// DeltaFetcher is the optional backend capability the polling strategy
// needs: a lightweight fetch returning a delta-shaped payload.
type DeltaFetcher interface {
	FetchDelta(ctx context.Context, dataPath string) (models.Delta, error)
}

// PollingStrategy fetches deltas on a fixed interval. Failures are logged
// and skipped; polling is best-effort background refresh.
type PollingStrategy struct {
	Interval time.Duration
}

// Start launches the poll loop. A backend without delta fetching degrades
// to push.
func (p PollingStrategy) Start(c *Controller) func() {
	fetcher, ok := c.backend.(DeltaFetcher)
	if !ok {
		logger.Warn("backend does not support polling, using push")
		return PushStrategy{}.Start(c)
	}

	interval := p.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	stopChan := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				delta, err := fetcher.FetchDelta(context.Background(), c.dataPath)
				if err != nil {
					logger.Debug("poll fetch failed", "err", err)
					continue
				}
				c.handleDelta(delta)
			case <-stopChan:
				return
			}
		}
	}()

	var once stdsync.Once
	return func() {
		once.Do(func() {
			close(stopChan)
			<-done
		})
	}
}
