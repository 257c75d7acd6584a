package sync

import (
	"context"
	stdsync "sync"
	"time"

	"github.com/dreynolds/ccmon-tui/internal/models"
)

// DefaultAnimationWindow is how long the "recently changed" flag stays up
// after an accepted update.
const DefaultAnimationWindow = 800 * time.Millisecond

// Backend is the collaborator contract the controller consumes.
type Backend interface {
	FetchSnapshot(ctx context.Context, dataPath string, forceFull bool) (models.UsageSnapshot, error)
	Subscribe() (<-chan models.Delta, func())
}

// Controller owns the sync lifecycle: the initial full fetch, the push
// subscription, merge invocation, and the loading/error/animating flags the
// UI renders.
type Controller struct {
	store    *Store
	backend  Backend
	dataPath string

	// animationWindow is shortened in tests.
	animationWindow time.Duration

	mu             stdsync.Mutex
	loading        bool
	pendingRefetch bool
	errMsg         string
	animating      bool
	firstFetchDone bool
	animTimer      *time.Timer
	animDeadline   time.Time

	updates  chan struct{}
	stopOnce stdsync.Once
	stopFn   func()
}

// NewController creates a controller over the given backend. dataPath is an
// optional data directory override passed through to fetches.
func NewController(backend Backend, dataPath string) *Controller {
	return &Controller{
		store:           NewStore(),
		backend:         backend,
		dataPath:        dataPath,
		animationWindow: DefaultAnimationWindow,
		updates:         make(chan struct{}, 1),
	}
}

// Start performs the initial full fetch and hands delta delivery to the
// strategy. The initial fetch error, if any, is surfaced via Err.
func (c *Controller) Start(ctx context.Context, strategy Strategy) {
	_ = c.FullRefetch(ctx)
	c.stopFn = strategy.Start(c)
}

// Updates signals that observable state changed. Notifications coalesce; the
// consumer re-reads all state on each signal.
func (c *Controller) Updates() <-chan struct{} {
	return c.updates
}

func (c *Controller) notify() {
	select {
	case c.updates <- struct{}{}:
	default:
	}
}

// FullRefetch fetches a complete snapshot and replaces the store wholesale.
// The loading flag is up for the duration. A fetch failure surfaces an error
// string and leaves the previous snapshot in place. The very first
// successful fetch does not raise the animation signal; cold start is not a
// change. A call arriving while a fetch is in flight latches a rerun: the
// in-flight caller fetches again once its current fetch completes, so a
// refetch request is never lost to a fetch it raced with.
func (c *Controller) FullRefetch(ctx context.Context) error {
	c.mu.Lock()
	if c.loading {
		c.pendingRefetch = true
		c.mu.Unlock()
		return nil
	}
	c.loading = true
	c.errMsg = ""
	c.mu.Unlock()
	c.notify()

	for {
		snap, err := c.backend.FetchSnapshot(ctx, c.dataPath, true)

		c.mu.Lock()
		rerun := c.pendingRefetch
		c.pendingRefetch = false
		if !rerun {
			c.loading = false
		}
		if err != nil {
			c.errMsg = err.Error()
			c.mu.Unlock()
			c.notify()
			if rerun {
				continue
			}
			return err
		}
		c.errMsg = ""
		first := !c.firstFetchDone
		c.firstFetchDone = true
		c.mu.Unlock()

		c.store.Replace(snap)
		c.store.RecordHeartbeat(time.Now())
		if !first {
			c.triggerAnimation()
		}
		c.notify()
		if !rerun {
			return nil
		}
	}
}

// handleDelta processes one push message: heartbeat always; refetch on
// FullRefresh; merge and animate on substantive changes.
func (c *Controller) handleDelta(delta models.Delta) {
	c.store.RecordHeartbeat(time.Now())

	if delta.FullRefresh {
		_ = c.FullRefetch(context.Background())
		return
	}

	if !delta.HasChanges || delta.IsEmpty() {
		c.notify()
		return
	}

	current, _ := c.store.Snapshot()
	c.store.Replace(Merge(current, delta))
	c.triggerAnimation()
	c.notify()
}

// triggerAnimation raises the animating flag for one window. Re-triggering
// restarts the single timer, extending the current interval rather than
// queueing a second one.
func (c *Controller) triggerAnimation() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.animating = true
	c.animDeadline = time.Now().Add(c.animationWindow)
	if c.animTimer != nil {
		c.animTimer.Reset(c.animationWindow)
		return
	}
	c.animTimer = time.AfterFunc(c.animationWindow, c.animationExpired)
}

// animationExpired fires on the timer goroutine. Resetting an AfterFunc that
// already fired leaves the stale callback queued, so the deadline is
// rechecked under the lock: a callback that raced a re-trigger re-arms for
// the remaining time instead of cutting the new window short.
func (c *Controller) animationExpired() {
	c.mu.Lock()
	if remaining := time.Until(c.animDeadline); remaining > 0 {
		c.animTimer.Reset(remaining)
		c.mu.Unlock()
		return
	}
	c.animating = false
	c.mu.Unlock()
	c.notify()
}

// Snapshot returns a copy of the current snapshot and whether one exists.
func (c *Controller) Snapshot() (models.UsageSnapshot, bool) {
	return c.store.Snapshot()
}

// Loading reports whether a full fetch is in flight.
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Err returns the user-visible error from the last full fetch, empty when
// the fetch succeeded.
func (c *Controller) Err() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errMsg
}

// Animating reports whether an accepted update happened within the
// animation window.
func (c *Controller) Animating() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.animating
}

// LastHeartbeat returns when the backend was last heard from.
func (c *Controller) LastHeartbeat() time.Time {
	return c.store.LastHeartbeat()
}

// Close tears down the subscription and timers. Safe to call repeatedly;
// teardown happens exactly once.
func (c *Controller) Close() {
	c.stopOnce.Do(func() {
		if c.stopFn != nil {
			c.stopFn()
		}
		c.mu.Lock()
		if c.animTimer != nil {
			c.animTimer.Stop()
		}
		c.mu.Unlock()
	})
}
