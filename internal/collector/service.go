package collector

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dreynolds/ccmon-tui/internal/config"
	"github.com/dreynolds/ccmon-tui/internal/db"
	"github.com/dreynolds/ccmon-tui/internal/logger"
	"github.com/dreynolds/ccmon-tui/internal/models"
)

// telemetryWindow is how far back the metric store is read when telemetry
// is active.
const telemetryWindow = 30 * 24 * time.Hour

// telemetryRetention is how long metric and event rows are kept before the
// startup cleanup removes them.
const telemetryRetention = 90 * 24 * time.Hour

// Service is the backend collaborator: it watches the Claude data directory,
// maintains the incremental cache, and pushes deltas to subscribers. A
// heartbeat delta goes out every refresh interval even when nothing changed.
type Service struct {
	mu        sync.Mutex
	cfg       *config.Config
	cache     *Cache
	telemetry *TelemetrySource
	otlp      *OTLPReceiver

	subsMu      sync.Mutex
	subscribers []chan models.Delta

	watcher  *fsnotify.Watcher
	wakeChan chan struct{}
	stopChan chan struct{}
	stopOnce sync.Once
}

// New creates the service and starts its refresh loop. The metric store may
// be nil when telemetry is disabled.
func New(cfg *config.Config, store *db.DB) (*Service, error) {
	s := &Service{
		cfg:      cfg,
		cache:    NewCache(),
		wakeChan: make(chan struct{}, 1),
		stopChan: make(chan struct{}),
	}
	if cfg.TelemetryEnabled && store != nil {
		s.telemetry = NewTelemetrySource(store)

		// The receiver is what fills the store; without it telemetry mode
		// only ever reads rows collected by an earlier run.
		if receiver, err := NewOTLPReceiver(store, cfg.CollectorPort); err != nil {
			logger.Warn("otlp receiver unavailable, reading stored telemetry only", "err", err)
		} else {
			s.otlp = receiver
		}

		go func() {
			removed, err := store.Cleanup(context.Background(), telemetryRetention)
			if err != nil {
				logger.Warn("telemetry retention cleanup failed", "err", err)
			} else if removed > 0 {
				logger.Info("telemetry retention cleanup", "removed", removed)
			}
		}()
	}

	if watcher, err := fsnotify.NewWatcher(); err != nil {
		logger.Warn("file watcher unavailable, relying on ticker", "err", err)
	} else {
		s.watcher = watcher
		s.watchProjects()
		go s.watchLoop()
	}

	go s.run()
	return s, nil
}

// watchProjects (re-)registers the projects directory and its per-project
// subdirectories. fsnotify does not recurse.
func (s *Service) watchProjects() {
	if s.watcher == nil {
		return
	}

	projectsDir := s.cfg.ProjectsDir()
	if err := s.watcher.Add(projectsDir); err != nil {
		return
	}
	entries, err := os.ReadDir(projectsDir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			_ = s.watcher.Add(filepath.Join(projectsDir, entry.Name()))
		}
	}
}

// watchLoop converts filesystem events into wake-ups for the refresh loop.
func (s *Service) watchLoop() {
	for {
		select {
		case _, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			select {
			case s.wakeChan <- struct{}{}:
			default:
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			logger.Debug("file watcher error", "err", err)
		case <-s.stopChan:
			return
		}
	}
}

// run is the refresh loop: a ticker at the configured interval, woken early
// by filesystem events.
func (s *Service) run() {
	ticker := time.NewTicker(s.cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.refresh()
		case <-s.wakeChan:
			// Filesystem events may mean new or removed projects; do not
			// wait out the directory rescan interval.
			s.mu.Lock()
			s.cache.ForceRescan()
			s.mu.Unlock()
			s.refresh()
		case <-s.stopChan:
			return
		}
	}
}

// refresh checks for changes and broadcasts either a delta or a heartbeat.
// Errors on the push path are logged, never surfaced.
func (s *Service) refresh() {
	s.mu.Lock()
	projectsDir := s.cfg.ProjectsDir()

	if !s.cache.HasChanges(projectsDir) {
		s.mu.Unlock()
		s.broadcast(models.Heartbeat())
		return
	}

	_, delta, err := s.cache.IncrementalLoad(projectsDir)
	s.mu.Unlock()
	if err != nil {
		logger.Warn("incremental refresh failed", "err", err)
		s.broadcast(models.Heartbeat())
		return
	}

	s.watchProjects()
	s.broadcast(delta)
}

// broadcast delivers a delta to every subscriber without blocking. A full
// subscriber channel drops the delta; the next full refetch reconciles.
func (s *Service) broadcast(delta models.Delta) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	for _, sub := range s.subscribers {
		select {
		case sub <- delta:
		default:
		}
	}
}

// Subscribe registers a push channel. The returned cancel function is safe
// to call more than once; the first call closes the channel.
func (s *Service) Subscribe() (<-chan models.Delta, func()) {
	ch := make(chan models.Delta, 50)

	s.subsMu.Lock()
	s.subscribers = append(s.subscribers, ch)
	s.subsMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.subsMu.Lock()
			defer s.subsMu.Unlock()
			for i, sub := range s.subscribers {
				if sub == ch {
					s.subscribers = append(s.subscribers[:i], s.subscribers[i+1:]...)
					break
				}
			}
			close(ch)
		})
	}
	return ch, cancel
}

// FetchSnapshot loads the complete usage snapshot. forceFull bypasses the
// cache. An empty dataPath uses the configured data directory.
func (s *Service) FetchSnapshot(ctx context.Context, dataPath string, forceFull bool) (models.UsageSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return models.UsageSnapshot{}, err
	}

	s.mu.Lock()
	projectsDir := s.projectsDirFor(dataPath)

	var snap models.UsageSnapshot
	var err error
	if forceFull || s.cache.IsEmpty() {
		snap, err = s.cache.FullLoad(projectsDir)
	} else {
		snap, _, err = s.cache.IncrementalLoad(projectsDir)
	}
	s.mu.Unlock()
	if err != nil {
		return models.UsageSnapshot{}, err
	}

	snap = s.applyTelemetry(ctx, snap)
	snap.OverallStats.DataSource = s.dataSourceInfo()
	return snap, nil
}

// FetchDelta performs one incremental load and returns what changed,
// serving the polling refresh variant.
func (s *Service) FetchDelta(ctx context.Context, dataPath string) (models.Delta, error) {
	if err := ctx.Err(); err != nil {
		return models.Delta{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, delta, err := s.cache.IncrementalLoad(s.projectsDirFor(dataPath))
	return delta, err
}

// FetchProjects returns per-project stats, most recent activity first.
func (s *Service) FetchProjects(ctx context.Context, dataPath string) ([]models.ProjectStats, error) {
	snap, err := s.FetchSnapshot(ctx, dataPath, false)
	if err != nil {
		return nil, err
	}
	return snap.Projects, nil
}

// FetchOverallStats returns the aggregate stats block.
func (s *Service) FetchOverallStats(ctx context.Context, dataPath string) (models.OverallStats, error) {
	snap, err := s.FetchSnapshot(ctx, dataPath, false)
	if err != nil {
		return models.OverallStats{}, err
	}
	return snap.OverallStats, nil
}

// FetchDailyUsage returns daily rollups within [start, end], ascending by
// date. Zero bounds are open.
func (s *Service) FetchDailyUsage(ctx context.Context, dataPath string, start, end time.Time) ([]models.DailyUsage, error) {
	snap, err := s.FetchSnapshot(ctx, dataPath, false)
	if err != nil {
		return nil, err
	}

	var out []models.DailyUsage
	for _, d := range snap.DailyUsage {
		day, err := time.Parse("2006-01-02", d.Date)
		if err != nil {
			continue
		}
		if !start.IsZero() && day.Before(start.Truncate(24*time.Hour)) {
			continue
		}
		if !end.IsZero() && day.After(end) {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

// CheckDataDirectory reports whether the projects directory exists.
func (s *Service) CheckDataDirectory(dataPath string) bool {
	info, err := os.Stat(s.projectsDirFor(dataPath))
	return err == nil && info.IsDir()
}

func (s *Service) projectsDirFor(dataPath string) string {
	if dataPath == "" {
		return s.cfg.ProjectsDir()
	}
	return filepath.Join(config.ResolveDataDir(dataPath), "projects")
}

// applyTelemetry overlays real-time metrics when the telemetry source is
// active. Telemetry failures fall back to log-derived data.
func (s *Service) applyTelemetry(ctx context.Context, snap models.UsageSnapshot) models.UsageSnapshot {
	if s.telemetry == nil {
		return snap
	}

	telemetrySnap, err := s.telemetry.UsageData(ctx, time.Now().Add(-telemetryWindow))
	if err != nil {
		logger.Warn("telemetry read failed, using session logs only", "err", err)
		return snap
	}
	// A store with no usage yet (fresh database, exporter not sending)
	// must not blank out the log-derived data.
	if telemetryEmpty(telemetrySnap) {
		return snap
	}
	return MergeHybrid(snap, telemetrySnap)
}

func (s *Service) dataSourceInfo() *models.DataSourceInfo {
	sourceType := models.DataSourceJSONL
	if s.telemetry != nil {
		sourceType = models.DataSourceTelemetry
	}
	return &models.DataSourceInfo{
		SourceType:  string(sourceType),
		DisplayName: sourceType.DisplayName(),
	}
}

// Close stops the refresh loop and the file watcher. Safe to call more than
// once.
func (s *Service) Close() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
		if s.watcher != nil {
			_ = s.watcher.Close()
		}
		if s.otlp != nil {
			s.otlp.Close()
		}
	})
}
