package collector

import (
	"os"
	"time"

	"github.com/dreynolds/ccmon-tui/internal/logger"
	"github.com/dreynolds/ccmon-tui/internal/models"
)

// dirRescanInterval bounds how often the projects directory is re-listed
// for new or removed projects.
const dirRescanInterval = 60 * time.Second

type fileCacheEntry struct {
	mtime   time.Time
	entries []models.UsageEntry
}

// Cache holds per-file parsed entries keyed by path so incremental loads
// only re-read files whose mtime advanced. Not safe for concurrent use; the
// owning service serializes access.
type Cache struct {
	files           map[string]fileCacheEntry
	projects        []Project
	lastFullRefresh time.Time
	lastDirScan     time.Time
	snapshot        *models.UsageSnapshot

	// rescanInterval is overridable in tests.
	rescanInterval time.Duration
}

// fileChanges is the result of comparing the directory state to the cache.
type fileChanges struct {
	modified []string
	newFiles []string
	deleted  []string
}

func (fc fileChanges) any() bool {
	return len(fc.modified) > 0 || len(fc.newFiles) > 0 || len(fc.deleted) > 0
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{
		files:          make(map[string]fileCacheEntry),
		rescanInterval: dirRescanInterval,
	}
}

// Clear drops all cached state, forcing the next load to be full.
func (c *Cache) Clear() {
	c.files = make(map[string]fileCacheEntry)
	c.projects = nil
	c.lastFullRefresh = time.Time{}
	c.lastDirScan = time.Time{}
	c.snapshot = nil
}

// IsEmpty reports whether no files have been cached yet (first load).
func (c *Cache) IsEmpty() bool {
	return len(c.files) == 0
}

// Snapshot returns the cached result of the last load, or nil.
func (c *Cache) Snapshot() *models.UsageSnapshot {
	return c.snapshot
}

func (c *Cache) shouldRescanDirs() bool {
	return c.lastDirScan.IsZero() || time.Since(c.lastDirScan) >= c.rescanInterval
}

// listProjects returns the project list, re-walking the projects directory
// only when the rescan interval elapsed. Between rescans the cached list is
// served; deletions are still caught by stat in checkFileChanges, and
// ForceRescan bypasses the gate for filesystem events.
func (c *Cache) listProjects(projectsDir string) ([]Project, error) {
	if len(c.projects) > 0 && !c.shouldRescanDirs() {
		return c.projects, nil
	}
	projects, err := ListProjects(projectsDir)
	if err != nil {
		return nil, err
	}
	c.projects = projects
	c.lastDirScan = time.Now()
	return projects, nil
}

// ForceRescan drops the directory-listing gate so the next load re-walks the
// projects directory. The owning service calls this on filesystem events.
func (c *Cache) ForceRescan() {
	c.lastDirScan = time.Time{}
}

// checkFileChanges compares the current file list against the cache.
func (c *Cache) checkFileChanges(currentFiles []string) fileChanges {
	var changes fileChanges
	current := make(map[string]struct{}, len(currentFiles))

	for _, file := range currentFiles {
		current[file] = struct{}{}

		info, err := os.Stat(file)
		if err != nil {
			// A cached file that no longer stats is gone, even when a
			// stale directory listing still names it.
			if _, ok := c.files[file]; ok {
				changes.deleted = append(changes.deleted, file)
			}
			continue
		}

		cached, ok := c.files[file]
		if !ok {
			changes.newFiles = append(changes.newFiles, file)
		} else if info.ModTime().After(cached.mtime) {
			changes.modified = append(changes.modified, file)
		}
	}

	for path := range c.files {
		if _, ok := current[path]; !ok {
			changes.deleted = append(changes.deleted, path)
		}
	}
	return changes
}

func (c *Cache) updateFile(file string) {
	entries, err := ReadSessionFile(file)
	if err != nil {
		logger.Warn("failed to read session file", "file", file, "err", err)
		return
	}

	mtime := time.Now()
	if info, err := os.Stat(file); err == nil {
		mtime = info.ModTime()
	}
	c.files[file] = fileCacheEntry{mtime: mtime, entries: entries}
}

// HasChanges reports whether any session file differs from the cache,
// without reading file contents. An empty cache always has changes.
func (c *Cache) HasChanges(projectsDir string) bool {
	if c.IsEmpty() {
		return true
	}

	projects, err := c.listProjects(projectsDir)
	if err != nil {
		return false
	}
	return c.checkFileChanges(sessionFilesOf(projects)).any()
}

func sessionFilesOf(projects []Project) []string {
	var files []string
	for _, p := range projects {
		files = append(files, p.SessionFiles...)
	}
	return files
}

// FullLoad clears the cache, reads every session file, and computes a fresh
// snapshot.
func (c *Cache) FullLoad(projectsDir string) (models.UsageSnapshot, error) {
	c.Clear()

	projects, err := ListProjects(projectsDir)
	if err != nil {
		return models.UsageSnapshot{}, err
	}

	for _, project := range projects {
		for _, file := range project.SessionFiles {
			c.updateFile(file)
		}
	}

	c.projects = projects
	c.lastDirScan = time.Now()
	c.lastFullRefresh = time.Now()

	snap := c.buildSnapshot(projects)
	c.snapshot = &snap
	return snap, nil
}

// IncrementalLoad re-reads only changed files and returns the new snapshot
// together with a delta describing what changed. An empty cache or a file
// deletion degrades to a full load with a full-refresh delta.
func (c *Cache) IncrementalLoad(projectsDir string) (models.UsageSnapshot, models.Delta, error) {
	if c.IsEmpty() {
		return c.fullLoadWithDelta(projectsDir)
	}

	projects, err := c.listProjects(projectsDir)
	if err != nil {
		return models.UsageSnapshot{}, models.Delta{}, err
	}

	changes := c.checkFileChanges(sessionFilesOf(projects))

	// A removed file retracts data, which a delta cannot express.
	if len(changes.deleted) > 0 {
		return c.fullLoadWithDelta(projectsDir)
	}

	changedPaths := make(map[string]struct{})
	for _, file := range append(changes.modified, changes.newFiles...) {
		for _, project := range projects {
			if containsFile(project.SessionFiles, file) {
				changedPaths[project.DecodedPath] = struct{}{}
				break
			}
		}
		c.updateFile(file)
	}

	snap := c.buildSnapshot(projects)
	c.snapshot = &snap

	var updated []models.ProjectStats
	for _, p := range snap.Projects {
		if _, ok := changedPaths[p.ProjectPath]; ok {
			updated = append(updated, p)
		}
	}

	delta := models.Delta{
		HasChanges:      len(updated) > 0,
		UpdatedProjects: updated,
	}
	if delta.HasChanges {
		overall := snap.OverallStats
		delta.OverallStats = &overall
		delta.DailyUsage = snap.DailyUsage
	}
	return snap, delta, nil
}

func (c *Cache) fullLoadWithDelta(projectsDir string) (models.UsageSnapshot, models.Delta, error) {
	snap, err := c.FullLoad(projectsDir)
	if err != nil {
		return models.UsageSnapshot{}, models.Delta{}, err
	}

	overall := snap.OverallStats
	delta := models.Delta{
		HasChanges:      true,
		FullRefresh:     true,
		UpdatedProjects: snap.Projects,
		OverallStats:    &overall,
		DailyUsage:      snap.DailyUsage,
	}
	return snap, delta, nil
}

// buildSnapshot assembles project entries from the cache and computes
// aggregates.
func (c *Cache) buildSnapshot(projects []Project) models.UsageSnapshot {
	all := make([]ProjectEntries, 0, len(projects))
	for _, project := range projects {
		var entries []models.UsageEntry
		index := make(map[string]int)
		for _, file := range project.SessionFiles {
			if cached, ok := c.files[file]; ok {
				entries = mergeEntries(entries, cached.entries, index)
			}
		}
		all = append(all, ProjectEntries{Project: project, Entries: entries})
	}
	return BuildSnapshot(all, time.Now())
}

func containsFile(files []string, target string) bool {
	for _, f := range files {
		if f == target {
			return true
		}
	}
	return false
}
