// Package sync implements the incremental synchronization core: a snapshot
// store holding the last known good usage state, a delta merge engine, and a
// controller that keeps the store reconciled against backend pushes.
package sync

import (
	stdsync "sync"
	"time"

	"github.com/dreynolds/ccmon-tui/internal/models"
)

// Store holds the last-known-good usage snapshot. The controller is its only
// writer; everyone else reads copies. Reads during transient backend failures
// keep returning the previous good snapshot.
type Store struct {
	mu            stdsync.RWMutex
	snapshot      models.UsageSnapshot
	hasData       bool
	lastHeartbeat time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// Snapshot returns a deep copy of the current snapshot and whether any data
// has been stored yet.
func (s *Store) Snapshot() (models.UsageSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.Clone(), s.hasData
}

// Replace installs a new snapshot wholesale.
func (s *Store) Replace(snap models.UsageSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = snap
	s.hasData = true
}

// RecordHeartbeat notes when the backend was last heard from, whether or not
// the message carried changes.
func (s *Store) RecordHeartbeat(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastHeartbeat = t
}

// LastHeartbeat returns the time of the most recent backend message, zero if
// none has arrived.
func (s *Store) LastHeartbeat() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastHeartbeat
}
