// Package store owns the local snapshot of the tracked collections.
//
// Every write builds a new snapshot from a copy of the current one and swaps
// it in under the lock, so readers never see a partially applied change.
// Patches applied while a sync is ingesting are journaled and replayed on top
// of the ingested snapshot when the sync commits.
package store

import (
	"sync"

	"github.com/dmitrijs2005/cargotrack/internal/models"
)

// Patch mutates a private copy of the snapshot. Patches must be idempotent:
// the same patch may be applied twice when it is replayed after a sync.
type Patch func(s *models.Snapshot)

type Store struct {
	mu        sync.RWMutex
	snap      models.Snapshot
	ingesting bool
	journal   []Patch
	version   uint64
}

func New() *Store {
	return &Store{}
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() models.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Clone()
}

// Version increases on every successful write.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Replace swaps in snap wholesale.
func (s *Store) Replace(snap models.Snapshot) {
	next := snap.Clone()
	s.mu.Lock()
	s.snap = next
	s.version++
	s.mu.Unlock()
}

// Apply runs p against a copy of the snapshot and installs the result.
func (s *Store) Apply(p Patch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.snap.Clone()
	p(&next)
	s.snap = next
	s.version++
	if s.ingesting {
		s.journal = append(s.journal, p)
	}
}

// BeginIngest starts journaling patches.
func (s *Store) BeginIngest() {
	s.mu.Lock()
	s.ingesting = true
	s.journal = nil
	s.mu.Unlock()
}

// CommitIngest installs snap with every patch journaled since BeginIngest
// replayed on top of it. It reports false and installs nothing when the
// store was reset after BeginIngest.
func (s *Store) CommitIngest(snap models.Snapshot) bool {
	next := snap.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ingesting {
		return false
	}
	for _, p := range s.journal {
		p(&next)
	}
	s.snap = next
	s.version++
	s.ingesting = false
	s.journal = nil
	return true
}

// AbortIngest stops journaling and leaves the snapshot as it is.
func (s *Store) AbortIngest() {
	s.mu.Lock()
	s.ingesting = false
	s.journal = nil
	s.mu.Unlock()
}

// Reset empties the snapshot and cancels a pending ingest.
func (s *Store) Reset() {
	s.mu.Lock()
	s.snap = models.Snapshot{}
	s.version++
	s.ingesting = false
	s.journal = nil
	s.mu.Unlock()
}
