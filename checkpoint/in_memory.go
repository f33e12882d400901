package checkpoint

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/hupe1980/tenantmesh/core"
)

// InMemoryStore is a volatile CheckpointStore keeping the full append-only
// version history per (tenant, thread) in process-local maps. It is safe for
// concurrent access and best suited for tests or ephemeral demo servers.
// Snapshots are cloned on the way in and out to prevent external mutation of
// internal state.
type InMemoryStore struct {
	mu      sync.RWMutex
	threads map[string]map[string][]*core.Checkpoint // tenantID -> threadID -> versions
}

// NewInMemoryStore constructs an empty in-memory checkpoint store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{threads: make(map[string]map[string][]*core.Checkpoint)}
}

// Get returns a clone of the latest snapshot for the thread, or
// core.ErrNotFound when the tenant owns no such thread.
func (s *InMemoryStore) Get(_ context.Context, tenantID, threadID string) (*core.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	versions, ok := s.threads[tenantID][threadID]
	if !ok || len(versions) == 0 {
		return nil, fmt.Errorf("thread %s: %w", threadID, core.ErrNotFound)
	}
	return versions[len(versions)-1].Clone(), nil
}

// Put appends a new snapshot version. It fails with core.ErrConflict when
// expectedVersion does not match the stored latest version.
func (s *InMemoryStore) Put(_ context.Context, tenantID, threadID string, expectedVersion int, cp *core.Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	versions := s.threads[tenantID][threadID]
	current := 0
	if len(versions) > 0 {
		current = versions[len(versions)-1].Version
	}
	if current != expectedVersion {
		return fmt.Errorf("thread %s: expected version %d, have %d: %w", threadID, expectedVersion, current, core.ErrConflict)
	}

	if _, ok := s.threads[tenantID]; !ok {
		s.threads[tenantID] = make(map[string][]*core.Checkpoint)
	}
	s.threads[tenantID][threadID] = append(versions, cp.Clone())
	return nil
}

// List returns clones of the latest snapshot of every thread the tenant
// owns, ordered by thread id for deterministic output.
func (s *InMemoryStore) List(_ context.Context, tenantID string) ([]*core.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := make([]*core.Checkpoint, 0, len(s.threads[tenantID]))
	for _, versions := range s.threads[tenantID] {
		if len(versions) == 0 {
			continue
		}
		res = append(res, versions[len(versions)-1].Clone())
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ThreadID < res[j].ThreadID })
	return res, nil
}
