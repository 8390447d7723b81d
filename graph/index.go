// Package graph maintains the adjacency index: a process-local map from
// entity ID to the IDs of relationships where it appears as source or
// target.
//
// The index is an eventually consistent cache over the entity store,
// which stays the source of truth. It is created lazily, updated
// incrementally at verb write time, and fully rebuildable by scanning
// every persisted relationship; any divergence is resolvable by Rebuild
// without data loss.
package graph

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/hyphadb/hypha/model"
	"github.com/hyphadb/hypha/store"
)

// State is the index lifecycle: Uninitialized until first touched,
// LazyCreated once structures exist but completeness is unknown, and
// Initialized once the index provably covers every persisted verb
// (either a rebuild ran, or the store held zero verbs at first access).
type State uint8

const (
	// Uninitialized means no index structures exist yet.
	Uninitialized State = iota
	// LazyCreated means writes are being tracked but the index may miss
	// verbs persisted before it existed.
	LazyCreated
	// Initialized means lookups are authoritative.
	Initialized
)

// Direction selects which endpoint of a relationship to query by.
type Direction uint8

const (
	// BySource indexes verbs by their source entity.
	BySource Direction = iota
	// ByTarget indexes verbs by their target entity.
	ByTarget
)

// Index is the adjacency index for one store view. Safe for concurrent
// use.
type Index struct {
	store *store.Store
	log   *slog.Logger

	mu       sync.RWMutex
	state    State
	bySource map[string]map[string]struct{}
	byTarget map[string]map[string]struct{}
}

// New creates an index over the store. No I/O happens until first use.
func New(s *store.Store, log *slog.Logger) *Index {
	if log == nil {
		log = slog.Default()
	}
	return &Index{store: s, log: log}
}

// State reports the current lifecycle state.
func (ix *Index) State() State {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.state
}

// ensureMaps moves Uninitialized to LazyCreated. Callers hold ix.mu.
func (ix *Index) ensureMaps() {
	if ix.bySource == nil {
		ix.bySource = make(map[string]map[string]struct{})
		ix.byTarget = make(map[string]map[string]struct{})
		if ix.state == Uninitialized {
			ix.state = LazyCreated
		}
	}
}

// AddVerb records a persisted verb in both directions. Safe to call in
// any state: structures self-initialize on first write, so write-time
// maintenance never has to wait for a rebuild.
func (ix *Index) AddVerb(v *model.Verb) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.ensureMaps()
	addEntry(ix.bySource, v.SourceID, v.ID)
	addEntry(ix.byTarget, v.TargetID, v.ID)
}

// RemoveVerb removes a deleted verb from both directions. Best-effort
// reconciliation; Rebuild is the backstop.
func (ix *Index) RemoveVerb(verbID, sourceID, targetID string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.bySource == nil {
		return
	}
	removeEntry(ix.bySource, sourceID, verbID)
	removeEntry(ix.byTarget, targetID, verbID)
}

// Reset drops all structures back to Uninitialized. Used on branch
// checkout: the index is scoped to one branch view.
func (ix *Index) Reset() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.state = Uninitialized
	ix.bySource = nil
	ix.byTarget = nil
}

// IDsBySource returns the IDs of verbs whose source is id, sorted.
//
// If the index cannot prove completeness it initializes first (a full
// scan when verbs exist, trivial otherwise), so callers never get a
// false "no relationships" answer from a cold index.
func (ix *Index) IDsBySource(ctx context.Context, id string) ([]string, error) {
	return ix.lookup(ctx, BySource, id)
}

// IDsByTarget returns the IDs of verbs whose target is id, sorted.
func (ix *Index) IDsByTarget(ctx context.Context, id string) ([]string, error) {
	return ix.lookup(ctx, ByTarget, id)
}

func (ix *Index) lookup(ctx context.Context, dir Direction, id string) ([]string, error) {
	ix.mu.RLock()
	state := ix.state
	ix.mu.RUnlock()

	if state != Initialized {
		if err := ix.Rebuild(ctx); err != nil {
			return nil, err
		}
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	m := ix.bySource
	if dir == ByTarget {
		m = ix.byTarget
	}

	set := m[id]
	out := make([]string, 0, len(set))
	for verbID := range set {
		out = append(out, verbID)
	}
	sort.Strings(out)
	return out, nil
}

// Rebuild scans every persisted verb and repopulates the index exactly,
// then marks it Initialized. An empty store initializes trivially.
func (ix *Index) Rebuild(ctx context.Context) error {
	bySource := make(map[string]map[string]struct{})
	byTarget := make(map[string]map[string]struct{})

	count := 0
	err := ix.store.VerbVectorRecords(ctx, func(rec *model.VerbVectorRecord) error {
		addEntry(bySource, rec.SourceID, rec.ID)
		addEntry(byTarget, rec.TargetID, rec.ID)
		count++
		return nil
	})
	if err != nil {
		return err
	}

	ix.mu.Lock()
	ix.bySource = bySource
	ix.byTarget = byTarget
	ix.state = Initialized
	ix.mu.Unlock()

	ix.log.Debug("adjacency index rebuilt", "verbs", count)
	return nil
}

func addEntry(m map[string]map[string]struct{}, key, verbID string) {
	if key == "" || verbID == "" {
		return
	}
	set, ok := m[key]
	if !ok {
		set = make(map[string]struct{})
		m[key] = set
	}
	set[verbID] = struct{}{}
}

func removeEntry(m map[string]map[string]struct{}, key, verbID string) {
	if set, ok := m[key]; ok {
		delete(set, verbID)
		if len(set) == 0 {
			delete(m, key)
		}
	}
}
