package store

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/hyphadb/hypha/model"
)

// statsRecord is the persisted snapshot shape at _system/type-statistics.json.
type statsRecord struct {
	NounCounts []int64 `json:"nounCounts"`
	VerbCounts []int64 `json:"verbCounts"`
}

// Stats tracks approximate per-type cardinality as two fixed-size
// counter arrays indexed by the stable type registries in model.
//
// Counts are advisory, an optimization hint only. No read path may skip
// an explicitly requested type because its counter is stale or zero; the
// worst a wrong counter causes is a slower fallback scan. Rebuild is the
// reconciliation backstop.
//
// Persistence is opportunistic: snapshots are queued to a single
// background worker on the first occurrence of a type and every
// persistEvery changes thereafter, bounding write amplification. The
// queue is drained deterministically on stop.
type Stats struct {
	store        *Store
	persistEvery int

	mu         sync.Mutex
	branch     string
	nounCounts []int64
	verbCounts []int64
	changes    int

	queue   chan string // branch whose snapshot should be persisted
	wg      sync.WaitGroup
	started bool
}

func newStats(s *Store, persistEvery int) *Stats {
	if persistEvery <= 0 {
		persistEvery = 64
	}
	return &Stats{
		store:        s,
		persistEvery: persistEvery,
		nounCounts:   make([]int64, len(model.NounTypes)),
		verbCounts:   make([]int64, len(model.VerbTypes)),
		queue:        make(chan string, 16),
	}
}

// start launches the persistence worker. Failures are logged and
// dropped: a statistics write must never fail the operation that
// triggered it.
func (st *Stats) start() {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.started {
		return
	}
	st.started = true

	st.wg.Add(1)
	go func() {
		defer st.wg.Done()
		for branch := range st.queue {
			if err := st.persist(context.Background(), branch); err != nil {
				st.store.log.Warn("statistics persistence failed",
					"branch", branch, "error", err)
			}
		}
	}()
}

// stop drains the queue, stops the worker and writes a final snapshot.
func (st *Stats) stop(ctx context.Context) error {
	st.mu.Lock()
	if !st.started {
		st.mu.Unlock()
		return nil
	}
	st.started = false
	branch := st.branch
	st.mu.Unlock()

	close(st.queue)
	st.wg.Wait()
	return st.persist(ctx, branch)
}

// load replaces the in-memory counters with the branch's persisted
// snapshot, or zeros them when no snapshot exists.
func (st *Stats) load(ctx context.Context, branch string) error {
	raw, ok, err := st.store.ReadInherited(ctx, StatsPath, branch)

	st.mu.Lock()
	defer st.mu.Unlock()
	st.branch = branch
	st.nounCounts = make([]int64, len(model.NounTypes))
	st.verbCounts = make([]int64, len(model.VerbTypes))
	st.changes = 0

	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	var rec statsRecord
	if err := st.store.codec.Unmarshal(raw, &rec); err != nil {
		return fmt.Errorf("decode statistics snapshot: %w", err)
	}
	copy(st.nounCounts, rec.NounCounts)
	copy(st.verbCounts, rec.VerbCounts)
	return nil
}

func (st *Stats) counters(kind EntityKind) []int64 {
	if kind == KindVerb {
		return st.verbCounts
	}
	return st.nounCounts
}

func typeIndex(kind EntityKind, typ string) int {
	if kind == KindVerb {
		return model.VerbTypeIndex(typ)
	}
	return model.NounTypeIndex(typ)
}

// Increment bumps the counter for a type. Unregistered types are
// silently uncounted.
func (st *Stats) Increment(kind EntityKind, typ string) {
	idx := typeIndex(kind, typ)
	if idx < 0 {
		return
	}

	st.mu.Lock()
	counts := st.counters(kind)
	counts[idx]++
	first := counts[idx] == 1
	st.changes++
	due := first || st.changes%st.persistEvery == 0
	branch := st.branch
	started := st.started
	st.mu.Unlock()

	if due && started {
		st.enqueue(branch)
	}
}

// Decrement lowers the counter for a type, flooring at zero. Delete
// reconciliation is best-effort; Rebuild restores exact counts.
func (st *Stats) Decrement(kind EntityKind, typ string) {
	idx := typeIndex(kind, typ)
	if idx < 0 {
		return
	}

	st.mu.Lock()
	counts := st.counters(kind)
	if counts[idx] > 0 {
		counts[idx]--
	}
	st.changes++
	due := st.changes%st.persistEvery == 0
	branch := st.branch
	started := st.started
	st.mu.Unlock()

	if due && started {
		st.enqueue(branch)
	}
}

// Get returns the approximate count for a type. Advisory only.
func (st *Stats) Get(kind EntityKind, typ string) int64 {
	idx := typeIndex(kind, typ)
	if idx < 0 {
		return 0
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.counters(kind)[idx]
}

// enqueue requests a snapshot without blocking; a full queue coalesces
// into whatever request is already pending.
func (st *Stats) enqueue(branch string) {
	select {
	case st.queue <- branch:
	default:
	}
}

// persist writes the current counters to the branch's snapshot path.
func (st *Stats) persist(ctx context.Context, branch string) error {
	st.mu.Lock()
	rec := statsRecord{
		NounCounts: append([]int64(nil), st.nounCounts...),
		VerbCounts: append([]int64(nil), st.verbCounts...),
	}
	st.mu.Unlock()

	raw, err := st.store.codec.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode statistics snapshot: %w", err)
	}
	return st.store.WriteBranch(ctx, StatsPath, raw, branch)
}

// Rebuild zeroes both arrays, recounts every metadata record by a full
// shard scan, and persists the exact result synchronously.
func (st *Stats) Rebuild(ctx context.Context) error {
	branch := st.store.Branch()

	nounCounts := make([]int64, len(model.NounTypes))
	verbCounts := make([]int64, len(model.VerbTypes))

	for _, kind := range []EntityKind{KindNoun, KindVerb} {
		counts := nounCounts
		if kind == KindVerb {
			counts = verbCounts
		}
		err := st.store.scanMetadata(ctx, kind, branch, func(rec *model.MetadataRecord) error {
			if idx := typeIndex(kind, rec.Type); idx >= 0 {
				counts[idx]++
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("rebuild statistics: %w", err)
		}
	}

	st.mu.Lock()
	st.branch = branch
	st.nounCounts = nounCounts
	st.verbCounts = verbCounts
	st.changes = 0
	st.mu.Unlock()

	return st.persist(ctx, branch)
}

// scanMetadata streams every metadata record of a kind across all shards
// in the branch lineage.
func (s *Store) scanMetadata(ctx context.Context, kind EntityKind, branch string, fn func(*model.MetadataRecord) error) error {
	paths, err := s.ListScoped(ctx, KindPrefix(kind), branch)
	if err != nil {
		return err
	}

	var metaPaths []string
	for _, p := range paths {
		if strings.HasSuffix(p, "/metadata.json") {
			metaPaths = append(metaPaths, p)
		}
	}

	for _, chunk := range chunkPaths(metaPaths, s.profile.MaxBatchSize) {
		values, err := s.ReadBatch(ctx, chunk, branch)
		if err != nil {
			return err
		}
		for _, raw := range values {
			var rec model.MetadataRecord
			if err := s.codec.Unmarshal(raw, &rec); err != nil {
				s.log.Warn("skipping undecodable metadata record", "error", err)
				continue
			}
			if err := fn(&rec); err != nil {
				return err
			}
		}
	}
	return nil
}

// Stats exposes the type statistics tracker.
func (s *Store) Stats() *Stats { return s.stats }
