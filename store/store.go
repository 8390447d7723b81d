// Package store is the persistence core: branch-scoped, sharded entity
// storage with read-after-write caching, ancestor-inheriting reads,
// batched rate-limited I/O and bounded pagination, all built on the
// four-primitive backend adapter.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/time/rate"

	"github.com/hyphadb/hypha/backend"
	"github.com/hyphadb/hypha/codec"
	"github.com/hyphadb/hypha/cow"
)

// Store owns the process-local mutable state of one dataset: the
// write-through cache, type statistics and per-key lock table. Multiple
// independent Stores may coexist in one process (tests, multi-dataset
// embedding); nothing here is package-global.
type Store struct {
	adapter backend.Adapter
	codec   codec.Codec
	cow     *cow.Store
	log     *slog.Logger

	profile backend.BatchProfile
	limiter *rate.Limiter // nil when the profile declares no rate limit

	cache *writeCache
	locks *KeyLock
	stats *Stats

	branchMu sync.RWMutex
	branch   string

	initOnce sync.Once
	initErr  error
}

// Options configures a Store.
type Options struct {
	// Codec encodes persisted records. Defaults to codec.Default.
	Codec codec.Codec
	// Compressor is used by the COW blob store. Defaults to zstd.
	Compressor cow.Compressor
	// Logger receives diagnostics. Defaults to slog.Default().
	Logger *slog.Logger
	// Branch overrides the checked-out branch recorded in HEAD.
	Branch string
	// StatsPersistEvery bounds statistics write amplification: a
	// snapshot is queued every N counter changes. Defaults to 64.
	StatsPersistEvery int
}

// New creates a Store over the adapter. Call Init before first use.
func New(adapter backend.Adapter, opts Options) *Store {
	if opts.Codec == nil {
		opts.Codec = codec.Default
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	profile := adapter.Profile().Normalized()

	var limiter *rate.Limiter
	if rl := profile.RateLimit; rl.OperationsPerSecond > 0 {
		burst := rl.BurstCapacity
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(rl.OperationsPerSecond), burst)
	}

	s := &Store{
		adapter: adapter,
		codec:   opts.Codec,
		cow:     cow.New(adapter, opts.Codec, opts.Compressor),
		log:     opts.Logger,
		profile: profile,
		limiter: limiter,
		cache:   newWriteCache(),
		locks:   NewKeyLock(),
		branch:  opts.Branch,
	}
	s.stats = newStats(s, opts.StatsPersistEvery)
	return s
}

// Init prepares the store: it ensures the COW layer has a main branch
// (synthesizing the root commit on first use), resolves the checked-out
// branch, and loads the statistics snapshot. Idempotent; a failed Init
// may be retried by calling Init again on a fresh Store.
func (s *Store) Init(ctx context.Context) error {
	s.initOnce.Do(func() {
		s.initErr = s.init(ctx)
	})
	return s.initErr
}

func (s *Store) init(ctx context.Context) error {
	if err := s.cow.EnsureInitialized(ctx); err != nil {
		return fmt.Errorf("store init: %w", err)
	}

	s.branchMu.Lock()
	if s.branch == "" {
		head, err := s.cow.Refs.Head(ctx)
		if err != nil {
			s.branchMu.Unlock()
			return fmt.Errorf("store init: resolve HEAD: %w", err)
		}
		s.branch = head
	}
	branch := s.branch
	s.branchMu.Unlock()

	if err := s.stats.load(ctx, branch); err != nil {
		// Stats are advisory; a missing or unreadable snapshot starts
		// the counters at zero and never blocks initialization.
		s.log.Warn("statistics snapshot unavailable, counters reset",
			"branch", branch, "error", err)
	}
	s.stats.start()

	s.log.Debug("store initialized", "branch", branch)
	return nil
}

// Close drains the statistics queue and persists a final snapshot.
func (s *Store) Close(ctx context.Context) error {
	return s.stats.stop(ctx)
}

// COW exposes the version-control layer (blobs, refs, commits).
func (s *Store) COW() *cow.Store { return s.cow }

// Codec returns the store's record codec.
func (s *Store) Codec() codec.Codec { return s.codec }

// Profile returns the adapter's normalized batching profile.
func (s *Store) Profile() backend.BatchProfile { return s.profile }

// Branch returns the currently checked out branch.
func (s *Store) Branch() string {
	s.branchMu.RLock()
	defer s.branchMu.RUnlock()
	return s.branch
}

// Checkout switches the current branch. The target ref must exist. The
// write-through cache survives the switch: its keys are fully resolved,
// so entries from other branches stay correct and inert.
func (s *Store) Checkout(ctx context.Context, branch string) error {
	if _, ok, err := s.cow.Refs.Resolve(ctx, branch); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("checkout: unknown branch %s", branch)
	}
	if err := s.cow.Refs.SetHead(ctx, branch); err != nil {
		return err
	}

	s.branchMu.Lock()
	s.branch = branch
	s.branchMu.Unlock()

	if err := s.stats.load(ctx, branch); err != nil {
		s.log.Warn("statistics snapshot unavailable after checkout",
			"branch", branch, "error", err)
	}
	return nil
}

// branchOr returns branch, defaulting to the current branch.
func (s *Store) branchOr(branch string) string {
	if branch != "" {
		return branch
	}
	return s.Branch()
}

// wait paces one backend operation against the adapter's declared rate.
func (s *Store) wait(ctx context.Context) error {
	if s.limiter == nil {
		return nil
	}
	return s.limiter.Wait(ctx)
}

// WriteBranch writes value at the logical path within the branch scope
// (current branch when branch is empty).
//
// Ordering is load-bearing: the cache entry is inserted before the
// durable write begins, so a concurrent read of the same path returns
// the new value even while the backend write is in flight. On backend
// failure the error propagates (callers must not assume the write
// landed) but the cache entry stays, preserving read-your-write until
// an explicit Flush.
func (s *Store) WriteBranch(ctx context.Context, path string, value []byte, branch string) error {
	resolved := ResolvePath(path, s.branchOr(branch))
	s.cache.put(resolved, value)

	if err := s.wait(ctx); err != nil {
		return err
	}
	if err := s.adapter.WriteObject(ctx, resolved, value); err != nil {
		return fmt.Errorf("write %s: %w", resolved, err)
	}
	return nil
}

// DeleteBranch removes the logical path from the branch scope. Deleting
// an absent object is not an error.
func (s *Store) DeleteBranch(ctx context.Context, path string, branch string) error {
	resolved := ResolvePath(path, s.branchOr(branch))
	s.cache.remove(resolved)

	if err := s.wait(ctx); err != nil {
		return err
	}
	if err := s.adapter.DeleteObject(ctx, resolved); err != nil && !errors.Is(err, backend.ErrNotFound) {
		return fmt.Errorf("delete %s: %w", resolved, err)
	}
	return nil
}

// Flush clears the write-through cache. Reads then observe only durable
// state.
func (s *Store) Flush() {
	s.cache.flush()
}

// CacheLen reports the number of cached entries (test and metrics hook).
func (s *Store) CacheLen() int { return s.cache.len() }
