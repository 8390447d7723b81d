// Package hypha is an embeddable hybrid vector/graph database. Entities
// are nouns (things with embeddings) and verbs (typed relationships
// between nouns, also with embeddings), persisted through a pluggable
// storage backend with git-like branch version control layered on top.
package hypha

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/hyphadb/hypha/backend"
	"github.com/hyphadb/hypha/cow"
	"github.com/hyphadb/hypha/graph"
	"github.com/hyphadb/hypha/model"
	"github.com/hyphadb/hypha/store"
)

// DB is the top-level handle: the persistence core plus the adjacency
// index maintained over it. Safe for concurrent use.
type DB struct {
	store *store.Store
	graph *graph.Index
	log   *Logger

	closed atomic.Bool
}

// Open creates a DB over the given storage adapter and initializes it:
// the main branch exists afterwards (a root commit is synthesized on
// first use) and the statistics snapshot for the checked-out branch is
// loaded.
func Open(ctx context.Context, adapter backend.Adapter, optFns ...Option) (*DB, error) {
	opts := options{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.logger == nil {
		opts.logger = NewLogger(nil)
	}

	s := store.New(adapter, store.Options{
		Codec:             opts.codec,
		Compressor:        opts.compressor,
		Logger:            opts.logger.Logger,
		Branch:            opts.branch,
		StatsPersistEvery: opts.statsPersistEvery,
	})
	if err := s.Init(ctx); err != nil {
		return nil, err
	}

	db := &DB{
		store: s,
		graph: graph.New(s, opts.logger.Logger),
		log:   opts.logger,
	}
	db.log.Debug("database opened", "branch", s.Branch())
	return db, nil
}

// Close flushes pending statistics and marks the DB closed. Further
// operations return ErrClosed.
func (db *DB) Close(ctx context.Context) error {
	if !db.closed.CompareAndSwap(false, true) {
		return nil
	}
	return db.store.Close(ctx)
}

func (db *DB) check() error {
	if db.closed.Load() {
		return ErrClosed
	}
	return nil
}

// Store exposes the underlying persistence core for advanced use
// (batched raw reads and writes, scoped listings, cache control).
func (db *DB) Store() *store.Store { return db.store }

// Graph exposes the adjacency index.
func (db *DB) Graph() *graph.Index { return db.graph }

// SaveNoun persists a noun on the current branch. An empty ID is
// assigned a fresh one; timestamps are stamped in place.
func (db *DB) SaveNoun(ctx context.Context, n *model.Noun) error {
	if err := db.check(); err != nil {
		return err
	}
	return db.store.SaveNoun(ctx, n)
}

// GetNoun loads a noun by ID, or (nil, false, nil) when absent from the
// branch view and its whole lineage.
func (db *DB) GetNoun(ctx context.Context, id string) (*model.Noun, bool, error) {
	if err := db.check(); err != nil {
		return nil, false, err
	}
	return db.store.GetNoun(ctx, id)
}

// DeleteNoun removes a noun from the current branch. Deleting an absent
// noun is not an error.
func (db *DB) DeleteNoun(ctx context.Context, id string) error {
	if err := db.check(); err != nil {
		return err
	}
	return db.store.DeleteNoun(ctx, id)
}

// SaveVerb persists a verb on the current branch and records it in the
// adjacency index. Source and target are required.
func (db *DB) SaveVerb(ctx context.Context, v *model.Verb) error {
	if err := db.check(); err != nil {
		return err
	}
	if err := db.store.SaveVerb(ctx, v); err != nil {
		return err
	}
	db.graph.AddVerb(v)
	return nil
}

// GetVerb loads a verb by ID, or (nil, false, nil) when absent.
func (db *DB) GetVerb(ctx context.Context, id string) (*model.Verb, bool, error) {
	if err := db.check(); err != nil {
		return nil, false, err
	}
	return db.store.GetVerb(ctx, id)
}

// DeleteVerb removes a verb from the current branch and prunes it from
// the adjacency index. The endpoints are read before the delete so the
// index entry can be located; when the verb is already absent both steps
// are no-ops.
func (db *DB) DeleteVerb(ctx context.Context, id string) error {
	if err := db.check(); err != nil {
		return err
	}

	v, ok, err := db.store.GetVerb(ctx, id)
	if err != nil {
		return err
	}
	if err := db.store.DeleteVerb(ctx, id); err != nil {
		return err
	}
	if ok {
		db.graph.RemoveVerb(id, v.SourceID, v.TargetID)
	}
	return nil
}

// VerbIDsBySource returns the IDs of verbs originating at the entity,
// sorted. A cold index rebuilds itself first, so the answer is never a
// false negative.
func (db *DB) VerbIDsBySource(ctx context.Context, id string) ([]string, error) {
	if err := db.check(); err != nil {
		return nil, err
	}
	return db.graph.IDsBySource(ctx, id)
}

// VerbIDsByTarget returns the IDs of verbs pointing at the entity,
// sorted.
func (db *DB) VerbIDsByTarget(ctx context.Context, id string) ([]string, error) {
	if err := db.check(); err != nil {
		return nil, err
	}
	return db.graph.IDsByTarget(ctx, id)
}

// List returns one page of metadata records matching the filter. Chain
// Page.NextCursor while Page.HasMore holds.
func (db *DB) List(ctx context.Context, f store.Filter, limit int, cursor string) (store.Page, error) {
	if err := db.check(); err != nil {
		return store.Page{}, err
	}
	return db.store.List(ctx, f, limit, cursor)
}

// NounsByType returns one page of full nouns of the given type.
func (db *DB) NounsByType(ctx context.Context, typ string, limit int, cursor string) ([]*model.Noun, store.Page, error) {
	if err := db.check(); err != nil {
		return nil, store.Page{}, err
	}
	return db.store.GetNounsByType(ctx, typ, limit, cursor)
}

// VerbsByType returns one page of full verbs of the given type.
func (db *DB) VerbsByType(ctx context.Context, typ string, limit int, cursor string) ([]*model.Verb, store.Page, error) {
	if err := db.check(); err != nil {
		return nil, store.Page{}, err
	}
	return db.store.GetVerbsByType(ctx, typ, limit, cursor)
}

// Branch returns the currently checked out branch.
func (db *DB) Branch() string { return db.store.Branch() }

// CreateBranch forks a new branch from the head of `from` (main when
// empty). The new branch carries no data of its own; reads inherit from
// its lineage until it diverges.
func (db *DB) CreateBranch(ctx context.Context, name, from string, meta map[string]string) error {
	if err := db.check(); err != nil {
		return err
	}

	if _, ok, err := db.store.COW().Refs.Get(ctx, name); err != nil {
		return err
	} else if ok {
		return &ErrBranchExists{Branch: name}
	}

	if err := db.store.COW().Fork(ctx, name, from, meta); err != nil {
		return &ErrUnknownBranch{Branch: from, cause: err}
	}
	db.log.Debug("branch created", "name", name, "from", from)
	return nil
}

// Checkout switches the current branch. The adjacency index is scoped to
// one branch view, so it resets and lazily rebuilds against the new one;
// statistics reload from the branch's snapshot.
func (db *DB) Checkout(ctx context.Context, branch string) error {
	if err := db.check(); err != nil {
		return err
	}

	if _, ok, err := db.store.COW().Refs.Resolve(ctx, branch); err != nil {
		return err
	} else if !ok {
		return &ErrUnknownBranch{Branch: branch}
	}

	if err := db.store.Checkout(ctx, branch); err != nil {
		return err
	}
	db.graph.Reset()
	return nil
}

// Commit snapshots the current branch's own scoped data as a
// content-addressed tree and records an explicit commit advancing the
// branch ref. Returns the commit hash.
//
// Only data written on this branch enters the tree; inherited ancestor
// data is reachable through the parent chain and is not duplicated.
func (db *DB) Commit(ctx context.Context, message, author string) (string, error) {
	if err := db.check(); err != nil {
		return "", err
	}

	branch := db.store.Branch()
	tree, err := db.snapshotTree(ctx, branch)
	if err != nil {
		return "", fmt.Errorf("commit on %s: %w", branch, err)
	}

	hash, err := db.store.COW().CommitTree(ctx, branch, tree, message, author)
	if err != nil {
		return "", err
	}
	db.log.Debug("commit recorded", "branch", branch, "hash", hash, "paths", len(tree))
	return hash, nil
}

// snapshotTree maps every logical path scoped to the branch itself to
// the hash of its content, storing each value as a blob. Unchanged
// values deduplicate by content address.
func (db *DB) snapshotTree(ctx context.Context, branch string) (cow.Tree, error) {
	paths, err := db.store.ListBranchOwn(ctx, branch)
	if err != nil {
		return nil, err
	}

	tree := make(cow.Tree, len(paths))
	for _, chunk := range chunkPaths(paths, db.store.Profile().MaxBatchSize) {
		values, err := db.store.ReadBatch(ctx, chunk, branch)
		if err != nil {
			return nil, err
		}
		for _, p := range chunk {
			raw, ok := values[p]
			if !ok {
				continue
			}
			hash, err := db.store.COW().Blobs.Put(ctx, raw)
			if err != nil {
				return nil, err
			}
			tree[p] = hash
		}
	}
	return tree, nil
}

func chunkPaths(paths []string, size int) [][]string {
	if size <= 0 {
		size = len(paths)
	}
	var chunks [][]string
	for len(paths) > size {
		chunks = append(chunks, paths[:size])
		paths = paths[size:]
	}
	if len(paths) > 0 {
		chunks = append(chunks, paths)
	}
	return chunks
}

// Flush clears the write-through cache; subsequent reads observe only
// durable backend state.
func (db *DB) Flush() { db.store.Flush() }

// RebuildStats recounts every entity by a full scan and persists the
// exact statistics synchronously.
func (db *DB) RebuildStats(ctx context.Context) error {
	if err := db.check(); err != nil {
		return err
	}
	return db.store.Stats().Rebuild(ctx)
}

// RebuildGraph rescans every persisted verb and repopulates the
// adjacency index exactly.
func (db *DB) RebuildGraph(ctx context.Context) error {
	if err := db.check(); err != nil {
		return err
	}
	return db.graph.Rebuild(ctx)
}
