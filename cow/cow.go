// Package cow implements the copy-on-write version-control layer:
// content-addressed blobs, named refs, and an immutable commit chain,
// modeled after distributed version control.
//
// The layer is orthogonal infrastructure for the store: branch reads
// consult it only when a path misses locally and must inherit from an
// ancestor branch. All of its state lives in the globally scoped
// `_cow/` key namespace (see keys.go); it is the shared substrate that
// branch scoping itself is defined in terms of.
package cow

import (
	"context"
	"fmt"
	"time"

	"github.com/hyphadb/hypha/backend"
	"github.com/hyphadb/hypha/codec"
)

// Store ties the blob store, ref manager and commit log together.
type Store struct {
	Blobs   *BlobStore
	Refs    *RefManager
	Commits *CommitStore

	codec codec.Codec
}

// New creates the COW layer over an adapter. Nil codec/compressor select
// the defaults.
func New(adapter backend.Adapter, c codec.Codec, comp Compressor) *Store {
	if c == nil {
		c = codec.Default
	}
	return &Store{
		Blobs:   NewBlobStore(adapter, c, comp),
		Refs:    NewRefManager(adapter, c),
		Commits: NewCommitStore(adapter, c),
		codec:   c,
	}
}

// EnsureInitialized makes sure main exists, synthesizing an empty root
// commit on first use. This is the only implicit commit creation in the
// system; every later commit is explicit. Idempotent and safe to re-run
// after a failed initialization.
func (s *Store) EnsureInitialized(ctx context.Context) error {
	if _, ok, err := s.Refs.Get(ctx, MainBranch); err != nil {
		return fmt.Errorf("ensure initialized: %w", err)
	} else if ok {
		return nil
	}

	now := time.Now().UnixMilli()

	emptyTree, err := s.codec.Marshal(Tree{})
	if err != nil {
		return fmt.Errorf("encode empty tree: %w", err)
	}
	treeHash, err := s.Blobs.Put(ctx, emptyTree)
	if err != nil {
		return fmt.Errorf("write empty tree: %w", err)
	}

	root := &Commit{
		TreeHash:  treeHash,
		Message:   "initialize",
		Author:    "system",
		Timestamp: now,
	}
	hash, err := s.Commits.Put(ctx, root, MainBranch)
	if err != nil {
		return fmt.Errorf("write root commit: %w", err)
	}

	if err := s.Refs.Set(ctx, Ref{Name: MainBranch, Commit: hash, CreatedAt: now}); err != nil {
		return err
	}
	return s.Refs.SetHead(ctx, MainBranch)
}

// CommitTree records an explicit commit on branch: the tree is stored as
// a content-addressed blob (unchanged trees deduplicate to a single
// object) and the branch ref advances to the new commit.
func (s *Store) CommitTree(ctx context.Context, branch string, tree Tree, message, author string) (string, error) {
	raw, err := s.codec.Marshal(tree)
	if err != nil {
		return "", fmt.Errorf("encode tree: %w", err)
	}
	treeHash, err := s.Blobs.Put(ctx, raw)
	if err != nil {
		return "", fmt.Errorf("write tree: %w", err)
	}

	parent, ok, err := s.Refs.Resolve(ctx, branch)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("commit on unknown branch %s", branch)
	}

	now := time.Now().UnixMilli()
	c := &Commit{
		TreeHash:  treeHash,
		Parent:    parent,
		Message:   message,
		Author:    author,
		Timestamp: now,
	}
	hash, err := s.Commits.Put(ctx, c, branch)
	if err != nil {
		return "", err
	}

	ref, _, err := s.Refs.Get(ctx, branch)
	if err != nil {
		return "", err
	}
	ref.Commit = hash
	if err := s.Refs.Set(ctx, ref); err != nil {
		return "", err
	}
	return hash, nil
}

// Fork creates a branch pointing at the current head of `from`
// (defaulting to main). The new branch starts with no scoped data of its
// own; reads inherit through the ancestry walk until it diverges.
func (s *Store) Fork(ctx context.Context, name, from string, meta map[string]string) error {
	if from == "" {
		from = MainBranch
	}
	head, ok, err := s.Refs.Resolve(ctx, from)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("fork from unknown branch %s", from)
	}
	return s.Refs.CreateBranch(ctx, name, head, meta, time.Now().UnixMilli())
}
