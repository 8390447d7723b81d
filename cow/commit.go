package cow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hyphadb/hypha/backend"
	"github.com/hyphadb/hypha/codec"
)

// Commit is an immutable snapshot pointer. Content-addressed by the
// SHA-256 of its canonical JSON serialization; once written it is never
// modified.
type Commit struct {
	TreeHash  string `json:"treeHash"`
	Parent    string `json:"parent,omitempty"` // empty for the root commit
	Message   string `json:"message"`
	Author    string `json:"author"`
	Timestamp int64  `json:"timestamp"` // epoch millis
}

// CommitMeta is the mutable-free side-car recorded next to a commit. The
// branch name lives here rather than in the hashed commit body so the
// ancestry walk can recover each ancestor's branch scope with one small
// structured read.
type CommitMeta struct {
	Branch    string `json:"branch"`
	CreatedAt int64  `json:"createdAt"`
}

// Tree maps logical paths to blob hashes; it is itself stored as a blob,
// so identical subtrees deduplicate across commits.
type Tree map[string]string

// Hash returns the commit's content address.
//
// Canonical form is encoding/json with struct-order fields; the struct
// layout is therefore persistence-stable and must not be reordered.
func (c *Commit) Hash() string {
	raw, err := json.Marshal(c)
	if err != nil {
		// Commit contains only scalars; Marshal cannot fail.
		panic(fmt.Errorf("commit hash: %w", err))
	}
	return HashBytes(raw)
}

// CommitStore persists commit objects and their side-cars.
type CommitStore struct {
	adapter backend.Adapter
	codec   codec.Codec
}

// NewCommitStore creates a commit store over the given adapter.
func NewCommitStore(adapter backend.Adapter, c codec.Codec) *CommitStore {
	if c == nil {
		c = codec.Default
	}
	return &CommitStore{adapter: adapter, codec: c}
}

// Put persists a commit and its branch side-car, returning the commit
// hash. Writing the same commit twice is harmless: content addressing
// makes the second write byte-identical.
func (s *CommitStore) Put(ctx context.Context, c *Commit, branch string) (string, error) {
	hash := c.Hash()

	raw, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode commit: %w", err)
	}
	if err := s.adapter.WriteObject(ctx, CommitKey(hash), raw); err != nil {
		return "", fmt.Errorf("write commit %s: %w", hash, err)
	}

	meta := CommitMeta{Branch: branch, CreatedAt: c.Timestamp}
	rawMeta, err := s.codec.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("encode commit meta: %w", err)
	}
	if err := s.adapter.WriteObject(ctx, CommitMetaKey(hash), rawMeta); err != nil {
		return "", fmt.Errorf("write commit meta %s: %w", hash, err)
	}
	return hash, nil
}

// Get returns the commit for hash, or (nil, false, nil) if absent.
func (s *CommitStore) Get(ctx context.Context, hash string) (*Commit, bool, error) {
	raw, err := s.adapter.ReadObject(ctx, CommitKey(hash))
	if errors.Is(err, backend.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read commit %s: %w", hash, err)
	}

	var c Commit
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, false, fmt.Errorf("decode commit %s: %w", hash, err)
	}
	return &c, true, nil
}

// Meta returns the commit's side-car, or (zero, false, nil) if absent.
func (s *CommitStore) Meta(ctx context.Context, hash string) (CommitMeta, bool, error) {
	raw, err := s.adapter.ReadObject(ctx, CommitMetaKey(hash))
	if errors.Is(err, backend.ErrNotFound) {
		return CommitMeta{}, false, nil
	}
	if err != nil {
		return CommitMeta{}, false, fmt.Errorf("read commit meta %s: %w", hash, err)
	}

	var m CommitMeta
	if err := s.codec.Unmarshal(raw, &m); err != nil {
		return CommitMeta{}, false, fmt.Errorf("decode commit meta %s: %w", hash, err)
	}
	return m, true, nil
}
