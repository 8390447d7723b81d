package cow

import (
	"context"
	"errors"
	"fmt"

	"github.com/hyphadb/hypha/backend"
	"github.com/hyphadb/hypha/codec"
)

// MainBranch is the root branch. It always exists after initialization
// and every other branch's ancestry chain ends at it.
const MainBranch = "main"

// headRef is the well-known ref naming the currently checked out branch.
const headRef = "HEAD"

// Ref is a named mutable pointer to a commit.
type Ref struct {
	Name      string            `json:"name"`
	Commit    string            `json:"commit"`
	CreatedAt int64             `json:"createdAt"`
	Meta      map[string]string `json:"meta,omitempty"`
}

// headRecord is the persisted shape of the HEAD pointer. It names a
// branch, not a commit.
type headRecord struct {
	Branch string `json:"branch"`
}

// RefManager maintains branch refs and the HEAD pointer.
type RefManager struct {
	adapter backend.Adapter
	codec   codec.Codec
}

// NewRefManager creates a ref manager over the given adapter.
func NewRefManager(adapter backend.Adapter, c codec.Codec) *RefManager {
	if c == nil {
		c = codec.Default
	}
	return &RefManager{adapter: adapter, codec: c}
}

// Get returns the ref for name, or (zero, false, nil) if absent.
// A missing ref is an expected outcome, never an error.
func (r *RefManager) Get(ctx context.Context, name string) (Ref, bool, error) {
	raw, err := r.adapter.ReadObject(ctx, RefKey(name))
	if errors.Is(err, backend.ErrNotFound) {
		return Ref{}, false, nil
	}
	if err != nil {
		return Ref{}, false, fmt.Errorf("read ref %s: %w", name, err)
	}

	var ref Ref
	if err := r.codec.Unmarshal(raw, &ref); err != nil {
		return Ref{}, false, fmt.Errorf("decode ref %s: %w", name, err)
	}
	return ref, true, nil
}

// Resolve returns the commit hash a branch points at, or ("", false, nil)
// if the ref does not exist.
func (r *RefManager) Resolve(ctx context.Context, name string) (string, bool, error) {
	ref, ok, err := r.Get(ctx, name)
	if err != nil || !ok {
		return "", false, err
	}
	return ref.Commit, true, nil
}

// Set points an existing or new ref at a commit.
func (r *RefManager) Set(ctx context.Context, ref Ref) error {
	raw, err := r.codec.Marshal(ref)
	if err != nil {
		return fmt.Errorf("encode ref %s: %w", ref.Name, err)
	}
	if err := r.adapter.WriteObject(ctx, RefKey(ref.Name), raw); err != nil {
		return fmt.Errorf("write ref %s: %w", ref.Name, err)
	}
	return nil
}

// CreateBranch creates a named branch pointing at fromCommit. Creating a
// branch that already exists fails; branches are never implicitly moved.
func (r *RefManager) CreateBranch(ctx context.Context, name, fromCommit string, meta map[string]string, createdAt int64) error {
	if name == headRef {
		return fmt.Errorf("branch name %q is reserved", headRef)
	}
	if _, ok, err := r.Get(ctx, name); err != nil {
		return err
	} else if ok {
		return fmt.Errorf("branch %s already exists", name)
	}
	return r.Set(ctx, Ref{Name: name, Commit: fromCommit, CreatedAt: createdAt, Meta: meta})
}

// SetHead records name as the currently checked out branch.
func (r *RefManager) SetHead(ctx context.Context, name string) error {
	raw, err := r.codec.Marshal(headRecord{Branch: name})
	if err != nil {
		return fmt.Errorf("encode HEAD: %w", err)
	}
	if err := r.adapter.WriteObject(ctx, RefKey(headRef), raw); err != nil {
		return fmt.Errorf("write HEAD: %w", err)
	}
	return nil
}

// Head returns the currently checked out branch, defaulting to main when
// no HEAD has been recorded.
func (r *RefManager) Head(ctx context.Context) (string, error) {
	raw, err := r.adapter.ReadObject(ctx, RefKey(headRef))
	if errors.Is(err, backend.ErrNotFound) {
		return MainBranch, nil
	}
	if err != nil {
		return "", fmt.Errorf("read HEAD: %w", err)
	}

	var h headRecord
	if err := r.codec.Unmarshal(raw, &h); err != nil {
		return "", fmt.Errorf("decode HEAD: %w", err)
	}
	if h.Branch == "" {
		return MainBranch, nil
	}
	return h.Branch, nil
}

// List returns the names of all branches (HEAD excluded), sorted.
func (r *RefManager) List(ctx context.Context) ([]string, error) {
	paths, err := r.adapter.ListPaths(ctx, refPrefix)
	if err != nil {
		return nil, fmt.Errorf("list refs: %w", err)
	}

	names := make([]string, 0, len(paths))
	for _, p := range paths {
		name := p[len(refPrefix):]
		if name != headRef {
			names = append(names, name)
		}
	}
	return names, nil
}
