package cow

import (
	"context"
	"fmt"
)

// maxWalkDepth bounds the ancestry walk. A chain longer than this almost
// certainly means a corrupted parent pointer cycle that the seen-set
// missed across distinct-but-looping hashes.
const maxWalkDepth = 1 << 20

// Walker lazily iterates a commit's ancestry, start first, root last.
// Each step performs at most two reads (commit + side-car).
type Walker struct {
	store   *CommitStore
	next    string
	seen    map[string]struct{}
	visited int
}

// Walk returns a walker positioned at startHash. An empty start hash
// yields an exhausted walker rather than an error.
func (s *CommitStore) Walk(startHash string) *Walker {
	return &Walker{
		store: s,
		next:  startHash,
		seen:  make(map[string]struct{}),
	}
}

// Next returns the next commit in parent order. After the root commit it
// returns (_, "", false, nil). The second return is the commit's hash.
func (w *Walker) Next(ctx context.Context) (*Commit, string, bool, error) {
	if w.next == "" {
		return nil, "", false, nil
	}
	if _, dup := w.seen[w.next]; dup {
		return nil, "", false, fmt.Errorf("commit ancestry cycle at %s", w.next)
	}
	if w.visited >= maxWalkDepth {
		return nil, "", false, fmt.Errorf("commit ancestry exceeds %d entries", maxWalkDepth)
	}

	hash := w.next
	c, ok, err := w.store.Get(ctx, hash)
	if err != nil {
		return nil, "", false, err
	}
	if !ok {
		// A dangling parent pointer ends the walk; history before it is
		// unreachable, not an error for the reader.
		return nil, "", false, nil
	}

	w.seen[hash] = struct{}{}
	w.visited++
	w.next = c.Parent
	return c, hash, true, nil
}

// AncestorBranches walks the ancestry from startHash and returns the
// distinct branch names recorded on the commits, in first-seen order.
// Commits without a side-car are skipped.
func (s *CommitStore) AncestorBranches(ctx context.Context, startHash string) ([]string, error) {
	var order []string
	seen := make(map[string]struct{})

	w := s.Walk(startHash)
	for {
		_, hash, ok, err := w.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return order, nil
		}
		meta, found, err := s.Meta(ctx, hash)
		if err != nil {
			return nil, err
		}
		if !found || meta.Branch == "" {
			continue
		}
		if _, dup := seen[meta.Branch]; dup {
			continue
		}
		seen[meta.Branch] = struct{}{}
		order = append(order, meta.Branch)
	}
}
