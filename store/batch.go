package store

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hyphadb/hypha/backend"
	"github.com/hyphadb/hypha/cow"
)

// ReadBatch reads many logical paths within one branch scope and returns
// the present entries keyed by logical path.
//
// Strategy, in order of preference:
//   - the write-through cache, for every path, before any I/O
//   - the adapter's native batch primitive, chunked to the declared
//     MaxBatchSize; a failing chunk falls back to parallel reads rather
//     than failing the call
//   - parallel single reads capped at the declared MaxConcurrent
//   - for paths still missing off-main, the single-path inheritance
//     walk — batched for the common case, correct for the edge case
func (s *Store) ReadBatch(ctx context.Context, paths []string, branch string) (map[string][]byte, error) {
	branch = s.branchOr(branch)

	out := make(map[string][]byte, len(paths))
	byResolved := make(map[string]string, len(paths)) // resolved -> logical
	var remaining []string                            // resolved paths needing I/O

	for _, p := range paths {
		resolved := ResolvePath(p, branch)
		if _, dup := byResolved[resolved]; dup {
			continue
		}
		byResolved[resolved] = p
		if value, ok := s.cache.get(resolved); ok {
			out[p] = value
			continue
		}
		remaining = append(remaining, resolved)
	}

	if len(remaining) > 0 {
		found, err := s.readMany(ctx, remaining)
		if err != nil {
			return nil, err
		}
		for resolved, value := range found {
			out[byResolved[resolved]] = value
		}
	}

	// Inheritance pass for the stragglers, only off-main.
	if branch != cow.MainBranch {
		for _, logical := range byResolved {
			if _, ok := out[logical]; ok {
				continue
			}
			value, ok, err := s.ReadInherited(ctx, logical, branch)
			if err != nil {
				return nil, err
			}
			if ok {
				out[logical] = value
			}
		}
	}

	return out, nil
}

// readMany fetches resolved paths from the backend, preferring the
// native batch primitive and falling back to capped parallel reads.
func (s *Store) readMany(ctx context.Context, resolved []string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(resolved))

	if br, ok := s.adapter.(backend.BatchReader); ok {
		var fallback []string
		for i, chunk := range chunkPaths(resolved, s.profile.MaxBatchSize) {
			if i > 0 && s.profile.BatchDelay > 0 {
				select {
				case <-time.After(s.profile.BatchDelay):
				case <-ctx.Done():
					return nil, ctx.Err()
				}
			}
			if err := s.wait(ctx); err != nil {
				return nil, err
			}
			found, err := br.ReadObjects(ctx, chunk)
			if err != nil {
				// Native path is an optimization; a failing chunk
				// degrades to single reads.
				s.log.Debug("native batch read failed, using parallel reads",
					"size", len(chunk), "error", err)
				fallback = append(fallback, chunk...)
				continue
			}
			for p, v := range found {
				out[p] = v
			}
		}
		resolved = fallback
	}

	if len(resolved) == 0 {
		return out, nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.profile.MaxConcurrent)

	for _, p := range resolved {
		p := p
		g.Go(func() error {
			value, ok, err := s.readDirect(gctx, p)
			if err != nil {
				return err
			}
			if ok {
				mu.Lock()
				out[p] = value
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// WriteBatch writes many logical path/value pairs within one branch
// scope. Cache entries for every path are inserted before any durable
// write begins, preserving read-after-write for the whole batch. The
// adapter's native multi-put is preferred; otherwise writes fan out in
// parallel when the profile allows it, serially when it does not.
func (s *Store) WriteBatch(ctx context.Context, values map[string][]byte, branch string) error {
	branch = s.branchOr(branch)

	resolved := make(map[string][]byte, len(values))
	for p, v := range values {
		r := ResolvePath(p, branch)
		s.cache.put(r, v)
		resolved[r] = v
	}

	if bw, ok := s.adapter.(backend.BatchWriter); ok {
		paths := make([]string, 0, len(resolved))
		for p := range resolved {
			paths = append(paths, p)
		}
		var nativeErr error
		for i, chunk := range chunkPaths(paths, s.profile.MaxBatchSize) {
			if i > 0 && s.profile.BatchDelay > 0 {
				select {
				case <-time.After(s.profile.BatchDelay):
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			if err := s.wait(ctx); err != nil {
				return err
			}
			batch := make(map[string][]byte, len(chunk))
			for _, p := range chunk {
				batch[p] = resolved[p]
			}
			if err := bw.WriteObjects(ctx, batch); err != nil {
				nativeErr = err
				break
			}
		}
		if nativeErr == nil {
			return nil
		}
		s.log.Debug("native batch write failed, using single writes", "error", nativeErr)
	}

	concurrency := s.profile.MaxConcurrent
	if !s.profile.SupportsParallelWrites {
		concurrency = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for p, v := range resolved {
		p, v := p, v
		g.Go(func() error {
			if err := s.wait(gctx); err != nil {
				return err
			}
			return s.adapter.WriteObject(gctx, p, v)
		})
	}
	return g.Wait()
}

// ListScoped lists logical paths under a logical prefix across the
// branch lineage: the branch's own scope, each ancestor branch, then
// main, first scope wins per path. On main this is a single backend
// list.
func (s *Store) ListScoped(ctx context.Context, prefix string, branch string) ([]string, error) {
	branch = s.branchOr(branch)

	scopes := []string{branch}
	if branch != cow.MainBranch {
		scopes = append(scopes, s.ancestorBranches(ctx, branch)...)
		scopes = append(scopes, cow.MainBranch)
	}

	seen := make(map[string]struct{})
	var logical []string
	for _, scope := range scopes {
		scopedPrefix := ResolvePath(prefix, scope)
		if err := s.wait(ctx); err != nil {
			return nil, err
		}
		paths, err := s.adapter.ListPaths(ctx, scopedPrefix)
		if err != nil {
			return nil, err
		}
		scopeRoot := ResolvePath("", scope)
		for _, p := range paths {
			lp := p[len(scopeRoot):]
			if _, dup := seen[lp]; dup {
				continue
			}
			seen[lp] = struct{}{}
			logical = append(logical, lp)
		}
	}
	return logical, nil
}

// ListBranchOwn lists the logical paths the branch scope itself holds,
// without consulting ancestors or main. This is the commit snapshot
// surface: only data written on the branch belongs in its tree.
func (s *Store) ListBranchOwn(ctx context.Context, branch string) ([]string, error) {
	branch = s.branchOr(branch)
	scopeRoot := ResolvePath("", branch)

	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	paths, err := s.adapter.ListPaths(ctx, scopeRoot)
	if err != nil {
		return nil, err
	}

	logical := make([]string, 0, len(paths))
	for _, p := range paths {
		logical = append(logical, p[len(scopeRoot):])
	}
	return logical, nil
}

// chunkPaths splits paths into slices of at most size entries.
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
