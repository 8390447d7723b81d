package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/hyphadb/hypha/backend"
	"github.com/hyphadb/hypha/cow"
)

// ReadInherited reads a logical path within a branch scope, inheriting
// from ancestor branches when the branch itself has no local copy.
//
// Resolution order:
//  1. write-through cache by resolved path
//  2. the branch's own scope
//  3. absent, if the branch is main
//  4. ancestor branches, in commit-ancestry order
//  5. main, as the final fallback
//
// Absence is an expected outcome, returned as (nil, false, nil). A
// failure to resolve the branch ref is never propagated: the read falls
// through to main's scope instead, because a torn or missing ref must
// degrade to inherited data, not to an error the caller cannot act on.
func (s *Store) ReadInherited(ctx context.Context, path string, branch string) ([]byte, bool, error) {
	branch = s.branchOr(branch)
	resolved := ResolvePath(path, branch)

	if value, ok := s.cache.get(resolved); ok {
		return value, true, nil
	}

	value, ok, err := s.readDirect(ctx, resolved)
	if err != nil || ok {
		return value, ok, err
	}

	if branch == cow.MainBranch || cow.IsMetaPath(path) {
		return nil, false, nil
	}

	for _, ancestor := range s.ancestorBranches(ctx, branch) {
		value, ok, err = s.readDirect(ctx, ResolvePath(path, ancestor))
		if err != nil || ok {
			return value, ok, err
		}
	}

	return s.readDirect(ctx, ResolvePath(path, cow.MainBranch))
}

// readDirect reads one resolved path, mapping not-found to absence.
func (s *Store) readDirect(ctx context.Context, resolved string) ([]byte, bool, error) {
	if err := s.wait(ctx); err != nil {
		return nil, false, err
	}
	value, err := s.adapter.ReadObject(ctx, resolved)
	if errors.Is(err, backend.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", resolved, err)
	}
	return value, true, nil
}

// ancestorBranches returns the branches to consult between a branch and
// main, best effort: ref or ancestry failures log and yield an empty
// list, leaving the caller with the main fallback.
func (s *Store) ancestorBranches(ctx context.Context, branch string) []string {
	head, ok, err := s.cow.Refs.Resolve(ctx, branch)
	if err != nil || !ok {
		if err != nil {
			s.log.Debug("ref resolution failed, falling back to main",
				"branch", branch, "error", err)
		}
		return nil
	}

	names, err := s.cow.Commits.AncestorBranches(ctx, head)
	if err != nil {
		s.log.Debug("ancestry walk failed, falling back to main",
			"branch", branch, "error", err)
		return nil
	}

	out := names[:0]
	for _, n := range names {
		// The branch's own commits and main are already covered by the
		// direct read and the final fallback.
		if n != branch && n != cow.MainBranch {
			out = append(out, n)
		}
	}
	return out
}
