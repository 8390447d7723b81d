package store

import "github.com/hyphadb/hypha/cow"

// branchRoot is the physical namespace all branch-scoped data lives
// under. Every branch, main included, mirrors the logical `entities/...`
// and `_system/...` namespaces beneath its own prefix.
const branchRoot = "branches/"

// ResolvePath rewrites a logical path into its branch-specific physical
// path. Pure string transformation, no failure modes.
//
// The one carve-out: version-control metadata (`_cow/...`) is returned
// unchanged. Refs, commits and blobs are the shared substrate that
// branches are defined in terms of; scoping them per branch would make
// forking impossible to resolve.
func ResolvePath(logical, branch string) string {
	if cow.IsMetaPath(logical) {
		return logical
	}
	if branch == "" {
		branch = cow.MainBranch
	}
	return branchRoot + branch + "/" + logical
}
