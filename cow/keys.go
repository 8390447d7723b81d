package cow

import "strings"

// Version-control metadata lives in a flat, globally scoped namespace.
// The key's category prefix — not the value's shape — decides how a value
// is decoded: refs and commit records are structured JSON, blob payloads
// are raw (possibly compressed) bytes. Nothing ever sniffs content.
const (
	// Namespace is the global key prefix for all version-control
	// metadata. The path resolver never branch-scopes keys under it.
	Namespace = "_cow/"

	refPrefix        = Namespace + "ref:"
	blobPrefix       = Namespace + "blob:"
	blobMetaPrefix   = Namespace + "blob-meta:"
	commitPrefix     = Namespace + "commit:"
	commitMetaPrefix = Namespace + "commit-meta:"
)

// IsMetaPath reports whether path belongs to the version-control
// namespace. These keys are the shared substrate all branches are defined
// in terms of; scoping them per branch would make forks unresolvable.
func IsMetaPath(path string) bool {
	return strings.HasPrefix(path, Namespace)
}

// RefKey returns the storage key for a named ref.
func RefKey(name string) string { return refPrefix + name }

// BlobKey returns the storage key for a blob payload.
func BlobKey(hash string) string { return blobPrefix + hash }

// BlobMetaKey returns the storage key for a blob's side-car record.
func BlobMetaKey(hash string) string { return blobMetaPrefix + hash }

// CommitKey returns the storage key for a commit object.
func CommitKey(hash string) string { return commitPrefix + hash }

// CommitMetaKey returns the storage key for a commit's side-car record.
func CommitMetaKey(hash string) string { return commitMetaPrefix + hash }
