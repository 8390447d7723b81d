// Package shard provides deterministic bucket addressing for entity IDs.
//
// Every entity path embeds a fixed-cardinality shard bucket derived from
// the ID alone, bounding per-directory fan-out on filesystem backends and
// key-prefix fan-out on object stores. The mapping is pure and stable:
// shard(id) never changes for the lifetime of an ID and is never derived
// from record content.
package shard

import (
	"fmt"
	"hash/fnv"

	"github.com/google/uuid"
)

// Count is the fixed number of shard buckets.
const Count = 256

// ID is a shard bucket identifier in [0, Count).
type ID uint8

// String returns the two-hex-digit bucket label used in storage paths
// ("00" through "ff").
func (s ID) String() string { return fmt.Sprintf("%02x", uint8(s)) }

// Of maps an entity identifier to its shard bucket.
//
// For UUIDs the bucket is the first byte of the canonical 16-byte form,
// so the mapping survives case and formatting differences in the string
// representation. Non-UUID identifiers are legal and hash via FNV-1a.
func Of(id string) ID {
	if u, err := uuid.Parse(id); err == nil {
		return ID(u[0])
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return ID(h.Sum32() & 0xff)
}

// All returns every bucket in ascending order. Pagination and rebuild
// scans iterate this slice so that cursor positions are stable.
func All() []ID {
	ids := make([]ID, Count)
	for i := range ids {
		ids[i] = ID(i)
	}
	return ids
}
