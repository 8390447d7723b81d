// Package model defines the core record types of the store.
//
// # Entities
//
//   - Noun: typed entity carrying an embedding, opaque graph connections
//     and descriptive metadata
//   - Verb: directed, typed relationship between two nouns with the same
//     metadata surface
//
// Every entity persists as two records sharing one ID and shard: a vector
// record (embedding plus relational fields) and a metadata record. The
// split lets graph maintenance and filtered listing each load only the
// half they need.
//
// # Metadata
//
// Free-form metadata is modeled as the tagged union Value rather than
// map[string]any, preserving exact round-trip fidelity through the codec.
package model
