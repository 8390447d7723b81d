package store

import "github.com/hyphadb/hypha/shard"

// EntityKind selects between the two entity namespaces.
type EntityKind string

const (
	// KindNoun addresses entity records.
	KindNoun EntityKind = "nouns"
	// KindVerb addresses relationship records.
	KindVerb EntityKind = "verbs"
)

// StatsPath is the logical path of the type-statistics snapshot.
const StatsPath = "_system/type-statistics.json"

// Entity paths are ID-first: the shard and ID fully determine the
// location, so no type lookup is ever needed to address a record.

// VectorPath returns the logical path of an entity's vector record.
func VectorPath(kind EntityKind, id string) string {
	return "entities/" + string(kind) + "/" + shard.Of(id).String() + "/" + id + "/vectors.json"
}

// MetadataPath returns the logical path of an entity's metadata record.
func MetadataPath(kind EntityKind, id string) string {
	return "entities/" + string(kind) + "/" + shard.Of(id).String() + "/" + id + "/metadata.json"
}

// ShardPrefix returns the logical prefix holding every record in one
// shard bucket of a kind.
func ShardPrefix(kind EntityKind, s shard.ID) string {
	return "entities/" + string(kind) + "/" + s.String() + "/"
}

// KindPrefix returns the logical prefix holding every record of a kind.
func KindPrefix(kind EntityKind) string {
	return "entities/" + string(kind) + "/"
}
