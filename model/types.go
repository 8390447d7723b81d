package model

import (
	"time"

	"github.com/google/uuid"
)

// NounTypes enumerates the entity categories tracked by the statistics
// counters. The slice order is the stable type->index mapping; never
// reorder entries, only append.
var NounTypes = []string{
	"person",
	"place",
	"thing",
	"event",
	"concept",
	"content",
	"collection",
	"organization",
	"process",
	"state",
}

// VerbTypes enumerates relationship categories. Same stability rule as
// NounTypes.
var VerbTypes = []string{
	"relatedTo",
	"contains",
	"partOf",
	"locatedIn",
	"livesIn",
	"createdBy",
	"references",
	"dependsOn",
	"precedes",
	"instanceOf",
}

// NounTypeIndex returns the counter index for a noun type, or -1 if the
// type is not registered. Unregistered types are legal; they are simply
// not counted (counters are advisory).
func NounTypeIndex(t string) int {
	for i, n := range NounTypes {
		if n == t {
			return i
		}
	}
	return -1
}

// VerbTypeIndex returns the counter index for a verb type, or -1.
func VerbTypeIndex(t string) int {
	for i, v := range VerbTypes {
		if v == t {
			return i
		}
	}
	return -1
}

// Noun is a typed entity: an embedding plus descriptive metadata.
//
// Vector and metadata persist as two separate records sharing the same ID
// and shard (see NounVectorRecord / MetadataRecord). An entity is absent
// if either record is missing.
type Noun struct {
	ID          string
	Vector      []float32
	Connections map[int][]string // sparse per-level neighbor sets, opaque to the core
	Type        string
	CreatedAt   int64 // epoch millis
	UpdatedAt   int64
	Confidence  *float64
	Weight      *float64
	Service     string
	Data        map[string]Value
	CreatedBy   string
}

// Verb is a directed, typed relationship between two nouns. It carries
// its own embedding and the same metadata surface as a noun. Undirected
// semantics are a caller concern (write both directions).
type Verb struct {
	ID          string
	Vector      []float32
	Connections map[int][]string
	SourceID    string
	TargetID    string
	Type        string
	CreatedAt   int64
	UpdatedAt   int64
	Confidence  *float64
	Weight      *float64
	Service     string
	Data        map[string]Value
	CreatedBy   string
}

// NewID returns a fresh UUID string.
func NewID() string { return uuid.NewString() }

// ValidID reports whether id parses as a UUID.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Now returns the current time in epoch milliseconds, the timestamp unit
// used throughout the persisted records.
func Now() int64 { return time.Now().UnixMilli() }

// NounVectorRecord is the persisted vector half of a noun
// (entities/nouns/{shard}/{id}/vectors.json).
type NounVectorRecord struct {
	ID          string           `json:"id"`
	Vector      []float32        `json:"vector"`
	Connections map[int][]string `json:"connections,omitempty"`
}

// VerbVectorRecord is the persisted vector half of a verb. The relational
// endpoints live here, next to the vector, so graph maintenance can load
// a single record.
type VerbVectorRecord struct {
	ID          string           `json:"id"`
	Vector      []float32        `json:"vector"`
	Connections map[int][]string `json:"connections,omitempty"`
	SourceID    string           `json:"sourceId"`
	TargetID    string           `json:"targetId"`
}

// MetadataRecord is the persisted descriptive half of a noun or verb
// (.../metadata.json). Type filtering reads only this record.
type MetadataRecord struct {
	ID         string           `json:"id"`
	Type       string           `json:"type"`
	CreatedAt  int64            `json:"createdAt"`
	UpdatedAt  int64            `json:"updatedAt"`
	Confidence *float64         `json:"confidence,omitempty"`
	Weight     *float64         `json:"weight,omitempty"`
	Service    string           `json:"service,omitempty"`
	Data       map[string]Value `json:"data,omitempty"`
	CreatedBy  string           `json:"createdBy,omitempty"`
	SourceID   string           `json:"sourceId,omitempty"` // verbs only, duplicated for filtering
	TargetID   string           `json:"targetId,omitempty"` // verbs only
}

// SplitNoun decomposes a noun into its two persisted records.
func SplitNoun(n *Noun) (*NounVectorRecord, *MetadataRecord) {
	return &NounVectorRecord{
			ID:          n.ID,
			Vector:      n.Vector,
			Connections: n.Connections,
		}, &MetadataRecord{
			ID:         n.ID,
			Type:       n.Type,
			CreatedAt:  n.CreatedAt,
			UpdatedAt:  n.UpdatedAt,
			Confidence: n.Confidence,
			Weight:     n.Weight,
			Service:    n.Service,
			Data:       n.Data,
			CreatedBy:  n.CreatedBy,
		}
}

// JoinNoun recombines the two persisted records into a noun.
func JoinNoun(v *NounVectorRecord, m *MetadataRecord) *Noun {
	return &Noun{
		ID:          v.ID,
		Vector:      v.Vector,
		Connections: v.Connections,
		Type:        m.Type,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
		Confidence:  m.Confidence,
		Weight:      m.Weight,
		Service:     m.Service,
		Data:        m.Data,
		CreatedBy:   m.CreatedBy,
	}
}

// SplitVerb decomposes a verb into its two persisted records. The source
// and target IDs are written to both records: the vector record is the
// authority for graph maintenance, the metadata copy serves filtered
// listing without a second read.
func SplitVerb(v *Verb) (*VerbVectorRecord, *MetadataRecord) {
	return &VerbVectorRecord{
			ID:          v.ID,
			Vector:      v.Vector,
			Connections: v.Connections,
			SourceID:    v.SourceID,
			TargetID:    v.TargetID,
		}, &MetadataRecord{
			ID:         v.ID,
			Type:       v.Type,
			CreatedAt:  v.CreatedAt,
			UpdatedAt:  v.UpdatedAt,
			Confidence: v.Confidence,
			Weight:     v.Weight,
			Service:    v.Service,
			Data:       v.Data,
			CreatedBy:  v.CreatedBy,
			SourceID:   v.SourceID,
			TargetID:   v.TargetID,
		}
}

// JoinVerb recombines the two persisted records into a verb.
func JoinVerb(vr *VerbVectorRecord, m *MetadataRecord) *Verb {
	return &Verb{
		ID:          vr.ID,
		Vector:      vr.Vector,
		Connections: vr.Connections,
		SourceID:    vr.SourceID,
		TargetID:    vr.TargetID,
		Type:        m.Type,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
		Confidence:  m.Confidence,
		Weight:      m.Weight,
		Service:     m.Service,
		Data:        m.Data,
		CreatedBy:   m.CreatedBy,
	}
}
