package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/hyphadb/hypha/model"
)

// SaveNoun persists a noun as its two records. Overwriting an existing
// noun is a full metadata replacement; the type counter is incremented
// only when no prior record exists (checked before the write, so
// re-saving never double counts).
func (s *Store) SaveNoun(ctx context.Context, n *model.Noun) error {
	if n.ID == "" {
		n.ID = model.NewID()
	}
	stampTimes(&n.CreatedAt, &n.UpdatedAt)

	vec, meta := model.SplitNoun(n)
	isNew, err := s.saveRecords(ctx, KindNoun, n.ID, vec, meta)
	if err != nil {
		return err
	}
	if isNew {
		s.stats.Increment(KindNoun, n.Type)
	}
	return nil
}

// SaveVerb persists a verb as its two records, with the same counting
// rule as SaveNoun. Callers maintaining the adjacency index should add
// the verb to it after a successful save.
func (s *Store) SaveVerb(ctx context.Context, v *model.Verb) error {
	if v.ID == "" {
		v.ID = model.NewID()
	}
	if v.SourceID == "" || v.TargetID == "" {
		return fmt.Errorf("verb %s: source and target are required", v.ID)
	}
	stampTimes(&v.CreatedAt, &v.UpdatedAt)

	vec, meta := model.SplitVerb(v)
	isNew, err := s.saveRecords(ctx, KindVerb, v.ID, vec, meta)
	if err != nil {
		return err
	}
	if isNew {
		s.stats.Increment(KindVerb, v.Type)
	}
	return nil
}

func stampTimes(createdAt, updatedAt *int64) {
	now := model.Now()
	if *createdAt == 0 {
		*createdAt = now
	}
	*updatedAt = now
}

// saveRecords writes the vector and metadata records for an entity and
// reports whether the entity is new to the branch view (neither local
// nor inherited).
func (s *Store) saveRecords(ctx context.Context, kind EntityKind, id string, vec any, meta *model.MetadataRecord) (bool, error) {
	metaPath := MetadataPath(kind, id)

	_, existed, err := s.ReadInherited(ctx, metaPath, "")
	if err != nil {
		return false, fmt.Errorf("check %s %s: %w", kind, id, err)
	}

	rawVec, err := s.codec.Marshal(vec)
	if err != nil {
		return false, fmt.Errorf("encode %s %s vectors: %w", kind, id, err)
	}
	rawMeta, err := s.codec.Marshal(meta)
	if err != nil {
		return false, fmt.Errorf("encode %s %s metadata: %w", kind, id, err)
	}

	if err := s.WriteBranch(ctx, VectorPath(kind, id), rawVec, ""); err != nil {
		return false, err
	}
	if err := s.WriteBranch(ctx, metaPath, rawMeta, ""); err != nil {
		return false, err
	}
	return !existed, nil
}

// GetNoun loads a noun, or (nil, false, nil) when absent. A half-present
// entity (one record without the other) is an inconsistency that should
// never occur under correct operation: it is surfaced as a diagnostic
// and treated as absence, never as a crash.
func (s *Store) GetNoun(ctx context.Context, id string) (*model.Noun, bool, error) {
	vecRaw, metaRaw, ok, err := s.getRecords(ctx, KindNoun, id)
	if err != nil || !ok {
		return nil, false, err
	}

	var vec model.NounVectorRecord
	var meta model.MetadataRecord
	if err := s.codec.Unmarshal(vecRaw, &vec); err != nil {
		return nil, false, fmt.Errorf("decode noun %s vectors: %w", id, err)
	}
	if err := s.codec.Unmarshal(metaRaw, &meta); err != nil {
		return nil, false, fmt.Errorf("decode noun %s metadata: %w", id, err)
	}
	return model.JoinNoun(&vec, &meta), true, nil
}

// GetVerb loads a verb, or (nil, false, nil) when absent.
func (s *Store) GetVerb(ctx context.Context, id string) (*model.Verb, bool, error) {
	vecRaw, metaRaw, ok, err := s.getRecords(ctx, KindVerb, id)
	if err != nil || !ok {
		return nil, false, err
	}

	var vec model.VerbVectorRecord
	var meta model.MetadataRecord
	if err := s.codec.Unmarshal(vecRaw, &vec); err != nil {
		return nil, false, fmt.Errorf("decode verb %s vectors: %w", id, err)
	}
	if err := s.codec.Unmarshal(metaRaw, &meta); err != nil {
		return nil, false, fmt.Errorf("decode verb %s metadata: %w", id, err)
	}
	return model.JoinVerb(&vec, &meta), true, nil
}

// getRecords batch-reads both records of an entity.
func (s *Store) getRecords(ctx context.Context, kind EntityKind, id string) (vecRaw, metaRaw []byte, ok bool, err error) {
	vecPath := VectorPath(kind, id)
	metaPath := MetadataPath(kind, id)

	values, err := s.ReadBatch(ctx, []string{vecPath, metaPath}, "")
	if err != nil {
		return nil, nil, false, err
	}

	vecRaw, hasVec := values[vecPath]
	metaRaw, hasMeta := values[metaPath]

	switch {
	case hasVec && hasMeta:
		return vecRaw, metaRaw, true, nil
	case hasVec != hasMeta:
		s.log.Warn("inconsistent entity records, treating as absent",
			"kind", string(kind), "id", id,
			"hasVectors", hasVec, "hasMetadata", hasMeta)
		fallthrough
	default:
		return nil, nil, false, nil
	}
}

// DeleteNoun removes both records of a noun. Absence of either record is
// not an error; counter reconciliation is best-effort.
func (s *Store) DeleteNoun(ctx context.Context, id string) error {
	return s.deleteEntity(ctx, KindNoun, id)
}

// DeleteVerb removes both records of a verb. Callers maintaining the
// adjacency index should remove the verb from it after a successful
// delete.
func (s *Store) DeleteVerb(ctx context.Context, id string) error {
	return s.deleteEntity(ctx, KindVerb, id)
}

func (s *Store) deleteEntity(ctx context.Context, kind EntityKind, id string) error {
	return s.locks.WithLock(ctx, string(kind)+"/"+id, func() error {
		// Load the type first so the counter can be reconciled; a failure
		// here only degrades the advisory count.
		typ := ""
		if raw, ok, err := s.ReadInherited(ctx, MetadataPath(kind, id), ""); err == nil && ok {
			var meta model.MetadataRecord
			if err := s.codec.Unmarshal(raw, &meta); err == nil {
				typ = meta.Type
			}
		}

		if err := s.DeleteBranch(ctx, VectorPath(kind, id), ""); err != nil {
			return err
		}
		if err := s.DeleteBranch(ctx, MetadataPath(kind, id), ""); err != nil {
			return err
		}

		if typ != "" {
			s.stats.Decrement(kind, typ)
		}
		return nil
	})
}

// UpdateConnections applies a read-modify-write to an entity's graph
// connection sets under the entity's key lock, so interleaved updates to
// the same entity serialize instead of losing writes. The vector record
// is the only record mutated in place.
func (s *Store) UpdateConnections(ctx context.Context, kind EntityKind, id string, mutate func(conns map[int][]string) map[int][]string) error {
	return s.locks.WithLock(ctx, string(kind)+"/"+id, func() error {
		vecPath := VectorPath(kind, id)
		raw, ok, err := s.ReadInherited(ctx, vecPath, "")
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("update connections: %s %s not found", kind, id)
		}

		switch kind {
		case KindVerb:
			var rec model.VerbVectorRecord
			if err := s.codec.Unmarshal(raw, &rec); err != nil {
				return fmt.Errorf("decode verb %s vectors: %w", id, err)
			}
			rec.Connections = mutate(rec.Connections)
			out, err := s.codec.Marshal(&rec)
			if err != nil {
				return err
			}
			return s.WriteBranch(ctx, vecPath, out, "")
		default:
			var rec model.NounVectorRecord
			if err := s.codec.Unmarshal(raw, &rec); err != nil {
				return fmt.Errorf("decode noun %s vectors: %w", id, err)
			}
			rec.Connections = mutate(rec.Connections)
			out, err := s.codec.Marshal(&rec)
			if err != nil {
				return err
			}
			return s.WriteBranch(ctx, vecPath, out, "")
		}
	})
}

// VerbVectorRecords streams every verb vector record in the current
// branch view. The adjacency index rebuild and scan fallbacks are built
// on this.
func (s *Store) VerbVectorRecords(ctx context.Context, fn func(*model.VerbVectorRecord) error) error {
	paths, err := s.ListScoped(ctx, KindPrefix(KindVerb), "")
	if err != nil {
		return err
	}

	var vecPaths []string
	for _, p := range paths {
		if strings.HasSuffix(p, "/vectors.json") {
			vecPaths = append(vecPaths, p)
		}
	}

	for _, chunk := range chunkPaths(vecPaths, s.profile.MaxBatchSize) {
		values, err := s.ReadBatch(ctx, chunk, "")
		if err != nil {
			return err
		}
		for _, raw := range values {
			var rec model.VerbVectorRecord
			if err := s.codec.Unmarshal(raw, &rec); err != nil {
				s.log.Warn("skipping undecodable verb vector record", "error", err)
				continue
			}
			if err := fn(&rec); err != nil {
				return err
			}
		}
	}
	return nil
}
