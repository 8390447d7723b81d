package store

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/hyphadb/hypha/model"
	"github.com/hyphadb/hypha/shard"
)

// Filter selects metadata records during a paginated listing. Zero
// fields match everything.
type Filter struct {
	// Kind selects the entity namespace; defaults to KindNoun.
	Kind EntityKind
	// Type matches the metadata type tag exactly. A requested type is
	// always scanned for, even when its statistics counter reads zero:
	// counters are hints and must never cause silently dropped results.
	Type string
	// SourceID / TargetID match verb endpoints.
	SourceID string
	TargetID string
	// Data entries must all be present and equal in the record's data.
	Data map[string]model.Value
}

func (f Filter) kind() EntityKind {
	if f.Kind == "" {
		return KindNoun
	}
	return f.Kind
}

func (f Filter) matches(rec *model.MetadataRecord) bool {
	if f.Type != "" && rec.Type != f.Type {
		return false
	}
	if f.SourceID != "" && rec.SourceID != f.SourceID {
		return false
	}
	if f.TargetID != "" && rec.TargetID != f.TargetID {
		return false
	}
	for k, want := range f.Data {
		got, ok := rec.Data[k]
		if !ok || !got.Equal(want) {
			return false
		}
	}
	return true
}

// Page is one bounded result of a paginated listing.
type Page struct {
	Items []*model.MetadataRecord
	// HasMore is true only when strictly more matches exist beyond this
	// page. Callers chain NextCursor while HasMore holds.
	HasMore    bool
	NextCursor string
}

// cursorState is the decoded form of the opaque continuation token: the
// number of matching records already delivered. Shard iteration order is
// fixed and per-shard candidate order is sorted, so an offset names a
// stable position as long as the dataset is not concurrently mutated.
type cursorState struct {
	Offset int `json:"o"`
}

func encodeCursor(c cursorState) string {
	raw, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(raw)
}

func decodeCursor(token string) (cursorState, error) {
	if token == "" {
		return cursorState{}, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return cursorState{}, fmt.Errorf("malformed cursor: %w", err)
	}
	var c cursorState
	if err := json.Unmarshal(raw, &c); err != nil {
		return cursorState{}, fmt.Errorf("malformed cursor: %w", err)
	}
	if c.Offset < 0 {
		c.Offset = 0
	}
	return c, nil
}

// List returns one page of metadata records matching the filter.
//
// Shard buckets are scanned in fixed ascending order and the scan stops
// as soon as offset+limit+1 matches are seen, so the work done is
// proportional to the requested page, not the dataset. HasMore is true
// only when strictly more than offset+limit matches were found — this
// boundary is exact; loosening it sends callers into infinite
// pagination loops. An empty page always reports HasMore=false, so a
// filter matching nothing terminates immediately.
func (s *Store) List(ctx context.Context, f Filter, limit int, cursor string) (Page, error) {
	if limit <= 0 {
		limit = 50
	}
	state, err := decodeCursor(cursor)
	if err != nil {
		return Page{}, err
	}

	offset := state.Offset
	need := offset + limit + 1 // one extra decides HasMore exactly
	kind := f.kind()

	var (
		found int
		items []*model.MetadataRecord
	)

shards:
	for _, sh := range shard.All() {
		metaPaths, err := s.shardMetadataPaths(ctx, kind, sh)
		if err != nil {
			return Page{}, err
		}
		if len(metaPaths) == 0 {
			continue
		}

		for _, chunk := range chunkPaths(metaPaths, s.profile.MaxBatchSize) {
			values, err := s.ReadBatch(ctx, chunk, "")
			if err != nil {
				return Page{}, err
			}
			// Batch maps are unordered; restore the sorted path order so
			// cursor offsets stay stable.
			for _, p := range chunk {
				raw, ok := values[p]
				if !ok {
					continue
				}
				var rec model.MetadataRecord
				if err := s.codec.Unmarshal(raw, &rec); err != nil {
					s.log.Warn("skipping undecodable metadata record",
						"path", p, "error", err)
					continue
				}
				if !f.matches(&rec) {
					continue
				}
				found++
				if found > offset && len(items) < limit {
					items = append(items, &rec)
				}
				if found >= need {
					break shards
				}
			}
		}
	}

	page := Page{Items: items}
	// Strict boundary: more pages only when matches beyond offset+limit
	// exist, and never on an empty page.
	if len(items) > 0 && found > offset+limit {
		page.HasMore = true
		page.NextCursor = encodeCursor(cursorState{Offset: offset + len(items)})
	}
	return page, nil
}

// shardMetadataPaths lists the metadata record paths of one shard bucket
// in sorted order.
func (s *Store) shardMetadataPaths(ctx context.Context, kind EntityKind, sh shard.ID) ([]string, error) {
	paths, err := s.ListScoped(ctx, ShardPrefix(kind, sh), "")
	if err != nil {
		return nil, err
	}

	var metaPaths []string
	for _, p := range paths {
		if strings.HasSuffix(p, "/metadata.json") {
			metaPaths = append(metaPaths, p)
		}
	}
	sort.Strings(metaPaths)
	return metaPaths, nil
}

// GetNounsByType returns one page of nouns of the given type. There is
// no type-indexed path — type is a property, not a location — so this is
// a bounded shard scan through the pagination engine.
func (s *Store) GetNounsByType(ctx context.Context, typ string, limit int, cursor string) ([]*model.Noun, Page, error) {
	page, err := s.List(ctx, Filter{Kind: KindNoun, Type: typ}, limit, cursor)
	if err != nil {
		return nil, Page{}, err
	}

	nouns := make([]*model.Noun, 0, len(page.Items))
	for _, rec := range page.Items {
		n, ok, err := s.GetNoun(ctx, rec.ID)
		if err != nil {
			return nil, Page{}, err
		}
		if ok {
			nouns = append(nouns, n)
		}
	}
	return nouns, page, nil
}

// GetVerbsByType is the verb counterpart of GetNounsByType.
func (s *Store) GetVerbsByType(ctx context.Context, typ string, limit int, cursor string) ([]*model.Verb, Page, error) {
	page, err := s.List(ctx, Filter{Kind: KindVerb, Type: typ}, limit, cursor)
	if err != nil {
		return nil, Page{}, err
	}

	verbs := make([]*model.Verb, 0, len(page.Items))
	for _, rec := range page.Items {
		v, ok, err := s.GetVerb(ctx, rec.ID)
		if err != nil {
			return nil, Page{}, err
		}
		if ok {
			verbs = append(verbs, v)
		}
	}
	return verbs, page, nil
}
