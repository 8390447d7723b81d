package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyphadb/hypha/model"
)

func seedNouns(t *testing.T, s *Store, typ string, count int) map[string]bool {
	t.Helper()
	ids := make(map[string]bool, count)
	for i := 0; i < count; i++ {
		n := &model.Noun{Vector: []float32{float32(i)}, Type: typ}
		require.NoError(t, s.SaveNoun(context.Background(), n))
		ids[n.ID] = true
	}
	return ids
}

func TestList_EmptyResultTerminates(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)
	seedNouns(t, s, "place", 5)

	page, err := s.List(ctx, Filter{Type: "person"}, 10, "")
	require.NoError(t, err)
	require.Empty(t, page.Items)
	require.False(t, page.HasMore)
	require.Empty(t, page.NextCursor)
}

func TestList_ExactlyOnceAcrossPages(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)
	want := seedNouns(t, s, "thing", 10)
	seedNouns(t, s, "place", 4) // noise the filter must skip

	seen := map[string]int{}
	cursor := ""
	pages := 0
	for {
		page, err := s.List(ctx, Filter{Type: "thing"}, 3, cursor)
		require.NoError(t, err)
		for _, rec := range page.Items {
			seen[rec.ID]++
			require.Equal(t, "thing", rec.Type)
		}
		pages++
		require.Less(t, pages, 20, "pagination did not terminate")
		if !page.HasMore {
			require.Empty(t, page.NextCursor)
			break
		}
		require.NotEmpty(t, page.NextCursor)
		cursor = page.NextCursor
	}

	require.Len(t, seen, len(want))
	for id, n := range seen {
		require.True(t, want[id], id)
		require.Equal(t, 1, n, "duplicate delivery of %s", id)
	}
}

func TestList_HasMoreStrictAtBoundary(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)
	seedNouns(t, s, "event", 4)

	// Exactly limit matches: the page is full but nothing lies beyond it.
	page, err := s.List(ctx, Filter{Type: "event"}, 4, "")
	require.NoError(t, err)
	require.Len(t, page.Items, 4)
	require.False(t, page.HasMore)
}

func TestList_MalformedCursor(t *testing.T) {
	s := newTestStore(t, nil)

	_, err := s.List(context.Background(), Filter{}, 10, "not base64!!")
	require.ErrorContains(t, err, "malformed cursor")
}

func TestList_DataFilter(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)

	match := &model.Noun{
		Vector: []float32{1},
		Type:   "person",
		Data:   map[string]model.Value{"city": model.String("paris")},
	}
	require.NoError(t, s.SaveNoun(ctx, match))

	other := &model.Noun{
		Vector: []float32{1},
		Type:   "person",
		Data:   map[string]model.Value{"city": model.String("tokyo")},
	}
	require.NoError(t, s.SaveNoun(ctx, other))

	page, err := s.List(ctx, Filter{
		Type: "person",
		Data: map[string]model.Value{"city": model.String("paris")},
	}, 10, "")
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.Equal(t, match.ID, page.Items[0].ID)
}

func TestList_VerbEndpointFilter(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)

	src := model.NewID()
	v1 := &model.Verb{Vector: []float32{1}, SourceID: src, TargetID: model.NewID(), Type: "contains"}
	v2 := &model.Verb{Vector: []float32{1}, SourceID: model.NewID(), TargetID: model.NewID(), Type: "contains"}
	require.NoError(t, s.SaveVerb(ctx, v1))
	require.NoError(t, s.SaveVerb(ctx, v2))

	page, err := s.List(ctx, Filter{Kind: KindVerb, SourceID: src}, 10, "")
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.Equal(t, v1.ID, page.Items[0].ID)
}

func TestGetNounsByType(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)
	want := seedNouns(t, s, "organization", 3)

	nouns, page, err := s.GetNounsByType(ctx, "organization", 10, "")
	require.NoError(t, err)
	require.False(t, page.HasMore)
	require.Len(t, nouns, 3)
	for _, n := range nouns {
		require.True(t, want[n.ID])
		require.NotEmpty(t, n.Vector)
	}
}
