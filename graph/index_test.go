package graph

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyphadb/hypha/backend"
	"github.com/hyphadb/hypha/cow"
	"github.com/hyphadb/hypha/model"
	"github.com/hyphadb/hypha/store"
)

func newTestIndex(t *testing.T) (*Index, *store.Store) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := store.New(backend.NewMemoryAdapter(), store.Options{
		Logger:     log,
		Compressor: cow.NoCompression{},
	})
	require.NoError(t, s.Init(context.Background()))
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return New(s, log), s
}

func saveVerb(t *testing.T, s *store.Store, src, dst string) *model.Verb {
	t.Helper()
	v := &model.Verb{
		Vector:   []float32{1},
		SourceID: src,
		TargetID: dst,
		Type:     "relatedTo",
	}
	require.NoError(t, s.SaveVerb(context.Background(), v))
	return v
}

func TestIndex_StartsUninitialized(t *testing.T) {
	ix, _ := newTestIndex(t)
	require.Equal(t, Uninitialized, ix.State())
}

func TestIndex_AddVerbLazyCreates(t *testing.T) {
	ix, _ := newTestIndex(t)

	ix.AddVerb(&model.Verb{ID: "v1", SourceID: "a", TargetID: "b"})
	require.Equal(t, LazyCreated, ix.State())
}

func TestIndex_ColdLookupRebuilds(t *testing.T) {
	ix, s := newTestIndex(t)

	// Verbs persisted before the index ever existed.
	a, b := model.NewID(), model.NewID()
	v1 := saveVerb(t, s, a, b)
	v2 := saveVerb(t, s, a, model.NewID())

	ids, err := ix.IDsBySource(context.Background(), a)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{v1.ID, v2.ID}, ids)
	require.Equal(t, Initialized, ix.State())

	ids, err = ix.IDsByTarget(context.Background(), b)
	require.NoError(t, err)
	require.Equal(t, []string{v1.ID}, ids)
}

func TestIndex_EmptyStoreInitializesTrivially(t *testing.T) {
	ix, _ := newTestIndex(t)

	ids, err := ix.IDsBySource(context.Background(), model.NewID())
	require.NoError(t, err)
	require.Empty(t, ids)
	require.Equal(t, Initialized, ix.State())
}

func TestIndex_IncrementalMaintenance(t *testing.T) {
	ctx := context.Background()
	ix, s := newTestIndex(t)

	// Warm the index, then add through the write path.
	require.NoError(t, ix.Rebuild(ctx))

	a := model.NewID()
	v := saveVerb(t, s, a, model.NewID())
	ix.AddVerb(v)

	ids, err := ix.IDsBySource(ctx, a)
	require.NoError(t, err)
	require.Equal(t, []string{v.ID}, ids)

	ix.RemoveVerb(v.ID, v.SourceID, v.TargetID)
	ids, err = ix.IDsBySource(ctx, a)
	require.NoError(t, err)
	require.Empty(t, ids)
}

func TestIndex_RemoveBeforeCreateIsNoop(t *testing.T) {
	ix, _ := newTestIndex(t)
	ix.RemoveVerb("v", "a", "b")
	require.Equal(t, Uninitialized, ix.State())
}

func TestIndex_Reset(t *testing.T) {
	ctx := context.Background()
	ix, s := newTestIndex(t)

	a := model.NewID()
	saveVerb(t, s, a, model.NewID())
	_, err := ix.IDsBySource(ctx, a)
	require.NoError(t, err)
	require.Equal(t, Initialized, ix.State())

	ix.Reset()
	require.Equal(t, Uninitialized, ix.State())

	// Next lookup rebuilds against whatever the store now holds.
	ids, err := ix.IDsBySource(ctx, a)
	require.NoError(t, err)
	require.Len(t, ids, 1)
}
