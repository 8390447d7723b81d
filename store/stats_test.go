package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyphadb/hypha/model"
)

func TestStats_CountOnFirstSaveOnly(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)

	n := &model.Noun{Vector: []float32{1}, Type: "person"}
	require.NoError(t, s.SaveNoun(ctx, n))
	require.Equal(t, int64(1), s.Stats().Get(KindNoun, "person"))

	// Re-saving the same entity is an update, not a new member.
	require.NoError(t, s.SaveNoun(ctx, n))
	require.Equal(t, int64(1), s.Stats().Get(KindNoun, "person"))
}

func TestStats_DecrementOnDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)

	n := &model.Noun{Vector: []float32{1}, Type: "place"}
	require.NoError(t, s.SaveNoun(ctx, n))
	require.NoError(t, s.DeleteNoun(ctx, n.ID))
	require.Equal(t, int64(0), s.Stats().Get(KindNoun, "place"))

	// Deleting an absent entity never drives a counter negative.
	require.NoError(t, s.DeleteNoun(ctx, model.NewID()))
	require.Equal(t, int64(0), s.Stats().Get(KindNoun, "place"))
}

func TestStats_UnregisteredTypeUncounted(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)

	n := &model.Noun{Vector: []float32{1}, Type: "dragon"}
	require.NoError(t, s.SaveNoun(ctx, n))
	require.Equal(t, int64(0), s.Stats().Get(KindNoun, "dragon"))

	// The entity itself is fully stored regardless.
	_, ok, err := s.GetNoun(ctx, n.ID)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestStats_Rebuild(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)

	seedNouns(t, s, "person", 2)
	seedNouns(t, s, "place", 1)
	v := &model.Verb{Vector: []float32{1}, SourceID: model.NewID(), TargetID: model.NewID(), Type: "livesIn"}
	require.NoError(t, s.SaveVerb(ctx, v))

	// Skew the counters, then rebuild from the records.
	s.Stats().Increment(KindNoun, "person")
	s.Stats().Increment(KindNoun, "person")
	require.Equal(t, int64(4), s.Stats().Get(KindNoun, "person"))

	require.NoError(t, s.Stats().Rebuild(ctx))
	require.Equal(t, int64(2), s.Stats().Get(KindNoun, "person"))
	require.Equal(t, int64(1), s.Stats().Get(KindNoun, "place"))
	require.Equal(t, int64(1), s.Stats().Get(KindVerb, "livesIn"))
}

func TestStats_SnapshotSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	first := newTestStore(t, nil)

	seedNouns(t, first, "concept", 3)
	require.NoError(t, first.Stats().Rebuild(ctx))

	// A fresh store over the same backend loads the persisted snapshot.
	reopened := newTestStore(t, first.adapter)
	require.Equal(t, int64(3), reopened.Stats().Get(KindNoun, "concept"))
}
