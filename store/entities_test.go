package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyphadb/hypha/model"
)

func TestSaveGetNoun(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)

	conf := 0.75
	n := &model.Noun{
		Vector:     []float32{0.5, 1.25, -2},
		Type:       "person",
		Confidence: &conf,
		Service:    "importer",
		Data: map[string]model.Value{
			"name": model.String("ada"),
			"age":  model.Int(36),
		},
		CreatedBy: "tester",
	}
	require.NoError(t, s.SaveNoun(ctx, n))
	require.True(t, model.ValidID(n.ID))
	require.NotZero(t, n.CreatedAt)
	require.NotZero(t, n.UpdatedAt)

	got, ok, err := s.GetNoun(ctx, n.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, n, got)
}

func TestGetNoun_Absent(t *testing.T) {
	s := newTestStore(t, nil)

	got, ok, err := s.GetNoun(context.Background(), model.NewID())
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, got)
}

func TestSaveNoun_OverwriteKeepsCreatedAt(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)

	n := &model.Noun{Vector: []float32{1}, Type: "thing"}
	require.NoError(t, s.SaveNoun(ctx, n))
	created := n.CreatedAt

	n.Data = map[string]model.Value{"rev": model.Int(2)}
	require.NoError(t, s.SaveNoun(ctx, n))
	require.Equal(t, created, n.CreatedAt)

	got, ok, err := s.GetNoun(ctx, n.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, model.Int(2), got.Data["rev"])
}

func TestSaveVerb_RequiresEndpoints(t *testing.T) {
	s := newTestStore(t, nil)

	err := s.SaveVerb(context.Background(), &model.Verb{Type: "relatedTo"})
	require.ErrorContains(t, err, "source and target are required")
}

func TestSaveGetDeleteVerb(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)

	v := &model.Verb{
		Vector:   []float32{0.25},
		SourceID: model.NewID(),
		TargetID: model.NewID(),
		Type:     "livesIn",
	}
	require.NoError(t, s.SaveVerb(ctx, v))

	got, ok, err := s.GetVerb(ctx, v.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, v.SourceID, got.SourceID)
	require.Equal(t, v.TargetID, got.TargetID)

	require.NoError(t, s.DeleteVerb(ctx, v.ID))
	_, ok, err = s.GetVerb(ctx, v.ID)
	require.NoError(t, err)
	require.False(t, ok)

	// Deleting again is a no-op.
	require.NoError(t, s.DeleteVerb(ctx, v.ID))
}

func TestGetNoun_HalfPresentTreatedAsAbsent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)

	// A metadata record with no vector sibling must read as absent, not
	// crash or return a partial entity.
	id := model.NewID()
	raw, err := s.codec.Marshal(&model.MetadataRecord{ID: id, Type: "person"})
	require.NoError(t, err)
	require.NoError(t, s.WriteBranch(ctx, MetadataPath(KindNoun, id), raw, ""))

	got, ok, err := s.GetNoun(ctx, id)
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, got)
}

func TestUpdateConnections(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)

	n := &model.Noun{Vector: []float32{1}, Type: "concept"}
	require.NoError(t, s.SaveNoun(ctx, n))

	peer := model.NewID()
	err := s.UpdateConnections(ctx, KindNoun, n.ID, func(conns map[int][]string) map[int][]string {
		if conns == nil {
			conns = make(map[int][]string)
		}
		conns[0] = append(conns[0], peer)
		return conns
	})
	require.NoError(t, err)

	got, ok, err := s.GetNoun(ctx, n.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []string{peer}, got.Connections[0])
}

func TestUpdateConnections_AbsentEntity(t *testing.T) {
	s := newTestStore(t, nil)

	err := s.UpdateConnections(context.Background(), KindNoun, model.NewID(),
		func(c map[int][]string) map[int][]string { return c })
	require.ErrorContains(t, err, "not found")
}

func TestDeleteNoun_BranchLocal(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)

	n := &model.Noun{Vector: []float32{1}, Type: "place"}
	require.NoError(t, s.SaveNoun(ctx, n))

	require.NoError(t, s.COW().Fork(ctx, "feature", "", nil))
	require.NoError(t, s.Checkout(ctx, "feature"))

	// Deleting on the branch removes only the branch's own copy; the
	// entity still exists on main. It remains visible on the branch via
	// inheritance, mirroring the layered write model.
	require.NoError(t, s.DeleteNoun(ctx, n.ID))

	require.NoError(t, s.Checkout(ctx, "main"))
	_, ok, err := s.GetNoun(ctx, n.ID)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestVerbVectorRecords(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)

	want := map[string]bool{}
	for i := 0; i < 3; i++ {
		v := &model.Verb{
			Vector:   []float32{float32(i)},
			SourceID: model.NewID(),
			TargetID: model.NewID(),
			Type:     "contains",
		}
		require.NoError(t, s.SaveVerb(ctx, v))
		want[v.ID] = true
	}

	seen := map[string]bool{}
	require.NoError(t, s.VerbVectorRecords(ctx, func(rec *model.VerbVectorRecord) error {
		seen[rec.ID] = true
		require.NotEmpty(t, rec.SourceID)
		require.NotEmpty(t, rec.TargetID)
		return nil
	}))
	require.Equal(t, want, seen)
}
