package store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyphadb/hypha/backend"
	"github.com/hyphadb/hypha/cow"
)

func noopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T, adapter backend.Adapter) *Store {
	t.Helper()
	if adapter == nil {
		adapter = backend.NewMemoryAdapter()
	}
	s := New(adapter, Options{
		Logger:     noopLogger(),
		Compressor: cow.NoCompression{},
	})
	require.NoError(t, s.Init(context.Background()))
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func TestInit_DefaultsToMain(t *testing.T) {
	s := newTestStore(t, nil)
	require.Equal(t, cow.MainBranch, s.Branch())
}

func TestWriteBranch_ReadAfterWrite(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)

	require.NoError(t, s.WriteBranch(ctx, "k.json", []byte("v"), ""))

	got, ok, err := s.ReadInherited(ctx, "k.json", "")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("v"), got)
	require.Equal(t, 1, s.CacheLen())
}

// failingWrites wraps an adapter so durable writes fail while reads
// still work.
type failingWrites struct {
	backend.Adapter
}

func (f *failingWrites) WriteObject(context.Context, string, []byte) error {
	return errors.New("backend unavailable")
}

func TestWriteBranch_CachePopulatedBeforeDurableWrite(t *testing.T) {
	ctx := context.Background()
	mem := backend.NewMemoryAdapter()
	s := newTestStore(t, mem)

	// Break the durable path after init.
	s.adapter = &failingWrites{Adapter: mem}

	err := s.WriteBranch(ctx, "k.json", []byte("v"), "")
	require.Error(t, err)

	// The write failed durably, but the value is already readable: the
	// cache entry goes in before the backend write starts.
	got, ok, err := s.ReadInherited(ctx, "k.json", "")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("v"), got)

	// Until Flush drops it.
	s.Flush()
	_, ok, err = s.ReadInherited(ctx, "k.json", "")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDeleteBranch_RemovesCacheEntry(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)

	require.NoError(t, s.WriteBranch(ctx, "k.json", []byte("v"), ""))
	require.NoError(t, s.DeleteBranch(ctx, "k.json", ""))

	_, ok, err := s.ReadInherited(ctx, "k.json", "")
	require.NoError(t, err)
	require.False(t, ok)

	// Deleting again is fine.
	require.NoError(t, s.DeleteBranch(ctx, "k.json", ""))
}

func TestCheckout(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)

	require.Error(t, s.Checkout(ctx, "ghost"))
	require.Equal(t, cow.MainBranch, s.Branch())

	require.NoError(t, s.COW().Fork(ctx, "feature", "", nil))
	require.NoError(t, s.Checkout(ctx, "feature"))
	require.Equal(t, "feature", s.Branch())

	head, err := s.COW().Refs.Head(ctx)
	require.NoError(t, err)
	require.Equal(t, "feature", head)
}

func TestResolvePath(t *testing.T) {
	require.Equal(t, "branches/main/a/b.json", ResolvePath("a/b.json", ""))
	require.Equal(t, "branches/feature/a/b.json", ResolvePath("a/b.json", "feature"))

	// Version-control state is global, never branch-scoped.
	key := cow.RefKey("main")
	require.Equal(t, key, ResolvePath(key, "feature"))
}

func TestPaths(t *testing.T) {
	id := "a14b2f00-0000-4000-8000-000000000000"
	require.Equal(t, "entities/nouns/a1/"+id+"/vectors.json", VectorPath(KindNoun, id))
	require.Equal(t, "entities/verbs/a1/"+id+"/metadata.json", MetadataPath(KindVerb, id))
}
