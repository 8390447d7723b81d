package cow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyphadb/hypha/backend"
)

func TestBlobStore_PutGet(t *testing.T) {
	ctx := context.Background()
	adapter := backend.NewMemoryAdapter()
	bs := NewBlobStore(adapter, nil, nil)

	data := []byte(`{"id":"x","vector":[1,2,3]}`)
	hash, err := bs.Put(ctx, data)
	require.NoError(t, err)
	require.Equal(t, HashBytes(data), hash)

	got, ok, err := bs.Get(ctx, hash)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, data, got)
}

func TestBlobStore_GetAbsent(t *testing.T) {
	bs := NewBlobStore(backend.NewMemoryAdapter(), nil, nil)

	_, ok, err := bs.Get(context.Background(), HashBytes([]byte("never stored")))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestBlobStore_PutIdempotent(t *testing.T) {
	ctx := context.Background()
	adapter := backend.NewMemoryAdapter()
	bs := NewBlobStore(adapter, nil, nil)

	data := []byte("same content")
	h1, err := bs.Put(ctx, data)
	require.NoError(t, err)
	before := adapter.Len()

	h2, err := bs.Put(ctx, data)
	require.NoError(t, err)
	require.Equal(t, h1, h2)
	require.Equal(t, before, adapter.Len())
}

func TestBlobStore_CrossCompressorDecode(t *testing.T) {
	// The side-car records the algorithm, so a store reopened with a
	// different compressor still reads old blobs.
	ctx := context.Background()
	adapter := backend.NewMemoryAdapter()
	data := []byte("written with lz4, read with zstd store")

	writer := NewBlobStore(adapter, nil, LZ4{})
	hash, err := writer.Put(ctx, data)
	require.NoError(t, err)

	reader := NewBlobStore(adapter, nil, NewZstd())
	got, ok, err := reader.Get(ctx, hash)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, data, got)
}

func TestCompressors_RoundTrip(t *testing.T) {
	payload := []byte(`{"repeated":"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"}`)
	for _, c := range []Compressor{NoCompression{}, NewZstd(), LZ4{}, XZ{}} {
		compressed, err := c.Compress(payload)
		require.NoError(t, err, c.Name())

		out, err := c.Decompress(compressed)
		require.NoError(t, err, c.Name())
		require.Equal(t, payload, out, c.Name())
	}
}

func TestCompressorByName(t *testing.T) {
	for _, name := range []string{"none", "zstd", "lz4", "xz"} {
		c, ok := CompressorByName(name)
		require.True(t, ok, name)
		require.Equal(t, name, c.Name())
	}
	_, ok := CompressorByName("brotli")
	require.False(t, ok)
}
