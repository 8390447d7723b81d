package cow

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/hyphadb/hypha/backend"
	"github.com/hyphadb/hypha/codec"
)

// BlobMeta is the structured side-car stored next to every blob payload.
// It carries everything needed to decode the payload without inspecting
// it: raw size and the compression algorithm name.
type BlobMeta struct {
	Size        int    `json:"size"`
	Compression string `json:"compression"`
}

// BlobStore is content-addressed object storage: identical bytes always
// yield the identical hash and are stored once, deduplicating snapshots
// across commits and branches.
type BlobStore struct {
	adapter    backend.Adapter
	codec      codec.Codec
	compressor Compressor
}

// NewBlobStore creates a blob store over the given adapter. A nil codec
// or compressor falls back to the defaults (go-json, zstd).
func NewBlobStore(adapter backend.Adapter, c codec.Codec, comp Compressor) *BlobStore {
	if c == nil {
		c = codec.Default
	}
	if comp == nil {
		comp = NewZstd()
	}
	return &BlobStore{adapter: adapter, codec: c, compressor: comp}
}

// HashBytes returns the content address (hex SHA-256) of data.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Put stores data under its content address and returns the hash.
//
// Idempotent: if the blob already exists the write is skipped entirely,
// so re-putting identical content across commits costs one existence
// check.
func (b *BlobStore) Put(ctx context.Context, data []byte) (string, error) {
	hash := HashBytes(data)

	// Existence check via the side-car; the payload is written before the
	// side-car, so a visible side-car implies a complete blob.
	if _, err := b.adapter.ReadObject(ctx, BlobMetaKey(hash)); err == nil {
		return hash, nil
	} else if !errors.Is(err, backend.ErrNotFound) {
		return "", fmt.Errorf("check blob %s: %w", hash, err)
	}

	compressed, err := b.compressor.Compress(data)
	if err != nil {
		return "", fmt.Errorf("compress blob %s: %w", hash, err)
	}
	if err := b.adapter.WriteObject(ctx, BlobKey(hash), compressed); err != nil {
		return "", fmt.Errorf("write blob %s: %w", hash, err)
	}

	meta := BlobMeta{Size: len(data), Compression: b.compressor.Name()}
	raw, err := b.codec.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("encode blob meta %s: %w", hash, err)
	}
	if err := b.adapter.WriteObject(ctx, BlobMetaKey(hash), raw); err != nil {
		return "", fmt.Errorf("write blob meta %s: %w", hash, err)
	}
	return hash, nil
}

// Get returns the blob for hash, or (nil, false, nil) if absent.
//
// The side-car's recorded algorithm drives decompression; blobs written
// with a different compressor than the store's current one still decode.
func (b *BlobStore) Get(ctx context.Context, hash string) ([]byte, bool, error) {
	raw, err := b.adapter.ReadObject(ctx, BlobMetaKey(hash))
	if errors.Is(err, backend.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read blob meta %s: %w", hash, err)
	}

	var meta BlobMeta
	if err := b.codec.Unmarshal(raw, &meta); err != nil {
		return nil, false, fmt.Errorf("decode blob meta %s: %w", hash, err)
	}

	payload, err := b.adapter.ReadObject(ctx, BlobKey(hash))
	if errors.Is(err, backend.ErrNotFound) {
		// Meta without payload: treat as absent, the write was torn.
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read blob %s: %w", hash, err)
	}

	comp, ok := CompressorByName(meta.Compression)
	if !ok {
		return nil, false, fmt.Errorf("blob %s: unknown compression %q", hash, meta.Compression)
	}
	data, err := comp.Decompress(payload)
	if err != nil {
		return nil, false, err
	}
	if meta.Size >= 0 && len(data) != meta.Size {
		return nil, false, fmt.Errorf("blob %s: size mismatch, meta %d payload %d", hash, meta.Size, len(data))
	}
	return data, true, nil
}
