package cow

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
)

// Compressor compresses blob payloads before they are content-addressed
// into the backend. The algorithm name is recorded in the blob's side-car
// record so decoding is always driven by declared metadata, never by
// sniffing bytes.
//
// Implementations must be safe for concurrent use.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
	Name() string
}

// CompressorByName returns a built-in compressor by its stable name.
func CompressorByName(name string) (Compressor, bool) {
	switch name {
	case "none", "":
		return NoCompression{}, true
	case "zstd":
		return NewZstd(), true
	case "lz4":
		return LZ4{}, true
	case "xz":
		return XZ{}, true
	default:
		return nil, false
	}
}

// NoCompression stores payloads verbatim.
type NoCompression struct{}

// Compress returns data unchanged.
func (NoCompression) Compress(data []byte) ([]byte, error) { return data, nil }

// Decompress returns data unchanged.
func (NoCompression) Decompress(data []byte) ([]byte, error) { return data, nil }

// Name returns "none".
func (NoCompression) Name() string { return "none" }

// Zstd compresses with zstandard, the default for blob payloads: good
// ratios on JSON at low CPU cost.
type Zstd struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// NewZstd creates a zstd compressor at the default level.
func NewZstd() *Zstd {
	// Both constructors only fail on invalid options; none are passed.
	enc, _ := zstd.NewWriter(nil)
	dec, _ := zstd.NewReader(nil)
	return &Zstd{enc: enc, dec: dec}
}

// Compress encodes data with zstd.
func (z *Zstd) Compress(data []byte) ([]byte, error) {
	return z.enc.EncodeAll(data, nil), nil
}

// Decompress decodes zstd data.
func (z *Zstd) Decompress(data []byte) ([]byte, error) {
	out, err := z.dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	return out, nil
}

// Name returns "zstd".
func (z *Zstd) Name() string { return "zstd" }

// LZ4 trades ratio for speed; useful for hot branches on fast local
// storage.
type LZ4 struct{}

// Compress encodes data as an lz4 frame.
func (LZ4) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("lz4 flush: %w", err)
	}
	return buf.Bytes(), nil
}

// Decompress decodes an lz4 frame.
func (LZ4) Decompress(data []byte) ([]byte, error) {
	r := lz4.NewReader(bytes.NewReader(data))
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress: %w", err)
	}
	return out, nil
}

// Name returns "lz4".
func (LZ4) Name() string { return "lz4" }

// XZ maximizes ratio for cold archival branches at significant CPU cost.
type XZ struct{}

// Compress encodes data as an xz stream.
func (XZ) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		return nil, fmt.Errorf("xz writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("xz compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("xz flush: %w", err)
	}
	return buf.Bytes(), nil
}

// Decompress decodes an xz stream.
func (XZ) Decompress(data []byte) ([]byte, error) {
	r, err := xz.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("xz reader: %w", err)
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("xz decompress: %w", err)
	}
	return out, nil
}

// Name returns "xz".
func (XZ) Name() string { return "xz" }
