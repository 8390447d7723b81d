package hypha

import (
	"github.com/hyphadb/hypha/codec"
	"github.com/hyphadb/hypha/cow"
)

type options struct {
	codec             codec.Codec
	compressor        cow.Compressor
	logger            *Logger
	branch            string
	statsPersistEvery int
}

// Option configures Open behavior.
type Option func(*options)

// WithCodec configures the codec used for persisted records. If nil is
// passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithCompressor configures the compression applied to content-addressed
// blobs. Built-ins: zstd (default), lz4, xz, none. Blobs written with a
// different compressor remain readable; the algorithm is recorded per
// blob.
func WithCompressor(c cow.Compressor) Option {
	return func(o *options) {
		o.compressor = c
	}
}

// WithLogger configures structured logging. Defaults to a text logger at
// Info level.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithBranch opens the database checked out on the given branch instead
// of the branch recorded in HEAD. The branch must already exist unless
// it is main.
func WithBranch(branch string) Option {
	return func(o *options) {
		o.branch = branch
	}
}

// WithStatsPersistEvery bounds statistics write amplification: a
// counter snapshot is queued every n changes (default 64).
func WithStatsPersistEvery(n int) Option {
	return func(o *options) {
		o.statsPersistEvery = n
	}
}
