package backend

import (
	"context"
	"os"
	"time"
)

// ErrNotFound is returned when an object does not exist.
//
// Implementations should return an error that satisfies
// `errors.Is(err, ErrNotFound)`. The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// Adapter is the four-primitive contract every physical backend
// implements. All higher layers (entity storage, the COW layer, batch
// I/O, pagination) are built exclusively from these operations.
//
// Values are opaque JSON bytes; adapters never inspect them.
// Implementations must be safe for concurrent use. Errors other than
// "not found" propagate to the caller as failures, not absence.
type Adapter interface {
	// WriteObject stores value at path, overwriting any existing object.
	WriteObject(ctx context.Context, path string, value []byte) error

	// ReadObject returns the object at path, or ErrNotFound.
	ReadObject(ctx context.Context, path string) ([]byte, error)

	// DeleteObject removes the object at path. Deleting an absent object
	// is not an error.
	DeleteObject(ctx context.Context, path string) error

	// ListPaths returns every object path beginning with prefix, sorted.
	// An unknown prefix yields an empty slice, not an error.
	ListPaths(ctx context.Context, prefix string) ([]string, error)

	// Profile declares the backend's batching and rate characteristics.
	Profile() BatchProfile
}

// BatchReader is an optional interface for adapters with a native
// multi-get primitive. The batch I/O layer prefers it over parallel
// single reads and falls back if the call fails.
type BatchReader interface {
	// ReadObjects returns the objects that exist; missing paths are
	// simply absent from the result map.
	ReadObjects(ctx context.Context, paths []string) (map[string][]byte, error)
}

// BatchWriter is an optional interface for adapters with a native
// multi-put primitive.
type BatchWriter interface {
	WriteObjects(ctx context.Context, objects map[string][]byte) error
}

// RateLimit declares an adapter's sustainable request rate.
type RateLimit struct {
	// OperationsPerSecond is the steady-state request budget.
	// Zero means unlimited.
	OperationsPerSecond float64
	// BurstCapacity is the number of requests that may exceed the
	// steady rate momentarily.
	BurstCapacity int
}

// BatchProfile declares how a backend wants multi-key operations shaped.
// The batch I/O layer chunks to MaxBatchSize, caps fan-out at
// MaxConcurrent and paces calls with RateLimit. Exceeding the declared
// limits is a performance bug, not a correctness failure.
type BatchProfile struct {
	MaxBatchSize           int
	BatchDelay             time.Duration
	MaxConcurrent          int
	SupportsParallelWrites bool
	RateLimit              RateLimit
}

// DefaultProfile is a conservative profile suitable for local backends.
func DefaultProfile() BatchProfile {
	return BatchProfile{
		MaxBatchSize:           64,
		MaxConcurrent:          8,
		SupportsParallelWrites: true,
	}
}

// normalize fills zero fields so consumers never divide by zero or spin
// on an empty chunk size.
func (p BatchProfile) normalize() BatchProfile {
	if p.MaxBatchSize <= 0 {
		p.MaxBatchSize = 64
	}
	if p.MaxConcurrent <= 0 {
		p.MaxConcurrent = 1
	}
	return p
}

// Normalized returns the profile with zero fields defaulted.
func (p BatchProfile) Normalized() BatchProfile { return p.normalize() }
