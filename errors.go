package hypha

import (
	"errors"
	"fmt"

	"github.com/hyphadb/hypha/backend"
)

// ErrNotFound is the read-path absence sentinel, re-exported from the
// backend package so facade callers need only one import.
var ErrNotFound = backend.ErrNotFound

// ErrClosed is returned by operations on a closed DB.
var ErrClosed = errors.New("database is closed")

// ErrBranchExists indicates a fork target that already exists.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrBranchExists struct {
	Branch string
	cause  error
}

func (e *ErrBranchExists) Error() string {
	return fmt.Sprintf("branch already exists: %s", e.Branch)
}

func (e *ErrBranchExists) Unwrap() error { return e.cause }

// ErrUnknownBranch indicates an operation against a branch with no ref.
type ErrUnknownBranch struct {
	Branch string
	cause  error
}

func (e *ErrUnknownBranch) Error() string {
	return fmt.Sprintf("unknown branch: %s", e.Branch)
}

func (e *ErrUnknownBranch) Unwrap() error { return e.cause }
