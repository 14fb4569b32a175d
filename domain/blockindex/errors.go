package blockindex

import (
	"fmt"

	"github.com/kaspanet/chainstore/infrastructure/db/database"
	"github.com/pkg/errors"
)

var (
	// ErrBlockNotFound denotes that a requested block, or a block
	// referred to by a tag, isn't stored.
	ErrBlockNotFound = errors.New("block not found")

	// ErrCannotIterate denotes a range request whose lower end isn't an
	// ancestor of its upper end.
	ErrCannotIterate = errors.New("cannot iterate: from is not an ancestor of to")

	// ErrMissingParent denotes an insert of a block whose non-zero parent
	// isn't stored.
	ErrMissingParent = errors.New("missing parent block")

	// ErrBlockAlreadyPresent denotes that a concurrent writer inserted
	// the same block between the existence check and the insert.
	ErrBlockAlreadyPresent = errors.New("block already present")

	// ErrBlock0InFuture is reserved for genesis ordering validation and
	// is currently never returned.
	ErrBlock0InFuture = errors.New("block 0 is in the future")

	// ErrDistanceOutOfRange denotes an ancestor request reaching at or
	// beyond genesis, that is, with a distance not smaller than the
	// starting block's chain length.
	ErrDistanceOutOfRange = errors.New("ancestor distance out of range")
)

// BackendError wraps a failure of the underlying database that has no
// meaning at the block index level, such as an I/O fault or an exhausted
// connection pool.
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s: backend error: %s", e.Op, e.Err)
}

// Unwrap returns the underlying database error.
func (e *BackendError) Unwrap() error {
	return e.Err
}

// IsBackendError checks whether err is, or wraps, a *BackendError.
func IsBackendError(err error) bool {
	var backendErr *BackendError
	return errors.As(err, &backendErr)
}

// backendError classifies a database error returned while performing
// op. Not-found and constraint conditions become the given domain
// errors when non-nil; anything else, including a done context while
// waiting for a pooled connection, is wrapped in a *BackendError.
func backendError(op string, err error, notFound error, alreadyExists error) error {
	switch {
	case notFound != nil && database.IsNotFoundError(err):
		return errors.Wrap(notFound, err.Error())
	case alreadyExists != nil && database.IsAlreadyExistsError(err):
		return errors.Wrap(alreadyExists, err.Error())
	}
	return &BackendError{Op: op, Err: err}
}
