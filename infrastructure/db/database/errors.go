package database

import "github.com/pkg/errors"

var (
	// ErrNotFound denotes that the requested item was not
	// found in the database.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists denotes that an insert hit an item that
	// is already stored under the same key.
	ErrAlreadyExists = errors.New("already exists")

	// ErrMissingReference denotes that a write refers to an item
	// that isn't stored, such as a tag pointing at an unindexed block.
	ErrMissingReference = errors.New("missing reference")

	// ErrClosedTransaction denotes an operation on a transaction
	// that had already been committed or rolled back.
	ErrClosedTransaction = errors.New("transaction is closed")
)

// IsNotFoundError checks whether an error is an ErrNotFound.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExistsError checks whether an error is an ErrAlreadyExists.
func IsAlreadyExistsError(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsMissingReferenceError checks whether an error is an ErrMissingReference.
func IsMissingReferenceError(err error) bool {
	return errors.Is(err, ErrMissingReference)
}
