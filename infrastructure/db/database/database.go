package database

import "context"

// Database defines the interface of a chainstore backend. Implementations
// must be safe for concurrent use. Reads made directly on the Database
// observe committed data only.
type Database interface {
	DataAccessor
	TagWriter

	// Begin begins a new write transaction. Depending on the backend,
	// Begin may block until concurrent write transactions are done or
	// until ctx is done.
	Begin(ctx context.Context) (Transaction, error)

	// Close closes the database.
	Close() error
}

// Transaction defines the interface of a chainstore write transaction.
// Everything written through a transaction becomes visible atomically on
// Commit, or not at all.
type Transaction interface {
	DataAccessor

	// InsertBlock stores the serialized block under the given hash.
	// It returns ErrAlreadyExists if the hash is already stored.
	InsertBlock(ctx context.Context, hash []byte, block []byte) error

	// InsertIndexEntry stores the given index entry. It returns
	// ErrAlreadyExists if the hash is already indexed and
	// ErrMissingReference if its block was not stored.
	InsertIndexEntry(ctx context.Context, entry *IndexEntry) error

	// Rollback rolls back whatever changes were made to the
	// database within this transaction.
	Rollback() error

	// Commit commits whatever changes were made to the database
	// within this transaction.
	Commit() error

	// RollbackUnlessClosed rolls back changes that were made to
	// the database within the transaction, unless the transaction
	// had already been closed using either Rollback or Commit.
	RollbackUnlessClosed() error
}
