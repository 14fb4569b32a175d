package sqldb

import (
	"context"
	"database/sql"

	"github.com/kaspanet/chainstore/infrastructure/db/database"
	"github.com/pkg/errors"
)

// transaction is a thin wrapper around *sql.Tx. It holds its pooled
// connection until it is committed or rolled back.
type transaction struct {
	sqlTx    *sql.Tx
	dialect  *dialect
	isClosed bool
}

// Block returns the serialized block stored under the given hash,
// including blocks inserted earlier in this transaction.
func (tx *transaction) Block(ctx context.Context, hash []byte) ([]byte, error) {
	if tx.isClosed {
		return nil, errors.WithStack(database.ErrClosedTransaction)
	}
	return queryBlock(ctx, tx.sqlTx, tx.dialect, hash)
}

// IndexEntry returns the index entry of the block with the given hash,
// including entries inserted earlier in this transaction.
func (tx *transaction) IndexEntry(ctx context.Context, hash []byte) (*database.IndexEntry, error) {
	if tx.isClosed {
		return nil, errors.WithStack(database.ErrClosedTransaction)
	}
	return queryIndexEntry(ctx, tx.sqlTx, tx.dialect, hash)
}

// Tag returns the block hash the given tag points at.
func (tx *transaction) Tag(ctx context.Context, name string) ([]byte, error) {
	if tx.isClosed {
		return nil, errors.WithStack(database.ErrClosedTransaction)
	}
	return queryTag(ctx, tx.sqlTx, tx.dialect, name)
}

// InsertBlock stores the serialized block under the given hash.
func (tx *transaction) InsertBlock(ctx context.Context, hash []byte, block []byte) error {
	if tx.isClosed {
		return errors.WithStack(database.ErrClosedTransaction)
	}
	return insertBlock(ctx, tx.sqlTx, tx.dialect, hash, block)
}

// InsertIndexEntry stores the given index entry. The entry's block must
// have been stored beforehand.
func (tx *transaction) InsertIndexEntry(ctx context.Context, entry *database.IndexEntry) error {
	if tx.isClosed {
		return errors.WithStack(database.ErrClosedTransaction)
	}
	return insertIndexEntry(ctx, tx.sqlTx, tx.dialect, entry)
}

// Commit commits whatever changes were made to the database
// within this transaction.
func (tx *transaction) Commit() error {
	if tx.isClosed {
		return errors.New("cannot commit a closed transaction")
	}

	tx.isClosed = true
	return errors.Wrap(tx.sqlTx.Commit(), "failed committing transaction")
}

// Rollback rolls back whatever changes were made to the
// database within this transaction.
func (tx *transaction) Rollback() error {
	if tx.isClosed {
		return errors.New("cannot rollback a closed transaction")
	}

	tx.isClosed = true
	err := tx.sqlTx.Rollback()
	// The transaction is already rolled back when its context is done.
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return errors.Wrap(err, "failed rolling back transaction")
}

// RollbackUnlessClosed rolls back changes that were made to
// the database within the transaction, unless the transaction
// had already been closed using either Rollback or Commit.
func (tx *transaction) RollbackUnlessClosed() error {
	if tx.isClosed {
		return nil
	}
	return tx.Rollback()
}
