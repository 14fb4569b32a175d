package ldb

import (
	"context"

	"github.com/kaspanet/chainstore/infrastructure/db/database"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
)

// transaction is a thin wrapper around native leveldb transactions.
// leveldb allows a single open transaction per database, so holding one
// serializes writers.
type transaction struct {
	ldbTx    *leveldb.Transaction
	isClosed bool
}

// Block returns the serialized block stored under the given hash,
// including blocks inserted earlier in this transaction.
func (tx *transaction) Block(ctx context.Context, hash []byte) ([]byte, error) {
	if tx.isClosed {
		return nil, errors.WithStack(database.ErrClosedTransaction)
	}
	return get(ctx, tx.ldbTx, blockKey(hash))
}

// IndexEntry returns the index entry of the block with the given hash,
// including entries inserted earlier in this transaction.
func (tx *transaction) IndexEntry(ctx context.Context, hash []byte) (*database.IndexEntry, error) {
	if tx.isClosed {
		return nil, errors.WithStack(database.ErrClosedTransaction)
	}
	return getIndexEntry(ctx, tx.ldbTx, hash)
}

// Tag returns the block hash the given tag points at.
func (tx *transaction) Tag(ctx context.Context, name string) ([]byte, error) {
	if tx.isClosed {
		return nil, errors.WithStack(database.ErrClosedTransaction)
	}
	return get(ctx, tx.ldbTx, tagKey(name))
}

// InsertBlock stores the serialized block under the given hash.
func (tx *transaction) InsertBlock(ctx context.Context, hash []byte, block []byte) error {
	if tx.isClosed {
		return errors.WithStack(database.ErrClosedTransaction)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	key := blockKey(hash)
	exists, err := tx.ldbTx.Has(key, nil)
	if err != nil {
		return errors.WithStack(err)
	}
	if exists {
		return errors.Wrapf(database.ErrAlreadyExists, "block %x", hash)
	}
	return errors.WithStack(tx.ldbTx.Put(key, block, nil))
}

// InsertIndexEntry stores the given index entry. The entry's block must
// have been stored beforehand.
func (tx *transaction) InsertIndexEntry(ctx context.Context, entry *database.IndexEntry) error {
	if tx.isClosed {
		return errors.WithStack(database.ErrClosedTransaction)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	blockExists, err := tx.ldbTx.Has(blockKey(entry.Hash), nil)
	if err != nil {
		return errors.WithStack(err)
	}
	if !blockExists {
		return errors.Wrapf(database.ErrMissingReference, "index entry for unstored block %x", entry.Hash)
	}
	key := indexEntryKey(entry.Hash)
	exists, err := tx.ldbTx.Has(key, nil)
	if err != nil {
		return errors.WithStack(err)
	}
	if exists {
		return errors.Wrapf(database.ErrAlreadyExists, "index entry %x", entry.Hash)
	}
	return errors.WithStack(tx.ldbTx.Put(key, serializeIndexEntry(entry), nil))
}

// Commit commits whatever changes were made to the database
// within this transaction.
func (tx *transaction) Commit() error {
	if tx.isClosed {
		return errors.New("cannot commit a closed transaction")
	}

	tx.isClosed = true
	err := tx.ldbTx.Commit()
	if err != nil {
		// A failed commit leaves the transaction open and holding
		// the write lock.
		tx.ldbTx.Discard()
		return errors.WithStack(err)
	}
	return nil
}

// Rollback rolls back whatever changes were made to the
// database within this transaction.
func (tx *transaction) Rollback() error {
	if tx.isClosed {
		return errors.New("cannot rollback a closed transaction")
	}

	tx.isClosed = true
	tx.ldbTx.Discard()
	return nil
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
