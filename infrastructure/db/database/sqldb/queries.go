package sqldb

import (
	"context"
	"database/sql"

	"github.com/kaspanet/chainstore/infrastructure/db/database"
	"github.com/pkg/errors"
)

// queryer is implemented by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

const (
	selectBlockQuery      = `select block from blocks where hash = ?`
	selectIndexEntryQuery = `select chain_length, parent, fast_distance, fast_hash from block_index where hash = ?`
	selectTagQuery        = `select hash from tags where name = ?`
	insertBlockQuery      = `insert into blocks (hash, block) values (?, ?)`
	insertIndexEntryQuery = `insert into block_index (hash, chain_length, parent, fast_distance, fast_hash)
		values (?, ?, ?, ?, ?)`
)

func queryBlock(ctx context.Context, q queryer, dialect *dialect, hash []byte) ([]byte, error) {
	var block []byte
	err := q.QueryRowContext(ctx, dialect.rebind(selectBlockQuery), hash).Scan(&block)
	if err != nil {
		return nil, wrapQueryError(err, "block %x", hash)
	}
	return block, nil
}

func queryIndexEntry(ctx context.Context, q queryer, dialect *dialect, hash []byte) (*database.IndexEntry, error) {
	var chainLength int64
	var fastDistance sql.NullInt64
	entry := &database.IndexEntry{Hash: hash}
	err := q.QueryRowContext(ctx, dialect.rebind(selectIndexEntryQuery), hash).
		Scan(&chainLength, &entry.Parent, &fastDistance, &entry.FastHash)
	if err != nil {
		return nil, wrapQueryError(err, "index entry %x", hash)
	}
	if chainLength <= 0 {
		return nil, errors.Errorf("index entry %x has invalid chain length %d", hash, chainLength)
	}
	entry.ChainLength = uint64(chainLength)
	if fastDistance.Valid {
		entry.FastDistance = uint64(fastDistance.Int64)
	}
	return entry, nil
}

func queryTag(ctx context.Context, q queryer, dialect *dialect, name string) ([]byte, error) {
	var hash []byte
	err := q.QueryRowContext(ctx, dialect.rebind(selectTagQuery), name).Scan(&hash)
	if err != nil {
		return nil, wrapQueryError(err, "tag %s", name)
	}
	return hash, nil
}

func wrapQueryError(err error, format string, args ...interface{}) error {
	if errors.Is(err, sql.ErrNoRows) {
		return errors.Wrapf(database.ErrNotFound, format, args...)
	}
	return errors.Wrapf(err, "failed querying "+format, args...)
}

func insertBlock(ctx context.Context, q queryer, dialect *dialect, hash []byte, block []byte) error {
	_, err := q.ExecContext(ctx, dialect.rebind(insertBlockQuery), hash, block)
	if err != nil {
		return dialect.wrapError(err, "failed inserting block %x", hash)
	}
	return nil
}

func insertIndexEntry(ctx context.Context, q queryer, dialect *dialect, entry *database.IndexEntry) error {
	var fastDistance, fastHash interface{}
	if entry.HasFastLink() {
		fastDistance = int64(entry.FastDistance)
		fastHash = entry.FastHash
	}
	_, err := q.ExecContext(ctx, dialect.rebind(insertIndexEntryQuery),
		entry.Hash, int64(entry.ChainLength), entry.Parent, fastDistance, fastHash)
	if err != nil {
		return dialect.wrapError(err, "failed inserting index entry %x", entry.Hash)
	}
	return nil
}
