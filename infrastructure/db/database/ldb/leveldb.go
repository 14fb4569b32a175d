package ldb

import (
	"context"

	"github.com/kaspanet/chainstore/infrastructure/db/database"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	ldbErrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
)

// LevelDB defines a thin wrapper around leveldb that implements
// database.Database. Write transactions are exclusive: leveldb lets only
// one transaction be open at a time, and plain reads keep seeing the last
// committed state while it is open.
type LevelDB struct {
	ldb *leveldb.DB
}

// NewLevelDB opens a leveldb instance defined by the given path.
func NewLevelDB(path string) (*LevelDB, error) {
	// Open leveldb. If it doesn't exist, create it.
	ldb, err := leveldb.OpenFile(path, Options())

	// If the database is corrupted, attempt to recover.
	if _, corrupted := err.(*ldbErrors.ErrCorrupted); corrupted {
		log.Warnf("LevelDB corruption detected for path %s: %s",
			path, err)
		ldb, err = leveldb.RecoverFile(path, Options())
		if err != nil {
			return nil, errors.Wrapf(err, "failed recovering leveldb at %s", path)
		}
		log.Warnf("LevelDB recovered from corruption for path %s",
			path)
	}

	// If the database cannot be opened for any other
	// reason, return the error.
	if err != nil {
		return nil, errors.Wrapf(err, "failed opening leveldb at %s", path)
	}

	log.Debugf("Opened leveldb at %s", path)
	return &LevelDB{ldb: ldb}, nil
}

// NewMemoryLevelDB opens a leveldb instance kept entirely in memory. Its
// contents are lost once it is closed.
func NewMemoryLevelDB() (*LevelDB, error) {
	ldb, err := leveldb.Open(storage.NewMemStorage(), Options())
	if err != nil {
		return nil, errors.Wrap(err, "failed opening in-memory leveldb")
	}
	return &LevelDB{ldb: ldb}, nil
}

// Close closes the leveldb instance.
func (db *LevelDB) Close() error {
	return errors.WithStack(db.ldb.Close())
}

// Block returns the serialized block stored under the given hash.
func (db *LevelDB) Block(ctx context.Context, hash []byte) ([]byte, error) {
	return get(ctx, db.ldb, blockKey(hash))
}

// IndexEntry returns the index entry of the block with the given hash.
func (db *LevelDB) IndexEntry(ctx context.Context, hash []byte) (*database.IndexEntry, error) {
	return getIndexEntry(ctx, db.ldb, hash)
}

// Tag returns the block hash the given tag points at.
func (db *LevelDB) Tag(ctx context.Context, name string) ([]byte, error) {
	return get(ctx, db.ldb, tagKey(name))
}

// PutTag points the given tag at the given block hash.
func (db *LevelDB) PutTag(ctx context.Context, name string, hash []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	// Index entries are never removed, so the reference can't go stale
	// between this check and the put.
	exists, err := db.ldb.Has(indexEntryKey(hash), nil)
	if err != nil {
		return errors.WithStack(err)
	}
	if !exists {
		return errors.Wrapf(database.ErrMissingReference, "tag %s points at unindexed block %x", name, hash)
	}
	return errors.WithStack(db.ldb.Put(tagKey(name), hash, nil))
}

// Begin begins a new write transaction. It blocks while another
// transaction is open.
func (db *LevelDB) Begin(ctx context.Context) (database.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ldbTx, err := db.ldb.OpenTransaction()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &transaction{ldbTx: ldbTx}, nil
}

// reader is implemented by both *leveldb.DB and *leveldb.Transaction.
type reader interface {
	Get(key []byte, ro *opt.ReadOptions) ([]byte, error)
	Has(key []byte, ro *opt.ReadOptions) (bool, error)
}

func get(ctx context.Context, r reader, key []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := r.Get(key, nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, errors.Wrapf(database.ErrNotFound, "key %q not found", key)
		}
		return nil, errors.WithStack(err)
	}
	return data, nil
}

func getIndexEntry(ctx context.Context, r reader, hash []byte) (*database.IndexEntry, error) {
	serialized, err := get(ctx, r, indexEntryKey(hash))
	if err != nil {
		return nil, err
	}
	return deserializeIndexEntry(hash, serialized)
}
