package blockindex

import (
	"bytes"
	"context"

	"github.com/kaspanet/chainstore/infrastructure/db/database"
	"github.com/kaspanet/chainstore/infrastructure/db/database/ldb"
	"github.com/kaspanet/chainstore/infrastructure/db/database/sqldb"
	"github.com/pkg/errors"
)

// Store is an append-only store of blocks that indexes their ancestry.
// A *Store is safe for concurrent use by multiple goroutines and is meant
// to be shared: every call draws on the database's own connection pool
// or locking, and records are immutable once written.
type Store struct {
	db      database.Database
	cfg     *Config
	cache   *blockInfoCache
	metrics *metrics
}

// Open returns a Store over db. The Store takes ownership of db and
// closes it on Close.
func Open(db database.Database, cfg *Config) (*Store, error) {
	if cfg == nil {
		cfg = DefaultConfig(nil)
	}
	metrics, err := newMetrics(cfg.Registerer)
	if err != nil {
		return nil, err
	}
	cache, err := newBlockInfoCache(cfg.CacheSize, metrics)
	if err != nil {
		return nil, err
	}
	return &Store{
		db:      db,
		cfg:     cfg,
		cache:   cache,
		metrics: metrics,
	}, nil
}

// OpenMemory returns a Store kept in an in-memory SQLite database. Its
// contents are visible to every pooled connection and are lost on Close.
func OpenMemory(ctx context.Context, cfg *Config) (*Store, error) {
	db, err := sqldb.OpenMemorySQLite(ctx, sqlConfig(cfg))
	if err != nil {
		return nil, err
	}
	return openOrClose(db, cfg)
}

// OpenFile returns a Store kept in the SQLite database file at path,
// creating it if needed.
func OpenFile(ctx context.Context, path string, cfg *Config) (*Store, error) {
	db, err := sqldb.OpenSQLite(ctx, path, sqlConfig(cfg))
	if err != nil {
		return nil, err
	}
	return openOrClose(db, cfg)
}

// OpenPostgres returns a Store kept in the Postgres database described
// by dsn.
func OpenPostgres(ctx context.Context, dsn string, cfg *Config) (*Store, error) {
	db, err := sqldb.OpenPostgres(ctx, dsn, sqlConfig(cfg))
	if err != nil {
		return nil, err
	}
	return openOrClose(db, cfg)
}

// OpenLevelDB returns a Store kept in the leveldb database at path,
// creating it if needed. An empty path opens an in-memory database.
func OpenLevelDB(path string, cfg *Config) (*Store, error) {
	var db *ldb.LevelDB
	var err error
	if path == "" {
		db, err = ldb.NewMemoryLevelDB()
	} else {
		db, err = ldb.NewLevelDB(path)
	}
	if err != nil {
		return nil, err
	}
	return openOrClose(db, cfg)
}

func sqlConfig(cfg *Config) *sqldb.Config {
	if cfg == nil {
		return nil
	}
	return cfg.SQL
}

func openOrClose(db database.Database, cfg *Config) (*Store, error) {
	store, err := Open(db, cfg)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) operationContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.OperationTimeout <= 0 {
		return ctx, func() {}
	}
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.cfg.OperationTimeout)
}

// PutBlock stores block and indexes it. Storing a block that is already
// present succeeds without writing anything. The block's parent must be
// stored beforehand unless it is ZeroHash, otherwise ErrMissingParent is
// returned. If another writer stores the same block concurrently, one of
// the two calls may fail with ErrBlockAlreadyPresent.
func (s *Store) PutBlock(ctx context.Context, block Block) error {
	ctx, cancel := s.operationContext(ctx)
	defer cancel()

	hash := block.ID()
	exists, err := s.blockExists(ctx, hash)
	if err != nil {
		return err
	}
	if exists {
		log.Tracef("Block %s is already stored", hash)
		return nil
	}

	info, err := s.newBlockInfo(ctx, hash, block.ParentID())
	if err != nil {
		return err
	}

	var serialized bytes.Buffer
	err = block.Serialize(&serialized)
	if err != nil {
		return errors.Wrapf(err, "failed serializing block %s", hash)
	}

	// All reads are done by now, so the transaction is the only pooled
	// connection this call holds.
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return backendError("PutBlock", err, nil, nil)
	}
	defer tx.RollbackUnlessClosed()

	err = tx.InsertBlock(ctx, hash[:], serialized.Bytes())
	if err != nil {
		return s.insertError(err)
	}
	err = tx.InsertIndexEntry(ctx, info.toIndexEntry())
	if err != nil {
		return s.insertError(err)
	}
	err = tx.Commit()
	if err != nil {
		return s.insertError(err)
	}

	s.metrics.blocksInserted.Inc()
	s.cache.add(info)
	log.Debugf("Stored block %s", info)
	return nil
}

func (s *Store) insertError(err error) error {
	err = backendError("PutBlock", err, nil, ErrBlockAlreadyPresent)
	if errors.Is(err, ErrBlockAlreadyPresent) {
		s.metrics.insertRaces.Inc()
	}
	return err
}

// newBlockInfo derives the BlockInfo of a new block from its parent's.
func (s *Store) newBlockInfo(ctx context.Context, hash Hash, parentHash Hash) (*BlockInfo, error) {
	info := &BlockInfo{
		Hash:      hash,
		BackLinks: []BackLink{{Distance: 1, Hash: parentHash}},
	}
	if parentHash.IsZero() {
		info.ChainLength = 1
		return info, nil
	}

	parentInfo, err := s.getBlockInfo(ctx, parentHash)
	if err != nil {
		if errors.Is(err, ErrBlockNotFound) {
			return nil, errors.Wrapf(ErrMissingParent, "parent %s of block %s", parentHash, hash)
		}
		return nil, err
	}
	info.ChainLength = parentInfo.ChainLength + 1

	if target, ok := fastLinkTarget(info.ChainLength); ok {
		fastLinkInfo, err := s.seek(ctx, parentInfo, parentInfo.ChainLength-target, nil)
		if err != nil {
			return nil, err
		}
		info.BackLinks = append(info.BackLinks, BackLink{
			Distance: info.ChainLength - target,
			Hash:     fastLinkInfo.Hash,
		})
	}
	return info, nil
}

// GetBlock returns the block stored under hash along with its BlockInfo.
// It requires Config.Decoder.
func (s *Store) GetBlock(ctx context.Context, hash Hash) (Block, *BlockInfo, error) {
	if s.cfg.Decoder == nil {
		return nil, nil, errors.New("GetBlock requires a block decoder")
	}
	ctx, cancel := s.operationContext(ctx)
	defer cancel()

	serialized, err := s.getBlockBytes(ctx, hash)
	if err != nil {
		return nil, nil, err
	}
	block, err := s.cfg.Decoder(serialized)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed decoding block %s", hash)
	}
	info, err := s.getBlockInfo(ctx, hash)
	if err != nil {
		return nil, nil, err
	}
	return block, info, nil
}

// GetBlockBytes returns the serialized payload of the block stored under
// hash.
func (s *Store) GetBlockBytes(ctx context.Context, hash Hash) ([]byte, error) {
	ctx, cancel := s.operationContext(ctx)
	defer cancel()

	return s.getBlockBytes(ctx, hash)
}

func (s *Store) getBlockBytes(ctx context.Context, hash Hash) ([]byte, error) {
	serialized, err := s.db.Block(ctx, hash[:])
	if err != nil {
		return nil, backendError("GetBlock", err, ErrBlockNotFound, nil)
	}
	return serialized, nil
}

// GetBlockInfo returns the BlockInfo of the block stored under hash.
func (s *Store) GetBlockInfo(ctx context.Context, hash Hash) (*BlockInfo, error) {
	ctx, cancel := s.operationContext(ctx)
	defer cancel()

	return s.getBlockInfo(ctx, hash)
}

func (s *Store) getBlockInfo(ctx context.Context, hash Hash) (*BlockInfo, error) {
	if info, ok := s.cache.get(hash); ok {
		return info, nil
	}
	entry, err := s.db.IndexEntry(ctx, hash[:])
	if err != nil {
		return nil, backendError("GetBlockInfo", err, ErrBlockNotFound, nil)
	}
	info, err := blockInfoFromIndexEntry(entry)
	if err != nil {
		return nil, &BackendError{Op: "GetBlockInfo", Err: err}
	}
	s.cache.add(info)
	return info, nil
}

// BlockExists returns whether a block is stored under hash.
func (s *Store) BlockExists(ctx context.Context, hash Hash) (bool, error) {
	ctx, cancel := s.operationContext(ctx)
	defer cancel()

	return s.blockExists(ctx, hash)
}

func (s *Store) blockExists(ctx context.Context, hash Hash) (bool, error) {
	_, err := s.getBlockInfo(ctx, hash)
	if err != nil {
		if errors.Is(err, ErrBlockNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// PutTag points the tag name at the stored block hash, replacing any
// previous target. It returns ErrBlockNotFound if hash isn't stored.
func (s *Store) PutTag(ctx context.Context, name string, hash Hash) error {
	ctx, cancel := s.operationContext(ctx)
	defer cancel()

	err := s.db.PutTag(ctx, name, hash[:])
	if err != nil {
		if database.IsMissingReferenceError(err) {
			return errors.Wrapf(ErrBlockNotFound, "tag %s points at %s", name, hash)
		}
		return backendError("PutTag", err, nil, nil)
	}
	log.Debugf("Tag %s now points at %s", name, hash)
	return nil
}

// GetTag returns the hash the tag name points at. found is false if no
// such tag exists.
func (s *Store) GetTag(ctx context.Context, name string) (hash Hash, found bool, err error) {
	ctx, cancel := s.operationContext(ctx)
	defer cancel()

	hashBytes, err := s.db.Tag(ctx, name)
	if err != nil {
		if database.IsNotFoundError(err) {
			return ZeroHash, false, nil
		}
		return ZeroHash, false, backendError("GetTag", err, nil, nil)
	}
	hash, err = NewHashFromSlice(hashBytes)
	if err != nil {
		return ZeroHash, false, &BackendError{Op: "GetTag", Err: err}
	}
	return hash, true, nil
}
