package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"sync/atomic"

	"github.com/kaspanet/chainstore/infrastructure/db/database"
	"github.com/kaspanet/chainstore/infrastructure/logger"
	"github.com/pkg/errors"

	// Registers the postgres driver
	_ "github.com/lib/pq"
	// Registers the sqlite3 driver
	_ "github.com/mattn/go-sqlite3"
)

// SQLDB implements database.Database on top of a database/sql connection
// pool. Every call acquires a pooled connection for its duration and
// waits for one while the pool is exhausted, until its context is done.
type SQLDB struct {
	db      *sql.DB
	dialect *dialect
}

var memoryDatabaseCounter uint64

// OpenMemorySQLite opens a new, empty SQLite database that lives in
// memory. Every call creates a distinct database, which is discarded once
// it is closed.
func OpenMemorySQLite(ctx context.Context, cfg *Config) (*SQLDB, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	// A named shared-cache URI lets every pooled connection see the same
	// database while keeping separate stores apart.
	name := fmt.Sprintf("chainstore-mem-%d", atomic.AddUint64(&memoryDatabaseCounter, 1))
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", name)
	return open(ctx, sqliteDialect, dsn, name, cfg, true)
}

// OpenSQLite opens, and creates if needed, the SQLite database file at
// path. The database is put in WAL journal mode and write transactions
// take the write lock up front.
func OpenSQLite(ctx context.Context, path string, cfg *Config) (*SQLDB, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	params := url.Values{}
	params.Set("_journal_mode", "WAL")
	params.Set("_busy_timeout", fmt.Sprintf("%d", cfg.busyTimeout().Milliseconds()))
	params.Set("_foreign_keys", "1")
	params.Set("_txlock", "immediate")
	dsn := path + "?" + params.Encode()
	return open(ctx, sqliteDialect, dsn, path, cfg, false)
}

// OpenPostgres connects to the Postgres database described by dsn. Both
// URL and key=value connection strings are accepted.
func OpenPostgres(ctx context.Context, dsn string, cfg *Config) (*SQLDB, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return open(ctx, postgresDialect, dsn, "postgres", cfg, false)
}

func open(ctx context.Context, dialect *dialect, dsn string, description string,
	cfg *Config, memory bool) (*SQLDB, error) {

	sqlDB, err := sql.Open(dialect.driverName, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "failed opening %s database %s", dialect.name, description)
	}
	sqlDB.SetMaxOpenConns(cfg.maxOpenConns(memory))
	sqlDB.SetMaxIdleConns(cfg.maxIdleConns(memory))
	if memory {
		// The in-memory database is dropped once its last connection
		// closes.
		sqlDB.SetConnMaxLifetime(0)
		sqlDB.SetConnMaxIdleTime(0)
	}

	db := &SQLDB{db: sqlDB, dialect: dialect}
	err = db.setupSchema(ctx)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}
	log.Debugf("Opened %s database %s", dialect.name, description)
	return db, nil
}

func (db *SQLDB) setupSchema(ctx context.Context) error {
	onEnd := logger.LogAndMeasureExecutionTime(log, "setupSchema")
	defer onEnd()

	sqlTx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrapf(err, "failed beginning %s schema transaction", db.dialect.name)
	}
	defer sqlTx.Rollback()

	for _, statement := range db.dialect.schema() {
		_, err := sqlTx.ExecContext(ctx, statement)
		if err != nil {
			return errors.Wrapf(err, "failed creating %s schema", db.dialect.name)
		}
	}
	return errors.Wrapf(sqlTx.Commit(), "failed committing %s schema", db.dialect.name)
}

// Close closes the connection pool.
func (db *SQLDB) Close() error {
	return errors.WithStack(db.db.Close())
}

// Block returns the serialized block stored under the given hash.
func (db *SQLDB) Block(ctx context.Context, hash []byte) ([]byte, error) {
	return queryBlock(ctx, db.db, db.dialect, hash)
}

// IndexEntry returns the index entry of the block with the given hash.
func (db *SQLDB) IndexEntry(ctx context.Context, hash []byte) (*database.IndexEntry, error) {
	return queryIndexEntry(ctx, db.db, db.dialect, hash)
}

// Tag returns the block hash the given tag points at.
func (db *SQLDB) Tag(ctx context.Context, name string) ([]byte, error) {
	return queryTag(ctx, db.db, db.dialect, name)
}

const upsertTagQuery = `insert into tags (name, hash) values (?, ?)
	on conflict (name) do update set hash = excluded.hash`

// PutTag points the given tag at the given block hash, replacing any
// previous target.
func (db *SQLDB) PutTag(ctx context.Context, name string, hash []byte) error {
	_, err := db.db.ExecContext(ctx, db.dialect.rebind(upsertTagQuery), name, hash)
	if err != nil {
		return db.dialect.wrapError(err, "failed putting tag %s", name)
	}
	return nil
}

// Begin begins a new write transaction.
func (db *SQLDB) Begin(ctx context.Context) (database.Transaction, error) {
	sqlTx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed beginning transaction")
	}
	return &transaction{sqlTx: sqlTx, dialect: db.dialect}, nil
}
