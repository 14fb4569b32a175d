package database_test

import (
	"context"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kaspanet/chainstore/infrastructure/db/database"
	"github.com/kaspanet/chainstore/infrastructure/db/database/ldb"
	"github.com/kaspanet/chainstore/infrastructure/db/database/sqldb"
)

// postgresDSNEnvVar names the environment variable holding the DSN of a
// Postgres database to run the tests against. The Postgres tests are
// skipped when it's unset.
const postgresDSNEnvVar = "CHAINSTORE_TEST_POSTGRES_DSN"

type databasePrepareFunc func(t *testing.T, testName string) (db database.Database, name string, teardownFunc func())

// databasePrepareFuncs is a set of functions, in which each function
// prepares a separate database type for testing.
// See testForAllDatabaseTypes for further details.
var databasePrepareFuncs = []databasePrepareFunc{
	prepareLDBForTest,
	prepareMemoryLDBForTest,
	prepareMemorySQLiteForTest,
	prepareSQLiteFileForTest,
	preparePostgresForTest,
}

func prepareLDBForTest(t *testing.T, testName string) (db database.Database, name string, teardownFunc func()) {
	// Create a temp db to run tests against
	path, err := ioutil.TempDir("", testName)
	if err != nil {
		t.Fatalf("%s: TempDir unexpectedly "+
			"failed: %s", testName, err)
	}
	db, err = ldb.NewLevelDB(path)
	if err != nil {
		t.Fatalf("%s: Open unexpectedly "+
			"failed: %s", testName, err)
	}
	return db, "ldb", closeAndRemove(t, testName, db, path)
}

func prepareMemoryLDBForTest(t *testing.T, testName string) (db database.Database, name string, teardownFunc func()) {
	db, err := ldb.NewMemoryLevelDB()
	if err != nil {
		t.Fatalf("%s: Open unexpectedly "+
			"failed: %s", testName, err)
	}
	return db, "ldb-memory", closeAndRemove(t, testName, db, "")
}

func prepareMemorySQLiteForTest(t *testing.T, testName string) (db database.Database, name string, teardownFunc func()) {
	db, err := sqldb.OpenMemorySQLite(context.Background(), nil)
	if err != nil {
		t.Fatalf("%s: Open unexpectedly "+
			"failed: %s", testName, err)
	}
	return db, "sqlite-memory", closeAndRemove(t, testName, db, "")
}

func prepareSQLiteFileForTest(t *testing.T, testName string) (db database.Database, name string, teardownFunc func()) {
	dir, err := ioutil.TempDir("", testName)
	if err != nil {
		t.Fatalf("%s: TempDir unexpectedly "+
			"failed: %s", testName, err)
	}
	db, err = sqldb.OpenSQLite(context.Background(), filepath.Join(dir, "chainstore.sqlite"), nil)
	if err != nil {
		t.Fatalf("%s: Open unexpectedly "+
			"failed: %s", testName, err)
	}
	return db, "sqlite-file", closeAndRemove(t, testName, db, dir)
}

// preparePostgresForTest returns a nil database when no Postgres DSN is
// configured.
func preparePostgresForTest(t *testing.T, testName string) (db database.Database, name string, teardownFunc func()) {
	dsn := os.Getenv(postgresDSNEnvVar)
	if dsn == "" {
		return nil, "postgres", func() {}
	}
	db, err := sqldb.OpenPostgres(context.Background(), dsn, nil)
	if err != nil {
		t.Fatalf("%s: Open unexpectedly "+
			"failed: %s", testName, err)
	}
	return db, "postgres", closeAndRemove(t, testName, db, "")
}

func closeAndRemove(t *testing.T, testName string, db database.Database, path string) func() {
	return func() {
		err := db.Close()
		if err != nil {
			t.Fatalf("%s: Close unexpectedly "+
				"failed: %s", testName, err)
		}
		if path != "" {
			os.RemoveAll(path)
		}
	}
}

// testForAllDatabaseTypes runs the given testFunc for every database
// type defined in databasePrepareFuncs. This is to make sure that
// all supported database types adhere to the assumptions defined in
// the interfaces in this package.
func testForAllDatabaseTypes(t *testing.T, testName string,
	testFunc func(t *testing.T, db database.Database, testName string)) {

	for _, prepareDatabase := range databasePrepareFuncs {
		func() {
			db, dbType, teardownFunc := prepareDatabase(t, testName)
			defer teardownFunc()
			if db == nil {
				t.Logf("%s: skipping %s", testName, dbType)
				return
			}

			testName := fmt.Sprintf("%s: %s", dbType, testName)
			testFunc(t, db, testName)
		}()
	}
}

var runID = time.Now().UnixNano()

// uniqueKey returns a key that is distinct across test runs, so that
// tests sharing a persistent Postgres database don't collide.
func uniqueKey(label string) string {
	return fmt.Sprintf("%s-%d", label, runID)
}
