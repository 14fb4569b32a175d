package blockindex

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"
)

// postgresDSNEnvVar names the environment variable holding the DSN of a
// Postgres database to run the tests against. The Postgres tests are
// skipped when it's unset.
const postgresDSNEnvVar = "CHAINSTORE_TEST_POSTGRES_DSN"

// runSalt keeps block ids of separate runs apart in persistent
// databases.
var runSalt = fmt.Sprintf("%d", time.Now().UnixNano())

type testBlock struct {
	id          Hash
	parent      Hash
	chainLength uint64
	payload     []byte
}

func (b *testBlock) ID() Hash            { return b.id }
func (b *testBlock) ParentID() Hash      { return b.parent }
func (b *testBlock) ChainLength() uint64 { return b.chainLength }

func (b *testBlock) Serialize(w io.Writer) error {
	var header [2*HashSize + 8]byte
	copy(header[:HashSize], b.id[:])
	copy(header[HashSize:2*HashSize], b.parent[:])
	binary.LittleEndian.PutUint64(header[2*HashSize:], b.chainLength)
	_, err := w.Write(header[:])
	if err != nil {
		return err
	}
	_, err = w.Write(b.payload)
	return err
}

func decodeTestBlock(serialized []byte) (Block, error) {
	headerLength := 2*HashSize + 8
	if len(serialized) < headerLength {
		return nil, errors.Errorf("test block too short: %d bytes", len(serialized))
	}
	block := &testBlock{
		chainLength: binary.LittleEndian.Uint64(serialized[2*HashSize:]),
		payload:     append([]byte{}, serialized[headerLength:]...),
	}
	copy(block.id[:], serialized[:HashSize])
	copy(block.parent[:], serialized[HashSize:2*HashSize])
	return block, nil
}

func testBlocksEqual(a, b Block) bool {
	var aBytes, bBytes bytes.Buffer
	return a.Serialize(&aBytes) == nil && b.Serialize(&bBytes) == nil &&
		bytes.Equal(aBytes.Bytes(), bBytes.Bytes())
}

// testHash derives a deterministic block id from label.
func testHash(label string) Hash {
	return blake2b.Sum256([]byte(runSalt + "/" + label))
}

// makeChain returns length blocks, each the child of the previous one,
// starting with a genesis block.
func makeChain(label string, length int) []*testBlock {
	return extendChain(label, nil, length)
}

// extendChain returns length blocks descending from parent, or starting
// with a genesis block if parent is nil.
func extendChain(label string, parent *testBlock, length int) []*testBlock {
	chain := make([]*testBlock, length)
	for i := range chain {
		block := &testBlock{
			id:      testHash(fmt.Sprintf("%s/%d", label, i)),
			payload: []byte(fmt.Sprintf("%s block %d", label, i)),
		}
		if parent == nil {
			block.chainLength = 1
		} else {
			block.parent = parent.id
			block.chainLength = parent.chainLength + 1
		}
		chain[i] = block
		parent = block
	}
	return chain
}

func putBlocks(t *testing.T, store *Store, testName string, blocks []*testBlock) {
	for _, block := range blocks {
		err := store.PutBlock(context.Background(), block)
		if err != nil {
			t.Fatalf("%s: PutBlock of block with chain length %d unexpectedly failed: %+v",
				testName, block.chainLength, err)
		}
	}
}

type storePrepareFunc func(t *testing.T, testName string, cfg *Config) (store *Store, name string, teardownFunc func())

// storePrepareFuncs is a set of functions, in which each function
// prepares a Store over a separate database type for testing.
var storePrepareFuncs = []storePrepareFunc{
	prepareMemoryStoreForTest,
	prepareFileStoreForTest,
	prepareLevelDBStoreForTest,
	prepareMemoryLevelDBStoreForTest,
	preparePostgresStoreForTest,
}

func prepareMemoryStoreForTest(t *testing.T, testName string, cfg *Config) (*Store, string, func()) {
	store, err := OpenMemory(context.Background(), cfg)
	if err != nil {
		t.Fatalf("%s: OpenMemory unexpectedly failed: %+v", testName, err)
	}
	return store, "sqlite-memory", closeStore(t, testName, store, "")
}

func prepareFileStoreForTest(t *testing.T, testName string, cfg *Config) (*Store, string, func()) {
	dir, err := ioutil.TempDir("", testName)
	if err != nil {
		t.Fatalf("%s: TempDir unexpectedly failed: %s", testName, err)
	}
	store, err := OpenFile(context.Background(), filepath.Join(dir, "chainstore.sqlite"), cfg)
	if err != nil {
		t.Fatalf("%s: OpenFile unexpectedly failed: %+v", testName, err)
	}
	return store, "sqlite-file", closeStore(t, testName, store, dir)
}

func prepareLevelDBStoreForTest(t *testing.T, testName string, cfg *Config) (*Store, string, func()) {
	dir, err := ioutil.TempDir("", testName)
	if err != nil {
		t.Fatalf("%s: TempDir unexpectedly failed: %s", testName, err)
	}
	store, err := OpenLevelDB(dir, cfg)
	if err != nil {
		t.Fatalf("%s: OpenLevelDB unexpectedly failed: %+v", testName, err)
	}
	return store, "ldb", closeStore(t, testName, store, dir)
}

func prepareMemoryLevelDBStoreForTest(t *testing.T, testName string, cfg *Config) (*Store, string, func()) {
	store, err := OpenLevelDB("", cfg)
	if err != nil {
		t.Fatalf("%s: OpenLevelDB unexpectedly failed: %+v", testName, err)
	}
	return store, "ldb-memory", closeStore(t, testName, store, "")
}

// preparePostgresStoreForTest returns a nil store when no Postgres DSN
// is configured.
func preparePostgresStoreForTest(t *testing.T, testName string, cfg *Config) (*Store, string, func()) {
	dsn := os.Getenv(postgresDSNEnvVar)
	if dsn == "" {
		return nil, "postgres", func() {}
	}
	store, err := OpenPostgres(context.Background(), dsn, cfg)
	if err != nil {
		t.Fatalf("%s: OpenPostgres unexpectedly failed: %+v", testName, err)
	}
	return store, "postgres", closeStore(t, testName, store, "")
}

func closeStore(t *testing.T, testName string, store *Store, dir string) func() {
	return func() {
		err := store.Close()
		if err != nil {
			t.Fatalf("%s: Close unexpectedly failed: %s", testName, err)
		}
		if dir != "" {
			os.RemoveAll(dir)
		}
	}
}

// testForAllStoreTypes runs testFunc against a fresh Store over every
// database type in storePrepareFuncs.
func testForAllStoreTypes(t *testing.T, testName string,
	testFunc func(t *testing.T, store *Store, testName string)) {

	for _, prepareStore := range storePrepareFuncs {
		func() {
			store, storeType, teardownFunc := prepareStore(t, testName, DefaultConfig(decodeTestBlock))
			defer teardownFunc()
			if store == nil {
				t.Logf("%s: skipping %s", testName, storeType)
				return
			}

			testName := fmt.Sprintf("%s: %s", storeType, testName)
			testFunc(t, store, testName)
		}()
	}
}
