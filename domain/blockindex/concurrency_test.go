package blockindex

import (
	"context"
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

const (
	concurrentWriters     = 4
	concurrentReaders     = 4
	concurrentChainLength = 40
)

func TestConcurrentPutAndGet(t *testing.T) {
	testForAllStoreTypes(t, "TestConcurrentPutAndGet", testConcurrentPutAndGet)
}

// testConcurrentPutAndGet interleaves writers storing disjoint chains
// with readers polling those chains, and checks that readers only ever
// see missing or complete blocks.
func testConcurrentPutAndGet(t *testing.T, store *Store, testName string) {
	chains := make([][]*testBlock, concurrentWriters)
	for i := range chains {
		chains[i] = makeChain(fmt.Sprintf("%s/%d", testName, i), concurrentChainLength)
	}

	group, ctx := errgroup.WithContext(context.Background())
	for _, chain := range chains {
		chain := chain
		group.Go(func() error {
			for _, block := range chain {
				err := store.PutBlock(ctx, block)
				if err != nil {
					return errors.Wrapf(err, "PutBlock of block with chain length %d", block.chainLength)
				}
			}
			return nil
		})
	}
	for reader := 0; reader < concurrentReaders; reader++ {
		reader := reader
		group.Go(func() error {
			for round := 0; round < concurrentChainLength; round++ {
				for _, chain := range chains {
					block := chain[(round+reader)%len(chain)]
					storedBlock, info, err := store.GetBlock(ctx, block.id)
					if errors.Is(err, ErrBlockNotFound) {
						continue
					}
					if err != nil {
						return errors.Wrap(err, "GetBlock")
					}
					if !testBlocksEqual(storedBlock, block) || info.ChainLength != block.chainLength ||
						info.ParentHash() != block.parent {
						return errors.Errorf("GetBlock returned a partial or wrong block: %s", info)
					}
				}
			}
			return nil
		})
	}

	err := group.Wait()
	if err != nil {
		t.Fatalf("%s: %+v", testName, err)
	}

	for _, chain := range chains {
		tip := chain[len(chain)-1]
		distance, found, err := store.IsAncestor(context.Background(), chain[0].id, tip.id)
		if err != nil {
			t.Fatalf("%s: IsAncestor unexpectedly failed: %+v", testName, err)
		}
		if !found || distance != concurrentChainLength-1 {
			t.Fatalf("%s: IsAncestor returned wrong result. Want: (%d, true), got: (%d, %t)",
				testName, concurrentChainLength-1, distance, found)
		}
	}
}

func TestConcurrentDuplicatePuts(t *testing.T) {
	testForAllStoreTypes(t, "TestConcurrentDuplicatePuts", testConcurrentDuplicatePuts)
}

// testConcurrentDuplicatePuts has writers race to store the same chain.
// Each insert either succeeds, silently or not, or reports the race.
func testConcurrentDuplicatePuts(t *testing.T, store *Store, testName string) {
	chain := makeChain(testName, 20)

	group, ctx := errgroup.WithContext(context.Background())
	for writer := 0; writer < concurrentWriters; writer++ {
		group.Go(func() error {
			for _, block := range chain {
				err := store.PutBlock(ctx, block)
				if err != nil && !errors.Is(err, ErrBlockAlreadyPresent) {
					return errors.Wrapf(err, "PutBlock of block with chain length %d", block.chainLength)
				}
				// A lost race still leaves the block stored by the winner,
				// but only once the winner committed.
				for {
					exists, err := store.BlockExists(ctx, block.id)
					if err != nil {
						return errors.Wrap(err, "BlockExists")
					}
					if exists {
						break
					}
				}
			}
			return nil
		})
	}

	err := group.Wait()
	if err != nil {
		t.Fatalf("%s: %+v", testName, err)
	}
	for _, block := range chain {
		info, err := store.GetBlockInfo(context.Background(), block.id)
		if err != nil {
			t.Fatalf("%s: GetBlockInfo unexpectedly failed: %+v", testName, err)
		}
		if info.ChainLength != block.chainLength {
			t.Fatalf("%s: block stored with wrong chain length: %s", testName, info)
		}
	}
}
