package blockindex

import (
	"context"
	"testing"

	"github.com/pkg/errors"
)

func collectRange(t *testing.T, store *Store, testName string, from Hash, to Hash) []*BlockInfo {
	iterator, err := store.IterateRange(context.Background(), from, to)
	if err != nil {
		t.Fatalf("%s: IterateRange unexpectedly failed: %+v", testName, err)
	}
	defer iterator.Close()

	var infos []*BlockInfo
	for iterator.Next() {
		info, err := iterator.Get()
		if err != nil {
			t.Fatalf("%s: Get unexpectedly failed: %+v", testName, err)
		}
		infos = append(infos, info)
	}
	return infos
}

func TestIterateRange(t *testing.T) {
	testForAllStoreTypes(t, "TestIterateRange", testIterateRange)
}

func testIterateRange(t *testing.T, store *Store, testName string) {
	ctx := context.Background()
	chain := makeChain(testName, 150)
	fork := extendChain(testName+"/fork", chain[99], 10)
	putBlocks(t, store, testName, chain)
	putBlocks(t, store, testName, fork)

	tests := []struct {
		name     string
		from     Hash
		to       Hash
		expected []*testBlock
	}{
		{name: "whole chain from zero", from: ZeroHash, to: chain[149].id, expected: chain},
		{name: "from genesis", from: chain[0].id, to: chain[149].id, expected: chain[1:]},
		{name: "middle", from: chain[30].id, to: chain[120].id, expected: chain[31:121]},
		{name: "single step", from: chain[60].id, to: chain[61].id, expected: chain[61:62]},
		{name: "empty", from: chain[60].id, to: chain[60].id, expected: nil},
		{name: "into fork", from: chain[90].id, to: fork[9].id, expected: append(append([]*testBlock{}, chain[91:100]...), fork...)},
	}

	for _, test := range tests {
		infos := collectRange(t, store, testName, test.from, test.to)
		if len(infos) != len(test.expected) {
			t.Fatalf("%s: %s: IterateRange yielded %d blocks, want %d",
				testName, test.name, len(infos), len(test.expected))
		}
		for i, info := range infos {
			if info.Hash != test.expected[i].id || info.ChainLength != test.expected[i].chainLength {
				t.Fatalf("%s: %s: IterateRange yielded wrong block at position %d: %s",
					testName, test.name, i, info)
			}
			if i > 0 && info.ParentHash() != infos[i-1].Hash {
				t.Fatalf("%s: %s: block at position %d is not the child of the previous one",
					testName, test.name, i)
			}
		}

		distance, found, err := store.IsAncestor(ctx, test.from, test.to)
		if err != nil {
			t.Fatalf("%s: %s: IsAncestor unexpectedly failed: %+v", testName, test.name, err)
		}
		if !found || distance != uint64(len(infos)) {
			t.Fatalf("%s: %s: IterateRange yielded %d blocks, but IsAncestor reports (%d, %t)",
				testName, test.name, len(infos), distance, found)
		}
	}

	_, err := store.IterateRange(ctx, fork[0].id, chain[120].id)
	if !errors.Is(err, ErrCannotIterate) {
		t.Fatalf("%s: IterateRange returned wrong error. Want: %s, got: %+v",
			testName, ErrCannotIterate, err)
	}
	_, err = store.IterateRange(ctx, chain[120].id, chain[30].id)
	if !errors.Is(err, ErrCannotIterate) {
		t.Fatalf("%s: IterateRange returned wrong error. Want: %s, got: %+v",
			testName, ErrCannotIterate, err)
	}
}

func TestRangeIteratorClose(t *testing.T) {
	store, err := OpenLevelDB("", DefaultConfig(decodeTestBlock))
	if err != nil {
		t.Fatalf("TestRangeIteratorClose: OpenLevelDB unexpectedly failed: %+v", err)
	}
	defer store.Close()
	chain := makeChain("TestRangeIteratorClose", 3)
	putBlocks(t, store, "TestRangeIteratorClose", chain)

	iterator, err := store.IterateRange(context.Background(), chain[0].id, chain[2].id)
	if err != nil {
		t.Fatalf("TestRangeIteratorClose: IterateRange unexpectedly failed: %+v", err)
	}
	err = iterator.Close()
	if err != nil {
		t.Fatalf("TestRangeIteratorClose: Close unexpectedly failed: %s", err)
	}
	err = iterator.Close()
	if err == nil {
		t.Fatalf("TestRangeIteratorClose: second Close unexpectedly succeeded")
	}
	_, err = iterator.Get()
	if err == nil {
		t.Fatalf("TestRangeIteratorClose: Get on a closed iterator unexpectedly succeeded")
	}

	defer func() {
		if recover() == nil {
			t.Fatalf("TestRangeIteratorClose: Next on a closed iterator didn't panic")
		}
	}()
	iterator.Next()
}

func TestRangeIteratorReusesSeeks(t *testing.T) {
	store, err := OpenLevelDB("", &Config{Decoder: decodeTestBlock, CacheSize: -1})
	if err != nil {
		t.Fatalf("TestRangeIteratorReusesSeeks: OpenLevelDB unexpectedly failed: %+v", err)
	}
	defer store.Close()
	chain := makeChain("TestRangeIteratorReusesSeeks", 300)
	putBlocks(t, store, "TestRangeIteratorReusesSeeks", chain)

	iterator, err := store.IterateRange(context.Background(), ZeroHash, chain[299].id)
	if err != nil {
		t.Fatalf("TestRangeIteratorReusesSeeks: IterateRange unexpectedly failed: %+v", err)
	}
	defer iterator.Close()

	// Blocks passed by earlier seeks are reused, so the known stack stays
	// far smaller than the range.
	maxKnown := 0
	count := 0
	for iterator.Next() {
		_, err := iterator.Get()
		if err != nil {
			t.Fatalf("TestRangeIteratorReusesSeeks: Get unexpectedly failed: %+v", err)
		}
		count++
		if len(iterator.known) > maxKnown {
			maxKnown = len(iterator.known)
		}
	}
	if count != 300 {
		t.Fatalf("TestRangeIteratorReusesSeeks: iterated over %d blocks, want 300", count)
	}
	if maxKnown >= 300 {
		t.Fatalf("TestRangeIteratorReusesSeeks: kept %d blocks, expected far fewer", maxKnown)
	}
}
