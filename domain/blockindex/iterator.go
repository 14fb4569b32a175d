package blockindex

import (
	"context"

	"github.com/pkg/errors"
)

// RangeIterator yields the BlockInfo of every block on the path from one
// block (exclusive) to one of its descendants (inclusive), in increasing
// chain length order. It is single-pass and not safe for concurrent use.
type RangeIterator struct {
	store *Store
	ctx   context.Context

	toChainLength uint64
	position      uint64

	// known holds BlockInfo records already fetched along the path, with
	// the lowest chain length on top.
	known []*BlockInfo

	current  *BlockInfo
	err      error
	isClosed bool
}

// IterateRange returns an iterator over the path (from, to]. from must be
// an ancestor of to, or ZeroHash to start at genesis, otherwise
// ErrCannotIterate is returned. ctx is used by every step of the
// iteration.
func (s *Store) IterateRange(ctx context.Context, from Hash, to Hash) (*RangeIterator, error) {
	distance, found, err := s.isAncestor(ctx, from, to)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.Wrapf(ErrCannotIterate, "%s is not an ancestor of %s", from, to)
	}

	toInfo, err := s.getBlockInfo(ctx, to)
	if err != nil {
		return nil, err
	}
	return &RangeIterator{
		store:         s,
		ctx:           ctx,
		toChainLength: toInfo.ChainLength,
		position:      toInfo.ChainLength - distance,
		known:         []*BlockInfo{toInfo},
	}, nil
}

// Next advances the iterator to the next block on the path and returns
// false once the path is exhausted. If a step fails, Next still returns
// true and Get reports the error; every later call returns false.
func (it *RangeIterator) Next() bool {
	if it.isClosed {
		panic("Tried using a closed RangeIterator")
	}
	if it.err != nil || it.position >= it.toChainLength {
		it.current = nil
		return false
	}
	it.position++

	top := it.known[len(it.known)-1]
	if top.ChainLength == it.position {
		it.known = it.known[:len(it.known)-1]
		it.current = top
		return true
	}

	// The next block wasn't visited yet, so seek it from the closest
	// known descendant and remember everything passed on the way. The
	// seek visits top first, which keeps it known.
	it.known = it.known[:len(it.known)-1]
	info, err := it.store.seek(it.ctx, top, top.ChainLength-it.position, func(visited *BlockInfo) error {
		it.known = append(it.known, visited)
		return nil
	})
	if err != nil {
		it.current = nil
		it.err = err
		return true
	}
	it.current = info
	return true
}

// Get returns the BlockInfo the iterator is at, or the error that
// stopped it.
func (it *RangeIterator) Get() (*BlockInfo, error) {
	if it.isClosed {
		return nil, errors.New("Tried using a closed RangeIterator")
	}
	return it.current, it.err
}

// Close releases the iterator. It may not be used afterwards.
func (it *RangeIterator) Close() error {
	if it.isClosed {
		return errors.New("Tried using a closed RangeIterator")
	}
	it.isClosed = true
	it.store = nil
	it.ctx = nil
	it.known = nil
	it.current = nil
	it.err = nil
	return nil
}
