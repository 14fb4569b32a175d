package blockindex

import (
	"context"

	"github.com/pkg/errors"
)

// NthAncestor returns the BlockInfo of the block reached by following
// exactly distance parent links from the block stored under hash.
// distance must be smaller than the block's chain length, otherwise
// ErrDistanceOutOfRange is returned.
func (s *Store) NthAncestor(ctx context.Context, hash Hash, distance uint64) (*BlockInfo, error) {
	return s.ForPathToNthAncestor(ctx, hash, distance, nil)
}

// ForPathToNthAncestor is like NthAncestor, but calls visit with every
// BlockInfo it passes through on the way, starting with the block under
// hash itself and excluding the returned ancestor. Back-links skip over
// most of the chain, so visit is called O(log distance) times. An error
// returned by visit aborts the walk.
func (s *Store) ForPathToNthAncestor(ctx context.Context, hash Hash, distance uint64,
	visit func(info *BlockInfo) error) (*BlockInfo, error) {

	ctx, cancel := s.operationContext(ctx)
	defer cancel()

	info, err := s.getBlockInfo(ctx, hash)
	if err != nil {
		return nil, err
	}
	return s.seek(ctx, info, distance, visit)
}

// seek walks back from start to its ancestor at the given distance,
// always following the longest back-link that doesn't overshoot.
func (s *Store) seek(ctx context.Context, start *BlockInfo, distance uint64,
	visit func(info *BlockInfo) error) (*BlockInfo, error) {

	if distance >= start.ChainLength {
		return nil, errors.Wrapf(ErrDistanceOutOfRange, "distance %d from %s with chain length %d",
			distance, start.Hash, start.ChainLength)
	}

	target := start.ChainLength - distance
	current := start
	hops := 0
	for current.ChainLength > target {
		link := current.longestLinkWithin(current.ChainLength - target)
		if visit != nil {
			err := visit(current)
			if err != nil {
				return nil, err
			}
		}

		next, err := s.getBlockInfo(ctx, link.Hash)
		if err != nil {
			if errors.Is(err, ErrBlockNotFound) {
				return nil, &BackendError{
					Op:  "seek",
					Err: errors.Errorf("back-link %d of %s points at missing block %s", link.Distance, current.Hash, link.Hash),
				}
			}
			return nil, err
		}
		if next.ChainLength != current.ChainLength-link.Distance {
			return nil, &BackendError{
				Op: "seek",
				Err: errors.Errorf("back-link %d of %s (chain length %d) points at %s with chain length %d",
					link.Distance, current.Hash, current.ChainLength, next.Hash, next.ChainLength),
			}
		}
		current = next
		hops++
	}

	s.metrics.seekHops.Observe(float64(hops))
	return current, nil
}
