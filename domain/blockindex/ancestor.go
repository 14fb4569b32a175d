package blockindex

import "context"

// IsAncestor returns whether ancestor is reached by following parent
// links from descendant, and if so, how many links. A block is its own
// ancestor at distance 0 and ZeroHash is every block's ancestor at a
// distance equal to that block's chain length. Both blocks must be
// stored, otherwise ErrBlockNotFound is returned.
func (s *Store) IsAncestor(ctx context.Context, ancestor Hash, descendant Hash) (distance uint64, found bool, err error) {
	ctx, cancel := s.operationContext(ctx)
	defer cancel()

	return s.isAncestor(ctx, ancestor, descendant)
}

func (s *Store) isAncestor(ctx context.Context, ancestor Hash, descendant Hash) (uint64, bool, error) {
	if ancestor == descendant {
		return 0, true, nil
	}

	descendantInfo, err := s.getBlockInfo(ctx, descendant)
	if err != nil {
		return 0, false, err
	}
	if ancestor.IsZero() {
		return descendantInfo.ChainLength, true, nil
	}

	ancestorInfo, err := s.getBlockInfo(ctx, ancestor)
	if err != nil {
		return 0, false, err
	}
	if descendantInfo.ChainLength <= ancestorInfo.ChainLength {
		return 0, false, nil
	}

	distance := descendantInfo.ChainLength - ancestorInfo.ChainLength
	info, err := s.seek(ctx, descendantInfo, distance, nil)
	if err != nil {
		return 0, false, err
	}
	if info.Hash != ancestor {
		return 0, false, nil
	}
	return distance, true, nil
}
