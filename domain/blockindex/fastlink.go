package blockindex

// fastLinkPeriod is the number of consecutive chain lengths over which
// fast link distances cycle through 2^order - 1.
const fastLinkPeriod = 32

// fastLinkTarget returns the chain length of the ancestor a block of the
// given chain length links to with its fast link, and false if the block
// gets no fast link.
func fastLinkTarget(chainLength uint64) (uint64, bool) {
	order := chainLength % fastLinkPeriod
	skip := uint64(1)
	if order > 0 {
		skip = (uint64(1) << order) - 1
	}

	var target uint64
	if skip < chainLength {
		target = chainLength - skip
	}
	if target == 0 || chainLength-target == 1 {
		return 0, false
	}
	return target, true
}
