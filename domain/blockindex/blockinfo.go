package blockindex

import (
	"fmt"

	"github.com/kaspanet/chainstore/infrastructure/db/database"
	"github.com/pkg/errors"
)

// BackLink points at the ancestor Distance hops back along the parent
// chain.
type BackLink struct {
	Distance uint64
	Hash     Hash
}

// BlockInfo describes a block's position in its chain. BackLinks always
// starts with the distance-1 link to the parent and holds at most one
// more link, the fast link, with a greater distance.
type BlockInfo struct {
	Hash        Hash
	ChainLength uint64
	BackLinks   []BackLink
}

// ParentHash returns the hash of the block's parent, or ZeroHash for
// genesis blocks.
func (info *BlockInfo) ParentHash() Hash {
	return info.BackLinks[0].Hash
}

// FastLink returns the block's fast link, if it has one.
func (info *BlockInfo) FastLink() (BackLink, bool) {
	if len(info.BackLinks) < 2 {
		return BackLink{}, false
	}
	return info.BackLinks[1], true
}

// Clone returns a deep copy of info.
func (info *BlockInfo) Clone() *BlockInfo {
	backLinks := make([]BackLink, len(info.BackLinks))
	copy(backLinks, info.BackLinks)
	return &BlockInfo{
		Hash:        info.Hash,
		ChainLength: info.ChainLength,
		BackLinks:   backLinks,
	}
}

func (info *BlockInfo) String() string {
	if fastLink, ok := info.FastLink(); ok {
		return fmt.Sprintf("%s (chain length %d, parent %s, fast link %d:%s)",
			info.Hash, info.ChainLength, info.ParentHash(), fastLink.Distance, fastLink.Hash)
	}
	return fmt.Sprintf("%s (chain length %d, parent %s)", info.Hash, info.ChainLength, info.ParentHash())
}

// longestLinkWithin returns the back-link with the greatest distance not
// exceeding maxDistance. maxDistance must be at least 1.
func (info *BlockInfo) longestLinkWithin(maxDistance uint64) BackLink {
	best := info.BackLinks[0]
	for _, link := range info.BackLinks[1:] {
		if link.Distance <= maxDistance && link.Distance > best.Distance {
			best = link
		}
	}
	return best
}

func (info *BlockInfo) toIndexEntry() *database.IndexEntry {
	parent := info.ParentHash()
	entry := &database.IndexEntry{
		Hash:        info.Hash[:],
		ChainLength: info.ChainLength,
		Parent:      parent[:],
	}
	if fastLink, ok := info.FastLink(); ok {
		entry.FastDistance = fastLink.Distance
		entry.FastHash = fastLink.Hash[:]
	}
	return entry
}

func blockInfoFromIndexEntry(entry *database.IndexEntry) (*BlockInfo, error) {
	hash, err := NewHashFromSlice(entry.Hash)
	if err != nil {
		return nil, errors.Wrap(err, "malformed index entry hash")
	}
	parent, err := NewHashFromSlice(entry.Parent)
	if err != nil {
		return nil, errors.Wrapf(err, "malformed parent hash in index entry %s", hash)
	}
	info := &BlockInfo{
		Hash:        hash,
		ChainLength: entry.ChainLength,
		BackLinks:   []BackLink{{Distance: 1, Hash: parent}},
	}
	if entry.HasFastLink() {
		if entry.FastDistance <= 1 || entry.FastDistance >= entry.ChainLength {
			return nil, errors.Errorf("index entry %s has invalid fast link distance %d",
				hash, entry.FastDistance)
		}
		fastHash, err := NewHashFromSlice(entry.FastHash)
		if err != nil {
			return nil, errors.Wrapf(err, "malformed fast link hash in index entry %s", hash)
		}
		info.BackLinks = append(info.BackLinks, BackLink{Distance: entry.FastDistance, Hash: fastHash})
	}
	return info, nil
}
