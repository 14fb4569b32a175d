package database

import "context"

// IndexEntry is the persisted form of a block's position in the chain: its
// chain length, its parent and an optional second ancestor link.
// FastDistance is zero and FastHash is nil when the block has no fast link.
type IndexEntry struct {
	Hash         []byte
	ChainLength  uint64
	Parent       []byte
	FastDistance uint64
	FastHash     []byte
}

// HasFastLink returns whether the entry carries a link besides the parent.
func (entry *IndexEntry) HasFastLink() bool {
	return entry.FastDistance != 0
}

// DataAccessor defines the read side shared by a database and its
// transactions.
type DataAccessor interface {
	// Block returns the serialized block stored under the given hash.
	// It returns ErrNotFound if no such block exists.
	Block(ctx context.Context, hash []byte) ([]byte, error)

	// IndexEntry returns the index entry of the block with the given
	// hash. It returns ErrNotFound if the block isn't indexed.
	IndexEntry(ctx context.Context, hash []byte) (*IndexEntry, error)

	// Tag returns the block hash the given tag points at. It returns
	// ErrNotFound if the tag was never set.
	Tag(ctx context.Context, name string) ([]byte, error)
}

// TagWriter sets tags.
type TagWriter interface {
	// PutTag points the given tag at the given block hash, replacing
	// any previous value. It returns ErrMissingReference if the hash
	// has no index entry.
	PutTag(ctx context.Context, name string, hash []byte) error
}
