package blockindex

import "io"

// Block is a block payload as seen by the index. The index stores the
// serialized payload verbatim and never inspects it.
type Block interface {
	// ID returns the block's hash.
	ID() Hash

	// ParentID returns the hash of the block's parent, or ZeroHash for
	// genesis blocks.
	ParentID() Hash

	// ChainLength returns the block's own idea of its chain length.
	ChainLength() uint64

	// Serialize writes the block payload to w.
	Serialize(w io.Writer) error
}

// BlockDecoder reconstructs a Block from a payload previously written by
// Block.Serialize.
type BlockDecoder func(serialized []byte) (Block, error)
