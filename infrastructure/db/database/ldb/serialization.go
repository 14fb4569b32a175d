package ldb

import (
	"github.com/kaspanet/chainstore/infrastructure/db/database"
	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

// Index entries are stored in protobuf wire format, compatible with:
//
//	message DbIndexEntry {
//	  uint64 chainLength = 1;
//	  bytes parent = 2;
//	  uint64 fastDistance = 3;
//	  bytes fastHash = 4;
//	}
//
// The block hash is the key suffix and is not repeated in the value.
const (
	chainLengthField  protowire.Number = 1
	parentField       protowire.Number = 2
	fastDistanceField protowire.Number = 3
	fastHashField     protowire.Number = 4
)

func serializeIndexEntry(entry *database.IndexEntry) []byte {
	var serialized []byte
	serialized = protowire.AppendTag(serialized, chainLengthField, protowire.VarintType)
	serialized = protowire.AppendVarint(serialized, entry.ChainLength)
	serialized = protowire.AppendTag(serialized, parentField, protowire.BytesType)
	serialized = protowire.AppendBytes(serialized, entry.Parent)
	if entry.HasFastLink() {
		serialized = protowire.AppendTag(serialized, fastDistanceField, protowire.VarintType)
		serialized = protowire.AppendVarint(serialized, entry.FastDistance)
		serialized = protowire.AppendTag(serialized, fastHashField, protowire.BytesType)
		serialized = protowire.AppendBytes(serialized, entry.FastHash)
	}
	return serialized
}

func deserializeIndexEntry(hash []byte, serialized []byte) (*database.IndexEntry, error) {
	entry := &database.IndexEntry{Hash: hash}
	for len(serialized) > 0 {
		number, wireType, tagLength := protowire.ConsumeTag(serialized)
		if tagLength < 0 {
			return nil, errors.Wrap(protowire.ParseError(tagLength), "malformed index entry")
		}
		serialized = serialized[tagLength:]

		var valueLength int
		switch {
		case number == chainLengthField && wireType == protowire.VarintType:
			entry.ChainLength, valueLength = protowire.ConsumeVarint(serialized)
		case number == fastDistanceField && wireType == protowire.VarintType:
			entry.FastDistance, valueLength = protowire.ConsumeVarint(serialized)
		case number == parentField && wireType == protowire.BytesType:
			var value []byte
			value, valueLength = protowire.ConsumeBytes(serialized)
			entry.Parent = append([]byte{}, value...)
		case number == fastHashField && wireType == protowire.BytesType:
			var value []byte
			value, valueLength = protowire.ConsumeBytes(serialized)
			entry.FastHash = append([]byte{}, value...)
		default:
			valueLength = protowire.ConsumeFieldValue(number, wireType, serialized)
		}
		if valueLength < 0 {
			return nil, errors.Wrapf(protowire.ParseError(valueLength), "malformed index entry field %d", number)
		}
		serialized = serialized[valueLength:]
	}

	if entry.ChainLength == 0 {
		return nil, errors.New("malformed index entry: missing chain length")
	}
	return entry, nil
}
