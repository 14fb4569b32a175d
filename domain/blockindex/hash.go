package blockindex

import (
	"encoding/hex"

	"github.com/pkg/errors"
)

// HashSize is the size of a block hash in bytes.
const HashSize = 32

// Hash identifies a block by its contents.
type Hash [HashSize]byte

// ZeroHash is the reserved hash meaning "no parent". Only genesis
// blocks refer to it.
var ZeroHash Hash

// NewHashFromSlice returns the Hash held in hashBytes, which must be
// exactly HashSize long.
func NewHashFromSlice(hashBytes []byte) (Hash, error) {
	var hash Hash
	if len(hashBytes) != HashSize {
		return hash, errors.Errorf("invalid hash size. Want: %d, got: %d",
			HashSize, len(hashBytes))
	}
	copy(hash[:], hashBytes)
	return hash, nil
}

// NewHashFromString parses a hex encoded hash.
func NewHashFromString(hashString string) (Hash, error) {
	expectedLength := HashSize * 2
	if len(hashString) != expectedLength {
		return ZeroHash, errors.Errorf("hash string length is %d, while it should be %d",
			len(hashString), expectedLength)
	}

	hashBytes, err := hex.DecodeString(hashString)
	if err != nil {
		return ZeroHash, errors.WithStack(err)
	}
	return NewHashFromSlice(hashBytes)
}

// String returns the Hash as the hexadecimal string of the hash.
func (hash Hash) String() string {
	return hex.EncodeToString(hash[:])
}

// IsZero returns whether hash is the reserved zero hash.
func (hash Hash) IsZero() bool {
	return hash == ZeroHash
}
