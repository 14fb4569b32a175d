package ldb

import "bytes"

var separator = []byte("/")

// bucket is a helper type meant to combine buckets and keys into a single
// full leveldb key.
type bucket struct {
	path [][]byte
}

func makeBucket(path ...[]byte) *bucket {
	return &bucket{path: path}
}

// key returns the key inside of the current bucket.
func (b *bucket) key(suffix []byte) []byte {
	bucketPath := b.prefix()

	fullKey := make([]byte, len(bucketPath)+len(suffix))
	copy(fullKey, bucketPath)
	copy(fullKey[len(bucketPath):], suffix)

	return fullKey
}

// prefix returns the full path of the current bucket, including the
// trailing separator.
func (b *bucket) prefix() []byte {
	bucketPath := bytes.Join(b.path, separator)

	prefix := make([]byte, len(bucketPath)+len(separator))
	copy(prefix, bucketPath)
	copy(prefix[len(bucketPath):], separator)

	return prefix
}

var (
	blocksBucket     = makeBucket([]byte("blocks"))
	blockIndexBucket = makeBucket([]byte("block-index"))
	tagsBucket       = makeBucket([]byte("tags"))
)

func blockKey(hash []byte) []byte {
	return blocksBucket.key(hash)
}

func indexEntryKey(hash []byte) []byte {
	return blockIndexBucket.key(hash)
}

func tagKey(name string) []byte {
	return tagsBucket.key([]byte(name))
}
