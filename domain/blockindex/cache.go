package blockindex

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
)

// blockInfoCache keeps recently used BlockInfo records. Records are
// immutable once stored, so cached entries never go stale. A nil
// *blockInfoCache caches nothing.
type blockInfoCache struct {
	infos   *lru.Cache[Hash, *BlockInfo]
	metrics *metrics
}

func newBlockInfoCache(size int, metrics *metrics) (*blockInfoCache, error) {
	if size < 0 {
		return nil, nil
	}
	if size == 0 {
		size = DefaultCacheSize
	}
	infos, err := lru.New[Hash, *BlockInfo](size)
	if err != nil {
		return nil, errors.Wrap(err, "failed creating BlockInfo cache")
	}
	return &blockInfoCache{infos: infos, metrics: metrics}, nil
}

func (c *blockInfoCache) get(hash Hash) (*BlockInfo, bool) {
	if c == nil {
		return nil, false
	}
	info, ok := c.infos.Get(hash)
	if !ok {
		c.metrics.cacheMisses.Inc()
		return nil, false
	}
	c.metrics.cacheHits.Inc()
	return info.Clone(), true
}

func (c *blockInfoCache) add(info *BlockInfo) {
	if c == nil {
		return
	}
	c.infos.Add(info.Hash, info.Clone())
}
