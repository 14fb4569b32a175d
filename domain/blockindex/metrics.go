package blockindex

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "chainstore"

type metrics struct {
	blocksInserted prometheus.Counter
	insertRaces    prometheus.Counter
	seekHops       prometheus.Histogram
	cacheHits      prometheus.Counter
	cacheMisses    prometheus.Counter
}

// newMetrics creates the Store's collectors and registers them with
// registerer, if any. Unregistered collectors still count, they are
// just never exported.
func newMetrics(registerer prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		blocksInserted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "blocks_inserted_total",
			Help:      "Number of blocks written to the store",
		}),
		insertRaces: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "block_insert_races_total",
			Help:      "Number of block inserts that lost a race against a concurrent insert of the same block",
		}),
		seekHops: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "ancestor_seek_hops",
			Help:      "Number of back-links followed per ancestor seek",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 8),
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "block_info_cache_hits_total",
			Help:      "Number of BlockInfo lookups served from memory",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "block_info_cache_misses_total",
			Help:      "Number of BlockInfo lookups that went to the database",
		}),
	}
	if registerer == nil {
		return m, nil
	}

	for _, collector := range []prometheus.Collector{
		m.blocksInserted, m.insertRaces, m.seekHops, m.cacheHits, m.cacheMisses} {

		err := registerer.Register(collector)
		if err != nil {
			return nil, errors.Wrap(err, "failed registering metrics")
		}
	}
	return m, nil
}
