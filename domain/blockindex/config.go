package blockindex

import (
	"time"

	"github.com/kaspanet/chainstore/infrastructure/db/database/sqldb"
	"github.com/prometheus/client_golang/prometheus"
)

// DefaultCacheSize is the number of BlockInfo records kept in memory by
// default.
const DefaultCacheSize = 4096

// Config holds the settings of a Store.
type Config struct {
	// Decoder turns stored payloads back into blocks. GetBlock fails
	// without one; every other operation works without it.
	Decoder BlockDecoder

	// CacheSize is the number of BlockInfo records cached in memory.
	// A negative value disables the cache.
	CacheSize int

	// OperationTimeout bounds every Store call whose context carries no
	// deadline of its own. Zero means no bound.
	OperationTimeout time.Duration

	// Registerer, when set, receives the Store's metrics.
	Registerer prometheus.Registerer

	// SQL holds the connection pool settings used by the SQL
	// constructors. Nil selects sqldb.DefaultConfig.
	SQL *sqldb.Config
}

// DefaultConfig returns a Config with the default settings and the given
// decoder.
func DefaultConfig(decoder BlockDecoder) *Config {
	return &Config{
		Decoder:   decoder,
		CacheSize: DefaultCacheSize,
	}
}
