package sqldb

import "time"

const (
	defaultMaxOpenConns = 16
	defaultBusyTimeout  = 5 * time.Second
)

// Config defines the connection pool settings of an SQL database.
type Config struct {
	// MaxOpenConns bounds the number of pooled connections. Operations
	// wait for a free connection until their context is done. Zero selects
	// the backend default: 1 for in-memory SQLite, 16 otherwise.
	MaxOpenConns int

	// MaxIdleConns is the number of idle connections kept in the pool.
	// Zero keeps as many as MaxOpenConns.
	MaxIdleConns int

	// BusyTimeout is how long SQLite waits on a locked database file
	// before failing. Ignored by Postgres.
	BusyTimeout time.Duration
}

// DefaultConfig returns a Config with the default pool settings.
func DefaultConfig() *Config {
	return &Config{BusyTimeout: defaultBusyTimeout}
}

func (cfg *Config) maxOpenConns(memory bool) int {
	if cfg.MaxOpenConns > 0 {
		return cfg.MaxOpenConns
	}
	// Connections to a shared-cache in-memory database contend on table
	// locks and fail with SQLITE_LOCKED instead of waiting, so a single
	// connection is used unless explicitly configured.
	if memory {
		return 1
	}
	return defaultMaxOpenConns
}

func (cfg *Config) maxIdleConns(memory bool) int {
	if cfg.MaxIdleConns > 0 {
		return cfg.MaxIdleConns
	}
	return cfg.maxOpenConns(memory)
}

func (cfg *Config) busyTimeout() time.Duration {
	if cfg.BusyTimeout > 0 {
		return cfg.BusyTimeout
	}
	return defaultBusyTimeout
}
