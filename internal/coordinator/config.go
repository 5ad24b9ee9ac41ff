package coordinator

import "time"

// Config configures the Coordinator's fan-out behavior.
type Config struct {
	// QueryTimeout is kept in the Config but Coordinator.Search does not
	// read it; no deadline is derived from it.
	QueryTimeout time.Duration

	// PerShardTimeout is the one deadline Search sets on the context
	// shared by all concurrent shard calls of a query. Each shard call is
	// synchronous and CPU-bound and is not interrupted; a shard whose
	// call returns after the deadline has its result replaced by an
	// error.
	PerShardTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		QueryTimeout:    10 * time.Second,
		PerShardTimeout: 5 * time.Second,
	}
}
