package repository

// Option applies a configuration option to the PlayerStore.
type Option func(*PlayerStore)

// WithShardCount sets the number of independently locked shards.
func WithShardCount(n int) Option {
	return func(s *PlayerStore) {
		if n > 0 {
			s.shardCount = n
		}
	}
}
