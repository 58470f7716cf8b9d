package repository

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithHistorySize bounds how many jobs are kept.
func WithHistorySize(n int) Option {
	return func(s *MemoryStore) {
		if n > 0 {
			s.maxSize = n
		}
	}
}
