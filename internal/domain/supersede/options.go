package supersede

import "github.com/google/uuid"

// Option applies a configuration option to the in-memory tracker.
type Option func(*inMemoryTracker)

// WithMaxSize bounds the number of tracked sessions.
// If maxSize > 0: the oldest session is evicted when full.
// If maxSize <= 0: unbounded.
func WithMaxSize(maxSize int) Option {
	return func(t *inMemoryTracker) {
		t.maxSize = maxSize
	}
}

// WithIDGenerator overrides ticket id generation.
func WithIDGenerator(gen func() uuid.UUID) Option {
	return func(t *inMemoryTracker) {
		if gen != nil {
			t.newID = gen
		}
	}
}
