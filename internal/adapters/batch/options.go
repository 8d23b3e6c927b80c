package batch

import "github.com/okian/osupp/pkg/logger"

// Option configures a Batcher at construction time.
type Option func(*Batcher)

// WithLogger overrides the batcher's logger.
func WithLogger(log logger.Logger) Option {
	return func(b *Batcher) {
		if log != nil {
			b.log = log
		}
	}
}
