// Package repository implements the SQL-backed adapters of spec.md §4.3
// and §4.7 (the beatmap cache and the checkpoint counter store) plus the
// one-shot startup loaders for the blacklist and the attribute intern table.
package repository

import "github.com/okian/osupp/pkg/logger"

// CacheOption configures a BeatmapCache at construction time.
type CacheOption func(*BeatmapCache)

// WithCacheLogger overrides the cache's logger.
func WithCacheLogger(log logger.Logger) CacheOption {
	return func(c *BeatmapCache) {
		if log != nil {
			c.log = log
		}
	}
}
