// Package metacache interposes a stat/listing cache between an origin
// VFS and a cache-storage VFS.
package metacache

import "time"

const metadataVersion = "1.0"

// Options configures a Cache.
type Options struct {
	// MaxCacheAge is how long a cached entry is considered fresh
	// before stat/list fall through to the origin. Default 30 minutes.
	MaxCacheAge time.Duration
	// LargeDirectoryThreshold is the child count above which a
	// directory's children are not written back, only its stat.
	// Default 1000.
	LargeDirectoryThreshold int
}

// WithDefaults returns opt with zero-valued fields replaced by defaults.
func (opt Options) WithDefaults() Options {
	if opt.MaxCacheAge <= 0 {
		opt.MaxCacheAge = 30 * time.Minute
	}
	if opt.LargeDirectoryThreshold <= 0 {
		opt.LargeDirectoryThreshold = 1000
	}
	return opt
}
