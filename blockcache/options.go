// Package blockcache implements a read-through fixed-size-block
// cache with sequential read-ahead and hash-collision-safe metadata.
package blockcache

import "time"

// metadataVersion is the current on-disk CacheMetadata schema version.
const metadataVersion = "1.0"

// Options configures a Cache.
type Options struct {
	// BlockSize is the fixed block size in bytes. Default 1 MiB.
	BlockSize uint64
	// ReadAheadBlocks is how many blocks ahead to prefetch on
	// sequential access. Default 2.
	ReadAheadBlocks uint32
	// EnableReadAhead toggles prefetching entirely. Go's zero value is
	// false, so callers that want read-ahead on by default must set
	// this explicitly to true; WithDefaults cannot distinguish "unset"
	// from "explicitly off".
	EnableReadAhead bool
	// MemoTTL is the lifetime of the in-process stat/metadata/validity
	// memo maps. Default 30s.
	MemoTTL time.Duration
	// BackgroundWorkers is defaulted to 8 by WithDefaults but is not
	// read by the Cache: each background block write runs on its own
	// goroutine, and each read-ahead batch is bounded only by its own
	// size (at most ReadAheadBlocks).
	BackgroundWorkers int
}

// WithDefaults fills zero fields with default values.
func (o Options) WithDefaults() Options {
	if o.BlockSize == 0 {
		o.BlockSize = 1 << 20
	}
	if o.ReadAheadBlocks == 0 {
		o.ReadAheadBlocks = 2
	}
	if o.MemoTTL == 0 {
		o.MemoTTL = 30 * time.Second
	}
	if o.BackgroundWorkers == 0 {
		o.BackgroundWorkers = 8
	}
	return o
}
