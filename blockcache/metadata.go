package blockcache

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/vfs-framework/vfs/vfsctx"
)

// cacheMetadata mirrors the on-disk meta.json schema.
type cacheMetadata struct {
	FilePath     string    `json:"filePath"`
	FileSize     uint64    `json:"fileSize"`
	BlockSize    uint32    `json:"blockSize"`
	TotalBlocks  uint32    `json:"totalBlocks"`
	CachedBlocks []uint32  `json:"cachedBlocks"`
	LastModified time.Time `json:"lastModified"`
	Version      string    `json:"version"`
}

func ceilDiv(a, b uint64) uint64 {
	if b == 0 {
		return 0
	}
	return (a + b - 1) / b
}

// hasBlock reports whether index is recorded as cached.
func (m *cacheMetadata) hasBlock(index uint32) bool {
	for _, b := range m.CachedBlocks {
		if b == index {
			return true
		}
	}
	return false
}

func (m *cacheMetadata) addBlock(index uint32) {
	if m.hasBlock(index) {
		return
	}
	m.CachedBlocks = append(m.CachedBlocks, index)
	sort.Slice(m.CachedBlocks, func(i, j int) bool { return m.CachedBlocks[i] < m.CachedBlocks[j] })
}

// readMetadata reads and parses meta.json for logicalPath, returning
// (nil, nil) if it does not exist.
func (c *Cache) readMetadata(ctx *vfsctx.Context, logicalPath string) (*cacheMetadata, error) {
	exists, err := c.cacheStore.Exists(ctx, metaPath(logicalPath))
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	data, err := c.cacheStore.ReadAsBytes(ctx, metaPath(logicalPath), readAll())
	if err != nil {
		return nil, err
	}
	var m cacheMetadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(err, "blockcache: parse meta.json")
	}
	return &m, nil
}

// writeMetadata persists m for logicalPath. It writes to a temporary
// sibling path first and moves it into place, so a cancellation never
// leaves a half-written meta.json behind.
func (c *Cache) writeMetadata(ctx *vfsctx.Context, logicalPath string, m *cacheMetadata) error {
	data, err := json.Marshal(m)
	if err != nil {
		return errors.Wrap(err, "blockcache: marshal meta.json")
	}
	tmp := hashDir(logicalPath).Join(".meta.json.tmp")
	if err := c.cacheStore.WriteBytes(ctx, tmp, data, overwriteOpts()); err != nil {
		return err
	}
	return c.cacheStore.Move(ctx, tmp, metaPath(logicalPath), moveOverwriteOpts())
}
