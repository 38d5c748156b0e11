package blockcache

import (
	"github.com/vfs-framework/vfs/vfsctx"
	"github.com/vfs-framework/vfs/vfspath"
)

// validate implements the metadata-validation / collision-guard rule:
// the cache is valid for P iff meta.json exists, its recorded
// path/block-size/version match, and the origin's current size
// matches the recorded size. Any mismatch means the cache doesn't
// serve P -- crucially including a SHA-256 prefix collision, since
// meta.FilePath is checked against P itself.
func (c *Cache) validate(ctx *vfsctx.Context, logicalPath vfspath.Path) (*cacheMetadata, bool) {
	key := logicalPath.String()
	if v, ok := c.validMemo.Get(key); ok && !v.(bool) {
		return nil, false
	}
	meta, err := c.readMetadata(ctx, key)
	if err != nil || meta == nil {
		c.validMemo.SetDefault(key, false)
		return nil, false
	}
	if meta.FilePath != key || meta.BlockSize != uint32(c.opt.BlockSize) || meta.Version != metadataVersion {
		c.validMemo.SetDefault(key, false)
		c.invalidate(ctx, logicalPath)
		return nil, false
	}
	originStat, err := c.originStat(ctx, logicalPath)
	if err != nil || originStat == nil || originStat.Size == nil || *originStat.Size != meta.FileSize {
		c.validMemo.SetDefault(key, false)
		c.invalidate(ctx, logicalPath)
		return nil, false
	}
	c.validMemo.SetDefault(key, true)
	c.metaMemo.SetDefault(key, meta)
	return meta, true
}
