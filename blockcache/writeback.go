package blockcache

import (
	"strconv"

	"github.com/vfs-framework/vfs/vfs"
	"github.com/vfs-framework/vfs/vfsctx"
	"github.com/vfs-framework/vfs/vfslog"
)

// scheduleBlockWrite fires off asynchronous cache population: write
// the block, then update metadata. Failures are logged and dropped,
// never surfaced to the caller who already received their bytes from
// the origin.
func (c *Cache) scheduleBlockWrite(logicalPath string, index uint64, fileSize uint64, data []byte) {
	go func() {
		ctx := vfsctx.New(c.log)
		if err := c.writeBlockAndMetadata(ctx, logicalPath, uint32(index), fileSize, data); err != nil {
			c.log.Warning("blockcache: background cache write failed", vfslog.Fields{"path": logicalPath, "block": index, "error": err.Error()})
		}
	}()
}

func (c *Cache) writeBlockAndMetadata(ctx *vfsctx.Context, logicalPath string, index uint32, fileSize uint64, data []byte) error {
	if err := c.cacheStore.CreateDirectory(ctx, blocksDir(logicalPath), vfs.CreateDirectoryOptions{CreateParents: true}); err != nil {
		return err
	}
	tmp := blocksDir(logicalPath).Join(".block." + strconv.FormatUint(uint64(index), 10) + ".tmp")
	if err := c.cacheStore.WriteBytes(ctx, tmp, data, overwriteOpts()); err != nil {
		return err
	}
	if err := c.cacheStore.Move(ctx, tmp, blockPath(logicalPath, index), moveOverwriteOpts()); err != nil {
		return err
	}
	return c.updateMetadataAfterBlock(ctx, logicalPath, index, fileSize)
}

// updateMetadataAfterBlock reads existing metadata if any, adds the
// block, refreshes last_modified, recomputes total_blocks, and
// rewrites atomically.
func (c *Cache) updateMetadataAfterBlock(ctx *vfsctx.Context, logicalPath string, index uint32, fileSize uint64) error {
	lock := c.metaLock(logicalPath)
	lock.Lock()
	defer lock.Unlock()

	existing, err := c.readMetadata(ctx, logicalPath)
	if err != nil {
		existing = nil
	}
	m := existing
	if m == nil || m.FilePath != logicalPath || m.BlockSize != uint32(c.opt.BlockSize) {
		m = &cacheMetadata{
			FilePath:  logicalPath,
			BlockSize: uint32(c.opt.BlockSize),
			Version:   metadataVersion,
		}
	}
	m.FileSize = fileSize
	m.addBlock(index)
	m.TotalBlocks = uint32(ceilDiv(fileSize, c.opt.BlockSize))
	m.LastModified = c.now()
	if err := c.writeMetadata(ctx, logicalPath, m); err != nil {
		return err
	}
	key := logicalPath
	c.metaMemo.SetDefault(key, m)
	c.validMemo.SetDefault(key, true)
	return nil
}
