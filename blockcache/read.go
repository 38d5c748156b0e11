package blockcache

import (
	"io"

	"github.com/vfs-framework/vfs/vfs"
	"github.com/vfs-framework/vfs/vfsctx"
	"github.com/vfs-framework/vfs/vfserr"
	"github.com/vfs-framework/vfs/vfslog"
	"github.com/vfs-framework/vfs/vfspath"
)

// OpenRead implements the block-cache read path.
func (c *Cache) OpenRead(ctx *vfsctx.Context, path vfspath.Path, opts vfs.ReadOptions) (io.ReadCloser, error) {
	if ctx.CheckCanceled() {
		return nil, vfserr.New(vfserr.ContextCanceled, path.String())
	}
	stat, err := c.origin.Stat(ctx, path)
	if err != nil {
		return nil, err
	}
	if stat == nil {
		return nil, vfserr.New(vfserr.NotFound, path.String())
	}
	if stat.IsDirectory {
		return nil, vfserr.New(vfserr.NotAFile, path.String())
	}
	fileSize := uint64(0)
	if stat.Size != nil {
		fileSize = *stat.Size
	}

	start, end := uint64(0), fileSize
	if opts.Start != nil {
		start = *opts.Start
	}
	if opts.End != nil && *opts.End < end {
		end = *opts.End
	}
	if start > fileSize {
		start = fileSize
	}
	if end < start {
		end = start
	}
	if fileSize == 0 || start >= end {
		return io.NopCloser(noBytesReader{}), nil
	}

	blockSize := c.opt.BlockSize
	startBlock := start / blockSize
	endBlock := (end - 1) / blockSize

	return &blockRangeReader{
		ctx:        ctx,
		c:          c,
		path:       path,
		fileSize:   fileSize,
		blockSize:  blockSize,
		curBlock:   startBlock,
		startBlock: startBlock,
		endBlock:   endBlock,
		start:      start,
		end:        end,
	}, nil
}

type noBytesReader struct{}

func (noBytesReader) Read([]byte) (int, error) { return 0, io.EOF }

// blockRangeReader lazily pulls blocks [startBlock, endBlock] in
// ascending order, slicing each to the requested sub-range before
// yielding, and triggers read-ahead after each block is served.
type blockRangeReader struct {
	ctx        *vfsctx.Context
	c          *Cache
	path       vfspath.Path
	fileSize   uint64
	blockSize  uint64
	curBlock   uint64
	startBlock uint64
	endBlock   uint64
	start, end uint64

	curData []byte
	curPos  int
	done    bool
}

func (r *blockRangeReader) Read(p []byte) (int, error) {
	for {
		if r.curPos < len(r.curData) {
			n := copy(p, r.curData[r.curPos:])
			r.curPos += n
			return n, nil
		}
		if r.done || r.curBlock > r.endBlock {
			return 0, io.EOF
		}
		if r.ctx.CheckCanceled() {
			return 0, vfserr.New(vfserr.ContextCanceled, r.path.String())
		}
		data, err := r.c.fetchBlock(r.ctx, r.path, r.curBlock, r.fileSize)
		if err != nil {
			return 0, err
		}
		blockStart := r.curBlock * r.blockSize
		lo, hi := uint64(0), uint64(len(data))
		if r.curBlock == r.startBlock && r.start > blockStart {
			lo = r.start - blockStart
		}
		if r.curBlock == r.endBlock {
			relEnd := r.end - blockStart
			if relEnd < hi {
				hi = relEnd
			}
		}
		if lo > hi {
			lo = hi
		}
		r.curData = data[lo:hi]
		r.curPos = 0
		r.c.triggerReadAhead(r.path, r.curBlock, r.fileSize)
		r.curBlock++
	}
}

func (r *blockRangeReader) Close() error {
	r.done = true
	return nil
}

// fetchBlock serves block index of path from the cache when valid
// metadata records it as cached, otherwise reads it from the origin,
// yields it immediately, and schedules an asynchronous cache write --
// cache-layer errors at every step fall back to the origin rather than
// failing the read.
func (c *Cache) fetchBlock(ctx *vfsctx.Context, path vfspath.Path, index uint64, fileSize uint64) ([]byte, error) {
	key := path.String()
	if meta, ok := c.validate(ctx, path); ok && meta.hasBlock(uint32(index)) {
		data, err := c.readCachedBlock(ctx, key, uint32(index))
		if err == nil {
			return data, nil
		}
		c.log.Warning("blockcache: cache read failed, falling back to origin", vfslog.Fields{"path": key, "block": index, "error": err.Error()})
	}

	v, err, _ := c.blockFetchGroup.Do(blockKey(key, index), func() (interface{}, error) {
		return c.readOriginBlock(ctx, path, index, fileSize)
	})
	if err != nil {
		return nil, err
	}
	data := v.([]byte)

	c.scheduleBlockWrite(key, index, fileSize, data)
	return data, nil
}

func (c *Cache) readOriginBlock(ctx *vfsctx.Context, path vfspath.Path, index uint64, fileSize uint64) ([]byte, error) {
	blockSize := c.opt.BlockSize
	start := index * blockSize
	end := start + blockSize
	if end > fileSize {
		end = fileSize
	}
	return c.origin.ReadAsBytes(ctx, path, rangeOpts(start, end))
}

func (c *Cache) readCachedBlock(ctx *vfsctx.Context, logicalPath string, index uint32) ([]byte, error) {
	return c.cacheStore.ReadAsBytes(ctx, blockPath(logicalPath, index), readAll())
}

func blockKey(logicalPath string, index uint64) string {
	return logicalPath + "#" + itoa64(index)
}

func itoa64(i uint64) string {
	if i == 0 {
		return "0"
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	return string(buf[pos:])
}
