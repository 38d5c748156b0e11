package blockcache

import (
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/vfs-framework/vfs/vfsctx"
	"github.com/vfs-framework/vfs/vfslog"
	"github.com/vfs-framework/vfs/vfspath"
)

// readAheadState tracks, per path, the last block accessed and the
// set of blocks currently being prefetched.
type readAheadState struct {
	mu                sync.Mutex
	lastAccessedBlock *uint64
	active            map[uint32]bool
}

func (c *Cache) stateFor(logicalPath string) *readAheadState {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.readAhead[logicalPath]
	if !ok {
		st = &readAheadState{active: make(map[uint32]bool)}
		c.readAhead[logicalPath] = st
	}
	return st
}

// triggerReadAhead implements the sequential-access rule: access of
// block i is "sequential" iff the previous access is absent, equal,
// or exactly one less than i. Non-sequential access prefetches
// nothing. On sequential access, blocks i+1..i+N are scheduled,
// skipping ones past the last block or already in flight; blocks
// already cached are skipped by the prefetch itself. A block is never
// prefetched twice at once, but the number of blocks in flight per
// file is not capped: successive triggers can leave more than N of
// them in flight together.
func (c *Cache) triggerReadAhead(path vfspath.Path, block uint64, fileSize uint64) {
	if !c.opt.EnableReadAhead || c.opt.ReadAheadBlocks == 0 {
		return
	}
	logicalPath := path.String()
	st := c.stateFor(logicalPath)

	st.mu.Lock()
	sequential := st.lastAccessedBlock == nil || *st.lastAccessedBlock == block || *st.lastAccessedBlock+1 == block
	b := block
	st.lastAccessedBlock = &b
	if !sequential {
		st.mu.Unlock()
		return
	}
	lastBlock := (fileSize - 1) / c.opt.BlockSize
	var toFetch []uint32
	for i := uint32(1); i <= c.opt.ReadAheadBlocks; i++ {
		idx := block + uint64(i)
		if idx > lastBlock {
			break
		}
		if st.active[uint32(idx)] {
			continue
		}
		st.active[uint32(idx)] = true
		toFetch = append(toFetch, uint32(idx))
	}
	st.mu.Unlock()

	if len(toFetch) == 0 {
		return
	}
	go c.prefetch(logicalPath, path, toFetch, fileSize, st)
}

// prefetch runs the scheduled block fetches under an errgroup bounded
// to len(toFetch) (<= read_ahead_blocks) concurrent goroutines, never
// blocking the caller that triggered it (it is itself already on a
// background goroutine). Failures are logged and dropped.
func (c *Cache) prefetch(logicalPath string, path vfspath.Path, blocks []uint32, fileSize uint64, st *readAheadState) {
	var g errgroup.Group
	g.SetLimit(len(blocks))
	for _, idx := range blocks {
		idx := idx
		g.Go(func() error {
			defer func() {
				st.mu.Lock()
				delete(st.active, idx)
				st.mu.Unlock()
			}()
			ctx := vfsctx.New(c.log)
			if ctx.CheckCanceled() {
				return nil
			}
			if meta, ok := c.validate(ctx, path); ok && meta.hasBlock(idx) {
				return nil
			}
			data, err := c.readOriginBlock(ctx, path, uint64(idx), fileSize)
			if err != nil {
				c.log.Warning("blockcache: read-ahead fetch failed", vfslog.Fields{"path": logicalPath, "block": idx, "error": err.Error()})
				return nil
			}
			if err := c.writeBlockAndMetadata(ctx, logicalPath, idx, fileSize, data); err != nil {
				c.log.Warning("blockcache: read-ahead write failed", vfslog.Fields{"path": logicalPath, "block": idx, "error": err.Error()})
			}
			return nil
		})
	}
	_ = g.Wait()
}
