package blockcache

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/vfs-framework/vfs/vfs"
	"github.com/vfs-framework/vfs/vfsclock"
	"github.com/vfs-framework/vfs/vfsctx"
	"github.com/vfs-framework/vfs/vfserr"
	"github.com/vfs-framework/vfs/vfslog"
	"github.com/vfs-framework/vfs/vfspath"
	"github.com/vfs-framework/vfs/vfsstatus"
)

// Cache interposes between an origin VFS and a cache-storage VFS,
// serving reads through fixed-size blocks with read-ahead.
type Cache struct {
	origin     vfs.FS
	cacheStore vfs.FS
	opt        Options
	clock      vfsclock.Clock
	log        vfslog.Logger

	// in-process memo maps, jointly invalidated per path.
	statMemo  *gocache.Cache
	metaMemo  *gocache.Cache
	validMemo *gocache.Cache

	originStatGroup  singleflight.Group
	blockFetchGroup  singleflight.Group

	mu        sync.Mutex
	readAhead map[string]*readAheadState

	metaLocksMu sync.Mutex
	metaLocks   map[string]*sync.Mutex
}

// New builds a Cache. cacheStore must tolerate concurrent readers and
// one concurrent writer per file.
func New(origin, cacheStore vfs.FS, opt Options, clock vfsclock.Clock, log vfslog.Logger) *Cache {
	opt = opt.WithDefaults()
	if clock == nil {
		clock = vfsclock.System()
	}
	if log == nil {
		log = vfslog.Noop()
	}
	ttl := opt.MemoTTL
	return &Cache{
		origin:     origin,
		cacheStore: cacheStore,
		opt:        opt,
		clock:      clock,
		log:        log,
		statMemo:   gocache.New(ttl, 2*ttl),
		metaMemo:   gocache.New(ttl, 2*ttl),
		validMemo:  gocache.New(ttl, 2*ttl),
		readAhead:  make(map[string]*readAheadState),
		metaLocks:  make(map[string]*sync.Mutex),
	}
}

// metaLock returns a per-path mutex serializing concurrent
// read-modify-write updates to that path's meta.json, since multiple
// blocks of the same file can finish fetching concurrently.
func (c *Cache) metaLock(logicalPath string) *sync.Mutex {
	c.metaLocksMu.Lock()
	defer c.metaLocksMu.Unlock()
	l, ok := c.metaLocks[logicalPath]
	if !ok {
		l = &sync.Mutex{}
		c.metaLocks[logicalPath] = l
	}
	return l
}

var _ vfs.FS = (*Cache)(nil)

// originStat fetches the origin's stat for path, memoized briefly and
// collapsed across concurrent callers via singleflight.
func (c *Cache) originStat(ctx *vfsctx.Context, path vfspath.Path) (*vfsstatus.FileStatus, error) {
	key := path.String()
	if v, ok := c.statMemo.Get(key); ok {
		return v.(*vfsstatus.FileStatus), nil
	}
	v, err, _ := c.originStatGroup.Do(key, func() (interface{}, error) {
		st, err := c.origin.Stat(ctx, path)
		if err != nil {
			return nil, err
		}
		c.statMemo.SetDefault(key, st)
		return st, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*vfsstatus.FileStatus), nil
}

// Stat passes through to the origin unmodified: the block cache only
// interposes on byte ranges, not status.
func (c *Cache) Stat(ctx *vfsctx.Context, path vfspath.Path) (*vfsstatus.FileStatus, error) {
	return c.origin.Stat(ctx, path)
}

// Exists passes through to the origin.
func (c *Cache) Exists(ctx *vfsctx.Context, path vfspath.Path) (bool, error) {
	return c.origin.Exists(ctx, path)
}

// List passes through to the origin; directory listings are the
// metadata cache's concern, not the block cache's.
func (c *Cache) List(ctx *vfsctx.Context, path vfspath.Path, opts vfs.ListOptions) (vfs.DirIterator, error) {
	return c.origin.List(ctx, path, opts)
}

// CreateDirectory passes through; directories hold no block-cache state.
func (c *Cache) CreateDirectory(ctx *vfsctx.Context, path vfspath.Path, opts vfs.CreateDirectoryOptions) error {
	return c.origin.CreateDirectory(ctx, path, opts)
}

// Delete removes from the origin then invalidates the path's cache entry.
func (c *Cache) Delete(ctx *vfsctx.Context, path vfspath.Path, opts vfs.DeleteOptions) error {
	if err := c.origin.Delete(ctx, path, opts); err != nil {
		return err
	}
	c.invalidate(ctx, path)
	return nil
}

// Copy copies on the origin then invalidates the destination's cache entry.
func (c *Cache) Copy(ctx *vfsctx.Context, src, dst vfspath.Path, opts vfs.CopyOptions) error {
	if err := c.origin.Copy(ctx, src, dst, opts); err != nil {
		return err
	}
	c.invalidate(ctx, dst)
	return nil
}

// Move moves on the origin then invalidates both sides' cache entries.
func (c *Cache) Move(ctx *vfsctx.Context, src, dst vfspath.Path, opts vfs.MoveOptions) error {
	if err := c.origin.Move(ctx, src, dst, opts); err != nil {
		return err
	}
	c.invalidate(ctx, src)
	c.invalidate(ctx, dst)
	return nil
}

// WriteBytes writes through to the origin then invalidates.
func (c *Cache) WriteBytes(ctx *vfsctx.Context, path vfspath.Path, data []byte, opts vfs.WriteOptions) error {
	if err := c.origin.WriteBytes(ctx, path, data, opts); err != nil {
		return err
	}
	c.invalidate(ctx, path)
	return nil
}

// OpenWrite wraps the origin's sink so invalidation runs exactly once
// after Close, even if Close errored.
func (c *Cache) OpenWrite(ctx *vfsctx.Context, path vfspath.Path, opts vfs.WriteOptions) (vfs.WriteSink, error) {
	inner, err := c.origin.OpenWrite(ctx, path, opts)
	if err != nil {
		return nil, err
	}
	return &invalidatingSink{inner: inner, onClose: func() { c.invalidate(ctx, path) }}, nil
}

type invalidatingSink struct {
	inner   vfs.WriteSink
	onClose func()
	once    sync.Once
}

func (s *invalidatingSink) Write(p []byte) (int, error) { return s.inner.Write(p) }

func (s *invalidatingSink) Close() error {
	err := s.inner.Close()
	s.once.Do(s.onClose)
	return err
}

// ReadAsBytes drains OpenRead, reusing the same block-serving path as
// OpenRead so both entry points share cache behavior.
func (c *Cache) ReadAsBytes(ctx *vfsctx.Context, path vfspath.Path, opts vfs.ReadOptions) ([]byte, error) {
	return vfs.DrainRead(ctx, c, path, opts)
}

// invalidate deletes the whole hash directory for path (best-effort)
// and its memo entries: any mismatch invalidates the entire entry
// for P.
func (c *Cache) invalidate(ctx *vfsctx.Context, path vfspath.Path) {
	key := path.String()
	c.statMemo.Delete(key)
	c.metaMemo.Delete(key)
	c.validMemo.Delete(key)
	dir := hashDir(key)
	if err := c.cacheStore.Delete(ctx, dir, vfs.DeleteOptions{Recursive: true}); err != nil && !vfserr.Is(err, vfserr.NotFound) {
		c.log.Warning("blockcache: invalidation delete failed", vfslog.Fields{"path": key, "error": err.Error()})
	}
	c.cleanupEmptyParents(ctx, dir)
}

// cleanupEmptyParents best-effort removes now-empty level-2 and
// level-1 parent directories above a deleted hash directory.
func (c *Cache) cleanupEmptyParents(ctx *vfsctx.Context, dir vfspath.Path) {
	cur := dir
	for i := 0; i < 2; i++ {
		parent, ok := cur.Parent()
		if !ok {
			return
		}
		it, err := c.cacheStore.List(ctx, parent, vfs.ListOptions{})
		if err != nil {
			return
		}
		entries, err := vfs.Drain(it)
		if err != nil || len(entries) > 0 {
			return
		}
		if err := c.cacheStore.Delete(ctx, parent, vfs.DeleteOptions{}); err != nil {
			return
		}
		cur = parent
	}
}

func (c *Cache) now() time.Time { return c.clock.Now() }
