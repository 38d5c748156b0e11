package metacache

import (
	"io"
	"time"

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
// serving stat and non-recursive listing from cache when fresh.
type Cache struct {
	origin     vfs.FS
	cacheStore vfs.FS
	opt        Options
	clock      vfsclock.Clock
	log        vfslog.Logger

	statGroup singleflight.Group
	listGroup singleflight.Group
}

// New builds a metadata Cache.
func New(origin, cacheStore vfs.FS, opt Options, clock vfsclock.Clock, log vfslog.Logger) *Cache {
	opt = opt.WithDefaults()
	if clock == nil {
		clock = vfsclock.System()
	}
	if log == nil {
		log = vfslog.Noop()
	}
	return &Cache{origin: origin, cacheStore: cacheStore, opt: opt, clock: clock, log: log}
}

var _ vfs.FS = (*Cache)(nil)

func (c *Cache) now() time.Time { return c.clock.Now() }

func (c *Cache) fresh(e *cacheEntry) bool {
	return e != nil && e.Version == metadataVersion && c.now().Sub(e.LastUpdated) <= c.opt.MaxCacheAge
}

// Stat serves from cache if fresh, otherwise fetches the origin and
// asynchronously refreshes the cache.
func (c *Cache) Stat(ctx *vfsctx.Context, path vfspath.Path) (*vfsstatus.FileStatus, error) {
	if ctx.CheckCanceled() {
		return nil, vfserr.New(vfserr.ContextCanceled, path.String())
	}
	key := path.String()
	entry, err := c.readEntry(ctx, key)
	if err == nil && c.fresh(entry) {
		st := entry.Stat.toStatus()
		return &st, nil
	}

	v, err, _ := c.statGroup.Do(key, func() (interface{}, error) {
		return c.origin.Stat(ctx, path)
	})
	if err != nil {
		return nil, err
	}
	st, _ := v.(*vfsstatus.FileStatus)
	go c.refreshStatAsync(key, st, entry)
	return st, nil
}

// refreshStatAsync persists the freshly-observed stat, preserving any
// existing children/isLargeDirectory fields -- a stat refresh must not
// discard a still-valid directory listing.
func (c *Cache) refreshStatAsync(key string, st *vfsstatus.FileStatus, prior *cacheEntry) {
	ctx := vfsctx.New(c.log)
	if st == nil {
		if err := c.cacheStore.Delete(ctx, hashDir(key), vfs.DeleteOptions{Recursive: true}); err != nil && !vfserr.Is(err, vfserr.NotFound) {
			c.log.Warning("metacache: stale entry cleanup failed", vfslog.Fields{"path": key, "error": err.Error()})
		}
		return
	}
	e := &cacheEntry{Path: key, Stat: toStatusJSON(*st), LastUpdated: c.now(), Version: metadataVersion}
	if prior != nil && prior.Path == key {
		e.Children = prior.Children
		e.IsLargeDirectory = prior.IsLargeDirectory
	}
	if err := c.writeEntry(ctx, key, e); err != nil {
		c.log.Warning("metacache: stat refresh write failed", vfslog.Fields{"path": key, "error": err.Error()})
	}
}

// Exists is implemented as stat returning a non-nil result.
func (c *Cache) Exists(ctx *vfsctx.Context, path vfspath.Path) (bool, error) {
	st, err := c.Stat(ctx, path)
	if err != nil {
		return false, err
	}
	return st != nil, nil
}

// List serves non-recursive listings from cache when fresh. Recursive
// listings bypass the cache entirely: only non-recursive child sets
// are a cacheable unit given the {stat, children?} entry shape.
func (c *Cache) List(ctx *vfsctx.Context, path vfspath.Path, opts vfs.ListOptions) (vfs.DirIterator, error) {
	if ctx.CheckCanceled() {
		return nil, vfserr.New(vfserr.ContextCanceled, path.String())
	}
	if opts.Recursive {
		return c.origin.List(ctx, path, opts)
	}
	key := path.String()
	entry, err := c.readEntry(ctx, key)
	if err == nil && c.fresh(entry) && !entry.IsLargeDirectory && entry.hasChildren() {
		items := make([]vfsstatus.FileStatus, len(entry.Children))
		for i, j := range entry.Children {
			items[i] = j.toStatus()
		}
		return vfs.NewSliceIterator(items), nil
	}

	v, err, _ := c.listGroup.Do(key, func() (interface{}, error) {
		it, err := c.origin.List(ctx, path, opts)
		if err != nil {
			return nil, err
		}
		return vfs.Drain(it)
	})
	if err != nil {
		return nil, err
	}
	children := v.([]vfsstatus.FileStatus)
	go c.refreshListAsync(key, children)
	return vfs.NewSliceIterator(children), nil
}

func (c *Cache) refreshListAsync(key string, children []vfsstatus.FileStatus) {
	ctx := vfsctx.New(c.log)
	e := &cacheEntry{Path: key, Stat: toStatusJSON(vfsstatus.NewDirectory(vfspath.New(key))), LastUpdated: c.now(), Version: metadataVersion}
	if len(children) <= c.opt.LargeDirectoryThreshold {
		e.Children = make([]fileStatusJSON, len(children))
		for i, st := range children {
			e.Children[i] = toStatusJSON(st)
		}
		e.IsLargeDirectory = false
	} else {
		e.IsLargeDirectory = true
	}
	if err := c.writeEntry(ctx, key, e); err != nil {
		c.log.Warning("metacache: list refresh write failed", vfslog.Fields{"path": key, "error": err.Error()})
	}
}

func (c *Cache) OpenRead(ctx *vfsctx.Context, path vfspath.Path, opts vfs.ReadOptions) (io.ReadCloser, error) {
	if ctx.CheckCanceled() {
		return nil, vfserr.New(vfserr.ContextCanceled, path.String())
	}
	return c.origin.OpenRead(ctx, path, opts)
}

func (c *Cache) ReadAsBytes(ctx *vfsctx.Context, path vfspath.Path, opts vfs.ReadOptions) ([]byte, error) {
	if ctx.CheckCanceled() {
		return nil, vfserr.New(vfserr.ContextCanceled, path.String())
	}
	return c.origin.ReadAsBytes(ctx, path, opts)
}

func (c *Cache) OpenWrite(ctx *vfsctx.Context, path vfspath.Path, opts vfs.WriteOptions) (vfs.WriteSink, error) {
	if ctx.CheckCanceled() {
		return nil, vfserr.New(vfserr.ContextCanceled, path.String())
	}
	inner, err := c.origin.OpenWrite(ctx, path, opts)
	if err != nil {
		return nil, err
	}
	return &refreshingSink{inner: inner, onClose: func() { c.refreshAfterMutation(path) }}, nil
}

func (c *Cache) WriteBytes(ctx *vfsctx.Context, path vfspath.Path, data []byte, opts vfs.WriteOptions) error {
	if ctx.CheckCanceled() {
		return vfserr.New(vfserr.ContextCanceled, path.String())
	}
	if err := c.origin.WriteBytes(ctx, path, data, opts); err != nil {
		return err
	}
	c.refreshAfterMutation(path)
	return nil
}

func (c *Cache) CreateDirectory(ctx *vfsctx.Context, path vfspath.Path, opts vfs.CreateDirectoryOptions) error {
	if ctx.CheckCanceled() {
		return vfserr.New(vfserr.ContextCanceled, path.String())
	}
	if err := c.origin.CreateDirectory(ctx, path, opts); err != nil {
		return err
	}
	c.refreshAfterMutation(path)
	return nil
}

func (c *Cache) Delete(ctx *vfsctx.Context, path vfspath.Path, opts vfs.DeleteOptions) error {
	if ctx.CheckCanceled() {
		return vfserr.New(vfserr.ContextCanceled, path.String())
	}
	if err := c.origin.Delete(ctx, path, opts); err != nil {
		return err
	}
	c.refreshAfterMutation(path)
	return nil
}

func (c *Cache) Copy(ctx *vfsctx.Context, src, dst vfspath.Path, opts vfs.CopyOptions) error {
	if ctx.CheckCanceled() {
		return vfserr.New(vfserr.ContextCanceled, src.String())
	}
	if err := c.origin.Copy(ctx, src, dst, opts); err != nil {
		return err
	}
	c.refreshAfterMutation(src)
	c.refreshAfterMutation(dst)
	return nil
}

func (c *Cache) Move(ctx *vfsctx.Context, src, dst vfspath.Path, opts vfs.MoveOptions) error {
	if ctx.CheckCanceled() {
		return vfserr.New(vfserr.ContextCanceled, src.String())
	}
	if err := c.origin.Move(ctx, src, dst, opts); err != nil {
		return err
	}
	c.refreshAfterMutation(src)
	c.refreshAfterMutation(dst)
	return nil
}

// refreshAfterMutation invalidates path's own cache entry and its
// parent's (the parent's child list changed). Cross-path mutations
// call this for both src and dst. Invalidating rather than eagerly
// re-fetching still makes the change visible immediately: the next
// stat/list through the cache simply misses and repopulates from the
// origin.
func (c *Cache) refreshAfterMutation(path vfspath.Path) {
	ctx := vfsctx.New(c.log)
	c.dropEntry(ctx, path)
	if parent, ok := path.Parent(); ok {
		c.dropEntry(ctx, parent)
	}
}

func (c *Cache) dropEntry(ctx *vfsctx.Context, path vfspath.Path) {
	key := path.String()
	if err := c.cacheStore.Delete(ctx, hashDir(key), vfs.DeleteOptions{Recursive: true}); err != nil && !vfserr.Is(err, vfserr.NotFound) {
		c.log.Warning("metacache: entry invalidation failed", vfslog.Fields{"path": key, "error": err.Error()})
	}
}

type refreshingSink struct {
	inner   vfs.WriteSink
	onClose func()
	closed  bool
}

func (s *refreshingSink) Write(p []byte) (int, error) { return s.inner.Write(p) }

func (s *refreshingSink) Close() error {
	err := s.inner.Close()
	if !s.closed {
		s.closed = true
		s.onClose()
	}
	return err
}
