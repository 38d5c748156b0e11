// Package memory implements a rooted in-RAM tree backend. It serves
// as the reference implementation of the capability contract and
// doubles as the cache-storage substrate for blockcache and metacache.
package memory

import (
	"bytes"
	"io"
	"sync"
	"sync/atomic"

	"github.com/vfs-framework/vfs/vfs"
	"github.com/vfs-framework/vfs/vfsctx"
	"github.com/vfs-framework/vfs/vfserr"
	"github.com/vfs-framework/vfs/vfshelper"
	"github.com/vfs-framework/vfs/vfspath"
	"github.com/vfs-framework/vfs/vfsstatus"
)

// node is one entry in the tree: either a directory (children != nil)
// or a file (data holds the payload).
type node struct {
	mu       sync.RWMutex
	isDir    bool
	data     []byte
	children map[string]*node
}

func newDirNode() *node {
	return &node{isDir: true, children: make(map[string]*node)}
}

// Counters are the performance diagnostics the memory backend exposes.
type Counters struct {
	Ops          int64
	BytesWritten int64
	BytesRead    int64
	MaxBufferLen int64
	EntityCount  int64
}

// FS is the in-RAM tree backend.
type FS struct {
	vfshelper.Mixin
	mu       sync.RWMutex
	root     *node
	counters Counters
}

var _ vfs.FS = (*FS)(nil)

// New builds an empty in-RAM tree.
func New() *FS {
	fs := &FS{root: newDirNode()}
	atomic.AddInt64(&fs.counters.EntityCount, 1)
	fs.Mixin = vfshelper.Mixin{Primitives: fs}
	return fs
}

// Stats returns a snapshot of the performance counters.
func (f *FS) Stats() Counters {
	return Counters{
		Ops:          atomic.LoadInt64(&f.counters.Ops),
		BytesWritten: atomic.LoadInt64(&f.counters.BytesWritten),
		BytesRead:    atomic.LoadInt64(&f.counters.BytesRead),
		MaxBufferLen: atomic.LoadInt64(&f.counters.MaxBufferLen),
		EntityCount:  atomic.LoadInt64(&f.counters.EntityCount),
	}
}

func (f *FS) bumpBuffer(n int) {
	for {
		cur := atomic.LoadInt64(&f.counters.MaxBufferLen)
		if int64(n) <= cur {
			return
		}
		if atomic.CompareAndSwapInt64(&f.counters.MaxBufferLen, cur, int64(n)) {
			return
		}
	}
}

// lookup walks segments from root, returning the node or nil.
func (f *FS) lookup(p vfspath.Path) *node {
	cur := f.root
	for _, seg := range p.Segments() {
		cur.mu.RLock()
		child := cur.children[seg]
		cur.mu.RUnlock()
		if child == nil {
			return nil
		}
		cur = child
	}
	return cur
}

// parentOf returns the parent node of p, or nil if the parent is
// absent, creating nothing.
func (f *FS) parentOf(p vfspath.Path) (*node, string, bool) {
	parent, ok := p.Parent()
	if !ok {
		return nil, "", false
	}
	name, _ := p.Filename()
	return f.lookup(parent), name, true
}

func (f *FS) statNode(n *node, p vfspath.Path) vfsstatus.FileStatus {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.isDir {
		return vfsstatus.NewDirectory(p)
	}
	return vfsstatus.NewFile(p, uint64(len(n.data)))
}

// Stat implements vfshelper.Primitives.
func (f *FS) Stat(ctx *vfsctx.Context, p vfspath.Path) (*vfsstatus.FileStatus, error) {
	if ctx.CheckCanceled() {
		return nil, vfserr.New(vfserr.ContextCanceled, p.String())
	}
	atomic.AddInt64(&f.counters.Ops, 1)
	f.mu.RLock()
	defer f.mu.RUnlock()
	n := f.lookup(p)
	if n == nil {
		return nil, nil
	}
	st := f.statNode(n, p)
	return &st, nil
}

// NonRecursiveList implements vfshelper.Primitives.
func (f *FS) NonRecursiveList(ctx *vfsctx.Context, p vfspath.Path) (vfs.DirIterator, error) {
	if ctx.CheckCanceled() {
		return nil, vfserr.New(vfserr.ContextCanceled, p.String())
	}
	atomic.AddInt64(&f.counters.Ops, 1)
	f.mu.RLock()
	defer f.mu.RUnlock()
	n := f.lookup(p)
	if n == nil {
		return nil, vfserr.New(vfserr.NotFound, p.String())
	}
	n.mu.RLock()
	defer n.mu.RUnlock()
	if !n.isDir {
		return nil, vfserr.New(vfserr.NotADirectory, p.String())
	}
	items := make([]vfsstatus.FileStatus, 0, len(n.children))
	for name, child := range n.children {
		items = append(items, f.statNode(child, p.Join(name)))
	}
	return vfs.NewSliceIterator(items), nil
}

// NonRecursiveCreateDirectory implements vfshelper.Primitives.
func (f *FS) NonRecursiveCreateDirectory(ctx *vfsctx.Context, p vfspath.Path) error {
	if ctx.CheckCanceled() {
		return vfserr.New(vfserr.ContextCanceled, p.String())
	}
	atomic.AddInt64(&f.counters.Ops, 1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.IsRoot() {
		return vfserr.New(vfserr.AlreadyExists, p.String())
	}
	parent, name, _ := f.parentOf(p)
	if parent == nil {
		return vfserr.New(vfserr.NotFound, p.String())
	}
	parent.mu.Lock()
	defer parent.mu.Unlock()
	if !parent.isDir {
		return vfserr.New(vfserr.NotADirectory, p.String())
	}
	if _, exists := parent.children[name]; exists {
		return vfserr.New(vfserr.AlreadyExists, p.String())
	}
	parent.children[name] = newDirNode()
	atomic.AddInt64(&f.counters.EntityCount, 1)
	return nil
}

// NonRecursiveDelete implements vfshelper.Primitives. Deletes a file,
// or a directory only if it is empty (non-recursive contract).
func (f *FS) NonRecursiveDelete(ctx *vfsctx.Context, p vfspath.Path) error {
	if ctx.CheckCanceled() {
		return vfserr.New(vfserr.ContextCanceled, p.String())
	}
	atomic.AddInt64(&f.counters.Ops, 1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.IsRoot() {
		return vfserr.New(vfserr.PermissionDenied, p.String())
	}
	parent, name, _ := f.parentOf(p)
	if parent == nil {
		return vfserr.New(vfserr.NotFound, p.String())
	}
	parent.mu.Lock()
	defer parent.mu.Unlock()
	target, ok := parent.children[name]
	if !ok {
		return vfserr.New(vfserr.NotFound, p.String())
	}
	target.mu.RLock()
	isDir, nChildren := target.isDir, len(target.children)
	target.mu.RUnlock()
	if isDir && nChildren > 0 {
		return vfserr.New(vfserr.NotEmptyDirectory, p.String())
	}
	delete(parent.children, name)
	atomic.AddInt64(&f.counters.EntityCount, -1)
	return nil
}

// NonRecursiveCopyFile implements vfshelper.Primitives by copying the
// byte payload directly, node to node.
func (f *FS) NonRecursiveCopyFile(ctx *vfsctx.Context, src, dst vfspath.Path, overwrite bool) error {
	if ctx.CheckCanceled() {
		return vfserr.New(vfserr.ContextCanceled, src.String())
	}
	atomic.AddInt64(&f.counters.Ops, 1)
	f.mu.Lock()
	defer f.mu.Unlock()
	srcNode := f.lookup(src)
	if srcNode == nil {
		return vfserr.New(vfserr.NotFound, src.String())
	}
	srcNode.mu.RLock()
	if srcNode.isDir {
		srcNode.mu.RUnlock()
		return vfserr.New(vfserr.NotAFile, src.String())
	}
	data := append([]byte(nil), srcNode.data...)
	srcNode.mu.RUnlock()

	parent, name, hasParent := f.parentOf(dst)
	if !hasParent {
		return vfserr.New(vfserr.PermissionDenied, dst.String())
	}
	if parent == nil {
		return vfserr.New(vfserr.NotFound, dst.String())
	}
	parent.mu.Lock()
	defer parent.mu.Unlock()
	if !parent.isDir {
		return vfserr.New(vfserr.NotADirectory, dst.String())
	}
	if existing, exists := parent.children[name]; exists {
		if existing.isDir {
			return vfserr.New(vfserr.NotAFile, dst.String())
		}
		if !overwrite {
			return vfserr.New(vfserr.AlreadyExists, dst.String())
		}
	} else {
		atomic.AddInt64(&f.counters.EntityCount, 1)
	}
	parent.children[name] = &node{data: data}
	atomic.AddInt64(&f.counters.BytesWritten, int64(len(data)))
	return nil
}

// OpenRead implements vfshelper.Primitives.
func (f *FS) OpenRead(ctx *vfsctx.Context, p vfspath.Path, opts vfs.ReadOptions) (io.ReadCloser, error) {
	if ctx.CheckCanceled() {
		return nil, vfserr.New(vfserr.ContextCanceled, p.String())
	}
	atomic.AddInt64(&f.counters.Ops, 1)
	f.mu.RLock()
	n := f.lookup(p)
	f.mu.RUnlock()
	if n == nil {
		return nil, vfserr.New(vfserr.NotFound, p.String())
	}
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.isDir {
		return nil, vfserr.New(vfserr.NotAFile, p.String())
	}
	slice := clampRange(n.data, opts)
	atomic.AddInt64(&f.counters.BytesRead, int64(len(slice)))
	return io.NopCloser(bytes.NewReader(slice)), nil
}

func clampRange(data []byte, opts vfs.ReadOptions) []byte {
	start, end := uint64(0), uint64(len(data))
	if opts.Start != nil && *opts.Start < end {
		start = *opts.Start
	} else if opts.Start != nil {
		start = end
	}
	if opts.End != nil && *opts.End < end {
		end = *opts.End
	}
	if end < start {
		end = start
	}
	return data[start:end]
}

// sink accumulates writes into a growable buffer, materializing into
// the node's byte payload on Close.
type sink struct {
	fs     *FS
	path   vfspath.Path
	buf    bytes.Buffer
	closed bool
}

func (s *sink) Write(p []byte) (int, error) {
	n, err := s.buf.Write(p)
	s.fs.bumpBuffer(s.buf.Len())
	return n, err
}

func (s *sink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.fs.materialize(s.path, s.buf.Bytes())
}

func (f *FS) materialize(p vfspath.Path, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	parent, name, hasParent := f.parentOf(p)
	if !hasParent {
		return vfserr.New(vfserr.PermissionDenied, p.String())
	}
	if parent == nil {
		return vfserr.New(vfserr.NotFound, p.String())
	}
	parent.mu.Lock()
	defer parent.mu.Unlock()
	if existing, exists := parent.children[name]; exists {
		existing.mu.Lock()
		existing.data = data
		existing.mu.Unlock()
	} else {
		parent.children[name] = &node{data: data}
		atomic.AddInt64(&f.counters.EntityCount, 1)
	}
	atomic.AddInt64(&f.counters.BytesWritten, int64(len(data)))
	return nil
}

// OpenWrite implements vfshelper.Primitives. Append mode seeds the
// buffer with the prior contents so Close materializes prior+new.
func (f *FS) OpenWrite(ctx *vfsctx.Context, p vfspath.Path, opts vfs.WriteOptions) (vfs.WriteSink, error) {
	if ctx.CheckCanceled() {
		return nil, vfserr.New(vfserr.ContextCanceled, p.String())
	}
	if err := vfshelper.CheckOpenWrite(f, ctx, p, opts.Mode); err != nil {
		return nil, err
	}
	s := &sink{fs: f, path: p}
	if opts.Mode == vfs.ModeAppend {
		f.mu.RLock()
		n := f.lookup(p)
		f.mu.RUnlock()
		if n != nil {
			n.mu.RLock()
			s.buf.Write(n.data)
			n.mu.RUnlock()
		}
	}
	return s, nil
}

// WriteBytes overrides Mixin's open+add+close with a single buffer
// fusion to avoid the double allocation the generic path would incur.
func (f *FS) WriteBytes(ctx *vfsctx.Context, p vfspath.Path, data []byte, opts vfs.WriteOptions) error {
	if ctx.CheckCanceled() {
		return vfserr.New(vfserr.ContextCanceled, p.String())
	}
	if err := vfshelper.CheckOpenWrite(f, ctx, p, opts.Mode); err != nil {
		return err
	}
	var out []byte
	if opts.Mode == vfs.ModeAppend {
		f.mu.RLock()
		n := f.lookup(p)
		f.mu.RUnlock()
		if n != nil {
			n.mu.RLock()
			out = make([]byte, 0, len(n.data)+len(data))
			out = append(out, n.data...)
			n.mu.RUnlock()
		}
	}
	out = append(out, data...)
	f.bumpBuffer(len(out))
	return f.materialize(p, out)
}
