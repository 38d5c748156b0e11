// Package alias implements a path-aliasing adapter: a bijective
// mapping between an alias path space and a subtree of a wrapped VFS
// rooted at sub_directory.
package alias

import (
	"io"

	"github.com/pkg/errors"
	"github.com/vfs-framework/vfs/vfs"
	"github.com/vfs-framework/vfs/vfsctx"
	"github.com/vfs-framework/vfs/vfserr"
	"github.com/vfs-framework/vfs/vfspath"
	"github.com/vfs-framework/vfs/vfsstatus"
)

// FS re-roots subDir of origin as its own root.
type FS struct {
	origin vfs.FS
	subDir vfspath.Path
}

// New builds an alias adapter exposing subDir of origin as "/".
func New(origin vfs.FS, subDir vfspath.Path) *FS {
	return &FS{origin: origin, subDir: subDir}
}

func (f *FS) out(alias vfspath.Path) vfspath.Path {
	return f.subDir.Join(alias.Segments()...)
}

// in strips the sub_directory prefix from an incoming origin path. The
// prefix is always expected to be present; its absence means the
// wrapped VFS leaked a path outside its subtree.
func (f *FS) in(inner vfspath.Path) (vfspath.Path, error) {
	p, ok := inner.TrimPrefix(f.subDir)
	if !ok {
		return vfspath.Path{}, errors.Errorf("alias: origin path %q escaped subdirectory %q", inner.String(), f.subDir.String())
	}
	return p, nil
}

func (f *FS) rewriteStatus(st *vfsstatus.FileStatus) (*vfsstatus.FileStatus, error) {
	if st == nil {
		return nil, nil
	}
	p, err := f.in(st.Path)
	if err != nil {
		return nil, err
	}
	out := st.WithPath(p)
	return &out, nil
}

// Stat rewrites alias_path -> sub_directory+alias_path, and the
// resulting status's path back into alias space.
func (f *FS) Stat(ctx *vfsctx.Context, path vfspath.Path) (*vfsstatus.FileStatus, error) {
	if ctx.CheckCanceled() {
		return nil, vfserr.New(vfserr.ContextCanceled, path.String())
	}
	st, err := f.origin.Stat(ctx, f.out(path))
	if err != nil {
		return nil, err
	}
	return f.rewriteStatus(st)
}

// Exists is the alias-space semantic equivalent of stat != nil.
func (f *FS) Exists(ctx *vfsctx.Context, path vfspath.Path) (bool, error) {
	if ctx.CheckCanceled() {
		return false, vfserr.New(vfserr.ContextCanceled, path.String())
	}
	return f.origin.Exists(ctx, f.out(path))
}

// List rewrites every yielded status's path back into alias space.
func (f *FS) List(ctx *vfsctx.Context, path vfspath.Path, opts vfs.ListOptions) (vfs.DirIterator, error) {
	if ctx.CheckCanceled() {
		return nil, vfserr.New(vfserr.ContextCanceled, path.String())
	}
	inner, err := f.origin.List(ctx, f.out(path), opts)
	if err != nil {
		return nil, err
	}
	return &rewriteIterator{inner: inner, f: f}, nil
}

type rewriteIterator struct {
	inner vfs.DirIterator
	f     *FS
}

func (r *rewriteIterator) Next() (vfsstatus.FileStatus, error) {
	st, err := r.inner.Next()
	if err != nil {
		return vfsstatus.FileStatus{}, err
	}
	rewritten, err := r.f.rewriteStatus(&st)
	if err != nil {
		return vfsstatus.FileStatus{}, err
	}
	return *rewritten, nil
}

func (r *rewriteIterator) Close() error { return r.inner.Close() }

// OpenRead delegates with the rewritten path.
func (f *FS) OpenRead(ctx *vfsctx.Context, path vfspath.Path, opts vfs.ReadOptions) (io.ReadCloser, error) {
	if ctx.CheckCanceled() {
		return nil, vfserr.New(vfserr.ContextCanceled, path.String())
	}
	return f.origin.OpenRead(ctx, f.out(path), opts)
}

// OpenWrite delegates with the rewritten path.
func (f *FS) OpenWrite(ctx *vfsctx.Context, path vfspath.Path, opts vfs.WriteOptions) (vfs.WriteSink, error) {
	if ctx.CheckCanceled() {
		return nil, vfserr.New(vfserr.ContextCanceled, path.String())
	}
	return f.origin.OpenWrite(ctx, f.out(path), opts)
}

// ReadAsBytes delegates with the rewritten path.
func (f *FS) ReadAsBytes(ctx *vfsctx.Context, path vfspath.Path, opts vfs.ReadOptions) ([]byte, error) {
	if ctx.CheckCanceled() {
		return nil, vfserr.New(vfserr.ContextCanceled, path.String())
	}
	return f.origin.ReadAsBytes(ctx, f.out(path), opts)
}

// WriteBytes delegates with the rewritten path.
func (f *FS) WriteBytes(ctx *vfsctx.Context, path vfspath.Path, data []byte, opts vfs.WriteOptions) error {
	if ctx.CheckCanceled() {
		return vfserr.New(vfserr.ContextCanceled, path.String())
	}
	return f.origin.WriteBytes(ctx, f.out(path), data, opts)
}

// CreateDirectory delegates with the rewritten path.
func (f *FS) CreateDirectory(ctx *vfsctx.Context, path vfspath.Path, opts vfs.CreateDirectoryOptions) error {
	if ctx.CheckCanceled() {
		return vfserr.New(vfserr.ContextCanceled, path.String())
	}
	return f.origin.CreateDirectory(ctx, f.out(path), opts)
}

// Delete delegates with the rewritten path.
func (f *FS) Delete(ctx *vfsctx.Context, path vfspath.Path, opts vfs.DeleteOptions) error {
	if ctx.CheckCanceled() {
		return vfserr.New(vfserr.ContextCanceled, path.String())
	}
	return f.origin.Delete(ctx, f.out(path), opts)
}

// Copy rewrites both endpoints into origin space.
func (f *FS) Copy(ctx *vfsctx.Context, src, dst vfspath.Path, opts vfs.CopyOptions) error {
	if ctx.CheckCanceled() {
		return vfserr.New(vfserr.ContextCanceled, src.String())
	}
	return f.origin.Copy(ctx, f.out(src), f.out(dst), opts)
}

// Move rewrites both endpoints into origin space.
func (f *FS) Move(ctx *vfsctx.Context, src, dst vfspath.Path, opts vfs.MoveOptions) error {
	if ctx.CheckCanceled() {
		return vfserr.New(vfserr.ContextCanceled, src.String())
	}
	return f.origin.Move(ctx, f.out(src), f.out(dst), opts)
}

var _ vfs.FS = (*FS)(nil)
