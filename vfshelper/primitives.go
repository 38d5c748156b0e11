// Package vfshelper implements a recursive list/copy/delete/create
// mixin: backends need only implement non-recursive primitives, and
// embedding Mixin supplies the rest of vfs.FS.
package vfshelper

import (
	"io"

	"github.com/vfs-framework/vfs/vfs"
	"github.com/vfs-framework/vfs/vfsctx"
	"github.com/vfs-framework/vfs/vfspath"
	"github.com/vfs-framework/vfs/vfsstatus"
)

// Primitives is the subset of vfs.FS a backend must implement itself.
// Mixin builds the rest (Exists, List, ReadAsBytes, WriteBytes,
// CreateDirectory, Delete, Copy, Move) on top of these.
type Primitives interface {
	Stat(ctx *vfsctx.Context, path vfspath.Path) (*vfsstatus.FileStatus, error)
	OpenRead(ctx *vfsctx.Context, path vfspath.Path, opts vfs.ReadOptions) (io.ReadCloser, error)
	OpenWrite(ctx *vfsctx.Context, path vfspath.Path, opts vfs.WriteOptions) (vfs.WriteSink, error)
	NonRecursiveList(ctx *vfsctx.Context, path vfspath.Path) (vfs.DirIterator, error)
	NonRecursiveCopyFile(ctx *vfsctx.Context, src, dst vfspath.Path, overwrite bool) error
	NonRecursiveCreateDirectory(ctx *vfsctx.Context, path vfspath.Path) error
	NonRecursiveDelete(ctx *vfsctx.Context, path vfspath.Path) error
}
