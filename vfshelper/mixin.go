package vfshelper

import (
	"github.com/vfs-framework/vfs/vfs"
	"github.com/vfs-framework/vfs/vfsctx"
	"github.com/vfs-framework/vfs/vfserr"
	"github.com/vfs-framework/vfs/vfspath"
)

// Mixin embeds a backend's Primitives and supplies the rest of
// vfs.FS: Exists, List, ReadAsBytes, WriteBytes, CreateDirectory,
// Delete, Copy and Move, all built on the non-recursive primitives.
// Stat, OpenRead and OpenWrite are promoted straight from Primitives.
type Mixin struct {
	Primitives
}

var _ vfs.FS = Mixin{}

// Exists is the semantic alias for stat(path).is_some().
func (m Mixin) Exists(ctx *vfsctx.Context, path vfspath.Path) (bool, error) {
	stat, err := m.Stat(ctx, path)
	if err != nil {
		return false, err
	}
	return stat != nil, nil
}

// ReadAsBytes drains OpenRead.
func (m Mixin) ReadAsBytes(ctx *vfsctx.Context, path vfspath.Path, opts vfs.ReadOptions) ([]byte, error) {
	return vfs.DrainRead(ctx, m, path, opts)
}

// WriteBytes is open+add+close in one call.
func (m Mixin) WriteBytes(ctx *vfsctx.Context, path vfspath.Path, data []byte, opts vfs.WriteOptions) error {
	return vfs.WriteFull(ctx, m, path, data, opts)
}

// List dispatches to NonRecursiveList, or to the recursive BFS walker
// when opts.Recursive is set.
func (m Mixin) List(ctx *vfsctx.Context, path vfspath.Path, opts vfs.ListOptions) (vfs.DirIterator, error) {
	if !opts.Recursive {
		return m.NonRecursiveList(ctx, path)
	}
	return newRecursiveLister(ctx, m.Primitives, path), nil
}

// CreateDirectory walks from the target upward accumulating missing
// ancestors, then creates them top-down, tolerating AlreadyExists on
// ancestors.
func (m Mixin) CreateDirectory(ctx *vfsctx.Context, path vfspath.Path, opts vfs.CreateDirectoryOptions) error {
	if ctx.CheckCanceled() {
		return vfserr.New(vfserr.ContextCanceled, path.String())
	}
	if !opts.CreateParents {
		return m.NonRecursiveCreateDirectory(ctx, path)
	}
	var toCreate []vfspath.Path
	cur := path
	for {
		stat, err := m.Stat(ctx, cur)
		if err != nil {
			return err
		}
		if stat != nil {
			if !stat.IsDirectory {
				return vfserr.New(vfserr.NotADirectory, cur.String())
			}
			break
		}
		toCreate = append(toCreate, cur)
		parent, ok := cur.Parent()
		if !ok {
			break
		}
		cur = parent
	}
	for i := len(toCreate) - 1; i >= 0; i-- {
		if err := m.NonRecursiveCreateDirectory(ctx, toCreate[i]); err != nil {
			if vfserr.Is(err, vfserr.AlreadyExists) {
				continue
			}
			return err
		}
	}
	return nil
}

// Delete performs a post-order recursive delete (children first, then
// the directory itself) when opts.Recursive is set; otherwise it
// delegates directly, which fails NotEmptyDirectory on a non-empty dir.
func (m Mixin) Delete(ctx *vfsctx.Context, path vfspath.Path, opts vfs.DeleteOptions) error {
	if ctx.CheckCanceled() {
		return vfserr.New(vfserr.ContextCanceled, path.String())
	}
	if !opts.Recursive {
		return m.NonRecursiveDelete(ctx, path)
	}
	stat, err := m.Stat(ctx, path)
	if err != nil {
		return err
	}
	if stat == nil {
		return vfserr.New(vfserr.NotFound, path.String())
	}
	if stat.IsDirectory {
		it, err := m.NonRecursiveList(ctx, path)
		if err != nil {
			return err
		}
		children, err := vfs.Drain(it)
		if err != nil {
			return err
		}
		for _, child := range children {
			if err := m.Delete(ctx, child.Path, opts); err != nil {
				return err
			}
		}
	}
	return m.NonRecursiveDelete(ctx, path)
}

// Copy implements the recursive copy rule: a file delegates to
// NonRecursiveCopyFile; a directory is created at dst then every
// child is recursed into, preserving relative path.
func (m Mixin) Copy(ctx *vfsctx.Context, src, dst vfspath.Path, opts vfs.CopyOptions) error {
	return copyWithin(ctx, m.Primitives, src, dst, opts)
}

func copyWithin(ctx *vfsctx.Context, p Primitives, src, dst vfspath.Path, opts vfs.CopyOptions) error {
	if ctx.CheckCanceled() {
		return vfserr.New(vfserr.ContextCanceled, src.String())
	}
	srcStat, err := p.Stat(ctx, src)
	if err != nil {
		return err
	}
	if srcStat == nil {
		return vfserr.New(vfserr.NotFound, src.String())
	}
	if !srcStat.IsDirectory {
		return p.NonRecursiveCopyFile(ctx, src, dst, opts.Overwrite)
	}
	if !opts.Recursive {
		return vfserr.New(vfserr.RecursiveNotSpecified, src.String())
	}
	dstStat, err := p.Stat(ctx, dst)
	if err != nil {
		return err
	}
	if dstStat != nil && !dstStat.IsDirectory {
		return vfserr.New(vfserr.NotADirectory, dst.String())
	}
	if dstStat == nil {
		if err := p.NonRecursiveCreateDirectory(ctx, dst); err != nil && !vfserr.Is(err, vfserr.AlreadyExists) {
			return err
		}
	}
	it, err := p.NonRecursiveList(ctx, src)
	if err != nil {
		return err
	}
	children, err := vfs.Drain(it)
	if err != nil {
		return err
	}
	for _, child := range children {
		name, _ := child.Path.Filename()
		if err := copyWithin(ctx, p, child.Path, dst.Join(name), opts); err != nil {
			return err
		}
	}
	return nil
}

// Move defaults to copy-then-delete; backends free to rename natively
// should override Move on the concrete type that embeds Mixin.
func (m Mixin) Move(ctx *vfsctx.Context, src, dst vfspath.Path, opts vfs.MoveOptions) error {
	if err := m.Copy(ctx, src, dst, vfs.CopyOptions{Overwrite: opts.Overwrite, Recursive: opts.Recursive}); err != nil {
		return err
	}
	return m.Delete(ctx, src, vfs.DeleteOptions{Recursive: opts.Recursive})
}
