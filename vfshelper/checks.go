package vfshelper

import (
	"github.com/vfs-framework/vfs/vfs"
	"github.com/vfs-framework/vfs/vfserr"
	"github.com/vfs-framework/vfs/vfsctx"
	"github.com/vfs-framework/vfs/vfspath"
)

// CheckOpenWrite implements the shared pre-open-write checks: the
// parent must exist and be a directory; an existing directory target
// is never writable as a file; ModeWrite on an existing target is
// AlreadyExists.
func CheckOpenWrite(p Primitives, ctx *vfsctx.Context, path vfspath.Path, mode vfs.WriteMode) error {
	parent, hasParent := path.Parent()
	if hasParent {
		parentStat, err := p.Stat(ctx, parent)
		if err != nil {
			return err
		}
		if parentStat == nil {
			return vfserr.New(vfserr.NotFound, parent.String())
		}
		if !parentStat.IsDirectory {
			return vfserr.New(vfserr.NotADirectory, parent.String())
		}
	}
	targetStat, err := p.Stat(ctx, path)
	if err != nil {
		return err
	}
	if targetStat != nil {
		if targetStat.IsDirectory {
			return vfserr.New(vfserr.NotAFile, path.String())
		}
		if mode == vfs.ModeWrite {
			return vfserr.New(vfserr.AlreadyExists, path.String())
		}
	}
	return nil
}

// CheckOpenRead implements the shared pre-open-read checks: the
// target must exist and be a file.
func CheckOpenRead(p Primitives, ctx *vfsctx.Context, path vfspath.Path) error {
	stat, err := p.Stat(ctx, path)
	if err != nil {
		return err
	}
	if stat == nil {
		return vfserr.New(vfserr.NotFound, path.String())
	}
	if stat.IsDirectory {
		return vfserr.New(vfserr.NotAFile, path.String())
	}
	return nil
}
