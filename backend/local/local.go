// Package local implements an OS-file-system-backed VFS. Abstract
// paths are joined against a fixed base directory; all
// operations delegate to the host file system, and host I/O failures
// are mapped onto the closed error taxonomy.
package local

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"syscall"

	"github.com/vfs-framework/vfs/vfs"
	"github.com/vfs-framework/vfs/vfsctx"
	"github.com/vfs-framework/vfs/vfserr"
	"github.com/vfs-framework/vfs/vfshelper"
	"github.com/vfs-framework/vfs/vfspath"
	"github.com/vfs-framework/vfs/vfsstatus"
)

// FS roots an abstract path space at a fixed base directory on the
// host file system.
type FS struct {
	vfshelper.Mixin
	base string
}

var _ vfs.FS = (*FS)(nil)

// New builds a local backend rooted at base. base must already exist.
func New(base string) *FS {
	f := &FS{base: filepath.Clean(base)}
	f.Mixin = vfshelper.Mixin{Primitives: f}
	return f
}

func (f *FS) hostPath(p vfspath.Path) string {
	segs := p.Segments()
	parts := append([]string{f.base}, segs...)
	return filepath.Join(parts...)
}

func mapIOErr(path vfspath.Path, err error) error {
	if err == nil {
		return nil
	}
	if os.IsNotExist(err) {
		return vfserr.New(vfserr.NotFound, path.String())
	}
	if os.IsPermission(err) {
		return vfserr.New(vfserr.PermissionDenied, path.String())
	}
	if os.IsExist(err) {
		return vfserr.New(vfserr.AlreadyExists, path.String())
	}
	return vfserr.Wrap(vfserr.IoError, path.String(), err)
}

// Stat classifies the entity type before reporting status.
func (f *FS) Stat(ctx *vfsctx.Context, p vfspath.Path) (*vfsstatus.FileStatus, error) {
	if ctx.CheckCanceled() {
		return nil, vfserr.New(vfserr.ContextCanceled, p.String())
	}
	info, err := os.Stat(f.hostPath(p))
	if err != nil {
		// ENOTDIR: an ancestor is a file, so p does not exist either.
		if os.IsNotExist(err) || errors.Is(err, syscall.ENOTDIR) {
			return nil, nil
		}
		return nil, mapIOErr(p, err)
	}
	if info.IsDir() {
		st := vfsstatus.NewDirectory(p)
		return &st, nil
	}
	st := vfsstatus.NewFile(p, uint64(info.Size()))
	return &st, nil
}

// NonRecursiveList lists the immediate children of p.
func (f *FS) NonRecursiveList(ctx *vfsctx.Context, p vfspath.Path) (vfs.DirIterator, error) {
	if ctx.CheckCanceled() {
		return nil, vfserr.New(vfserr.ContextCanceled, p.String())
	}
	entries, err := os.ReadDir(f.hostPath(p))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, vfserr.New(vfserr.NotFound, p.String())
		}
		return nil, mapIOErr(p, err)
	}
	items := make([]vfsstatus.FileStatus, 0, len(entries))
	for _, e := range entries {
		childPath := p.Join(e.Name())
		if e.IsDir() {
			items = append(items, vfsstatus.NewDirectory(childPath))
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, mapIOErr(childPath, err)
		}
		items = append(items, vfsstatus.NewFile(childPath, uint64(info.Size())))
	}
	return vfs.NewSliceIterator(items), nil
}

// NonRecursiveCreateDirectory creates exactly one directory level.
func (f *FS) NonRecursiveCreateDirectory(ctx *vfsctx.Context, p vfspath.Path) error {
	if ctx.CheckCanceled() {
		return vfserr.New(vfserr.ContextCanceled, p.String())
	}
	if err := os.Mkdir(f.hostPath(p), 0o755); err != nil {
		return mapIOErr(p, err)
	}
	return nil
}

// NonRecursiveDelete dispatches deletion by entity kind (file,
// directory, symlink).
func (f *FS) NonRecursiveDelete(ctx *vfsctx.Context, p vfspath.Path) error {
	if ctx.CheckCanceled() {
		return vfserr.New(vfserr.ContextCanceled, p.String())
	}
	host := f.hostPath(p)
	info, err := os.Lstat(host)
	if err != nil {
		return mapIOErr(p, err)
	}
	if info.IsDir() {
		entries, err := os.ReadDir(host)
		if err != nil {
			return mapIOErr(p, err)
		}
		if len(entries) > 0 {
			return vfserr.New(vfserr.NotEmptyDirectory, p.String())
		}
	}
	if err := os.Remove(host); err != nil {
		return mapIOErr(p, err)
	}
	return nil
}

// NonRecursiveCopyFile copies one file's bytes host-side.
func (f *FS) NonRecursiveCopyFile(ctx *vfsctx.Context, src, dst vfspath.Path, overwrite bool) error {
	if ctx.CheckCanceled() {
		return vfserr.New(vfserr.ContextCanceled, src.String())
	}
	srcHost := f.hostPath(src)
	info, err := os.Stat(srcHost)
	if err != nil {
		return mapIOErr(src, err)
	}
	if info.IsDir() {
		return vfserr.New(vfserr.NotAFile, src.String())
	}
	dstHost := f.hostPath(dst)
	if dstInfo, err := os.Stat(dstHost); err == nil {
		if dstInfo.IsDir() {
			return vfserr.New(vfserr.NotAFile, dst.String())
		}
		if !overwrite {
			return vfserr.New(vfserr.AlreadyExists, dst.String())
		}
	}
	in, err := os.Open(srcHost)
	if err != nil {
		return mapIOErr(src, err)
	}
	defer in.Close()
	out, err := os.OpenFile(dstHost, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return mapIOErr(dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return vfserr.Wrap(vfserr.IoError, dst.String(), err)
	}
	if err := out.Close(); err != nil {
		return vfserr.Wrap(vfserr.IoError, dst.String(), err)
	}
	return nil
}

// OpenRead opens the host file, seeking and limiting to the requested range.
func (f *FS) OpenRead(ctx *vfsctx.Context, p vfspath.Path, opts vfs.ReadOptions) (io.ReadCloser, error) {
	if ctx.CheckCanceled() {
		return nil, vfserr.New(vfserr.ContextCanceled, p.String())
	}
	if err := vfshelper.CheckOpenRead(f, ctx, p); err != nil {
		return nil, err
	}
	file, err := os.Open(f.hostPath(p))
	if err != nil {
		return nil, mapIOErr(p, err)
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, mapIOErr(p, err)
	}
	size := uint64(info.Size())
	start, end := uint64(0), size
	if opts.Start != nil {
		start = *opts.Start
	}
	if opts.End != nil && *opts.End < size {
		end = *opts.End
	}
	if start > size {
		start = size
	}
	if end < start {
		end = start
	}
	if _, err := file.Seek(int64(start), io.SeekStart); err != nil {
		_ = file.Close()
		return nil, vfserr.Wrap(vfserr.IoError, p.String(), err)
	}
	return &limitedFile{f: file, remaining: int64(end - start)}, nil
}

type limitedFile struct {
	f         *os.File
	remaining int64
}

func (l *limitedFile) Read(p []byte) (int, error) {
	if l.remaining <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > l.remaining {
		p = p[:l.remaining]
	}
	n, err := l.f.Read(p)
	l.remaining -= int64(n)
	return n, err
}

func (l *limitedFile) Close() error { return l.f.Close() }

// OpenWrite chooses write/overwrite/append mode per options.
func (f *FS) OpenWrite(ctx *vfsctx.Context, p vfspath.Path, opts vfs.WriteOptions) (vfs.WriteSink, error) {
	if ctx.CheckCanceled() {
		return nil, vfserr.New(vfserr.ContextCanceled, p.String())
	}
	if err := vfshelper.CheckOpenWrite(f, ctx, p, opts.Mode); err != nil {
		return nil, err
	}
	flags := os.O_WRONLY | os.O_CREATE
	switch opts.Mode {
	case vfs.ModeWrite:
		flags |= os.O_EXCL
	case vfs.ModeOverwrite:
		flags |= os.O_TRUNC
	case vfs.ModeAppend:
		flags |= os.O_APPEND
	}
	file, err := os.OpenFile(f.hostPath(p), flags, 0o644)
	if err != nil {
		return nil, mapIOErr(p, err)
	}
	return file, nil
}
