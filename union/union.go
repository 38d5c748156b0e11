package union

import (
	"io"

	"github.com/vfs-framework/vfs/vfs"
	"github.com/vfs-framework/vfs/vfsctx"
	"github.com/vfs-framework/vfs/vfserr"
	"github.com/vfs-framework/vfs/vfshelper"
	"github.com/vfs-framework/vfs/vfspath"
	"github.com/vfs-framework/vfs/vfsstatus"

	"github.com/vfs-framework/vfs/union/policy"
)

// FS merges several mounted backends into one logical path space.
type FS struct {
	vfshelper.Mixin
	items  []MountItem
	policy policy.Policy
}

// New builds a union from items, read/write dispatch ordered by
// mount-path specificity then priority per candidate lookup, using the
// default policy (most specific mount wins) for the final
// write-candidate pick.
func New(items []MountItem) *FS {
	return NewWithPolicy(items, policy.MostSpecific{})
}

// NewWithPolicy builds a union whose write-candidate selection among
// otherwise-equally-eligible mounts is delegated to p, generalizing
// rclone's pluggable union policies (ff, eplfs, ...) beyond the
// hardwired most-specific rule. Items are kept in declaration order;
// a declaration-order policy like FirstFound relies on that.
func NewWithPolicy(items []MountItem, p policy.Policy) *FS {
	f := &FS{items: append([]MountItem(nil), items...), policy: p}
	f.Mixin = vfshelper.Mixin{Primitives: f}
	return f
}

// selectWritable turns the writable candidates for p into the index
// the configured policy picks, if any. Candidates are handed to the
// policy in mount-declaration order; MostSpecific re-derives the
// specificity/priority order itself, while a declaration-order policy
// like FirstFound can use the order as given.
func (f *FS) selectWritable(p vfspath.Path) (int, bool) {
	idx := f.writableUnsorted(p)
	if len(idx) == 0 {
		return 0, false
	}
	cands := make([]policy.Candidate, len(idx))
	for i, itemIdx := range idx {
		item := f.items[itemIdx]
		cands[i] = policy.Candidate{Index: itemIdx, MountPath: item.MountPath, Priority: item.Priority, ReadOnly: item.ReadOnly}
	}
	return f.policy.Select(cands)
}

// Stat implements read dispatch: the first candidate that actually
// contains p answers. At the root, when no backend is mounted at "/"
// but some mount has a non-root mount path, a virtual directory is
// synthesized.
func (f *FS) Stat(ctx *vfsctx.Context, p vfspath.Path) (*vfsstatus.FileStatus, error) {
	if ctx.CheckCanceled() {
		return nil, vfserr.New(vfserr.ContextCanceled, p.String())
	}
	for _, i := range f.candidatesFor(p) {
		item := f.items[i]
		st, err := item.FS.Stat(ctx, toInner(item.MountPath, p))
		if err != nil {
			return nil, err
		}
		if st != nil {
			out := st.WithPath(toUnion(item.MountPath, st.Path))
			return &out, nil
		}
	}
	if p.IsRoot() && len(f.items) > 0 {
		st := vfsstatus.NewDirectory(p)
		return &st, nil
	}
	return nil, nil
}

// NonRecursiveList synthesizes mount points as direct children, then
// merges each candidate's listing remapped into union space, first
// occurrence winning on duplicate union paths. Ties between items of
// equal specificity and priority are broken by declaration order.
func (f *FS) NonRecursiveList(ctx *vfsctx.Context, p vfspath.Path) (vfs.DirIterator, error) {
	if ctx.CheckCanceled() {
		return nil, vfserr.New(vfserr.ContextCanceled, p.String())
	}
	seen := make(map[string]bool)
	var out []vfsstatus.FileStatus

	for _, item := range f.items {
		if item.MountPath.Depth() == p.Depth()+1 && item.MountPath.HasPrefix(p) {
			key := item.MountPath.String()
			if !seen[key] {
				seen[key] = true
				out = append(out, vfsstatus.NewDirectory(item.MountPath))
			}
		}
	}

	var anyCandidate bool
	for _, i := range f.candidatesFor(p) {
		item := f.items[i]
		it, err := item.FS.List(ctx, toInner(item.MountPath, p), vfs.ListOptions{Recursive: false})
		if err != nil {
			if vfserr.Is(err, vfserr.NotFound) || vfserr.Is(err, vfserr.NotADirectory) {
				continue
			}
			return nil, err
		}
		anyCandidate = true
		children, err := vfs.Drain(it)
		if err != nil {
			return nil, err
		}
		for _, child := range children {
			unionPath := toUnion(item.MountPath, child.Path)
			key := unionPath.String()
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, child.WithPath(unionPath))
		}
	}

	if !anyCandidate && len(out) == 0 {
		if p.IsRoot() {
			return vfs.NewSliceIterator(out), nil
		}
		return nil, vfserr.New(vfserr.NotFound, p.String())
	}
	return vfs.NewSliceIterator(out), nil
}

// NonRecursiveCreateDirectory dispatches to the writable candidate the
// configured policy selects (with the default policy: the
// highest-specificity, highest-priority one).
func (f *FS) NonRecursiveCreateDirectory(ctx *vfsctx.Context, p vfspath.Path) error {
	if ctx.CheckCanceled() {
		return vfserr.New(vfserr.ContextCanceled, p.String())
	}
	i, ok := f.selectWritable(p)
	if !ok {
		return vfserr.New(vfserr.ReadOnly, p.String())
	}
	item := f.items[i]
	return item.FS.CreateDirectory(ctx, toInner(item.MountPath, p), vfs.CreateDirectoryOptions{CreateParents: false})
}

// NonRecursiveDelete attempts every writable candidate that contains
// p; success if any delete succeeded. If no writable candidate contains
// p it fails NotFound; otherwise it returns the last candidate's error
// (e.g. NotEmptyDirectory).
func (f *FS) NonRecursiveDelete(ctx *vfsctx.Context, p vfspath.Path) error {
	if ctx.CheckCanceled() {
		return vfserr.New(vfserr.ContextCanceled, p.String())
	}
	var attempted bool
	var lastErr error
	for _, i := range f.writableCandidatesFor(p) {
		item := f.items[i]
		inner := toInner(item.MountPath, p)
		st, err := item.FS.Stat(ctx, inner)
		if err != nil {
			return err
		}
		if st == nil {
			continue
		}
		attempted = true
		err = item.FS.Delete(ctx, inner, vfs.DeleteOptions{Recursive: false})
		if err == nil {
			return nil
		}
		lastErr = err
	}
	if !attempted {
		return vfserr.New(vfserr.NotFound, p.String())
	}
	return lastErr
}

// NonRecursiveCopyFile copies within the same backend natively when
// src and dst resolve to the same underlying FS, otherwise reads the
// whole file into memory and writes it to the write-dispatch candidate
// for dst.
func (f *FS) NonRecursiveCopyFile(ctx *vfsctx.Context, src, dst vfspath.Path, overwrite bool) error {
	if ctx.CheckCanceled() {
		return vfserr.New(vfserr.ContextCanceled, src.String())
	}
	srcItem, srcInner, ok := f.resolve(ctx, src)
	if !ok {
		return vfserr.New(vfserr.NotFound, src.String())
	}
	dstIdx, ok := f.selectWritable(dst)
	if !ok {
		return vfserr.New(vfserr.ReadOnly, dst.String())
	}
	dstItem := f.items[dstIdx]
	dstInner := toInner(dstItem.MountPath, dst)

	if sameBackend(srcItem.FS, dstItem.FS) {
		return srcItem.FS.Copy(ctx, srcInner, dstInner, vfs.CopyOptions{Overwrite: overwrite, Recursive: false})
	}
	data, err := srcItem.FS.ReadAsBytes(ctx, srcInner, vfs.ReadOptions{})
	if err != nil {
		return err
	}
	mode := vfs.ModeWrite
	if overwrite {
		mode = vfs.ModeOverwrite
	}
	return dstItem.FS.WriteBytes(ctx, dstInner, data, vfs.WriteOptions{Mode: mode})
}

// Move overrides the Mixin default (copy+delete) to prefer a native
// rename when src and dst resolve to the same backend; the generic
// copy-then-delete-source behavior only applies when crossing backends.
func (f *FS) Move(ctx *vfsctx.Context, src, dst vfspath.Path, opts vfs.MoveOptions) error {
	if ctx.CheckCanceled() {
		return vfserr.New(vfserr.ContextCanceled, src.String())
	}
	srcItem, srcInner, ok := f.resolve(ctx, src)
	if ok {
		if dstIdx, dstOk := f.selectWritable(dst); dstOk {
			dstItem := f.items[dstIdx]
			if sameBackend(srcItem.FS, dstItem.FS) {
				dstInner := toInner(dstItem.MountPath, dst)
				return srcItem.FS.Move(ctx, srcInner, dstInner, opts)
			}
		}
	}
	if err := f.Copy(ctx, src, dst, vfs.CopyOptions{Overwrite: opts.Overwrite, Recursive: opts.Recursive}); err != nil {
		return err
	}
	return f.Delete(ctx, src, vfs.DeleteOptions{Recursive: opts.Recursive})
}

// resolve finds the first candidate that actually contains p (the
// same rule Stat uses) and returns it along with p mapped into that
// candidate's own path space.
func (f *FS) resolve(ctx *vfsctx.Context, p vfspath.Path) (MountItem, vfspath.Path, bool) {
	for _, i := range f.candidatesFor(p) {
		item := f.items[i]
		inner := toInner(item.MountPath, p)
		st, err := item.FS.Stat(ctx, inner)
		if err == nil && st != nil {
			return item, inner, true
		}
	}
	return MountItem{}, vfspath.Path{}, false
}

// sameBackend reports whether a and b are the same underlying FS
// instance (every backend in this framework is a pointer type, so
// interface equality is identity equality).
func sameBackend(a, b vfs.FS) bool {
	return a == b
}

// OpenRead delegates to the read-dispatch candidate.
func (f *FS) OpenRead(ctx *vfsctx.Context, p vfspath.Path, opts vfs.ReadOptions) (io.ReadCloser, error) {
	if ctx.CheckCanceled() {
		return nil, vfserr.New(vfserr.ContextCanceled, p.String())
	}
	item, inner, ok := f.resolve(ctx, p)
	if !ok {
		return nil, vfserr.New(vfserr.NotFound, p.String())
	}
	return item.FS.OpenRead(ctx, inner, opts)
}

// OpenWrite delegates to the write-dispatch candidate.
func (f *FS) OpenWrite(ctx *vfsctx.Context, p vfspath.Path, opts vfs.WriteOptions) (vfs.WriteSink, error) {
	if ctx.CheckCanceled() {
		return nil, vfserr.New(vfserr.ContextCanceled, p.String())
	}
	i, ok := f.selectWritable(p)
	if !ok {
		return nil, vfserr.New(vfserr.ReadOnly, p.String())
	}
	item := f.items[i]
	return item.FS.OpenWrite(ctx, toInner(item.MountPath, p), opts)
}

var _ vfs.FS = (*FS)(nil)
