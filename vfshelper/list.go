package vfshelper

import (
	"io"

	"github.com/vfs-framework/vfs/vfsctx"
	"github.com/vfs-framework/vfs/vfspath"
	"github.com/vfs-framework/vfs/vfsstatus"
)

// recursiveLister is an iterative BFS walk over a worklist of
// directories, guarded by a visited set to tolerate cycles that
// should not occur in a well-formed tree but are tolerated anyway.
// Every yielded directory's descendants are also eventually yielded,
// and directories are yielded before the descendants they unlock.
type recursiveLister struct {
	ctx     *vfsctx.Context
	p       Primitives
	queue   []vfspath.Path
	visited map[string]bool
	pending []vfsstatus.FileStatus
	err     error
	done    bool
}

func newRecursiveLister(ctx *vfsctx.Context, p Primitives, root vfspath.Path) *recursiveLister {
	return &recursiveLister{
		ctx:     ctx,
		p:       p,
		queue:   []vfspath.Path{root},
		visited: map[string]bool{root.String(): true},
	}
}

func (r *recursiveLister) Next() (vfsstatus.FileStatus, error) {
	for {
		if len(r.pending) > 0 {
			item := r.pending[0]
			r.pending = r.pending[1:]
			return item, nil
		}
		if r.done {
			return vfsstatus.FileStatus{}, io.EOF
		}
		if r.err != nil {
			return vfsstatus.FileStatus{}, r.err
		}
		if len(r.queue) == 0 {
			r.done = true
			return vfsstatus.FileStatus{}, io.EOF
		}
		dir := r.queue[0]
		r.queue = r.queue[1:]
		it, err := r.p.NonRecursiveList(r.ctx, dir)
		if err != nil {
			r.err = err
			continue
		}
		for {
			entry, err := it.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				_ = it.Close()
				r.err = err
				break
			}
			r.pending = append(r.pending, entry)
			if entry.IsDirectory && !r.visited[entry.Path.String()] {
				r.visited[entry.Path.String()] = true
				r.queue = append(r.queue, entry.Path)
			}
		}
		_ = it.Close()
	}
}

func (r *recursiveLister) Close() error {
	r.queue = nil
	r.pending = nil
	r.done = true
	return nil
}
