// Package union implements the union/overlay router: merges multiple
// mounted VFSes with priority and read-only flags.
package union

import (
	"sort"

	"github.com/vfs-framework/vfs/vfs"
	"github.com/vfs-framework/vfs/vfspath"
)

// MountItem is one backend mounted into the union's logical path space.
type MountItem struct {
	FS        vfs.FS
	MountPath vfspath.Path
	ReadOnly  bool
	Priority  int32
}

// candidatesFor returns the indices of items whose MountPath is a
// prefix of p, ordered by mount-path specificity (longer first), then
// by priority (descending) as the secondary order.
func (f *FS) candidatesFor(p vfspath.Path) []int {
	var idx []int
	for i, item := range f.items {
		if p.HasPrefix(item.MountPath) {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ia, ib := f.items[idx[a]], f.items[idx[b]]
		if ia.MountPath.Depth() != ib.MountPath.Depth() {
			return ia.MountPath.Depth() > ib.MountPath.Depth()
		}
		return ia.Priority > ib.Priority
	})
	return idx
}

func (f *FS) writableCandidatesFor(p vfspath.Path) []int {
	all := f.candidatesFor(p)
	var out []int
	for _, i := range all {
		if !f.items[i].ReadOnly {
			out = append(out, i)
		}
	}
	return out
}

// writableUnsorted returns writable candidate indices for p in
// declaration order (the order passed to New), letting a Policy
// other than the default impose its own ordering instead of
// specificity/priority when ties between equally-eligible mounts are
// meant to be broken by declaration order rather than priority.
func (f *FS) writableUnsorted(p vfspath.Path) []int {
	var out []int
	for i, item := range f.items {
		if p.HasPrefix(item.MountPath) && !item.ReadOnly {
			out = append(out, i)
		}
	}
	return out
}

func toInner(mountPath, unionPath vfspath.Path) vfspath.Path {
	p, ok := unionPath.TrimPrefix(mountPath)
	if !ok {
		return vfspath.Root
	}
	return p
}

func toUnion(mountPath, innerPath vfspath.Path) vfspath.Path {
	return mountPath.Join(innerPath.Segments()...)
}
