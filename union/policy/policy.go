// Package policy generalizes "which mounted candidate answers a
// union operation" into a pluggable strategy, the way rclone's
// backend/union/policy package turns the same decision into ff,
// eplfs, and friends instead of one hardwired chain of rules.
package policy

import "github.com/vfs-framework/vfs/vfspath"

// Candidate is the information a Policy needs about one mount item
// that already contains the path in question, in mount-declaration
// order.
type Candidate struct {
	Index     int
	MountPath vfspath.Path
	Priority  int32
	ReadOnly  bool
}

// Policy picks one candidate index out of a non-empty slice, or false
// if none is acceptable.
type Policy interface {
	Select(candidates []Candidate) (int, bool)
}

// MostSpecific is the default policy: the deepest mount path wins,
// ties broken by higher priority.
type MostSpecific struct{}

func (MostSpecific) Select(candidates []Candidate) (int, bool) {
	if len(candidates) == 0 {
		return 0, false
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.MountPath.Depth() > best.MountPath.Depth() ||
			(c.MountPath.Depth() == best.MountPath.Depth() && c.Priority > best.Priority) {
			best = c
		}
	}
	return best.Index, true
}

// FirstFound mirrors rclone's "ff" union policy: the first writable
// candidate in input order wins, ignoring specificity/priority
// ordering entirely. Kept as an alternative seam for callers that want
// mount-declaration order rather than specificity to decide dispatch.
type FirstFound struct{}

func (FirstFound) Select(candidates []Candidate) (int, bool) {
	for _, c := range candidates {
		if !c.ReadOnly {
			return c.Index, true
		}
	}
	return 0, false
}
