// Package vfspath implements the canonical absolute path type shared
// by every backend and adapter.
package vfspath

import "strings"

// Path is a canonical absolute path: an ordered sequence of non-empty
// segments, none of which is "." or ".." or contains "/". A "\" is not
// treated specially, so New keeps it inside a segment. The zero value
// is the root.
type Path struct {
	segments []string
}

// Root is the canonical root path "/".
var Root = Path{}

// New normalizes s into a canonical Path. It splits on "/", drops
// empty and "." segments, and resolves ".." by popping the previous
// segment (never climbing above root).
func New(s string) Path {
	parts := strings.Split(s, "/")
	segs := make([]string, 0, len(parts))
	for _, p := range parts {
		switch p {
		case "", ".":
			continue
		case "..":
			if len(segs) > 0 {
				segs = segs[:len(segs)-1]
			}
		default:
			segs = append(segs, p)
		}
	}
	return Path{segments: segs}
}

// Join appends segments (each itself normalized via New, relative to
// the joined tail) and returns the resulting Path.
func (p Path) Join(segments ...string) Path {
	s := p.String()
	if len(segments) == 0 {
		return p
	}
	tail := strings.Join(segments, "/")
	if s == "/" {
		return New(tail)
	}
	return New(s + "/" + tail)
}

// Filename returns the last segment, and false if p is the root.
func (p Path) Filename() (string, bool) {
	if len(p.segments) == 0 {
		return "", false
	}
	return p.segments[len(p.segments)-1], true
}

// Parent returns the parent path, and false if p is the root.
func (p Path) Parent() (Path, bool) {
	if len(p.segments) == 0 {
		return Path{}, false
	}
	return Path{segments: append([]string(nil), p.segments[:len(p.segments)-1]...)}, true
}

// IsRoot reports whether p is the root path.
func (p Path) IsRoot() bool {
	return len(p.segments) == 0
}

// Segments returns a copy of the path's segments.
func (p Path) Segments() []string {
	return append([]string(nil), p.segments...)
}

// Depth returns the number of segments (0 at root).
func (p Path) Depth() int {
	return len(p.segments)
}

// HasPrefix reports whether prefix's segments are a leading subsequence
// of p's segments (prefix == p counts as a prefix).
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix.segments) > len(p.segments) {
		return false
	}
	for i, s := range prefix.segments {
		if p.segments[i] != s {
			return false
		}
	}
	return true
}

// TrimPrefix returns p with prefix's segments removed from the front,
// and false if prefix is not actually a prefix of p.
func (p Path) TrimPrefix(prefix Path) (Path, bool) {
	if !p.HasPrefix(prefix) {
		return Path{}, false
	}
	return Path{segments: append([]string(nil), p.segments[len(prefix.segments):]...)}, true
}

// Equal reports segment-wise equality.
func (p Path) Equal(o Path) bool {
	if len(p.segments) != len(o.segments) {
		return false
	}
	for i, s := range p.segments {
		if o.segments[i] != s {
			return false
		}
	}
	return true
}

// String renders the canonical form: "/" at root, "/a/b/c" otherwise.
func (p Path) String() string {
	if len(p.segments) == 0 {
		return "/"
	}
	return "/" + strings.Join(p.segments, "/")
}
