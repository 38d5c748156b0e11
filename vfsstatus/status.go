// Package vfsstatus defines the immutable file/directory status record
// returned by stat and list operations.
package vfsstatus

import "github.com/vfs-framework/vfs/vfspath"

// FileStatus is an immutable record describing one path.
type FileStatus struct {
	Path        vfspath.Path
	IsDirectory bool
	// Size is present iff the entry is not a directory.
	Size *uint64
	// MIMEType is present iff derived from a known extension.
	MIMEType *string
}

// NewFile builds a FileStatus for a file of the given size, deriving
// the MIME type from the path's filename via the fixed extension table.
func NewFile(p vfspath.Path, size uint64) FileStatus {
	fs := FileStatus{Path: p, IsDirectory: false, Size: &size}
	if name, ok := p.Filename(); ok {
		if mt, ok := vfspath.MIMEType(name); ok {
			fs.MIMEType = &mt
		}
	}
	return fs
}

// NewDirectory builds a FileStatus for a directory.
func NewDirectory(p vfspath.Path) FileStatus {
	return FileStatus{Path: p, IsDirectory: true}
}

// WithPath returns a copy of fs with its Path replaced, used by
// adapters that rewrite paths (alias, union) without touching size or
// MIME type.
func (fs FileStatus) WithPath(p vfspath.Path) FileStatus {
	fs.Path = p
	return fs
}
