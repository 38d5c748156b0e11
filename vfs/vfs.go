// Package vfs defines the uniform capability contract every backend
// and adapter in the framework honors.
package vfs

import (
	"io"

	"github.com/vfs-framework/vfs/vfsctx"
	"github.com/vfs-framework/vfs/vfspath"
	"github.com/vfs-framework/vfs/vfsstatus"
)

// WriteMode selects the semantics of OpenWrite.
type WriteMode int

const (
	// ModeWrite fails with vfserr.AlreadyExists if the target exists.
	ModeWrite WriteMode = iota
	// ModeOverwrite replaces an existing target.
	ModeOverwrite
	// ModeAppend creates the target if absent, else appends to it.
	ModeAppend
)

// ListOptions configures List.
type ListOptions struct {
	Recursive bool
}

// ReadOptions configures OpenRead / ReadAsBytes: a half-open byte
// range [Start, End). A nil bound means "from the beginning" /
// "to the end of the file" respectively.
type ReadOptions struct {
	Start *uint64
	End   *uint64
}

// WriteOptions configures OpenWrite / WriteBytes.
type WriteOptions struct {
	Mode WriteMode
}

// CreateDirectoryOptions configures CreateDirectory.
type CreateDirectoryOptions struct {
	CreateParents bool
}

// DeleteOptions configures Delete.
type DeleteOptions struct {
	Recursive bool
}

// CopyOptions configures Copy.
type CopyOptions struct {
	Overwrite bool
	Recursive bool
}

// MoveOptions configures Move.
type MoveOptions struct {
	Overwrite bool
	Recursive bool
}

// DirIterator is a finite, non-restartable, single-consumer sequence
// of FileStatus entries. Next returns io.EOF once exhausted. Closing
// before exhaustion is always valid and releases any held resources.
type DirIterator interface {
	Next() (vfsstatus.FileStatus, error)
	Close() error
}

// WriteSink is the write-end returned by OpenWrite: bytes accepted via
// Write, finalized by one terminal Close.
type WriteSink interface {
	io.Writer
	Close() error
}

// FS is the capability every backend and adapter implements.
type FS interface {
	Stat(ctx *vfsctx.Context, path vfspath.Path) (*vfsstatus.FileStatus, error)
	Exists(ctx *vfsctx.Context, path vfspath.Path) (bool, error)
	List(ctx *vfsctx.Context, path vfspath.Path, opts ListOptions) (DirIterator, error)
	OpenRead(ctx *vfsctx.Context, path vfspath.Path, opts ReadOptions) (io.ReadCloser, error)
	OpenWrite(ctx *vfsctx.Context, path vfspath.Path, opts WriteOptions) (WriteSink, error)
	ReadAsBytes(ctx *vfsctx.Context, path vfspath.Path, opts ReadOptions) ([]byte, error)
	WriteBytes(ctx *vfsctx.Context, path vfspath.Path, data []byte, opts WriteOptions) error
	CreateDirectory(ctx *vfsctx.Context, path vfspath.Path, opts CreateDirectoryOptions) error
	Delete(ctx *vfsctx.Context, path vfspath.Path, opts DeleteOptions) error
	Copy(ctx *vfsctx.Context, src, dst vfspath.Path, opts CopyOptions) error
	Move(ctx *vfsctx.Context, src, dst vfspath.Path, opts MoveOptions) error
}

// SliceIterator adapts a pre-materialized slice of FileStatus into a
// DirIterator, useful for backends/adapters that build the whole
// listing up front (e.g. the memory backend, synthetic union entries).
type SliceIterator struct {
	items []vfsstatus.FileStatus
	pos   int
}

// NewSliceIterator wraps items as a DirIterator.
func NewSliceIterator(items []vfsstatus.FileStatus) *SliceIterator {
	return &SliceIterator{items: items}
}

// Next returns the next item, or io.EOF when exhausted.
func (s *SliceIterator) Next() (vfsstatus.FileStatus, error) {
	if s.pos >= len(s.items) {
		return vfsstatus.FileStatus{}, io.EOF
	}
	item := s.items[s.pos]
	s.pos++
	return item, nil
}

// Close is a no-op for SliceIterator.
func (s *SliceIterator) Close() error { return nil }

// Drain reads every remaining entry off it into a slice and closes it.
func Drain(it DirIterator) ([]vfsstatus.FileStatus, error) {
	defer it.Close()
	var out []vfsstatus.FileStatus
	for {
		item, err := it.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, item)
	}
}
