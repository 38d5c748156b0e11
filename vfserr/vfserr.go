// Package vfserr defines the closed error taxonomy shared by every
// backend and adapter in the vfs framework.
package vfserr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind is a closed enumeration of the ways a VFS operation can fail.
type Kind int

// The full set of error kinds. No other kind may ever be constructed.
const (
	NotFound Kind = iota
	NotAFile
	NotADirectory
	UnsupportedEntity
	IoError
	PermissionDenied
	AlreadyExists
	NotEmptyDirectory
	RecursiveNotSpecified
	ReadOnly
	ContextCanceled
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not found"
	case NotAFile:
		return "not a file"
	case NotADirectory:
		return "not a directory"
	case UnsupportedEntity:
		return "unsupported entity"
	case IoError:
		return "io error"
	case PermissionDenied:
		return "permission denied"
	case AlreadyExists:
		return "already exists"
	case NotEmptyDirectory:
		return "directory not empty"
	case RecursiveNotSpecified:
		return "recursive not specified"
	case ReadOnly:
		return "read only"
	case ContextCanceled:
		return "context canceled"
	default:
		return "unknown error"
	}
}

// Error is a structured VFS error: a kind, the offending path, an
// optional second path (for copy/move-style operations) and an
// optional wrapped cause.
type Error struct {
	Kind  Kind
	Path  string
	Path2 string // empty if not applicable
	cause error
}

func (e *Error) Error() string {
	if e.Path2 != "" {
		if e.cause != nil {
			return fmt.Sprintf("%s: %s -> %s: %v", e.Kind, e.Path, e.Path2, e.cause)
		}
		return fmt.Sprintf("%s: %s -> %s", e.Kind, e.Path, e.Path2)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Path, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Path)
}

// Unwrap exposes the wrapped cause, if any, for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.cause
}

// New builds an *Error for path with no second path and no cause.
func New(kind Kind, path string) *Error {
	return &Error{Kind: kind, Path: path}
}

// New2 builds an *Error for a two-path operation (copy, move, rename).
func New2(kind Kind, path, path2 string) *Error {
	return &Error{Kind: kind, Path: path, Path2: path2}
}

// Wrap builds an *Error that wraps cause with additional context.
func Wrap(kind Kind, path string, cause error) *Error {
	return &Error{Kind: kind, Path: path, cause: errors.WithStack(cause)}
}

// Is reports whether err is a *Error of the given kind, looking
// through any wrapping via errors.As.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf extracts the Kind from err if it is (or wraps) a *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
