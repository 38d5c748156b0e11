// Package vfsctx implements the per-operation Context threaded into
// every capability call: a correlation id, a cancellation signal and a
// logger handle.
package vfsctx

import (
	"sync"

	"github.com/google/uuid"
	"github.com/vfs-framework/vfs/vfslog"
)

// Cancellation is a one-shot cancel signal with a reason.
type Cancellation struct {
	mu     sync.Mutex
	done   chan struct{}
	reason error
}

// NewCancellation returns a fresh, uncanceled Cancellation.
func NewCancellation() *Cancellation {
	return &Cancellation{done: make(chan struct{})}
}

// IsCanceled reports whether Cancel has been called.
func (c *Cancellation) IsCanceled() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Cancel signals cancellation with reason. Subsequent calls are no-ops.
func (c *Cancellation) Cancel(reason error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	select {
	case <-c.done:
		return
	default:
		c.reason = reason
		close(c.done)
	}
}

// Reason returns the reason passed to Cancel, or nil if not canceled.
func (c *Cancellation) Reason() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reason
}

// Done returns a channel closed once Cancel has been called, suitable
// for use as the future described in the data model.
func (c *Cancellation) Done() <-chan struct{} {
	return c.done
}

// Context is the per-operation value threaded into every capability call.
type Context struct {
	OperationID  string
	Logger       vfslog.Logger
	Cancellation *Cancellation
}

// New builds a Context with a freshly generated operation id, the
// given logger (vfslog.Noop() if nil) stamped with operation_id, and a
// fresh, uncanceled Cancellation.
func New(logger vfslog.Logger) *Context {
	if logger == nil {
		logger = vfslog.Noop()
	}
	id := uuid.NewString()
	return &Context{
		OperationID:  id,
		Logger:       vfslog.With(logger, vfslog.Fields{"operation_id": id}),
		Cancellation: NewCancellation(),
	}
}

// WithCancellation returns a copy of ctx sharing the given Cancellation
// instead of its own, used to propagate a caller's cancel signal into
// a sub-operation Context.
func (c *Context) WithCancellation(cancel *Cancellation) *Context {
	nc := *c
	nc.Cancellation = cancel
	return &nc
}

// CheckCanceled returns a ContextCanceled error-producing bool: true
// when the operation should abort immediately.
func (c *Context) CheckCanceled() bool {
	return c.Cancellation != nil && c.Cancellation.IsCanceled()
}
