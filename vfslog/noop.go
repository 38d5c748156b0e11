package vfslog

type noop struct{}

// Noop returns a Logger that discards everything. It is the library
// default: the core never picks a concrete sink on its own.
func Noop() Logger { return noop{} }

func (noop) Trace(string, Fields)   {}
func (noop) Debug(string, Fields)   {}
func (noop) Info(string, Fields)    {}
func (noop) Warning(string, Fields) {}
func (noop) Error(string, Fields)   {}
