package vfs

import (
	"bytes"
	"io"

	"github.com/vfs-framework/vfs/vfsctx"
	"github.com/vfs-framework/vfs/vfspath"
)

// DrainRead reads a path fully through f.OpenRead, the shared
// implementation of the "convenience = drain open_read" rule in the
// capability contract.
func DrainRead(ctx *vfsctx.Context, f FS, path vfspath.Path, opts ReadOptions) ([]byte, error) {
	r, err := f.OpenRead(ctx, path, opts)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFull writes data through f.OpenWrite in one shot, the shared
// implementation of the "convenience = open+add+close" rule.
func WriteFull(ctx *vfsctx.Context, f FS, path vfspath.Path, data []byte, opts WriteOptions) error {
	w, err := f.OpenWrite(ctx, path, opts)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}
