package memory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vfs-framework/vfs/backend/memory"
	"github.com/vfs-framework/vfs/vfs"
	"github.com/vfs-framework/vfs/vfsctx"
	"github.com/vfs-framework/vfs/vfslog"
	"github.com/vfs-framework/vfs/vfspath"
	"github.com/vfs-framework/vfs/vfstest"
)

func TestConformance(t *testing.T) {
	vfstest.RunConformance(t, func() vfs.FS { return memory.New() })
}

func TestCountersTrackOps(t *testing.T) {
	f := memory.New()
	ctx := vfsctx.New(vfslog.Noop())
	require.NoError(t, f.WriteBytes(ctx, vfspath.New("/a.txt"), []byte("hello"), vfs.WriteOptions{}))
	_, err := f.ReadAsBytes(ctx, vfspath.New("/a.txt"), vfs.ReadOptions{})
	require.NoError(t, err)

	stats := f.Stats()
	assert.Greater(t, stats.Ops, int64(0))
	assert.Equal(t, int64(5), stats.BytesWritten)
	assert.Equal(t, int64(5), stats.BytesRead)
	assert.Equal(t, int64(2), stats.EntityCount) // root + the new file
}

func TestWriteBytesBufferFusion(t *testing.T) {
	f := memory.New()
	ctx := vfsctx.New(vfslog.Noop())
	require.NoError(t, f.WriteBytes(ctx, vfspath.New("/a.txt"), []byte("0123456789"), vfs.WriteOptions{}))
	stats := f.Stats()
	assert.GreaterOrEqual(t, stats.MaxBufferLen, int64(10))
}
