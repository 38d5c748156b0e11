package alias_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vfs-framework/vfs/alias"
	"github.com/vfs-framework/vfs/backend/memory"
	"github.com/vfs-framework/vfs/vfs"
	"github.com/vfs-framework/vfs/vfsctx"
	"github.com/vfs-framework/vfs/vfslog"
	"github.com/vfs-framework/vfs/vfspath"
	"github.com/vfs-framework/vfs/vfstest"
)

func TestConformance(t *testing.T) {
	vfstest.RunConformance(t, func() vfs.FS {
		origin := memory.New()
		ctx := vfsctx.New(vfslog.Noop())
		require.NoError(t, origin.CreateDirectory(ctx, vfspath.New("/project"), vfs.CreateDirectoryOptions{}))
		return alias.New(origin, vfspath.New("/project"))
	})
}

func TestWritesLandUnderSubDirectoryInOrigin(t *testing.T) {
	origin := memory.New()
	ctx := vfsctx.New(vfslog.Noop())
	require.NoError(t, origin.CreateDirectory(ctx, vfspath.New("/project"), vfs.CreateDirectoryOptions{}))
	a := alias.New(origin, vfspath.New("/project"))

	require.NoError(t, a.WriteBytes(ctx, vfspath.New("/a.txt"), []byte("hi"), vfs.WriteOptions{}))

	data, err := origin.ReadAsBytes(ctx, vfspath.New("/project/a.txt"), vfs.ReadOptions{})
	require.NoError(t, err)
	require.Equal(t, []byte("hi"), data)
}
