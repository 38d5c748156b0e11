package blockcache_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vfs-framework/vfs/backend/memory"
	"github.com/vfs-framework/vfs/blockcache"
	"github.com/vfs-framework/vfs/vfs"
	"github.com/vfs-framework/vfs/vfsctx"
	"github.com/vfs-framework/vfs/vfslog"
	"github.com/vfs-framework/vfs/vfspath"
	"github.com/vfs-framework/vfs/vfstest"
)

func TestConformance(t *testing.T) {
	vfstest.RunConformance(t, func() vfs.FS {
		origin := memory.New()
		store := memory.New()
		return blockcache.New(origin, store, blockcache.Options{BlockSize: 1024}, nil, nil)
	})
}

// TestInvalidationOnOriginWrite covers property 12: a write to the origin
// must be reflected on the next read through the cache.
func TestInvalidationOnOriginWrite(t *testing.T) {
	ctx := vfsctx.New(vfslog.Noop())
	origin := memory.New()
	store := memory.New()
	path := vfspath.New("/f.txt")
	require.NoError(t, origin.WriteBytes(ctx, path, []byte("old"), vfs.WriteOptions{}))

	c := blockcache.New(origin, store, blockcache.Options{BlockSize: 4}, nil, nil)
	data, err := c.ReadAsBytes(ctx, path, vfs.ReadOptions{})
	require.NoError(t, err)
	require.Equal(t, []byte("old"), data)

	require.NoError(t, c.WriteBytes(ctx, path, []byte("newvalue"), vfs.WriteOptions{Mode: vfs.ModeOverwrite}))

	data, err = c.ReadAsBytes(ctx, path, vfs.ReadOptions{})
	require.NoError(t, err)
	require.Equal(t, []byte("newvalue"), data)
}
