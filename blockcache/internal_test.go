package blockcache

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vfs-framework/vfs/backend/memory"
	"github.com/vfs-framework/vfs/vfs"
	"github.com/vfs-framework/vfs/vfsctx"
	"github.com/vfs-framework/vfs/vfslog"
	"github.com/vfs-framework/vfs/vfspath"
)

func u64(v uint64) *uint64 { return &v }

// ScenarioD: sequential ranged reads populate consecutive blocks and
// read-ahead fills the subsequent read_ahead_blocks blocks too.
func TestRangeReadPopulatesBlocksAndReadAhead(t *testing.T) {
	ctx := vfsctx.New(vfslog.Noop())
	origin := memory.New()
	store := memory.New()
	path := vfspath.New("/big.bin")

	data := make([]byte, 10*1024)
	for i := range data {
		data[i] = byte(i % 251)
	}
	require.NoError(t, origin.WriteBytes(ctx, path, data, vfs.WriteOptions{}))

	c := New(origin, store, Options{
		BlockSize:       1024,
		EnableReadAhead: true,
		ReadAheadBlocks: 3,
	}, nil, nil)

	for _, r := range [][2]uint64{{0, 512}, {1024, 2048}, {2048, 3072}} {
		rc, err := c.OpenRead(ctx, path, vfs.ReadOptions{Start: u64(r[0]), End: u64(r[1])})
		require.NoError(t, err)
		got, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		require.Equal(t, data[r[0]:r[1]], got)
	}

	logical := path.String()
	require.Eventually(t, func() bool {
		for _, block := range []uint32{0, 1, 2, 3, 4, 5} {
			exists, err := store.Exists(ctx, blockPath(logical, block))
			if err != nil || !exists {
				return false
			}
		}
		return true
	}, 2*time.Second, 10*time.Millisecond)
}

// ScenarioE: a meta.json recording a filePath different from the
// queried path (a simulated hash collision) must be rejected and the
// read falls back to the origin rather than serving the wrong bytes.
func TestHashCollisionRejected(t *testing.T) {
	ctx := vfsctx.New(vfslog.Noop())
	origin := memory.New()
	store := memory.New()
	path := vfspath.New("/real.bin")
	require.NoError(t, origin.WriteBytes(ctx, path, []byte("0123456789abcdef"), vfs.WriteOptions{}))

	c := New(origin, store, Options{BlockSize: 8}, nil, nil)

	rc, err := c.OpenRead(ctx, path, vfs.ReadOptions{})
	require.NoError(t, err)
	first, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	require.Equal(t, []byte("0123456789abcdef"), first)

	logical := path.String()
	require.Eventually(t, func() bool {
		exists, err := store.Exists(ctx, metaPath(logical))
		return err == nil && exists
	}, 2*time.Second, 10*time.Millisecond)

	corrupt := []byte(`{"filePath":"/other.bin","fileSize":16,"blockSize":8,"totalBlocks":2,"cachedBlocks":[0,1],"lastModified":"2024-01-01T00:00:00Z","version":"1.0"}`)
	require.NoError(t, store.WriteBytes(ctx, metaPath(logical), corrupt, vfs.WriteOptions{Mode: vfs.ModeOverwrite}))

	rc2, err := c.OpenRead(ctx, path, vfs.ReadOptions{})
	require.NoError(t, err)
	second, err := io.ReadAll(rc2)
	require.NoError(t, err)
	require.NoError(t, rc2.Close())
	require.Equal(t, []byte("0123456789abcdef"), second)
}
