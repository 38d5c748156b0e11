package union_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vfs-framework/vfs/backend/memory"
	"github.com/vfs-framework/vfs/union"
	"github.com/vfs-framework/vfs/union/policy"
	"github.com/vfs-framework/vfs/vfs"
	"github.com/vfs-framework/vfs/vfsctx"
	"github.com/vfs-framework/vfs/vfslog"
	"github.com/vfs-framework/vfs/vfspath"
	"github.com/vfs-framework/vfs/vfstest"
)

func TestConformance(t *testing.T) {
	vfstest.RunConformance(t, func() vfs.FS {
		return union.New([]union.MountItem{
			{FS: memory.New(), MountPath: vfspath.Root, Priority: 100},
		})
	})
}

// ScenarioA: a higher-priority mount at "/" overrides a lower one.
func TestOverlayPriorityOverride(t *testing.T) {
	ctx := vfsctx.New(vfslog.Noop())
	fsUser, fsSys := memory.New(), memory.New()
	require.NoError(t, fsUser.WriteBytes(ctx, vfspath.New("/config.ini"), []byte("user"), vfs.WriteOptions{}))
	require.NoError(t, fsSys.WriteBytes(ctx, vfspath.New("/config.ini"), []byte("sys"), vfs.WriteOptions{}))

	u := union.New([]union.MountItem{
		{FS: fsUser, MountPath: vfspath.Root, Priority: 100},
		{FS: fsSys, MountPath: vfspath.Root, Priority: 50},
	})

	data, err := u.ReadAsBytes(ctx, vfspath.New("/config.ini"), vfs.ReadOptions{})
	require.NoError(t, err)
	require.Equal(t, []byte("user"), data)
}

// ScenarioB: a more specific mount wins over a less specific one
// regardless of priority, and writes land in the specific backend at
// its own internal path.
func TestMountSpecificity(t *testing.T) {
	ctx := vfsctx.New(vfslog.Noop())
	fsRoot, fsTmp := memory.New(), memory.New()

	u := union.New([]union.MountItem{
		{FS: fsRoot, MountPath: vfspath.Root, Priority: 100},
		{FS: fsTmp, MountPath: vfspath.New("/tmp"), Priority: 50},
	})

	require.NoError(t, u.WriteBytes(ctx, vfspath.New("/tmp/a.txt"), []byte("x"), vfs.WriteOptions{}))

	data, err := fsTmp.ReadAsBytes(ctx, vfspath.New("/a.txt"), vfs.ReadOptions{})
	require.NoError(t, err)
	require.Equal(t, []byte("x"), data)

	exists, err := fsRoot.Exists(ctx, vfspath.New("/tmp/a.txt"))
	require.NoError(t, err)
	require.False(t, exists)
}

// ScenarioC: no backend mounted at "/" synthesizes a virtual root
// whose listing is exactly the mount points.
func TestVirtualRoot(t *testing.T) {
	ctx := vfsctx.New(vfslog.Noop())
	u := union.New([]union.MountItem{
		{FS: memory.New(), MountPath: vfspath.New("/data"), Priority: 100},
		{FS: memory.New(), MountPath: vfspath.New("/config"), Priority: 100},
	})

	exists, err := u.Exists(ctx, vfspath.Root)
	require.NoError(t, err)
	require.True(t, exists)

	st, err := u.Stat(ctx, vfspath.Root)
	require.NoError(t, err)
	require.True(t, st.IsDirectory)

	it, err := u.List(ctx, vfspath.Root, vfs.ListOptions{})
	require.NoError(t, err)
	entries, err := vfs.Drain(it)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	seen := map[string]bool{}
	for _, e := range entries {
		seen[e.Path.String()] = true
	}
	require.True(t, seen["/data"])
	require.True(t, seen["/config"])
}

// TestFirstFoundPolicyIgnoresSpecificity checks that plugging in the
// FirstFound policy picks mount-declaration order instead of the
// default most-specific-wins rule.
func TestFirstFoundPolicyIgnoresSpecificity(t *testing.T) {
	ctx := vfsctx.New(vfslog.Noop())
	first, second := memory.New(), memory.New()
	require.NoError(t, first.CreateDirectory(ctx, vfspath.New("/tmp"), vfs.CreateDirectoryOptions{}))

	u := union.NewWithPolicy([]union.MountItem{
		{FS: first, MountPath: vfspath.Root, Priority: 50},
		{FS: second, MountPath: vfspath.New("/tmp"), Priority: 100},
	}, policy.FirstFound{})

	require.NoError(t, u.WriteBytes(ctx, vfspath.New("/tmp/a.txt"), []byte("x"), vfs.WriteOptions{}))

	data, err := first.ReadAsBytes(ctx, vfspath.New("/tmp/a.txt"), vfs.ReadOptions{})
	require.NoError(t, err)
	require.Equal(t, []byte("x"), data)

	exists, err := second.Exists(ctx, vfspath.New("/a.txt"))
	require.NoError(t, err)
	require.False(t, exists)
}

// ScenarioF: moving across two mounts of distinct backends removes
// the source and makes the destination readable.
func TestCrossBackendMove(t *testing.T) {
	ctx := vfsctx.New(vfslog.Noop())
	u := union.New([]union.MountItem{
		{FS: memory.New(), MountPath: vfspath.New("/src"), Priority: 100},
		{FS: memory.New(), MountPath: vfspath.New("/dest"), Priority: 100},
	})

	require.NoError(t, u.WriteBytes(ctx, vfspath.New("/src/x"), []byte("abc"), vfs.WriteOptions{}))
	require.NoError(t, u.Move(ctx, vfspath.New("/src/x"), vfspath.New("/dest/y"), vfs.MoveOptions{}))

	exists, err := u.Exists(ctx, vfspath.New("/src/x"))
	require.NoError(t, err)
	require.False(t, exists)

	data, err := u.ReadAsBytes(ctx, vfspath.New("/dest/y"), vfs.ReadOptions{})
	require.NoError(t, err)
	require.Equal(t, []byte("abc"), data)
}
