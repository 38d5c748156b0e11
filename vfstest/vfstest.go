// Package vfstest is a shared conformance suite exercised against
// every backend and composed adapter, mirroring rclone's fstest/fstests
// pattern of one generic test body invoked per concrete remote.
package vfstest

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vfs-framework/vfs/vfs"
	"github.com/vfs-framework/vfs/vfsctx"
	"github.com/vfs-framework/vfs/vfserr"
	"github.com/vfs-framework/vfs/vfslog"
	"github.com/vfs-framework/vfs/vfspath"
)

// RunConformance runs the universal properties of testable property
// list 1-9 against an FS freshly produced by newFS for each subtest.
func RunConformance(t *testing.T, newFS func() vfs.FS) {
	t.Helper()

	t.Run("write_then_read_roundtrips", func(t *testing.T) {
		f := newFS()
		ctx := newCtx()
		p := vfspath.New("/a.txt")
		require.NoError(t, f.WriteBytes(ctx, p, []byte("hello"), vfs.WriteOptions{}))
		data, err := f.ReadAsBytes(ctx, p, vfs.ReadOptions{})
		require.NoError(t, err)
		assert.Equal(t, []byte("hello"), data)
	})

	t.Run("append_concatenates", func(t *testing.T) {
		f := newFS()
		ctx := newCtx()
		p := vfspath.New("/a.txt")
		require.NoError(t, f.WriteBytes(ctx, p, []byte("foo"), vfs.WriteOptions{}))
		require.NoError(t, f.WriteBytes(ctx, p, []byte("bar"), vfs.WriteOptions{Mode: vfs.ModeAppend}))
		data, err := f.ReadAsBytes(ctx, p, vfs.ReadOptions{})
		require.NoError(t, err)
		assert.Equal(t, []byte("foobar"), data)
	})

	t.Run("delete_makes_unreachable", func(t *testing.T) {
		f := newFS()
		ctx := newCtx()
		p := vfspath.New("/a.txt")
		require.NoError(t, f.WriteBytes(ctx, p, []byte("x"), vfs.WriteOptions{}))
		require.NoError(t, f.Delete(ctx, p, vfs.DeleteOptions{}))
		exists, err := f.Exists(ctx, p)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("create_directory_then_stat_and_empty_list", func(t *testing.T) {
		f := newFS()
		ctx := newCtx()
		p := vfspath.New("/dir")
		require.NoError(t, f.CreateDirectory(ctx, p, vfs.CreateDirectoryOptions{}))
		st, err := f.Stat(ctx, p)
		require.NoError(t, err)
		require.NotNil(t, st)
		assert.True(t, st.IsDirectory)
		it, err := f.List(ctx, p, vfs.ListOptions{})
		require.NoError(t, err)
		children, err := vfs.Drain(it)
		require.NoError(t, err)
		assert.Empty(t, children)
	})

	t.Run("create_directory_with_parents", func(t *testing.T) {
		f := newFS()
		ctx := newCtx()
		p := vfspath.New("/a/b/c")
		require.NoError(t, f.CreateDirectory(ctx, p, vfs.CreateDirectoryOptions{CreateParents: true}))
		for _, sub := range []string{"/a", "/a/b", "/a/b/c"} {
			st, err := f.Stat(ctx, vfspath.New(sub))
			require.NoError(t, err)
			require.NotNil(t, st)
			assert.True(t, st.IsDirectory)
		}
	})

	t.Run("create_directory_with_parents_fails_on_file_prefix", func(t *testing.T) {
		f := newFS()
		ctx := newCtx()
		require.NoError(t, f.WriteBytes(ctx, vfspath.New("/a"), []byte("x"), vfs.WriteOptions{}))
		err := f.CreateDirectory(ctx, vfspath.New("/a/b/c"), vfs.CreateDirectoryOptions{CreateParents: true})
		assert.True(t, vfserr.Is(err, vfserr.NotADirectory))
	})

	t.Run("delete_non_empty_requires_recursive", func(t *testing.T) {
		f := newFS()
		ctx := newCtx()
		require.NoError(t, f.CreateDirectory(ctx, vfspath.New("/dir"), vfs.CreateDirectoryOptions{}))
		require.NoError(t, f.WriteBytes(ctx, vfspath.New("/dir/a.txt"), []byte("x"), vfs.WriteOptions{}))

		err := f.Delete(ctx, vfspath.New("/dir"), vfs.DeleteOptions{})
		assert.True(t, vfserr.Is(err, vfserr.NotEmptyDirectory))

		require.NoError(t, f.Delete(ctx, vfspath.New("/dir"), vfs.DeleteOptions{Recursive: true}))
		exists, err := f.Exists(ctx, vfspath.New("/dir"))
		require.NoError(t, err)
		assert.False(t, exists)
		exists, err = f.Exists(ctx, vfspath.New("/dir/a.txt"))
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("copy_overwrite_semantics", func(t *testing.T) {
		f := newFS()
		ctx := newCtx()
		src, dst := vfspath.New("/src.txt"), vfspath.New("/dst.txt")
		require.NoError(t, f.WriteBytes(ctx, src, []byte("source"), vfs.WriteOptions{}))
		require.NoError(t, f.WriteBytes(ctx, dst, []byte("old"), vfs.WriteOptions{}))

		err := f.Copy(ctx, src, dst, vfs.CopyOptions{})
		assert.True(t, vfserr.Is(err, vfserr.AlreadyExists))

		require.NoError(t, f.Copy(ctx, src, dst, vfs.CopyOptions{Overwrite: true}))
		srcData, err := f.ReadAsBytes(ctx, src, vfs.ReadOptions{})
		require.NoError(t, err)
		dstData, err := f.ReadAsBytes(ctx, dst, vfs.ReadOptions{})
		require.NoError(t, err)
		assert.Equal(t, srcData, dstData)
	})

	t.Run("ranged_read_matches_slice", func(t *testing.T) {
		f := newFS()
		ctx := newCtx()
		p := vfspath.New("/a.txt")
		full := []byte("0123456789")
		require.NoError(t, f.WriteBytes(ctx, p, full, vfs.WriteOptions{}))
		start, end := uint64(2), uint64(6)
		rc, err := f.OpenRead(ctx, p, vfs.ReadOptions{Start: &start, End: &end})
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		assert.Equal(t, full[start:end], data)
	})

	t.Run("canceled_context_aborts_with_context_canceled", func(t *testing.T) {
		f := newFS()
		ctx := newCtx()
		p := vfspath.New("/a.txt")
		require.NoError(t, f.WriteBytes(ctx, p, []byte("hello"), vfs.WriteOptions{}))

		canceled := newCtx()
		canceled.Cancellation.Cancel(nil)

		_, err := f.Stat(canceled, p)
		assert.True(t, vfserr.Is(err, vfserr.ContextCanceled), "Stat: expected ContextCanceled, got %v", err)

		_, err = f.List(canceled, vfspath.New("/"), vfs.ListOptions{})
		assert.True(t, vfserr.Is(err, vfserr.ContextCanceled), "List: expected ContextCanceled, got %v", err)

		_, err = f.OpenRead(canceled, p, vfs.ReadOptions{})
		assert.True(t, vfserr.Is(err, vfserr.ContextCanceled), "OpenRead: expected ContextCanceled, got %v", err)

		_, err = f.ReadAsBytes(canceled, p, vfs.ReadOptions{})
		assert.True(t, vfserr.Is(err, vfserr.ContextCanceled), "ReadAsBytes: expected ContextCanceled, got %v", err)

		err = f.WriteBytes(canceled, p, []byte("x"), vfs.WriteOptions{Mode: vfs.ModeOverwrite})
		assert.True(t, vfserr.Is(err, vfserr.ContextCanceled), "WriteBytes: expected ContextCanceled, got %v", err)

		err = f.CreateDirectory(canceled, vfspath.New("/dir"), vfs.CreateDirectoryOptions{})
		assert.True(t, vfserr.Is(err, vfserr.ContextCanceled), "CreateDirectory: expected ContextCanceled, got %v", err)

		err = f.Copy(canceled, p, vfspath.New("/copy.txt"), vfs.CopyOptions{})
		assert.True(t, vfserr.Is(err, vfserr.ContextCanceled), "Copy: expected ContextCanceled, got %v", err)

		err = f.Move(canceled, p, vfspath.New("/moved.txt"), vfs.MoveOptions{})
		assert.True(t, vfserr.Is(err, vfserr.ContextCanceled), "Move: expected ContextCanceled, got %v", err)

		err = f.Delete(canceled, p, vfs.DeleteOptions{})
		assert.True(t, vfserr.Is(err, vfserr.ContextCanceled), "Delete: expected ContextCanceled, got %v", err)
	})

	t.Run("recursive_list_yields_every_descendant_once", func(t *testing.T) {
		f := newFS()
		ctx := newCtx()
		paths := []string{"/d1", "/d1/d2", "/d1/a.txt", "/d1/d2/b.txt", "/d3"}
		require.NoError(t, f.CreateDirectory(ctx, vfspath.New("/d1/d2"), vfs.CreateDirectoryOptions{CreateParents: true}))
		require.NoError(t, f.CreateDirectory(ctx, vfspath.New("/d3"), vfs.CreateDirectoryOptions{}))
		require.NoError(t, f.WriteBytes(ctx, vfspath.New("/d1/a.txt"), []byte("a"), vfs.WriteOptions{}))
		require.NoError(t, f.WriteBytes(ctx, vfspath.New("/d1/d2/b.txt"), []byte("b"), vfs.WriteOptions{}))

		it, err := f.List(ctx, vfspath.New("/"), vfs.ListOptions{Recursive: true})
		require.NoError(t, err)
		entries, err := vfs.Drain(it)
		require.NoError(t, err)

		seen := map[string]int{}
		for _, e := range entries {
			seen[e.Path.String()]++
		}
		for _, p := range paths {
			assert.Equalf(t, 1, seen[p], "expected %s exactly once, saw %d", p, seen[p])
		}
	})
}

func newCtx() *vfsctx.Context {
	return vfsctx.New(vfslog.Noop())
}
