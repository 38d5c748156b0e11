package metacache_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vfs-framework/vfs/backend/memory"
	"github.com/vfs-framework/vfs/metacache"
	"github.com/vfs-framework/vfs/vfs"
	"github.com/vfs-framework/vfs/vfsclock"
	"github.com/vfs-framework/vfs/vfsctx"
	"github.com/vfs-framework/vfs/vfslog"
	"github.com/vfs-framework/vfs/vfspath"
	"github.com/vfs-framework/vfs/vfstest"
)

func TestConformance(t *testing.T) {
	vfstest.RunConformance(t, func() vfs.FS {
		origin := memory.New()
		store := memory.New()
		return metacache.New(origin, store, metacache.Options{}, nil, nil)
	})
}

// TestListIsServedFromCacheUntilStale covers property 15: once
// populated, a cached listing is served without consulting the origin
// (checked indirectly: a file written to the origin behind the cache's
// back does not show up in the cached listing until a mutation through
// the cache invalidates it).
func TestListIsServedFromCacheUntilStale(t *testing.T) {
	ctx := vfsctx.New(vfslog.Noop())
	origin := memory.New()
	store := memory.New()
	require.NoError(t, origin.CreateDirectory(ctx, vfspath.New("/dir"), vfs.CreateDirectoryOptions{}))
	require.NoError(t, origin.WriteBytes(ctx, vfspath.New("/dir/a.txt"), []byte("a"), vfs.WriteOptions{}))

	c := metacache.New(origin, store, metacache.Options{MaxCacheAge: time.Hour}, nil, nil)
	it, err := c.List(ctx, vfspath.New("/dir"), vfs.ListOptions{})
	require.NoError(t, err)
	entries, err := vfs.Drain(it)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	require.Eventually(t, func() bool {
		it2, err := c.List(ctx, vfspath.New("/dir"), vfs.ListOptions{})
		if err != nil {
			return false
		}
		es, err := vfs.Drain(it2)
		return err == nil && len(es) == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, origin.WriteBytes(ctx, vfspath.New("/dir/b.txt"), []byte("b"), vfs.WriteOptions{}))

	itStale, err := c.List(ctx, vfspath.New("/dir"), vfs.ListOptions{})
	require.NoError(t, err)
	stale, err := vfs.Drain(itStale)
	require.NoError(t, err)
	require.Len(t, stale, 1, "a direct origin write should not be visible until the cache entry is refreshed")

	require.NoError(t, c.WriteBytes(ctx, vfspath.New("/dir/b.txt"), []byte("b"), vfs.WriteOptions{Mode: vfs.ModeOverwrite}))
	itFresh, err := c.List(ctx, vfspath.New("/dir"), vfs.ListOptions{})
	require.NoError(t, err)
	fresh, err := vfs.Drain(itFresh)
	require.NoError(t, err)
	require.Len(t, fresh, 2, "a mutation through the cache must refresh the parent directory's entry")
}

// TestStatFreshnessWindow exercises the freshness
// window: a stat served from cache within max_cache_age does not
// reflect a direct origin mutation, but one requested after the
// configured age elapses does.
func TestStatFreshnessWindow(t *testing.T) {
	ctx := vfsctx.New(vfslog.Noop())
	origin := memory.New()
	store := memory.New()
	require.NoError(t, origin.WriteBytes(ctx, vfspath.New("/f.txt"), []byte("v1"), vfs.WriteOptions{}))

	clock := &fakeClock{t: time.Unix(0, 0)}
	c := metacache.New(origin, store, metacache.Options{MaxCacheAge: time.Minute}, clock, nil)

	st, err := c.Stat(ctx, vfspath.New("/f.txt"))
	require.NoError(t, err)
	require.NotNil(t, st)
	require.Eventually(t, func() bool {
		st2, err := c.Stat(ctx, vfspath.New("/f.txt"))
		return err == nil && st2 != nil
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, origin.WriteBytes(ctx, vfspath.New("/f.txt"), []byte("v2-longer"), vfs.WriteOptions{Mode: vfs.ModeOverwrite}))

	stStillCached, err := c.Stat(ctx, vfspath.New("/f.txt"))
	require.NoError(t, err)
	require.NotNil(t, stStillCached)
	require.Equal(t, uint64(2), *stStillCached.Size, "within max_cache_age the cached stat should still be served")

	clock.advance(2 * time.Minute)
	stFresh, err := c.Stat(ctx, vfspath.New("/f.txt"))
	require.NoError(t, err)
	require.NotNil(t, stFresh)
	require.Equal(t, uint64(9), *stFresh.Size, "after max_cache_age elapses, stat must consult the origin again")
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

var _ vfsclock.Clock = (*fakeClock)(nil)
