package authz

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChandrashakerVarma/LMS-sub000/internal/menus"
	"github.com/ChandrashakerVarma/LMS-sub000/internal/shared"
)

func newTestCache() *AuthzCache {
	return NewAuthzCache(CacheConfig{CatalogTTL: time.Minute, MatrixTTL: time.Minute, UserTTL: time.Minute}, nil)
}

func TestMasksServedFromCacheUntilInvalidated(t *testing.T) {
	cache := newTestCache()
	var loads atomic.Int32
	load := func(ctx context.Context, roleID int64) (map[int64]shared.Mask, error) {
		loads.Add(1)
		return map[int64]shared.Mask{1: shared.ViewOnly()}, nil
	}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		m, err := cache.Masks(ctx, 5, load)
		require.NoError(t, err)
		assert.True(t, m[1].View)
	}
	assert.Equal(t, int32(1), loads.Load())

	cache.InvalidateMatrix(ctx, 5)
	_, err := cache.Masks(ctx, 5, load)
	require.NoError(t, err)
	assert.Equal(t, int32(2), loads.Load())

	// another role is untouched by a targeted invalidation
	_, _ = cache.Masks(ctx, 6, load)
	cache.InvalidateMatrix(ctx, 5)
	_, _ = cache.Masks(ctx, 6, load)
	assert.Equal(t, int32(3), loads.Load())
}

func TestLoadRacingInvalidationIsNotStored(t *testing.T) {
	cache := newTestCache()
	ctx := context.Background()
	var loads atomic.Int32
	load := func(ctx context.Context, roleID int64) (map[int64]shared.Mask, error) {
		if loads.Add(1) == 1 {
			// a write lands while the first read is in flight
			cache.InvalidateMatrix(ctx, roleID)
			return map[int64]shared.Mask{1: shared.FullMask()}, nil
		}
		return map[int64]shared.Mask{}, nil
	}

	stale, err := cache.Masks(ctx, 2, load)
	require.NoError(t, err)
	assert.True(t, stale[1].Delete)

	fresh, err := cache.Masks(ctx, 2, load)
	require.NoError(t, err)
	assert.False(t, fresh[1].View)
	assert.Equal(t, int32(2), loads.Load())
}

func TestConcurrentMissesShareOneLoad(t *testing.T) {
	cache := newTestCache()
	release := make(chan struct{})
	var loads atomic.Int32
	load := func(ctx context.Context) ([]menus.Menu, error) {
		loads.Add(1)
		<-release
		return []menus.Menu{{ID: 1, Active: true}}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			all, err := cache.Catalog(context.Background(), load)
			assert.NoError(t, err)
			assert.Len(t, all, 1)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	assert.Equal(t, int32(1), loads.Load())
}

func TestLoaderErrorIsNotCached(t *testing.T) {
	cache := newTestCache()
	boom := errors.New("db down")
	calls := 0
	load := func(ctx context.Context, userID int64) (shared.Principal, error) {
		calls++
		if calls == 1 {
			return shared.Principal{}, boom
		}
		return shared.Principal{UserID: userID}, nil
	}
	_, err := cache.Principal(context.Background(), 1, load)
	assert.ErrorIs(t, err, boom)
	p, err := cache.Principal(context.Background(), 1, load)
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.UserID)
}

func TestInvalidateRolePurgesPrincipals(t *testing.T) {
	cache := newTestCache()
	ctx := context.Background()
	calls := 0
	load := func(ctx context.Context, userID int64) (shared.Principal, error) {
		calls++
		return shared.Principal{UserID: userID}, nil
	}
	_, _ = cache.Principal(ctx, 1, load)
	_, _ = cache.Principal(ctx, 1, load)
	assert.Equal(t, 1, calls)

	cache.InvalidateRole(ctx, 3)
	_, _ = cache.Principal(ctx, 1, load)
	assert.Equal(t, 2, calls)

	cache.InvalidateUser(ctx, 1)
	_, _ = cache.Principal(ctx, 1, load)
	assert.Equal(t, 3, calls)
}

func TestInvalidateMenusBumpsVersions(t *testing.T) {
	cache := newTestCache()
	c0, m0 := cache.Versions()
	cache.InvalidateMenus(context.Background())
	c1, m1 := cache.Versions()
	assert.Greater(t, c1, c0)
	assert.Greater(t, m1, m0)
}

func TestCacheMetricsCountHitsAndMisses(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	cache := newTestCache()
	cache.SetMetrics(metrics)
	load := func(ctx context.Context, roleID int64) (map[int64]shared.Mask, error) {
		return map[int64]shared.Mask{}, nil
	}
	_, _ = cache.Masks(context.Background(), 1, load)
	_, _ = cache.Masks(context.Background(), 1, load)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.cacheRequests.WithLabelValues("matrix", "miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.cacheRequests.WithLabelValues("matrix", "hit")))
}

type recordingBroadcaster struct {
	events []Event
}

func (r *recordingBroadcaster) Publish(ctx context.Context, ev Event) error {
	r.events = append(r.events, ev)
	return nil
}

func TestInvalidationsAreBroadcast(t *testing.T) {
	cache := newTestCache()
	b := &recordingBroadcaster{}
	cache.SetBroadcaster(b)
	cache.InvalidateMatrix(context.Background(), 4)
	cache.InvalidateMenus(context.Background())
	require.Len(t, b.events, 2)
	assert.Equal(t, Event{Scope: ScopeMatrix, ID: 4}, b.events[0])
	assert.Equal(t, ScopeMenus, b.events[1].Scope)
}
