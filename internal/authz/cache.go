package authz

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/ChandrashakerVarma/LMS-sub000/internal/menus"
	"github.com/ChandrashakerVarma/LMS-sub000/internal/shared"
)

// CacheConfig bounds every slice of the cache in size and age.
type CacheConfig struct {
	CatalogTTL time.Duration
	MatrixTTL  time.Duration
	UserTTL    time.Duration
	MaxRoles   int
	MaxUsers   int
}

// DefaultCacheConfig returns the production defaults.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		CatalogTTL: time.Minute,
		MatrixTTL:  30 * time.Second,
		UserTTL:    30 * time.Second,
		MaxRoles:   256,
		MaxUsers:   10000,
	}
}

const catalogKey = "catalog"

// AuthzCache holds process-local copies of the catalog, per-role masks,
// resolved principals and memoised projections.
//
// Each slice has a generation counter. A load records the generation before
// reading the store and only publishes its result if no invalidation happened
// meanwhile, so a write followed by a read never observes pre-write data.
type AuthzCache struct {
	catalog     *expirable.LRU[string, []menus.Menu]
	masks       *expirable.LRU[int64, map[int64]shared.Mask]
	users       *expirable.LRU[int64, shared.Principal]
	projections *expirable.LRU[string, []*menus.Node]

	catalogGen atomic.Uint64
	matrixGen  atomic.Uint64
	userGen    atomic.Uint64

	mu    sync.Mutex
	group singleflight.Group

	broadcaster Broadcaster
	metrics     *Metrics
	logger      *slog.Logger
}

// NewAuthzCache builds an empty cache.
func NewAuthzCache(cfg CacheConfig, logger *slog.Logger) *AuthzCache {
	def := DefaultCacheConfig()
	if cfg.CatalogTTL <= 0 {
		cfg.CatalogTTL = def.CatalogTTL
	}
	if cfg.MatrixTTL <= 0 {
		cfg.MatrixTTL = def.MatrixTTL
	}
	if cfg.UserTTL <= 0 {
		cfg.UserTTL = def.UserTTL
	}
	if cfg.MaxRoles <= 0 {
		cfg.MaxRoles = def.MaxRoles
	}
	if cfg.MaxUsers <= 0 {
		cfg.MaxUsers = def.MaxUsers
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthzCache{
		catalog:     expirable.NewLRU[string, []menus.Menu](1, nil, cfg.CatalogTTL),
		masks:       expirable.NewLRU[int64, map[int64]shared.Mask](cfg.MaxRoles, nil, cfg.MatrixTTL),
		users:       expirable.NewLRU[int64, shared.Principal](cfg.MaxUsers, nil, cfg.UserTTL),
		projections: expirable.NewLRU[string, []*menus.Node](cfg.MaxRoles, nil, cfg.MatrixTTL),
		logger:      logger,
	}
}

// SetBroadcaster forwards every local invalidation to other instances.
func (c *AuthzCache) SetBroadcaster(b Broadcaster) {
	c.broadcaster = b
}

// SetMetrics enables hit/miss and invalidation counters.
func (c *AuthzCache) SetMetrics(m *Metrics) {
	c.metrics = m
}

// Versions reports the current catalog and matrix generations.
func (c *AuthzCache) Versions() (catalog, matrix uint64) {
	return c.catalogGen.Load(), c.matrixGen.Load()
}

// Catalog returns every menu, loading through load on a miss.
func (c *AuthzCache) Catalog(ctx context.Context, load func(context.Context) ([]menus.Menu, error)) ([]menus.Menu, error) {
	if v, ok := c.catalog.Get(catalogKey); ok {
		c.metrics.lookup("catalog", true)
		return v, nil
	}
	c.metrics.lookup("catalog", false)
	gen := c.catalogGen.Load()
	v, err, _ := c.group.Do(fmt.Sprintf("catalog:%d", gen), func() (any, error) {
		all, err := load(ctx)
		if err != nil {
			return nil, err
		}
		c.storeIf(&c.catalogGen, gen, func() { c.catalog.Add(catalogKey, all) })
		return all, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]menus.Menu), nil
}

// Masks returns the role's menu→mask map, loading through load on a miss.
func (c *AuthzCache) Masks(ctx context.Context, roleID int64, load func(context.Context, int64) (map[int64]shared.Mask, error)) (map[int64]shared.Mask, error) {
	if v, ok := c.masks.Get(roleID); ok {
		c.metrics.lookup("matrix", true)
		return v, nil
	}
	c.metrics.lookup("matrix", false)
	gen := c.matrixGen.Load()
	v, err, _ := c.group.Do(fmt.Sprintf("masks:%d:%d", roleID, gen), func() (any, error) {
		m, err := load(ctx, roleID)
		if err != nil {
			return nil, err
		}
		if m == nil {
			m = map[int64]shared.Mask{}
		}
		c.storeIf(&c.matrixGen, gen, func() { c.masks.Add(roleID, m) })
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(map[int64]shared.Mask), nil
}

// Principal returns the resolved principal for userID, loading through load on a miss.
func (c *AuthzCache) Principal(ctx context.Context, userID int64, load func(context.Context, int64) (shared.Principal, error)) (shared.Principal, error) {
	if v, ok := c.users.Get(userID); ok {
		c.metrics.lookup("user", true)
		return v, nil
	}
	c.metrics.lookup("user", false)
	gen := c.userGen.Load()
	v, err, _ := c.group.Do(fmt.Sprintf("user:%d:%d", userID, gen), func() (any, error) {
		p, err := load(ctx, userID)
		if err != nil {
			return nil, err
		}
		c.storeIf(&c.userGen, gen, func() { c.users.Add(userID, p) })
		return p, nil
	})
	if err != nil {
		return shared.Principal{}, err
	}
	return v.(shared.Principal), nil
}

func (c *AuthzCache) projection(key string) ([]*menus.Node, bool) {
	v, ok := c.projections.Get(key)
	c.metrics.lookup("projection", ok)
	return v, ok
}

func (c *AuthzCache) storeProjection(key string, catalogGen, matrixGen uint64, forest []*menus.Node) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.catalogGen.Load() == catalogGen && c.matrixGen.Load() == matrixGen {
		c.projections.Add(key, forest)
	}
}

func (c *AuthzCache) storeIf(gen *atomic.Uint64, seen uint64, store func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen.Load() == seen {
		store()
	}
}

// InvalidateMenus drops the catalog and every matrix slice; catalog writes
// may cascade into role_rights.
func (c *AuthzCache) InvalidateMenus(ctx context.Context) {
	c.invalidate(ctx, Event{Scope: ScopeMenus})
}

// InvalidateRole drops a role's masks and every cached principal, since
// principals embed the role name and kind.
func (c *AuthzCache) InvalidateRole(ctx context.Context, roleID int64) {
	c.invalidate(ctx, Event{Scope: ScopeRole, ID: roleID})
}

// InvalidateMatrix drops a role's masks; roleID 0 drops every role's.
func (c *AuthzCache) InvalidateMatrix(ctx context.Context, roleID int64) {
	c.invalidate(ctx, Event{Scope: ScopeMatrix, ID: roleID})
}

// InvalidateUser drops one cached principal.
func (c *AuthzCache) InvalidateUser(ctx context.Context, userID int64) {
	c.invalidate(ctx, Event{Scope: ScopeUser, ID: userID})
}

// InvalidateAll empties every slice.
func (c *AuthzCache) InvalidateAll(ctx context.Context) {
	c.invalidate(ctx, Event{Scope: ScopeAll})
}

func (c *AuthzCache) invalidate(ctx context.Context, ev Event) {
	c.apply(ev, false)
	if c.broadcaster == nil {
		return
	}
	if err := c.broadcaster.Publish(ctx, ev); err != nil {
		c.logger.Warn("authz invalidation broadcast failed",
			slog.String("scope", string(ev.Scope)), slog.Int64("id", ev.ID), slog.Any("error", err))
	}
}

// apply purges local state for ev without re-broadcasting it.
func (c *AuthzCache) apply(ev Event, remote bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metrics.invalidated(ev.Scope, remote)

	switch ev.Scope {
	case ScopeMenus:
		c.catalogGen.Add(1)
		c.matrixGen.Add(1)
		c.catalog.Purge()
		c.masks.Purge()
	case ScopeRole:
		c.matrixGen.Add(1)
		c.userGen.Add(1)
		c.masks.Remove(ev.ID)
		c.users.Purge()
	case ScopeMatrix:
		c.matrixGen.Add(1)
		if ev.ID == 0 {
			c.masks.Purge()
		} else {
			c.masks.Remove(ev.ID)
		}
	case ScopeUser:
		c.userGen.Add(1)
		c.users.Remove(ev.ID)
	default:
		c.catalogGen.Add(1)
		c.matrixGen.Add(1)
		c.userGen.Add(1)
		c.catalog.Purge()
		c.masks.Purge()
		c.users.Purge()
	}
	c.projections.Purge()
}
