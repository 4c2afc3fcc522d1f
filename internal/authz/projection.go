package authz

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/ChandrashakerVarma/LMS-sub000/internal/menus"
	"github.com/ChandrashakerVarma/LMS-sub000/internal/shared"
)

// CatalogSource loads every menu from the store.
type CatalogSource interface {
	List(ctx context.Context) ([]menus.Menu, error)
}

// Projector renders the navigation forest a principal may see.
type Projector struct {
	cache   *AuthzCache
	catalog CatalogSource
	gate    *Gate
}

// NewProjector constructs a Projector.
func NewProjector(cache *AuthzCache, catalog CatalogSource, gate *Gate) *Projector {
	return &Projector{cache: cache, catalog: catalog, gate: gate}
}

// Catalog returns the cached catalog.
func (p *Projector) Catalog(ctx context.Context) ([]menus.Menu, error) {
	all, err := p.cache.Catalog(ctx, p.catalog.List)
	if err != nil {
		return nil, shared.Upstream("authz: load catalog", err)
	}
	return all, nil
}

// Project returns the active menus the principal may view, each annotated
// with its verbs. Menus whose parent is hidden hang off the nearest visible
// ancestor. Principals without a role see nothing. The returned forest is
// shared with the cache and must not be mutated.
func (p *Projector) Project(ctx context.Context, principal shared.Principal) ([]*menus.Node, error) {
	roleID, hasRole := principal.RoleID()
	if !hasRole {
		return []*menus.Node{}, nil
	}

	catalogGen, matrixGen := p.cache.Versions()
	key := fmt.Sprintf("role:%d:%d:%d", roleID, catalogGen, matrixGen)
	if principal.IsAdmin() {
		key = fmt.Sprintf("admin:%d", catalogGen)
	}
	if forest, ok := p.cache.projection(key); ok {
		return forest, nil
	}

	var (
		all   []menus.Menu
		masks map[int64]shared.Mask
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		all, err = p.Catalog(gctx)
		return err
	})
	if !principal.IsAdmin() {
		g.Go(func() error {
			var err error
			masks, err = p.gate.MasksFor(gctx, principal)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	maskOf := func(id int64) shared.Mask {
		if principal.IsAdmin() {
			return shared.FullMask()
		}
		return masks[id]
	}
	keep := func(m menus.Menu) bool {
		return m.Active && maskOf(m.ID).View
	}
	forest := menus.BuildForest(all, keep, true)
	menus.Walk(forest, func(n *menus.Node) {
		mask := maskOf(n.ID)
		n.Verbs = &mask
	})

	p.cache.storeProjection(key, catalogGen, matrixGen, forest)
	return forest, nil
}
