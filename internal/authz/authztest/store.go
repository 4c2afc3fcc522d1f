// Package authztest provides an in-memory authorization store and helpers
// for handler and scenario tests.
package authztest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ChandrashakerVarma/LMS-sub000/internal/bootstrap"
	"github.com/ChandrashakerVarma/LMS-sub000/internal/menus"
	"github.com/ChandrashakerVarma/LMS-sub000/internal/rights"
	"github.com/ChandrashakerVarma/LMS-sub000/internal/roles"
	"github.com/ChandrashakerVarma/LMS-sub000/internal/shared"
	"github.com/ChandrashakerVarma/LMS-sub000/internal/users"
)

type tables struct {
	menus  map[int64]menus.Menu
	roles  map[int64]roles.Role
	rights map[int64]rights.RoleRight
	users  map[int64]users.User
	// deleted marks soft-deleted users
	deleted map[int64]time.Time

	hash    string
	hasHash bool

	nextMenu, nextRole, nextRight int64
}

func (t *tables) clone() tables {
	c := *t
	c.menus = make(map[int64]menus.Menu, len(t.menus))
	for k, v := range t.menus {
		c.menus[k] = v
	}
	c.roles = make(map[int64]roles.Role, len(t.roles))
	for k, v := range t.roles {
		c.roles[k] = v
	}
	c.rights = make(map[int64]rights.RoleRight, len(t.rights))
	for k, v := range t.rights {
		c.rights[k] = v
	}
	c.users = make(map[int64]users.User, len(t.users))
	for k, v := range t.users {
		c.users[k] = v
	}
	c.deleted = make(map[int64]time.Time, len(t.deleted))
	for k, v := range t.deleted {
		c.deleted[k] = v
	}
	return c
}

// Store is a transactional in-memory stand-in for the Postgres store.
// Transactions are serialised and roll back when their callback fails.
type Store struct {
	mu sync.Mutex
	t  tables

	fail      error
	maskLoads int
	accounts  int
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{t: tables{
		menus:   map[int64]menus.Menu{},
		roles:   map[int64]roles.Role{},
		rights:  map[int64]rights.RoleRight{},
		users:   map[int64]users.User{},
		deleted: map[int64]time.Time{},
	}}
}

// Fail makes every subsequent operation return err until cleared with nil.
func (s *Store) Fail(err error) {
	s.mu.Lock()
	s.fail = err
	s.mu.Unlock()
}

// MaskLoads counts MasksForRole calls that reached the store.
func (s *Store) MaskLoads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maskLoads
}

// AccountLoads counts Account calls that reached the store.
func (s *Store) AccountLoads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accounts
}

// AddUser inserts a user row directly; the user subsystem owns this table.
func (s *Store) AddUser(u users.User) users.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
		u.UpdatedAt = u.CreatedAt
	}
	s.t.users[u.ID] = u
	return u
}

// SoftDeleteUser marks a user deleted.
func (s *Store) SoftDeleteUser(id int64) {
	s.mu.Lock()
	s.t.deleted[id] = time.Now().UTC()
	s.mu.Unlock()
}

// RoleID returns the id of the role named name, or 0.
func (s *Store) RoleID(name string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.t.roles {
		if shared.FoldName(r.Name) == shared.FoldName(name) {
			return r.ID
		}
	}
	return 0
}

// Right returns the mask stored for (roleID, menuID).
func (s *Store) Right(roleID, menuID int64) (shared.Mask, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rr := range s.t.rights {
		if rr.RoleID == roleID && rr.MenuID == menuID {
			return rr.Mask(), true
		}
	}
	return shared.Mask{}, false
}

func (s *Store) read(fn func(t *tables) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	return fn(&s.t)
}

func (s *Store) tx(fn func(t *tables) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	snap := s.t.clone()
	if err := fn(&s.t); err != nil {
		s.t = snap
		return err
	}
	return nil
}

// Menus returns the catalog repository view.
func (s *Store) Menus() menus.RepositoryPort { return menuRepo{s} }

// Roles returns the role repository view.
func (s *Store) Roles() roles.RepositoryPort { return roleRepo{s} }

// Rights returns the matrix repository view.
func (s *Store) Rights() rights.RepositoryPort { return rightRepo{s} }

// Users returns the user repository view.
func (s *Store) Users() *UserRepo { return &UserRepo{s} }

// Bootstrap returns the seeder's store view.
func (s *Store) Bootstrap() bootstrap.Store { return seedRepo{s} }

// menus

type menuRepo struct{ s *Store }

func (r menuRepo) List(context.Context) ([]menus.Menu, error) {
	var out []menus.Menu
	err := r.s.read(func(t *tables) error {
		out = make([]menus.Menu, 0, len(t.menus))
		for _, m := range t.menus {
			out = append(out, m)
		}
		sort.Slice(out, func(i, j int) bool {
			if out[i].OrderIndex != out[j].OrderIndex {
				return out[i].OrderIndex < out[j].OrderIndex
			}
			return out[i].ID < out[j].ID
		})
		return nil
	})
	return out, err
}

func (r menuRepo) Get(_ context.Context, id int64) (menus.Menu, error) {
	var out menus.Menu
	err := r.s.read(func(t *tables) error {
		m, ok := t.menus[id]
		if !ok {
			return shared.NotFound("menu", id)
		}
		out = m
		return nil
	})
	return out, err
}

func (r menuRepo) WithTx(ctx context.Context, fn func(context.Context, menus.TxRepository) error) error {
	return r.s.tx(func(t *tables) error { return fn(ctx, menuTx{t}) })
}

type menuTx struct{ t *tables }

func (x menuTx) Get(_ context.Context, id int64) (menus.Menu, error) {
	m, ok := x.t.menus[id]
	if !ok {
		return menus.Menu{}, shared.NotFound("menu", id)
	}
	return m, nil
}

func (x menuTx) ParentOf(_ context.Context, id int64) (*int64, error) {
	m, ok := x.t.menus[id]
	if !ok {
		return nil, shared.NotFound("menu", id)
	}
	return m.ParentID, nil
}

func (x menuTx) checkParent(m menus.Menu) error {
	if m.ParentID == nil {
		return nil
	}
	if _, ok := x.t.menus[*m.ParentID]; !ok {
		return shared.Validation("parent_id", shared.CodeUnknownParent, "parent menu does not exist")
	}
	return nil
}

func (x menuTx) Insert(_ context.Context, m menus.Menu) (menus.Menu, error) {
	if err := x.checkParent(m); err != nil {
		return menus.Menu{}, err
	}
	for id := range x.t.menus {
		if id > x.t.nextMenu {
			x.t.nextMenu = id
		}
	}
	x.t.nextMenu++
	m.ID = x.t.nextMenu
	x.t.menus[m.ID] = m
	return m, nil
}

func (x menuTx) Update(_ context.Context, m menus.Menu) (menus.Menu, error) {
	cur, ok := x.t.menus[m.ID]
	if !ok {
		return menus.Menu{}, shared.NotFound("menu", m.ID)
	}
	if err := x.checkParent(m); err != nil {
		return menus.Menu{}, err
	}
	m.CreatedAt, m.CreatedBy = cur.CreatedAt, cur.CreatedBy
	x.t.menus[m.ID] = m
	return m, nil
}

func (x menuTx) CountChildren(_ context.Context, id int64) (int, error) {
	n := 0
	for _, m := range x.t.menus {
		if m.ParentID != nil && *m.ParentID == id {
			n++
		}
	}
	return n, nil
}

func (x menuTx) DeleteRights(_ context.Context, menuID int64) (int64, error) {
	return deleteRightsWhere(x.t, func(rr rights.RoleRight) bool { return rr.MenuID == menuID }), nil
}

func (x menuTx) Delete(_ context.Context, id int64) error {
	if _, ok := x.t.menus[id]; !ok {
		return shared.NotFound("menu", id)
	}
	for _, rr := range x.t.rights {
		if rr.MenuID == id {
			return shared.Conflict("id", shared.CodeMenuHasChildren, "menu is still referenced")
		}
	}
	delete(x.t.menus, id)
	return nil
}

func deleteRightsWhere(t *tables, match func(rights.RoleRight) bool) int64 {
	var n int64
	for id, rr := range t.rights {
		if match(rr) {
			delete(t.rights, id)
			n++
		}
	}
	return n
}

// roles

type roleRepo struct{ s *Store }

func classified(r roles.Role) roles.Role {
	r.Kind = shared.RoleKindOf(r.Name)
	r.Reserved = r.Kind.Reserved()
	return r
}

func (r roleRepo) List(context.Context) ([]roles.Role, error) {
	var out []roles.Role
	err := r.s.read(func(t *tables) error {
		out = make([]roles.Role, 0, len(t.roles))
		for _, role := range t.roles {
			out = append(out, role)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
		return nil
	})
	return out, err
}

func (r roleRepo) Get(_ context.Context, id int64) (roles.Role, error) {
	var out roles.Role
	err := r.s.read(func(t *tables) error {
		role, ok := t.roles[id]
		if !ok {
			return shared.NotFound("role", id)
		}
		out = role
		return nil
	})
	return out, err
}

func (r roleRepo) WithTx(ctx context.Context, fn func(context.Context, roles.TxRepository) error) error {
	return r.s.tx(func(t *tables) error { return fn(ctx, roleTx{t}) })
}

type roleTx struct{ t *tables }

func (x roleTx) Get(_ context.Context, id int64) (roles.Role, error) {
	role, ok := x.t.roles[id]
	if !ok {
		return roles.Role{}, shared.NotFound("role", id)
	}
	return role, nil
}

func (x roleTx) FindByName(_ context.Context, name string) (roles.Role, bool, error) {
	for _, role := range x.t.roles {
		if shared.FoldName(role.Name) == shared.FoldName(name) {
			return role, true, nil
		}
	}
	return roles.Role{}, false, nil
}

func (x roleTx) unique(r roles.Role) error {
	for _, other := range x.t.roles {
		if other.ID != r.ID && shared.FoldName(other.Name) == shared.FoldName(r.Name) {
			return shared.Conflict("name", shared.CodeDuplicateRole, "a role with this name already exists")
		}
	}
	return nil
}

func (x roleTx) Insert(_ context.Context, r roles.Role) (roles.Role, error) {
	if err := x.unique(r); err != nil {
		return roles.Role{}, err
	}
	x.t.nextRole++
	r.ID = x.t.nextRole
	r = classified(r)
	x.t.roles[r.ID] = r
	return r, nil
}

func (x roleTx) Update(_ context.Context, r roles.Role) (roles.Role, error) {
	if _, ok := x.t.roles[r.ID]; !ok {
		return roles.Role{}, shared.NotFound("role", r.ID)
	}
	if err := x.unique(r); err != nil {
		return roles.Role{}, err
	}
	r = classified(r)
	x.t.roles[r.ID] = r
	return r, nil
}

func (x roleTx) CountUsers(_ context.Context, id int64) (int, error) {
	n := 0
	for _, u := range x.t.users {
		if u.RoleID != nil && *u.RoleID == id {
			n++
		}
	}
	return n, nil
}

func (x roleTx) DeleteRights(_ context.Context, id int64) (int64, error) {
	return deleteRightsWhere(x.t, func(rr rights.RoleRight) bool { return rr.RoleID == id }), nil
}

func (x roleTx) Delete(_ context.Context, id int64) error {
	if _, ok := x.t.roles[id]; !ok {
		return shared.NotFound("role", id)
	}
	delete(x.t.roles, id)
	return nil
}

// rights

type rightRepo struct{ s *Store }

func (r rightRepo) Get(_ context.Context, id int64) (rights.RoleRight, error) {
	var out rights.RoleRight
	err := r.s.read(func(t *tables) error {
		rr, ok := t.rights[id]
		if !ok {
			return shared.NotFound("role_right", id)
		}
		out = rr
		return nil
	})
	return out, err
}

func (r rightRepo) ListByRole(_ context.Context, roleID int64) ([]rights.RoleRightWithMenu, error) {
	out := []rights.RoleRightWithMenu{}
	err := r.s.read(func(t *tables) error {
		for _, rr := range t.rights {
			if rr.RoleID != roleID {
				continue
			}
			m := t.menus[rr.MenuID]
			out = append(out, rights.RoleRightWithMenu{
				RoleRight:       rr,
				MenuName:        m.Name,
				MenuDisplayName: m.DisplayName,
				MenuRoute:       m.Route,
				MenuIcon:        m.Icon,
				MenuParentID:    m.ParentID,
				MenuOrderIndex:  m.OrderIndex,
			})
		}
		sort.Slice(out, func(i, j int) bool {
			if out[i].MenuOrderIndex != out[j].MenuOrderIndex {
				return out[i].MenuOrderIndex < out[j].MenuOrderIndex
			}
			return out[i].MenuID < out[j].MenuID
		})
		return nil
	})
	return out, err
}

func (r rightRepo) MasksForRole(_ context.Context, roleID int64) (map[int64]shared.Mask, error) {
	out := map[int64]shared.Mask{}
	err := r.s.read(func(t *tables) error {
		r.s.maskLoads++
		for _, rr := range t.rights {
			if rr.RoleID == roleID {
				out[rr.MenuID] = rr.Mask()
			}
		}
		return nil
	})
	return out, err
}

func (r rightRepo) WithTx(ctx context.Context, fn func(context.Context, rights.TxRepository) error) error {
	return r.s.tx(func(t *tables) error { return fn(ctx, rightTx{t}) })
}

type rightTx struct{ t *tables }

func (x rightTx) RoleExists(_ context.Context, roleID int64) (bool, error) {
	_, ok := x.t.roles[roleID]
	return ok, nil
}

func (x rightTx) MissingMenus(_ context.Context, menuIDs []int64) ([]int64, error) {
	var missing []int64
	for _, id := range menuIDs {
		if _, ok := x.t.menus[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func (x rightTx) Find(_ context.Context, roleID, menuID int64) (rights.RoleRight, bool, error) {
	for _, rr := range x.t.rights {
		if rr.RoleID == roleID && rr.MenuID == menuID {
			return rr, true, nil
		}
	}
	return rights.RoleRight{}, false, nil
}

func (x rightTx) GetByID(_ context.Context, id int64) (rights.RoleRight, error) {
	rr, ok := x.t.rights[id]
	if !ok {
		return rights.RoleRight{}, shared.NotFound("role_right", id)
	}
	return rr, nil
}

func (x rightTx) Insert(ctx context.Context, rr rights.RoleRight) (rights.RoleRight, error) {
	if _, found, _ := x.Find(ctx, rr.RoleID, rr.MenuID); found {
		return rights.RoleRight{}, shared.Conflict("menu_id", shared.CodeDuplicateRight, "role already has a right on this menu")
	}
	x.t.nextRight++
	rr.ID = x.t.nextRight
	x.t.rights[rr.ID] = rr
	return rr, nil
}

func (x rightTx) Upsert(ctx context.Context, rr rights.RoleRight) (rights.RoleRight, bool, error) {
	cur, found, _ := x.Find(ctx, rr.RoleID, rr.MenuID)
	if !found {
		out, err := x.Insert(ctx, rr)
		return out, err == nil, err
	}
	if cur.Mask() != rr.Mask() {
		cur.SetMask(rr.Mask())
		cur.UpdatedAt, cur.ModifiedBy = rr.UpdatedAt, rr.ModifiedBy
		x.t.rights[cur.ID] = cur
	}
	return cur, false, nil
}

func (x rightTx) Update(_ context.Context, rr rights.RoleRight) (rights.RoleRight, error) {
	if _, ok := x.t.rights[rr.ID]; !ok {
		return rights.RoleRight{}, shared.NotFound("role_right", rr.ID)
	}
	x.t.rights[rr.ID] = rr
	return rr, nil
}

func (x rightTx) Delete(_ context.Context, id int64) error {
	if _, ok := x.t.rights[id]; !ok {
		return shared.NotFound("role_right", id)
	}
	delete(x.t.rights, id)
	return nil
}

func (x rightTx) DeleteByRole(_ context.Context, roleID int64) (int64, error) {
	return deleteRightsWhere(x.t, func(rr rights.RoleRight) bool { return rr.RoleID == roleID }), nil
}

func (x rightTx) DeleteByMenu(_ context.Context, menuID int64) (int64, error) {
	return deleteRightsWhere(x.t, func(rr rights.RoleRight) bool { return rr.MenuID == menuID }), nil
}

// users

// UserRepo serves users.RepositoryPort and the principal resolver.
type UserRepo struct{ s *Store }

func (r *UserRepo) withRoleName(t *tables, u users.User) users.User {
	u.RoleName = nil
	if u.RoleID != nil {
		if role, ok := t.roles[*u.RoleID]; ok {
			name := role.Name
			u.RoleName = &name
		}
	}
	return u
}

// ListUsers returns live users ordered by id.
func (r *UserRepo) ListUsers(context.Context) ([]users.User, error) {
	out := []users.User{}
	err := r.s.read(func(t *tables) error {
		for id, u := range t.users {
			if _, gone := t.deleted[id]; gone {
				continue
			}
			out = append(out, r.withRoleName(t, u))
		}
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
		return nil
	})
	return out, err
}

// SetRole assigns or clears a user's role.
func (r *UserRepo) SetRole(_ context.Context, userID int64, roleID *int64, guard users.RoleGuard) (users.User, error) {
	var out users.User
	err := r.s.tx(func(t *tables) error {
		u, ok := t.users[userID]
		if _, gone := t.deleted[userID]; !ok || gone {
			return shared.NotFound("user", userID)
		}
		var next *string
		if roleID != nil {
			role, ok := t.roles[*roleID]
			if !ok {
				return shared.NotFound("role", *roleID)
			}
			next = &role.Name
		}
		if guard != nil {
			if err := guard(r.withRoleName(t, u).RoleName, next); err != nil {
				return err
			}
		}
		u.RoleID = roleID
		u.UpdatedAt = time.Now().UTC()
		t.users[userID] = u
		out = r.withRoleName(t, u)
		return nil
	})
	return out, err
}

// Account loads the resolver's view of a user.
func (r *UserRepo) Account(_ context.Context, userID int64) (users.Account, error) {
	var out users.Account
	err := r.s.read(func(t *tables) error {
		r.s.accounts++
		u, ok := t.users[userID]
		if !ok {
			return shared.NotFound("user", userID)
		}
		u = r.withRoleName(t, u)
		out = users.Account{
			ID:            u.ID,
			RoleID:        u.RoleID,
			RoleName:      u.RoleName,
			TenantID:      u.TenantID,
			IsTenantAdmin: u.IsTenantAdmin,
			IsActive:      u.IsActive,
		}
		if at, gone := t.deleted[userID]; gone {
			out.DeletedAt = &at
		}
		return nil
	})
	return out, err
}

// bootstrap

type seedRepo struct{ s *Store }

func (r seedRepo) StoredHash(context.Context) (string, bool, error) {
	var hash string
	var ok bool
	err := r.s.read(func(t *tables) error {
		hash, ok = t.hash, t.hasHash
		return nil
	})
	return hash, ok, err
}

func (r seedRepo) MissingMenus(_ context.Context, ids []int64) ([]int64, error) {
	var missing []int64
	err := r.s.read(func(t *tables) error {
		for _, id := range ids {
			if _, ok := t.menus[id]; !ok {
				missing = append(missing, id)
			}
		}
		return nil
	})
	return missing, err
}

func (r seedRepo) WithTx(ctx context.Context, fn func(context.Context, bootstrap.Tx) error) error {
	return r.s.tx(func(t *tables) error { return fn(ctx, seedTx{t}) })
}

type seedTx struct{ t *tables }

func (x seedTx) EnsureRole(ctx context.Context, name string) (int64, bool, error) {
	if role, found, _ := (roleTx{x.t}).FindByName(ctx, name); found {
		return role.ID, false, nil
	}
	now := time.Now().UTC()
	role, err := roleTx{x.t}.Insert(ctx, roles.Role{Name: name, Audit: shared.NewAudit(nil, now)})
	if err != nil {
		return 0, false, err
	}
	return role.ID, true, nil
}

func (x seedTx) EnsureMenu(_ context.Context, spec bootstrap.MenuSpec) (bool, error) {
	if _, ok := x.t.menus[spec.ID]; ok {
		return false, nil
	}
	m := menus.Menu{
		ID:          spec.ID,
		Name:        spec.Name,
		DisplayName: spec.DisplayName,
		OrderIndex:  spec.OrderIndex,
		Active:      true,
		Audit:       shared.NewAudit(nil, time.Now().UTC()),
	}
	if spec.Route != "" {
		route := spec.Route
		m.Route = &route
	}
	if spec.Icon != "" {
		icon := spec.Icon
		m.Icon = &icon
	}
	if spec.ParentID != 0 {
		parent := spec.ParentID
		if _, ok := x.t.menus[parent]; !ok {
			return false, fmt.Errorf("authztest: menu %d parent %d missing", spec.ID, parent)
		}
		m.ParentID = &parent
	}
	x.t.menus[m.ID] = m
	return true, nil
}

func (x seedTx) MenuIDs(context.Context) ([]int64, error) {
	ids := make([]int64, 0, len(x.t.menus))
	for id := range x.t.menus {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (x seedTx) AdvanceMenuSequence(context.Context) error {
	for id := range x.t.menus {
		if id > x.t.nextMenu {
			x.t.nextMenu = id
		}
	}
	return nil
}

func (x seedTx) GrantRight(ctx context.Context, roleID, menuID int64, mask shared.Mask) (bool, error) {
	cur, found, _ := (rightTx{x.t}).Find(ctx, roleID, menuID)
	if !found {
		rr := rights.RoleRight{RoleID: roleID, MenuID: menuID, Audit: shared.NewAudit(nil, time.Now().UTC())}
		rr.SetMask(mask)
		_, err := rightTx{x.t}.Insert(ctx, rr)
		return err == nil, err
	}
	next := cur.Mask().Union(mask)
	if next == cur.Mask() {
		return false, nil
	}
	cur.SetMask(next)
	cur.Touch(nil, time.Now().UTC())
	x.t.rights[cur.ID] = cur
	return true, nil
}

func (x seedTx) SaveHash(_ context.Context, hash string) (bool, error) {
	if x.t.hasHash && x.t.hash == hash {
		return false, nil
	}
	x.t.hash, x.t.hasHash = hash, true
	return true, nil
}
