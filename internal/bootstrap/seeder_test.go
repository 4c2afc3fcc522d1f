package bootstrap

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChandrashakerVarma/LMS-sub000/internal/shared"
)

type rightKey struct{ role, menu int64 }

type memStore struct {
	roles   map[string]int64
	nextID  int64
	menus   map[int64]MenuSpec
	rights  map[rightKey]shared.Mask
	hash    string
	hasHash bool
	writes  int
	seqBump int
	failOn  string
}

func newMemStore() *memStore {
	return &memStore{roles: map[string]int64{}, menus: map[int64]MenuSpec{}, rights: map[rightKey]shared.Mask{}}
}

func (m *memStore) StoredHash(context.Context) (string, bool, error) {
	return m.hash, m.hasHash, nil
}

func (m *memStore) MissingMenus(_ context.Context, ids []int64) ([]int64, error) {
	var out []int64
	for _, id := range ids {
		if _, ok := m.menus[id]; !ok {
			out = append(out, id)
		}
	}
	return out, nil
}

func (m *memStore) WithTx(ctx context.Context, fn func(context.Context, Tx) error) error {
	snap := m.clone()
	if err := fn(ctx, m); err != nil {
		*m = *snap
		return err
	}
	return nil
}

func (m *memStore) clone() *memStore {
	c := *m
	c.roles = map[string]int64{}
	for k, v := range m.roles {
		c.roles[k] = v
	}
	c.menus = map[int64]MenuSpec{}
	for k, v := range m.menus {
		c.menus[k] = v
	}
	c.rights = map[rightKey]shared.Mask{}
	for k, v := range m.rights {
		c.rights[k] = v
	}
	return &c
}

func (m *memStore) EnsureRole(_ context.Context, name string) (int64, bool, error) {
	if id, ok := m.roles[shared.FoldName(name)]; ok {
		return id, false, nil
	}
	m.nextID++
	m.roles[shared.FoldName(name)] = m.nextID
	m.writes++
	return m.nextID, true, nil
}

func (m *memStore) EnsureMenu(_ context.Context, spec MenuSpec) (bool, error) {
	if m.failOn == "menu" {
		return false, errors.New("boom")
	}
	if _, ok := m.menus[spec.ID]; ok {
		return false, nil
	}
	m.menus[spec.ID] = spec
	m.writes++
	return true, nil
}

func (m *memStore) AdvanceMenuSequence(context.Context) error {
	m.seqBump++
	return nil
}

func (m *memStore) MenuIDs(context.Context) ([]int64, error) {
	ids := make([]int64, 0, len(m.menus))
	for id := range m.menus {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *memStore) GrantRight(_ context.Context, roleID, menuID int64, mask shared.Mask) (bool, error) {
	key := rightKey{roleID, menuID}
	cur := m.rights[key]
	next := cur.Union(mask)
	if next == cur {
		if _, ok := m.rights[key]; ok {
			return false, nil
		}
	}
	m.rights[key] = next
	m.writes++
	return true, nil
}

func (m *memStore) SaveHash(_ context.Context, hash string) (bool, error) {
	if m.hasHash && m.hash == hash {
		return false, nil
	}
	m.hash, m.hasHash = hash, true
	m.writes++
	return true, nil
}

type countingInvalidator struct{ n int }

func (c *countingInvalidator) InvalidateAll(context.Context) { c.n++ }

func TestRunSeedsFreshStore(t *testing.T) {
	store := newMemStore()
	inv := &countingInvalidator{}
	report, err := NewSeeder(store, inv, ModeIdempotent, nil).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, len(CanonicalRoles()), report.RolesCreated)
	assert.Equal(t, len(CanonicalMenus()), report.MenusCreated)
	assert.True(t, report.HashChanged)
	assert.False(t, report.Drift)
	assert.Equal(t, 1, store.seqBump)
	assert.Equal(t, 1, inv.n)

	admin := store.roles[shared.RoleNameAdmin]
	for _, m := range CanonicalMenus() {
		assert.Equal(t, shared.FullMask(), store.rights[rightKey{admin, m.ID}], "menu %d", m.ID)
	}
	user := store.roles[shared.RoleNameUser]
	assert.Equal(t, shared.ViewOnly(), store.rights[rightKey{user, shared.MenuDashboard}])
	_, ok := store.rights[rightKey{user, shared.MenuReports}]
	assert.False(t, ok)

	orgAdmin := store.roles[shared.RoleNameOrgAdmin]
	assert.Equal(t, shared.Mask{View: true, Create: true, Edit: true}, store.rights[rightKey{orgAdmin, shared.MenuPayroll}])
	assert.Equal(t, shared.ViewOnly(), store.rights[rightKey{orgAdmin, shared.MenuReports}])
	_, ok = store.rights[rightKey{orgAdmin, shared.MenuRoles}]
	assert.False(t, ok)
}

func TestRunIsIdempotent(t *testing.T) {
	store := newMemStore()
	inv := &countingInvalidator{}
	seeder := NewSeeder(store, inv, ModeIdempotent, nil)
	_, err := seeder.Run(context.Background())
	require.NoError(t, err)
	writes := store.writes

	report, err := seeder.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, report.Changed())
	assert.Equal(t, writes, store.writes)
	assert.Equal(t, 1, inv.n)
	assert.Equal(t, 1, store.seqBump)
}

func TestRunNeverDowngrades(t *testing.T) {
	store := newMemStore()
	seeder := NewSeeder(store, nil, ModeIdempotent, nil)
	_, err := seeder.Run(context.Background())
	require.NoError(t, err)

	user := store.roles[shared.RoleNameUser]
	store.rights[rightKey{user, shared.MenuDashboard}] = shared.Mask{View: true, Edit: true}

	report, err := seeder.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.RightsChanged)
	assert.Equal(t, shared.Mask{View: true, Edit: true}, store.rights[rightKey{user, shared.MenuDashboard}])
}

func TestRunRestoresMissingBaseline(t *testing.T) {
	store := newMemStore()
	seeder := NewSeeder(store, nil, ModeIdempotent, nil)
	_, err := seeder.Run(context.Background())
	require.NoError(t, err)

	manager := store.roles[shared.RoleNameManager]
	delete(store.rights, rightKey{manager, shared.MenuReports})

	report, err := seeder.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.RightsChanged)
}

func TestRunGrantsAdminOnOperatorMenus(t *testing.T) {
	store := newMemStore()
	seeder := NewSeeder(store, nil, ModeIdempotent, nil)
	_, err := seeder.Run(context.Background())
	require.NoError(t, err)

	store.menus[41] = MenuSpec{ID: 41, Name: "certificates", ParentID: shared.MenuLMS}

	report, err := seeder.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.RightsChanged)
	assert.Zero(t, report.MenusCreated)
	admin := store.roles[shared.RoleNameAdmin]
	assert.Equal(t, shared.FullMask(), store.rights[rightKey{admin, 41}])
	_, ok := store.rights[rightKey{store.roles[shared.RoleNameUser], 41}]
	assert.False(t, ok)

	report, err = seeder.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, report.Changed())
}

func TestRunStrictDrift(t *testing.T) {
	store := newMemStore()
	store.hash, store.hasHash = "stale", true

	_, err := NewSeeder(store, nil, ModeStrictDrift, nil).Run(context.Background())
	require.ErrorIs(t, err, ErrDrift)
	assert.Zero(t, store.writes)

	report, err := NewSeeder(store, nil, ModeIdempotent, nil).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Drift)
	assert.True(t, report.HashChanged)
	assert.Equal(t, CatalogHash(), store.hash)
}

func TestRunRollsBackOnFailure(t *testing.T) {
	store := newMemStore()
	store.failOn = "menu"
	_, err := NewSeeder(store, nil, ModeIdempotent, nil).Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, shared.KindUpstream, shared.KindOf(err))
	assert.Empty(t, store.roles)
	assert.False(t, store.hasHash)
}

func TestVerify(t *testing.T) {
	store := newMemStore()
	seeder := NewSeeder(store, nil, ModeIdempotent, nil)

	report, err := seeder.Verify(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Drift)
	assert.Len(t, report.MissingMenus, len(CanonicalMenus()))
	assert.False(t, report.Healthy())

	_, err = seeder.Run(context.Background())
	require.NoError(t, err)
	report, err = seeder.Verify(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Healthy())

	delete(store.menus, shared.MenuReports)
	report, err = seeder.Verify(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{shared.MenuReports}, report.MissingMenus)
	assert.True(t, report.Healthy())

	delete(store.menus, shared.MenuRoles)
	report, err = seeder.Verify(context.Background())
	require.NoError(t, err)
	assert.False(t, report.Healthy())
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeIdempotent, m)
	m, err = ParseMode("Strict-Drift")
	require.NoError(t, err)
	assert.Equal(t, ModeStrictDrift, m)
	_, err = ParseMode("yolo")
	require.Error(t, err)
}

func TestCatalogIsWellFormed(t *testing.T) {
	seen := map[int64]bool{}
	for _, m := range CanonicalMenus() {
		require.False(t, seen[m.ID], "duplicate id %d", m.ID)
		if m.ParentID != 0 {
			require.True(t, seen[m.ParentID], "menu %d listed before parent %d", m.ID, m.ParentID)
		}
		seen[m.ID] = true
	}
	assert.Len(t, CatalogHash(), 64)
	assert.Equal(t, CatalogHash(), CatalogHash())
}
