package authztest

import (
	"context"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/ChandrashakerVarma/LMS-sub000/internal/auth"
	"github.com/ChandrashakerVarma/LMS-sub000/internal/authz"
	"github.com/ChandrashakerVarma/LMS-sub000/internal/bootstrap"
	"github.com/ChandrashakerVarma/LMS-sub000/internal/menus"
	"github.com/ChandrashakerVarma/LMS-sub000/internal/rights"
	"github.com/ChandrashakerVarma/LMS-sub000/internal/roles"
	"github.com/ChandrashakerVarma/LMS-sub000/internal/shared"
	"github.com/ChandrashakerVarma/LMS-sub000/internal/users"
)

// TokenSecret signs every token a Harness issues.
const TokenSecret = "authztest-secret-authztest-secret"

// Harness wires the authorization services over an in-memory Store.
type Harness struct {
	Store     *Store
	Cache     *authz.AuthzCache
	Metrics   *authz.Metrics
	Registry  *prometheus.Registry
	Gate      *authz.Gate
	Routes    *authz.Registry
	Projector *authz.Projector
	Menus     *menus.Service
	Roles     *roles.Service
	Rights    *rights.Service
	Users     *users.Service
	Tokens    *auth.TokenManager
	Resolver  *auth.Resolver
	Seeder    *bootstrap.Seeder
}

// NewHarness builds an unseeded harness.
func NewHarness(t testing.TB) *Harness {
	t.Helper()
	store := NewStore()
	reg := prometheus.NewRegistry()
	metrics := authz.NewMetrics(reg)
	cache := authz.NewAuthzCache(authz.DefaultCacheConfig(), nil)
	cache.SetMetrics(metrics)

	rightsSvc := rights.NewService(store.Rights(), cache, nil, nil)
	gate := authz.NewGate(cache, rightsSvc, metrics, nil)
	menusSvc := menus.NewService(store.Menus(), cache, nil)
	tokens, err := auth.NewTokenManager(TokenSecret, "HS256", time.Hour)
	require.NoError(t, err)

	return &Harness{
		Store:     store,
		Cache:     cache,
		Metrics:   metrics,
		Registry:  reg,
		Gate:      gate,
		Routes:    authz.NewRegistry(gate),
		Projector: authz.NewProjector(cache, menusSvc, gate),
		Menus:     menusSvc,
		Roles:     roles.NewService(store.Roles(), cache, nil, nil),
		Rights:    rightsSvc,
		Users:     users.NewService(store.Users(), cache, nil, nil),
		Tokens:    tokens,
		Resolver:  auth.NewResolver(tokens, store.Users(), cache),
		Seeder:    bootstrap.NewSeeder(store.Bootstrap(), cache, bootstrap.ModeIdempotent, nil),
	}
}

// NewSeededHarness builds a harness and runs the seeder once.
func NewSeededHarness(t testing.TB) *Harness {
	t.Helper()
	h := NewHarness(t)
	_, err := h.Seeder.Run(context.Background())
	require.NoError(t, err)
	return h
}

// AddUser creates an active user holding the named role ("" for none).
func (h *Harness) AddUser(t testing.TB, id int64, role string) users.User {
	t.Helper()
	u := users.User{ID: id, Email: "user" + strconv.FormatInt(id, 10) + "@example.test", Name: "User " + strconv.FormatInt(id, 10), IsActive: true}
	if role != "" {
		roleID := h.Store.RoleID(role)
		require.NotZero(t, roleID, "role %q not seeded", role)
		u.RoleID = &roleID
	}
	return h.Store.AddUser(u)
}

// Token returns an Authorization header value for userID.
func (h *Harness) Token(t testing.TB, userID int64) string {
	t.Helper()
	raw, _, err := h.Tokens.Issue(userID)
	require.NoError(t, err)
	return "Bearer " + raw
}

// Principal resolves userID as the auth middleware would.
func (h *Harness) Principal(t testing.TB, userID int64) shared.Principal {
	t.Helper()
	p, err := h.Resolver.PrincipalFor(context.Background(), userID)
	require.NoError(t, err)
	return p
}

// WithPrincipal returns r carrying p in its context.
func WithPrincipal(r *http.Request, p shared.Principal) *http.Request {
	return r.WithContext(shared.ContextWithPrincipal(r.Context(), p))
}

// Principal builds a principal holding a role.
func Principal(userID, roleID int64, roleName string) shared.Principal {
	return shared.Principal{
		UserID: userID,
		Role:   &shared.RoleRef{ID: roleID, Name: roleName, Kind: shared.RoleKindOf(roleName)},
	}
}
