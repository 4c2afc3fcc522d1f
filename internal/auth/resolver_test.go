package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ChandrashakerVarma/LMS-sub000/internal/authz"
	"github.com/ChandrashakerVarma/LMS-sub000/internal/shared"
	"github.com/ChandrashakerVarma/LMS-sub000/internal/users"
)

type stubAccounts struct {
	accounts map[int64]users.Account
	err      error
	calls    int
}

func (s *stubAccounts) Account(_ context.Context, userID int64) (users.Account, error) {
	s.calls++
	if s.err != nil {
		return users.Account{}, s.err
	}
	a, ok := s.accounts[userID]
	if !ok {
		return users.Account{}, shared.NotFound("user", userID)
	}
	return a, nil
}

func ptr[T any](v T) *T { return &v }

func newTestResolver(t *testing.T) (*Resolver, *stubAccounts, *TokenManager) {
	t.Helper()
	now := time.Now()
	accounts := &stubAccounts{accounts: map[int64]users.Account{
		1: {ID: 1, RoleID: ptr(int64(1)), RoleName: ptr("Admin"), IsActive: true},
		2: {ID: 2, RoleID: ptr(int64(5)), RoleName: ptr("user"), TenantID: ptr(int64(9)), IsActive: true},
		3: {ID: 3, IsActive: true},
		4: {ID: 4, RoleID: ptr(int64(5)), RoleName: ptr("user"), IsActive: false},
		5: {ID: 5, RoleID: ptr(int64(5)), RoleName: ptr("user"), IsActive: true, DeletedAt: &now},
	}}
	tokens := newTestTokens(t)
	cache := authz.NewAuthzCache(authz.DefaultCacheConfig(), nil)
	return NewResolver(tokens, accounts, cache), accounts, tokens
}

func bearer(t *testing.T, tokens *TokenManager, userID int64) string {
	t.Helper()
	raw, _, err := tokens.Issue(userID)
	require.NoError(t, err)
	return "Bearer " + raw
}

func TestBearerToken(t *testing.T) {
	_, err := BearerToken("")
	require.ErrorIs(t, err, shared.Unauthenticated(shared.CodeTokenMissing))
	_, err = BearerToken("Basic abc")
	require.ErrorIs(t, err, shared.Unauthenticated(shared.CodeTokenMalformed))
	_, err = BearerToken("Bearer ")
	require.ErrorIs(t, err, shared.Unauthenticated(shared.CodeTokenMalformed))
	tok, err := BearerToken("bearer abc.def")
	require.NoError(t, err)
	require.Equal(t, "abc.def", tok)
}

func TestResolveBuildsPrincipal(t *testing.T) {
	r, _, tokens := newTestResolver(t)

	p, err := r.Resolve(context.Background(), bearer(t, tokens, 1))
	require.NoError(t, err)
	require.True(t, p.IsAdmin())
	require.Equal(t, shared.RoleAdmin, p.Kind())

	p, err = r.Resolve(context.Background(), bearer(t, tokens, 2))
	require.NoError(t, err)
	require.False(t, p.IsAdmin())
	require.EqualValues(t, 9, *p.TenantID)
	roleID, ok := p.RoleID()
	require.True(t, ok)
	require.EqualValues(t, 5, roleID)
}

func TestResolveNullRole(t *testing.T) {
	r, _, tokens := newTestResolver(t)
	p, err := r.Resolve(context.Background(), bearer(t, tokens, 3))
	require.NoError(t, err)
	require.Nil(t, p.Role)
	require.False(t, p.IsAdmin())
}

func TestResolveRejectsUnusableAccounts(t *testing.T) {
	r, _, tokens := newTestResolver(t)
	for _, id := range []int64{4, 5, 99} {
		_, err := r.Resolve(context.Background(), bearer(t, tokens, id))
		require.ErrorIs(t, err, shared.Unauthenticated(shared.CodePrincipalNotFound), "user %d", id)
	}
}

func TestResolveCachesPrincipal(t *testing.T) {
	r, accounts, tokens := newTestResolver(t)
	h := bearer(t, tokens, 2)
	_, err := r.Resolve(context.Background(), h)
	require.NoError(t, err)
	_, err = r.Resolve(context.Background(), h)
	require.NoError(t, err)
	require.Equal(t, 1, accounts.calls)

	r.cache.InvalidateUser(context.Background(), 2)
	_, err = r.Resolve(context.Background(), h)
	require.NoError(t, err)
	require.Equal(t, 2, accounts.calls)
}

func TestResolveStoreFailure(t *testing.T) {
	r, accounts, tokens := newTestResolver(t)
	accounts.err = errors.New("connection refused")
	_, err := r.Resolve(context.Background(), bearer(t, tokens, 2))
	require.Equal(t, shared.KindUpstream, shared.KindOf(err))
}

func TestMiddleware(t *testing.T) {
	r, _, tokens := newTestResolver(t)
	var seen *shared.Principal
	h := Middleware(r, nil)(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if p, ok := shared.PrincipalFromContext(req.Context()); ok {
			seen = &p
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("anonymous passes through", func(t *testing.T) {
		seen = nil
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusNoContent, rec.Code)
		require.Nil(t, seen)
	})

	t.Run("valid token attaches principal", func(t *testing.T) {
		seen = nil
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", bearer(t, tokens, 2))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusNoContent, rec.Code)
		require.NotNil(t, seen)
		require.EqualValues(t, 2, seen.UserID)
	})

	t.Run("garbage token rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer garbage")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Body.String(), `"unauthenticated"`)
	})
}
