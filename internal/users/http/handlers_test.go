package usershttp

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChandrashakerVarma/LMS-sub000/internal/auth"
	"github.com/ChandrashakerVarma/LMS-sub000/internal/authz/authztest"
	"github.com/ChandrashakerVarma/LMS-sub000/internal/shared"
	"github.com/ChandrashakerVarma/LMS-sub000/internal/users"
)

func newServer(t *testing.T) (*authztest.Harness, http.Handler) {
	t.Helper()
	h := authztest.NewSeededHarness(t)
	h.AddUser(t, 1, shared.RoleNameAdmin)
	h.AddUser(t, 2, shared.RoleNameUser)

	r := chi.NewRouter()
	r.Use(auth.Middleware(h.Resolver, nil))
	NewHandler(nil, h.Users).MountRoutes(h.Routes, r)
	return h, r
}

func do(t *testing.T, h *authztest.Harness, srv http.Handler, userID int64, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Authorization", h.Token(t, userID))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestListUsers(t *testing.T) {
	h, srv := newServer(t)
	rec := do(t, h, srv, 1, http.MethodGet, "/users", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []users.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 2)
	require.NotNil(t, list[1].RoleName)
	assert.Equal(t, shared.RoleNameUser, *list[1].RoleName)

	rec = do(t, h, srv, 2, http.MethodGet, "/users", "")
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAssignRoleTakesEffectImmediately(t *testing.T) {
	h, srv := newServer(t)
	managerRole := h.Store.RoleID(shared.RoleNameManager)

	before := h.Principal(t, 2)
	assert.Equal(t, shared.RoleUser, before.Kind())

	rec := do(t, h, srv, 1, http.MethodPut, "/users/2/role", fmt.Sprintf(`{"role_id":%d}`, managerRole))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"role_name":"manager"`)

	after := h.Principal(t, 2)
	assert.Equal(t, shared.RoleManager, after.Kind())

	rec = do(t, h, srv, 1, http.MethodPut, "/users/2/role", `{"role_id":null}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, h.Principal(t, 2).Role)
}

func TestAssignRoleErrors(t *testing.T) {
	h, srv := newServer(t)

	rec := do(t, h, srv, 1, http.MethodPut, "/users/2/role", `{"role_id":999}`)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, srv, 1, http.MethodPut, "/users/77/role", `{"role_id":null}`)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, srv, 1, http.MethodPut, "/users/2/role", `{"role_id":-1}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, srv, 2, http.MethodPut, "/users/2/role", `{"role_id":1}`)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAssignReservedRoleRefusedForAdmin(t *testing.T) {
	h, srv := newServer(t)
	superRole := h.Store.RoleID(shared.RoleNameSuperAdmin)

	rec := do(t, h, srv, 1, http.MethodPut, "/users/1/role", fmt.Sprintf(`{"role_id":%d}`, superRole))
	require.Equal(t, http.StatusForbidden, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "forbidden", body["kind"])
	assert.Equal(t, shared.CodeReservedRole, body["code"])
	assert.Equal(t, shared.RoleAdmin, h.Principal(t, 1).Kind())

	rec = do(t, h, srv, 1, http.MethodPut, "/users/1/role", `{"role_id":null}`)
	require.Equal(t, http.StatusForbidden, rec.Code)
}
