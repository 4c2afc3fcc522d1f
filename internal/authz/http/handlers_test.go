package authzhttp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChandrashakerVarma/LMS-sub000/internal/auth"
	"github.com/ChandrashakerVarma/LMS-sub000/internal/authz"
	"github.com/ChandrashakerVarma/LMS-sub000/internal/authz/authztest"
	"github.com/ChandrashakerVarma/LMS-sub000/internal/shared"
)

func TestRoutesTable(t *testing.T) {
	h := authztest.NewSeededHarness(t)
	h.AddUser(t, 1, shared.RoleNameAdmin)
	h.AddUser(t, 2, shared.RoleNameUser)

	r := chi.NewRouter()
	r.Use(auth.Middleware(h.Resolver, nil))
	NewHandler(h.Routes).MountRoutes(r)

	req := httptest.NewRequest(http.MethodGet, "/authz/routes", nil)
	req.Header.Set("Authorization", h.Token(t, 1))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var routes []authz.Route
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &routes))
	require.Len(t, routes, 1)
	assert.Equal(t, authz.Route{Method: http.MethodGet, Pattern: "/authz/routes", MenuID: shared.MenuMenuManagement, Verb: shared.VerbView}, routes[0])

	req = httptest.NewRequest(http.MethodGet, "/authz/routes", nil)
	req.Header.Set("Authorization", h.Token(t, 2))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
}
