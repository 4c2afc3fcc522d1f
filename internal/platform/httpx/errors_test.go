package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChandrashakerVarma/LMS-sub000/internal/shared"
)

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRespondErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{shared.Unauthenticated(shared.CodeTokenExpired), http.StatusUnauthorized},
		{shared.Forbidden(1, shared.VerbCreate), http.StatusForbidden},
		{shared.NotFound("menu", 4), http.StatusNotFound},
		{shared.Validation("name", "required", "name is required"), http.StatusBadRequest},
		{shared.Conflict("id", shared.CodeMenuHasChildren, "has children"), http.StatusConflict},
		{shared.Upstream("menus: list", errors.New("dial tcp")), http.StatusBadGateway},
		{errors.New("unclassified"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		RespondError(rec, tc.err)
		assert.Equal(t, tc.status, rec.Code, tc.err.Error())
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	}
}

func TestForbiddenBodyShape(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, shared.Forbidden(shared.MenuDashboard, shared.VerbCreate))
	body := decodeBody(t, rec)
	assert.Equal(t, map[string]any{"kind": "forbidden", "menu_id": float64(1), "verb": "create"}, body)
}

func TestUnauthenticatedBodyCarriesOnlyCode(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, shared.Unauthenticated(shared.CodeTokenExpired))
	assert.Equal(t, map[string]any{"kind": "unauthenticated", "code": "token_expired"}, decodeBody(t, rec))
}

func TestUpstreamBodyHidesCause(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, shared.Upstream("roles: list", errors.New("password authentication failed")))
	body := decodeBody(t, rec)
	assert.Equal(t, "upstream", body["kind"])
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestValidationBodyNamesFieldAndInvariant(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, shared.CheckMonotonic("rights[2].mask", shared.Mask{Edit: true}))
	body := decodeBody(t, rec)
	assert.Equal(t, "validation", body["kind"])
	assert.Equal(t, "rights[2].mask", body["field"])
	assert.Equal(t, "verb_monotonicity", body["invariant"])
}
