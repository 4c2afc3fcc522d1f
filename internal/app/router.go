package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ChandrashakerVarma/LMS-sub000/internal/auth"
	"github.com/ChandrashakerVarma/LMS-sub000/internal/authz"
	authzhttp "github.com/ChandrashakerVarma/LMS-sub000/internal/authz/http"
	menushttp "github.com/ChandrashakerVarma/LMS-sub000/internal/menus/http"
	"github.com/ChandrashakerVarma/LMS-sub000/internal/observability"
	"github.com/ChandrashakerVarma/LMS-sub000/internal/platform/httpx"
	rightshttp "github.com/ChandrashakerVarma/LMS-sub000/internal/rights/http"
	roleshttp "github.com/ChandrashakerVarma/LMS-sub000/internal/roles/http"
	usershttp "github.com/ChandrashakerVarma/LMS-sub000/internal/users/http"
	"github.com/ChandrashakerVarma/LMS-sub000/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger   *slog.Logger
	Config   *Config
	Registry *authz.Registry
	Resolver *auth.Resolver
	Metrics  *observability.Metrics

	MenusHandler  *menushttp.Handler
	RolesHandler  *roleshttp.Handler
	RightsHandler *rightshttp.Handler
	UsersHandler  *usershttp.Handler
	AuthzHandler  *authzhttp.Handler
	JobHandler    *jobs.Handler
}

// NewRouter constructs the chi.Router with LMS defaults. Every guarded route
// is declared through params.Registry so the route table stays complete.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:   params.Logger,
		Config:   params.Config,
		Resolver: params.Resolver,
		Metrics:  params.Metrics,
	}) {
		r.Use(mw)
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusNotFound, map[string]string{"kind": "not_found", "code": "route_not_found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusMethodNotAllowed, map[string]string{"kind": "method_not_allowed"})
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	params.MenusHandler.MountRoutes(params.Registry, r)
	params.RolesHandler.MountRoutes(params.Registry, r)
	params.RightsHandler.MountRoutes(params.Registry, r)
	params.UsersHandler.MountRoutes(params.Registry, r)
	params.JobHandler.MountRoutes(params.Registry, r)
	params.AuthzHandler.MountRoutes(r)

	return r
}
