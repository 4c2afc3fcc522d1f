// Package authzhttp exposes the static route table to operators.
package authzhttp

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ChandrashakerVarma/LMS-sub000/internal/authz"
	"github.com/ChandrashakerVarma/LMS-sub000/internal/platform/httpx"
	"github.com/ChandrashakerVarma/LMS-sub000/internal/shared"
)

// Handler serves /authz.
type Handler struct {
	registry *authz.Registry
}

// NewHandler builds a handler reading registry.
func NewHandler(registry *authz.Registry) *Handler {
	return &Handler{registry: registry}
}

// MountRoutes registers GET /authz/routes.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	h.registry.Mount(r, "/authz", func(m *authz.Mount) {
		m.Get("/routes", authz.Need(shared.MenuMenuManagement, shared.VerbView), h.handleRoutes)
	})
}

func (h *Handler) handleRoutes(w http.ResponseWriter, _ *http.Request) {
	httpx.JSON(w, http.StatusOK, h.registry.Routes())
}
