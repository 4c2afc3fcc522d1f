package usershttp

import (
	"github.com/go-chi/chi/v5"

	"github.com/ChandrashakerVarma/LMS-sub000/internal/authz"
	"github.com/ChandrashakerVarma/LMS-sub000/internal/shared"
)

// MountRoutes registers the user endpoints.
func (h *Handler) MountRoutes(reg *authz.Registry, r chi.Router) {
	if h == nil {
		return
	}
	reg.Mount(r, "/users", func(m *authz.Mount) {
		m.Get("/", authz.Need(shared.MenuUsers, shared.VerbView), h.handleList)
		m.Put("/{id}/role", authz.Need(shared.MenuUsers, shared.VerbEdit), h.handleAssignRole)
	})
}
