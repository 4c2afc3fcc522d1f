package roleshttp

import (
	"github.com/go-chi/chi/v5"

	"github.com/ChandrashakerVarma/LMS-sub000/internal/authz"
	"github.com/ChandrashakerVarma/LMS-sub000/internal/shared"
)

// MountRoutes registers the role registry endpoints.
func (h *Handler) MountRoutes(reg *authz.Registry, r chi.Router) {
	if h == nil {
		return
	}
	reg.Mount(r, "/roles", func(m *authz.Mount) {
		m.Post("/", authz.Need(shared.MenuRoles, shared.VerbCreate), h.handleCreate)
		m.Get("/", authz.Need(shared.MenuRoles, shared.VerbView), h.handleList)
		m.Get("/{id}", authz.Need(shared.MenuRoles, shared.VerbView), h.handleGet)
		m.Put("/{id}", authz.Need(shared.MenuRoles, shared.VerbEdit), h.handleRename)
		m.Delete("/{id}", authz.Need(shared.MenuRoles, shared.VerbDelete), h.handleDelete)
	})
}
