package menushttp

import (
	"github.com/go-chi/chi/v5"

	"github.com/ChandrashakerVarma/LMS-sub000/internal/authz"
	"github.com/ChandrashakerVarma/LMS-sub000/internal/shared"
)

// MountRoutes registers the catalog endpoints under /menus.
func (h *Handler) MountRoutes(reg *authz.Registry, r chi.Router) {
	if h == nil {
		return
	}
	reg.Mount(r, "/menus", func(m *authz.Mount) {
		m.Post("/", authz.Need(shared.MenuMenuManagement, shared.VerbCreate), h.handleCreate)
		m.Get("/", authz.Need(shared.MenuMenuManagement, shared.VerbView), h.handleList)
		m.Get("/tree", authz.Need(shared.MenuMenuManagement, shared.VerbView), h.handleTree)
		m.Get("/user-menus", authz.Authenticated, h.handleUserMenus)
		m.Get("/{id}", authz.Need(shared.MenuMenuManagement, shared.VerbView), h.handleGet)
		m.Put("/{id}", authz.Need(shared.MenuMenuManagement, shared.VerbEdit), h.handleUpdate)
		m.Delete("/{id}", authz.Need(shared.MenuMenuManagement, shared.VerbDelete), h.handleDelete)
	})
}
