package rightshttp

import (
	"github.com/go-chi/chi/v5"

	"github.com/ChandrashakerVarma/LMS-sub000/internal/authz"
	"github.com/ChandrashakerVarma/LMS-sub000/internal/shared"
)

// MountRoutes registers the matrix endpoints under /role-rights.
func (h *Handler) MountRoutes(reg *authz.Registry, r chi.Router) {
	if h == nil {
		return
	}
	reg.Mount(r, "/role-rights", func(m *authz.Mount) {
		m.Post("/", authz.Need(shared.MenuRoleRights, shared.VerbCreate), h.handleCreate)
		m.Post("/bulk", authz.Need(shared.MenuRoleRights, shared.VerbEdit), h.handleBulk)
		m.Get("/check-permission/{menu_id}", authz.Authenticated, h.handleCheckPermission)
		m.Get("/role/{role_id}", authz.Need(shared.MenuRoleRights, shared.VerbView), h.handleListByRole)
		m.Delete("/role/{role_id}/menu/{menu_id}", authz.Need(shared.MenuRoleRights, shared.VerbDelete), h.handleDeletePair)
		m.Get("/{id}", authz.Need(shared.MenuRoleRights, shared.VerbView), h.handleGet)
		m.Put("/{id}", authz.Need(shared.MenuRoleRights, shared.VerbEdit), h.handleUpdate)
		m.Delete("/{id}", authz.Need(shared.MenuRoleRights, shared.VerbDelete), h.handleDelete)
	})
}
