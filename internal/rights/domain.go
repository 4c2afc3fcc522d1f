package rights

import "github.com/ChandrashakerVarma/LMS-sub000/internal/shared"

// RoleRight is one cell of the role × menu matrix.
type RoleRight struct {
	ID        int64 `json:"id"`
	RoleID    int64 `json:"role_id"`
	MenuID    int64 `json:"menu_id"`
	CanView   bool  `json:"can_view"`
	CanCreate bool  `json:"can_create"`
	CanEdit   bool  `json:"can_edit"`
	CanDelete bool  `json:"can_delete"`
	shared.Audit
}

// Mask returns the four verb bits.
func (r RoleRight) Mask() shared.Mask {
	return shared.Mask{View: r.CanView, Create: r.CanCreate, Edit: r.CanEdit, Delete: r.CanDelete}
}

// SetMask replaces the four verb bits.
func (r *RoleRight) SetMask(m shared.Mask) {
	r.CanView, r.CanCreate, r.CanEdit, r.CanDelete = m.View, m.Create, m.Edit, m.Delete
}

// RoleRightWithMenu is a matrix row joined with its menu for listing.
type RoleRightWithMenu struct {
	RoleRight
	MenuName        string  `json:"menu_name"`
	MenuDisplayName string  `json:"menu_display_name"`
	MenuRoute       *string `json:"menu_route"`
	MenuIcon        *string `json:"menu_icon"`
	MenuParentID    *int64  `json:"menu_parent_id"`
	MenuOrderIndex  int     `json:"menu_order_index"`
}

// CreateInput creates a single matrix row.
type CreateInput struct {
	RoleID int64       `json:"role_id" validate:"required,gt=0"`
	MenuID int64       `json:"menu_id" validate:"required,gt=0"`
	Mask   shared.Mask `json:"mask"`
}

// BulkItem is one row of a bulk upsert.
type BulkItem struct {
	MenuID int64       `json:"menu_id" validate:"required,gt=0"`
	Mask   shared.Mask `json:"mask"`
}

// BulkInput replaces or inserts many rows of one role atomically.
type BulkInput struct {
	RoleID int64      `json:"role_id" validate:"required,gt=0"`
	Rights []BulkItem `json:"rights" validate:"required,min=1,dive"`
}

// BulkResult counts what a bulk upsert did.
type BulkResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

// MaskInput is the body of a single-row mask replacement.
type MaskInput struct {
	Mask shared.Mask `json:"mask"`
}
