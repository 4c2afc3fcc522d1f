package menus

import "github.com/ChandrashakerVarma/LMS-sub000/internal/shared"

// Menu is one navigable entry of the catalog tree.
type Menu struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	DisplayName string  `json:"display_name"`
	Route       *string `json:"route"`
	Icon        *string `json:"icon"`
	ParentID    *int64  `json:"parent_id"`
	OrderIndex  int     `json:"order_index"`
	Active      bool    `json:"active"`
	shared.Audit
}

// CreateInput is the payload accepted by Create.
type CreateInput struct {
	Name        string  `json:"name" validate:"required,max=100"`
	DisplayName string  `json:"display_name" validate:"required,max=150"`
	Route       *string `json:"route" validate:"omitempty,max=255"`
	Icon        *string `json:"icon" validate:"omitempty,max=100"`
	ParentID    *int64  `json:"parent_id" validate:"omitempty,gt=0"`
	OrderIndex  int     `json:"order_index" validate:"gte=0"`
	Active      *bool   `json:"active"`
}

// Patch is a partial update. Route, Icon and ParentID may be cleared with an
// explicit null; a null parent_id moves the menu to the root.
type Patch struct {
	Name        *string                 `json:"name" validate:"omitempty,min=1,max=100"`
	DisplayName *string                 `json:"display_name" validate:"omitempty,min=1,max=150"`
	Route       shared.Optional[string] `json:"route"`
	Icon        shared.Optional[string] `json:"icon"`
	ParentID    shared.Optional[int64]  `json:"parent_id"`
	OrderIndex  *int                    `json:"order_index" validate:"omitempty,gte=0"`
	Active      *bool                   `json:"active"`
}

// Node is a menu placed in a tree. Verbs is only filled by projections.
type Node struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	DisplayName string       `json:"display_name"`
	Route       *string      `json:"route"`
	Icon        *string      `json:"icon"`
	OrderIndex  int          `json:"order_index"`
	Verbs       *shared.Mask `json:"verbs,omitempty"`
	Children    []*Node      `json:"children"`
}
