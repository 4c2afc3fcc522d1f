package roles

import "github.com/ChandrashakerVarma/LMS-sub000/internal/shared"

// Role represents a named bundle of matrix rows.
type Role struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Kind     shared.RoleKind `json:"-"`
	Reserved bool            `json:"reserved"`
	shared.Audit
}

func (r *Role) classify() {
	r.Kind = shared.RoleKindOf(r.Name)
	r.Reserved = r.Kind.Reserved()
}

// Input is the payload for create and rename.
type Input struct {
	Name string `json:"name" validate:"required,max=64"`
}
