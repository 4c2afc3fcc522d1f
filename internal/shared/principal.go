package shared

import (
	"strings"

	"golang.org/x/text/cases"
)

// RoleKind classifies a role by its well-known name. Unknown names are custom.
type RoleKind int

const (
	RoleCustom RoleKind = iota
	RoleSuperAdmin
	RoleAdmin
	RoleManager
	RoleOrgAdmin
	RoleUser
)

// Well-known role names as stored by the seeder.
const (
	RoleNameSuperAdmin = "super_admin"
	RoleNameAdmin      = "admin"
	RoleNameManager    = "manager"
	RoleNameOrgAdmin   = "org_admin"
	RoleNameUser       = "user"
)

// FoldName normalises a role name for case-insensitive comparison. A Caser
// holds state, so each call builds its own.
func FoldName(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}

// RoleKindOf resolves a stored role name to its kind.
func RoleKindOf(name string) RoleKind {
	switch FoldName(name) {
	case RoleNameSuperAdmin:
		return RoleSuperAdmin
	case RoleNameAdmin:
		return RoleAdmin
	case RoleNameManager:
		return RoleManager
	case RoleNameOrgAdmin:
		return RoleOrgAdmin
	case RoleNameUser:
		return RoleUser
	}
	return RoleCustom
}

func (k RoleKind) String() string {
	switch k {
	case RoleSuperAdmin:
		return RoleNameSuperAdmin
	case RoleAdmin:
		return RoleNameAdmin
	case RoleManager:
		return RoleNameManager
	case RoleOrgAdmin:
		return RoleNameOrgAdmin
	case RoleUser:
		return RoleNameUser
	}
	return "custom"
}

// Admin reports whether the kind bypasses the matrix.
func (k RoleKind) Admin() bool {
	return k == RoleAdmin || k == RoleSuperAdmin
}

// Reserved reports whether the role may only be changed by a super admin.
func (k RoleKind) Reserved() bool {
	return k.Admin()
}

// RoleRef is the role attached to a Principal.
type RoleRef struct {
	ID   int64    `json:"id"`
	Name string   `json:"name"`
	Kind RoleKind `json:"-"`
}

// Principal is the authenticated caller of one request. It is never persisted.
type Principal struct {
	UserID        int64    `json:"user_id"`
	Role          *RoleRef `json:"role,omitempty"`
	TenantID      *int64   `json:"tenant_id,omitempty"`
	IsTenantAdmin bool     `json:"is_tenant_admin"`
}

// RoleID returns the role id, or false if the principal has no role.
func (p Principal) RoleID() (int64, bool) {
	if p.Role == nil {
		return 0, false
	}
	return p.Role.ID, true
}

// Kind returns the role kind; principals without a role are custom.
func (p Principal) Kind() RoleKind {
	if p.Role == nil {
		return RoleCustom
	}
	return p.Role.Kind
}

// IsAdmin reports whether the gate admits the principal unconditionally.
func (p Principal) IsAdmin() bool {
	return p.Role != nil && p.Role.Kind.Admin()
}

// IsSuperAdmin reports whether the principal may edit reserved roles.
func (p Principal) IsSuperAdmin() bool {
	return p.Role != nil && p.Role.Kind == RoleSuperAdmin
}
