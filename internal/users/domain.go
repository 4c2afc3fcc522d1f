package users

import "time"

// User represents a user account as seen by role administration.
type User struct {
	ID            int64     `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	RoleID        *int64    `json:"role_id"`
	RoleName      *string   `json:"role_name"`
	TenantID      *int64    `json:"tenant_id"`
	IsTenantAdmin bool      `json:"is_tenant_admin"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Account is the row the principal resolver needs.
type Account struct {
	ID            int64
	RoleID        *int64
	RoleName      *string
	TenantID      *int64
	IsTenantAdmin bool
	IsActive      bool
	DeletedAt     *time.Time
}

// Usable reports whether the account may authenticate.
func (a Account) Usable() bool {
	return a.IsActive && a.DeletedAt == nil
}
