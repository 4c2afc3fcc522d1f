package users

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ChandrashakerVarma/LMS-sub000/internal/platform/db"
	"github.com/ChandrashakerVarma/LMS-sub000/internal/shared"
)

// Repository provides PostgreSQL backed persistence. The users table is
// owned by the user subsystem; only role_id is written here.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userSelect = `SELECT u.id, u.email, u.name, u.role_id, r.name, u.tenant_id, u.is_tenant_admin, u.is_active,
	u.created_at, u.updated_at
	FROM users u
	LEFT JOIN roles r ON r.id = u.role_id`

// ListUsers returns live users.
func (r *Repository) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, userSelect+` WHERE u.deleted_at IS NULL ORDER BY u.id`)
	if err != nil {
		return nil, shared.Upstream("users: list", err)
	}
	defer rows.Close()
	out := []User{}
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.RoleID, &u.RoleName, &u.TenantID, &u.IsTenantAdmin, &u.IsActive,
			&u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, shared.Upstream("users: scan", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, shared.Upstream("users: list", err)
	}
	return out, nil
}

// SetRole assigns or clears a user's role. The user row is locked while
// guard inspects the current and requested role names.
func (r *Repository) SetRole(ctx context.Context, userID int64, roleID *int64, guard RoleGuard) (User, error) {
	var u User
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var current *string
		err := tx.QueryRow(ctx, `SELECT r.name FROM users u
			LEFT JOIN roles r ON r.id = u.role_id
			WHERE u.id = $1 AND u.deleted_at IS NULL
			FOR UPDATE OF u`, userID).Scan(&current)
		if err != nil {
			if db.IsNoRows(err) {
				return shared.NotFound("user", userID)
			}
			return shared.Upstream("users: lock", err)
		}
		var next *string
		if roleID != nil {
			var name string
			if err := tx.QueryRow(ctx, `SELECT name FROM roles WHERE id = $1 FOR SHARE`, *roleID).Scan(&name); err != nil {
				if db.IsNoRows(err) {
					return shared.NotFound("role", *roleID)
				}
				return shared.Upstream("users: load role", err)
			}
			next = &name
		}
		if guard != nil {
			if err := guard(current, next); err != nil {
				return err
			}
		}
		if _, err := tx.Exec(ctx, `UPDATE users SET role_id = $2, updated_at = NOW() WHERE id = $1`, userID, roleID); err != nil {
			if db.IsForeignKeyViolation(err) {
				return shared.NotFound("role", derefOr(roleID, 0))
			}
			return shared.Upstream("users: set role", err)
		}
		err = tx.QueryRow(ctx, userSelect+` WHERE u.id = $1`, userID).Scan(&u.ID, &u.Email, &u.Name, &u.RoleID, &u.RoleName,
			&u.TenantID, &u.IsTenantAdmin, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
		if err != nil {
			return shared.Upstream("users: reload", err)
		}
		return nil
	})
	if err != nil {
		return User{}, err
	}
	return u, nil
}

// Account loads the resolver's view of a user in one query.
func (r *Repository) Account(ctx context.Context, userID int64) (Account, error) {
	var a Account
	err := r.pool.QueryRow(ctx, `SELECT u.id, u.role_id, r.name, u.tenant_id, u.is_tenant_admin, u.is_active, u.deleted_at
		FROM users u
		LEFT JOIN roles r ON r.id = u.role_id
		WHERE u.id = $1`, userID).Scan(&a.ID, &a.RoleID, &a.RoleName, &a.TenantID, &a.IsTenantAdmin, &a.IsActive, &a.DeletedAt)
	if err != nil {
		if db.IsNoRows(err) {
			return Account{}, shared.NotFound("user", userID)
		}
		return Account{}, shared.Upstream("users: account", err)
	}
	return a, nil
}

func derefOr(v *int64, def int64) int64 {
	if v == nil {
		return def
	}
	return *v
}
