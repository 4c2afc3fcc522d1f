package roles

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ChandrashakerVarma/LMS-sub000/internal/platform/db"
	"github.com/ChandrashakerVarma/LMS-sub000/internal/shared"
)

// RepositoryPort defines data access methods for roles.
type RepositoryPort interface {
	List(ctx context.Context) ([]Role, error)
	Get(ctx context.Context, id int64) (Role, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes transactional role operations.
type TxRepository interface {
	Get(ctx context.Context, id int64) (Role, error)
	FindByName(ctx context.Context, name string) (Role, bool, error)
	Insert(ctx context.Context, r Role) (Role, error)
	Update(ctx context.Context, r Role) (Role, error)
	CountUsers(ctx context.Context, id int64) (int, error)
	DeleteRights(ctx context.Context, id int64) (int64, error)
	Delete(ctx context.Context, id int64) error
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const roleColumns = `id, name, created_at, updated_at, created_by, modified_by`

func scanRole(row pgx.Row) (Role, error) {
	var r Role
	if err := row.Scan(&r.ID, &r.Name, &r.CreatedAt, &r.UpdatedAt, &r.CreatedBy, &r.ModifiedBy); err != nil {
		return Role{}, err
	}
	r.classify()
	return r, nil
}

// List returns all roles.
func (r *Repository) List(ctx context.Context) ([]Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+roleColumns+` FROM roles ORDER BY id`)
	if err != nil {
		return nil, shared.Upstream("roles: list", err)
	}
	defer rows.Close()
	out := []Role{}
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, shared.Upstream("roles: scan", err)
		}
		out = append(out, role)
	}
	if err := rows.Err(); err != nil {
		return nil, shared.Upstream("roles: list", err)
	}
	return out, nil
}

// Get returns one role.
func (r *Repository) Get(ctx context.Context, id int64) (Role, error) {
	return getRole(ctx, r.pool, id, false)
}

func getRole(ctx context.Context, q db.DBTX, id int64, lock bool) (Role, error) {
	sql := `SELECT ` + roleColumns + ` FROM roles WHERE id = $1`
	if lock {
		sql += ` FOR UPDATE`
	}
	role, err := scanRole(q.QueryRow(ctx, sql, id))
	if err != nil {
		if db.IsNoRows(err) {
			return Role{}, shared.NotFound("role", id)
		}
		return Role{}, shared.Upstream("roles: get", err)
	}
	return role, nil
}

// WithTx wraps callback in repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

type txRepo struct {
	tx pgx.Tx
}

func (t *txRepo) Get(ctx context.Context, id int64) (Role, error) {
	return getRole(ctx, t.tx, id, true)
}

func (t *txRepo) FindByName(ctx context.Context, name string) (Role, bool, error) {
	role, err := scanRole(t.tx.QueryRow(ctx, `SELECT `+roleColumns+` FROM roles WHERE name_folded = $1`, shared.FoldName(name)))
	if err != nil {
		if db.IsNoRows(err) {
			return Role{}, false, nil
		}
		return Role{}, false, shared.Upstream("roles: find by name", err)
	}
	return role, true, nil
}

func (t *txRepo) Insert(ctx context.Context, r Role) (Role, error) {
	role, err := scanRole(t.tx.QueryRow(ctx, `INSERT INTO roles (name, name_folded, created_at, updated_at, created_by, modified_by)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING `+roleColumns,
		r.Name, shared.FoldName(r.Name), r.CreatedAt, r.UpdatedAt, r.CreatedBy, r.ModifiedBy))
	if err != nil {
		return Role{}, translateWriteErr("insert", err)
	}
	return role, nil
}

func (t *txRepo) Update(ctx context.Context, r Role) (Role, error) {
	role, err := scanRole(t.tx.QueryRow(ctx, `UPDATE roles SET name = $2, name_folded = $3, updated_at = $4, modified_by = $5
		WHERE id = $1 RETURNING `+roleColumns,
		r.ID, r.Name, shared.FoldName(r.Name), r.UpdatedAt, r.ModifiedBy))
	if err != nil {
		if db.IsNoRows(err) {
			return Role{}, shared.NotFound("role", r.ID)
		}
		return Role{}, translateWriteErr("update", err)
	}
	return role, nil
}

func (t *txRepo) CountUsers(ctx context.Context, id int64) (int, error) {
	var n int
	if err := t.tx.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE role_id = $1`, id).Scan(&n); err != nil {
		return 0, shared.Upstream("roles: count users", err)
	}
	return n, nil
}

func (t *txRepo) DeleteRights(ctx context.Context, id int64) (int64, error) {
	tag, err := t.tx.Exec(ctx, `DELETE FROM role_rights WHERE role_id = $1`, id)
	if err != nil {
		return 0, shared.Upstream("roles: delete rights", err)
	}
	return tag.RowsAffected(), nil
}

func (t *txRepo) Delete(ctx context.Context, id int64) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return translateWriteErr("delete", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("role", id)
	}
	return nil
}

func translateWriteErr(op string, err error) error {
	switch {
	case db.IsUniqueViolation(err):
		return shared.Conflict("name", shared.CodeDuplicateRole, "a role with this name already exists")
	case db.IsForeignKeyViolation(err):
		return shared.Conflict("id", shared.CodeRoleInUse, "role is referenced by users")
	}
	return shared.Upstream("roles: "+op, err)
}
