package rights

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ChandrashakerVarma/LMS-sub000/internal/platform/db"
	"github.com/ChandrashakerVarma/LMS-sub000/internal/shared"
)

// RepositoryPort defines data access methods for the matrix.
type RepositoryPort interface {
	Get(ctx context.Context, id int64) (RoleRight, error)
	ListByRole(ctx context.Context, roleID int64) ([]RoleRightWithMenu, error)
	MasksForRole(ctx context.Context, roleID int64) (map[int64]shared.Mask, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes transactional matrix operations.
type TxRepository interface {
	RoleExists(ctx context.Context, roleID int64) (bool, error)
	MissingMenus(ctx context.Context, menuIDs []int64) ([]int64, error)
	Find(ctx context.Context, roleID, menuID int64) (RoleRight, bool, error)
	GetByID(ctx context.Context, id int64) (RoleRight, error)
	Insert(ctx context.Context, rr RoleRight) (RoleRight, error)
	Upsert(ctx context.Context, rr RoleRight) (RoleRight, bool, error)
	Update(ctx context.Context, rr RoleRight) (RoleRight, error)
	Delete(ctx context.Context, id int64) error
	DeleteByRole(ctx context.Context, roleID int64) (int64, error)
	DeleteByMenu(ctx context.Context, menuID int64) (int64, error)
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const rightColumns = `id, role_id, menu_id, can_view, can_create, can_edit, can_delete,
	created_at, updated_at, created_by, modified_by`

func scanRight(row pgx.Row) (RoleRight, error) {
	var rr RoleRight
	err := row.Scan(&rr.ID, &rr.RoleID, &rr.MenuID, &rr.CanView, &rr.CanCreate, &rr.CanEdit, &rr.CanDelete,
		&rr.CreatedAt, &rr.UpdatedAt, &rr.CreatedBy, &rr.ModifiedBy)
	return rr, err
}

func getRight(ctx context.Context, q db.DBTX, id int64, lock bool) (RoleRight, error) {
	sql := `SELECT ` + rightColumns + ` FROM role_rights WHERE id = $1`
	if lock {
		sql += ` FOR UPDATE`
	}
	rr, err := scanRight(q.QueryRow(ctx, sql, id))
	if err != nil {
		if db.IsNoRows(err) {
			return RoleRight{}, shared.NotFound("role_right", id)
		}
		return RoleRight{}, shared.Upstream("rights: get", err)
	}
	return rr, nil
}

// Get returns one matrix row.
func (r *Repository) Get(ctx context.Context, id int64) (RoleRight, error) {
	return getRight(ctx, r.pool, id, false)
}

// ListByRole returns the role's rows joined with their menus.
func (r *Repository) ListByRole(ctx context.Context, roleID int64) ([]RoleRightWithMenu, error) {
	rows, err := r.pool.Query(ctx, `SELECT rr.id, rr.role_id, rr.menu_id, rr.can_view, rr.can_create, rr.can_edit, rr.can_delete,
		rr.created_at, rr.updated_at, rr.created_by, rr.modified_by,
		m.name, m.display_name, m.route, m.icon, m.parent_id, m.order_index
		FROM role_rights rr
		JOIN menus m ON m.id = rr.menu_id
		WHERE rr.role_id = $1
		ORDER BY m.order_index, m.id`, roleID)
	if err != nil {
		return nil, shared.Upstream("rights: list by role", err)
	}
	defer rows.Close()
	out := []RoleRightWithMenu{}
	for rows.Next() {
		var row RoleRightWithMenu
		if err := rows.Scan(&row.ID, &row.RoleID, &row.MenuID, &row.CanView, &row.CanCreate, &row.CanEdit, &row.CanDelete,
			&row.CreatedAt, &row.UpdatedAt, &row.CreatedBy, &row.ModifiedBy,
			&row.MenuName, &row.MenuDisplayName, &row.MenuRoute, &row.MenuIcon, &row.MenuParentID, &row.MenuOrderIndex); err != nil {
			return nil, shared.Upstream("rights: scan", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, shared.Upstream("rights: list by role", err)
	}
	return out, nil
}

// MasksForRole is the gate's hot path: one indexed scan of role_rights.
func (r *Repository) MasksForRole(ctx context.Context, roleID int64) (map[int64]shared.Mask, error) {
	rows, err := r.pool.Query(ctx, `SELECT menu_id, can_view, can_create, can_edit, can_delete
		FROM role_rights WHERE role_id = $1`, roleID)
	if err != nil {
		return nil, shared.Upstream("rights: masks", err)
	}
	defer rows.Close()
	out := make(map[int64]shared.Mask)
	for rows.Next() {
		var menuID int64
		var m shared.Mask
		if err := rows.Scan(&menuID, &m.View, &m.Create, &m.Edit, &m.Delete); err != nil {
			return nil, shared.Upstream("rights: scan mask", err)
		}
		out[menuID] = m
	}
	if err := rows.Err(); err != nil {
		return nil, shared.Upstream("rights: masks", err)
	}
	return out, nil
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

func (t *txRepo) RoleExists(ctx context.Context, roleID int64) (bool, error) {
	var exists bool
	if err := t.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM roles WHERE id = $1)`, roleID).Scan(&exists); err != nil {
		return false, shared.Upstream("rights: role exists", err)
	}
	return exists, nil
}

func (t *txRepo) MissingMenus(ctx context.Context, menuIDs []int64) ([]int64, error) {
	rows, err := t.tx.Query(ctx, `SELECT wanted.id FROM unnest($1::bigint[]) AS wanted(id)
		LEFT JOIN menus m ON m.id = wanted.id
		WHERE m.id IS NULL`, menuIDs)
	if err != nil {
		return nil, shared.Upstream("rights: missing menus", err)
	}
	defer rows.Close()
	var missing []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, shared.Upstream("rights: missing menus", err)
		}
		missing = append(missing, id)
	}
	return missing, rows.Err()
}

func (t *txRepo) Find(ctx context.Context, roleID, menuID int64) (RoleRight, bool, error) {
	rr, err := scanRight(t.tx.QueryRow(ctx, `SELECT `+rightColumns+` FROM role_rights
		WHERE role_id = $1 AND menu_id = $2 FOR UPDATE`, roleID, menuID))
	if err != nil {
		if db.IsNoRows(err) {
			return RoleRight{}, false, nil
		}
		return RoleRight{}, false, shared.Upstream("rights: find", err)
	}
	return rr, true, nil
}

func (t *txRepo) GetByID(ctx context.Context, id int64) (RoleRight, error) {
	return getRight(ctx, t.tx, id, true)
}

func (t *txRepo) Insert(ctx context.Context, rr RoleRight) (RoleRight, error) {
	out, err := scanRight(t.tx.QueryRow(ctx, `INSERT INTO role_rights
		(role_id, menu_id, can_view, can_create, can_edit, can_delete, created_at, updated_at, created_by, modified_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+rightColumns,
		rr.RoleID, rr.MenuID, rr.CanView, rr.CanCreate, rr.CanEdit, rr.CanDelete,
		rr.CreatedAt, rr.UpdatedAt, rr.CreatedBy, rr.ModifiedBy))
	if err != nil {
		return RoleRight{}, translateWriteErr("insert", err)
	}
	return out, nil
}

// Upsert reports created=true when the row did not exist; xmax is zero only
// for freshly inserted tuples. Rewriting an identical mask keeps the audit
// columns as they were.
const maskChanged = `(role_rights.can_view, role_rights.can_create, role_rights.can_edit, role_rights.can_delete)
	IS DISTINCT FROM (EXCLUDED.can_view, EXCLUDED.can_create, EXCLUDED.can_edit, EXCLUDED.can_delete)`

func (t *txRepo) Upsert(ctx context.Context, rr RoleRight) (RoleRight, bool, error) {
	var created bool
	var out RoleRight
	err := t.tx.QueryRow(ctx, `INSERT INTO role_rights
		(role_id, menu_id, can_view, can_create, can_edit, can_delete, created_at, updated_at, created_by, modified_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (role_id, menu_id) DO UPDATE SET
			can_view = EXCLUDED.can_view,
			can_create = EXCLUDED.can_create,
			can_edit = EXCLUDED.can_edit,
			can_delete = EXCLUDED.can_delete,
			updated_at = CASE WHEN `+maskChanged+` THEN EXCLUDED.updated_at ELSE role_rights.updated_at END,
			modified_by = CASE WHEN `+maskChanged+` THEN EXCLUDED.modified_by ELSE role_rights.modified_by END
		RETURNING `+rightColumns+`, (xmax = 0)`,
		rr.RoleID, rr.MenuID, rr.CanView, rr.CanCreate, rr.CanEdit, rr.CanDelete,
		rr.CreatedAt, rr.UpdatedAt, rr.CreatedBy, rr.ModifiedBy).Scan(
		&out.ID, &out.RoleID, &out.MenuID, &out.CanView, &out.CanCreate, &out.CanEdit, &out.CanDelete,
		&out.CreatedAt, &out.UpdatedAt, &out.CreatedBy, &out.ModifiedBy, &created)
	if err != nil {
		return RoleRight{}, false, translateWriteErr("upsert", err)
	}
	return out, created, nil
}

func (t *txRepo) Update(ctx context.Context, rr RoleRight) (RoleRight, error) {
	out, err := scanRight(t.tx.QueryRow(ctx, `UPDATE role_rights SET
		can_view = $2, can_create = $3, can_edit = $4, can_delete = $5, updated_at = $6, modified_by = $7
		WHERE id = $1
		RETURNING `+rightColumns,
		rr.ID, rr.CanView, rr.CanCreate, rr.CanEdit, rr.CanDelete, rr.UpdatedAt, rr.ModifiedBy))
	if err != nil {
		if db.IsNoRows(err) {
			return RoleRight{}, shared.NotFound("role_right", rr.ID)
		}
		return RoleRight{}, translateWriteErr("update", err)
	}
	return out, nil
}

func (t *txRepo) Delete(ctx context.Context, id int64) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM role_rights WHERE id = $1`, id)
	if err != nil {
		return shared.Upstream("rights: delete", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("role_right", id)
	}
	return nil
}

func (t *txRepo) DeleteByRole(ctx context.Context, roleID int64) (int64, error) {
	tag, err := t.tx.Exec(ctx, `DELETE FROM role_rights WHERE role_id = $1`, roleID)
	if err != nil {
		return 0, shared.Upstream("rights: delete by role", err)
	}
	return tag.RowsAffected(), nil
}

func (t *txRepo) DeleteByMenu(ctx context.Context, menuID int64) (int64, error) {
	tag, err := t.tx.Exec(ctx, `DELETE FROM role_rights WHERE menu_id = $1`, menuID)
	if err != nil {
		return 0, shared.Upstream("rights: delete by menu", err)
	}
	return tag.RowsAffected(), nil
}

func translateWriteErr(op string, err error) error {
	switch {
	case db.IsUniqueViolation(err):
		return shared.Conflict("menu_id", shared.CodeDuplicateRight, "role already has a right on this menu")
	case db.IsForeignKeyViolation(err):
		if db.ConstraintName(err) == "role_rights_role_id_fkey" {
			return &shared.AuthzError{Kind: shared.KindNotFound, Code: "role_not_found", Entity: "role", Message: "role not found"}
		}
		return &shared.AuthzError{Kind: shared.KindNotFound, Code: "menu_not_found", Entity: "menu", Message: "menu not found"}
	}
	return shared.Upstream("rights: "+op, err)
}
