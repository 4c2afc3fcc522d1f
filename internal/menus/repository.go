package menus

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ChandrashakerVarma/LMS-sub000/internal/platform/db"
	"github.com/ChandrashakerVarma/LMS-sub000/internal/shared"
)

// RepositoryPort defines data access methods for the catalog.
type RepositoryPort interface {
	List(ctx context.Context) ([]Menu, error)
	Get(ctx context.Context, id int64) (Menu, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes the transactional catalog operations. Reads lock the
// touched rows so concurrent re-parents serialise on the ancestor chain.
type TxRepository interface {
	Get(ctx context.Context, id int64) (Menu, error)
	ParentOf(ctx context.Context, id int64) (*int64, error)
	Insert(ctx context.Context, m Menu) (Menu, error)
	Update(ctx context.Context, m Menu) (Menu, error)
	CountChildren(ctx context.Context, id int64) (int, error)
	DeleteRights(ctx context.Context, menuID int64) (int64, error)
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

const menuColumns = `id, name, display_name, route, icon, parent_id, order_index, active,
	created_at, updated_at, created_by, modified_by`

func scanMenu(row pgx.Row) (Menu, error) {
	var m Menu
	err := row.Scan(&m.ID, &m.Name, &m.DisplayName, &m.Route, &m.Icon, &m.ParentID,
		&m.OrderIndex, &m.Active, &m.CreatedAt, &m.UpdatedAt, &m.CreatedBy, &m.ModifiedBy)
	return m, err
}

// List returns every menu ordered by order_index, id.
func (r *Repository) List(ctx context.Context) ([]Menu, error) {
	return listMenus(ctx, r.pool)
}

func listMenus(ctx context.Context, q db.DBTX) ([]Menu, error) {
	rows, err := q.Query(ctx, `SELECT `+menuColumns+` FROM menus ORDER BY order_index, id`)
	if err != nil {
		return nil, shared.Upstream("menus: list", err)
	}
	defer rows.Close()
	var out []Menu
	for rows.Next() {
		m, err := scanMenu(rows)
		if err != nil {
			return nil, shared.Upstream("menus: scan", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, shared.Upstream("menus: list", err)
	}
	return out, nil
}

// Get returns one menu.
func (r *Repository) Get(ctx context.Context, id int64) (Menu, error) {
	return getMenu(ctx, r.pool, id, false)
}

func getMenu(ctx context.Context, q db.DBTX, id int64, lock bool) (Menu, error) {
	sql := `SELECT ` + menuColumns + ` FROM menus WHERE id = $1`
	if lock {
		sql += ` FOR UPDATE`
	}
	m, err := scanMenu(q.QueryRow(ctx, sql, id))
	if err != nil {
		if db.IsNoRows(err) {
			return Menu{}, shared.NotFound("menu", id)
		}
		return Menu{}, shared.Upstream("menus: get", err)
	}
	return m, nil
}

// WithTx wraps callback in a serializable transaction with bounded retry.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithSerializableTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

type txRepo struct {
	tx pgx.Tx
}

func (t *txRepo) Get(ctx context.Context, id int64) (Menu, error) {
	return getMenu(ctx, t.tx, id, true)
}

func (t *txRepo) ParentOf(ctx context.Context, id int64) (*int64, error) {
	var parent *int64
	err := t.tx.QueryRow(ctx, `SELECT parent_id FROM menus WHERE id = $1 FOR UPDATE`, id).Scan(&parent)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, shared.NotFound("menu", id)
		}
		return nil, shared.Upstream("menus: parent", err)
	}
	return parent, nil
}

func (t *txRepo) Insert(ctx context.Context, m Menu) (Menu, error) {
	row := t.tx.QueryRow(ctx, `INSERT INTO menus
		(name, display_name, route, icon, parent_id, order_index, active, created_at, updated_at, created_by, modified_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+menuColumns,
		m.Name, m.DisplayName, m.Route, m.Icon, m.ParentID, m.OrderIndex, m.Active,
		m.CreatedAt, m.UpdatedAt, m.CreatedBy, m.ModifiedBy)
	out, err := scanMenu(row)
	if err != nil {
		return Menu{}, translateWriteErr("insert", err)
	}
	return out, nil
}

func (t *txRepo) Update(ctx context.Context, m Menu) (Menu, error) {
	row := t.tx.QueryRow(ctx, `UPDATE menus SET
		name = $2, display_name = $3, route = $4, icon = $5, parent_id = $6,
		order_index = $7, active = $8, updated_at = $9, modified_by = $10
		WHERE id = $1
		RETURNING `+menuColumns,
		m.ID, m.Name, m.DisplayName, m.Route, m.Icon, m.ParentID, m.OrderIndex, m.Active,
		m.UpdatedAt, m.ModifiedBy)
	out, err := scanMenu(row)
	if err != nil {
		if db.IsNoRows(err) {
			return Menu{}, shared.NotFound("menu", m.ID)
		}
		return Menu{}, translateWriteErr("update", err)
	}
	return out, nil
}

func (t *txRepo) CountChildren(ctx context.Context, id int64) (int, error) {
	var n int
	if err := t.tx.QueryRow(ctx, `SELECT COUNT(*) FROM menus WHERE parent_id = $1`, id).Scan(&n); err != nil {
		return 0, shared.Upstream("menus: count children", err)
	}
	return n, nil
}

func (t *txRepo) DeleteRights(ctx context.Context, menuID int64) (int64, error) {
	tag, err := t.tx.Exec(ctx, `DELETE FROM role_rights WHERE menu_id = $1`, menuID)
	if err != nil {
		return 0, shared.Upstream("menus: delete rights", err)
	}
	return tag.RowsAffected(), nil
}

func (t *txRepo) Delete(ctx context.Context, id int64) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM menus WHERE id = $1`, id)
	if err != nil {
		return translateWriteErr("delete", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("menu", id)
	}
	return nil
}

func translateWriteErr(op string, err error) error {
	switch {
	case db.IsForeignKeyViolation(err):
		if db.ConstraintName(err) == "menus_parent_id_fkey" {
			return shared.Validation("parent_id", shared.CodeUnknownParent, "parent menu does not exist")
		}
		return shared.Conflict("id", shared.CodeMenuHasChildren, "menu is still referenced")
	case db.IsSerializationFailure(err):
		return err
	}
	return shared.Upstream(fmt.Sprintf("menus: %s", op), err)
}
