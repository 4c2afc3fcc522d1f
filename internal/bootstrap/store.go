package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ChandrashakerVarma/LMS-sub000/internal/platform/db"
	"github.com/ChandrashakerVarma/LMS-sub000/internal/shared"
)

// Store is the persistence the seeder needs.
type Store interface {
	StoredHash(ctx context.Context) (string, bool, error)
	MissingMenus(ctx context.Context, ids []int64) ([]int64, error)
	WithTx(ctx context.Context, fn func(context.Context, Tx) error) error
}

// Tx performs seeding writes. Every method is a no-op when the row already
// satisfies the request, and reports whether it wrote.
type Tx interface {
	EnsureRole(ctx context.Context, name string) (id int64, created bool, err error)
	EnsureMenu(ctx context.Context, m MenuSpec) (created bool, err error)
	AdvanceMenuSequence(ctx context.Context) error
	MenuIDs(ctx context.Context) ([]int64, error)
	GrantRight(ctx context.Context, roleID, menuID int64, mask shared.Mask) (changed bool, err error)
	SaveHash(ctx context.Context, hash string) (changed bool, err error)
}

// PgStore implements Store on pgx.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore constructs a PgStore.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// StoredHash returns the catalog hash of the last run, if any.
func (s *PgStore) StoredHash(ctx context.Context) (string, bool, error) {
	var hash string
	err := s.pool.QueryRow(ctx, `SELECT catalog_hash FROM bootstrap_version WHERE id = 1`).Scan(&hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("bootstrap: stored hash: %w", err)
	}
	return hash, true, nil
}

// MissingMenus returns the ids not present in the catalog.
func (s *PgStore) MissingMenus(ctx context.Context, ids []int64) ([]int64, error) {
	rows, err := s.pool.Query(ctx, `SELECT want FROM unnest($1::bigint[]) AS want
		WHERE NOT EXISTS (SELECT 1 FROM menus m WHERE m.id = want) ORDER BY want`, ids)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: missing menus: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[int64])
}

// WithTx runs fn in one transaction.
func (s *PgStore) WithTx(ctx context.Context, fn func(context.Context, Tx) error) error {
	return db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(ctx, &pgTx{tx: tx})
	})
}

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) EnsureRole(ctx context.Context, name string) (int64, bool, error) {
	folded := shared.FoldName(name)
	var id int64
	err := t.tx.QueryRow(ctx, `SELECT id FROM roles WHERE name_folded = $1`, folded).Scan(&id)
	if err == nil {
		return id, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, false, fmt.Errorf("bootstrap: find role %s: %w", name, err)
	}
	err = t.tx.QueryRow(ctx, `INSERT INTO roles (name, name_folded, created_at, updated_at) VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT DO NOTHING RETURNING id`, name, folded).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		// lost a race with a concurrent seeder
		err = t.tx.QueryRow(ctx, `SELECT id FROM roles WHERE name_folded = $1`, folded).Scan(&id)
		if err == nil {
			return id, false, nil
		}
	}
	if err != nil {
		return 0, false, fmt.Errorf("bootstrap: insert role %s: %w", name, err)
	}
	return id, true, nil
}

func (t *pgTx) EnsureMenu(ctx context.Context, m MenuSpec) (bool, error) {
	var parent *int64
	if m.ParentID != 0 {
		parent = &m.ParentID
	}
	tag, err := t.tx.Exec(ctx, `INSERT INTO menus (id, name, display_name, route, icon, parent_id, order_index, active, created_at, updated_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, $7, TRUE, NOW(), NOW())
		ON CONFLICT (id) DO NOTHING`,
		m.ID, m.Name, m.DisplayName, m.Route, m.Icon, parent, m.OrderIndex)
	if err != nil {
		return false, fmt.Errorf("bootstrap: insert menu %d: %w", m.ID, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (t *pgTx) MenuIDs(ctx context.Context) ([]int64, error) {
	rows, err := t.tx.Query(ctx, `SELECT id FROM menus ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: list menus: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("bootstrap: list menus: %w", err)
	}
	return ids, nil
}

func (t *pgTx) AdvanceMenuSequence(ctx context.Context) error {
	_, err := t.tx.Exec(ctx, `SELECT setval(pg_get_serial_sequence('menus', 'id'),
		GREATEST((SELECT COALESCE(MAX(id), 1) FROM menus), 1))`)
	if err != nil {
		return fmt.Errorf("bootstrap: advance menu sequence: %w", err)
	}
	return nil
}

// GrantRight ORs mask into the existing row; bits are never cleared.
func (t *pgTx) GrantRight(ctx context.Context, roleID, menuID int64, mask shared.Mask) (bool, error) {
	tag, err := t.tx.Exec(ctx, `INSERT INTO role_rights (role_id, menu_id, can_view, can_create, can_edit, can_delete, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		ON CONFLICT (role_id, menu_id) DO UPDATE SET
			can_view = role_rights.can_view OR EXCLUDED.can_view,
			can_create = role_rights.can_create OR EXCLUDED.can_create,
			can_edit = role_rights.can_edit OR EXCLUDED.can_edit,
			can_delete = role_rights.can_delete OR EXCLUDED.can_delete,
			updated_at = NOW(),
			modified_by = NULL
		WHERE (EXCLUDED.can_view AND NOT role_rights.can_view)
			OR (EXCLUDED.can_create AND NOT role_rights.can_create)
			OR (EXCLUDED.can_edit AND NOT role_rights.can_edit)
			OR (EXCLUDED.can_delete AND NOT role_rights.can_delete)`,
		roleID, menuID, mask.View, mask.Create, mask.Edit, mask.Delete)
	if err != nil {
		return false, fmt.Errorf("bootstrap: grant role %d menu %d: %w", roleID, menuID, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (t *pgTx) SaveHash(ctx context.Context, hash string) (bool, error) {
	tag, err := t.tx.Exec(ctx, `INSERT INTO bootstrap_version (id, catalog_hash, applied_at) VALUES (1, $1, NOW())
		ON CONFLICT (id) DO UPDATE SET catalog_hash = EXCLUDED.catalog_hash, applied_at = EXCLUDED.applied_at
		WHERE bootstrap_version.catalog_hash IS DISTINCT FROM EXCLUDED.catalog_hash`, hash)
	if err != nil {
		return false, fmt.Errorf("bootstrap: save hash: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
