package rights

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/ChandrashakerVarma/LMS-sub000/internal/shared"
)

// Invalidator drops a role's cached masks after a matrix write.
type Invalidator interface {
	InvalidateMatrix(ctx context.Context, roleID int64)
}

// Service handles matrix business logic.
type Service struct {
	repo        RepositoryPort
	invalidator Invalidator
	audit       shared.AuditRecorder
	logger      *slog.Logger
	now         func() time.Time
}

// NewService builds Service instance. audit may be nil.
func NewService(repo RepositoryPort, invalidator Invalidator, audit shared.AuditRecorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, invalidator: invalidator, audit: audit, logger: logger, now: time.Now}
}

// Get returns one row.
func (s *Service) Get(ctx context.Context, id int64) (RoleRight, error) {
	return s.repo.Get(ctx, id)
}

// ListByRole returns the role's rows joined with menu fields.
func (s *Service) ListByRole(ctx context.Context, roleID int64) ([]RoleRightWithMenu, error) {
	return s.repo.ListByRole(ctx, roleID)
}

// MasksForRole returns menu id → mask for one role.
func (s *Service) MasksForRole(ctx context.Context, roleID int64) (map[int64]shared.Mask, error) {
	return s.repo.MasksForRole(ctx, roleID)
}

// Create inserts a new row; an existing (role, menu) row is a conflict.
func (s *Service) Create(ctx context.Context, actor *int64, in CreateInput) (RoleRight, error) {
	if err := shared.ValidateStruct(in); err != nil {
		return RoleRight{}, err
	}
	if err := shared.CheckMonotonic("mask", in.Mask); err != nil {
		return RoleRight{}, err
	}
	var created RoleRight
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := requireRefs(ctx, tx, in.RoleID, []int64{in.MenuID}); err != nil {
			return err
		}
		if _, found, err := tx.Find(ctx, in.RoleID, in.MenuID); err != nil {
			return err
		} else if found {
			return shared.Conflict("menu_id", shared.CodeDuplicateRight, "role already has a right on this menu")
		}
		var err error
		created, err = tx.Insert(ctx, s.newRow(actor, in.RoleID, in.MenuID, in.Mask))
		return err
	})
	if err != nil {
		return RoleRight{}, shared.Upstream("rights: create", err)
	}
	s.afterWrite(ctx, actor, in.RoleID, "role_right.create", strconv.FormatInt(created.ID, 10), map[string]any{
		"menu_id": in.MenuID, "mask": in.Mask,
	})
	return created, nil
}

// Upsert creates or replaces the row for (roleID, menuID).
func (s *Service) Upsert(ctx context.Context, actor *int64, roleID, menuID int64, mask shared.Mask) (RoleRight, bool, error) {
	if err := shared.CheckMonotonic("mask", mask); err != nil {
		return RoleRight{}, false, err
	}
	var (
		row     RoleRight
		created bool
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := requireRefs(ctx, tx, roleID, []int64{menuID}); err != nil {
			return err
		}
		var err error
		row, created, err = tx.Upsert(ctx, s.newRow(actor, roleID, menuID, mask))
		return err
	})
	if err != nil {
		return RoleRight{}, false, shared.Upstream("rights: upsert", err)
	}
	s.afterWrite(ctx, actor, roleID, "role_right.upsert", strconv.FormatInt(row.ID, 10), map[string]any{
		"menu_id": menuID, "mask": mask, "created": created,
	})
	return row, created, nil
}

// BulkUpsert applies every row in one transaction; any invalid row rejects
// the whole batch.
func (s *Service) BulkUpsert(ctx context.Context, actor *int64, in BulkInput) (BulkResult, error) {
	if err := shared.ValidateStruct(in); err != nil {
		return BulkResult{}, err
	}
	seen := make(map[int64]int, len(in.Rights))
	menuIDs := make([]int64, 0, len(in.Rights))
	for i, item := range in.Rights {
		field := fmt.Sprintf("rights[%d]", i)
		if err := shared.CheckMonotonic(field+".mask", item.Mask); err != nil {
			return BulkResult{}, err
		}
		if prev, dup := seen[item.MenuID]; dup {
			return BulkResult{}, shared.Validation(field+".menu_id", shared.CodeDuplicateMenu,
				fmt.Sprintf("menu %d repeats rights[%d]", item.MenuID, prev))
		}
		seen[item.MenuID] = i
		menuIDs = append(menuIDs, item.MenuID)
	}

	var result BulkResult
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := requireRefs(ctx, tx, in.RoleID, menuIDs); err != nil {
			return err
		}
		for _, item := range in.Rights {
			_, created, err := tx.Upsert(ctx, s.newRow(actor, in.RoleID, item.MenuID, item.Mask))
			if err != nil {
				return err
			}
			if created {
				result.Created++
			} else {
				result.Updated++
			}
		}
		return nil
	})
	if err != nil {
		return BulkResult{}, shared.Upstream("rights: bulk upsert", err)
	}
	s.afterWrite(ctx, actor, in.RoleID, "role_right.bulk_upsert", strconv.FormatInt(in.RoleID, 10), map[string]any{
		"created": result.Created, "updated": result.Updated,
	})
	return result, nil
}

// Update replaces the mask of an existing row.
func (s *Service) Update(ctx context.Context, actor *int64, id int64, mask shared.Mask) (RoleRight, error) {
	if err := shared.CheckMonotonic("mask", mask); err != nil {
		return RoleRight{}, err
	}
	var updated RoleRight
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if current.Mask() == mask {
			updated = current
			return nil
		}
		current.SetMask(mask)
		current.Touch(actor, s.now().UTC())
		updated, err = tx.Update(ctx, current)
		return err
	})
	if err != nil {
		return RoleRight{}, shared.Upstream("rights: update", err)
	}
	s.afterWrite(ctx, actor, updated.RoleID, "role_right.update", strconv.FormatInt(id, 10), map[string]any{
		"menu_id": updated.MenuID, "mask": mask,
	})
	return updated, nil
}

// Delete removes the row for (roleID, menuID).
func (s *Service) Delete(ctx context.Context, actor *int64, roleID, menuID int64) error {
	var removed RoleRight
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		row, found, err := tx.Find(ctx, roleID, menuID)
		if err != nil {
			return err
		}
		if !found {
			return &shared.AuthzError{Kind: shared.KindNotFound, Code: "role_right_not_found", Entity: "role_right",
				Message: fmt.Sprintf("role %d has no right on menu %d", roleID, menuID)}
		}
		removed = row
		return tx.Delete(ctx, row.ID)
	})
	if err != nil {
		return shared.Upstream("rights: delete", err)
	}
	s.afterWrite(ctx, actor, roleID, "role_right.delete", strconv.FormatInt(removed.ID, 10), map[string]any{"menu_id": menuID})
	return nil
}

// DeleteByID removes one row by id.
func (s *Service) DeleteByID(ctx context.Context, actor *int64, id int64) error {
	var removed RoleRight
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		row, err := tx.GetByID(ctx, id)
		if err != nil {
			return err
		}
		removed = row
		return tx.Delete(ctx, id)
	})
	if err != nil {
		return shared.Upstream("rights: delete", err)
	}
	s.afterWrite(ctx, actor, removed.RoleID, "role_right.delete", strconv.FormatInt(id, 10), map[string]any{"menu_id": removed.MenuID})
	return nil
}

// DeleteByRole removes every row of a role.
func (s *Service) DeleteByRole(ctx context.Context, roleID int64) (int64, error) {
	var n int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		n, err = tx.DeleteByRole(ctx, roleID)
		return err
	})
	if err != nil {
		return 0, shared.Upstream("rights: delete by role", err)
	}
	s.invalidate(ctx, roleID)
	return n, nil
}

// DeleteByMenu removes every row referencing a menu, across roles.
func (s *Service) DeleteByMenu(ctx context.Context, menuID int64) (int64, error) {
	var n int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		n, err = tx.DeleteByMenu(ctx, menuID)
		return err
	})
	if err != nil {
		return 0, shared.Upstream("rights: delete by menu", err)
	}
	// every role may have lost a row
	s.invalidate(ctx, 0)
	return n, nil
}

func (s *Service) newRow(actor *int64, roleID, menuID int64, mask shared.Mask) RoleRight {
	rr := RoleRight{RoleID: roleID, MenuID: menuID, Audit: shared.NewAudit(actor, s.now().UTC())}
	rr.SetMask(mask)
	return rr
}

func (s *Service) afterWrite(ctx context.Context, actor *int64, roleID int64, action, entityID string, meta map[string]any) {
	s.invalidate(ctx, roleID)
	shared.RecordAudit(ctx, s.audit, s.logger, shared.AuditLog{
		ActorID:  actor,
		Action:   action,
		Entity:   "role_rights",
		EntityID: entityID,
		Meta:     meta,
	})
}

// invalidate drops one role's masks; roleID 0 drops every role.
func (s *Service) invalidate(ctx context.Context, roleID int64) {
	if s.invalidator == nil {
		return
	}
	s.invalidator.InvalidateMatrix(ctx, roleID)
}

func requireRefs(ctx context.Context, tx TxRepository, roleID int64, menuIDs []int64) error {
	ok, err := tx.RoleExists(ctx, roleID)
	if err != nil {
		return err
	}
	if !ok {
		return shared.NotFound("role", roleID)
	}
	missing, err := tx.MissingMenus(ctx, menuIDs)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return shared.NotFound("menu", missing[0])
	}
	return nil
}
