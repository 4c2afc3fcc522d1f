package menus

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/ChandrashakerVarma/LMS-sub000/internal/shared"
)

// maxDepth bounds ancestor walks; deeper chains are treated as cycles.
const maxDepth = 1024

// Invalidator drops cached catalog and matrix state after a catalog write.
type Invalidator interface {
	InvalidateMenus(ctx context.Context)
}

// Service handles catalog business logic.
type Service struct {
	repo        RepositoryPort
	invalidator Invalidator
	logger      *slog.Logger
	now         func() time.Time
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, invalidator Invalidator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, invalidator: invalidator, logger: logger, now: time.Now}
}

// List returns the flat catalog.
func (s *Service) List(ctx context.Context) ([]Menu, error) {
	out, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []Menu{}
	}
	return out, nil
}

// Get returns one menu.
func (s *Service) Get(ctx context.Context, id int64) (Menu, error) {
	return s.repo.Get(ctx, id)
}

// Tree returns the active forest; inactive menus hide their subtree.
func (s *Service) Tree(ctx context.Context) ([]*Node, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return BuildForest(all, ActiveOnly, false), nil
}

// Create inserts a menu after validating its parent.
func (s *Service) Create(ctx context.Context, actor *int64, in CreateInput) (Menu, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.DisplayName = strings.TrimSpace(in.DisplayName)
	if err := shared.ValidateStruct(in); err != nil {
		return Menu{}, err
	}
	active := true
	if in.Active != nil {
		active = *in.Active
	}
	now := s.now().UTC()
	m := Menu{
		Name:        in.Name,
		DisplayName: in.DisplayName,
		Route:       in.Route,
		Icon:        in.Icon,
		ParentID:    in.ParentID,
		OrderIndex:  in.OrderIndex,
		Active:      active,
		Audit:       shared.NewAudit(actor, now),
	}

	var created Menu
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if m.ParentID != nil {
			if err := requireParent(ctx, tx, *m.ParentID); err != nil {
				return err
			}
		}
		var err error
		created, err = tx.Insert(ctx, m)
		return err
	})
	if err != nil {
		return Menu{}, shared.Upstream("menus: create", err)
	}
	s.invalidate(ctx)
	s.logger.Info("menu created", slog.Int64("menu_id", created.ID), slog.String("name", created.Name))
	return created, nil
}

// Update applies a partial patch. Moving a menu under itself or one of its
// descendants is rejected.
func (s *Service) Update(ctx context.Context, actor *int64, id int64, patch Patch) (Menu, error) {
	if err := shared.ValidateStruct(patch); err != nil {
		return Menu{}, err
	}

	var updated Menu
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.Get(ctx, id)
		if err != nil {
			return err
		}
		if patch.Name != nil {
			current.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.DisplayName != nil {
			current.DisplayName = strings.TrimSpace(*patch.DisplayName)
		}
		if patch.Route.Set {
			current.Route = patch.Route.Value
		}
		if patch.Icon.Set {
			current.Icon = patch.Icon.Value
		}
		if patch.OrderIndex != nil {
			current.OrderIndex = *patch.OrderIndex
		}
		if patch.Active != nil {
			current.Active = *patch.Active
		}
		if patch.ParentID.Set {
			if patch.ParentID.Value != nil {
				if err := checkReparent(ctx, tx, id, *patch.ParentID.Value); err != nil {
					return err
				}
			}
			current.ParentID = patch.ParentID.Value
		}
		current.Touch(actor, s.now().UTC())
		updated, err = tx.Update(ctx, current)
		return err
	})
	if err != nil {
		return Menu{}, shared.Upstream("menus: update", err)
	}
	s.invalidate(ctx)
	return updated, nil
}

// Delete removes a leaf menu and every matrix row referencing it.
func (s *Service) Delete(ctx context.Context, id int64) error {
	var removedRights int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if _, err := tx.Get(ctx, id); err != nil {
			return err
		}
		children, err := tx.CountChildren(ctx, id)
		if err != nil {
			return err
		}
		if children > 0 {
			return shared.Conflict("id", shared.CodeMenuHasChildren, "menu has child menus; delete or move them first")
		}
		removedRights, err = tx.DeleteRights(ctx, id)
		if err != nil {
			return err
		}
		return tx.Delete(ctx, id)
	})
	if err != nil {
		return shared.Upstream("menus: delete", err)
	}
	s.invalidate(ctx)
	s.logger.Info("menu deleted", slog.Int64("menu_id", id), slog.Int64("rights_removed", removedRights))
	return nil
}

func (s *Service) invalidate(ctx context.Context) {
	if s.invalidator != nil {
		s.invalidator.InvalidateMenus(ctx)
	}
}

func requireParent(ctx context.Context, tx TxRepository, parentID int64) error {
	if _, err := tx.Get(ctx, parentID); err != nil {
		if shared.KindOf(err) == shared.KindNotFound {
			return shared.Validation("parent_id", shared.CodeUnknownParent, "parent menu does not exist")
		}
		return err
	}
	return nil
}

// checkReparent walks the ancestor chain of the candidate parent; meeting id
// on the way means the move would close a cycle.
func checkReparent(ctx context.Context, tx TxRepository, id, parentID int64) error {
	if parentID == id {
		return shared.Validation("parent_id", shared.CodeSelfParent, "menu cannot be its own parent")
	}
	if err := requireParent(ctx, tx, parentID); err != nil {
		return err
	}
	cur := parentID
	for depth := 0; depth < maxDepth; depth++ {
		next, err := tx.ParentOf(ctx, cur)
		if err != nil {
			return err
		}
		if next == nil {
			return nil
		}
		if *next == id {
			return shared.Conflict("parent_id", shared.CodeCycle, "new parent is a descendant of the menu")
		}
		cur = *next
	}
	return shared.Conflict("parent_id", shared.CodeCycle, "ancestor chain too deep")
}
