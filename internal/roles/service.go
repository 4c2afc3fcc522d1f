package roles

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/ChandrashakerVarma/LMS-sub000/internal/shared"
)

// Invalidator drops cached state derived from a role.
type Invalidator interface {
	InvalidateRole(ctx context.Context, roleID int64)
}

// Service handles role business logic.
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

// List returns all roles.
func (s *Service) List(ctx context.Context) ([]Role, error) {
	return s.repo.List(ctx)
}

// Get returns one role.
func (s *Service) Get(ctx context.Context, id int64) (Role, error) {
	return s.repo.Get(ctx, id)
}

// Create registers a role. Reserved names need a super admin.
func (s *Service) Create(ctx context.Context, actor shared.Principal, in Input) (Role, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := shared.ValidateStruct(in); err != nil {
		return Role{}, err
	}
	if err := checkReserved(actor, in.Name); err != nil {
		return Role{}, err
	}
	uid := actor.UserID
	role := Role{Name: in.Name, Audit: shared.NewAudit(&uid, s.now().UTC())}

	var created Role
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := ensureUniqueName(ctx, tx, in.Name, 0); err != nil {
			return err
		}
		var err error
		created, err = tx.Insert(ctx, role)
		return err
	})
	if err != nil {
		return Role{}, shared.Upstream("roles: create", err)
	}
	s.record(ctx, &uid, "role.create", created.ID, map[string]any{"name": created.Name})
	return created, nil
}

// Rename changes a role's name. Renaming to or from a reserved name needs a super admin.
func (s *Service) Rename(ctx context.Context, actor shared.Principal, id int64, in Input) (Role, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := shared.ValidateStruct(in); err != nil {
		return Role{}, err
	}
	if err := checkReserved(actor, in.Name); err != nil {
		return Role{}, err
	}
	uid := actor.UserID

	var updated Role
	var previous string
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := checkReserved(actor, current.Name); err != nil {
			return err
		}
		if err := ensureUniqueName(ctx, tx, in.Name, id); err != nil {
			return err
		}
		previous = current.Name
		current.Name = in.Name
		current.Touch(&uid, s.now().UTC())
		updated, err = tx.Update(ctx, current)
		return err
	})
	if err != nil {
		return Role{}, shared.Upstream("roles: rename", err)
	}
	s.invalidate(ctx, id)
	s.record(ctx, &uid, "role.rename", id, map[string]any{"from": previous, "to": updated.Name})
	return updated, nil
}

// Delete removes a role no user references, together with its matrix rows.
func (s *Service) Delete(ctx context.Context, actor shared.Principal, id int64) error {
	var removed Role
	var rights int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := checkReserved(actor, current.Name); err != nil {
			return err
		}
		users, err := tx.CountUsers(ctx, id)
		if err != nil {
			return err
		}
		if users > 0 {
			return shared.Conflict("id", shared.CodeRoleInUse, strconv.Itoa(users)+" user(s) still hold this role")
		}
		rights, err = tx.DeleteRights(ctx, id)
		if err != nil {
			return err
		}
		removed = current
		return tx.Delete(ctx, id)
	})
	if err != nil {
		return shared.Upstream("roles: delete", err)
	}
	s.invalidate(ctx, id)
	uid := actor.UserID
	s.record(ctx, &uid, "role.delete", id, map[string]any{"name": removed.Name, "rights_removed": rights})
	return nil
}

func (s *Service) invalidate(ctx context.Context, id int64) {
	if s.invalidator != nil {
		s.invalidator.InvalidateRole(ctx, id)
	}
}

func (s *Service) record(ctx context.Context, actor *int64, action string, id int64, meta map[string]any) {
	shared.RecordAudit(ctx, s.audit, s.logger, shared.AuditLog{
		ActorID:  actor,
		Action:   action,
		Entity:   "roles",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
	})
}

func checkReserved(actor shared.Principal, name string) error {
	if shared.RoleKindOf(name).Reserved() && !actor.IsSuperAdmin() {
		return shared.ForbiddenCode(shared.CodeReservedRole, "only a super admin may manage the "+shared.FoldName(name)+" role")
	}
	return nil
}

func ensureUniqueName(ctx context.Context, tx TxRepository, name string, selfID int64) error {
	existing, found, err := tx.FindByName(ctx, name)
	if err != nil {
		return err
	}
	if found && existing.ID != selfID && shared.FoldName(existing.Name) == shared.FoldName(name) {
		return shared.Conflict("name", shared.CodeDuplicateRole, "a role with this name already exists")
	}
	return nil
}
