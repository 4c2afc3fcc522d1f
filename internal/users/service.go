package users

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/ChandrashakerVarma/LMS-sub000/internal/shared"
)

// RoleGuard vets a role change given the names of the user's current and
// requested roles (nil for none). It runs inside the write transaction.
type RoleGuard func(current, next *string) error

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context) ([]User, error)
	SetRole(ctx context.Context, userID int64, roleID *int64, guard RoleGuard) (User, error)
}

// Invalidator drops a cached principal.
type Invalidator interface {
	InvalidateUser(ctx context.Context, userID int64)
}

// Service handles user business logic.
type Service struct {
	repo        RepositoryPort
	invalidator Invalidator
	audit       shared.AuditRecorder
	logger      *slog.Logger
}

// NewService builds Service instance. audit may be nil.
func NewService(repo RepositoryPort, invalidator Invalidator, audit shared.AuditRecorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, invalidator: invalidator, audit: audit, logger: logger}
}

// ListUsers returns all users.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.repo.ListUsers(ctx)
}

// AssignRole sets (or clears, with nil) a user's role. Granting or taking
// away a reserved role needs a super admin. The user's cached principal is
// dropped before returning.
func (s *Service) AssignRole(ctx context.Context, actor shared.Principal, userID int64, roleID *int64) (User, error) {
	u, err := s.repo.SetRole(ctx, userID, roleID, reservedGuard(actor))
	if err != nil {
		return User{}, err
	}
	uid := actor.UserID
	if s.invalidator != nil {
		s.invalidator.InvalidateUser(ctx, userID)
	}
	shared.RecordAudit(ctx, s.audit, s.logger, shared.AuditLog{
		ActorID:  &uid,
		Action:   "user.assign_role",
		Entity:   "users",
		EntityID: strconv.FormatInt(userID, 10),
		Meta:     map[string]any{"role_id": roleID},
	})
	return u, nil
}

func reservedGuard(actor shared.Principal) RoleGuard {
	return func(current, next *string) error {
		if actor.IsSuperAdmin() {
			return nil
		}
		for _, name := range []*string{current, next} {
			if name != nil && shared.RoleKindOf(*name).Reserved() {
				return shared.ForbiddenCode(shared.CodeReservedRole,
					"only a super admin may grant or revoke the "+shared.FoldName(*name)+" role")
			}
		}
		return nil
	}
}
