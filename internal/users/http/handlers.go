package usershttp

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ChandrashakerVarma/LMS-sub000/internal/platform/httpx"
	"github.com/ChandrashakerVarma/LMS-sub000/internal/shared"
	"github.com/ChandrashakerVarma/LMS-sub000/internal/users"
)

// Service is the user contract the handlers need.
type Service interface {
	ListUsers(ctx context.Context) ([]users.User, error)
	AssignRole(ctx context.Context, actor shared.Principal, userID int64, roleID *int64) (users.User, error)
}

// AssignRoleInput is the body of PUT /users/{id}/role; a null role_id
// leaves the user without a role.
type AssignRoleInput struct {
	RoleID *int64 `json:"role_id" validate:"omitempty,gt=0"`
}

// Handler serves /users.
type Handler struct {
	logger  *slog.Logger
	service Service
}

// NewHandler builds a user handler.
func NewHandler(logger *slog.Logger, service Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.ListUsers(r.Context())
	if err != nil {
		httpx.Fail(w, h.logger, "list users", err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) handleAssignRole(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var in AssignRoleInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := shared.ValidateStruct(in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := shared.PrincipalFromContext(r.Context())
	u, err := h.service.AssignRole(r.Context(), actor, id, in.RoleID)
	if err != nil {
		httpx.Fail(w, h.logger, "assign role", err)
		return
	}
	httpx.JSON(w, http.StatusOK, u)
}
