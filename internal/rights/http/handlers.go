package rightshttp

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ChandrashakerVarma/LMS-sub000/internal/platform/httpx"
	"github.com/ChandrashakerVarma/LMS-sub000/internal/rights"
	"github.com/ChandrashakerVarma/LMS-sub000/internal/shared"
)

// Service is the matrix contract the handlers need.
type Service interface {
	Get(ctx context.Context, id int64) (rights.RoleRight, error)
	ListByRole(ctx context.Context, roleID int64) ([]rights.RoleRightWithMenu, error)
	Create(ctx context.Context, actor *int64, in rights.CreateInput) (rights.RoleRight, error)
	BulkUpsert(ctx context.Context, actor *int64, in rights.BulkInput) (rights.BulkResult, error)
	Update(ctx context.Context, actor *int64, id int64, mask shared.Mask) (rights.RoleRight, error)
	Delete(ctx context.Context, actor *int64, roleID, menuID int64) error
	DeleteByID(ctx context.Context, actor *int64, id int64) error
}

// MaskChecker evaluates the caller's effective mask on a menu.
type MaskChecker interface {
	MaskFor(ctx context.Context, p shared.Principal, menuID int64) (shared.Mask, error)
}

// Handler serves /role-rights.
type Handler struct {
	logger  *slog.Logger
	service Service
	checker MaskChecker
}

// NewHandler builds a matrix handler.
func NewHandler(logger *slog.Logger, service Service, checker MaskChecker) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, checker: checker}
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var in rights.CreateInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	row, err := h.service.Create(r.Context(), shared.ActorFromContext(r.Context()), in)
	if err != nil {
		httpx.Fail(w, h.logger, "create role right", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, row)
}

func (h *Handler) handleBulk(w http.ResponseWriter, r *http.Request) {
	var in rights.BulkInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	result, err := h.service.BulkUpsert(r.Context(), shared.ActorFromContext(r.Context()), in)
	if err != nil {
		httpx.Fail(w, h.logger, "bulk upsert role rights", err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) handleListByRole(w http.ResponseWriter, r *http.Request) {
	roleID, err := httpx.PathID(r, "role_id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	rows, err := h.service.ListByRole(r.Context(), roleID)
	if err != nil {
		httpx.Fail(w, h.logger, "list role rights", err)
		return
	}
	httpx.JSON(w, http.StatusOK, rows)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	row, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.Fail(w, h.logger, "get role right", err)
		return
	}
	httpx.JSON(w, http.StatusOK, row)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var in rights.MaskInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	row, err := h.service.Update(r.Context(), shared.ActorFromContext(r.Context()), id, in.Mask)
	if err != nil {
		httpx.Fail(w, h.logger, "update role right", err)
		return
	}
	httpx.JSON(w, http.StatusOK, row)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.DeleteByID(r.Context(), shared.ActorFromContext(r.Context()), id); err != nil {
		httpx.Fail(w, h.logger, "delete role right", err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) handleDeletePair(w http.ResponseWriter, r *http.Request) {
	roleID, err := httpx.PathID(r, "role_id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	menuID, err := httpx.PathID(r, "menu_id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), shared.ActorFromContext(r.Context()), roleID, menuID); err != nil {
		httpx.Fail(w, h.logger, "delete role right", err)
		return
	}
	httpx.NoContent(w)
}

// handleCheckPermission reports the caller's own mask; it reads through the
// same cache as the gate, so a matrix write is visible immediately.
func (h *Handler) handleCheckPermission(w http.ResponseWriter, r *http.Request) {
	menuID, err := httpx.PathID(r, "menu_id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, _ := shared.PrincipalFromContext(r.Context())
	mask, err := h.checker.MaskFor(r.Context(), p, menuID)
	if err != nil {
		httpx.Fail(w, h.logger, "check permission", err)
		return
	}
	httpx.JSON(w, http.StatusOK, mask)
}
