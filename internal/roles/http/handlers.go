package roleshttp

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ChandrashakerVarma/LMS-sub000/internal/platform/httpx"
	"github.com/ChandrashakerVarma/LMS-sub000/internal/roles"
	"github.com/ChandrashakerVarma/LMS-sub000/internal/shared"
)

// Service is the role registry contract.
type Service interface {
	List(ctx context.Context) ([]roles.Role, error)
	Get(ctx context.Context, id int64) (roles.Role, error)
	Create(ctx context.Context, actor shared.Principal, in roles.Input) (roles.Role, error)
	Rename(ctx context.Context, actor shared.Principal, id int64, in roles.Input) (roles.Role, error)
	Delete(ctx context.Context, actor shared.Principal, id int64) error
}

// Handler serves /roles.
type Handler struct {
	logger  *slog.Logger
	service Service
}

// NewHandler builds a role handler.
func NewHandler(logger *slog.Logger, service Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.List(r.Context())
	if err != nil {
		httpx.Fail(w, h.logger, "list roles", err)
		return
	}
	if out == nil {
		out = []roles.Role{}
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	role, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.Fail(w, h.logger, "get role", err)
		return
	}
	httpx.JSON(w, http.StatusOK, role)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var in roles.Input
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := shared.PrincipalFromContext(r.Context())
	role, err := h.service.Create(r.Context(), actor, in)
	if err != nil {
		httpx.Fail(w, h.logger, "create role", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, role)
}

func (h *Handler) handleRename(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var in roles.Input
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := shared.PrincipalFromContext(r.Context())
	role, err := h.service.Rename(r.Context(), actor, id, in)
	if err != nil {
		httpx.Fail(w, h.logger, "rename role", err)
		return
	}
	httpx.JSON(w, http.StatusOK, role)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := shared.PrincipalFromContext(r.Context())
	if err := h.service.Delete(r.Context(), actor, id); err != nil {
		httpx.Fail(w, h.logger, "delete role", err)
		return
	}
	httpx.NoContent(w)
}
