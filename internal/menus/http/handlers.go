package menushttp

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ChandrashakerVarma/LMS-sub000/internal/menus"
	"github.com/ChandrashakerVarma/LMS-sub000/internal/platform/httpx"
	"github.com/ChandrashakerVarma/LMS-sub000/internal/shared"
)

// Service is the catalog contract the handlers need.
type Service interface {
	List(ctx context.Context) ([]menus.Menu, error)
	Get(ctx context.Context, id int64) (menus.Menu, error)
	Tree(ctx context.Context) ([]*menus.Node, error)
	Create(ctx context.Context, actor *int64, in menus.CreateInput) (menus.Menu, error)
	Update(ctx context.Context, actor *int64, id int64, patch menus.Patch) (menus.Menu, error)
	Delete(ctx context.Context, id int64) error
}

// Projector renders the caller's navigation.
type Projector interface {
	Project(ctx context.Context, principal shared.Principal) ([]*menus.Node, error)
}

// Handler serves the catalog endpoints.
type Handler struct {
	logger    *slog.Logger
	service   Service
	projector Projector
}

// NewHandler builds a catalog handler.
func NewHandler(logger *slog.Logger, service Service, projector Projector) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, projector: projector}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.List(r.Context())
	if err != nil {
		httpx.Fail(w, h.logger, "list menus", err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) handleTree(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.Tree(r.Context())
	if err != nil {
		httpx.Fail(w, h.logger, "menu tree", err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) handleUserMenus(w http.ResponseWriter, r *http.Request) {
	p, _ := shared.PrincipalFromContext(r.Context())
	out, err := h.projector.Project(r.Context(), p)
	if err != nil {
		httpx.Fail(w, h.logger, "project menus", err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	m, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.Fail(w, h.logger, "get menu", err)
		return
	}
	httpx.JSON(w, http.StatusOK, m)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var in menus.CreateInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	m, err := h.service.Create(r.Context(), shared.ActorFromContext(r.Context()), in)
	if err != nil {
		httpx.Fail(w, h.logger, "create menu", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, m)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var patch menus.Patch
	if err := httpx.DecodeJSON(r, &patch); err != nil {
		httpx.RespondError(w, err)
		return
	}
	m, err := h.service.Update(r.Context(), shared.ActorFromContext(r.Context()), id, patch)
	if err != nil {
		httpx.Fail(w, h.logger, "update menu", err)
		return
	}
	httpx.JSON(w, http.StatusOK, m)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.Fail(w, h.logger, "delete menu", err)
		return
	}
	httpx.NoContent(w)
}
