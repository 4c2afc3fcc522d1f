package authz

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ChandrashakerVarma/LMS-sub000/internal/platform/httpx"
	"github.com/ChandrashakerVarma/LMS-sub000/internal/shared"
)

// MaskSource loads a role's matrix row set from the store.
type MaskSource interface {
	MasksForRole(ctx context.Context, roleID int64) (map[int64]shared.Mask, error)
}

// Gate decides whether a principal may perform a verb on a menu.
type Gate struct {
	cache   *AuthzCache
	source  MaskSource
	logger  *slog.Logger
	metrics *Metrics
}

// NewGate constructs a Gate reading masks through cache.
func NewGate(cache *AuthzCache, source MaskSource, metrics *Metrics, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{cache: cache, source: source, metrics: metrics, logger: logger}
}

// MasksFor returns the principal's masks keyed by menu id. Admins are not
// represented here; callers check IsAdmin first.
func (g *Gate) MasksFor(ctx context.Context, p shared.Principal) (map[int64]shared.Mask, error) {
	roleID, ok := p.RoleID()
	if !ok {
		return map[int64]shared.Mask{}, nil
	}
	masks, err := g.cache.Masks(ctx, roleID, g.source.MasksForRole)
	if err != nil {
		return nil, shared.Upstream("authz: load masks", err)
	}
	return masks, nil
}

// MaskFor returns the effective mask on one menu. Admins get every verb.
func (g *Gate) MaskFor(ctx context.Context, p shared.Principal, menuID int64) (shared.Mask, error) {
	if p.IsAdmin() {
		return shared.FullMask(), nil
	}
	masks, err := g.MasksFor(ctx, p)
	if err != nil {
		return shared.Mask{}, err
	}
	return masks[menuID], nil
}

// Allow reports whether p holds verb on menuID. A missing row denies.
func (g *Gate) Allow(ctx context.Context, p shared.Principal, menuID int64, verb shared.Verb) (bool, error) {
	mask, err := g.MaskFor(ctx, p, menuID)
	if err != nil {
		return false, err
	}
	return mask.Has(verb), nil
}

// Check evaluates the principal stored in ctx.
func (g *Gate) Check(ctx context.Context, menuID int64, verb shared.Verb) error {
	p, ok := shared.PrincipalFromContext(ctx)
	if !ok {
		g.metrics.decision(verb, "unauthenticated")
		return shared.Unauthenticated(shared.CodeTokenMissing)
	}
	allowed, err := g.Allow(ctx, p, menuID, verb)
	if err != nil {
		g.metrics.decision(verb, "error")
		return err
	}
	if !allowed {
		g.metrics.decision(verb, "deny")
		g.logger.Debug("authz denied",
			slog.Int64("user_id", p.UserID), slog.Int64("menu_id", menuID), slog.String("verb", string(verb)))
		return shared.Forbidden(menuID, verb)
	}
	g.metrics.decision(verb, "allow")
	return nil
}

// Require returns middleware admitting only principals holding verb on menuID.
func (g *Gate) Require(menuID int64, verb shared.Verb) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if ctx.Err() != nil {
				return
			}
			if err := g.Check(ctx, menuID, verb); err != nil {
				if shared.KindOf(err) == shared.KindUpstream {
					g.logger.Error("authz gate failed", slog.Int64("menu_id", menuID), slog.Any("error", err))
				}
				httpx.RespondError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuthenticated admits any resolved principal.
func (g *Gate) RequireAuthenticated() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Context().Err() != nil {
				return
			}
			if _, ok := shared.PrincipalFromContext(r.Context()); !ok {
				httpx.RespondError(w, shared.Unauthenticated(shared.CodeTokenMissing))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
