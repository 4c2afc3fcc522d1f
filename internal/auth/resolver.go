package auth

import (
	"context"
	"strings"

	"github.com/ChandrashakerVarma/LMS-sub000/internal/authz"
	"github.com/ChandrashakerVarma/LMS-sub000/internal/shared"
	"github.com/ChandrashakerVarma/LMS-sub000/internal/users"
)

// AccountSource loads a user joined with its role.
type AccountSource interface {
	Account(ctx context.Context, userID int64) (users.Account, error)
}

// Resolver turns an Authorization header into a Principal.
type Resolver struct {
	tokens   *TokenManager
	accounts AccountSource
	cache    *authz.AuthzCache
}

// NewResolver constructs a Resolver. cache may be nil.
func NewResolver(tokens *TokenManager, accounts AccountSource, cache *authz.AuthzCache) *Resolver {
	return &Resolver{tokens: tokens, accounts: accounts, cache: cache}
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	if strings.TrimSpace(header) == "" {
		return "", shared.Unauthenticated(shared.CodeTokenMissing)
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", shared.Unauthenticated(shared.CodeTokenMalformed)
	}
	return strings.TrimSpace(parts[1]), nil
}

// Resolve decodes header and loads the principal. Expired or forged tokens
// fail before the store is consulted.
func (r *Resolver) Resolve(ctx context.Context, header string) (shared.Principal, error) {
	raw, err := BearerToken(header)
	if err != nil {
		return shared.Principal{}, err
	}
	userID, err := r.tokens.Parse(raw)
	if err != nil {
		return shared.Principal{}, err
	}
	return r.PrincipalFor(ctx, userID)
}

// PrincipalFor loads the principal of userID through the cache.
func (r *Resolver) PrincipalFor(ctx context.Context, userID int64) (shared.Principal, error) {
	if r.cache == nil {
		return r.load(ctx, userID)
	}
	return r.cache.Principal(ctx, userID, r.load)
}

func (r *Resolver) load(ctx context.Context, userID int64) (shared.Principal, error) {
	acct, err := r.accounts.Account(ctx, userID)
	if err != nil {
		if shared.KindOf(err) == shared.KindNotFound {
			return shared.Principal{}, shared.Unauthenticated(shared.CodePrincipalNotFound)
		}
		return shared.Principal{}, shared.Upstream("auth: load principal", err)
	}
	if !acct.Usable() {
		return shared.Principal{}, shared.Unauthenticated(shared.CodePrincipalNotFound)
	}
	p := shared.Principal{
		UserID:        acct.ID,
		TenantID:      acct.TenantID,
		IsTenantAdmin: acct.IsTenantAdmin,
	}
	if acct.RoleID != nil {
		name := ""
		if acct.RoleName != nil {
			name = *acct.RoleName
		}
		p.Role = &shared.RoleRef{ID: *acct.RoleID, Name: name, Kind: shared.RoleKindOf(name)}
	}
	return p, nil
}
