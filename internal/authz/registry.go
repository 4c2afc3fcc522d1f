package authz

import (
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/ChandrashakerVarma/LMS-sub000/internal/shared"
)

// Permission is the (menu, verb) pair a route requires. The zero value means
// any authenticated principal.
type Permission struct {
	MenuID int64
	Verb   shared.Verb
}

// Authenticated requires a principal but no matrix grant.
var Authenticated = Permission{}

// Need builds a Permission.
func Need(menuID int64, verb shared.Verb) Permission {
	return Permission{MenuID: menuID, Verb: verb}
}

// Route is one entry of the static route table.
type Route struct {
	Method  string      `json:"method"`
	Pattern string      `json:"pattern"`
	MenuID  int64       `json:"menu_id,omitempty"`
	Verb    shared.Verb `json:"verb,omitempty"`
}

// Registry installs gates while recording which permission each route needs.
// The table is complete once the router has been built.
type Registry struct {
	gate *Gate

	mu     sync.RWMutex
	routes []Route
}

// NewRegistry builds a Registry enforcing through gate.
func NewRegistry(gate *Gate) *Registry {
	return &Registry{gate: gate}
}

// Routes returns the table sorted by pattern then method.
func (reg *Registry) Routes() []Route {
	reg.mu.RLock()
	out := make([]Route, len(reg.routes))
	copy(out, reg.routes)
	reg.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Pattern != out[j].Pattern {
			return out[i].Pattern < out[j].Pattern
		}
		return out[i].Method < out[j].Method
	})
	return out
}

// Lookup finds the permission recorded for method and pattern.
func (reg *Registry) Lookup(method, pattern string) (Permission, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	for _, rt := range reg.routes {
		if rt.Method == method && rt.Pattern == pattern {
			return Permission{MenuID: rt.MenuID, Verb: rt.Verb}, true
		}
	}
	return Permission{}, false
}

// Mount routes prefix on router and hands fn a Mount for declaring guarded routes.
func (reg *Registry) Mount(router chi.Router, prefix string, fn func(m *Mount)) {
	router.Route(prefix, func(r chi.Router) {
		fn(&Mount{router: r, prefix: strings.TrimSuffix(prefix, "/"), reg: reg})
	})
}

func (reg *Registry) record(rt Route) {
	reg.mu.Lock()
	reg.routes = append(reg.routes, rt)
	reg.mu.Unlock()
}

// Mount declares guarded routes under a prefix.
type Mount struct {
	router chi.Router
	prefix string
	reg    *Registry
}

// Use adds middleware to the mounted sub-router.
func (m *Mount) Use(middlewares ...func(http.Handler) http.Handler) {
	m.router.Use(middlewares...)
}

// Handle registers h behind the gate for perm.
func (m *Mount) Handle(method, pattern string, perm Permission, h http.HandlerFunc) {
	var guard func(http.Handler) http.Handler
	if perm == Authenticated {
		guard = m.reg.gate.RequireAuthenticated()
	} else {
		guard = m.reg.gate.Require(perm.MenuID, perm.Verb)
	}
	m.router.With(guard).Method(method, pattern, h)

	full := m.prefix + pattern
	if pattern == "/" && m.prefix != "" {
		full = m.prefix
	}
	m.reg.record(Route{Method: method, Pattern: full, MenuID: perm.MenuID, Verb: perm.Verb})
}

func (m *Mount) Get(pattern string, perm Permission, h http.HandlerFunc) {
	m.Handle(http.MethodGet, pattern, perm, h)
}

func (m *Mount) Post(pattern string, perm Permission, h http.HandlerFunc) {
	m.Handle(http.MethodPost, pattern, perm, h)
}

func (m *Mount) Put(pattern string, perm Permission, h http.HandlerFunc) {
	m.Handle(http.MethodPut, pattern, perm, h)
}

func (m *Mount) Delete(pattern string, perm Permission, h http.HandlerFunc) {
	m.Handle(http.MethodDelete, pattern, perm, h)
}
