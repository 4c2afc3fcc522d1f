package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ChandrashakerVarma/LMS-sub000/internal/shared"
)

// Mode selects how the seeder reacts to a catalog hash mismatch.
type Mode string

const (
	// ModeIdempotent logs drift and records the new hash.
	ModeIdempotent Mode = "idempotent"
	// ModeStrictDrift refuses to start when the stored hash differs.
	ModeStrictDrift Mode = "strict-drift"
)

// ParseMode accepts the BOOTSTRAP_MODE values; empty selects idempotent.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeIdempotent:
		return ModeIdempotent, nil
	case ModeStrictDrift:
		return ModeStrictDrift, nil
	}
	return "", fmt.Errorf("bootstrap: unknown mode %q", s)
}

// ErrDrift is returned in strict mode when the stored catalog hash differs
// from the compiled one.
var ErrDrift = errors.New("bootstrap: catalog drift detected")

// Invalidator drops every cached authorization slice.
type Invalidator interface {
	InvalidateAll(ctx context.Context)
}

// Report summarises one seeding or verification pass.
type Report struct {
	RolesCreated  int     `json:"roles_created"`
	MenusCreated  int     `json:"menus_created"`
	RightsChanged int     `json:"rights_changed"`
	HashChanged   bool    `json:"hash_changed"`
	Drift         bool    `json:"drift"`
	StoredHash    string  `json:"stored_hash,omitempty"`
	CompiledHash  string  `json:"compiled_hash"`
	MissingMenus  []int64 `json:"missing_menus,omitempty"`
}

// Changed reports whether the pass wrote anything.
func (r Report) Changed() bool {
	return r.RolesCreated > 0 || r.MenusCreated > 0 || r.RightsChanged > 0 || r.HashChanged
}

// Seeder brings the store up to the compiled-in catalog.
type Seeder struct {
	store  Store
	inv    Invalidator
	mode   Mode
	logger *slog.Logger
}

// NewSeeder constructs a Seeder. inv may be nil.
func NewSeeder(store Store, inv Invalidator, mode Mode, logger *slog.Logger) *Seeder {
	if mode == "" {
		mode = ModeIdempotent
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{store: store, inv: inv, mode: mode, logger: logger}
}

// Run seeds roles, menus and baseline rights in one transaction, and grants
// admin every verb on every menu in the store. Existing rows are never
// modified except to add missing verbs.
func (s *Seeder) Run(ctx context.Context) (Report, error) {
	report := Report{CompiledHash: CatalogHash()}

	stored, ok, err := s.store.StoredHash(ctx)
	if err != nil {
		return report, shared.Upstream("bootstrap: read hash", err)
	}
	report.StoredHash = stored
	report.Drift = ok && stored != report.CompiledHash
	if report.Drift {
		if s.mode == ModeStrictDrift {
			return report, fmt.Errorf("%w: stored %s, compiled %s", ErrDrift, short(stored), short(report.CompiledHash))
		}
		s.logger.Warn("bootstrap catalog drift",
			slog.String("stored", short(stored)), slog.String("compiled", short(report.CompiledHash)))
	}

	err = s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		report.RolesCreated, report.MenusCreated, report.RightsChanged, report.HashChanged = 0, 0, 0, false

		roleIDs := make(map[string]int64, len(canonicalRoles))
		for _, name := range canonicalRoles {
			id, created, err := tx.EnsureRole(ctx, name)
			if err != nil {
				return err
			}
			roleIDs[name] = id
			if created {
				report.RolesCreated++
			}
		}

		for _, m := range canonicalMenus {
			created, err := tx.EnsureMenu(ctx, m)
			if err != nil {
				return err
			}
			if created {
				report.MenusCreated++
			}
		}
		if report.MenusCreated > 0 {
			if err := tx.AdvanceMenuSequence(ctx); err != nil {
				return err
			}
		}

		for _, g := range Baselines() {
			changed, err := tx.GrantRight(ctx, roleIDs[g.Role], g.MenuID, g.Mask)
			if err != nil {
				return err
			}
			if changed {
				report.RightsChanged++
			}
		}

		// operator-created menus get an admin row too
		menuIDs, err := tx.MenuIDs(ctx)
		if err != nil {
			return err
		}
		for _, id := range menuIDs {
			changed, err := tx.GrantRight(ctx, roleIDs[shared.RoleNameAdmin], id, shared.FullMask())
			if err != nil {
				return err
			}
			if changed {
				report.RightsChanged++
			}
		}

		changed, err := tx.SaveHash(ctx, report.CompiledHash)
		if err != nil {
			return err
		}
		report.HashChanged = changed
		return nil
	})
	if err != nil {
		return report, shared.Upstream("bootstrap: seed", err)
	}

	if report.Changed() && s.inv != nil {
		s.inv.InvalidateAll(ctx)
	}
	s.logger.Info("bootstrap complete",
		slog.Int("roles_created", report.RolesCreated),
		slog.Int("menus_created", report.MenusCreated),
		slog.Int("rights_changed", report.RightsChanged),
		slog.Bool("hash_changed", report.HashChanged))
	return report, nil
}

// Verify compares the store with the compiled catalog without writing.
func (s *Seeder) Verify(ctx context.Context) (Report, error) {
	report := Report{CompiledHash: CatalogHash()}
	stored, ok, err := s.store.StoredHash(ctx)
	if err != nil {
		return report, shared.Upstream("bootstrap: read hash", err)
	}
	report.StoredHash = stored
	report.Drift = !ok || stored != report.CompiledHash

	ids := make([]int64, 0, len(canonicalMenus))
	for _, m := range canonicalMenus {
		ids = append(ids, m.ID)
	}
	missing, err := s.store.MissingMenus(ctx, ids)
	if err != nil {
		return report, shared.Upstream("bootstrap: verify menus", err)
	}
	report.MissingMenus = missing
	return report, nil
}

// Healthy reports whether the administration menus guarding this subsystem
// are present and the catalog matches.
func (r Report) Healthy() bool {
	if r.Drift {
		return false
	}
	missing := make(map[int64]bool, len(r.MissingMenus))
	for _, id := range r.MissingMenus {
		missing[id] = true
	}
	for _, id := range shared.CoreMenus() {
		if missing[id] {
			return false
		}
	}
	return true
}

func short(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
