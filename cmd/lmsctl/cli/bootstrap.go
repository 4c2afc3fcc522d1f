package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ChandrashakerVarma/LMS-sub000/internal/bootstrap"
)

// Exit codes shared by every command.
const (
	ExitOK    = 0
	ExitError = 1
	ExitDrift = 2
)

// Seeder is the bootstrap surface the CLI drives.
type Seeder interface {
	Run(ctx context.Context) (bootstrap.Report, error)
	Verify(ctx context.Context) (bootstrap.Report, error)
}

// BootstrapCLI seeds and verifies the authorization catalog.
type BootstrapCLI struct {
	seeder Seeder
}

// NewBootstrapCLI constructs the helper.
func NewBootstrapCLI(seeder Seeder) (*BootstrapCLI, error) {
	if seeder == nil {
		return nil, errors.New("bootstrap cli: seeder is required")
	}
	return &BootstrapCLI{seeder: seeder}, nil
}

// BootstrapOptions configures output for the bootstrap commands.
type BootstrapOptions struct {
	JSONOutput bool
	Stdout     io.Writer
	Stderr     io.Writer
}

func (o *BootstrapOptions) defaults() {
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
}

// SeedCommand applies the compiled catalog. A strict seeder refusing drift
// exits with ExitDrift.
func (c *BootstrapCLI) SeedCommand(ctx context.Context, opts BootstrapOptions) int {
	opts.defaults()
	report, err := c.seeder.Run(ctx)
	if err != nil {
		fmt.Fprintf(opts.Stderr, "bootstrap: %v\n", err)
		if errors.Is(err, bootstrap.ErrDrift) {
			return ExitDrift
		}
		return ExitError
	}
	if opts.JSONOutput {
		return writeJSON(opts, report)
	}
	fmt.Fprintf(opts.Stdout, "roles created:  %d\n", report.RolesCreated)
	fmt.Fprintf(opts.Stdout, "menus created:  %d\n", report.MenusCreated)
	fmt.Fprintf(opts.Stdout, "rights changed: %d\n", report.RightsChanged)
	fmt.Fprintf(opts.Stdout, "catalog hash:   %s\n", report.CompiledHash)
	return ExitOK
}

// VerifyCommand reports drift without writing. It exits ExitDrift when the
// stored hash differs or any canonical menu is missing.
func (c *BootstrapCLI) VerifyCommand(ctx context.Context, opts BootstrapOptions) int {
	opts.defaults()
	report, err := c.seeder.Verify(ctx)
	if err != nil {
		fmt.Fprintf(opts.Stderr, "verify: %v\n", err)
		return ExitError
	}
	code := ExitOK
	if report.Drift || len(report.MissingMenus) > 0 {
		code = ExitDrift
	}
	if opts.JSONOutput {
		if rc := writeJSON(opts, report); rc != ExitOK {
			return rc
		}
		return code
	}
	stored := report.StoredHash
	if stored == "" {
		stored = "(none)"
	}
	fmt.Fprintf(opts.Stdout, "compiled hash: %s\n", report.CompiledHash)
	fmt.Fprintf(opts.Stdout, "stored hash:   %s\n", stored)
	if len(report.MissingMenus) > 0 {
		fmt.Fprintf(opts.Stdout, "missing menus: %v\n", report.MissingMenus)
	}
	if code == ExitOK {
		fmt.Fprintln(opts.Stdout, "catalog in sync")
	} else {
		fmt.Fprintln(opts.Stdout, "catalog drift detected")
	}
	return code
}

func writeJSON(opts BootstrapOptions, v any) int {
	enc := json.NewEncoder(opts.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(opts.Stderr, "encode: %v\n", err)
		return ExitError
	}
	return ExitOK
}
