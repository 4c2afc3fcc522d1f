package cli

import (
	"fmt"
	"time"
)

// Issuer signs access tokens.
type Issuer interface {
	Issue(userID int64) (string, time.Time, error)
}

// TokenOptions configures the token command.
type TokenOptions struct {
	UserID int64
	BootstrapOptions
}

type tokenOutput struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TokenCommand prints a bearer token for a user. It does not check that the
// user exists; the resolver does that on use.
func TokenCommand(issuer Issuer, opts TokenOptions) int {
	opts.defaults()
	if opts.UserID <= 0 {
		fmt.Fprintln(opts.Stderr, "token: -user must be a positive id")
		return ExitError
	}
	raw, exp, err := issuer.Issue(opts.UserID)
	if err != nil {
		fmt.Fprintf(opts.Stderr, "token: %v\n", err)
		return ExitError
	}
	if opts.JSONOutput {
		return writeJSON(opts.BootstrapOptions, tokenOutput{Token: raw, ExpiresAt: exp.UTC()})
	}
	fmt.Fprintln(opts.Stdout, raw)
	return ExitOK
}
