package shared

import (
	"errors"
	"fmt"
	"strconv"
)

// Kind classifies an authorization-subsystem failure. The HTTP adapter maps
// each kind to exactly one status code.
type Kind string

const (
	KindUnauthenticated Kind = "unauthenticated"
	KindForbidden       Kind = "forbidden"
	KindNotFound        Kind = "not_found"
	KindValidation      Kind = "validation"
	KindConflict        Kind = "conflict"
	KindUpstream        Kind = "upstream"
)

// Stable machine codes carried by AuthzError.Code.
const (
	CodeTokenMissing      = "token_missing"
	CodeTokenMalformed    = "token_malformed"
	CodeTokenInvalid      = "token_invalid"
	CodeTokenExpired      = "token_expired"
	CodePrincipalNotFound = "principal_not_found"

	CodeDenied       = "denied"
	CodeReservedRole = "reserved_role"

	CodeInvalidPayload   = "invalid_payload"
	CodeUnknownParent    = "unknown_parent"
	CodeSelfParent       = "self_parent"
	CodeCycle            = "cycle"
	CodeMenuHasChildren  = "menu_has_children"
	CodeVerbMonotonicity = "verb_monotonicity"
	CodeDuplicateMenu    = "duplicate_menu"
	CodeDuplicateRole    = "duplicate_role"
	CodeDuplicateRight   = "duplicate_role_right"
	CodeRoleInUse        = "role_in_use"
	CodeStoreUnavailable = "store_unavailable"
)

// AuthzError is the single error type returned across the authorization core.
type AuthzError struct {
	Kind      Kind
	Code      string
	Message   string
	Entity    string
	Field     string
	Invariant string
	MenuID    int64
	Verb      Verb
	Err       error
}

// Sentinels usable with errors.Is; they match any AuthzError of the same kind.
var (
	ErrUnauthenticated = &AuthzError{Kind: KindUnauthenticated}
	ErrForbidden       = &AuthzError{Kind: KindForbidden}
	ErrNotFound        = &AuthzError{Kind: KindNotFound}
	ErrValidation      = &AuthzError{Kind: KindValidation}
	ErrConflict        = &AuthzError{Kind: KindConflict}
	ErrUpstream        = &AuthzError{Kind: KindUpstream}
)

func (e *AuthzError) Error() string {
	switch e.Kind {
	case KindForbidden:
		if e.MenuID != 0 {
			return fmt.Sprintf("forbidden: %s on menu %d", e.Verb, e.MenuID)
		}
	case KindNotFound:
		if e.Message != "" {
			return e.Message
		}
		return e.Entity + " not found"
	case KindUpstream:
		if e.Err != nil {
			return fmt.Sprintf("upstream %s: %v", e.Message, e.Err)
		}
	}
	msg := string(e.Kind)
	if e.Code != "" {
		msg += ": " + e.Code
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

func (e *AuthzError) Unwrap() error { return e.Err }

// Is reports kind equality so callers can test errors.Is(err, ErrForbidden).
// A target with a Code only matches errors carrying the same code.
func (e *AuthzError) Is(target error) bool {
	t, ok := target.(*AuthzError)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Code == "" || t.Code == e.Code
}

// KindOf returns the kind of err, or the empty kind if err is not an AuthzError.
func KindOf(err error) Kind {
	var ae *AuthzError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}

// AsAuthzError unwraps err into an AuthzError.
func AsAuthzError(err error) (*AuthzError, bool) {
	var ae *AuthzError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

func Unauthenticated(code string) *AuthzError {
	return &AuthzError{Kind: KindUnauthenticated, Code: code}
}

// Forbidden is the gate denial for (menuID, verb).
func Forbidden(menuID int64, verb Verb) *AuthzError {
	return &AuthzError{Kind: KindForbidden, Code: CodeDenied, MenuID: menuID, Verb: verb}
}

// ForbiddenCode is a denial not tied to a menu, e.g. reserved role edits.
func ForbiddenCode(code, message string) *AuthzError {
	return &AuthzError{Kind: KindForbidden, Code: code, Message: message}
}

func NotFound(entity string, id int64) *AuthzError {
	return &AuthzError{
		Kind:    KindNotFound,
		Code:    entity + "_not_found",
		Entity:  entity,
		Message: entity + " " + strconv.FormatInt(id, 10) + " not found",
	}
}

func Validation(field, invariant, message string) *AuthzError {
	return &AuthzError{Kind: KindValidation, Code: invariant, Field: field, Invariant: invariant, Message: message}
}

func Conflict(field, invariant, message string) *AuthzError {
	return &AuthzError{Kind: KindConflict, Code: invariant, Field: field, Invariant: invariant, Message: message}
}

// Upstream wraps a store or cache failure. Already-classified errors pass through.
func Upstream(op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := AsAuthzError(err); ok {
		return err
	}
	return &AuthzError{Kind: KindUpstream, Code: CodeStoreUnavailable, Message: op, Err: err}
}
