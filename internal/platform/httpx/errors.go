// Package httpx provides HTTP response utilities.
package httpx

import (
	"log/slog"
	"net/http"

	"github.com/ChandrashakerVarma/LMS-sub000/internal/shared"
)

// ErrorBody is the JSON shape of every error response. Fields irrelevant to a
// kind are omitted.
type ErrorBody struct {
	Kind      string      `json:"kind"`
	Code      string      `json:"code,omitempty"`
	Message   string      `json:"message,omitempty"`
	Field     string      `json:"field,omitempty"`
	Invariant string      `json:"invariant,omitempty"`
	MenuID    int64       `json:"menu_id,omitempty"`
	Verb      shared.Verb `json:"verb,omitempty"`
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind shared.Kind) int {
	switch kind {
	case shared.KindUnauthenticated:
		return http.StatusUnauthorized
	case shared.KindForbidden:
		return http.StatusForbidden
	case shared.KindNotFound:
		return http.StatusNotFound
	case shared.KindValidation:
		return http.StatusBadRequest
	case shared.KindConflict:
		return http.StatusConflict
	case shared.KindUpstream:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// BodyFor renders the response body for err.
func BodyFor(err error) ErrorBody {
	ae, ok := shared.AsAuthzError(err)
	if !ok {
		return ErrorBody{Kind: "internal"}
	}
	body := ErrorBody{Kind: string(ae.Kind)}
	switch ae.Kind {
	case shared.KindUnauthenticated, shared.KindUpstream:
		body.Code = ae.Code
	case shared.KindForbidden:
		if ae.MenuID != 0 {
			body.MenuID = ae.MenuID
			body.Verb = ae.Verb
		} else {
			body.Code = ae.Code
			body.Message = ae.Message
		}
	case shared.KindNotFound:
		body.Code = ae.Code
		body.Message = ae.Error()
	case shared.KindValidation, shared.KindConflict:
		body.Code = ae.Code
		body.Message = ae.Message
		body.Field = ae.Field
		body.Invariant = ae.Invariant
	}
	return body
}

// RespondError maps domain errors to HTTP responses. It is the only place
// that turns an AuthzError kind into a status code.
func RespondError(w http.ResponseWriter, err error) {
	JSON(w, StatusFor(shared.KindOf(err)), BodyFor(err))
}

// Fail responds with err, logging store failures and unexpected errors.
func Fail(w http.ResponseWriter, logger *slog.Logger, op string, err error) {
	switch shared.KindOf(err) {
	case shared.KindUpstream:
		logger.Error(op, slog.Any("error", err))
	case shared.KindUnauthenticated, shared.KindForbidden, shared.KindNotFound, shared.KindValidation, shared.KindConflict:
	default:
		logger.Error(op, slog.String("kind", "internal"), slog.Any("error", err))
	}
	RespondError(w, err)
}
