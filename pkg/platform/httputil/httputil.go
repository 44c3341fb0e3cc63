// Package httputil centralizes JSON response writing and domain error
// translation so every handler returns the same envelope.
package httputil

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	dErrors "github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/domain-errors"
)

// Validatable is implemented by request DTOs that parse and validate
// themselves after decoding.
type Validatable interface {
	Validate() error
}

// DecodeAndPrepare decodes the JSON body into T and runs its validation.
// On failure it writes the error response and returns ok=false.
func DecodeAndPrepare[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (*T, bool) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "malformed request body",
			"request_id", requestID,
			"error", err,
		)
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "malformed request body"))
		return nil, false
	}
	if v, ok := any(&req).(Validatable); ok {
		if err := v.Validate(); err != nil {
			WriteError(w, err)
			return nil, false
		}
	}
	return &req, true
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error       string            `json:"error"`
	Description string            `json:"error_description,omitempty"`
	Details     map[string]string `json:"details,omitempty"`
}

// WriteError translates a domain error into the HTTP envelope. Internal
// errors keep their description out of the response body; everything a
// caller can act on goes through untouched.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	body := errorBody{Error: string(code)}
	if de, ok := dErrors.AsError(err); ok && code != dErrors.CodeInternal {
		body.Description = de.Message
		body.Details = de.Details
	}
	WriteJSON(w, statusOf(code), body)
}

func statusOf(code dErrors.Code) int {
	switch code {
	case dErrors.CodeBadRequest, dErrors.CodeInvalidAddress,
		dErrors.CodeExpirationNotFuture, dErrors.CodeArraysLengthMismatch:
		return http.StatusBadRequest
	case dErrors.CodeUnauthorized:
		return http.StatusForbidden
	case dErrors.CodeTransferNotAllowed:
		return http.StatusUnprocessableEntity
	case dErrors.CodeNotFound, dErrors.CodeNotRegistered:
		return http.StatusNotFound
	case dErrors.CodeConflict, dErrors.CodeRoleConflict, dErrors.CodePaused:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
