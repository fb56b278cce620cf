package httpapi

import (
    "errors"
    "net/http"

    "github.com/arkcrm/rentledger/internal/errs"
)

// errorResponse is the standard error payload for the API.
type errorResponse struct {
    Error string `json:"error"`
    Code  string `json:"code,omitempty"`
}

func writeErr(w http.ResponseWriter, status int, msg, code string) {
    toJSON(w, status, errorResponse{Error: msg, Code: code})
}

func badRequest(w http.ResponseWriter, msg string) { writeErr(w, http.StatusBadRequest, msg, "") }
func notFound(w http.ResponseWriter)               { writeErr(w, http.StatusNotFound, "not_found", "not_found") }
func unprocessable(w http.ResponseWriter, msg, code string) {
    writeErr(w, http.StatusUnprocessableEntity, msg, code)
}

// writeDomainErr maps sentinel domain errors onto HTTP statuses.
func writeDomainErr(w http.ResponseWriter, err error) {
    switch {
    case errors.Is(err, errs.ErrNotFound):
        notFound(w)
    case errors.Is(err, errs.ErrInvalidMethod):
        unprocessable(w, err.Error(), "invalid_method")
    case errors.Is(err, errs.ErrInvalidDate):
        unprocessable(w, err.Error(), "invalid_date")
    case errors.Is(err, errs.ErrCurrencyMismatch):
        unprocessable(w, err.Error(), "currency_mismatch")
    case errors.Is(err, errs.ErrInvalid):
        unprocessable(w, err.Error(), "validation_error")
    default:
        writeErr(w, http.StatusInternalServerError, "internal error", "")
    }
}
