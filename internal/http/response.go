package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"giftbook/internal/core"
	"giftbook/internal/lunar"
	applog "giftbook/internal/log"
	"giftbook/internal/services"
)

// Client-facing error messages. Internal details stay in the logs.
const (
	ErrMsgInvalidRequest   = "Invalid request body"
	ErrMsgInvalidID        = "Invalid record id"
	ErrMsgRecordNotFound   = "Record not found"
	ErrMsgValidationFailed = "Validation failed"
	ErrMsgInvalidAmount    = "Invalid amount"
	ErrMsgInvalidDate      = "Invalid date, expected YYYY-MM-DD"
	ErrMsgUnsupportedDate  = "Date outside the supported lunar range"
	ErrMsgNothingToExport  = "No records to export"
	ErrMsgSheetsDisabled   = "Google Sheets export is not configured"
	ErrMsgRateLimited      = "Rate limit exceeded. Please try again later."
	ErrMsgInternal         = "Internal server error"
	ErrMsgNotFound         = "Not found"
	ErrMsgMethodNotAllowed = "Method not allowed"
)

// envelope is the body of every JSON response.
type envelope struct {
	Success bool              `json:"success"`
	Data    any               `json:"data,omitempty"`
	Error   string            `json:"error,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// badRequest is a client error whose message is safe to return as is.
type badRequest struct {
	msg string
	err error
}

func (e *badRequest) Error() string {
	if e.err != nil {
		return e.msg + ": " + e.err.Error()
	}
	return e.msg
}

func (e *badRequest) Unwrap() error { return e.err }

func newBadRequest(msg string, err error) error {
	return &badRequest{msg: msg, err: err}
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondOK(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: data})
}

func respondCreated(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusCreated, envelope{Success: true, Data: data})
}

func respondMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Success: false, Error: msg})
}

// respondError maps err onto a status code and envelope. Only unexpected
// errors are logged at error level.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *core.ValidationError
	var bad *badRequest

	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, envelope{
			Error:  ErrMsgValidationFailed,
			Fields: verr.Fields,
		})
	case errors.As(err, &bad):
		respondMessage(w, http.StatusBadRequest, bad.msg)
	case errors.Is(err, core.ErrRecordNotFound):
		respondMessage(w, http.StatusNotFound, ErrMsgRecordNotFound)
	case errors.Is(err, core.ErrInvalidAmount):
		respondMessage(w, http.StatusUnprocessableEntity, ErrMsgInvalidAmount)
	case errors.Is(err, lunar.ErrUnsupportedDate):
		respondMessage(w, http.StatusUnprocessableEntity, ErrMsgUnsupportedDate)
	case errors.Is(err, services.ErrNothingToExport):
		respondMessage(w, http.StatusNotFound, ErrMsgNothingToExport)
	default:
		applog.FromContext(r.Context()).WithComponent(applog.ComponentHTTP).
			ErrorContext(r.Context(), "Request failed",
				"error", err,
				"method", r.Method,
				applog.FieldPath, r.URL.Path,
			)
		respondMessage(w, http.StatusInternalServerError, ErrMsgInternal)
	}
}
