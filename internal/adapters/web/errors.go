package web

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"runtime/debug"

	"cylinder-backoffice/internal/core"
)

type successEnvelope struct {
	Data    any    `json:"data"`
	Message string `json:"message,omitempty"`
}

type errorEnvelope struct {
	Message   string `json:"message"`
	Details   string `json:"details,omitempty"`
	Stack     string `json:"stack,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

func (h *Handler) writeData(w http.ResponseWriter, status int, data any, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(successEnvelope{Data: data, Message: message}); err != nil {
		log.Printf("write response: %v", err)
	}
}

func (h *Handler) writeFailure(w http.ResponseWriter, r *http.Request, status int, message, details string, stack []byte) {
	env := errorEnvelope{
		Message:   message,
		RequestID: requestIDFromContext(r.Context()),
	}
	if !h.production {
		env.Details = details
		if stack != nil {
			env.Stack = string(stack)
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		log.Printf("write response: %v", err)
	}
}

// writeError maps service errors to HTTP status codes. Validation and stock
// shortfalls are client errors; unknown references are 404; everything else
// is a 500 with diagnostics suppressed in production.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *core.ValidationError
	var se *core.InsufficientStockError
	var ne *core.NotFoundError
	switch {
	case errors.As(err, &ve):
		h.writeFailure(w, r, http.StatusBadRequest, ve.Error(), "", nil)
	case errors.As(err, &se):
		h.writeFailure(w, r, http.StatusBadRequest, se.Error(), "", nil)
	case errors.As(err, &ne):
		h.writeFailure(w, r, http.StatusNotFound, ne.Error(), "", nil)
	default:
		log.Printf("request %s failed: %v", requestIDFromContext(r.Context()), err)
		h.writeFailure(w, r, http.StatusInternalServerError, "internal server error", err.Error(), debug.Stack())
	}
}

func (h *Handler) badRequest(w http.ResponseWriter, r *http.Request, message string) {
	h.writeFailure(w, r, http.StatusBadRequest, message, "", nil)
}
