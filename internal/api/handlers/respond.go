package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/markdave123-py/botgpt/internal/core"
)

const maxJSONBody = 1 << 20

// errorBody is the JSON shape of every failed request.
type errorBody struct {
	Error          string `json:"error"`
	Detail         string `json:"detail"`
	StatusCode     int    `json:"status_code"`
	ConversationID string `json:"conversation_id,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, log *zap.Logger, err error) {
	respondErrorFor(w, log, err, "")
}

// respondErrorFor writes err with the status its kind maps to. A non-empty
// conversationID is echoed so clients can find a conversation whose first
// turn failed.
func respondErrorFor(w http.ResponseWriter, log *zap.Logger, err error, conversationID string) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", zap.Int("status", status), zap.Error(err))
	}
	detail := err.Error()
	if status == http.StatusInternalServerError {
		detail = "internal error"
	}
	respondJSON(w, status, errorBody{
		Error:          http.StatusText(status),
		Detail:         detail,
		StatusCode:     status,
		ConversationID: conversationID,
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, core.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, core.ErrTransientModel):
		return http.StatusServiceUnavailable
	case errors.Is(err, core.ErrFatalModel):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a single JSON object from the request body. Malformed
// bodies fail with core.ErrValidation.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is empty", core.ErrValidation)
		}
		return fmt.Errorf("%w: invalid request body: %v", core.ErrValidation, err)
	}
	return nil
}
