package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	jsoniter "github.com/json-iterator/go"

	"github.com/aryan0dhankhar/librarydesk/internal/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// MsgInternal is the only detail a client sees for unexpected failures
const MsgInternal = "Something went wrong. Please try again."

// APIResponse is the envelope every JSON endpoint answers with
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, resp APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func writeSuccess(w http.ResponseWriter, message string, data interface{}) {
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Message: message, Data: data})
}

func writeFailure(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, APIResponse{Success: false, Message: message})
}

// writeError maps the domain error kinds onto HTTP statuses
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var (
		ve *domain.ValidationError
		nf *domain.NotFoundError
		ce *domain.ConflictError
	)
	switch {
	case errors.As(err, &ve):
		resp := APIResponse{Success: false, Message: ve.Message}
		if len(ve.Fields) > 0 {
			resp.Data = ve.Fields
		}
		writeJSON(w, http.StatusBadRequest, resp)
	case errors.As(err, &nf):
		writeFailure(w, http.StatusNotFound, nf.Message)
	case errors.As(err, &ce):
		writeFailure(w, http.StatusBadRequest, ce.Message)
	default:
		logger.Error("request failed", slog.String("error", err.Error()))
		writeFailure(w, http.StatusInternalServerError, MsgInternal)
	}
}

// decodeJSON reads the request body into v; a missing body decodes to the zero value
func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return &domain.ValidationError{Message: "Malformed JSON request"}
	}
	return nil
}

// pathID parses a numeric path parameter
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError(map[string]string{name: "Must be a positive number"})
	}
	return id, nil
}
