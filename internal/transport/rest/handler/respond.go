package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"taxnavo/internal/engine"
	"taxnavo/internal/model"
	"taxnavo/internal/service"
)

// ErrorResponse is the body of every error reply. State is set when the
// questionnaire is still usable after the error.
type ErrorResponse struct {
	Error string              `json:"error"`
	State *model.SessionState `json:"state,omitempty"`
}

// writeJSON encodes before writing the status, so an unencodable value
// becomes a 500 instead of an empty 200
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		status = http.StatusInternalServerError
		body = []byte(`{"error":"internal error"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(body, '\n'))
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeServiceError maps service and engine errors to HTTP statuses
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, err error, state *model.SessionState) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, engine.ErrOutOfOrder), errors.Is(err, engine.ErrComplete):
		status = http.StatusConflict
	case errors.Is(err, engine.ErrInvalidAnswer):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrUnknownYear), errors.Is(err, service.ErrDocumentNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrSaveFailed):
		status = http.StatusBadGateway
	case errors.Is(err, service.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrEmailTaken):
		status = http.StatusConflict
	case errors.Is(err, service.ErrInvalidEmail), errors.Is(err, service.ErrEmptyPassword),
		errors.Is(err, service.ErrUnsupportedDocument), errors.Is(err, service.ErrMissingDocType):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrDocumentTooLarge):
		status = http.StatusRequestEntityTooLarge
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error("request failed", zap.Error(err))
		msg = "internal error"
	} else if status == http.StatusBadGateway {
		logger.Warn("save failed", zap.Error(err))
	}
	writeJSON(w, status, ErrorResponse{Error: msg, State: state})
}

func yearVar(r *http.Request) (int, bool) {
	year, err := strconv.Atoi(mux.Vars(r)["year"])
	return year, err == nil && year > 0
}
