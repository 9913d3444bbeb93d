package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/ThiagoRGoveia/progress-reports.git/internal/models"
)

// JSONResponse structure for successful responses
type JSONResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// JSONError structure for error responses
type JSONError struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(JSONResponse{Success: true, Data: payload}); err != nil {
		slog.Error("error writing JSON response", slog.String("error", err.Error()))
	}
}

func WriteJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(JSONError{Success: false, Message: message}); err != nil {
		slog.Error("error writing JSON error response", slog.String("error", err.Error()))
	}
}

// HandleError maps domain errors to HTTP status codes. Unknown errors are logged and
// answered with a generic message.
func (s *Service) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ingestionErr  *models.IngestionError
		validationErr *models.ValidationError
		notFoundErr   *models.NotFoundError
		maxBytesErr   *http.MaxBytesError
	)
	switch {
	case errors.As(err, &ingestionErr), errors.As(err, &validationErr):
		WriteJSONError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &notFoundErr):
		WriteJSONError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &maxBytesErr):
		WriteJSONError(w, http.StatusRequestEntityTooLarge, "upload exceeds the size limit")
	default:
		s.logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()))
		WriteJSONError(w, http.StatusInternalServerError, "Internal server error")
	}
}

var validate = validator.New()

// validateRequest reports the first failing field as a ValidationError.
func validateRequest(req any) error {
	if err := validate.Struct(req); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return &models.ValidationError{Field: fieldErrs[0].Field(), Message: "failed on the '" + fieldErrs[0].Tag() + "' rule"}
		}
		return &models.ValidationError{Message: err.Error()}
	}
	return nil
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &models.ValidationError{Field: "body", Message: err.Error()}
	}
	return nil
}
