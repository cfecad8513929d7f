package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"corebank/internal/api/handler/dto"
	"corebank/internal/pkg/apperrors"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func decodeJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return fmt.Errorf("no request body")
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		slog.Default().Error("Failed to marshal JSON response", "error", err)
		http.Error(w, `{"error":{"message":"Internal server error"}}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(response)
}

func respondError(w http.ResponseWriter, err error) {
	status, message, code, field := http.StatusInternalServerError, "An unexpected error occurred.", "", ""
	var validationError *apperrors.ValidationError
	var ineligibility *apperrors.IneligibilityError
	var appErr *apperrors.AppError

	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		status, message = http.StatusNotFound, "Resource not found."
	case errors.Is(err, apperrors.ErrConflict), errors.Is(err, apperrors.ErrAlreadyExists):
		status, message = http.StatusConflict, err.Error()
	case errors.Is(err, apperrors.ErrNoVerificationPending), errors.Is(err, apperrors.ErrAccountInactive):
		status, message = http.StatusConflict, err.Error()
	case errors.Is(err, apperrors.ErrInvalidVerificationCode):
		status, message = http.StatusUnprocessableEntity, err.Error()
	case errors.As(err, &ineligibility):
		status, message, code = http.StatusUnprocessableEntity, ineligibility.Message, string(ineligibility.Reason)
	case errors.Is(err, apperrors.ErrInsufficientFunds), errors.Is(err, apperrors.ErrIneligibleLoan):
		status, message = http.StatusUnprocessableEntity, err.Error()
	case errors.As(err, &validationError):
		status, message, field = http.StatusBadRequest, validationError.Message, validationError.Field
	case errors.Is(err, apperrors.ErrInvalidInput), errors.Is(err, apperrors.ErrValidation):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, apperrors.ErrTransient):
		status, message = http.StatusServiceUnavailable, "Service temporarily unavailable, retry shortly."
	case errors.As(err, &appErr):
		message = appErr.Error()
	default:
		slog.Default().Error("Unhandled internal error", "error", err)
	}

	resp := dto.ErrorResponse{
		Error: dto.ErrorDetail{
			Code:    code,
			Message: message,
			Field:   field,
		},
	}
	respondJSON(w, status, resp)
}

func uuidFromURL(r *http.Request, param string) (uuid.UUID, error) {
	idStr := chi.URLParam(r, param)
	if idStr == "" {
		return uuid.Nil, fmt.Errorf("%s not found in URL path", param)
	}
	return uuid.Parse(idStr)
}
