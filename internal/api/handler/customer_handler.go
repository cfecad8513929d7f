package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"corebank/internal/api/handler/dto"
	"corebank/internal/domain/customer"
	"corebank/internal/pkg/apperrors"
)

type CustomerHandler struct {
	service customer.Service
	logger  *slog.Logger
}

func NewCustomerHandler(s customer.Service, l *slog.Logger) *CustomerHandler {
	return &CustomerHandler{
		service: s,
		logger:  l.With("component", "CustomerHandler"),
	}
}

// RegisterCustomer creates a customer in PENDING_VERIFICATION and issues a
// verification code out of band.
func (h *CustomerHandler) RegisterCustomer(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterCustomerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err))
		return
	}

	created, err := h.service.RegisterCustomer(r.Context(), req.Email, req.Name)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, dto.NewCustomerResponse(created))
}

// VerifyCustomer confirms the emailed code. On first success the customer
// turns ACTIVE and account provisioning is kicked off asynchronously.
func (h *CustomerHandler) VerifyCustomer(w http.ResponseWriter, r *http.Request) {
	var req dto.VerifyCustomerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err))
		return
	}

	verified, err := h.service.VerifyCustomer(r.Context(), req.Email, req.Code)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewCustomerResponse(verified))
}

func (h *CustomerHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	customerID, err := uuidFromURL(r, "customerID")
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err))
		return
	}

	found, err := h.service.GetCustomer(r.Context(), customerID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewCustomerResponse(found))
}
