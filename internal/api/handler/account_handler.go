package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"corebank/internal/api/handler/dto"
	"corebank/internal/domain/account"
	"corebank/internal/pkg/apperrors"

	"github.com/go-chi/chi/v5"
)

type AccountHandler struct {
	service account.Service
	logger  *slog.Logger
}

func NewAccountHandler(s account.Service, l *slog.Logger) *AccountHandler {
	return &AccountHandler{
		service: s,
		logger:  l.With("component", "AccountHandler"),
	}
}

func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuidFromURL(r, "accountID")
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err))
		return
	}

	acct, err := h.service.GetAccount(r.Context(), accountID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewAccountResponse(acct))
}

func (h *AccountHandler) GetAccountByNumber(w http.ResponseWriter, r *http.Request) {
	numberStr := chi.URLParam(r, "accountNumber")
	number, err := strconv.ParseInt(numberStr, 10, 64)
	if err != nil {
		respondError(w, fmt.Errorf("%w: invalid account number", apperrors.ErrInvalidInput))
		return
	}

	acct, err := h.service.GetAccountByNumber(r.Context(), number)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewAccountResponse(acct))
}

func (h *AccountHandler) Credit(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuidFromURL(r, "accountID")
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err))
		return
	}

	var req dto.BalanceOperationRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err))
		return
	}

	acct, err := h.service.Credit(r.Context(), accountID, req.AmountDecimal())
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewAccountResponse(acct))
}

func (h *AccountHandler) Debit(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuidFromURL(r, "accountID")
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err))
		return
	}

	var req dto.BalanceOperationRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err))
		return
	}

	acct, err := h.service.Debit(r.Context(), accountID, req.AmountDecimal())
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewAccountResponse(acct))
}

func (h *AccountHandler) GetAccountByCustomer(w http.ResponseWriter, r *http.Request) {
	customerID, err := uuidFromURL(r, "customerID")
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err))
		return
	}

	acct, err := h.service.GetAccountByCustomer(r.Context(), customerID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewAccountResponse(acct))
}
