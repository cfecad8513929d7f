package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"corebank/internal/api/handler/dto"
	"corebank/internal/domain/loan"
	"corebank/internal/pkg/apperrors"
)

type LoanHandler struct {
	service loan.Service
	logger  *slog.Logger
}

func NewLoanHandler(s loan.Service, l *slog.Logger) *LoanHandler {
	return &LoanHandler{
		service: s,
		logger:  l.With("component", "LoanHandler"),
	}
}

// ApplyForLoan evaluates eligibility synchronously and responds with the
// approved loan. Disbursement lands on the account asynchronously.
func (h *LoanHandler) ApplyForLoan(w http.ResponseWriter, r *http.Request) {
	var req dto.ApplyLoanRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err))
		return
	}

	approved, err := h.service.ApplyForLoan(r.Context(), req.AccountUUID(), req.AmountDecimal(), req.TenureMonths)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, dto.NewLoanResponse(approved))
}

func (h *LoanHandler) GetLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := uuidFromURL(r, "loanID")
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err))
		return
	}

	found, err := h.service.GetLoan(r.Context(), loanID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewLoanResponse(found))
}

func (h *LoanHandler) GetLoansByAccount(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuidFromURL(r, "accountID")
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err))
		return
	}

	loans, err := h.service.ListLoansByAccount(r.Context(), accountID)
	if err != nil {
		respondError(w, err)
		return
	}

	resp := make([]dto.LoanResponse, 0, len(loans))
	for _, l := range loans {
		resp = append(resp, dto.NewLoanResponse(l))
	}
	respondJSON(w, http.StatusOK, resp)
}
