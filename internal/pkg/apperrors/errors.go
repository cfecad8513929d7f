package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("resource not found")

	ErrInvalidInput = errors.New("invalid input")

	ErrValidation = errors.New("validation failed")

	ErrAlreadyExists = errors.New("resource already exists")

	ErrConflict = errors.New("resource conflict")

	ErrInsufficientFunds = errors.New("insufficient funds")

	ErrAccountInactive = errors.New("account is not active")

	ErrIneligibleLoan = errors.New("loan application is not eligible")

	ErrInvalidVerificationCode = errors.New("invalid verification code")

	ErrNoVerificationPending = errors.New("no verification pending")

	ErrAlreadyProcessed = errors.New("event already processed")

	ErrTransient = errors.New("transient failure")

	ErrDataInconsistency = errors.New("data inconsistency detected")

	ErrDatabase = errors.New("database error")

	ErrInternalServer = errors.New("internal server error")
)

type ValidationError struct {
	Field   string
	Message string
	Cause   error
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

func NewValidationError(field, message string) error {
	return fmt.Errorf("%w: %w", ErrValidation, &ValidationError{Field: field, Message: message})
}

// IneligibilityReason identifies which eligibility rule a loan application
// violated, so callers can branch without parsing messages.
type IneligibilityReason string

const (
	ReasonAccountInactive     IneligibilityReason = "ACCOUNT_INACTIVE"
	ReasonInsufficientFunding IneligibilityReason = "INSUFFICIENT_FUNDING"
	ReasonAmountBelowMinimum  IneligibilityReason = "AMOUNT_BELOW_MINIMUM"
	ReasonAmountAboveMaximum  IneligibilityReason = "AMOUNT_ABOVE_MAXIMUM"
	ReasonTenureOutOfRange    IneligibilityReason = "TENURE_OUT_OF_RANGE"
)

type IneligibilityError struct {
	Reason  IneligibilityReason
	Message string
}

func (e *IneligibilityError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Reason, e.Message)
}

func (e *IneligibilityError) Unwrap() error {
	return ErrIneligibleLoan
}

func NewIneligibilityError(reason IneligibilityReason, message string) error {
	return &IneligibilityError{Reason: reason, Message: message}
}

type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func WrapDatabaseError(cause error, message string) error {
	return &AppError{
		Code:    "DB_ERROR",
		Message: message,
		Cause:   fmt.Errorf("%w: %w", ErrDatabase, cause),
	}
}
