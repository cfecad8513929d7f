package customer

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"corebank/internal/pkg/apperrors"

	"github.com/google/uuid"
)

const verificationCodeLength = 6

type Status string

const (
	StatusPendingVerification Status = "PENDING_VERIFICATION"
	StatusActive              Status = "ACTIVE"
)

type Customer struct {
	ID               uuid.UUID
	Email            string
	Name             string
	VerificationCode *string
	Status           Status
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func NewCustomer(email, name string) (*Customer, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	name = strings.TrimSpace(name)
	if email == "" {
		return nil, apperrors.NewValidationError("email", "email cannot be empty")
	}
	if !strings.Contains(email, "@") {
		return nil, apperrors.NewValidationError("email", "email is malformed")
	}
	if name == "" {
		return nil, apperrors.NewValidationError("name", "name cannot be empty")
	}

	code, err := GenerateVerificationCode()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to generate verification code: %v", apperrors.ErrInternalServer, err)
	}

	now := time.Now()
	return &Customer{
		ID:               uuid.New(),
		Email:            email,
		Name:             name,
		VerificationCode: &code,
		Status:           StatusPendingVerification,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// Verify flips the customer to Active when the supplied code matches the
// stored single-use code. The transition happens at most once: a second
// attempt fails with ErrNoVerificationPending because the code is cleared.
func (c *Customer) Verify(code string) error {
	if c.VerificationCode == nil || c.Status == StatusActive {
		return fmt.Errorf("%w: customer %s has no verification pending", apperrors.ErrNoVerificationPending, c.Email)
	}
	if *c.VerificationCode != code {
		return fmt.Errorf("%w: supplied code does not match", apperrors.ErrInvalidVerificationCode)
	}

	c.VerificationCode = nil
	c.Status = StatusActive
	c.UpdatedAt = time.Now()
	return nil
}

func (c *Customer) IsActive() bool {
	return c.Status == StatusActive
}

func GenerateVerificationCode() (string, error) {
	var b strings.Builder
	for i := 0; i < verificationCodeLength; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		b.WriteString(n.String())
	}
	return b.String(), nil
}
