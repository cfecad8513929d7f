package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Routing keys on the corebank topic exchange.
const (
	RoutingKeyAccountCreationRequested = "account.creation.requested"
	RoutingKeyLoanApproved             = "loan.approved"
)

const (
	TypeAccountCreationRequested = "AccountCreationRequested"
	TypeLoanApproved             = "LoanApproved"
)

// Envelope is the wire format for every event. EventID is minted by the
// emitter and is the deduplication key for consumers.
type Envelope struct {
	EventID   string          `json:"eventId"`
	EventType string          `json:"eventType"`
	EmittedAt time.Time       `json:"emittedAt"`
	Payload   json.RawMessage `json:"payload"`
}

type AccountCreationRequestedPayload struct {
	CustomerID uuid.UUID `json:"customerId"`
}

type LoanApprovedPayload struct {
	LoanID    uuid.UUID       `json:"loanId"`
	AccountID uuid.UUID       `json:"accountId"`
	Amount    decimal.Decimal `json:"amount"`
}

func newEnvelope(eventType string, payload any) (Envelope, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	return Envelope{
		EventID:   uuid.NewString(),
		EventType: eventType,
		EmittedAt: time.Now().UTC(),
		Payload:   body,
	}, nil
}

func NewAccountCreationRequested(customerID uuid.UUID) (Envelope, error) {
	return newEnvelope(TypeAccountCreationRequested, AccountCreationRequestedPayload{CustomerID: customerID})
}

func NewLoanApproved(loanID, accountID uuid.UUID, amount decimal.Decimal) (Envelope, error) {
	return newEnvelope(TypeLoanApproved, LoanApprovedPayload{
		LoanID:    loanID,
		AccountID: accountID,
		Amount:    amount,
	})
}
