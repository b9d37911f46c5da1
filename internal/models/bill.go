package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/qwei/roomledger/internal/ledger"
	"github.com/qwei/roomledger/internal/money"
)

// Bill represents a shared expense paid up-front by one member.
type Bill struct {
	// ID is the unique identifier for the bill (UUID format).
	ID string

	// PayerID is the user who paid the full amount.
	PayerID string

	// Amount is the total expense.
	Amount money.Money

	// Description is the free-text label shown in listings and debt
	// reports.
	Description string

	// Date is the Unix timestamp of the expense itself, chosen by the
	// payer; not necessarily the creation time.
	Date int64

	// Participants is the ordered set of user IDs sharing the cost.
	// Never empty, never contains duplicates, always includes PayerID.
	Participants []string

	// ReceiptCount is the number of attached receipts. Populated on
	// reads; not written back.
	ReceiptCount int

	// CreatedAt is the Unix timestamp when the bill was recorded.
	CreatedAt int64
}

// NewBill validates and constructs a bill. The participant list is
// de-duplicated preserving order; the amount must be strictly positive
// and the payer must be among the participants.
func NewBill(payerID string, amount money.Money, description string, date time.Time, participants []string) (*Bill, error) {
	normalized, err := NormalizeParticipants(payerID, participants)
	if err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", ledger.ErrValidation)
	}
	return &Bill{
		ID:           uuid.New().String(),
		PayerID:      payerID,
		Amount:       amount,
		Description:  description,
		Date:         date.Unix(),
		Participants: normalized,
		CreatedAt:    time.Now().Unix(),
	}, nil
}

// NormalizeParticipants de-duplicates the list preserving order and
// checks the payer-included, non-empty invariant.
func NormalizeParticipants(payerID string, participants []string) ([]string, error) {
	seen := make(map[string]bool, len(participants))
	normalized := make([]string, 0, len(participants))
	for _, id := range participants {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		normalized = append(normalized, id)
	}
	if len(normalized) == 0 {
		return nil, fmt.Errorf("%w: participants must not be empty", ledger.ErrValidation)
	}
	if !seen[payerID] {
		return nil, fmt.Errorf("%w: payer must be a participant", ledger.ErrValidation)
	}
	return normalized, nil
}

// HasParticipant reports whether the user shares in this bill.
func (b *Bill) HasParticipant(userID string) bool {
	for _, id := range b.Participants {
		if id == userID {
			return true
		}
	}
	return false
}

// NonPayers returns the participants other than the payer.
func (b *Bill) NonPayers() []string {
	others := make([]string, 0, len(b.Participants))
	for _, id := range b.Participants {
		if id != b.PayerID {
			others = append(others, id)
		}
	}
	return others
}
