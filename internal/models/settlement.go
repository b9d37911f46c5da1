package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/qwei/roomledger/internal/money"
)

// Settlement records that one non-payer participant has paid their share
// of one bill. At most one settlement exists per (bill, settler) pair.
//
// Settlements follow toggle semantics: undoing a settlement deletes the
// row, and editing a bill's amount or participants deletes all of them.
type Settlement struct {
	// ID is the unique identifier for the settlement (UUID format).
	ID string

	// BillID is the bill this settlement belongs to.
	BillID string

	// SettlerID is the participant who paid their share. Never the
	// bill's payer.
	SettlerID string

	// Amount is the share at the time of settlement. It is a historical
	// snapshot, never re-derived.
	Amount money.Money

	// SettledAt is the Unix timestamp when the share was marked paid.
	SettledAt int64
}

// NewSettlement creates a settlement with a fresh ID and timestamp.
func NewSettlement(billID, settlerID string, amount money.Money) *Settlement {
	return &Settlement{
		ID:        uuid.New().String(),
		BillID:    billID,
		SettlerID: settlerID,
		Amount:    amount,
		SettledAt: time.Now().Unix(),
	}
}
