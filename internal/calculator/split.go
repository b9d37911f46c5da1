// Package calculator holds the pure ledger math: per-bill split amounts,
// settlement status derivation, and cross-bill debt aggregation. Nothing
// here touches storage; callers pass in the bills and settlements they
// loaded.
package calculator

import (
	"github.com/qwei/roomledger/internal/models"
	"github.com/qwei/roomledger/internal/money"
)

// SplitAmount divides a total evenly across n participants, rounding
// half-up to whole cents. Returns zero for n <= 0; an empty participant
// set cannot occur on a constructed bill since the payer is always
// included.
func SplitAmount(amount money.Money, n int) money.Money {
	return amount.Split(n)
}

// BillSplit returns the per-participant share of a bill.
func BillSplit(b *models.Bill) money.Money {
	return SplitAmount(b.Amount, len(b.Participants))
}
