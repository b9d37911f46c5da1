package calculator

import (
	"math"

	"github.com/qwei/roomledger/internal/models"
	"github.com/qwei/roomledger/internal/money"
)

// ParticipantStatus describes one participant's settlement state on a bill.
type ParticipantStatus struct {
	UserID  string
	IsPayer bool

	// Expected is the share this participant owes; zero for the payer.
	Expected money.Money

	// IsSettled is always true for the payer, otherwise true iff a
	// settlement exists for this participant.
	IsSettled bool

	// SettledAmount is the snapshot recorded at settlement time,
	// zero if unsettled.
	SettledAmount money.Money

	// SettledAt is the Unix timestamp of the settlement, zero if
	// unsettled.
	SettledAt int64
}

// Progress summarizes how many participants have settled a bill.
type Progress struct {
	Settled    int
	Total      int
	Percentage int
}

// SettlementStatus derives the per-participant status map for a bill from
// its settlement rows. Settlements for users no longer on the bill are
// ignored; the caller decides whether to flag them.
func SettlementStatus(b *models.Bill, settlements []*models.Settlement) map[string]ParticipantStatus {
	split := BillSplit(b)
	byUser := make(map[string]*models.Settlement, len(settlements))
	for _, s := range settlements {
		byUser[s.SettlerID] = s
	}

	status := make(map[string]ParticipantStatus, len(b.Participants))
	for _, userID := range b.Participants {
		if userID == b.PayerID {
			// The payer cannot owe themselves.
			status[userID] = ParticipantStatus{
				UserID:    userID,
				IsPayer:   true,
				IsSettled: true,
			}
			continue
		}
		ps := ParticipantStatus{
			UserID:   userID,
			Expected: split,
		}
		if s, ok := byUser[userID]; ok {
			ps.IsSettled = true
			ps.SettledAmount = s.Amount
			ps.SettledAt = s.SettledAt
		}
		status[userID] = ps
	}
	return status
}

// SettlementProgress counts settled participants over all participants.
func SettlementProgress(b *models.Bill, settlements []*models.Settlement) Progress {
	status := SettlementStatus(b, settlements)
	p := Progress{Total: len(status)}
	for _, ps := range status {
		if ps.IsSettled {
			p.Settled++
		}
	}
	if p.Total > 0 {
		p.Percentage = int(math.Round(float64(p.Settled) / float64(p.Total) * 100))
	}
	return p
}

// FullySettled reports whether every non-payer participant has settled.
// False for a bill with no participants.
func FullySettled(b *models.Bill, settlements []*models.Settlement) bool {
	p := SettlementProgress(b, settlements)
	return p.Total > 0 && p.Settled == p.Total
}
