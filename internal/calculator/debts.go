package calculator

import (
	"log/slog"
	"sort"

	"github.com/qwei/roomledger/internal/models"
	"github.com/qwei/roomledger/internal/money"
)

// DebtEntry is the net unsettled amount one counterparty owes (or is
// owed), with the descriptions of the bills it comes from.
//
// Entries are keyed by user ID; display names are resolved at the
// presentation layer.
type DebtEntry struct {
	CounterpartyID string
	Amount         money.Money
	Bills          []string
}

// DebtReport is the per-user view of all unsettled shares across the
// ledger. Fully settled bills contribute nothing.
type DebtReport struct {
	IOwe       []DebtEntry
	OweMe      []DebtEntry
	TotalIOwe  money.Money
	TotalOweMe money.Money
}

// BillLedger pairs a bill with its settlement rows for aggregation.
type BillLedger struct {
	Bill        *models.Bill
	Settlements []*models.Settlement
}

// DebtDetails scans every bill the user participates in and accrues the
// unsettled split amounts per counterparty.
//
// Bills whose payer is missing from knownUsers are internal-consistency
// faults (a deleted account still referenced by a bill); they are logged
// and skipped rather than failing the whole report. The same applies to
// unknown counterparties on a single bill.
func DebtDetails(userID string, bills []BillLedger, knownUsers map[string]bool) DebtReport {
	iOwe := make(map[string]*DebtEntry)
	oweMe := make(map[string]*DebtEntry)

	accrue := func(m map[string]*DebtEntry, counterparty string, amount money.Money, billDesc string) {
		e, ok := m[counterparty]
		if !ok {
			e = &DebtEntry{CounterpartyID: counterparty}
			m[counterparty] = e
		}
		e.Amount = e.Amount.Add(amount)
		e.Bills = append(e.Bills, billDesc)
	}

	for _, bl := range bills {
		b := bl.Bill
		if !b.HasParticipant(userID) {
			continue
		}
		if !knownUsers[b.PayerID] {
			slog.Warn("skipping bill with unknown payer",
				"bill_id", b.ID, "payer_id", b.PayerID)
			continue
		}

		status := SettlementStatus(b, bl.Settlements)
		split := BillSplit(b)

		if b.PayerID == userID {
			// The user fronted this bill; every unsettled co-participant
			// owes them one share.
			for _, participantID := range b.Participants {
				if participantID == userID {
					continue
				}
				if !knownUsers[participantID] {
					slog.Warn("skipping unknown participant in debt report",
						"bill_id", b.ID, "user_id", participantID)
					continue
				}
				if ps, ok := status[participantID]; ok && !ps.IsSettled {
					accrue(oweMe, participantID, split, b.Description)
				}
			}
			continue
		}

		// Someone else fronted the bill; the user owes the payer one
		// share until they settle.
		if ps, ok := status[userID]; ok && !ps.IsSettled {
			accrue(iOwe, b.PayerID, split, b.Description)
		}
	}

	report := DebtReport{
		IOwe:  flatten(iOwe),
		OweMe: flatten(oweMe),
	}
	for _, e := range report.IOwe {
		report.TotalIOwe = report.TotalIOwe.Add(e.Amount)
	}
	for _, e := range report.OweMe {
		report.TotalOweMe = report.TotalOweMe.Add(e.Amount)
	}
	return report
}

func flatten(m map[string]*DebtEntry) []DebtEntry {
	entries := make([]DebtEntry, 0, len(m))
	for _, e := range m {
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CounterpartyID < entries[j].CounterpartyID
	})
	return entries
}
