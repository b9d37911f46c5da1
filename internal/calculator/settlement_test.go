package calculator

import (
	"testing"

	"github.com/qwei/roomledger/internal/models"
	"github.com/qwei/roomledger/internal/money"
)

func testBill(payer string, cents int64, participants ...string) *models.Bill {
	return &models.Bill{
		ID:           "bill-1",
		PayerID:      payer,
		Amount:       money.FromCents(cents),
		Description:  "groceries",
		Participants: participants,
	}
}

func settlementFor(billID, settler string, cents int64) *models.Settlement {
	return &models.Settlement{
		ID:        "s-" + settler,
		BillID:    billID,
		SettlerID: settler,
		Amount:    money.FromCents(cents),
		SettledAt: 1700000000,
	}
}

func TestSettlementStatus(t *testing.T) {
	tests := []struct {
		name        string
		bill        *models.Bill
		settlements []*models.Settlement
		validate    func(t *testing.T, status map[string]ParticipantStatus)
	}{
		{
			name: "payer always settled with zero expected",
			bill: testBill("a", 10000, "a", "b", "c", "d"),
			validate: func(t *testing.T, status map[string]ParticipantStatus) {
				payer := status["a"]
				if !payer.IsPayer || !payer.IsSettled {
					t.Errorf("payer status = %+v, want payer and settled", payer)
				}
				if !payer.Expected.IsZero() {
					t.Errorf("payer expected = %v, want 0", payer.Expected)
				}
				for _, id := range []string{"b", "c", "d"} {
					ps := status[id]
					if ps.IsPayer || ps.IsSettled {
						t.Errorf("%s status = %+v, want non-payer unsettled", id, ps)
					}
					if ps.Expected.Cents != 2500 {
						t.Errorf("%s expected = %d cents, want 2500", id, ps.Expected.Cents)
					}
				}
			},
		},
		{
			name:        "settled participant carries snapshot and date",
			bill:        testBill("a", 10000, "a", "b"),
			settlements: []*models.Settlement{settlementFor("bill-1", "b", 5000)},
			validate: func(t *testing.T, status map[string]ParticipantStatus) {
				b := status["b"]
				if !b.IsSettled {
					t.Fatal("expected b to be settled")
				}
				if b.SettledAmount.Cents != 5000 {
					t.Errorf("settled amount = %d cents, want 5000", b.SettledAmount.Cents)
				}
				if b.SettledAt != 1700000000 {
					t.Errorf("settled at = %d, want 1700000000", b.SettledAt)
				}
			},
		},
		{
			name:        "settlement for a user no longer on the bill is ignored",
			bill:        testBill("a", 10000, "a", "b"),
			settlements: []*models.Settlement{settlementFor("bill-1", "ghost", 5000)},
			validate: func(t *testing.T, status map[string]ParticipantStatus) {
				if _, ok := status["ghost"]; ok {
					t.Error("ghost settler leaked into status map")
				}
				if status["b"].IsSettled {
					t.Error("b should remain unsettled")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.validate(t, SettlementStatus(tt.bill, tt.settlements))
		})
	}
}

func TestSettlementProgress(t *testing.T) {
	bill := testBill("a", 10000, "a", "b", "c", "d")

	p := SettlementProgress(bill, nil)
	if p.Settled != 1 || p.Total != 4 || p.Percentage != 25 {
		t.Errorf("no settlements: progress = %+v, want 1/4 (25%%)", p)
	}

	p = SettlementProgress(bill, []*models.Settlement{
		settlementFor(bill.ID, "b", 2500),
		settlementFor(bill.ID, "c", 2500),
	})
	if p.Settled != 3 || p.Total != 4 || p.Percentage != 75 {
		t.Errorf("two settlements: progress = %+v, want 3/4 (75%%)", p)
	}
}

func TestFullySettled(t *testing.T) {
	bill := testBill("a", 9000, "a", "b", "c")

	if FullySettled(bill, nil) {
		t.Error("bill with unsettled participants reported fully settled")
	}
	if FullySettled(bill, []*models.Settlement{settlementFor(bill.ID, "b", 3000)}) {
		t.Error("partially settled bill reported fully settled")
	}
	all := []*models.Settlement{
		settlementFor(bill.ID, "b", 3000),
		settlementFor(bill.ID, "c", 3000),
	}
	if !FullySettled(bill, all) {
		t.Error("bill with all non-payers settled not reported fully settled")
	}
}
