package calculator

import (
	"testing"

	"github.com/qwei/roomledger/internal/models"
	"github.com/qwei/roomledger/internal/money"
)

func TestSplitAmount(t *testing.T) {
	tests := []struct {
		name      string
		cents     int64
		n         int
		wantCents int64
	}{
		{name: "100 by 4", cents: 10000, n: 4, wantCents: 2500},
		{name: "10 by 3 rounds half-up", cents: 1000, n: 3, wantCents: 333},
		{name: "0.10 by 3", cents: 10, n: 3, wantCents: 3},
		{name: "half cent rounds up", cents: 5, n: 2, wantCents: 3},
		{name: "single participant", cents: 777, n: 1, wantCents: 777},
		{name: "empty participant set is zero", cents: 1000, n: 0, wantCents: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitAmount(money.FromCents(tt.cents), tt.n)
			if got.Cents != tt.wantCents {
				t.Errorf("SplitAmount(%d, %d) = %d cents, want %d", tt.cents, tt.n, got.Cents, tt.wantCents)
			}
		})
	}
}

// Splitting never drifts more than half a cent per participant from the
// bill total.
func TestSplitAmountTolerance(t *testing.T) {
	amounts := []int64{1000, 9999, 10001, 333, 100000}
	for _, cents := range amounts {
		for n := 1; n <= 6; n++ {
			split := SplitAmount(money.FromCents(cents), n)
			diff := split.Cents*int64(n) - cents
			if diff < 0 {
				diff = -diff
			}
			if diff > int64(n) {
				t.Errorf("split %d by %d: reassembled total off by %d cents", cents, n, diff)
			}
		}
	}
}

func TestBillSplit(t *testing.T) {
	b := &models.Bill{
		PayerID:      "a",
		Amount:       money.FromCents(10000),
		Participants: []string{"a", "b", "c", "d"},
	}
	if got := BillSplit(b); got.Cents != 2500 {
		t.Errorf("BillSplit() = %d cents, want 2500", got.Cents)
	}
}
