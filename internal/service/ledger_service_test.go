package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/qwei/roomledger/internal/ledger"
	"github.com/qwei/roomledger/internal/models"
	"github.com/qwei/roomledger/internal/money"
	"github.com/qwei/roomledger/internal/storage/sqlite"
)

type fixture struct {
	svc   *LedgerService
	users map[string]*models.User // keyed by username
}

func newFixture(t *testing.T, usernames ...string) *fixture {
	t.Helper()
	tempDir, err := os.MkdirTemp("", "roomledger-svc-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := sqlite.New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	f := &fixture{
		svc:   NewLedgerService(store),
		users: make(map[string]*models.User),
	}
	for _, name := range usernames {
		user := models.NewUser(name, "Roommate "+name)
		user.PasswordHash = "x"
		if err := store.CreateUser(context.Background(), user); err != nil {
			t.Fatalf("CreateUser(%s) failed: %v", name, err)
		}
		f.users[name] = user
	}
	return f
}

func (f *fixture) id(username string) string {
	return f.users[username].ID
}

func (f *fixture) createBill(t *testing.T, payer string, amount string, participants ...string) *models.Bill {
	t.Helper()
	m, err := money.ParseDecimal(amount)
	if err != nil {
		t.Fatalf("ParseDecimal(%s) failed: %v", amount, err)
	}
	ids := make([]string, len(participants))
	for i, p := range participants {
		ids[i] = f.id(p)
	}
	bill, err := f.svc.CreateBill(context.Background(), f.id(payer), m, "shared expense", time.Now(), ids)
	if err != nil {
		t.Fatalf("CreateBill failed: %v", err)
	}
	return bill
}

func TestCreateBillValidation(t *testing.T) {
	f := newFixture(t, "a", "b")
	ctx := context.Background()

	tests := []struct {
		name         string
		payer        string
		cents        int64
		participants []string
		wantErr      error
	}{
		{
			name:  "valid bill",
			payer: f.id("a"), cents: 5000,
			participants: []string{f.id("a"), f.id("b")},
		},
		{
			name:  "zero amount",
			payer: f.id("a"), cents: 0,
			participants: []string{f.id("a"), f.id("b")},
			wantErr:      ledger.ErrValidation,
		},
		{
			name:  "negative amount",
			payer: f.id("a"), cents: -100,
			participants: []string{f.id("a"), f.id("b")},
			wantErr:      ledger.ErrValidation,
		},
		{
			name:  "empty participants",
			payer: f.id("a"), cents: 5000,
			participants: nil,
			wantErr:      ledger.ErrValidation,
		},
		{
			name:  "payer not included",
			payer: f.id("a"), cents: 5000,
			participants: []string{f.id("b")},
			wantErr:      ledger.ErrValidation,
		},
		{
			name:  "unknown participant",
			payer: f.id("a"), cents: 5000,
			participants: []string{f.id("a"), "no-such-user"},
			wantErr:      ledger.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateBill(ctx, tt.payer, money.FromCents(tt.cents), "d", time.Now(), tt.participants)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("CreateBill failed: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("CreateBill error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestToggleIndividual(t *testing.T) {
	f := newFixture(t, "a", "b", "c", "d")
	ctx := context.Background()
	bill := f.createBill(t, "a", "100.00", "a", "b", "c", "d")

	t.Run("settle records split snapshot", func(t *testing.T) {
		res, err := f.svc.ToggleIndividual(ctx, f.id("a"), bill.ID, f.id("b"))
		if err != nil {
			t.Fatalf("ToggleIndividual failed: %v", err)
		}
		if !res.IsSettled || res.BillFullySettled {
			t.Errorf("result = %+v, want settled but not fully settled", res)
		}
		if res.SettledAt == 0 {
			t.Error("expected a settlement timestamp")
		}

		detail, err := f.svc.GetBill(ctx, bill.ID)
		if err != nil {
			t.Fatalf("GetBill failed: %v", err)
		}
		bs := detail.Status[f.id("b")]
		if !bs.IsSettled || bs.SettledAmount.Cents != 2500 {
			t.Errorf("b status = %+v, want settled at 2500 cents", bs)
		}
	})

	t.Run("toggle is its own inverse", func(t *testing.T) {
		res, err := f.svc.ToggleIndividual(ctx, f.id("a"), bill.ID, f.id("b"))
		if err != nil {
			t.Fatalf("ToggleIndividual failed: %v", err)
		}
		if res.IsSettled {
			t.Errorf("second toggle result = %+v, want unsettled", res)
		}

		detail, err := f.svc.GetBill(ctx, bill.ID)
		if err != nil {
			t.Fatalf("GetBill failed: %v", err)
		}
		if detail.Status[f.id("b")].IsSettled {
			t.Error("b still settled after undo")
		}
	})

	t.Run("last settler completes the bill", func(t *testing.T) {
		for _, name := range []string{"b", "c"} {
			if _, err := f.svc.ToggleIndividual(ctx, f.id("a"), bill.ID, f.id(name)); err != nil {
				t.Fatalf("ToggleIndividual(%s) failed: %v", name, err)
			}
		}
		res, err := f.svc.ToggleIndividual(ctx, f.id("a"), bill.ID, f.id("d"))
		if err != nil {
			t.Fatalf("ToggleIndividual failed: %v", err)
		}
		if !res.BillFullySettled {
			t.Error("expected bill fully settled after last participant")
		}
	})

	t.Run("non-payer cannot manage settlements", func(t *testing.T) {
		_, err := f.svc.ToggleIndividual(ctx, f.id("b"), bill.ID, f.id("c"))
		if !errors.Is(err, ledger.ErrPermission) {
			t.Errorf("error = %v, want ErrPermission", err)
		}
	})

	t.Run("non-participant cannot be toggled", func(t *testing.T) {
		other := f.createBill(t, "a", "10.00", "a", "b")
		_, err := f.svc.ToggleIndividual(ctx, f.id("a"), other.ID, f.id("c"))
		if !errors.Is(err, ledger.ErrNotParticipant) {
			t.Errorf("error = %v, want ErrNotParticipant", err)
		}
	})

	t.Run("payer cannot be toggled", func(t *testing.T) {
		_, err := f.svc.ToggleIndividual(ctx, f.id("a"), bill.ID, f.id("a"))
		if !errors.Is(err, ledger.ErrValidation) {
			t.Errorf("error = %v, want ErrValidation", err)
		}
	})

	t.Run("unknown bill", func(t *testing.T) {
		_, err := f.svc.ToggleIndividual(ctx, f.id("a"), "missing", f.id("b"))
		if !errors.Is(err, ledger.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})
}

func TestToggleAll(t *testing.T) {
	f := newFixture(t, "a", "b", "c")
	ctx := context.Background()
	bill := f.createBill(t, "a", "30.00", "a", "b", "c")

	t.Run("does not duplicate existing settlements", func(t *testing.T) {
		// b settles individually first.
		if _, err := f.svc.ToggleIndividual(ctx, f.id("a"), bill.ID, f.id("b")); err != nil {
			t.Fatalf("ToggleIndividual failed: %v", err)
		}
		before, err := f.svc.GetBill(ctx, bill.ID)
		if err != nil {
			t.Fatalf("GetBill failed: %v", err)
		}
		bSettledAt := before.Status[f.id("b")].SettledAt

		res, err := f.svc.ToggleAll(ctx, f.id("a"), bill.ID)
		if err != nil {
			t.Fatalf("ToggleAll failed: %v", err)
		}
		if !res.IsSettled {
			t.Error("expected bill settled")
		}
		if got := res.Status[f.id("b")].SettledAt; got != bSettledAt {
			t.Errorf("b settlement replaced: settled_at %d, want %d", got, bSettledAt)
		}
		if !res.Status[f.id("c")].IsSettled {
			t.Error("c not settled by toggle-all")
		}
	})

	t.Run("toggling a settled bill clears everything", func(t *testing.T) {
		res, err := f.svc.ToggleAll(ctx, f.id("a"), bill.ID)
		if err != nil {
			t.Fatalf("ToggleAll failed: %v", err)
		}
		if res.IsSettled {
			t.Error("expected bill unsettled")
		}
		for _, name := range []string{"b", "c"} {
			if res.Status[f.id(name)].IsSettled {
				t.Errorf("%s still settled after clear", name)
			}
		}
	})

	t.Run("permission enforced", func(t *testing.T) {
		_, err := f.svc.ToggleAll(ctx, f.id("b"), bill.ID)
		if !errors.Is(err, ledger.ErrPermission) {
			t.Errorf("error = %v, want ErrPermission", err)
		}
	})
}

func TestEditBill(t *testing.T) {
	f := newFixture(t, "a", "b", "c")
	ctx := context.Background()

	t.Run("amount change clears settlements", func(t *testing.T) {
		bill := f.createBill(t, "a", "100.00", "a", "b")
		if _, err := f.svc.ToggleAll(ctx, f.id("a"), bill.ID); err != nil {
			t.Fatalf("ToggleAll failed: %v", err)
		}

		amount := money.FromCents(20000)
		if err := f.svc.EditBill(ctx, f.id("a"), bill.ID, BillUpdate{Amount: &amount}); err != nil {
			t.Fatalf("EditBill failed: %v", err)
		}

		detail, err := f.svc.GetBill(ctx, bill.ID)
		if err != nil {
			t.Fatalf("GetBill failed: %v", err)
		}
		if detail.FullySettled {
			t.Error("bill still fully settled after amount edit")
		}
		if detail.Status[f.id("b")].IsSettled {
			t.Error("settlement survived amount edit")
		}
		if detail.Bill.Amount.Cents != 20000 {
			t.Errorf("amount = %d cents, want 20000", detail.Bill.Amount.Cents)
		}
	})

	t.Run("participant change clears settlements", func(t *testing.T) {
		bill := f.createBill(t, "a", "90.00", "a", "b")
		if _, err := f.svc.ToggleAll(ctx, f.id("a"), bill.ID); err != nil {
			t.Fatalf("ToggleAll failed: %v", err)
		}

		upd := BillUpdate{Participants: []string{f.id("a"), f.id("b"), f.id("c")}}
		if err := f.svc.EditBill(ctx, f.id("a"), bill.ID, upd); err != nil {
			t.Fatalf("EditBill failed: %v", err)
		}

		detail, err := f.svc.GetBill(ctx, bill.ID)
		if err != nil {
			t.Fatalf("GetBill failed: %v", err)
		}
		if detail.FullySettled {
			t.Error("bill still settled after participant edit")
		}
		if detail.SplitAmount.Cents != 3000 {
			t.Errorf("split = %d cents, want 3000", detail.SplitAmount.Cents)
		}
	})

	t.Run("description-only edit keeps settlements", func(t *testing.T) {
		bill := f.createBill(t, "a", "50.00", "a", "b")
		if _, err := f.svc.ToggleAll(ctx, f.id("a"), bill.ID); err != nil {
			t.Fatalf("ToggleAll failed: %v", err)
		}

		desc := "renamed"
		if err := f.svc.EditBill(ctx, f.id("a"), bill.ID, BillUpdate{Description: &desc}); err != nil {
			t.Fatalf("EditBill failed: %v", err)
		}

		detail, err := f.svc.GetBill(ctx, bill.ID)
		if err != nil {
			t.Fatalf("GetBill failed: %v", err)
		}
		if !detail.FullySettled {
			t.Error("settlements lost on description-only edit")
		}
		if detail.Bill.Description != "renamed" {
			t.Errorf("description = %q, want %q", detail.Bill.Description, "renamed")
		}
	})

	t.Run("non-payer cannot edit", func(t *testing.T) {
		bill := f.createBill(t, "a", "10.00", "a", "b")
		desc := "hijacked"
		err := f.svc.EditBill(ctx, f.id("b"), bill.ID, BillUpdate{Description: &desc})
		if !errors.Is(err, ledger.ErrPermission) {
			t.Errorf("error = %v, want ErrPermission", err)
		}
	})
}

func TestDeleteBill(t *testing.T) {
	f := newFixture(t, "a", "b")
	ctx := context.Background()
	bill := f.createBill(t, "a", "40.00", "a", "b")

	if err := f.svc.DeleteBill(ctx, f.id("b"), bill.ID); !errors.Is(err, ledger.ErrPermission) {
		t.Errorf("non-payer delete error = %v, want ErrPermission", err)
	}
	if err := f.svc.DeleteBill(ctx, f.id("a"), bill.ID); err != nil {
		t.Fatalf("DeleteBill failed: %v", err)
	}
	if err := f.svc.DeleteBill(ctx, f.id("a"), bill.ID); !errors.Is(err, ledger.ErrNotFound) {
		t.Errorf("second delete error = %v, want ErrNotFound", err)
	}
}

func TestDebtDetailsFlow(t *testing.T) {
	f := newFixture(t, "a", "b", "c", "d")
	ctx := context.Background()
	bill := f.createBill(t, "a", "100.00", "a", "b", "c", "d")

	report, err := f.svc.DebtDetails(ctx, f.id("a"))
	if err != nil {
		t.Fatalf("DebtDetails failed: %v", err)
	}
	if len(report.OweMe) != 3 || report.TotalOweMe.Cents != 7500 {
		t.Errorf("initial owe_me = %v (total %d), want 3 entries totalling 7500",
			report.OweMe, report.TotalOweMe.Cents)
	}

	if _, err := f.svc.ToggleIndividual(ctx, f.id("a"), bill.ID, f.id("b")); err != nil {
		t.Fatalf("ToggleIndividual failed: %v", err)
	}

	report, err = f.svc.DebtDetails(ctx, f.id("a"))
	if err != nil {
		t.Fatalf("DebtDetails failed: %v", err)
	}
	if len(report.OweMe) != 2 || report.TotalOweMe.Cents != 5000 {
		t.Errorf("owe_me after b settled = %v (total %d), want 2 entries totalling 5000",
			report.OweMe, report.TotalOweMe.Cents)
	}

	bReport, err := f.svc.DebtDetails(ctx, f.id("b"))
	if err != nil {
		t.Fatalf("DebtDetails failed: %v", err)
	}
	if len(bReport.IOwe) != 0 {
		t.Errorf("b i_owe after settling = %v, want empty", bReport.IOwe)
	}

	cReport, err := f.svc.DebtDetails(ctx, f.id("c"))
	if err != nil {
		t.Fatalf("DebtDetails failed: %v", err)
	}
	if len(cReport.IOwe) != 1 || cReport.TotalIOwe.Cents != 2500 {
		t.Errorf("c i_owe = %v (total %d), want 2500 to a", cReport.IOwe, cReport.TotalIOwe.Cents)
	}
}

func TestDashboard(t *testing.T) {
	f := newFixture(t, "a", "b")
	ctx := context.Background()

	paid := f.createBill(t, "a", "60.00", "a", "b")
	f.createBill(t, "b", "20.00", "a", "b")
	if _, err := f.svc.ToggleAll(ctx, f.id("a"), paid.ID); err != nil {
		t.Fatalf("ToggleAll failed: %v", err)
	}

	stats, err := f.svc.Dashboard(ctx, f.id("a"))
	if err != nil {
		t.Fatalf("Dashboard failed: %v", err)
	}
	if stats.BillsPaid != 1 {
		t.Errorf("BillsPaid = %d, want 1", stats.BillsPaid)
	}
	if stats.BillsParticipated != 2 {
		t.Errorf("BillsParticipated = %d, want 2", stats.BillsParticipated)
	}
	// a is settled on their own bill (payer) but owes b on the other.
	if stats.BillsSettled != 1 {
		t.Errorf("BillsSettled = %d, want 1", stats.BillsSettled)
	}
	if stats.TotalIOwe.Cents != 1000 {
		t.Errorf("TotalIOwe = %d cents, want 1000", stats.TotalIOwe.Cents)
	}
	if stats.TotalOweMe.Cents != 0 {
		t.Errorf("TotalOweMe = %d cents, want 0", stats.TotalOweMe.Cents)
	}
	if len(stats.RecentBills) != 1 {
		t.Errorf("RecentBills = %d, want 1", len(stats.RecentBills))
	}
}
