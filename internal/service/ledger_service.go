// Package service orchestrates ledger operations over the storage layer.
// Every operation takes the acting user explicitly; nothing is read from
// ambient state.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/qwei/roomledger/internal/calculator"
	"github.com/qwei/roomledger/internal/ledger"
	"github.com/qwei/roomledger/internal/models"
	"github.com/qwei/roomledger/internal/money"
	"github.com/qwei/roomledger/internal/storage"
)

// LedgerService implements the core debt-ledger operations: bill
// lifecycle, settlement toggles and debt aggregation.
type LedgerService struct {
	store storage.Store
}

// NewLedgerService creates a LedgerService with the given storage backend.
func NewLedgerService(store storage.Store) *LedgerService {
	return &LedgerService{store: store}
}

// BillDetail is a bill together with its derived settlement state.
type BillDetail struct {
	Bill         *models.Bill
	SplitAmount  money.Money
	Status       map[string]calculator.ParticipantStatus
	Progress     calculator.Progress
	FullySettled bool
}

// ToggleResult reports the outcome of toggling one participant.
type ToggleResult struct {
	IsSettled        bool
	BillFullySettled bool
	SettledAt        int64 // zero when the toggle undid a settlement
}

// ToggleAllResult reports the outcome of toggling a whole bill.
type ToggleAllResult struct {
	IsSettled bool
	Status    map[string]calculator.ParticipantStatus
}

// BillUpdate carries the mutable bill fields for EditBill. Nil fields
// are left unchanged; a nil Participants slice keeps the current set.
type BillUpdate struct {
	Amount       *money.Money
	Description  *string
	Date         *time.Time
	Participants []string
}

// CreateBill validates and records a new bill. The caller is expected to
// have auto-included the payer in participants; a missing payer is a
// validation error. Every participant must be a known user.
func (s *LedgerService) CreateBill(ctx context.Context, payerID string, amount money.Money, description string, date time.Time, participants []string) (*models.Bill, error) {
	bill, err := models.NewBill(payerID, amount, description, date, participants)
	if err != nil {
		return nil, err
	}
	if err := s.checkUsersExist(ctx, bill.Participants); err != nil {
		return nil, err
	}

	if err := s.store.CreateBill(ctx, bill); err != nil {
		return nil, fmt.Errorf("create bill: %w", err)
	}
	slog.Info("bill created",
		"bill_id", bill.ID,
		"payer_id", bill.PayerID,
		"amount", bill.Amount.String(),
		"participants", len(bill.Participants),
	)
	return bill, nil
}

func (s *LedgerService) checkUsersExist(ctx context.Context, userIDs []string) error {
	for _, id := range userIDs {
		if _, err := s.store.GetUser(ctx, id); err != nil {
			return fmt.Errorf("%w: unknown participant %s", ledger.ErrValidation, id)
		}
	}
	return nil
}

// GetBill returns a bill with its derived settlement state. Only
// participants may view a bill; enforcement of that policy is left to
// the caller, which receives the payer identity here.
func (s *LedgerService) GetBill(ctx context.Context, billID string) (*BillDetail, error) {
	bill, err := s.store.GetBill(ctx, billID)
	if err != nil {
		return nil, err
	}
	settlements, err := s.store.ListSettlementsByBill(ctx, billID)
	if err != nil {
		return nil, err
	}
	return &BillDetail{
		Bill:         bill,
		SplitAmount:  calculator.BillSplit(bill),
		Status:       calculator.SettlementStatus(bill, settlements),
		Progress:     calculator.SettlementProgress(bill, settlements),
		FullySettled: calculator.FullySettled(bill, settlements),
	}, nil
}

// ListBills returns every bill with derived settlement state, newest
// occurrence date first.
func (s *LedgerService) ListBills(ctx context.Context) ([]*BillDetail, error) {
	bills, err := s.store.ListBills(ctx)
	if err != nil {
		return nil, err
	}
	byBill, err := s.store.ListSettlements(ctx)
	if err != nil {
		return nil, err
	}

	details := make([]*BillDetail, len(bills))
	for i, bill := range bills {
		settlements := byBill[bill.ID]
		details[i] = &BillDetail{
			Bill:         bill,
			SplitAmount:  calculator.BillSplit(bill),
			Status:       calculator.SettlementStatus(bill, settlements),
			Progress:     calculator.SettlementProgress(bill, settlements),
			FullySettled: calculator.FullySettled(bill, settlements),
		}
	}
	return details, nil
}

// EditBill applies a partial update. Only the payer may edit. Changing
// the amount or the participant set invalidates every settlement on the
// bill, since the per-participant share changes.
func (s *LedgerService) EditBill(ctx context.Context, actorID, billID string, upd BillUpdate) error {
	bill, err := s.store.GetBill(ctx, billID)
	if err != nil {
		return err
	}
	if bill.PayerID != actorID {
		return fmt.Errorf("%w: only the payer can edit a bill", ledger.ErrPermission)
	}

	clearSettlements := false
	if upd.Amount != nil && upd.Amount.Cents != bill.Amount.Cents {
		if !upd.Amount.IsPositive() {
			return fmt.Errorf("%w: amount must be positive", ledger.ErrValidation)
		}
		bill.Amount = *upd.Amount
		clearSettlements = true
	}
	if upd.Description != nil {
		bill.Description = *upd.Description
	}
	if upd.Date != nil {
		bill.Date = upd.Date.Unix()
	}
	if upd.Participants != nil {
		normalized, err := models.NormalizeParticipants(bill.PayerID, upd.Participants)
		if err != nil {
			return err
		}
		if err := s.checkUsersExist(ctx, normalized); err != nil {
			return err
		}
		if !sameParticipants(bill.Participants, normalized) {
			bill.Participants = normalized
			clearSettlements = true
		}
	}

	if err := s.store.UpdateBill(ctx, bill, clearSettlements); err != nil {
		return err
	}
	slog.Info("bill updated",
		"bill_id", bill.ID,
		"actor_id", actorID,
		"settlements_cleared", clearSettlements,
	)
	return nil
}

func sameParticipants(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]bool, len(a))
	for _, id := range a {
		set[id] = true
	}
	for _, id := range b {
		if !set[id] {
			return false
		}
	}
	return true
}

// DeleteBill removes a bill and cascades its settlements and receipts.
// Only the payer may delete.
func (s *LedgerService) DeleteBill(ctx context.Context, actorID, billID string) error {
	bill, err := s.store.GetBill(ctx, billID)
	if err != nil {
		return err
	}
	if bill.PayerID != actorID {
		return fmt.Errorf("%w: only the payer can delete a bill", ledger.ErrPermission)
	}
	if err := s.store.DeleteBill(ctx, billID); err != nil {
		return err
	}
	slog.Info("bill deleted", "bill_id", billID, "actor_id", actorID)
	return nil
}

// ToggleIndividual flips one participant's settlement on a bill: it
// creates a settlement snapshotting the current split amount, or deletes
// the existing one. Only the payer manages settlement state, and the
// payer themselves can never be toggled.
func (s *LedgerService) ToggleIndividual(ctx context.Context, actorID, billID, userID string) (*ToggleResult, error) {
	bill, err := s.store.GetBill(ctx, billID)
	if err != nil {
		return nil, err
	}
	if bill.PayerID != actorID {
		return nil, fmt.Errorf("%w: only the payer manages settlement state", ledger.ErrPermission)
	}
	if !bill.HasParticipant(userID) {
		return nil, fmt.Errorf("%w: user %s is not on bill %s", ledger.ErrNotParticipant, userID, billID)
	}
	if userID == bill.PayerID {
		return nil, fmt.Errorf("%w: the payer cannot settle their own bill", ledger.ErrValidation)
	}

	settlements, err := s.store.ListSettlementsByBill(ctx, billID)
	if err != nil {
		return nil, err
	}

	result := &ToggleResult{}
	existing := findSettlement(settlements, userID)
	if existing != nil {
		if err := s.store.DeleteSettlement(ctx, billID, userID); err != nil {
			return nil, err
		}
		settlements = removeSettlement(settlements, userID)
		slog.Info("settlement undone", "bill_id", billID, "settler_id", userID)
	} else {
		settlement := models.NewSettlement(billID, userID, calculator.BillSplit(bill))
		if err := s.store.CreateSettlement(ctx, settlement); err != nil {
			return nil, err
		}
		settlements = append(settlements, settlement)
		result.IsSettled = true
		result.SettledAt = settlement.SettledAt
		slog.Info("settlement recorded",
			"bill_id", billID,
			"settler_id", userID,
			"amount", settlement.Amount.String(),
		)
	}

	result.BillFullySettled = calculator.FullySettled(bill, settlements)
	return result, nil
}

func findSettlement(settlements []*models.Settlement, settlerID string) *models.Settlement {
	for _, s := range settlements {
		if s.SettlerID == settlerID {
			return s
		}
	}
	return nil
}

func removeSettlement(settlements []*models.Settlement, settlerID string) []*models.Settlement {
	out := settlements[:0]
	for _, s := range settlements {
		if s.SettlerID != settlerID {
			out = append(out, s)
		}
	}
	return out
}

// ToggleAll marks a whole bill paid or unpaid. A fully settled bill has
// all its settlements deleted; otherwise settlements are created for
// every non-payer participant still lacking one, so already-settled
// participants are never duplicated or re-charged. New settlements get
// fresh timestamps; deleted rows are never resurrected.
func (s *LedgerService) ToggleAll(ctx context.Context, actorID, billID string) (*ToggleAllResult, error) {
	bill, err := s.store.GetBill(ctx, billID)
	if err != nil {
		return nil, err
	}
	if bill.PayerID != actorID {
		return nil, fmt.Errorf("%w: only the payer manages settlement state", ledger.ErrPermission)
	}

	settlements, err := s.store.ListSettlementsByBill(ctx, billID)
	if err != nil {
		return nil, err
	}

	result := &ToggleAllResult{}
	if calculator.FullySettled(bill, settlements) {
		if err := s.store.ClearSettlements(ctx, billID); err != nil {
			return nil, err
		}
		settlements = nil
		slog.Info("bill marked unsettled", "bill_id", billID)
	} else {
		split := calculator.BillSplit(bill)
		var missing []*models.Settlement
		for _, userID := range bill.NonPayers() {
			if findSettlement(settlements, userID) == nil {
				missing = append(missing, models.NewSettlement(billID, userID, split))
			}
		}
		if err := s.store.CreateSettlements(ctx, missing); err != nil {
			return nil, err
		}
		settlements = append(settlements, missing...)
		result.IsSettled = true
		slog.Info("bill marked settled", "bill_id", billID, "new_settlements", len(missing))
	}

	result.Status = calculator.SettlementStatus(bill, settlements)
	return result, nil
}

// DebtDetails computes the net unsettled debt report for a user across
// the whole ledger.
func (s *LedgerService) DebtDetails(ctx context.Context, userID string) (*calculator.DebtReport, error) {
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, err
	}

	bills, err := s.store.ListBills(ctx)
	if err != nil {
		return nil, err
	}
	byBill, err := s.store.ListSettlements(ctx)
	if err != nil {
		return nil, err
	}
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	known := make(map[string]bool, len(users))
	for _, u := range users {
		known[u.ID] = true
	}
	pairs := make([]calculator.BillLedger, len(bills))
	for i, bill := range bills {
		pairs[i] = calculator.BillLedger{Bill: bill, Settlements: byBill[bill.ID]}
	}

	report := calculator.DebtDetails(userID, pairs, known)
	return &report, nil
}
