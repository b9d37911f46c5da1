package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/qwei/roomledger/internal/ledger"
	"github.com/qwei/roomledger/internal/models"
)

// CreateSettlement inserts one settlement row. The UNIQUE constraint on
// (bill_id, settler_id) rejects duplicates.
func (s *SQLiteStore) CreateSettlement(ctx context.Context, settlement *models.Settlement) error {
	if settlement.ID == "" {
		settlement.ID = uuid.New().String()
	}
	if settlement.SettledAt == 0 {
		settlement.SettledAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settlements (id, bill_id, settler_id, amount_cents, settled_at)
		 VALUES (?, ?, ?, ?, ?)`,
		settlement.ID, settlement.BillID, settlement.SettlerID,
		settlement.Amount.Cents, settlement.SettledAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert settlement: %w", err)
	}
	return nil
}

// CreateSettlements inserts a batch in one transaction.
func (s *SQLiteStore) CreateSettlements(ctx context.Context, settlements []*models.Settlement) error {
	if len(settlements) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, settlement := range settlements {
		if settlement.ID == "" {
			settlement.ID = uuid.New().String()
		}
		if settlement.SettledAt == 0 {
			settlement.SettledAt = time.Now().Unix()
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO settlements (id, bill_id, settler_id, amount_cents, settled_at)
			 VALUES (?, ?, ?, ?, ?)`,
			settlement.ID, settlement.BillID, settlement.SettlerID,
			settlement.Amount.Cents, settlement.SettledAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert settlement: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListSettlementsByBill returns the settlements for one bill.
func (s *SQLiteStore) ListSettlementsByBill(ctx context.Context, billID string) ([]*models.Settlement, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, bill_id, settler_id, amount_cents, settled_at
		 FROM settlements WHERE bill_id = ? ORDER BY settled_at`,
		billID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements: %w", err)
	}
	defer rows.Close()

	var settlements []*models.Settlement
	for rows.Next() {
		settlement := &models.Settlement{}
		if err := rows.Scan(&settlement.ID, &settlement.BillID, &settlement.SettlerID,
			&settlement.Amount.Cents, &settlement.SettledAt); err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		settlements = append(settlements, settlement)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlements: %w", err)
	}
	return settlements, nil
}

// ListSettlements returns every settlement grouped by bill ID, for the
// debt aggregator.
func (s *SQLiteStore) ListSettlements(ctx context.Context) (map[string][]*models.Settlement, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, bill_id, settler_id, amount_cents, settled_at FROM settlements`)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements: %w", err)
	}
	defer rows.Close()

	byBill := make(map[string][]*models.Settlement)
	for rows.Next() {
		settlement := &models.Settlement{}
		if err := rows.Scan(&settlement.ID, &settlement.BillID, &settlement.SettlerID,
			&settlement.Amount.Cents, &settlement.SettledAt); err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		byBill[settlement.BillID] = append(byBill[settlement.BillID], settlement)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlements: %w", err)
	}
	return byBill, nil
}

// DeleteSettlement removes the settlement for one (bill, settler) pair.
func (s *SQLiteStore) DeleteSettlement(ctx context.Context, billID, settlerID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM settlements WHERE bill_id = ? AND settler_id = ?`,
		billID, settlerID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete settlement: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete settlement: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: settlement for bill %s settler %s", ledger.ErrNotFound, billID, settlerID)
	}
	return nil
}

// ClearSettlements removes every settlement for a bill.
func (s *SQLiteStore) ClearSettlements(ctx context.Context, billID string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM settlements WHERE bill_id = ?`, billID); err != nil {
		return fmt.Errorf("failed to clear settlements: %w", err)
	}
	return nil
}
