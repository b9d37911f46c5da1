package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/qwei/roomledger/internal/ledger"
	"github.com/qwei/roomledger/internal/models"
)

// CreateBill persists a new bill and its participant set in one
// transaction.
func (s *SQLiteStore) CreateBill(ctx context.Context, bill *models.Bill) error {
	if bill.ID == "" {
		bill.ID = uuid.New().String()
	}
	if bill.CreatedAt == 0 {
		bill.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO bills (id, payer_id, amount_cents, description, bill_date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		bill.ID, bill.PayerID, bill.Amount.Cents, bill.Description, bill.Date, bill.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert bill: %w", err)
	}

	if err := insertParticipants(ctx, tx, bill.ID, bill.Participants); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func insertParticipants(ctx context.Context, tx *sql.Tx, billID string, participants []string) error {
	for i, userID := range participants {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO bill_participants (bill_id, user_id, position) VALUES (?, ?, ?)`,
			billID, userID, i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert participant: %w", err)
		}
	}
	return nil
}

// GetBill retrieves a bill by ID with its participants and receipt count.
func (s *SQLiteStore) GetBill(ctx context.Context, id string) (*models.Bill, error) {
	bill := &models.Bill{}
	err := s.db.QueryRowContext(ctx,
		`SELECT b.id, b.payer_id, b.amount_cents, b.description, b.bill_date, b.created_at,
		        (SELECT COUNT(*) FROM receipts r WHERE r.bill_id = b.id)
		 FROM bills b WHERE b.id = ?`,
		id,
	).Scan(&bill.ID, &bill.PayerID, &bill.Amount.Cents, &bill.Description,
		&bill.Date, &bill.CreatedAt, &bill.ReceiptCount)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: bill %s", ledger.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bill: %w", err)
	}

	participants, err := s.billParticipants(ctx, bill.ID)
	if err != nil {
		return nil, err
	}
	bill.Participants = participants
	return bill, nil
}

func (s *SQLiteStore) billParticipants(ctx context.Context, billID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id FROM bill_participants WHERE bill_id = ? ORDER BY position`,
		billID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}
	defer rows.Close()

	var participants []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, userID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participants: %w", err)
	}
	return participants, nil
}

// ListBills returns all bills with participants and receipt counts,
// ordered by occurrence date descending.
func (s *SQLiteStore) ListBills(ctx context.Context) ([]*models.Bill, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT b.id, b.payer_id, b.amount_cents, b.description, b.bill_date, b.created_at,
		        (SELECT COUNT(*) FROM receipts r WHERE r.bill_id = b.id)
		 FROM bills b ORDER BY b.bill_date DESC, b.created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list bills: %w", err)
	}
	defer rows.Close()

	var bills []*models.Bill
	byID := make(map[string]*models.Bill)
	for rows.Next() {
		bill := &models.Bill{}
		if err := rows.Scan(&bill.ID, &bill.PayerID, &bill.Amount.Cents, &bill.Description,
			&bill.Date, &bill.CreatedAt, &bill.ReceiptCount); err != nil {
			return nil, fmt.Errorf("failed to scan bill: %w", err)
		}
		bills = append(bills, bill)
		byID[bill.ID] = bill
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bills: %w", err)
	}

	// Attach participants in one pass.
	prows, err := s.db.QueryContext(ctx,
		`SELECT bill_id, user_id FROM bill_participants ORDER BY bill_id, position`)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer prows.Close()

	for prows.Next() {
		var billID, userID string
		if err := prows.Scan(&billID, &userID); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		if bill, ok := byID[billID]; ok {
			bill.Participants = append(bill.Participants, userID)
		}
	}
	if err := prows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participants: %w", err)
	}
	return bills, nil
}

// UpdateBill rewrites the bill's mutable fields and participant set.
// When clearSettlements is set, the bill's settlements are removed in the
// same transaction so the "edit invalidates settlements" invariant cannot
// be half-applied.
func (s *SQLiteStore) UpdateBill(ctx context.Context, bill *models.Bill, clearSettlements bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE bills SET amount_cents = ?, description = ?, bill_date = ? WHERE id = ?`,
		bill.Amount.Cents, bill.Description, bill.Date, bill.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update bill: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update bill: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: bill %s", ledger.ErrNotFound, bill.ID)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM bill_participants WHERE bill_id = ?`, bill.ID); err != nil {
		return fmt.Errorf("failed to clear participants: %w", err)
	}
	if err := insertParticipants(ctx, tx, bill.ID, bill.Participants); err != nil {
		return err
	}

	if clearSettlements {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM settlements WHERE bill_id = ?`, bill.ID); err != nil {
			return fmt.Errorf("failed to clear settlements: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DeleteBill removes a bill; participants, settlements and receipts
// cascade via foreign keys.
func (s *SQLiteStore) DeleteBill(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM bills WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete bill: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete bill: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: bill %s", ledger.ErrNotFound, id)
	}
	return nil
}
