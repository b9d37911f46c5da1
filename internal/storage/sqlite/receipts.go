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

// AddReceipt attaches receipt metadata to a bill.
func (s *SQLiteStore) AddReceipt(ctx context.Context, receipt *models.Receipt) error {
	if receipt.ID == "" {
		receipt.ID = uuid.New().String()
	}
	if receipt.UploadedAt == 0 {
		receipt.UploadedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO receipts (id, bill_id, filename, file_type, size_bytes, uploaded_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		receipt.ID, receipt.BillID, receipt.Filename, receipt.FileType,
		receipt.SizeBytes, receipt.UploadedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert receipt: %w", err)
	}
	return nil
}

// GetReceipt retrieves receipt metadata by ID.
func (s *SQLiteStore) GetReceipt(ctx context.Context, id string) (*models.Receipt, error) {
	receipt := &models.Receipt{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, bill_id, filename, file_type, size_bytes, uploaded_at
		 FROM receipts WHERE id = ?`, id,
	).Scan(&receipt.ID, &receipt.BillID, &receipt.Filename, &receipt.FileType,
		&receipt.SizeBytes, &receipt.UploadedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: receipt %s", ledger.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get receipt: %w", err)
	}
	return receipt, nil
}

// ListReceiptsByBill returns the receipts attached to a bill.
func (s *SQLiteStore) ListReceiptsByBill(ctx context.Context, billID string) ([]*models.Receipt, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, bill_id, filename, file_type, size_bytes, uploaded_at
		 FROM receipts WHERE bill_id = ? ORDER BY uploaded_at`,
		billID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list receipts: %w", err)
	}
	defer rows.Close()

	var receipts []*models.Receipt
	for rows.Next() {
		receipt := &models.Receipt{}
		if err := rows.Scan(&receipt.ID, &receipt.BillID, &receipt.Filename,
			&receipt.FileType, &receipt.SizeBytes, &receipt.UploadedAt); err != nil {
			return nil, fmt.Errorf("failed to scan receipt: %w", err)
		}
		receipts = append(receipts, receipt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate receipts: %w", err)
	}
	return receipts, nil
}

// DeleteReceipt removes one receipt record.
func (s *SQLiteStore) DeleteReceipt(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM receipts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete receipt: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete receipt: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: receipt %s", ledger.ErrNotFound, id)
	}
	return nil
}
