package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/qwei/roomledger/internal/ledger"
	"github.com/qwei/roomledger/internal/models"
)

// AttachReceipt records receipt metadata for a bill. Any participant on
// the bill may attach a receipt.
func (s *LedgerService) AttachReceipt(ctx context.Context, actorID, billID, filename, fileType string, sizeBytes int64) (*models.Receipt, error) {
	bill, err := s.store.GetBill(ctx, billID)
	if err != nil {
		return nil, err
	}
	if !bill.HasParticipant(actorID) {
		return nil, fmt.Errorf("%w: only participants can attach receipts", ledger.ErrPermission)
	}

	receipt := models.NewReceipt(billID, filename, fileType, sizeBytes)
	if err := s.store.AddReceipt(ctx, receipt); err != nil {
		return nil, err
	}
	slog.Info("receipt attached",
		"receipt_id", receipt.ID,
		"bill_id", billID,
		"file_type", fileType,
		"size_bytes", sizeBytes,
	)
	return receipt, nil
}

// ListReceipts returns the receipts attached to a bill.
func (s *LedgerService) ListReceipts(ctx context.Context, billID string) ([]*models.Receipt, error) {
	if _, err := s.store.GetBill(ctx, billID); err != nil {
		return nil, err
	}
	return s.store.ListReceiptsByBill(ctx, billID)
}

// RemoveReceipt deletes a receipt's metadata. Only the bill's payer may
// remove receipts. The deleted record is returned so the caller can
// clean up the stored file.
func (s *LedgerService) RemoveReceipt(ctx context.Context, actorID, receiptID string) (*models.Receipt, error) {
	receipt, err := s.store.GetReceipt(ctx, receiptID)
	if err != nil {
		return nil, err
	}
	bill, err := s.store.GetBill(ctx, receipt.BillID)
	if err != nil {
		return nil, err
	}
	if bill.PayerID != actorID {
		return nil, fmt.Errorf("%w: only the payer can remove receipts", ledger.ErrPermission)
	}
	if err := s.store.DeleteReceipt(ctx, receiptID); err != nil {
		return nil, err
	}
	slog.Info("receipt removed", "receipt_id", receiptID, "bill_id", receipt.BillID)
	return receipt, nil
}
