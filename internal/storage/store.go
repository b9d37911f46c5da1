// Package storage provides abstractions for persistent ledger storage.
package storage

import (
	"context"

	"github.com/qwei/roomledger/internal/models"
)

// Store defines the interface for ledger persistence. The SQLite
// implementation is the default; the abstraction keeps the service layer
// independent of the backend.
//
// Lookups return an error wrapping ledger.ErrNotFound for unknown ids.
// Multi-row mutations (ClearSettlements with a bill update, toggle-all
// settlement batches, cascading deletes) are atomic within the store.
type Store interface {
	// CreateUser persists a new user.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUser retrieves a user by ID.
	GetUser(ctx context.Context, id string) (*models.User, error)

	// GetUserByUsername retrieves a user by their login handle.
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)

	// ListUsers returns all household members ordered by creation time.
	ListUsers(ctx context.Context) ([]*models.User, error)

	// UpdateUser persists changes to display name, password state and
	// login bookkeeping.
	UpdateUser(ctx context.Context, user *models.User) error

	// CountUsers reports how many accounts exist; used for first-run
	// seeding.
	CountUsers(ctx context.Context) (int, error)

	// CreateBill persists a new bill with its participant set.
	CreateBill(ctx context.Context, bill *models.Bill) error

	// GetBill retrieves a bill with participants and receipt count.
	GetBill(ctx context.Context, id string) (*models.Bill, error)

	// ListBills returns all bills ordered by occurrence date descending.
	ListBills(ctx context.Context) ([]*models.Bill, error)

	// UpdateBill rewrites a bill's mutable fields and participant set.
	// When clearSettlements is set, every settlement for the bill is
	// deleted in the same transaction.
	UpdateBill(ctx context.Context, bill *models.Bill, clearSettlements bool) error

	// DeleteBill removes a bill; settlements and receipts cascade.
	DeleteBill(ctx context.Context, id string) error

	// ListSettlementsByBill returns the settlements for one bill.
	ListSettlementsByBill(ctx context.Context, billID string) ([]*models.Settlement, error)

	// ListSettlements returns every settlement, keyed by bill ID.
	ListSettlements(ctx context.Context) (map[string][]*models.Settlement, error)

	// CreateSettlement inserts one settlement row. Fails if the
	// (bill, settler) pair already has one.
	CreateSettlement(ctx context.Context, settlement *models.Settlement) error

	// CreateSettlements inserts a batch atomically; used by toggle-all.
	CreateSettlements(ctx context.Context, settlements []*models.Settlement) error

	// DeleteSettlement removes the settlement for one (bill, settler)
	// pair.
	DeleteSettlement(ctx context.Context, billID, settlerID string) error

	// ClearSettlements removes every settlement for a bill.
	ClearSettlements(ctx context.Context, billID string) error

	// AddReceipt attaches receipt metadata to a bill.
	AddReceipt(ctx context.Context, receipt *models.Receipt) error

	// GetReceipt retrieves receipt metadata by ID.
	GetReceipt(ctx context.Context, id string) (*models.Receipt, error)

	// ListReceiptsByBill returns the receipts attached to a bill.
	ListReceiptsByBill(ctx context.Context, billID string) ([]*models.Receipt, error)

	// DeleteReceipt removes one receipt record.
	DeleteReceipt(ctx context.Context, id string) error

	// Close releases any resources held by the store.
	Close() error
}
