package service

import (
	"context"

	"github.com/qwei/roomledger/internal/calculator"
	"github.com/qwei/roomledger/internal/models"
	"github.com/qwei/roomledger/internal/money"
)

// DashboardStats summarizes one member's position in the household
// ledger.
type DashboardStats struct {
	BillsPaid         int // bills this user fronted
	BillsParticipated int // bills this user shares in
	BillsSettled      int // participated bills where the user's own share is settled
	TotalIOwe         money.Money
	TotalOweMe        money.Money
	RecentBills       []*models.Bill // newest bills fronted by this user
}

const recentBillLimit = 5

// Dashboard computes the stats panel for a user.
func (s *LedgerService) Dashboard(ctx context.Context, userID string) (*DashboardStats, error) {
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

	stats := &DashboardStats{}
	for _, bill := range bills {
		if bill.PayerID == userID {
			stats.BillsPaid++
			if len(stats.RecentBills) < recentBillLimit {
				stats.RecentBills = append(stats.RecentBills, bill)
			}
		}
		if !bill.HasParticipant(userID) {
			continue
		}
		stats.BillsParticipated++
		status := calculator.SettlementStatus(bill, byBill[bill.ID])
		if ps, ok := status[userID]; ok && ps.IsSettled {
			stats.BillsSettled++
		}
	}

	report, err := s.DebtDetails(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats.TotalIOwe = report.TotalIOwe
	stats.TotalOweMe = report.TotalOweMe
	return stats, nil
}
