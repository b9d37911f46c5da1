package httpapi

import (
	"net/http"

	"github.com/qwei/roomledger/internal/calculator"
	"github.com/qwei/roomledger/internal/middleware"
)

type debtEntryResponse struct {
	CounterpartyID   string   `json:"counterparty_id"`
	CounterpartyName string   `json:"counterparty_name"`
	Amount           string   `json:"amount"`
	Bills            []string `json:"bills"`
}

type debtReportResponse struct {
	IOwe       []debtEntryResponse `json:"i_owe"`
	OweMe      []debtEntryResponse `json:"owe_me"`
	TotalIOwe  string              `json:"total_i_owe"`
	TotalOweMe string              `json:"total_owe_me"`
}

func toDebtEntries(entries []calculator.DebtEntry, names map[string]string) []debtEntryResponse {
	out := make([]debtEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = debtEntryResponse{
			CounterpartyID:   e.CounterpartyID,
			CounterpartyName: resolveName(names, e.CounterpartyID),
			Amount:           e.Amount.String(),
			Bills:            e.Bills,
		}
	}
	return out
}

func (s *Server) handleDebts(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	report, err := s.ledger.DebtDetails(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	names, err := s.displayNames(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, debtReportResponse{
		IOwe:       toDebtEntries(report.IOwe, names),
		OweMe:      toDebtEntries(report.OweMe, names),
		TotalIOwe:  report.TotalIOwe.String(),
		TotalOweMe: report.TotalOweMe.String(),
	})
}

type recentBillResponse struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Date        string `json:"date"`
}

type dashboardResponse struct {
	BillsPaid         int                  `json:"bills_paid"`
	BillsParticipated int                  `json:"bills_participated"`
	BillsSettled      int                  `json:"bills_settled"`
	TotalIOwe         string               `json:"total_i_owe"`
	TotalOweMe        string               `json:"total_owe_me"`
	RecentBills       []recentBillResponse `json:"recent_bills"`
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	stats, err := s.ledger.Dashboard(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	recent := make([]recentBillResponse, len(stats.RecentBills))
	for i, b := range stats.RecentBills {
		recent[i] = recentBillResponse{
			ID:          b.ID,
			Description: b.Description,
			Amount:      b.Amount.String(),
			Date:        formatDate(b.Date),
		}
	}
	writeJSON(w, http.StatusOK, dashboardResponse{
		BillsPaid:         stats.BillsPaid,
		BillsParticipated: stats.BillsParticipated,
		BillsSettled:      stats.BillsSettled,
		TotalIOwe:         stats.TotalIOwe.String(),
		TotalOweMe:        stats.TotalOweMe.String(),
		RecentBills:       recent,
	})
}
