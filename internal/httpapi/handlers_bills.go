package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/qwei/roomledger/internal/calculator"
	"github.com/qwei/roomledger/internal/ledger"
	"github.com/qwei/roomledger/internal/middleware"
	"github.com/qwei/roomledger/internal/money"
	"github.com/qwei/roomledger/internal/service"
)

const dateFormat = "2006-01-02"

type participantResponse struct {
	UserID        string `json:"user_id"`
	DisplayName   string `json:"display_name"`
	IsPayer       bool   `json:"is_payer"`
	IsSettled     bool   `json:"is_settled"`
	Expected      string `json:"expected"`
	SettledAmount string `json:"settled_amount,omitempty"`
	SettledAt     int64  `json:"settled_at,omitempty"`
}

type progressResponse struct {
	Settled    int `json:"settled"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

type billResponse struct {
	ID           string                `json:"id"`
	PayerID      string                `json:"payer_id"`
	PayerName    string                `json:"payer_name"`
	Amount       string                `json:"amount"`
	Description  string                `json:"description"`
	Date         string                `json:"date"`
	SplitAmount  string                `json:"split_amount"`
	Participants []participantResponse `json:"participants"`
	Progress     progressResponse      `json:"progress"`
	FullySettled bool                  `json:"fully_settled"`
	ReceiptCount int                   `json:"receipt_count"`
	CreatedAt    int64                 `json:"created_at"`
}

// displayNames loads the household roster for resolving IDs at the
// presentation layer. Unknown IDs fall back to the raw ID.
func (s *Server) displayNames(ctx context.Context) (map[string]string, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.ID] = u.DisplayName
	}
	return names, nil
}

func resolveName(names map[string]string, id string) string {
	if name, ok := names[id]; ok {
		return name
	}
	return id
}

func toBillResponse(d *service.BillDetail, names map[string]string) billResponse {
	b := d.Bill
	participants := make([]participantResponse, 0, len(b.Participants))
	for _, userID := range b.Participants {
		ps := d.Status[userID]
		pr := participantResponse{
			UserID:      userID,
			DisplayName: resolveName(names, userID),
			IsPayer:     ps.IsPayer,
			IsSettled:   ps.IsSettled,
			Expected:    ps.Expected.String(),
			SettledAt:   ps.SettledAt,
		}
		if !ps.SettledAmount.IsZero() {
			pr.SettledAmount = ps.SettledAmount.String()
		}
		participants = append(participants, pr)
	}

	return billResponse{
		ID:           b.ID,
		PayerID:      b.PayerID,
		PayerName:    resolveName(names, b.PayerID),
		Amount:       b.Amount.String(),
		Description:  b.Description,
		Date:         formatDate(b.Date),
		SplitAmount:  d.SplitAmount.String(),
		Participants: participants,
		Progress: progressResponse{
			Settled:    d.Progress.Settled,
			Total:      d.Progress.Total,
			Percentage: d.Progress.Percentage,
		},
		FullySettled: d.FullySettled,
		ReceiptCount: b.ReceiptCount,
		CreatedAt:    b.CreatedAt,
	}
}

type createBillRequest struct {
	Amount       string   `json:"amount"`
	Description  string   `json:"description"`
	Date         string   `json:"date"`
	Participants []string `json:"participants"`
}

func (s *Server) handleCreateBill(w http.ResponseWriter, r *http.Request) {
	var req createBillRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	amount, err := money.ParseDecimal(req.Amount)
	if err != nil {
		writeError(w, fmt.Errorf("%w: %v", ledger.ErrValidation, err))
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, err)
		return
	}

	actorID := middleware.GetUserID(r.Context())
	// The payer always shares in their own bill.
	participants := append([]string{actorID}, req.Participants...)

	bill, err := s.ledger.CreateBill(r.Context(), actorID, amount, req.Description, date, participants)
	if err != nil {
		writeError(w, err)
		return
	}

	detail, err := s.ledger.GetBill(r.Context(), bill.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	names, err := s.displayNames(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBillResponse(detail, names))
}

func formatDate(unix int64) string {
	return time.Unix(unix, 0).UTC().Format(dateFormat)
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	date, err := time.Parse(dateFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q, expected YYYY-MM-DD", ledger.ErrValidation, s)
	}
	return date, nil
}

func (s *Server) handleListBills(w http.ResponseWriter, r *http.Request) {
	details, err := s.ledger.ListBills(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	names, err := s.displayNames(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]billResponse, len(details))
	for i, d := range details {
		out[i] = toBillResponse(d, names)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetBill(w http.ResponseWriter, r *http.Request) {
	detail, err := s.ledger.GetBill(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	names, err := s.displayNames(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBillResponse(detail, names))
}

type editBillRequest struct {
	Amount       *string  `json:"amount"`
	Description  *string  `json:"description"`
	Date         *string  `json:"date"`
	Participants []string `json:"participants"`
}

func (s *Server) handleEditBill(w http.ResponseWriter, r *http.Request) {
	var req editBillRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	upd := service.BillUpdate{
		Description: req.Description,
	}
	if req.Amount != nil {
		amount, err := money.ParseDecimal(*req.Amount)
		if err != nil {
			writeError(w, fmt.Errorf("%w: %v", ledger.ErrValidation, err))
			return
		}
		upd.Amount = &amount
	}
	if req.Date != nil {
		date, err := parseDate(*req.Date)
		if err != nil {
			writeError(w, err)
			return
		}
		upd.Date = &date
	}
	if req.Participants != nil {
		actorID := middleware.GetUserID(r.Context())
		upd.Participants = append([]string{actorID}, req.Participants...)
	}

	billID := r.PathValue("id")
	actorID := middleware.GetUserID(r.Context())
	if err := s.ledger.EditBill(r.Context(), actorID, billID, upd); err != nil {
		writeError(w, err)
		return
	}

	detail, err := s.ledger.GetBill(r.Context(), billID)
	if err != nil {
		writeError(w, err)
		return
	}
	names, err := s.displayNames(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBillResponse(detail, names))
}

func (s *Server) handleDeleteBill(w http.ResponseWriter, r *http.Request) {
	actorID := middleware.GetUserID(r.Context())
	if err := s.ledger.DeleteBill(r.Context(), actorID, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type toggleResponse struct {
	IsSettled        bool  `json:"is_settled"`
	BillFullySettled bool  `json:"bill_fully_settled"`
	SettledAt        int64 `json:"settled_at,omitempty"`
}

func (s *Server) handleToggleIndividual(w http.ResponseWriter, r *http.Request) {
	actorID := middleware.GetUserID(r.Context())
	result, err := s.ledger.ToggleIndividual(r.Context(), actorID, r.PathValue("id"), r.PathValue("uid"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toggleResponse{
		IsSettled:        result.IsSettled,
		BillFullySettled: result.BillFullySettled,
		SettledAt:        result.SettledAt,
	})
}

type toggleAllResponse struct {
	IsSettled    bool                  `json:"is_settled"`
	Participants []participantResponse `json:"participants"`
}

func (s *Server) handleToggleAll(w http.ResponseWriter, r *http.Request) {
	actorID := middleware.GetUserID(r.Context())
	result, err := s.ledger.ToggleAll(r.Context(), actorID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	names, err := s.displayNames(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	participants := make([]participantResponse, 0, len(result.Status))
	for _, ps := range sortedStatus(result.Status) {
		pr := participantResponse{
			UserID:      ps.UserID,
			DisplayName: resolveName(names, ps.UserID),
			IsPayer:     ps.IsPayer,
			IsSettled:   ps.IsSettled,
			Expected:    ps.Expected.String(),
			SettledAt:   ps.SettledAt,
		}
		if !ps.SettledAmount.IsZero() {
			pr.SettledAmount = ps.SettledAmount.String()
		}
		participants = append(participants, pr)
	}
	writeJSON(w, http.StatusOK, toggleAllResponse{
		IsSettled:    result.IsSettled,
		Participants: participants,
	})
}

func sortedStatus(status map[string]calculator.ParticipantStatus) []calculator.ParticipantStatus {
	out := make([]calculator.ParticipantStatus, 0, len(status))
	for _, ps := range status {
		out = append(out, ps)
	}
	// Stable order for clients; payer first, then by ID.
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsPayer != out[j].IsPayer {
			return out[i].IsPayer
		}
		return out[i].UserID < out[j].UserID
	})
	return out
}
