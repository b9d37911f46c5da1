// Package httpapi exposes the ledger over a JSON HTTP API. Handlers stay
// thin: they decode, call the service layer with the authenticated actor,
// and encode. All policy lives in the service.
package httpapi

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/qwei/roomledger/internal/auth"
	"github.com/qwei/roomledger/internal/middleware"
	"github.com/qwei/roomledger/internal/service"
	"github.com/qwei/roomledger/internal/storage"
)

// Server holds the handler dependencies and the upload policy.
type Server struct {
	ledger        *service.LedgerService
	auth          auth.Authenticator
	jwt           *auth.JWTManager
	store         storage.Store
	uploadDir     string
	maxUploadSize int64
}

// NewServer creates an API server.
func NewServer(ledger *service.LedgerService, authenticator auth.Authenticator, jwt *auth.JWTManager, store storage.Store, uploadDir string, maxUploadSize int64) *Server {
	return &Server{
		ledger:        ledger,
		auth:          authenticator,
		jwt:           jwt,
		store:         store,
		uploadDir:     uploadDir,
		maxUploadSize: maxUploadSize,
	}
}

// Routes builds the full route table. Authenticated routes are wrapped
// with the JWT middleware; login and reset are reachable without a token.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/login", s.handleLogin)
	mux.HandleFunc("POST /api/password/reset", s.handlePasswordReset)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	authed := http.NewServeMux()
	authed.HandleFunc("POST /api/password", s.handlePasswordChange)
	authed.HandleFunc("GET /api/users", s.handleListUsers)

	authed.HandleFunc("GET /api/bills", s.handleListBills)
	authed.HandleFunc("POST /api/bills", s.handleCreateBill)
	authed.HandleFunc("GET /api/bills/{id}", s.handleGetBill)
	authed.HandleFunc("PUT /api/bills/{id}", s.handleEditBill)
	authed.HandleFunc("DELETE /api/bills/{id}", s.handleDeleteBill)
	authed.HandleFunc("POST /api/bills/{id}/settle", s.handleToggleAll)
	authed.HandleFunc("POST /api/bills/{id}/settle/{uid}", s.handleToggleIndividual)

	authed.HandleFunc("GET /api/debts", s.handleDebts)
	authed.HandleFunc("GET /api/dashboard", s.handleDashboard)

	authed.HandleFunc("GET /api/bills/{id}/receipts", s.handleListReceipts)
	authed.HandleFunc("POST /api/bills/{id}/receipts", s.handleUploadReceipt)
	authed.HandleFunc("GET /api/receipts/{id}", s.handleDownloadReceipt)
	authed.HandleFunc("DELETE /api/receipts/{id}", s.handleDeleteReceipt)

	mux.Handle("/api/", middleware.RequireAuth(s.jwt)(authed))

	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
