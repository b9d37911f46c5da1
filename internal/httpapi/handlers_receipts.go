package httpapi

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/qwei/roomledger/internal/ledger"
	"github.com/qwei/roomledger/internal/middleware"
	"github.com/qwei/roomledger/internal/models"
)

// allowedReceiptTypes maps upload extensions to the stored file type.
var allowedReceiptTypes = map[string]string{
	".pdf":  "pdf",
	".png":  "image",
	".jpg":  "image",
	".jpeg": "image",
	".webp": "image",
}

type receiptResponse struct {
	ID         string `json:"id"`
	BillID     string `json:"bill_id"`
	Filename   string `json:"filename"`
	FileType   string `json:"file_type"`
	SizeBytes  int64  `json:"size_bytes"`
	UploadedAt int64  `json:"uploaded_at"`
}

func toReceiptResponse(rc *models.Receipt) receiptResponse {
	return receiptResponse{
		ID:         rc.ID,
		BillID:     rc.BillID,
		Filename:   rc.Filename,
		FileType:   rc.FileType,
		SizeBytes:  rc.SizeBytes,
		UploadedAt: rc.UploadedAt,
	}
}

func (s *Server) handleListReceipts(w http.ResponseWriter, r *http.Request) {
	receipts, err := s.ledger.ListReceipts(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]receiptResponse, len(receipts))
	for i, rc := range receipts {
		out[i] = toReceiptResponse(rc)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUploadReceipt(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadSize)
	file, header, err := r.FormFile("receipt")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, fmt.Errorf("%w: receipt exceeds %d bytes", ledger.ErrValidation, s.maxUploadSize))
			return
		}
		writeError(w, fmt.Errorf("%w: missing receipt file", ledger.ErrValidation))
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	fileType, ok := allowedReceiptTypes[ext]
	if !ok {
		writeError(w, fmt.Errorf("%w: unsupported receipt type %q", ledger.ErrValidation, ext))
		return
	}

	actorID := middleware.GetUserID(r.Context())
	receipt, err := s.ledger.AttachReceipt(r.Context(), actorID, r.PathValue("id"), header.Filename, fileType, header.Size)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.saveReceiptFile(receipt, ext, file); err != nil {
		// Roll back the metadata row so the ledger never references a
		// file that was not written.
		if _, derr := s.ledger.RemoveReceipt(r.Context(), actorID, receipt.ID); derr != nil {
			slog.Error("Failed to roll back receipt metadata", "receipt_id", receipt.ID, "error", derr)
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toReceiptResponse(receipt))
}

func (s *Server) saveReceiptFile(receipt *models.Receipt, ext string, src io.Reader) error {
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return fmt.Errorf("create upload dir: %w", err)
	}
	dst, err := os.Create(s.receiptPath(receipt.ID, ext))
	if err != nil {
		return fmt.Errorf("create receipt file: %w", err)
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("write receipt file: %w", err)
	}
	return nil
}

// receiptPath derives the on-disk location from the receipt ID, never
// from the client-supplied filename.
func (s *Server) receiptPath(receiptID, ext string) string {
	return filepath.Join(s.uploadDir, receiptID+ext)
}

func (s *Server) handleDownloadReceipt(w http.ResponseWriter, r *http.Request) {
	receipt, err := s.store.GetReceipt(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	path := s.receiptPath(receipt.ID, strings.ToLower(filepath.Ext(receipt.Filename)))
	if _, err := os.Stat(path); err != nil {
		writeError(w, fmt.Errorf("%w: receipt file missing", ledger.ErrNotFound))
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", receipt.Filename))
	http.ServeFile(w, r, path)
}

func (s *Server) handleDeleteReceipt(w http.ResponseWriter, r *http.Request) {
	actorID := middleware.GetUserID(r.Context())
	receipt, err := s.ledger.RemoveReceipt(r.Context(), actorID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	path := s.receiptPath(receipt.ID, strings.ToLower(filepath.Ext(receipt.Filename)))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		slog.Warn("Failed to remove receipt file", "path", path, "error", err)
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
