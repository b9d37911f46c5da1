package models

import (
	"time"

	"github.com/google/uuid"
)

// Receipt is metadata for an artifact attached to a bill (a photo or PDF
// of the actual invoice). Receipts are owned by their bill and cascade
// with it.
type Receipt struct {
	ID         string
	BillID     string
	Filename   string
	FileType   string // "pdf" or "image"
	SizeBytes  int64
	UploadedAt int64
}

// NewReceipt creates a receipt record with a fresh ID and timestamp.
func NewReceipt(billID, filename, fileType string, sizeBytes int64) *Receipt {
	return &Receipt{
		ID:         uuid.New().String(),
		BillID:     billID,
		Filename:   filename,
		FileType:   fileType,
		SizeBytes:  sizeBytes,
		UploadedAt: time.Now().Unix(),
	}
}
