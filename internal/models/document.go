package models

import "time"

// DocumentStatus tracks per-document verification independently of the parent application.
type DocumentStatus string

const (
	// DocumentUnverified is the default state for freshly uploaded documents.
	DocumentUnverified DocumentStatus = "unverified"
	// DocumentVerified marks a document checked and accepted by staff.
	DocumentVerified DocumentStatus = "verified"
	// DocumentRejected marks a document checked and refused by staff.
	DocumentRejected DocumentStatus = "rejected"
)

// IsValidDocumentStatus reports whether the value belongs to the document status set.
func IsValidDocumentStatus(status DocumentStatus) bool {
	switch status {
	case DocumentUnverified, DocumentVerified, DocumentRejected:
		return true
	}
	return false
}

// Document is a file attached to an application. Verification status never
// cascades to the parent application.
type Document struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	ApplicationID uint           `gorm:"not null;index" json:"application_id"`
	Name          string         `gorm:"size:255;not null" json:"name"`
	Type          string         `gorm:"size:64" json:"type"`
	FileURL       string         `gorm:"size:512" json:"file_url"`
	Status        DocumentStatus `gorm:"size:32;not null" json:"status"`
	UploadedAt    time.Time      `gorm:"not null" json:"uploaded_at"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}
