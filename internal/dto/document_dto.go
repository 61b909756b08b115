package dto

import (
	"time"

	"github.com/fasilkom-dev/siakad-api/internal/models"
)

// DocumentAttachRequest describes the multipart payload for attaching a document.
type DocumentAttachRequest struct {
	Type   string `form:"type" validate:"required,min=2,max=64"`
	Status string `form:"status" validate:"omitempty,oneof=unverified verified rejected"`
}

// DocumentStatusRequest updates the verification state of a single document.
type DocumentStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=unverified verified rejected"`
}

// DocumentResponse is returned to API clients when viewing documents.
type DocumentResponse struct {
	ID            uint      `json:"id"`
	ApplicationID uint      `json:"application_id"`
	Name          string    `json:"name"`
	Type          string    `json:"type"`
	FileURL       string    `json:"file_url"`
	Status        string    `json:"status"`
	UploadedAt    time.Time `json:"uploaded_at"`
}

// NewDocumentResponse maps a document model to its API shape.
func NewDocumentResponse(document models.Document) DocumentResponse {
	return DocumentResponse{
		ID:            document.ID,
		ApplicationID: document.ApplicationID,
		Name:          document.Name,
		Type:          document.Type,
		FileURL:       document.FileURL,
		Status:        string(document.Status),
		UploadedAt:    document.UploadedAt,
	}
}

// NewDocumentResponseSlice maps a slice of documents.
func NewDocumentResponseSlice(documents []models.Document) []DocumentResponse {
	responses := make([]DocumentResponse, 0, len(documents))
	for _, document := range documents {
		responses = append(responses, NewDocumentResponse(document))
	}
	return responses
}
