package dto

import (
	"time"

	"github.com/fasilkom-dev/siakad-api/internal/models"
)

// ApplicationSubmitRequest describes the payload for a new submission.
type ApplicationSubmitRequest struct {
	StudentID uint   `json:"student_id" validate:"required,gt=0"`
	Category  string `json:"category" validate:"required,oneof=internship thesis"`
	Title     string `json:"title" validate:"required,min=3,max=255"`
}

// ApplicationReviewRequest carries a reviewer decision for an application.
type ApplicationReviewRequest struct {
	Decision string  `json:"decision" validate:"required,oneof=in-review approved rejected"`
	Notes    *string `json:"notes" validate:"omitempty,max=2000"`
}

// ApplicationNotesRequest overwrites the free-text notes on an application.
type ApplicationNotesRequest struct {
	Notes string `json:"notes" validate:"required,max=2000"`
}

// ApplicationFilter describes query string filters for listing applications.
type ApplicationFilter struct {
	StudentID *uint   `query:"student_id"`
	Category  *string `query:"category" validate:"omitempty,oneof=internship thesis"`
	Status    *string `query:"status" validate:"omitempty,oneof=pending in-review approved rejected completed"`
	Search    string  `query:"q"`
}

// ApplicationResponse is returned to API clients when viewing applications.
type ApplicationResponse struct {
	ID           uint                    `json:"id"`
	StudentID    uint                    `json:"student_id"`
	Category     string                  `json:"category"`
	Title        string                  `json:"title"`
	Status       string                  `json:"status"`
	Notes        string                  `json:"notes"`
	SupervisorID *uint                   `json:"supervisor_id"`
	SubmittedAt  time.Time               `json:"submitted_at"`
	ReviewedAt   *time.Time              `json:"reviewed_at"`
	ReviewedBy   *uint                   `json:"reviewed_by"`
	Student      StudentLite             `json:"student"`
	Supervisor   *SupervisorLite         `json:"supervisor,omitempty"`
	Documents    []DocumentResponse      `json:"documents"`
	History      []ReviewHistoryResponse `json:"history"`
}

// StudentLite summarizes a student in application responses.
type StudentLite struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	NIM  string `json:"nim"`
}

// SupervisorLite summarizes an assigned supervisor.
type SupervisorLite struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// ReviewHistoryResponse serializes one recorded status transition.
type ReviewHistoryResponse struct {
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	ReviewerID uint      `json:"reviewer_id"`
	Notes      string    `json:"notes"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewApplicationResponse maps an application model to its API shape.
func NewApplicationResponse(application models.Application) ApplicationResponse {
	response := ApplicationResponse{
		ID:           application.ID,
		StudentID:    application.StudentID,
		Category:     string(application.Category),
		Title:        application.Title,
		Status:       string(application.Status),
		Notes:        application.Notes,
		SupervisorID: application.SupervisorID,
		SubmittedAt:  application.SubmittedAt,
		ReviewedAt:   application.ReviewedAt,
		ReviewedBy:   application.ReviewedBy,
		Student: StudentLite{
			ID:   application.Student.ID,
			Name: application.Student.Name,
			NIM:  application.Student.NIM,
		},
		Documents: NewDocumentResponseSlice(application.Documents),
		History:   make([]ReviewHistoryResponse, 0, len(application.History)),
	}

	if application.Supervisor != nil {
		response.Supervisor = &SupervisorLite{
			ID:   application.Supervisor.ID,
			Name: application.Supervisor.Name,
		}
	}

	for _, entry := range application.History {
		response.History = append(response.History, ReviewHistoryResponse{
			FromStatus: string(entry.FromStatus),
			ToStatus:   string(entry.ToStatus),
			ReviewerID: entry.ReviewerID,
			Notes:      entry.Notes,
			CreatedAt:  entry.CreatedAt,
		})
	}

	return response
}

// NewApplicationResponseSlice maps a slice of applications.
func NewApplicationResponseSlice(applications []models.Application) []ApplicationResponse {
	responses := make([]ApplicationResponse, 0, len(applications))
	for _, application := range applications {
		responses = append(responses, NewApplicationResponse(application))
	}
	return responses
}
