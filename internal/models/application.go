package models

import "time"

// ApplicationStatus is the closed set of workflow states an application moves through.
type ApplicationStatus string

const (
	// StatusPending is the initial state assigned at submission time.
	StatusPending ApplicationStatus = "pending"
	// StatusInReview marks an application a reviewer has picked up but not decided.
	StatusInReview ApplicationStatus = "in-review"
	// StatusApproved is terminal for the review workflow.
	StatusApproved ApplicationStatus = "approved"
	// StatusRejected is terminal; resubmission creates a new application.
	StatusRejected ApplicationStatus = "rejected"
	// StatusCompleted closes an approved thesis submission via the archival batch.
	StatusCompleted ApplicationStatus = "completed"
)

// ApplicationCategory distinguishes the two submission workflows the portal tracks.
type ApplicationCategory string

const (
	// CategoryInternship covers KKP placement requests.
	CategoryInternship ApplicationCategory = "internship"
	// CategoryThesis covers thesis title submissions.
	CategoryThesis ApplicationCategory = "thesis"
)

// transitions maps each status to the states reachable from it. The thesis
// workflow additionally allows approved -> completed.
var transitions = map[ApplicationStatus][]ApplicationStatus{
	StatusPending:  {StatusInReview, StatusApproved, StatusRejected},
	StatusInReview: {StatusApproved, StatusRejected},
}

// CanTransition reports whether moving from one status to another is legal
// within the given category. It is the single authority consulted before any
// status mutation.
func CanTransition(category ApplicationCategory, from, to ApplicationStatus) bool {
	if category == CategoryThesis && from == StatusApproved && to == StatusCompleted {
		return true
	}

	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}

	return false
}

// IsValidStatus reports whether the value belongs to the closed status set.
func IsValidStatus(status ApplicationStatus) bool {
	switch status {
	case StatusPending, StatusInReview, StatusApproved, StatusRejected, StatusCompleted:
		return true
	}
	return false
}

// IsValidCategory reports whether the value names a known workflow category.
func IsValidCategory(category ApplicationCategory) bool {
	return category == CategoryInternship || category == CategoryThesis
}

// Active reports whether the status counts against the one-active-submission rule.
func (s ApplicationStatus) Active() bool {
	return s == StatusPending || s == StatusInReview
}

// Terminal reports whether no reviewer-driven transition leaves the status.
func (s ApplicationStatus) Terminal() bool {
	return s == StatusRejected || s == StatusCompleted
}

// Application is a student's internship or thesis submission tracked through review.
type Application struct {
	ID           uint                `gorm:"primaryKey" json:"id"`
	StudentID    uint                `gorm:"not null;index" json:"student_id"`
	Category     ApplicationCategory `gorm:"size:32;not null;index" json:"category"`
	Title        string              `gorm:"size:255;not null" json:"title"`
	Status       ApplicationStatus   `gorm:"size:32;not null" json:"status"`
	Notes        string              `gorm:"type:text" json:"notes"`
	SupervisorID *uint               `json:"supervisor_id"`
	SubmittedAt  time.Time           `gorm:"not null" json:"submitted_at"`
	ReviewedAt   *time.Time          `json:"reviewed_at"`
	ReviewedBy   *uint               `json:"reviewed_by"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
	Student      Student             `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student"`
	Supervisor   *Supervisor         `json:"supervisor,omitempty"`
	Documents    []Document          `gorm:"constraint:OnDelete:CASCADE" json:"documents"`
	History      []ReviewHistory     `gorm:"constraint:OnDelete:CASCADE" json:"history"`
}

// Reviewed reports whether a reviewer decision has ever been recorded.
func (a Application) Reviewed() bool {
	return a.ReviewedAt != nil
}
