package dto

import "time"

// StudentDashboardResponse aggregates a student's submission state for the portal home.
type StudentDashboardResponse struct {
	StudentID         uint             `json:"student_id"`
	Internship        CategorySummary  `json:"internship"`
	Thesis            CategorySummary  `json:"thesis"`
	DocumentsTotal    int64            `json:"documents_total"`
	DocumentsVerified int64            `json:"documents_verified"`
	LatestDecision    *DecisionSummary `json:"latest_decision,omitempty"`
	GeneratedAt       time.Time        `json:"generated_at"`
}

// CategorySummary counts a student's applications per status within one category.
type CategorySummary struct {
	Pending   int64 `json:"pending"`
	InReview  int64 `json:"in_review"`
	Approved  int64 `json:"approved"`
	Rejected  int64 `json:"rejected"`
	Completed int64 `json:"completed"`
}

// DecisionSummary describes the most recent reviewer decision affecting the student.
type DecisionSummary struct {
	ApplicationID uint      `json:"application_id"`
	Category      string    `json:"category"`
	Status        string    `json:"status"`
	ReviewedAt    time.Time `json:"reviewed_at"`
}

// StaffDashboardResponse aggregates review queue sizes for staff views.
type StaffDashboardResponse struct {
	InternshipQueue QueueSummary `json:"internship_queue"`
	ThesisQueue     QueueSummary `json:"thesis_queue"`
	GeneratedAt     time.Time    `json:"generated_at"`
}

// QueueSummary counts applications awaiting staff action in one category.
type QueueSummary struct {
	Pending  int64 `json:"pending"`
	InReview int64 `json:"in_review"`
	Decided  int64 `json:"decided"`
}
