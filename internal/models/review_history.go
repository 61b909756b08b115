package models

import "time"

// ReviewHistory records one row per successful status transition of an application.
type ReviewHistory struct {
	ID            uint              `gorm:"primaryKey" json:"id"`
	ApplicationID uint              `gorm:"not null;index" json:"application_id"`
	FromStatus    ApplicationStatus `gorm:"size:32;not null" json:"from_status"`
	ToStatus      ApplicationStatus `gorm:"size:32;not null" json:"to_status"`
	ReviewerID    uint              `gorm:"not null" json:"reviewer_id"`
	Notes         string            `gorm:"type:text" json:"notes"`
	CreatedAt     time.Time         `json:"created_at"`
}
