package models

import "time"

// Supervisor is a lecturer eligible to supervise internship and thesis work.
type Supervisor struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"size:255;not null" json:"name"`
	Email      string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Department string    `gorm:"size:128" json:"department"`
	Active     bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
