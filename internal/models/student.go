package models

import "time"

// Student represents a portal user who can submit applications.
type Student struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"size:255;not null" json:"name"`
	NIM        string    `gorm:"size:32;uniqueIndex;not null" json:"nim"`
	Email      string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Department string    `gorm:"size:128" json:"department"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
