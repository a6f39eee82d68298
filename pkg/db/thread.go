// Database models for conversation threads.
package db

import "time"

// Thread represents a conversation between a user and the report assistant.
type Thread struct {
	ID         string    `json:"id" gorm:"primaryKey;size:36"`
	UserID     string    `json:"user_id" gorm:"index;size:64;not null"`
	Title      string    `json:"title" gorm:"size:200;default:'New Thread'"`
	Status     string    `json:"status" gorm:"size:20;default:'active'"` // active, archived
	Bookmarked bool      `json:"bookmarked" gorm:"default:false"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Thread) TableName() string {
	return "threads"
}

// Thread status
const (
	ThreadStatusActive   = "active"
	ThreadStatusArchived = "archived"
)
