// Database models for thread messages.
package db

import "time"

// Message represents a single turn in a thread.
// Assistant messages produced by a generation carry the resulting report id.
type Message struct {
	ID       string `json:"id" gorm:"primaryKey;size:36"`
	ThreadID string `json:"thread_id" gorm:"index;size:36;not null"`

	Role    string `json:"role" gorm:"size:20;not null"` // user, assistant, system
	Content string `json:"content" gorm:"type:text"`

	// ReportID links an assistant message to the report it introduced.
	ReportID *string `json:"report_id,omitempty" gorm:"index;size:36"`

	Status string `json:"status" gorm:"size:20;default:'sent'"` // sending, sent, error

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (*Message) TableName() string {
	return "messages"
}

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message status
const (
	MessageStatusSending = "sending"
	MessageStatusSent    = "sent"
	MessageStatusError   = "error"
)
