// API types for the playground endpoints.
package models

import (
	"github.com/astwrks/assetwork-ai-web-sub001/pkg/db"
)

// ========== Type aliases for database types ==========
// These allow other packages to use models.Thread instead of db.Thread.

type Thread = db.Thread
type Message = db.Message
type Report = db.Report
type Section = db.Section
type Entity = db.Entity
type EntityMention = db.EntityMention

// ========== Constant aliases from db package ==========

const (
	ThreadStatusActive   = db.ThreadStatusActive
	ThreadStatusArchived = db.ThreadStatusArchived
)

const (
	RoleUser      = db.RoleUser
	RoleAssistant = db.RoleAssistant
	RoleSystem    = db.RoleSystem
)

const (
	MessageStatusSending = db.MessageStatusSending
	MessageStatusSent    = db.MessageStatusSent
	MessageStatusError   = db.MessageStatusError
)

const (
	EntityTypeCompany   = db.EntityTypeCompany
	EntityTypeCrypto    = db.EntityTypeCrypto
	EntityTypeCommodity = db.EntityTypeCommodity
	EntityTypeIndex     = db.EntityTypeIndex
)

// ========== Requests ==========

// GenerateRequest starts one streaming report generation on a thread.
// It is ephemeral: nothing of it is persisted directly.
type GenerateRequest struct {
	ThreadID     string `json:"thread_id" binding:"required"`
	Prompt       string `json:"prompt" binding:"required"`
	Model        string `json:"model" binding:"required"`
	SystemPrompt string `json:"system_prompt,omitempty"`
}

// CancelRequest cancels the active generation on a thread.
type CancelRequest struct {
	ThreadID string `json:"thread_id" binding:"required"`
}

// CreateThreadRequest creates a conversation thread.
type CreateThreadRequest struct {
	Title string `json:"title,omitempty"`
}

// UpdateThreadRequest renames, archives or bookmarks a thread.
// Nil fields are left untouched.
type UpdateThreadRequest struct {
	Title      *string `json:"title,omitempty"`
	Status     *string `json:"status,omitempty"`
	Bookmarked *bool   `json:"bookmarked,omitempty"`
}

// ========== Responses ==========

// ThreadList is a paginated thread listing.
type ThreadList struct {
	Threads []Thread `json:"threads"`
	HasMore bool     `json:"has_more"`
}

// GenerationState describes whether a thread has an active generation,
// for reconnecting clients.
type GenerationState struct {
	ThreadID     string `json:"thread_id"`
	IsGenerating bool   `json:"is_generating"`
	Model        string `json:"model,omitempty"`
	StartedAt    int64  `json:"started_at,omitempty"` // Unix ms
}

// ModelInfo is one allow-listed model.
type ModelInfo struct {
	ID       string `json:"id"`
	Provider string `json:"provider"`
}
