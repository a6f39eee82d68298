// Database models for generated reports and their sections.
package db

import "time"

// Report is the final artifact of one generation: the full content plus
// ordered sections and extracted entity mentions.
// Exactly one row is written per successful generation, at completion.
type Report struct {
	ID       string `json:"id" gorm:"primaryKey;size:36"`
	ThreadID string `json:"thread_id" gorm:"index;size:36;not null"`

	Content string `json:"content" gorm:"type:text"`

	// Generation metadata
	Model            string `json:"model" gorm:"size:100"`
	Prompt           string `json:"prompt" gorm:"type:text"`
	PromptTokens     int    `json:"prompt_tokens,omitempty"`
	CompletionTokens int    `json:"completion_tokens,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Sections are owned by the report; they have no independent lifecycle.
	Sections []Section       `json:"sections,omitempty" gorm:"foreignKey:ReportID;constraint:OnDelete:CASCADE"`
	Mentions []EntityMention `json:"mentions,omitempty" gorm:"foreignKey:ReportID;constraint:OnDelete:CASCADE"`
}

func (Report) TableName() string {
	return "reports"
}

// Section is an ordered, titled unit of report content.
// Order is assigned once during generation and never reassigned.
type Section struct {
	ID       string `json:"id" gorm:"primaryKey;size:36"`
	ReportID string `json:"report_id,omitempty" gorm:"index;size:36"`

	Title   string `json:"title" gorm:"size:300"`
	Content string `json:"content" gorm:"type:text"`
	Order   int    `json:"order" gorm:"column:sort_order;not null"`
	Status  string `json:"status" gorm:"size:20;default:'complete'"` // loading, complete, error

	CreatedAt time.Time `json:"created_at"`
}

func (Section) TableName() string {
	return "sections"
}

// Section status
const (
	SectionStatusLoading  = "loading"
	SectionStatusComplete = "complete"
	SectionStatusError    = "error"
)
