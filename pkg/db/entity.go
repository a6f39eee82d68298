// Database models for financial entities mentioned in reports.
package db

import "time"

// Entity is a named financial subject (company, crypto, commodity, index).
// Entities are shared reference data: many reports may mention one entity.
type Entity struct {
	ID     string `json:"id" gorm:"primaryKey;size:36"`
	Name   string `json:"name" gorm:"size:200;not null;uniqueIndex:idx_entity_name_type"`
	Type   string `json:"type" gorm:"size:20;not null;uniqueIndex:idx_entity_name_type"`
	Ticker string `json:"ticker,omitempty" gorm:"size:20;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Entity) TableName() string {
	return "entities"
}

// Entity types
const (
	EntityTypeCompany   = "company"
	EntityTypeCrypto    = "crypto"
	EntityTypeCommodity = "commodity"
	EntityTypeIndex     = "index"
)

// EntityMention joins a report to an entity it mentions, with per-report
// sentiment and relevance scores.
type EntityMention struct {
	ID       string `json:"id" gorm:"primaryKey;size:36"`
	ReportID string `json:"report_id" gorm:"index;size:36;not null"`
	EntityID string `json:"entity_id" gorm:"index;size:36;not null"`

	Sentiment float64 `json:"sentiment"` // -1..1
	Relevance float64 `json:"relevance"` // 0..1
	Count     int     `json:"count" gorm:"default:1"`

	CreatedAt time.Time `json:"created_at"`

	Entity *Entity `json:"entity,omitempty" gorm:"foreignKey:EntityID"`
}

func (EntityMention) TableName() string {
	return "entity_mentions"
}
