// internal/models/prompt.go
package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
)

type Prompt struct {
	BaseModel
	CreatorID     uuid.UUID      `json:"creator_id" gorm:"type:uuid;not null;index"`
	CreatorWallet string         `json:"creator_wallet" gorm:"size:42;not null"`
	Title         string         `json:"title" gorm:"size:200;not null"`
	Description   string         `json:"description" gorm:"size:2000;not null"`
	// Content is the protected payload. It is never serialized with the
	// model; the detail handler copies it into the response only after the
	// access check passes.
	Content       string         `json:"-" gorm:"type:text;not null"`
	Category      string         `json:"category" gorm:"size:50;not null;index"`
	Tags          pq.StringArray `json:"tags" gorm:"type:text[]"`
	Price         Wei            `json:"price" gorm:"type:numeric(78,0);not null"`
	SampleOutput  string         `json:"sample_output,omitempty" gorm:"size:1000"`
	AIModel       string         `json:"ai_model" gorm:"size:50;default:'Any'"`
	Difficulty    string         `json:"difficulty" gorm:"size:20;default:'Intermediate'"`
	Language      string         `json:"language" gorm:"size:50;default:'English'"`
	PurchaseCount int64          `json:"purchase_count" gorm:"default:0"`
	ViewCount     int64          `json:"view_count" gorm:"default:0"`
	Rating        float64        `json:"rating" gorm:"type:decimal(3,2);default:0"`
	ReviewCount   int64          `json:"review_count" gorm:"default:0"`
	IsActive      bool           `json:"is_active" gorm:"default:true;index"`

	// Relationships
	Creator   User       `json:"creator,omitempty" gorm:"foreignKey:CreatorID"`
	Purchases []Purchase `json:"-" gorm:"foreignKey:PromptID"`
}
