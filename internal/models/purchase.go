// internal/models/purchase.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Purchase is the settlement record for one buyer acquiring one prompt.
// Invariants enforced by schema and settlement code:
//   - at most one row per (buyer, prompt), regardless of status;
//   - transaction_hash is globally unique;
//   - platform_fee + creator_earning == price exactly;
//   - access_granted implies status == completed and verified == true.
type Purchase struct {
	BaseModel
	BuyerID         uuid.UUID      `json:"buyer_id" gorm:"type:uuid;not null;index;uniqueIndex:idx_purchases_buyer_prompt"`
	BuyerWallet     string         `json:"buyer_wallet" gorm:"size:42;not null"`
	PromptID        uuid.UUID      `json:"prompt_id" gorm:"type:uuid;not null;index;uniqueIndex:idx_purchases_buyer_prompt"`
	Price           Wei            `json:"price" gorm:"type:numeric(78,0);not null"`
	PlatformFee     Wei            `json:"platform_fee" gorm:"type:numeric(78,0);not null"`
	CreatorEarning  Wei            `json:"creator_earning" gorm:"type:numeric(78,0);not null"`
	TransactionHash string         `json:"transaction_hash" gorm:"size:66;not null;uniqueIndex"`
	BlockNumber     *uint64        `json:"block_number,omitempty"`
	Verified        bool           `json:"verified" gorm:"default:false"`
	Status          PurchaseStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	AccessGranted   bool           `json:"access_granted" gorm:"default:false"`
	AccessGrantedAt *time.Time     `json:"access_granted_at,omitempty"`
	Rating          *int           `json:"rating,omitempty"`
	Review          string         `json:"review,omitempty" gorm:"size:500"`
	ReviewedAt      *time.Time     `json:"reviewed_at,omitempty"`

	// Relationships
	Buyer  User   `json:"buyer,omitempty" gorm:"foreignKey:BuyerID"`
	Prompt Prompt `json:"prompt,omitempty" gorm:"foreignKey:PromptID"`
}

// Settled reports whether the record has reached the verified, access-granting
// terminal state.
func (p *Purchase) Settled() bool {
	return p.Status == PurchaseStatusCompleted && p.Verified && p.AccessGranted
}
