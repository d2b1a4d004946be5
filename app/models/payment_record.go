package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
)

// PaymentRecord is an append-only ledger entry, one per payment attempt.
// Rows are never updated or deleted after creation.
type PaymentRecord struct {
	ID                      string            `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID                  uint              `gorm:"not null;index" json:"user_id"`
	Amount                  float64           `gorm:"type:decimal(10,2);not null" json:"amount"`
	Currency                string            `gorm:"type:varchar(8);not null;default:'usd'" json:"currency"`
	Status                  string            `gorm:"type:varchar(16);not null;index" json:"status"`
	PaymentMethod           string            `gorm:"type:varchar(32);not null;default:''" json:"payment_method"`
	ProviderPaymentIntentID string            `gorm:"type:varchar(191);not null;default:''" json:"provider_payment_intent_id"`
	PlanName                string            `gorm:"type:varchar(100);not null;default:''" json:"plan_name"`
	DurationType            string            `gorm:"type:varchar(16);not null;default:''" json:"duration_type"`
	Metadata                datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt               time.Time         `gorm:"autoCreateTime;index" json:"created_at"`
}

// BeforeCreate assigns a uuid primary key when none was set.
func (p *PaymentRecord) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
