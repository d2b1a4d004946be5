package models

import "time"

// ProcessedEvent is the idempotency ledger. Inserting the provider event id
// is the first durable write of handling an event and shares a transaction
// with the resulting business mutation; a duplicate key means the event was
// already applied and the handler short-circuits as a no-op success.
type ProcessedEvent struct {
	EventID     string    `gorm:"type:varchar(191);primaryKey" json:"event_id"`
	EventType   string    `gorm:"type:varchar(100);not null;index" json:"event_type"`
	ProcessedAt time.Time `gorm:"autoCreateTime" json:"processed_at"`
}
