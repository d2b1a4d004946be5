package models

import "time"

// UsageLimits is the per-user quota window. Caps and counters are replaced
// wholesale on every plan activation or renewal; failed payments and notice
// events never touch this row.
type UsageLimits struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	UserID             uint      `gorm:"not null;uniqueIndex:ux_usage_limits_user" json:"user_id"`
	MonthlyUploads     int       `gorm:"not null;default:0" json:"monthly_uploads"`
	UploadsUsed        int       `gorm:"not null;default:0" json:"uploads_used"`
	MonthlyAPIRequests int       `gorm:"not null;default:0" json:"monthly_api_requests"`
	APIRequestsUsed    int       `gorm:"not null;default:0" json:"api_requests_used"`
	StorageLimitMB     int       `gorm:"not null;default:0" json:"storage_limit_mb"`
	StorageUsedMB      int       `gorm:"not null;default:0" json:"storage_used_mb"`
	CurrentPeriodStart time.Time `gorm:"type:timestamp;not null" json:"current_period_start"`
	CurrentPeriodEnd   time.Time `gorm:"type:timestamp;not null" json:"current_period_end"`
	CreatedAt          time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
