package models

import "time"

// Membership status values. A membership row is mutated in place and never
// hard-deleted; cancelled/expired are soft terminal states.
const (
	MembershipStatusPending   = "pending"
	MembershipStatusActive    = "active"
	MembershipStatusPastDue   = "past_due"
	MembershipStatusSuspended = "suspended"
	MembershipStatusCancelled = "cancelled"
	MembershipStatusExpired   = "expired"
)

const (
	DurationMonthly = "monthly"
	DurationYearly  = "yearly"
)

// Membership holds the current entitlement state for a user. Exactly one row
// exists per user; webhook handlers mutate it under an optimistic version
// check.
type Membership struct {
	ID                     uint       `gorm:"primaryKey" json:"id"`
	UserID                 uint       `gorm:"not null;uniqueIndex:ux_memberships_user" json:"user_id"`
	PlanID                 string     `gorm:"type:varchar(50);not null" json:"plan_id"`
	Status                 string     `gorm:"type:varchar(32);not null;default:'pending';index" json:"status"`
	DurationType           string     `gorm:"type:varchar(16);not null;default:'monthly'" json:"duration_type"`
	StartDate              time.Time  `gorm:"type:timestamp;not null" json:"start_date"`
	EndDate                time.Time  `gorm:"type:timestamp;not null" json:"end_date"`
	NextRenewalDate        *time.Time `gorm:"type:timestamp;default:null" json:"next_renewal_date,omitempty"`
	AutoRenew              bool       `gorm:"default:true" json:"auto_renew"`
	PurchaseAmount         float64    `gorm:"type:decimal(10,2);not null;default:0" json:"purchase_amount"`
	Currency               string     `gorm:"type:varchar(8);not null;default:'usd'" json:"currency"`
	ProviderCustomerID     string     `gorm:"type:varchar(191);not null;default:'';index:idx_memberships_provider_customer" json:"provider_customer_id"`
	ProviderSubscriptionID string     `gorm:"type:varchar(191);not null;default:''" json:"provider_subscription_id"`
	CancelledAt            *time.Time `gorm:"type:timestamp;default:null" json:"cancelled_at,omitempty"`
	Version                uint       `gorm:"not null;default:1" json:"version"`
	CreatedAt              time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt              time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// EffectiveStatus reports the status a reader should act on. A membership
// whose end date has passed is expired regardless of the stored status; no
// webhook forces that transition, it happens on read.
func (m *Membership) EffectiveStatus(now time.Time) string {
	switch m.Status {
	case MembershipStatusActive, MembershipStatusPastDue, MembershipStatusCancelled:
		if !m.EndDate.IsZero() && now.After(m.EndDate) {
			return MembershipStatusExpired
		}
	}
	return m.Status
}

// IsEntitled reports whether the membership currently grants access.
func (m *Membership) IsEntitled(now time.Time) bool {
	switch m.EffectiveStatus(now) {
	case MembershipStatusActive, MembershipStatusPastDue:
		return true
	default:
		return false
	}
}
