package billing

import (
	"context"
	"time"

	"github.com/TillWegner/MemberSync/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository provides the storage operations the engine needs. All mutating
// calls made from a handler run inside a single Transact scope so the
// idempotency insert and the business mutation commit or roll back together.
type Repository interface {
	Transact(ctx context.Context, fn func(Repository) error) error

	// InsertProcessedEvent is the idempotency guard. It returns
	// ErrAlreadyProcessed when the event id is already in the ledger.
	InsertProcessedEvent(eventID, eventType string) error

	GetMembershipByUserID(userID uint) (*models.Membership, error)
	GetMembershipByCustomerID(providerCustomerID string) (*models.Membership, error)
	CreateMembership(m *models.Membership) error

	// UpdateMembership writes m guarded by an optimistic version check and
	// returns ErrWriteConflict when a concurrent writer won.
	UpdateMembership(m *models.Membership, expectedVersion uint) error

	AppendPaymentRecord(rec *models.PaymentRecord) error
	ReplaceUsageLimits(ul *models.UsageLimits) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates the engine repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Transact(ctx context.Context, fn func(Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepository{db: tx})
	})
}

func (r *gormRepository) InsertProcessedEvent(eventID, eventType string) error {
	res := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoNothing: true,
	}).Create(&models.ProcessedEvent{EventID: eventID, EventType: eventType})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAlreadyProcessed
	}
	return nil
}

func (r *gormRepository) GetMembershipByUserID(userID uint) (*models.Membership, error) {
	var m models.Membership
	if err := r.db.Where("user_id = ?", userID).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *gormRepository) GetMembershipByCustomerID(providerCustomerID string) (*models.Membership, error) {
	var m models.Membership
	if err := r.db.Where("provider_customer_id = ?", providerCustomerID).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *gormRepository) CreateMembership(m *models.Membership) error {
	if m.Version == 0 {
		m.Version = 1
	}
	return r.db.Create(m).Error
}

func (r *gormRepository) UpdateMembership(m *models.Membership, expectedVersion uint) error {
	m.Version = expectedVersion + 1
	res := r.db.Model(&models.Membership{}).
		Where("user_id = ? AND version = ?", m.UserID, expectedVersion).
		Updates(map[string]interface{}{
			"plan_id":                  m.PlanID,
			"status":                   m.Status,
			"duration_type":            m.DurationType,
			"start_date":               m.StartDate,
			"end_date":                 m.EndDate,
			"next_renewal_date":        m.NextRenewalDate,
			"auto_renew":               m.AutoRenew,
			"purchase_amount":          m.PurchaseAmount,
			"currency":                 m.Currency,
			"provider_customer_id":     m.ProviderCustomerID,
			"provider_subscription_id": m.ProviderSubscriptionID,
			"cancelled_at":             m.CancelledAt,
			"version":                  m.Version,
			"updated_at":               time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrWriteConflict
	}
	return nil
}

func (r *gormRepository) AppendPaymentRecord(rec *models.PaymentRecord) error {
	return r.db.Create(rec).Error
}

func (r *gormRepository) ReplaceUsageLimits(ul *models.UsageLimits) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"monthly_uploads",
			"uploads_used",
			"monthly_api_requests",
			"api_requests_used",
			"storage_limit_mb",
			"storage_used_mb",
			"current_period_start",
			"current_period_end",
			"updated_at",
		}),
	}).Create(ul).Error
}
