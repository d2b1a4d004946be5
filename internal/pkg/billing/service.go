package billing

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/TillWegner/MemberSync/app/models"
	"github.com/TillWegner/MemberSync/internal/pkg/entitlements"
	"github.com/TillWegner/MemberSync/internal/pkg/notifier"
	"github.com/TillWegner/MemberSync/internal/pkg/plans"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Outcome tells the HTTP layer how an event was concluded. All three are
// acknowledged with 2xx; only errors are retryable.
type Outcome string

const (
	OutcomeApplied   Outcome = "applied"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeIgnored   Outcome = "ignored"
)

// Service is the reconciliation engine. It applies provider-reported billing
// facts to local membership state, guarded by the idempotency ledger and an
// optimistic version check per membership row.
type Service struct {
	cfg      Config
	repo     Repository
	catalog  plans.Catalog
	notifier notifier.Notifier
	now      func() time.Time
}

// NewService builds the engine from explicit collaborators. A nil notifier
// degrades to log-only delivery.
func NewService(cfg Config, repo Repository, catalog plans.Catalog, n notifier.Notifier) (*Service, error) {
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("billing config: %w", err)
	}
	if n == nil {
		n = notifier.LogNotifier{}
	}
	return &Service{cfg: cfg, repo: repo, catalog: catalog, notifier: n, now: time.Now}, nil
}

// NewServiceFromDB wires the engine to a GORM handle.
func NewServiceFromDB(cfg Config, db *gorm.DB, catalog plans.Catalog, n notifier.Notifier) (*Service, error) {
	return NewService(cfg, NewRepository(db), catalog, n)
}

// VerifyAndParse authenticates a raw delivery and decodes the envelope.
// Signature or envelope failures are permanent 4xx conditions.
func (s *Service) VerifyAndParse(payload []byte, signatureHeader string) (*Event, error) {
	if err := VerifySignature(payload, signatureHeader, s.cfg.WebhookSecret, s.now(), s.cfg.SignatureTolerance); err != nil {
		return nil, err
	}
	ev, err := ParseEvent(payload)
	if err != nil {
		return nil, err
	}
	log.Infof("[Billing] Received event %s (%s)", ev.ID, ev.Type)
	return ev, nil
}

// HandleEvent applies one authenticated event. A write conflict is retried
// once locally; if it persists, the error surfaces as transient so the
// provider redelivers (the event is not yet marked processed at that point).
func (s *Service) HandleEvent(ctx context.Context, ev *Event) (Outcome, error) {
	fact, err := ev.Fact()
	if err != nil {
		return "", err
	}

	out, err := s.apply(ctx, ev, fact)
	if errors.Is(err, ErrWriteConflict) {
		log.Warnf("[Billing] Write conflict on event %s, retrying once", ev.ID)
		out, err = s.apply(ctx, ev, fact)
	}
	switch {
	case err == nil:
		return out, nil
	case errors.Is(err, ErrAlreadyProcessed):
		log.Infof("[Billing] Event %s already processed, acknowledging", ev.ID)
		return OutcomeDuplicate, nil
	default:
		return "", fmt.Errorf("%w: %v", ErrTransientStorage, err)
	}
}

func (s *Service) applyCheckoutCompleted(ctx context.Context, ev *Event, f *CheckoutCompletedFact) (Outcome, error) {
	userID, err := parseUserRef(f.UserRef)
	planID := strings.TrimSpace(f.PlanID)
	if err != nil || planID == "" {
		// Structurally incomplete: redelivery cannot supply the missing ids.
		log.Warnf("[Billing] Event %s %s: %v (user=%q plan=%q), acknowledging",
			ev.ID, ErrMissingCorrelationData, err, f.UserRef, f.PlanID)
		return OutcomeIgnored, s.markProcessedOnly(ctx, ev)
	}
	plan, err := s.catalog.GetPlan(planID)
	if err != nil {
		log.Warnf("[Billing] Event %s references unknown plan %q, acknowledging", ev.ID, planID)
		return OutcomeIgnored, s.markProcessedOnly(ctx, ev)
	}

	duration := normalizeDuration(f.DurationType)
	now := s.now()
	end := now.Add(periodFor(duration))

	txErr := s.repo.Transact(ctx, func(r Repository) error {
		existing, err := r.GetMembershipByUserID(userID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := r.InsertProcessedEvent(ev.ID, ev.Type); err != nil {
			return err
		}

		next := models.Membership{
			UserID:                 userID,
			PlanID:                 plan.ID,
			Status:                 models.MembershipStatusActive,
			DurationType:           duration,
			StartDate:              now,
			EndDate:                end,
			NextRenewalDate:        &end,
			AutoRenew:              true,
			PurchaseAmount:         centsToAmount(f.AmountTotal),
			Currency:               normalizeCurrency(f.Currency),
			ProviderCustomerID:     strings.TrimSpace(f.CustomerID),
			ProviderSubscriptionID: strings.TrimSpace(f.SubscriptionID),
			CancelledAt:            nil,
		}
		if existing == nil {
			if err := r.CreateMembership(&next); err != nil {
				return err
			}
		} else {
			next.ID = existing.ID
			if err := r.UpdateMembership(&next, existing.Version); err != nil {
				return err
			}
		}

		rec := models.PaymentRecord{
			UserID:                  userID,
			Amount:                  centsToAmount(f.AmountTotal),
			Currency:                normalizeCurrency(f.Currency),
			Status:                  models.PaymentStatusCompleted,
			PaymentMethod:           f.PaymentMethod,
			ProviderPaymentIntentID: f.PaymentIntentID,
			PlanName:                plan.Name,
			DurationType:            duration,
			Metadata: datatypes.JSONMap{
				"event_id":        ev.ID,
				"session_id":      f.SessionID,
				"subscription_id": f.SubscriptionID,
			},
		}
		if err := r.AppendPaymentRecord(&rec); err != nil {
			return err
		}

		caps := entitlements.CapsForTier(plan.Tier)
		return r.ReplaceUsageLimits(&models.UsageLimits{
			UserID:             userID,
			MonthlyUploads:     caps.MonthlyUploads,
			UploadsUsed:        0,
			MonthlyAPIRequests: caps.MonthlyAPIRequests,
			APIRequestsUsed:    0,
			StorageLimitMB:     caps.StorageLimitMB,
			StorageUsedMB:      0,
			CurrentPeriodStart: now,
			CurrentPeriodEnd:   end,
		})
	})
	if txErr != nil {
		return "", txErr
	}
	log.Infof("[Billing] Activated plan %s (%s) for user %d", plan.ID, duration, userID)
	return OutcomeApplied, nil
}

func (s *Service) applySubscriptionChange(ctx context.Context, ev *Event, f *SubscriptionChangeFact) (Outcome, error) {
	mapped, ok := MapProviderStatus(f.Status)
	if !ok {
		log.Warnf("[Billing] Event %s carries unmapped provider status %q, acknowledging", ev.ID, f.Status)
		return OutcomeIgnored, s.markProcessedOnly(ctx, ev)
	}

	outcome := OutcomeApplied
	txErr := s.repo.Transact(ctx, func(r Repository) error {
		m, err := r.GetMembershipByCustomerID(f.CustomerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Alertable: the checkout event that creates the row was lost
				// or not yet processed. Fabricating a membership here would
				// persist incomplete plan data.
				log.Warnf("[Billing] ALERT %s: event %s for customer %q", ErrConsistencyGap, ev.ID, f.CustomerID)
				outcome = OutcomeIgnored
				return r.InsertProcessedEvent(ev.ID, ev.Type)
			}
			return err
		}
		if err := r.InsertProcessedEvent(ev.ID, ev.Type); err != nil {
			return err
		}

		// Cancellation is a stronger fact than a status refresh: once this
		// subscription is cancelled, a racing update cannot revive it. A new
		// subscription id is a resubscribe and applies fully.
		if m.Status == models.MembershipStatusCancelled &&
			m.ProviderSubscriptionID == f.SubscriptionID &&
			mapped != models.MembershipStatusCancelled {
			log.Infof("[Billing] Keeping cancelled membership for user %d, ignoring %q on subscription %s",
				m.UserID, f.Status, f.SubscriptionID)
			outcome = OutcomeIgnored
			return nil
		}

		version := m.Version
		m.Status = mapped
		if sub := strings.TrimSpace(f.SubscriptionID); sub != "" {
			m.ProviderSubscriptionID = sub
		}
		if f.CurrentPeriodEnd > 0 {
			m.EndDate = time.Unix(f.CurrentPeriodEnd, 0).UTC()
		}
		m.AutoRenew = !f.CancelAtPeriodEnd
		if f.CancelAtPeriodEnd {
			m.NextRenewalDate = nil
		} else {
			renewal := m.EndDate
			m.NextRenewalDate = &renewal
		}
		if mapped == models.MembershipStatusCancelled {
			m.AutoRenew = false
			m.NextRenewalDate = nil
			if m.CancelledAt == nil {
				t := s.now()
				m.CancelledAt = &t
			}
		}
		return r.UpdateMembership(m, version)
	})
	if txErr != nil {
		return "", txErr
	}
	return outcome, nil
}

func (s *Service) applySubscriptionDeleted(ctx context.Context, ev *Event, f *SubscriptionDeletedFact) (Outcome, error) {
	outcome := OutcomeApplied
	txErr := s.repo.Transact(ctx, func(r Repository) error {
		m, err := r.GetMembershipByCustomerID(f.CustomerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				log.Warnf("[Billing] ALERT %s: event %s for customer %q", ErrConsistencyGap, ev.ID, f.CustomerID)
				outcome = OutcomeIgnored
				return r.InsertProcessedEvent(ev.ID, ev.Type)
			}
			return err
		}
		if err := r.InsertProcessedEvent(ev.ID, ev.Type); err != nil {
			return err
		}

		if m.Status == models.MembershipStatusCancelled && !m.AutoRenew &&
			m.NextRenewalDate == nil && m.CancelledAt != nil {
			// Already in the exact target state.
			return nil
		}

		version := m.Version
		m.Status = models.MembershipStatusCancelled
		m.AutoRenew = false
		m.NextRenewalDate = nil
		if m.CancelledAt == nil {
			t := s.now()
			m.CancelledAt = &t
		}
		return r.UpdateMembership(m, version)
	})
	if txErr != nil {
		return "", txErr
	}
	return outcome, nil
}

func (s *Service) applyInvoicePaid(ctx context.Context, ev *Event, f *InvoicePaidFact) (Outcome, error) {
	outcome := OutcomeApplied
	txErr := s.repo.Transact(ctx, func(r Repository) error {
		m, err := r.GetMembershipByCustomerID(f.CustomerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				log.Warnf("[Billing] ALERT %s: event %s for customer %q", ErrConsistencyGap, ev.ID, f.CustomerID)
				outcome = OutcomeIgnored
				return r.InsertProcessedEvent(ev.ID, ev.Type)
			}
			return err
		}
		if err := r.InsertProcessedEvent(ev.ID, ev.Type); err != nil {
			return err
		}

		// Money captured; the entitlement window moves with the paired
		// subscription.updated event, not here.
		rec := models.PaymentRecord{
			UserID:                  m.UserID,
			Amount:                  centsToAmount(f.AmountPaid),
			Currency:                normalizeCurrency(f.Currency),
			Status:                  models.PaymentStatusCompleted,
			PaymentMethod:           f.PaymentMethod,
			ProviderPaymentIntentID: f.PaymentIntentID,
			PlanName:                s.planName(m.PlanID),
			DurationType:            m.DurationType,
			Metadata: datatypes.JSONMap{
				"event_id":        ev.ID,
				"invoice_id":      f.InvoiceID,
				"subscription_id": f.SubscriptionID,
			},
		}
		return r.AppendPaymentRecord(&rec)
	})
	if txErr != nil {
		return "", txErr
	}
	return outcome, nil
}

func (s *Service) applyInvoiceFailed(ctx context.Context, ev *Event, f *InvoiceFailedFact) (Outcome, error) {
	outcome := OutcomeApplied
	txErr := s.repo.Transact(ctx, func(r Repository) error {
		m, err := r.GetMembershipByCustomerID(f.CustomerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				log.Warnf("[Billing] ALERT %s: event %s for customer %q", ErrConsistencyGap, ev.ID, f.CustomerID)
				outcome = OutcomeIgnored
				return r.InsertProcessedEvent(ev.ID, ev.Type)
			}
			return err
		}
		if err := r.InsertProcessedEvent(ev.ID, ev.Type); err != nil {
			return err
		}

		rec := models.PaymentRecord{
			UserID:                  m.UserID,
			Amount:                  centsToAmount(f.AmountDue),
			Currency:                normalizeCurrency(f.Currency),
			Status:                  models.PaymentStatusFailed,
			ProviderPaymentIntentID: f.PaymentIntentID,
			PlanName:                s.planName(m.PlanID),
			DurationType:            m.DurationType,
			Metadata: datatypes.JSONMap{
				"event_id":        ev.ID,
				"invoice_id":      f.InvoiceID,
				"subscription_id": f.SubscriptionID,
				"attempt_count":   f.AttemptCount,
			},
		}
		if err := r.AppendPaymentRecord(&rec); err != nil {
			return err
		}

		next := NextStatusAfterPaymentFailure(m.Status, f.AttemptCount)
		if next == m.Status {
			return nil
		}
		version := m.Version
		m.Status = next
		log.Warnf("[Billing] Suspending membership of user %d after %d failed payment attempts", m.UserID, f.AttemptCount)
		return r.UpdateMembership(m, version)
	})
	if txErr != nil {
		return "", txErr
	}
	return outcome, nil
}

// applyNotice records the event and fires a best-effort notification after
// commit. Notification failures are logged and dropped; they never roll back
// or fail the event.
func (s *Service) applyNotice(ctx context.Context, ev *Event, kind, customerID string, payload map[string]interface{}) (Outcome, error) {
	var userID uint
	outcome := OutcomeApplied
	txErr := s.repo.Transact(ctx, func(r Repository) error {
		m, err := r.GetMembershipByCustomerID(customerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				log.Warnf("[Billing] ALERT %s: event %s for customer %q", ErrConsistencyGap, ev.ID, customerID)
				outcome = OutcomeIgnored
				return r.InsertProcessedEvent(ev.ID, ev.Type)
			}
			return err
		}
		userID = m.UserID
		return r.InsertProcessedEvent(ev.ID, ev.Type)
	})
	if txErr != nil {
		return "", txErr
	}
	if outcome == OutcomeApplied {
		if err := s.notifier.Notify(ctx, kind, userID, payload); err != nil {
			log.Errorf("[Billing] Dropping %s notification for user %d: %v", kind, userID, err)
		}
	}
	return outcome, nil
}

// markProcessedOnly records an event that was acknowledged without any
// business mutation, so redelivery short-circuits as a duplicate.
func (s *Service) markProcessedOnly(ctx context.Context, ev *Event) error {
	err := s.repo.Transact(ctx, func(r Repository) error {
		return r.InsertProcessedEvent(ev.ID, ev.Type)
	})
	if errors.Is(err, ErrAlreadyProcessed) {
		return nil
	}
	return err
}

func (s *Service) planName(planID string) string {
	if plan, err := s.catalog.GetPlan(planID); err == nil {
		return plan.Name
	}
	return planID
}

func parseUserRef(ref string) (uint, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return 0, fmt.Errorf("empty user reference")
	}
	id, err := strconv.ParseUint(ref, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid user reference %q", ref)
	}
	return uint(id), nil
}

func centsToAmount(cents int64) float64 {
	return float64(cents) / 100
}

func normalizeCurrency(currency string) string {
	c := strings.ToLower(strings.TrimSpace(currency))
	if c == "" {
		return "usd"
	}
	return c
}

func normalizeDuration(duration string) string {
	switch strings.ToLower(strings.TrimSpace(duration)) {
	case models.DurationYearly:
		return models.DurationYearly
	default:
		return models.DurationMonthly
	}
}

func periodFor(duration string) time.Duration {
	if duration == models.DurationYearly {
		return 365 * 24 * time.Hour
	}
	return 30 * 24 * time.Hour
}
