package billing

import (
	"context"
	"time"

	"github.com/TillWegner/MemberSync/internal/pkg/notifier"
	"github.com/gofiber/fiber/v2/log"
)

// apply routes a decoded fact to its handler. The match is exhaustive over
// the closed Fact union; an unknown-but-harmless type is logged and
// acknowledged so the provider never retries it.
func (s *Service) apply(ctx context.Context, ev *Event, fact Fact) (Outcome, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.StorageTimeout)
	defer cancel()

	switch f := fact.(type) {
	case *CheckoutCompletedFact:
		return s.applyCheckoutCompleted(ctx, ev, f)
	case *SubscriptionChangeFact:
		return s.applySubscriptionChange(ctx, ev, f)
	case *SubscriptionDeletedFact:
		return s.applySubscriptionDeleted(ctx, ev, f)
	case *InvoicePaidFact:
		return s.applyInvoicePaid(ctx, ev, f)
	case *InvoiceFailedFact:
		return s.applyInvoiceFailed(ctx, ev, f)
	case *TrialWillEndFact:
		return s.applyNotice(ctx, ev, notifier.KindTrialEnding, f.CustomerID, map[string]interface{}{
			"subscription_id": f.SubscriptionID,
			"trial_end":       time.Unix(f.TrialEnd, 0).UTC(),
		})
	case *InvoiceUpcomingFact:
		return s.applyNotice(ctx, ev, notifier.KindInvoiceUpcoming, f.CustomerID, map[string]interface{}{
			"subscription_id":      f.SubscriptionID,
			"amount_due":           centsToAmount(f.AmountDue),
			"currency":             normalizeCurrency(f.Currency),
			"next_payment_attempt": time.Unix(f.NextPaymentAttempt, 0).UTC(),
		})
	case *UnknownFact:
		log.Infof("[Billing] Ignoring unrecognized event type %q (%s)", f.Type, ev.ID)
		return OutcomeIgnored, nil
	default:
		log.Infof("[Billing] Ignoring event %s with unhandled payload", ev.ID)
		return OutcomeIgnored, nil
	}
}
