package billing

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Recognized provider event types. Anything else decodes to UnknownFact and
// is acknowledged without side effects.
const (
	EventCheckoutCompleted   = "checkout.session.completed"
	EventSubscriptionCreated = "customer.subscription.created"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
	EventInvoicePaid         = "invoice.payment_succeeded"
	EventInvoiceFailed       = "invoice.payment_failed"
	EventTrialWillEnd        = "customer.subscription.trial_will_end"
	EventInvoiceUpcoming     = "invoice.upcoming"
)

// Event is the typed envelope every provider delivery decodes into.
type Event struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// ParseEvent decodes the raw webhook body into an envelope. A body that is
// not JSON or lacks id/type is permanently malformed.
func ParseEvent(payload []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	ev.ID = strings.TrimSpace(ev.ID)
	ev.Type = strings.TrimSpace(ev.Type)
	if ev.ID == "" || ev.Type == "" {
		return nil, fmt.Errorf("%w: missing id or type", ErrMalformedEvent)
	}
	return &ev, nil
}

// Fact is the closed union of payloads the engine understands. Handlers
// switch over the concrete type; UnknownFact is the explicit fallback so a
// schemaless map never leaks into business code.
type Fact interface {
	fact()
}

// CheckoutCompletedFact carries the correlation data of a finished checkout
// session: who bought which plan, for how much, and the provider ids the
// membership is keyed by from then on.
type CheckoutCompletedFact struct {
	SessionID       string `json:"session_id"`
	UserRef         string `json:"client_reference_id"`
	PlanID          string `json:"plan_id"`
	DurationType    string `json:"duration_type"`
	AmountTotal     int64  `json:"amount_total"`
	Currency        string `json:"currency"`
	CustomerID      string `json:"customer"`
	SubscriptionID  string `json:"subscription"`
	PaymentIntentID string `json:"payment_intent"`
	PaymentMethod   string `json:"payment_method_type"`
}

// SubscriptionChangeFact mirrors a provider-side subscription create/update.
type SubscriptionChangeFact struct {
	SubscriptionID    string `json:"id"`
	CustomerID        string `json:"customer"`
	Status            string `json:"status"`
	CurrentPeriodEnd  int64  `json:"current_period_end"`
	CancelAtPeriodEnd bool   `json:"cancel_at_period_end"`
}

// SubscriptionDeletedFact marks a subscription as gone at the provider.
type SubscriptionDeletedFact struct {
	SubscriptionID string `json:"id"`
	CustomerID     string `json:"customer"`
}

// InvoicePaidFact records money captured for a renewal invoice.
type InvoicePaidFact struct {
	InvoiceID       string `json:"id"`
	CustomerID      string `json:"customer"`
	SubscriptionID  string `json:"subscription"`
	PaymentIntentID string `json:"payment_intent"`
	AmountPaid      int64  `json:"amount_paid"`
	Currency        string `json:"currency"`
	PaymentMethod   string `json:"payment_method_type"`
}

// InvoiceFailedFact records a failed payment attempt; AttemptCount drives
// the suspension rule.
type InvoiceFailedFact struct {
	InvoiceID       string `json:"id"`
	CustomerID      string `json:"customer"`
	SubscriptionID  string `json:"subscription"`
	PaymentIntentID string `json:"payment_intent"`
	AmountDue       int64  `json:"amount_due"`
	Currency        string `json:"currency"`
	AttemptCount    int    `json:"attempt_count"`
}

// TrialWillEndFact triggers a trial-ending notification only.
type TrialWillEndFact struct {
	SubscriptionID string `json:"id"`
	CustomerID     string `json:"customer"`
	TrialEnd       int64  `json:"trial_end"`
}

// InvoiceUpcomingFact triggers an invoice-upcoming notification only.
type InvoiceUpcomingFact struct {
	CustomerID         string `json:"customer"`
	SubscriptionID     string `json:"subscription"`
	AmountDue          int64  `json:"amount_due"`
	Currency           string `json:"currency"`
	NextPaymentAttempt int64  `json:"next_payment_attempt"`
}

// UnknownFact is returned for event types the engine does not handle.
type UnknownFact struct {
	Type string
}

func (CheckoutCompletedFact) fact()   {}
func (SubscriptionChangeFact) fact()  {}
func (SubscriptionDeletedFact) fact() {}
func (InvoicePaidFact) fact()         {}
func (InvoiceFailedFact) fact()       {}
func (TrialWillEndFact) fact()        {}
func (InvoiceUpcomingFact) fact()     {}
func (UnknownFact) fact()             {}

// Fact decodes the envelope's data into the payload variant for its type.
func (ev *Event) Fact() (Fact, error) {
	decode := func(dst Fact) (Fact, error) {
		if len(ev.Data) == 0 {
			return nil, fmt.Errorf("%w: empty data for %s", ErrMalformedEvent, ev.Type)
		}
		if err := json.Unmarshal(ev.Data, dst); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
		}
		return dst, nil
	}

	switch ev.Type {
	case EventCheckoutCompleted:
		f := &CheckoutCompletedFact{}
		return decode(f)
	case EventSubscriptionCreated, EventSubscriptionUpdated:
		f := &SubscriptionChangeFact{}
		return decode(f)
	case EventSubscriptionDeleted:
		f := &SubscriptionDeletedFact{}
		return decode(f)
	case EventInvoicePaid:
		f := &InvoicePaidFact{}
		return decode(f)
	case EventInvoiceFailed:
		f := &InvoiceFailedFact{}
		return decode(f)
	case EventTrialWillEnd:
		f := &TrialWillEndFact{}
		return decode(f)
	case EventInvoiceUpcoming:
		f := &InvoiceUpcomingFact{}
		return decode(f)
	default:
		return &UnknownFact{Type: ev.Type}, nil
	}
}
