package billing

import (
	"errors"
	"testing"
)

func TestParseEvent(t *testing.T) {
	ev, err := ParseEvent([]byte(`{"id":"evt_1","type":"checkout.session.completed","data":{"plan_id":"pro"}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.ID != "evt_1" || ev.Type != EventCheckoutCompleted {
		t.Fatalf("unexpected envelope: %+v", ev)
	}
}

func TestParseEventMalformed(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{name: "not json", payload: `not json at all`},
		{name: "missing id", payload: `{"type":"invoice.upcoming","data":{}}`},
		{name: "missing type", payload: `{"id":"evt_1","data":{}}`},
	}
	for _, tt := range tests {
		if _, err := ParseEvent([]byte(tt.payload)); !errors.Is(err, ErrMalformedEvent) {
			t.Fatalf("%s: expected ErrMalformedEvent, got %v", tt.name, err)
		}
	}
}

func TestEventFactDecodesCheckout(t *testing.T) {
	ev, err := ParseEvent([]byte(`{
		"id": "evt_1",
		"type": "checkout.session.completed",
		"data": {
			"session_id": "cs_1",
			"client_reference_id": "42",
			"plan_id": "pro",
			"duration_type": "yearly",
			"amount_total": 9900,
			"currency": "usd",
			"customer": "cus_1",
			"subscription": "sub_1"
		}
	}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fact, err := ev.Fact()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	checkout, ok := fact.(*CheckoutCompletedFact)
	if !ok {
		t.Fatalf("expected CheckoutCompletedFact, got %T", fact)
	}
	if checkout.UserRef != "42" || checkout.PlanID != "pro" || checkout.AmountTotal != 9900 {
		t.Fatalf("unexpected fact: %+v", checkout)
	}
}

func TestEventFactUnknownType(t *testing.T) {
	ev := &Event{ID: "evt_1", Type: "charge.refunded"}
	fact, err := ev.Fact()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	unknown, ok := fact.(*UnknownFact)
	if !ok {
		t.Fatalf("expected UnknownFact, got %T", fact)
	}
	if unknown.Type != "charge.refunded" {
		t.Fatalf("unexpected type: %q", unknown.Type)
	}
}

func TestEventFactMalformedData(t *testing.T) {
	ev := &Event{ID: "evt_1", Type: EventInvoiceFailed, Data: []byte(`{"attempt_count":"three"}`)}
	if _, err := ev.Fact(); !errors.Is(err, ErrMalformedEvent) {
		t.Fatalf("expected ErrMalformedEvent, got %v", err)
	}

	ev = &Event{ID: "evt_2", Type: EventSubscriptionUpdated}
	if _, err := ev.Fact(); !errors.Is(err, ErrMalformedEvent) {
		t.Fatalf("expected ErrMalformedEvent for empty data, got %v", err)
	}
}
