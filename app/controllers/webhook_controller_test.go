package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/TillWegner/MemberSync/app/models"
	"github.com/TillWegner/MemberSync/internal/pkg/billing"
	"github.com/TillWegner/MemberSync/internal/pkg/plans"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testWebhookSecret = "whsec_test_1234567890abcdef"

// stubRepo is just enough Repository for webhook round trips: it tracks the
// idempotency ledger and accepts writes without inspecting them.
type stubRepo struct {
	processed   map[string]string
	memberships map[uint]*models.Membership
}

func newStubRepo() *stubRepo {
	return &stubRepo{processed: map[string]string{}, memberships: map[uint]*models.Membership{}}
}

func (r *stubRepo) Transact(_ context.Context, fn func(billing.Repository) error) error {
	return fn(r)
}

func (r *stubRepo) InsertProcessedEvent(eventID, eventType string) error {
	if _, ok := r.processed[eventID]; ok {
		return billing.ErrAlreadyProcessed
	}
	r.processed[eventID] = eventType
	return nil
}

func (r *stubRepo) GetMembershipByUserID(userID uint) (*models.Membership, error) {
	if m, ok := r.memberships[userID]; ok {
		return m, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubRepo) GetMembershipByCustomerID(string) (*models.Membership, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *stubRepo) CreateMembership(m *models.Membership) error {
	r.memberships[m.UserID] = m
	return nil
}

func (r *stubRepo) UpdateMembership(m *models.Membership, expectedVersion uint) error {
	m.Version = expectedVersion + 1
	r.memberships[m.UserID] = m
	return nil
}

func (r *stubRepo) AppendPaymentRecord(*models.PaymentRecord) error { return nil }

func (r *stubRepo) ReplaceUsageLimits(*models.UsageLimits) error { return nil }

func newTestApp(t *testing.T) (*fiber.App, *stubRepo) {
	t.Helper()
	repo := newStubRepo()
	engine, err := billing.NewService(billing.Config{WebhookSecret: testWebhookSecret}, repo, plans.NewStaticCatalog(), nil)
	require.NoError(t, err)

	app := fiber.New()
	wc := NewWebhookController(engine)
	app.Post("/api/internal/billing/webhook", wc.HandleBillingWebhook)
	return app, repo
}

func postWebhook(t *testing.T, app *fiber.App, body []byte, signature string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, "/api/internal/billing/webhook", bytes.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if signature != "" {
		req.Header.Set("X-Signature", signature)
	}
	resp, err := app.Test(req, 5000)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	return resp.StatusCode, decoded
}

func signedBody(body []byte) string {
	return billing.SignatureHeader(body, testWebhookSecret, time.Now().Unix())
}

func TestWebhookRejectsInvalidSignature(t *testing.T) {
	app, repo := newTestApp(t)
	body := []byte(`{"id":"evt_1","type":"invoice.payment_succeeded","data":{"customer":"cus_1"}}`)

	status, resp := postWebhook(t, app, body, "t=12345,v1=deadbeef")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "invalid_signature", resp["error"])

	status, resp = postWebhook(t, app, body, "")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "invalid_signature", resp["error"])

	assert.Empty(t, repo.processed)
}

func TestWebhookRejectsMalformedEnvelope(t *testing.T) {
	app, _ := newTestApp(t)
	body := []byte(`{"type":"invoice.payment_succeeded"`)

	status, resp := postWebhook(t, app, body, signedBody(body))
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "invalid_payload", resp["error"])
}

func TestWebhookAppliesCheckout(t *testing.T) {
	app, repo := newTestApp(t)
	body := []byte(`{
		"id": "evt_checkout_1",
		"type": "checkout.session.completed",
		"data": {
			"client_reference_id": "42",
			"plan_id": "pro",
			"duration_type": "monthly",
			"amount_total": 990,
			"currency": "usd",
			"customer": "cus_42",
			"subscription": "sub_42"
		}
	}`)

	status, resp := postWebhook(t, app, body, signedBody(body))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, resp["ok"])
	assert.NotContains(t, resp, "duplicate")

	m := repo.memberships[42]
	require.NotNil(t, m)
	assert.Equal(t, models.MembershipStatusActive, m.Status)

	// Redelivery of the same event id acknowledges as a duplicate.
	status, resp = postWebhook(t, app, body, signedBody(body))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, resp["ok"])
	assert.Equal(t, true, resp["duplicate"])
}

func TestWebhookAcknowledgesIgnoredEvent(t *testing.T) {
	app, _ := newTestApp(t)
	body := []byte(`{"id":"evt_x","type":"charge.refunded","data":{"anything":true}}`)

	status, resp := postWebhook(t, app, body, signedBody(body))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, resp["ok"])
	assert.Equal(t, true, resp["ignored"])
}
