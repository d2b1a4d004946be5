package controllers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/TillWegner/MemberSync/internal/pkg/billing"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

const webhookHandleTimeout = 15 * time.Second

// WebhookController exposes the billing provider's webhook endpoint. The
// engine is injected once at startup so tests can run it against fakes.
type WebhookController struct {
	engine *billing.Service
}

func NewWebhookController(engine *billing.Service) *WebhookController {
	return &WebhookController{engine: engine}
}

// HandleBillingWebhook is the single inbound surface of the engine.
// Response contract: 200 for applied, duplicate and acknowledged business
// rejections; 400 for signature/envelope failures; 500 only for transient
// storage errors, which solicits provider redelivery.
func (wc *WebhookController) HandleBillingWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)
	signature := strings.TrimSpace(c.Get("X-Signature"))

	ev, err := wc.engine.VerifyAndParse(rawBody, signature)
	if err != nil {
		if errors.Is(err, billing.ErrInvalidSignature) {
			log.Warnf("[Webhook] Rejected delivery with invalid signature")
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_signature"})
		}
		log.Warnf("[Webhook] Rejected malformed delivery: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), webhookHandleTimeout)
	defer cancel()

	outcome, err := wc.engine.HandleEvent(ctx, ev)
	if err != nil {
		if errors.Is(err, billing.ErrMalformedEvent) {
			log.Warnf("[Webhook] Event %s has malformed payload: %v", ev.ID, err)
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
		}
		log.Errorf("[Webhook] Event %s failed transiently: %v", ev.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "event_processing_failed"})
	}

	switch outcome {
	case billing.OutcomeDuplicate:
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "duplicate": true})
	case billing.OutcomeIgnored:
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "ignored": true})
	default:
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
	}
}
