package router

import (
	"time"

	"github.com/TillWegner/MemberSync/app/controllers"
	"github.com/TillWegner/MemberSync/internal/pkg/billing"
	"github.com/TillWegner/MemberSync/internal/pkg/cache"
	"github.com/TillWegner/MemberSync/internal/pkg/database"
	"github.com/TillWegner/MemberSync/internal/pkg/env"
	"github.com/TillWegner/MemberSync/internal/pkg/notifier"
	"github.com/TillWegner/MemberSync/internal/pkg/plans"

	"github.com/gofiber/fiber/v2"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	engine, err := billing.NewServiceFromDB(
		engineConfigFromEnv(),
		database.GetDB(),
		plans.NewStaticCatalog(),
		notifier.NewQueueNotifier(cache.GetClient()),
	)
	if err != nil {
		panic(err)
	}

	webhooks := controllers.NewWebhookController(engine)
	app.Post("/api/internal/billing/webhook", webhooks.HandleBillingWebhook)
	app.Get("/health", controllers.HandleHealth)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}

func engineConfigFromEnv() billing.Config {
	cfg := billing.Config{
		WebhookSecret: env.GetEnv("BILLING_WEBHOOK_SECRET", ""),
	}
	if tol, err := time.ParseDuration(env.GetEnv("BILLING_SIGNATURE_TOLERANCE", "")); err == nil && tol > 0 {
		cfg.SignatureTolerance = tol
	}
	if timeout, err := time.ParseDuration(env.GetEnv("BILLING_STORAGE_TIMEOUT", "")); err == nil && timeout > 0 {
		cfg.StorageTimeout = timeout
	}
	return cfg
}
