package webapi

import (
	"errors"

	"github.com/andrevalim/pixhub/pkg/app"
	"github.com/andrevalim/pixhub/pkg/domain"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

// WebhookRoutes registers the acquirer notification endpoint. The
// provider slug in the path selects the adapter that translates the
// payload.
func WebhookRoutes(api *fiber.App, a *app.App) {
	api.Post("/webhooks/:provider", ProviderWebhook(a))
}

// ProviderWebhook translates and applies one acquirer notification.
// Redelivered events are acknowledged with 200: the state machine
// already treats them as no-ops, and an error response would only make
// the acquirer redeliver again.
func ProviderWebhook(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		slug := c.Params("provider")
		adapter, err := a.Deps.Registry.Get(slug)
		if err != nil {
			return ProblemDetailsJSON(c, fiber.StatusNotFound, "Unknown provider", err.Error())
		}

		ev, err := adapter.TranslateWebhook(c.Body())
		if err != nil {
			log.Errorf("Failed to translate %s webhook: %v", slug, err)
			return ProblemDetailsJSON(c, fiber.StatusBadRequest, "Invalid webhook payload", err.Error())
		}

		if err := a.Reconciler.Apply(c.Context(), ev); err != nil {
			if errors.Is(err, domain.ErrTransactionNotFound) {
				return ProblemDetailsJSON(c, fiber.StatusNotFound, "Unknown transaction", err.Error())
			}
			log.Errorf("Failed to apply %s webhook: %v", slug, err)
			return ProblemDetailsJSON(c, ErrorToStatusCode(err), "Failed to apply webhook", err.Error())
		}

		return c.JSON(Response{Status: fiber.StatusOK, Message: "Webhook processed"})
	}
}
