// handlers/onboarding_routes.go
package handlers

import (
	"strconv"

	"pilot-onboarding-system/middleware"
	"pilot-onboarding-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupOnboardingRoutes(app *fiber.App, onboardingService *services.OnboardingService) {
	secured := app.Group("/", middleware.UserContextMiddleware())

	secured.Get("/onboarding", func(c *fiber.Ctx) error {
		overview, err := onboardingService.Overview(middleware.UserID(c))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(overview)
	})

	secured.Post("/onboarding/slides/:order/complete", func(c *fiber.Ctx) error {
		order, err := strconv.Atoi(c.Params("order"))
		if err != nil || order < 1 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid order",
			})
		}
		state, err := onboardingService.CompleteSlide(middleware.UserID(c), order)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(state)
	})
}
