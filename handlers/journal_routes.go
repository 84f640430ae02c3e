// handlers/journal_routes.go
package handlers

import (
	"pilot-onboarding-system/middleware"
	"pilot-onboarding-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupJournalRoutes(app *fiber.App, journalService *services.JournalService) {
	secured := app.Group("/", middleware.UserContextMiddleware())

	secured.Get("/journal", func(c *fiber.Ctx) error {
		entries, err := journalService.ListForUser(middleware.UserID(c))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(entries)
	})

	secured.Get("/leaderboard", func(c *fiber.Ctx) error {
		period := c.Query("period", "week")
		switch period {
		case "week", "month", "year":
		default:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Неизвестный период " + period,
			})
		}
		entries, err := journalService.Leaderboard(period)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{
			"period":  period,
			"entries": entries,
		})
	})
}
