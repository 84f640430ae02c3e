// handlers/coding_routes.go
package handlers

import (
	"pilot-onboarding-system/middleware"
	"pilot-onboarding-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupCodingRoutes(app *fiber.App, codingService *services.CodingService) {
	secured := app.Group("/", middleware.UserContextMiddleware())

	secured.Get("/missions/:id/coding", func(c *fiber.Ctx) error {
		user, ok := currentUser(c, codingService.DB)
		if !ok {
			return nil
		}
		missionID, ok := pathID(c, "id")
		if !ok {
			return nil
		}
		state, err := codingService.BuildState(user, missionID)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(state)
	})

	secured.Post("/missions/:id/coding/:challengeID/run", func(c *fiber.Ctx) error {
		user, ok := currentUser(c, codingService.DB)
		if !ok {
			return nil
		}
		missionID, ok := pathID(c, "id")
		if !ok {
			return nil
		}
		challengeID, ok := pathID(c, "challengeID")
		if !ok {
			return nil
		}

		var req struct {
			Code string `json:"code"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}
		if req.Code == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Код не может быть пустым",
			})
		}

		evaluation, err := codingService.Evaluate(user, missionID, challengeID, req.Code)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(evaluation)
	})
}
