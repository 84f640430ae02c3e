// handlers/profile_routes.go
package handlers

import (
	"pilot-onboarding-system/middleware"
	"pilot-onboarding-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupProfileRoutes(app *fiber.App, profileService *services.ProfileService) {
	secured := app.Group("/", middleware.UserContextMiddleware())

	secured.Get("/profile", func(c *fiber.Ctx) error {
		profile, err := profileService.GetProfile(middleware.UserID(c))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(profile)
	})

	secured.Patch("/profile", func(c *fiber.Ctx) error {
		var input services.ProfileInput
		if err := c.BodyParser(&input); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}
		user, err := profileService.UpdateProfile(middleware.UserID(c), input)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(user)
	})

	secured.Get("/profile/progress", func(c *fiber.Ctx) error {
		user, ok := currentUser(c, profileService.DB)
		if !ok {
			return nil
		}
		snapshot, err := profileService.Ranks.BuildProgressSnapshot(user)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(snapshot)
	})

	secured.Get("/profile/artifacts/applied", func(c *fiber.Ctx) error {
		applied, err := profileService.ListAppliedArtifacts(middleware.UserID(c))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(applied)
	})

	secured.Post("/profile/artifacts/:id/apply", func(c *fiber.Ctx) error {
		artifactID, ok := pathID(c, "id")
		if !ok {
			return nil
		}
		if err := profileService.ApplyArtifact(middleware.UserID(c), artifactID); err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"message": "Артефакт применён к профилю"})
	})

	secured.Delete("/profile/artifacts/:id/apply", func(c *fiber.Ctx) error {
		artifactID, ok := pathID(c, "id")
		if !ok {
			return nil
		}
		if err := profileService.RemoveAppliedArtifact(middleware.UserID(c), artifactID); err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"message": "Артефакт снят с профиля"})
	})
}
