// handlers/admin_routes.go
package handlers

import (
	"pilot-onboarding-system/middleware"
	"pilot-onboarding-system/models"
	"pilot-onboarding-system/services"

	"github.com/gofiber/fiber/v2"
)

// SetupAdminRoutes wires the HR side: moderation, content management,
// store administration and dashboard stats.
func SetupAdminRoutes(
	app *fiber.App,
	missionService *services.MissionService,
	contentService *services.ContentService,
	storeService *services.StoreService,
) {
	admin := app.Group("/admin", middleware.UserContextMiddleware(), middleware.RequireHR())

	// Moderation
	admin.Get("/submissions", func(c *fiber.Ctx) error {
		queue, err := missionService.ModerationQueue()
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(queue)
	})

	admin.Post("/submissions/:id/approve", func(c *fiber.Ctx) error {
		submissionID, ok := pathID(c, "id")
		if !ok {
			return nil
		}
		submission, err := missionService.Approve(submissionID)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(submission)
	})

	admin.Post("/submissions/:id/reject", func(c *fiber.Ctx) error {
		submissionID, ok := pathID(c, "id")
		if !ok {
			return nil
		}
		var req struct {
			Comment string `json:"comment"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}
		submission, err := missionService.Reject(submissionID, req.Comment)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(submission)
	})

	// Missions
	admin.Get("/missions", func(c *fiber.Ctx) error {
		missions, err := contentService.ListMissions()
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(missions)
	})

	admin.Post("/missions", func(c *fiber.Ctx) error {
		var input services.MissionInput
		if err := c.BodyParser(&input); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}
		mission, err := contentService.CreateMission(input)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(mission)
	})

	admin.Patch("/missions/:id", func(c *fiber.Ctx) error {
		missionID, ok := pathID(c, "id")
		if !ok {
			return nil
		}
		var input services.MissionInput
		if err := c.BodyParser(&input); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}
		mission, err := contentService.UpdateMission(missionID, input)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(mission)
	})

	admin.Post("/missions/:id/challenges", func(c *fiber.Ctx) error {
		missionID, ok := pathID(c, "id")
		if !ok {
			return nil
		}
		var input services.ChallengeInput
		if err := c.BodyParser(&input); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}
		challenge, err := contentService.CreateChallenge(missionID, input)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(challenge)
	})

	// Ranks
	admin.Get("/ranks", func(c *fiber.Ctx) error {
		ranks, err := contentService.ListRanks()
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(ranks)
	})

	admin.Post("/ranks", func(c *fiber.Ctx) error {
		var input services.RankInput
		if err := c.BodyParser(&input); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}
		rank, err := contentService.CreateRank(input)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(rank)
	})

	admin.Patch("/ranks/:id", func(c *fiber.Ctx) error {
		rankID, ok := pathID(c, "id")
		if !ok {
			return nil
		}
		var input services.RankInput
		if err := c.BodyParser(&input); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}
		rank, err := contentService.UpdateRank(rankID, input)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(rank)
	})

	// Branches
	admin.Post("/branches", func(c *fiber.Ctx) error {
		var input services.BranchInput
		if err := c.BodyParser(&input); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}
		branch, err := contentService.CreateBranch(input)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(branch)
	})

	admin.Patch("/branches/:id", func(c *fiber.Ctx) error {
		branchID, ok := pathID(c, "id")
		if !ok {
			return nil
		}
		var input services.BranchInput
		if err := c.BodyParser(&input); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}
		branch, err := contentService.UpdateBranch(branchID, input)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(branch)
	})

	// Artifacts
	admin.Get("/artifacts", func(c *fiber.Ctx) error {
		artifacts, err := contentService.ListArtifacts()
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(artifacts)
	})

	admin.Post("/artifacts", func(c *fiber.Ctx) error {
		var input services.ArtifactInput
		if err := c.BodyParser(&input); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}
		artifact, err := contentService.CreateArtifact(input)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(artifact)
	})

	admin.Patch("/artifacts/:id", func(c *fiber.Ctx) error {
		artifactID, ok := pathID(c, "id")
		if !ok {
			return nil
		}
		var input services.ArtifactInput
		if err := c.BodyParser(&input); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}
		artifact, err := contentService.UpdateArtifact(artifactID, input)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(artifact)
	})

	admin.Delete("/artifacts/:id", func(c *fiber.Ctx) error {
		artifactID, ok := pathID(c, "id")
		if !ok {
			return nil
		}
		if err := contentService.DeleteArtifact(artifactID); err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"message": "Артефакт удалён"})
	})

	// Competencies
	admin.Get("/competencies", func(c *fiber.Ctx) error {
		competencies, err := contentService.ListCompetencies()
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(competencies)
	})

	// Store
	admin.Post("/store/items", func(c *fiber.Ctx) error {
		var input services.StoreItemInput
		if err := c.BodyParser(&input); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}
		item, err := storeService.CreateItem(input)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(item)
	})

	admin.Patch("/store/items/:id", func(c *fiber.Ctx) error {
		itemID, ok := pathID(c, "id")
		if !ok {
			return nil
		}
		var input services.StoreItemInput
		if err := c.BodyParser(&input); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}
		item, err := storeService.UpdateItem(itemID, input)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(item)
	})

	admin.Get("/orders", func(c *fiber.Ctx) error {
		orders, err := storeService.ListOrders(nil)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(orders)
	})

	admin.Patch("/orders/:id/status", func(c *fiber.Ctx) error {
		orderID, ok := pathID(c, "id")
		if !ok {
			return nil
		}
		var req struct {
			Status models.OrderStatus `json:"status"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}
		switch req.Status {
		case models.OrderApproved, models.OrderRejected:
		default:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "status must be approved or rejected",
			})
		}
		order, err := storeService.UpdateOrderStatus(orderID, req.Status)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(order)
	})

	// Dashboard
	admin.Get("/stats", func(c *fiber.Ctx) error {
		stats, err := contentService.Stats()
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(stats)
	})
}
