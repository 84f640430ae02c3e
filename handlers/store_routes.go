// handlers/store_routes.go
package handlers

import (
	"pilot-onboarding-system/middleware"
	"pilot-onboarding-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupStoreRoutes(app *fiber.App, storeService *services.StoreService) {
	secured := app.Group("/", middleware.UserContextMiddleware())

	secured.Get("/store/items", func(c *fiber.Ctx) error {
		items, err := storeService.ListItems()
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(items)
	})

	secured.Get("/store/orders", func(c *fiber.Ctx) error {
		userID := middleware.UserID(c)
		orders, err := storeService.ListOrders(&userID)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(orders)
	})

	secured.Post("/store/orders", func(c *fiber.Ctx) error {
		user, ok := currentUser(c, storeService.DB)
		if !ok {
			return nil
		}

		var req struct {
			ItemID  uint    `json:"item_id"`
			Comment *string `json:"comment"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}
		if req.ItemID == 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "item_id is required",
			})
		}

		order, err := storeService.CreateOrder(user, req.ItemID, req.Comment)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(order)
	})
}
