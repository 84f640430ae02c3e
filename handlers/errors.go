// handlers/errors.go
package handlers

import (
	"errors"
	"log"
	"strconv"

	"pilot-onboarding-system/middleware"
	"pilot-onboarding-system/models"
	"pilot-onboarding-system/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// writeServiceError maps domain errors to HTTP statuses. Anything the
// services did not classify is a 500.
func writeServiceError(c *fiber.Ctx, err error) error {
	var unavailable *services.UnavailableError
	if errors.As(err, &unavailable) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Миссия недоступна",
			"reasons": unavailable.Reasons,
		})
	}

	switch {
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrAlreadyCredited),
		errors.Is(err, services.ErrOutOfSequence),
		errors.Is(err, services.ErrRegistrationClosed),
		errors.Is(err, services.ErrEventStarted),
		errors.Is(err, services.ErrNoSeatsLeft),
		errors.Is(err, services.ErrOnlineMission),
		errors.Is(err, services.ErrOutOfStock),
		errors.Is(err, services.ErrNotEnoughMana),
		errors.Is(err, services.ErrArtifactNotOwned):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	log.Printf("❌ [HTTP] %s %s: %v", c.Method(), c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "internal error",
		"cause": err.Error(),
	})
}

// currentUser loads the authenticated user row for the request. On failure
// the response is already written and ok is false.
func currentUser(c *fiber.Ctx, db *gorm.DB) (*models.User, bool) {
	var user models.User
	if err := db.First(&user, middleware.UserID(c)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			_ = c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Пользователь не найден",
			})
			return nil, false
		}
		_ = writeServiceError(c, err)
		return nil, false
	}
	return &user, true
}

// pathID parses a numeric path parameter, answering 400 on garbage.
func pathID(c *fiber.Ctx, name string) (uint, bool) {
	raw := c.Params(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid " + name,
		})
		return 0, false
	}
	return uint(id), true
}
