// handlers/mission_routes.go
package handlers

import (
	"io"
	"path/filepath"

	"pilot-onboarding-system/middleware"
	"pilot-onboarding-system/services"
	"pilot-onboarding-system/utils"

	"github.com/gofiber/fiber/v2"
)

func SetupMissionRoutes(app *fiber.App, missionService *services.MissionService) {
	secured := app.Group("/", middleware.UserContextMiddleware())

	secured.Get("/missions", func(c *fiber.Ctx) error {
		user, ok := currentUser(c, missionService.DB)
		if !ok {
			return nil
		}
		missions, err := missionService.ListMissions(user)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(missions)
	})

	secured.Get("/branches", func(c *fiber.Ctx) error {
		user, ok := currentUser(c, missionService.DB)
		if !ok {
			return nil
		}
		branches, err := missionService.ListBranches(user)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(branches)
	})

	secured.Get("/missions/:id", func(c *fiber.Ctx) error {
		user, ok := currentUser(c, missionService.DB)
		if !ok {
			return nil
		}
		missionID, ok := pathID(c, "id")
		if !ok {
			return nil
		}
		detail, err := missionService.GetMissionDetail(user, missionID)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(detail)
	})

	secured.Get("/missions/:id/submission", func(c *fiber.Ctx) error {
		user, ok := currentUser(c, missionService.DB)
		if !ok {
			return nil
		}
		missionID, ok := pathID(c, "id")
		if !ok {
			return nil
		}
		submission, err := missionService.GetSubmission(user, missionID)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(submission)
	})

	// Multipart: text fields comment / proof_url / resume_link, file fields
	// passport / photo / resume. A "remove_<field>" flag clears a stored file.
	secured.Post("/missions/:id/submission", func(c *fiber.Ctx) error {
		user, ok := currentUser(c, missionService.DB)
		if !ok {
			return nil
		}
		missionID, ok := pathID(c, "id")
		if !ok {
			return nil
		}

		input := services.SubmissionInput{}
		if v := c.FormValue("comment"); v != "" {
			input.Comment = &v
		}
		if v := c.FormValue("proof_url"); v != "" {
			input.ProofURL = &v
		}
		if v := c.FormValue("resume_link"); v != "" {
			input.ResumeLink = utils.SetTo(v)
		} else if c.FormValue("remove_resume_link") == "true" {
			input.ResumeLink = utils.Field[string]{Set: true}
		}

		uploads := []struct {
			field  string
			target *utils.Field[string]
		}{
			{"passport", &input.PassportPath},
			{"photo", &input.PhotoPath},
			{"resume", &input.ResumePath},
		}
		for _, upload := range uploads {
			stored, ok := receiveDocument(c, missionService.Docs, upload.field, user.ID)
			if !ok {
				return nil
			}
			*upload.target = stored
		}

		submission, err := missionService.Submit(user, missionID, input)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(submission)
	})

	secured.Post("/missions/:id/register", func(c *fiber.Ctx) error {
		user, ok := currentUser(c, missionService.DB)
		if !ok {
			return nil
		}
		missionID, ok := pathID(c, "id")
		if !ok {
			return nil
		}
		registration, err := missionService.Register(user, missionID)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message":      "Регистрация завершена",
			"registration": registration,
		})
	})
}

// receiveDocument stores an uploaded file and returns the tagged path update.
// No file and no remove flag means "keep". On failure the response is
// already written and ok is false.
func receiveDocument(c *fiber.Ctx, docs utils.DocumentStore, field string, userID uint) (utils.Field[string], bool) {
	if c.FormValue("remove_"+field) == "true" {
		return utils.Field[string]{Set: true}, true
	}

	header, err := c.FormFile(field)
	if err != nil {
		// fiber returns an error for an absent file field
		return utils.Field[string]{}, true
	}

	file, err := header.Open()
	if err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "failed to read uploaded file",
			"cause": err.Error(),
		})
		return utils.Field[string]{}, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "failed to read uploaded file",
			"cause": err.Error(),
		})
		return utils.Field[string]{}, false
	}

	stored, err := docs.Save(data, field, userID, filepath.Base(header.Filename))
	if err != nil {
		_ = writeServiceError(c, err)
		return utils.Field[string]{}, false
	}
	return utils.SetTo(stored), true
}
