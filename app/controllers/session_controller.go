package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/spectrahq/ghosthunter/app/models"
	"github.com/spectrahq/ghosthunter/app/repository"
)

type createSessionRequest struct {
	Name     string `json:"name"`
	Location string `json:"location"`
	Date     string `json:"date"`
	Notes    string `json:"notes"`
}

// HandleCreateSession stores a new investigation session.
func HandleCreateSession(c *fiber.Ctx) error {
	var req createSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}

	session := &models.Session{
		Name:     req.Name,
		Location: req.Location,
		Date:     req.Date,
		Notes:    req.Notes,
	}
	if err := session.Validate(); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "validation_failed", err.Error())
	}

	repo := repository.GetGlobalFactory().GetSessionRepository()
	if err := repo.Create(session); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to create session")
	}

	return c.JSON(fiber.Map{"success": true, "session": session})
}

// HandleListSessions returns all sessions, newest first.
func HandleListSessions(c *fiber.Ctx) error {
	repo := repository.GetGlobalFactory().GetSessionRepository()
	sessions, err := repo.List()
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load sessions")
	}
	return c.JSON(fiber.Map{"success": true, "sessions": sessions})
}

// HandleGetSession returns one session by its public id.
func HandleGetSession(c *fiber.Ctx) error {
	repo := repository.GetGlobalFactory().GetSessionRepository()
	session, err := repo.GetByUUID(c.Params("session_id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "Session not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load session")
	}
	return c.JSON(fiber.Map{"success": true, "session": session})
}

// HandleDeleteSession removes a session together with its recordings and
// their analyses.
func HandleDeleteSession(c *fiber.Ctx) error {
	sessionID := c.Params("session_id")
	factory := repository.GetGlobalFactory()

	if err := factory.GetAnalysisRepository().DeleteBySessionUUID(sessionID); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to delete analyses")
	}
	if err := factory.GetRecordingRepository().DeleteBySessionUUID(sessionID); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to delete recordings")
	}
	if err := factory.GetSessionRepository().DeleteByUUID(sessionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "Session not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to delete session")
	}

	return c.JSON(fiber.Map{"success": true, "message": "Session deleted"})
}
