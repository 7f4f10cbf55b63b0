package controllers

import (
	"encoding/base64"
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/spectrahq/ghosthunter/app/models"
	"github.com/spectrahq/ghosthunter/app/repository"
	"github.com/spectrahq/ghosthunter/internal/pkg/audiobackup"
	"github.com/spectrahq/ghosthunter/internal/pkg/entitlements"
)

type createRecordingRequest struct {
	SessionID   string `json:"session_id"`
	AudioBase64 string `json:"audio_base64"`
	Type        string `json:"type"`
	Timestamp   string `json:"timestamp"`
	UserID      string `json:"user_id"`
}

// HandleCreateRecording stores an audio clip under an existing session and
// archives the audio off-process when backup is configured.
func HandleCreateRecording(c *fiber.Ctx) error {
	var req createRecordingRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}

	factory := repository.GetGlobalFactory()
	session, err := factory.GetSessionRepository().GetByUUID(req.SessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "Session not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load session")
	}

	userID := req.UserID
	if userID == "" {
		userID = requestUserID(c)
	}
	plan := entitlements.PlanFree
	if billingService != nil {
		plan = planForUser(c.Context(), billingService, userID)
	}
	if decodedLen := base64.StdEncoding.DecodedLen(len(req.AudioBase64)); int64(decodedLen) > entitlements.MaxRecordingBytes(plan) {
		return jsonError(c, fiber.StatusRequestEntityTooLarge, "audio_too_large", "Audio exceeds the allowed size for your plan")
	}

	recording := &models.Recording{
		SessionID:   session.ID,
		SessionUUID: session.UUID,
		Type:        req.Type,
		AudioBase64: req.AudioBase64,
		Timestamp:   req.Timestamp,
	}
	if recording.Type == "" {
		recording.Type = models.RecordingTypeVoice
	}
	if err := recording.Validate(); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "validation_failed", err.Error())
	}

	if err := factory.GetRecordingRepository().Create(recording); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to create recording")
	}

	// Best-effort off-site copy; the request never waits on S3.
	go audiobackup.ArchiveRecording(recording)

	return c.JSON(fiber.Map{"success": true, "recording": recording})
}

// HandleListRecordings returns all recordings of a session, newest first.
func HandleListRecordings(c *fiber.Ctx) error {
	repo := repository.GetGlobalFactory().GetRecordingRepository()
	recordings, err := repo.ListBySessionUUID(c.Params("session_id"))
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load recordings")
	}
	return c.JSON(fiber.Map{"success": true, "recordings": recordings})
}
