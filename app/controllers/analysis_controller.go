package controllers

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/spectrahq/ghosthunter/app/models"
	"github.com/spectrahq/ghosthunter/app/repository"
	"github.com/spectrahq/ghosthunter/internal/pkg/entitlements"
	"github.com/spectrahq/ghosthunter/internal/pkg/evp"
	"github.com/spectrahq/ghosthunter/internal/pkg/speech"
)

// Audio transcription plus a language-model pass can take a while on long
// clips.
const aiCallTimeout = 90 * time.Second

var (
	speechClient *speech.Client
	evpAnalyzer  *evp.Analyzer
)

// InitializeAnalysisController injects the speech-to-text and EVP analysis
// clients.
func InitializeAnalysisController(sc *speech.Client, an *evp.Analyzer) {
	speechClient = sc
	evpAnalyzer = an
}

type analyzeEVPRequest struct {
	RecordingID string `json:"recording_id"`
	AudioBase64 string `json:"audio_base64"`
	UserID      string `json:"user_id"`
}

func requirePlan(c *fiber.Ctx, userID string, allowed func(entitlements.Plan) bool) error {
	plan := entitlements.PlanFree
	if billingService != nil {
		plan = planForUser(c.Context(), billingService, userID)
	}
	if !allowed(plan) {
		return jsonError(c, fiber.StatusPaymentRequired, "subscription_required", "This feature requires an active subscription")
	}
	return nil
}

// HandleTranscribe runs speech-to-text over an uploaded audio file.
func HandleTranscribe(c *fiber.Ctx) error {
	if speechClient == nil || !speechClient.IsConfigured() {
		return jsonError(c, fiber.StatusServiceUnavailable, "ai_unavailable", "Transcription is not configured on this deployment")
	}

	if err := requirePlan(c, requestUserID(c), entitlements.CanTranscribe); err != nil {
		return err
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "An audio file upload is required")
	}
	file, err := fileHeader.Open()
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Could not read the uploaded file")
	}
	defer file.Close()

	ctx, cancel := context.WithTimeout(context.Background(), aiCallTimeout)
	defer cancel()

	transcription, err := speechClient.Transcribe(ctx, fileHeader.Filename, file)
	if err != nil {
		log.Errorf("transcription failed for %s: %v", fileHeader.Filename, err)
		return jsonError(c, fiber.StatusBadGateway, "transcription_failed", "Transcription failed, try again later")
	}

	return c.JSON(fiber.Map{"success": true, "transcription": transcription})
}

// HandleAnalyzeEVP transcribes a recording's audio, runs the anomaly
// heuristics and the language-model analysis, and stores the outcome.
func HandleAnalyzeEVP(c *fiber.Ctx) error {
	if speechClient == nil || !speechClient.IsConfigured() || evpAnalyzer == nil || !evpAnalyzer.IsConfigured() {
		return jsonError(c, fiber.StatusServiceUnavailable, "ai_unavailable", "EVP analysis is not configured on this deployment")
	}

	var req analyzeEVPRequest
	if err := c.BodyParser(&req); err != nil || req.RecordingID == "" {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "recording_id is required")
	}

	userID := req.UserID
	if userID == "" {
		userID = requestUserID(c)
	}
	if err := requirePlan(c, userID, entitlements.CanAnalyzeEVP); err != nil {
		return err
	}

	factory := repository.GetGlobalFactory()
	recording, err := factory.GetRecordingRepository().GetByUUID(req.RecordingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "Recording not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load recording")
	}

	audioBase64 := req.AudioBase64
	if audioBase64 == "" {
		audioBase64 = recording.AudioBase64
	}
	audio, err := base64.StdEncoding.DecodeString(audioBase64)
	if err != nil || len(audio) == 0 {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "audio_base64 is not valid base64 audio")
	}

	ctx, cancel := context.WithTimeout(context.Background(), aiCallTimeout)
	defer cancel()

	transcription, err := speechClient.Transcribe(ctx, recording.UUID+".m4a", bytes.NewReader(audio))
	if err != nil {
		log.Errorf("transcription failed for recording %s: %v", recording.UUID, err)
		return jsonError(c, fiber.StatusBadGateway, "transcription_failed", "Transcription failed, try again later")
	}

	result, err := evpAnalyzer.Analyze(ctx, transcription)
	if err != nil {
		log.Errorf("EVP analysis failed for recording %s: %v", recording.UUID, err)
		return jsonError(c, fiber.StatusBadGateway, "analysis_failed", "EVP analysis failed, try again later")
	}

	analysis := &models.EVPAnalysis{
		RecordingUUID: recording.UUID,
		Transcription: result.Transcription,
		AIAnalysis:    result.AIAnalysis,
		Confidence:    result.Confidence,
	}
	analysis.SetAnomalies(result.Anomalies)

	if err := factory.GetAnalysisRepository().Create(analysis); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to store the analysis")
	}
	if err := factory.GetRecordingRepository().UpdateTranscription(recording.UUID, result.Transcription); err != nil {
		log.Warnf("failed to store transcription on recording %s: %v", recording.UUID, err)
	}

	return c.JSON(fiber.Map{
		"success":       true,
		"analysis_id":   analysis.UUID,
		"transcription": result.Transcription,
		"anomalies":     result.Anomalies,
		"ai_analysis":   result.AIAnalysis,
		"confidence":    result.Confidence,
	})
}

// HandleGetEVPAnalysis returns the most recent stored analysis of a
// recording.
func HandleGetEVPAnalysis(c *fiber.Ctx) error {
	analysis, err := repository.GetGlobalFactory().GetAnalysisRepository().
		GetLatestByRecordingUUID(c.Params("recording_id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "No analysis found for this recording")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load the analysis")
	}

	return c.JSON(fiber.Map{
		"success":       true,
		"analysis_id":   analysis.UUID,
		"recording_id":  analysis.RecordingUUID,
		"transcription": analysis.Transcription,
		"anomalies":     analysis.Anomalies(),
		"ai_analysis":   analysis.AIAnalysis,
		"confidence":    analysis.Confidence,
		"created_at":    analysis.CreatedAt,
	})
}
