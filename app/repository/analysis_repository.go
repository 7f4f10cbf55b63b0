package repository

import (
	"github.com/spectrahq/ghosthunter/app/models"
	"gorm.io/gorm"
)

// analysisRepository implements the AnalysisRepository interface
type analysisRepository struct {
	db *gorm.DB
}

// NewAnalysisRepository creates a new analysis repository instance
func NewAnalysisRepository(db *gorm.DB) AnalysisRepository {
	return &analysisRepository{db: db}
}

// Create creates a new analysis in the database
func (r *analysisRepository) Create(analysis *models.EVPAnalysis) error {
	return r.db.Create(analysis).Error
}

// GetLatestByRecordingUUID returns the most recent analysis for a recording
func (r *analysisRepository) GetLatestByRecordingUUID(recordingUUID string) (*models.EVPAnalysis, error) {
	var analysis models.EVPAnalysis
	err := r.db.Where("recording_uuid = ?", recordingUUID).
		Order("created_at DESC").First(&analysis).Error
	if err != nil {
		return nil, err
	}
	return &analysis, nil
}

// DeleteBySessionUUID removes analyses whose recordings belong to a session
func (r *analysisRepository) DeleteBySessionUUID(sessionUUID string) error {
	return r.db.Exec(
		"DELETE FROM evp_analyses WHERE recording_uuid IN (SELECT uuid FROM recordings WHERE session_uuid = ?)",
		sessionUUID,
	).Error
}
