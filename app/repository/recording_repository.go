package repository

import (
	"github.com/spectrahq/ghosthunter/app/models"
	"gorm.io/gorm"
)

// recordingRepository implements the RecordingRepository interface
type recordingRepository struct {
	db *gorm.DB
}

// NewRecordingRepository creates a new recording repository instance
func NewRecordingRepository(db *gorm.DB) RecordingRepository {
	return &recordingRepository{db: db}
}

// Create creates a new recording in the database
func (r *recordingRepository) Create(recording *models.Recording) error {
	return r.db.Create(recording).Error
}

// ListBySessionUUID returns all recordings of a session, newest first
func (r *recordingRepository) ListBySessionUUID(sessionUUID string) ([]models.Recording, error) {
	var recordings []models.Recording
	err := r.db.Where("session_uuid = ?", sessionUUID).
		Order("created_at DESC").Find(&recordings).Error
	return recordings, err
}

// GetByUUID retrieves a recording by its public identifier
func (r *recordingRepository) GetByUUID(uuid string) (*models.Recording, error) {
	var recording models.Recording
	err := r.db.Where("uuid = ?", uuid).First(&recording).Error
	if err != nil {
		return nil, err
	}
	return &recording, nil
}

// UpdateTranscription stores the transcription text on an existing recording
func (r *recordingRepository) UpdateTranscription(uuid, transcription string) error {
	return r.db.Model(&models.Recording{}).Where("uuid = ?", uuid).
		Update("transcription", transcription).Error
}

// DeleteBySessionUUID removes all recordings belonging to a session
func (r *recordingRepository) DeleteBySessionUUID(sessionUUID string) error {
	return r.db.Where("session_uuid = ?", sessionUUID).Delete(&models.Recording{}).Error
}
