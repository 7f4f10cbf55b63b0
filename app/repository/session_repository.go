package repository

import (
	"github.com/spectrahq/ghosthunter/app/models"
	"gorm.io/gorm"
)

// sessionRepository implements the SessionRepository interface
type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository creates a new session repository instance
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

// Create creates a new session in the database
func (r *sessionRepository) Create(session *models.Session) error {
	return r.db.Create(session).Error
}

// List returns all sessions, newest first
func (r *sessionRepository) List() ([]models.Session, error) {
	var sessions []models.Session
	err := r.db.Order("created_at DESC").Find(&sessions).Error
	return sessions, err
}

// GetByUUID retrieves a session by its public identifier
func (r *sessionRepository) GetByUUID(uuid string) (*models.Session, error) {
	var session models.Session
	err := r.db.Where("uuid = ?", uuid).First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// DeleteByUUID removes a session row; associated recordings are removed by
// the caller so the cascade stays visible in one place.
func (r *sessionRepository) DeleteByUUID(uuid string) error {
	result := r.db.Where("uuid = ?", uuid).Delete(&models.Session{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
