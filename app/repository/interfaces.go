package repository

import "github.com/spectrahq/ghosthunter/app/models"

// SessionRepository defines database operations for investigation sessions.
type SessionRepository interface {
	Create(session *models.Session) error
	List() ([]models.Session, error)
	GetByUUID(uuid string) (*models.Session, error)
	DeleteByUUID(uuid string) error
}

// RecordingRepository defines database operations for audio recordings.
type RecordingRepository interface {
	Create(recording *models.Recording) error
	ListBySessionUUID(sessionUUID string) ([]models.Recording, error)
	GetByUUID(uuid string) (*models.Recording, error)
	UpdateTranscription(uuid, transcription string) error
	DeleteBySessionUUID(sessionUUID string) error
}

// AnalysisRepository defines database operations for EVP analyses.
type AnalysisRepository interface {
	Create(analysis *models.EVPAnalysis) error
	GetLatestByRecordingUUID(recordingUUID string) (*models.EVPAnalysis, error)
	DeleteBySessionUUID(sessionUUID string) error
}

// Repositories bundles all repository instances.
type Repositories struct {
	Session   SessionRepository
	Recording RecordingRepository
	Analysis  AnalysisRepository
}
