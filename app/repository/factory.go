package repository

import (
	"sync"

	"gorm.io/gorm"

	"github.com/spectrahq/ghosthunter/internal/pkg/database"
)

// Factory manages repository instances and ensures they are singletons
type Factory struct {
	db    *gorm.DB
	repos *Repositories
	once  sync.Once
}

// NewFactory creates a new repository factory
func NewFactory(db *gorm.DB) *Factory {
	return &Factory{
		db: db,
	}
}

// NewRepositories builds all repositories from one DB handle.
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Session:   NewSessionRepository(db),
		Recording: NewRecordingRepository(db),
		Analysis:  NewAnalysisRepository(db),
	}
}

// GetRepositories returns a singleton instance of all repositories
func (f *Factory) GetRepositories() *Repositories {
	f.once.Do(func() {
		f.repos = NewRepositories(f.db)
	})
	return f.repos
}

// GetSessionRepository returns the session repository instance
func (f *Factory) GetSessionRepository() SessionRepository {
	return f.GetRepositories().Session
}

// GetRecordingRepository returns the recording repository instance
func (f *Factory) GetRecordingRepository() RecordingRepository {
	return f.GetRepositories().Recording
}

// GetAnalysisRepository returns the analysis repository instance
func (f *Factory) GetAnalysisRepository() AnalysisRepository {
	return f.GetRepositories().Analysis
}

var (
	globalFactory     *Factory
	globalFactoryOnce sync.Once
)

// GetGlobalFactory returns the process-wide factory bound to the global DB.
func GetGlobalFactory() *Factory {
	globalFactoryOnce.Do(func() {
		globalFactory = NewFactory(database.GetDB())
	})
	return globalFactory
}
