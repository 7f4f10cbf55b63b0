package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Session is a single paranormal investigation outing. Recordings and their
// analyses hang off it and are removed together with it.
type Session struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	UUID      string    `gorm:"type:varchar(36);uniqueIndex;not null" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name" validate:"required,min=1,max=255"`
	Location  string    `gorm:"type:varchar(255);not null" json:"location" validate:"required,min=1,max=255"`
	Date      string    `gorm:"type:varchar(64);not null" json:"date" validate:"required,max=64"`
	Notes     string    `gorm:"type:text" json:"notes" validate:"max=10000"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (s *Session) Validate() error {
	v := validator.New()

	return v.Struct(s)
}

// BeforeCreate assigns the public identifier.
func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.UUID == "" {
		s.UUID = uuid.New().String()
	}
	return nil
}
