package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RecordingTypeVoice     = "voice"
	RecordingTypeEVP       = "evp"
	RecordingTypeSpiritBox = "spirit_box"
)

// Recording is a captured audio clip inside a session. Audio arrives from the
// app as base64 and is stored verbatim; transcription is filled in later.
type Recording struct {
	ID            uint      `gorm:"primaryKey" json:"-"`
	UUID          string    `gorm:"type:varchar(36);uniqueIndex;not null" json:"id"`
	SessionID     uint      `gorm:"not null;index" json:"-"`
	Session       Session   `gorm:"foreignKey:SessionID" json:"-"`
	SessionUUID   string    `gorm:"type:varchar(36);not null;index" json:"session_id"`
	Type          string    `gorm:"type:varchar(20);not null;default:'voice'" json:"type" validate:"oneof=voice evp spirit_box"`
	AudioBase64   string    `gorm:"type:longtext;not null" json:"audio_base64" validate:"required"`
	Timestamp     string    `gorm:"type:varchar(64)" json:"timestamp" validate:"max=64"`
	Transcription string    `gorm:"type:text" json:"transcription"`
	CreatedAt     time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (r *Recording) Validate() error {
	v := validator.New()

	return v.Struct(r)
}

// BeforeCreate assigns the public identifier.
func (r *Recording) BeforeCreate(tx *gorm.DB) error {
	if r.UUID == "" {
		r.UUID = uuid.New().String()
	}
	return nil
}
