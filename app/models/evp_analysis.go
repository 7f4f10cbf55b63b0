package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EVPAnalysis is the stored outcome of an AI pass over an EVP recording:
// the transcription, heuristic anomalies and the language-model verdict.
type EVPAnalysis struct {
	ID            uint      `gorm:"primaryKey" json:"-"`
	UUID          string    `gorm:"type:varchar(36);uniqueIndex;not null" json:"id"`
	RecordingUUID string    `gorm:"type:varchar(36);not null;index" json:"recording_id"`
	Transcription string    `gorm:"type:text" json:"transcription"`
	AnomaliesJSON string    `gorm:"type:text" json:"-"`
	AIAnalysis    string    `gorm:"type:longtext" json:"ai_analysis"`
	Confidence    float64   `gorm:"type:double;default:0" json:"confidence"`
	CreatedAt     time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"-"`
}

// Anomalies decodes the stored anomaly list.
func (a *EVPAnalysis) Anomalies() []string {
	if a.AnomaliesJSON == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(a.AnomaliesJSON), &out); err != nil {
		return nil
	}
	return out
}

// SetAnomalies encodes the anomaly list for storage.
func (a *EVPAnalysis) SetAnomalies(anomalies []string) {
	if len(anomalies) == 0 {
		a.AnomaliesJSON = "[]"
		return
	}
	b, err := json.Marshal(anomalies)
	if err != nil {
		a.AnomaliesJSON = "[]"
		return
	}
	a.AnomaliesJSON = string(b)
}

// BeforeCreate assigns the public identifier.
func (a *EVPAnalysis) BeforeCreate(tx *gorm.DB) error {
	if a.UUID == "" {
		a.UUID = uuid.New().String()
	}
	return nil
}
