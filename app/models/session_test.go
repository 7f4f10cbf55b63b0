package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionValidate(t *testing.T) {
	session := &Session{
		Name:     "Willow Creek Asylum",
		Location: "Willow Creek, OR",
		Date:     "2026-08-30",
	}
	assert.NoError(t, session.Validate())

	session.Name = ""
	assert.Error(t, session.Validate())
}

func TestRecordingValidate(t *testing.T) {
	recording := &Recording{
		Type:        RecordingTypeEVP,
		AudioBase64: "dGVzdC1hdWRpbw==",
	}
	assert.NoError(t, recording.Validate())

	recording.Type = "seance"
	assert.Error(t, recording.Validate())

	recording.Type = RecordingTypeVoice
	recording.AudioBase64 = ""
	assert.Error(t, recording.Validate())
}

func TestEVPAnalysisAnomaliesRoundTrip(t *testing.T) {
	analysis := &EVPAnalysis{}
	assert.Nil(t, analysis.Anomalies())

	analysis.SetAnomalies([]string{"Brief communication detected"})
	assert.Equal(t, []string{"Brief communication detected"}, analysis.Anomalies())

	analysis.SetAnomalies(nil)
	assert.Empty(t, analysis.Anomalies())
}

func TestSubscriptionIsEntitled(t *testing.T) {
	sub := &Subscription{Status: SubscriptionStatusActive}
	assert.True(t, sub.IsEntitled())

	for _, status := range []string{SubscriptionStatusInactive, SubscriptionStatusCancelled, SubscriptionStatusSuspended} {
		sub.Status = status
		assert.False(t, sub.IsEntitled(), status)
	}
}
