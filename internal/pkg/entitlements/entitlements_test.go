package entitlements

import (
	"testing"

	"github.com/spectrahq/ghosthunter/app/models"
)

func TestPlanForStatus(t *testing.T) {
	tests := []struct {
		in   string
		want Plan
	}{
		{in: models.SubscriptionStatusActive, want: PlanPro},
		{in: "ACTIVE", want: PlanPro},
		{in: models.SubscriptionStatusCancelled, want: PlanFree},
		{in: models.SubscriptionStatusSuspended, want: PlanFree},
		{in: models.SubscriptionStatusInactive, want: PlanFree},
		{in: "", want: PlanFree},
	}

	for _, tt := range tests {
		if got := PlanForStatus(tt.in); got != tt.want {
			t.Fatalf("PlanForStatus(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFeatureGates(t *testing.T) {
	if CanTranscribe(PlanFree) || CanAnalyzeEVP(PlanFree) {
		t.Fatal("free plan must not unlock AI features")
	}
	if !CanTranscribe(PlanPro) || !CanAnalyzeEVP(PlanPro) {
		t.Fatal("pro plan must unlock AI features")
	}
	if MaxRecordingBytes(PlanFree) >= MaxRecordingBytes(PlanPro) {
		t.Fatal("expected pro to allow larger recordings than free")
	}
}
