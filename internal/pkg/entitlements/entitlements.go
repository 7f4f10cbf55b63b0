package entitlements

import (
	"strings"

	"github.com/spectrahq/ghosthunter/app/models"
)

type Plan string

const (
	PlanFree Plan = "free"
	PlanPro  Plan = "pro"
)

// PlanForStatus projects a subscription status onto a plan. Only an active
// subscription grants pro; cancelled and suspended fall back to free.
func PlanForStatus(status string) Plan {
	if strings.ToLower(strings.TrimSpace(status)) == models.SubscriptionStatusActive {
		return PlanPro
	}
	return PlanFree
}

// CanTranscribe reports whether AI transcription is available on a plan.
func CanTranscribe(plan Plan) bool {
	return plan == PlanPro
}

// CanAnalyzeEVP reports whether the LLM EVP analysis is available on a plan.
func CanAnalyzeEVP(plan Plan) bool {
	return plan == PlanPro
}

// MaxRecordingBytes is the largest accepted audio payload per plan, measured
// on the decoded audio size.
func MaxRecordingBytes(plan Plan) int64 {
	switch plan {
	case PlanPro:
		return 50 << 20
	default:
		return 10 << 20
	}
}
