package billing

import "errors"

// Error taxonomy for subscription operations. Callers branch on these with
// errors.Is to distinguish operational conditions from user-facing outcomes.
var (
	// ErrProviderUnavailable marks transport-level failures talking to the
	// billing provider. Recoverable; the user-facing action may be retried.
	ErrProviderUnavailable = errors.New("billing provider unavailable")

	// ErrProviderMisconfigured marks missing provider credentials or plan
	// configuration. Surfaced as "feature disabled", never as "not entitled".
	ErrProviderMisconfigured = errors.New("billing provider not configured")

	// ErrProviderCancelFailed marks an upstream cancellation that did not go
	// through. Local state is left unchanged so the user can retry.
	ErrProviderCancelFailed = errors.New("billing provider cancellation failed")

	// ErrMalformedEvent marks a webhook payload that cannot be parsed as an
	// event at all. It never causes local state change.
	ErrMalformedEvent = errors.New("malformed webhook event")
)
