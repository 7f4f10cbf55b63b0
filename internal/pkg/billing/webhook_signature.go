package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// VerifyWebhookSignature asks PayPal whether a pushed event really originated
// from the registered webhook. PayPal signs transmissions with its own
// certificate, so verification is a call to the provider rather than a local
// HMAC check. When no PAYPAL_WEBHOOK_ID is configured the check is skipped.
func (c *PayPalClient) VerifyWebhookSignature(ctx context.Context, sig WebhookSignature, event []byte) (bool, error) {
	if strings.TrimSpace(c.WebhookID) == "" {
		return true, nil
	}
	if sig.TransmissionID == "" || sig.TransmissionSig == "" || sig.CertURL == "" {
		return false, nil
	}

	token, err := c.Authenticate(ctx)
	if err != nil {
		return false, err
	}

	payload := map[string]interface{}{
		"auth_algo":         sig.AuthAlgo,
		"cert_url":          sig.CertURL,
		"transmission_id":   sig.TransmissionID,
		"transmission_sig":  sig.TransmissionSig,
		"transmission_time": sig.TransmissionTime,
		"webhook_id":        c.WebhookID,
		"webhook_event":     json.RawMessage(event),
	}

	body, err := c.doJSON(ctx, http.MethodPost, "/v1/notifications/verify-webhook-signature", token, payload, http.StatusOK)
	if err != nil {
		return false, err
	}

	var raw struct {
		VerificationStatus string `json:"verification_status"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return false, fmt.Errorf("%w: verification response invalid: %v", ErrProviderUnavailable, err)
	}
	return strings.EqualFold(raw.VerificationStatus, "SUCCESS"), nil
}
