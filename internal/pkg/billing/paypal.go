package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spectrahq/ghosthunter/internal/pkg/env"
)

const (
	defaultPayPalAPIBaseURL        = "https://api-m.paypal.com"
	defaultPayPalSandboxAPIBaseURL = "https://api-m.sandbox.paypal.com"
)

// PayPalClient talks to the PayPal REST subscription API. Each operation
// fetches a fresh OAuth client-credentials token; tokens are intentionally
// not cached across calls so a stale token can never fail a request.
type PayPalClient struct {
	ClientID  string
	Secret    string
	PlanID    string
	WebhookID string
	BrandName string
	ReturnURL string
	CancelURL string

	APIBaseURL string

	HTTPClient *http.Client
}

type paypalTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

func NewPayPalClientFromEnv() *PayPalClient {
	base := strings.TrimSpace(env.GetEnv("PAYPAL_API_BASE_URL", ""))
	if base == "" {
		if env.GetEnv("PAYPAL_SANDBOX", "true") == "true" {
			base = defaultPayPalSandboxAPIBaseURL
		} else {
			base = defaultPayPalAPIBaseURL
		}
	}

	return &PayPalClient{
		ClientID:   strings.TrimSpace(env.GetEnv("PAYPAL_CLIENT_ID", "")),
		Secret:     strings.TrimSpace(env.GetEnv("PAYPAL_SECRET", "")),
		PlanID:     strings.TrimSpace(env.GetEnv("PAYPAL_PLAN_ID", "")),
		WebhookID:  strings.TrimSpace(env.GetEnv("PAYPAL_WEBHOOK_ID", "")),
		BrandName:  env.GetEnv("PAYPAL_BRAND_NAME", "Ghost Hunter Pro"),
		ReturnURL:  env.GetEnv("PAYPAL_RETURN_URL", "ghosthunter://subscription/success"),
		CancelURL:  env.GetEnv("PAYPAL_CANCEL_URL", "ghosthunter://subscription/cancel"),
		APIBaseURL: strings.TrimRight(base, "/"),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// IsConfigured reports whether credentials are present. The plan id is only
// required for checkout creation and is checked there.
func (c *PayPalClient) IsConfigured() bool {
	return strings.TrimSpace(c.ClientID) != "" && strings.TrimSpace(c.Secret) != ""
}

// Authenticate obtains a short-lived bearer token via the client-credentials
// grant.
func (c *PayPalClient) Authenticate(ctx context.Context) (string, error) {
	if !c.IsConfigured() {
		return "", fmt.Errorf("%w: PAYPAL_CLIENT_ID/PAYPAL_SECRET are not set", ErrProviderMisconfigured)
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.APIBaseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.ClientID, c.Secret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: token request: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: token request failed: status=%d body=%s", ErrProviderUnavailable, resp.StatusCode, string(body))
	}

	var out paypalTokenResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("%w: token response invalid: %v", ErrProviderUnavailable, err)
	}
	if strings.TrimSpace(out.AccessToken) == "" {
		return "", fmt.Errorf("%w: token response missing access_token", ErrProviderUnavailable)
	}
	return out.AccessToken, nil
}

// CreateCheckout creates a provider subscription for the configured plan and
// returns the approval URL plus the subscription id as checkout reference.
// The user id travels as custom_id so webhook events can be attributed.
func (c *PayPalClient) CreateCheckout(ctx context.Context, userID string) (*Checkout, error) {
	if strings.TrimSpace(c.PlanID) == "" {
		return nil, fmt.Errorf("%w: PAYPAL_PLAN_ID is not set", ErrProviderMisconfigured)
	}

	token, err := c.Authenticate(ctx)
	if err != nil {
		return nil, err
	}

	payload := map[string]interface{}{
		"plan_id":   c.PlanID,
		"custom_id": strings.TrimSpace(userID),
		"application_context": map[string]interface{}{
			"brand_name":  c.BrandName,
			"user_action": "SUBSCRIBE_NOW",
			"return_url":  c.ReturnURL,
			"cancel_url":  c.CancelURL,
		},
	}

	body, err := c.doJSON(ctx, http.MethodPost, "/v1/billing/subscriptions", token, payload, http.StatusCreated, http.StatusOK)
	if err != nil {
		return nil, err
	}

	var raw struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Links  []struct {
			Href string `json:"href"`
			Rel  string `json:"rel"`
		} `json:"links"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: checkout response invalid: %v", ErrProviderUnavailable, err)
	}
	if strings.TrimSpace(raw.ID) == "" {
		return nil, fmt.Errorf("%w: checkout response missing subscription id", ErrProviderUnavailable)
	}

	approvalURL := ""
	for _, l := range raw.Links {
		if strings.EqualFold(l.Rel, "approve") {
			approvalURL = l.Href
			break
		}
	}
	if approvalURL == "" {
		return nil, fmt.Errorf("%w: checkout response missing approval link", ErrProviderUnavailable)
	}

	return &Checkout{ApprovalURL: approvalURL, Reference: raw.ID}, nil
}

// FetchSubscription resolves a checkout reference / subscription id to the
// provider's current view of it.
func (c *PayPalClient) FetchSubscription(ctx context.Context, subscriptionID string) (*ProviderSubscription, error) {
	id := strings.TrimSpace(subscriptionID)
	if id == "" {
		return nil, errors.New("subscription id is required")
	}

	token, err := c.Authenticate(ctx)
	if err != nil {
		return nil, err
	}

	body, err := c.doJSON(ctx, http.MethodGet, "/v1/billing/subscriptions/"+url.PathEscape(id), token, nil, http.StatusOK)
	if err != nil {
		return nil, err
	}

	var raw struct {
		ID         string `json:"id"`
		Status     string `json:"status"`
		CustomID   string `json:"custom_id"`
		PlanID     string `json:"plan_id"`
		Subscriber struct {
			PayerID string `json:"payer_id"`
		} `json:"subscriber"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: subscription response invalid: %v", ErrProviderUnavailable, err)
	}

	return &ProviderSubscription{
		ID:         strings.TrimSpace(raw.ID),
		Status:     strings.TrimSpace(raw.Status),
		CustomID:   strings.TrimSpace(raw.CustomID),
		CustomerID: strings.TrimSpace(raw.Subscriber.PayerID),
		PlanID:     strings.TrimSpace(raw.PlanID),
	}, nil
}

// CancelSubscription cancels a provider subscription. PayPal answers 204 on
// success.
func (c *PayPalClient) CancelSubscription(ctx context.Context, subscriptionID string) error {
	id := strings.TrimSpace(subscriptionID)
	if id == "" {
		return errors.New("subscription id is required")
	}

	token, err := c.Authenticate(ctx)
	if err != nil {
		return err
	}

	payload := map[string]string{"reason": "Cancelled by user"}
	_, err = c.doJSON(ctx, http.MethodPost, "/v1/billing/subscriptions/"+url.PathEscape(id)+"/cancel", token, payload, http.StatusNoContent, http.StatusOK)
	return err
}

func (c *PayPalClient) doJSON(ctx context.Context, method, path, token string, payload interface{}, okStatuses ...int) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.APIBaseURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", ErrProviderUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	for _, s := range okStatuses {
		if resp.StatusCode == s {
			return body, nil
		}
	}
	return nil, fmt.Errorf("%w: %s %s failed: status=%d body=%s", ErrProviderUnavailable, method, path, resp.StatusCode, string(body))
}
