package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/spectrahq/ghosthunter/app/models"
	"github.com/spectrahq/ghosthunter/internal/pkg/billing"
)

type stubRepository struct {
	byUser map[string]*models.Subscription
}

func newStubRepository() *stubRepository {
	return &stubRepository{byUser: make(map[string]*models.Subscription)}
}

func (r *stubRepository) Upsert(sub *models.Subscription) error {
	stored := *sub
	r.byUser[sub.UserID] = &stored
	return nil
}

func (r *stubRepository) FindByUser(userID string) (*models.Subscription, error) {
	sub, ok := r.byUser[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *sub
	return &copied, nil
}

func (r *stubRepository) FindByProviderSubscriptionID(id string) (*models.Subscription, error) {
	for _, sub := range r.byUser {
		if sub.ProviderSubscriptionID == id {
			copied := *sub
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type stubProvider struct {
	configured      bool
	subscriptions   map[string]*billing.ProviderSubscription
	checkoutErr     error
	cancelErr       error
	rejectSignature bool
	signatureErr    error
}

func (p *stubProvider) IsConfigured() bool { return p.configured }

func (p *stubProvider) CreateCheckout(ctx context.Context, userID string) (*billing.Checkout, error) {
	if p.checkoutErr != nil {
		return nil, p.checkoutErr
	}
	return &billing.Checkout{ApprovalURL: "https://provider.test/approve/sub-1", Reference: "sub-1"}, nil
}

func (p *stubProvider) FetchSubscription(ctx context.Context, subscriptionID string) (*billing.ProviderSubscription, error) {
	sub, ok := p.subscriptions[subscriptionID]
	if !ok {
		return nil, billing.ErrProviderUnavailable
	}
	return sub, nil
}

func (p *stubProvider) CancelSubscription(ctx context.Context, subscriptionID string) error {
	return p.cancelErr
}

func (p *stubProvider) VerifyWebhookSignature(ctx context.Context, sig billing.WebhookSignature, event []byte) (bool, error) {
	if p.signatureErr != nil {
		return false, p.signatureErr
	}
	return !p.rejectSignature, nil
}

func newSubscriptionTestApp(t *testing.T, repo billing.Repository, provider billing.ProviderClient) *fiber.App {
	t.Helper()

	InitializeSubscriptionController(billing.NewService(repo, provider), provider)
	t.Cleanup(func() {
		InitializeSubscriptionController(nil, nil)
	})

	app := fiber.New()
	app.Get("/api/subscription/status/:user_id", HandleSubscriptionStatus)
	app.Post("/api/subscription/checkout", HandleCreateCheckout)
	app.Post("/api/subscription/verify", HandleVerifyCheckout)
	app.Post("/api/subscription/cancel", HandleCancelSubscription)
	app.Post("/api/subscription/dev-activate", HandleDevActivate)
	app.Post("/api/webhooks/paypal", HandlePayPalWebhook)
	return app
}

func doJSONRequest(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	return resp, decoded
}

func TestHandleSubscriptionStatusUnknownUser(t *testing.T) {
	app := newSubscriptionTestApp(t, newStubRepository(), &stubProvider{})

	resp, body := doJSONRequest(t, app, http.MethodGet, "/api/subscription/status/ghost-42", "")

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["is_subscribed"])
	assert.Equal(t, "inactive", body["status"])
	assert.Nil(t, body["subscription_id"])
}

func TestHandleSubscriptionStatusActiveUser(t *testing.T) {
	repo := newStubRepository()
	require.NoError(t, repo.Upsert(&models.Subscription{
		UserID:                 "ghost-42",
		ProviderSubscriptionID: "I-ACTIVE",
		Status:                 models.SubscriptionStatusActive,
	}))
	app := newSubscriptionTestApp(t, repo, &stubProvider{})

	resp, body := doJSONRequest(t, app, http.MethodGet, "/api/subscription/status/ghost-42", "")

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["is_subscribed"])
	assert.Equal(t, "active", body["status"])
	assert.Equal(t, "I-ACTIVE", body["subscription_id"])
}

func TestHandleCreateCheckoutUnconfiguredProvider(t *testing.T) {
	app := newSubscriptionTestApp(t, newStubRepository(), &stubProvider{configured: false})

	resp, body := doJSONRequest(t, app, http.MethodPost, "/api/subscription/checkout", `{"user_id":"ghost-42"}`)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["success"])
	assert.NotEmpty(t, body["message"])
}

func TestHandleCreateCheckoutReturnsApprovalURL(t *testing.T) {
	app := newSubscriptionTestApp(t, newStubRepository(), &stubProvider{configured: true})

	resp, body := doJSONRequest(t, app, http.MethodPost, "/api/subscription/checkout", `{"user_id":"ghost-42"}`)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "https://provider.test/approve/sub-1", body["checkout_url"])
	assert.Equal(t, "sub-1", body["reference"])
}

func TestHandleCreateCheckoutProviderDown(t *testing.T) {
	app := newSubscriptionTestApp(t, newStubRepository(), &stubProvider{
		configured:  true,
		checkoutErr: billing.ErrProviderUnavailable,
	})

	resp, body := doJSONRequest(t, app, http.MethodPost, "/api/subscription/checkout", `{"user_id":"ghost-42"}`)

	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "provider_unavailable", body["error"])
}

func TestHandleVerifyCheckoutActivates(t *testing.T) {
	repo := newStubRepository()
	provider := &stubProvider{
		configured: true,
		subscriptions: map[string]*billing.ProviderSubscription{
			"sub-1": {ID: "sub-1", Status: "ACTIVE", CustomID: "ghost-42"},
		},
	}
	app := newSubscriptionTestApp(t, repo, provider)

	resp, body := doJSONRequest(t, app, http.MethodPost, "/api/subscription/verify", `{"user_id":"ghost-42","reference":"sub-1"}`)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["is_subscribed"])

	stored, err := repo.FindByUser("ghost-42")
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionStatusActive, stored.Status)
}

func TestHandleVerifyCheckoutMissingFields(t *testing.T) {
	app := newSubscriptionTestApp(t, newStubRepository(), &stubProvider{configured: true})

	resp, body := doJSONRequest(t, app, http.MethodPost, "/api/subscription/verify", `{"user_id":"ghost-42"}`)

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "bad_request", body["error"])
}

func TestHandleCancelSubscriptionIdempotent(t *testing.T) {
	app := newSubscriptionTestApp(t, newStubRepository(), &stubProvider{configured: true})

	resp, body := doJSONRequest(t, app, http.MethodPost, "/api/subscription/cancel", `{"user_id":"ghost-42"}`)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["success"])
	assert.NotEmpty(t, body["message"])
}

func TestHandleCancelSubscriptionProviderRefusal(t *testing.T) {
	repo := newStubRepository()
	require.NoError(t, repo.Upsert(&models.Subscription{
		UserID:                 "ghost-42",
		ProviderSubscriptionID: "I-ACTIVE",
		Status:                 models.SubscriptionStatusActive,
	}))
	app := newSubscriptionTestApp(t, repo, &stubProvider{
		configured: true,
		cancelErr:  billing.ErrProviderUnavailable,
	})

	resp, body := doJSONRequest(t, app, http.MethodPost, "/api/subscription/cancel", `{"user_id":"ghost-42"}`)

	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "provider_cancel_failed", body["error"])

	// local state is untouched when the upstream cancel is refused
	stored, err := repo.FindByUser("ghost-42")
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionStatusActive, stored.Status)
}

// capturePlanCacheInvalidations reroutes cache invalidation into a slice for
// the duration of a test.
func capturePlanCacheInvalidations(t *testing.T) *[]string {
	t.Helper()

	var invalidated []string
	previous := invalidatePlanCache
	invalidatePlanCache = func(userID string) {
		invalidated = append(invalidated, userID)
	}
	t.Cleanup(func() {
		invalidatePlanCache = previous
	})
	return &invalidated
}

func TestHandlePayPalWebhookActivates(t *testing.T) {
	repo := newStubRepository()
	app := newSubscriptionTestApp(t, repo, &stubProvider{configured: true})

	payload := `{"event_type":"BILLING.SUBSCRIPTION.ACTIVATED","resource":{"id":"I-NEW","status":"ACTIVE","custom_id":"ghost-42"}}`
	resp, body := doJSONRequest(t, app, http.MethodPost, "/api/webhooks/paypal", payload)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])

	stored, err := repo.FindByUser("ghost-42")
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionStatusActive, stored.Status)
	assert.Equal(t, "I-NEW", stored.ProviderSubscriptionID)
}

func TestHandlePayPalWebhookCancellationDropsCachedPlan(t *testing.T) {
	repo := newStubRepository()
	require.NoError(t, repo.Upsert(&models.Subscription{
		UserID:                 "ghost-42",
		ProviderSubscriptionID: "I-ACTIVE",
		Status:                 models.SubscriptionStatusActive,
	}))
	app := newSubscriptionTestApp(t, repo, &stubProvider{configured: true})
	invalidated := capturePlanCacheInvalidations(t)

	payload := `{"event_type":"BILLING.SUBSCRIPTION.CANCELLED","resource":{"id":"I-ACTIVE","status":"CANCELLED"}}`
	resp, body := doJSONRequest(t, app, http.MethodPost, "/api/webhooks/paypal", payload)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])

	stored, err := repo.FindByUser("ghost-42")
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionStatusCancelled, stored.Status)

	// A payment failure arriving by webhook must not leave a stale pro plan
	// cached until the TTL runs out.
	assert.Equal(t, []string{"ghost-42"}, *invalidated)
}

func TestHandlePayPalWebhookRejectsInvalidSignature(t *testing.T) {
	repo := newStubRepository()
	app := newSubscriptionTestApp(t, repo, &stubProvider{configured: true, rejectSignature: true})

	payload := `{"event_type":"BILLING.SUBSCRIPTION.ACTIVATED","resource":{"id":"I-FORGED","status":"ACTIVE","custom_id":"mallory"}}`
	resp, body := doJSONRequest(t, app, http.MethodPost, "/api/webhooks/paypal", payload)

	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "invalid_signature", body["error"])

	_, err := repo.FindByUser("mallory")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestHandlePayPalWebhookSignatureCheckUnavailable(t *testing.T) {
	app := newSubscriptionTestApp(t, newStubRepository(), &stubProvider{
		configured:   true,
		signatureErr: billing.ErrProviderUnavailable,
	})

	payload := `{"event_type":"BILLING.SUBSCRIPTION.ACTIVATED","resource":{"id":"I-NEW","status":"ACTIVE","custom_id":"ghost-42"}}`
	resp, body := doJSONRequest(t, app, http.MethodPost, "/api/webhooks/paypal", payload)

	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "provider_unavailable", body["error"])
}

func TestHandlePayPalWebhookUnknownEventTypeAcknowledged(t *testing.T) {
	app := newSubscriptionTestApp(t, newStubRepository(), &stubProvider{configured: true})

	payload := `{"event_type":"BILLING.PLAN.UPDATED","resource":{"id":"P-1"}}`
	resp, body := doJSONRequest(t, app, http.MethodPost, "/api/webhooks/paypal", payload)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
}

func TestHandlePayPalWebhookMalformedPayload(t *testing.T) {
	app := newSubscriptionTestApp(t, newStubRepository(), &stubProvider{configured: true})

	resp, body := doJSONRequest(t, app, http.MethodPost, "/api/webhooks/paypal", `not json at all`)

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "malformed_event", body["error"])
}

func TestHandleDevActivate(t *testing.T) {
	repo := newStubRepository()
	app := newSubscriptionTestApp(t, repo, &stubProvider{})

	resp, body := doJSONRequest(t, app, http.MethodPost, "/api/subscription/dev-activate", `{"user_id":"ghost-42"}`)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["is_subscribed"])

	stored, err := repo.FindByUser("ghost-42")
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionStatusActive, stored.Status)
	assert.True(t, stored.IsDevMode)
}
